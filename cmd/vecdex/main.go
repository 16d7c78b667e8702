package main

import (
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/vecdex/vecdex/cmd/vecdex/commands"
)

func main() {
	app := &cli.App{
		Name:  "vecdex",
		Usage: "Mutable vector similarity index",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "data-dir", Aliases: []string{"d"}, Usage: "Document store directory"},
			&cli.StringFlag{Name: "snapshot-dir", Aliases: []string{"s"}, Usage: "Index snapshot directory"},
			&cli.StringFlag{Name: "index-key", Value: "Flat", Usage: "Index type: Flat or IVF<nlist>,Flat"},
			&cli.StringFlag{Name: "metric", Value: "l2", Usage: "Distance metric: l2 or inner_product"},
			&cli.BoolFlag{Name: "normalize", Usage: "L2-normalize vectors"},
			&cli.IntFlag{Name: "nprobe", Value: 1},
			&cli.IntFlag{Name: "shards", Value: 1, Usage: "Virtual shard count"},
			&cli.StringFlag{Name: "trained-index-file"},
			&cli.IntFlag{Name: "max-training-points"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("verbose") {
				log.SetLevel(log.DebugLevel)
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:   "train",
				Usage:  "Train an index on a .vecs file",
				Action: commands.Train,
			},
			{
				Name:   "build",
				Usage:  "Build the index from the document store",
				Action: commands.Build,
			},
			{
				Name:  "search",
				Usage: "Query the index",
				Flags: []cli.Flag{
					&cli.UintFlag{Name: "top-k", Aliases: []string{"k"}, Value: 5},
				},
				Action: commands.Search,
			},
			{
				Name:  "sync",
				Usage: "Keep a snapshot in sync with the store",
				Flags: []cli.Flag{
					&cli.DurationFlag{Name: "interval", Value: 10 * time.Second},
				},
				Action: commands.Sync,
			},
			{
				Name:   "stats",
				Usage:  "Show store and index counters",
				Action: commands.Stats,
			},
			{
				Name:  "docs",
				Usage: "Manage stored documents",
				Subcommands: []*cli.Command{
					{
						Name:  "add",
						Usage: "Store a document",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "id"},
							&cli.StringFlag{Name: "payload"},
						},
						Action: commands.AddDoc,
					},
					{
						Name:   "get",
						Usage:  "Show a stored document",
						Action: commands.GetDoc,
					},
					{
						Name:   "delete",
						Usage:  "Delete a document",
						Action: commands.DeleteDoc,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
