package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/vecdex/vecdex/compound"
	"github.com/vecdex/vecdex/math"
)

// Train fits an index on a .vecs training file and writes the empty trained
// index for later builds.
func Train(c *cli.Context) error {
	if c.NArg() < 2 {
		return errors.New("Usage: train <training-file> <output-file>")
	}

	indexer, err := newIndexer(c)
	if err != nil {
		return err
	}
	if err := indexer.Train(c.Args().Get(0)); err != nil {
		return err
	}
	return indexer.SaveTrainedIndex(c.Args().Get(1))
}

// Build indexes the document store and writes a snapshot.
func Build(c *cli.Context) error {
	store, closeStore, err := openStore(c)
	if err != nil {
		return err
	}
	defer closeStore()

	indexer, err := newIndexer(c)
	if err != nil {
		return err
	}

	searcher := compound.NewSearcher(store, indexer)
	if err := searcher.Build(); err != nil {
		return err
	}

	snapshotDir := c.String("snapshot-dir")
	if snapshotDir == "" {
		log.Warn("No --snapshot-dir, index not persisted")
		return nil
	}
	return indexer.Save(snapshotDir)
}

// Search restores a snapshot and runs a single query against it.
func Search(c *cli.Context) error {
	if c.NArg() == 0 {
		return errors.New("Usage: search <comma-separated-vector>")
	}
	query, err := parseQueryVector(c.Args().Get(0))
	if err != nil {
		return err
	}

	store, closeStore, err := openStore(c)
	if err != nil {
		return err
	}
	defer closeStore()

	indexer, err := newIndexer(c)
	if err != nil {
		return err
	}
	loaded, err := indexer.Load(c.String("snapshot-dir"))
	if err != nil {
		return err
	}
	if !loaded {
		return errors.New("No snapshot to search; run build first")
	}

	searcher := compound.NewSearcher(store, indexer)
	results, err := searcher.Search(context.Background(), []math.Vector{query}, uint(c.Uint("top-k")))
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"id", "score", "payload"})
	for _, result := range results[0] {
		table.Append([]string{
			result.Id,
			fmt.Sprintf("%.6f", result.Score),
			string(result.Payload),
		})
	}
	table.Render()
	return nil
}

// Stats prints store and snapshot counters.
func Stats(c *cli.Context) error {
	store, closeStore, err := openStore(c)
	if err != nil {
		return err
	}
	defer closeStore()

	storeSize, err := store.Size()
	if err != nil {
		return err
	}

	indexer, err := newIndexer(c)
	if err != nil {
		return err
	}
	loaded, err := indexer.Load(c.String("snapshot-dir"))
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"stat", "value"})
	table.Append([]string{"store documents", fmt.Sprintf("%d", storeSize)})
	table.Append([]string{"snapshot loaded", fmt.Sprintf("%t", loaded)})
	if loaded {
		table.Append([]string{"indexed", fmt.Sprintf("%d", indexer.Size())})
		table.Append([]string{"tombstones", fmt.Sprintf("%d", indexer.DeletedCount())})
		table.Append([]string{"dimension", fmt.Sprintf("%d", indexer.Dimension())})
	}
	table.Render()
	return nil
}
