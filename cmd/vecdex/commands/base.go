package commands

import (
	"errors"
	"strconv"
	"strings"

	badger "github.com/dgraph-io/badger/v2"
	"github.com/urfave/cli/v2"

	"github.com/vecdex/vecdex"
	"github.com/vecdex/vecdex/index/space"
	"github.com/vecdex/vecdex/math"
	"github.com/vecdex/vecdex/storage"
)

var MissingDataDirErr error = errors.New("Missing --data-dir")

func openStore(c *cli.Context) (*storage.DocStore, func(), error) {
	dataDir := c.String("data-dir")
	if dataDir == "" {
		return nil, nil, MissingDataDirErr
	}

	db, err := badger.Open(badger.DefaultOptions(dataDir).WithLogger(nil))
	if err != nil {
		return nil, nil, err
	}

	return storage.NewDocStore(db, c.Int("shards")), func() { db.Close() }, nil
}

func newIndexer(c *cli.Context) (*vecdex.Indexer, error) {
	metric, err := space.ParseMetric(c.String("metric"))
	if err != nil {
		return nil, err
	}

	options := []vecdex.IndexerOption{
		vecdex.IndexKey(c.String("index-key")),
		vecdex.Metric(metric),
		vecdex.Nprobe(c.Int("nprobe")),
	}
	if c.Bool("normalize") {
		options = append(options, vecdex.Normalize())
	}
	if c.String("trained-index-file") != "" {
		options = append(options, vecdex.TrainedIndexFile(c.String("trained-index-file")))
	}
	if c.Int("max-training-points") > 0 {
		options = append(options, vecdex.MaxTrainingPoints(c.Int("max-training-points")))
	}

	return vecdex.NewIndexer(options...)
}

// parseQueryVector reads a comma-separated float list, e.g. "0.1,0.2,0.3".
func parseQueryVector(raw string) (math.Vector, error) {
	parts := strings.Split(raw, ",")
	vector := make(math.Vector, len(parts))
	for i, part := range parts {
		val, err := strconv.ParseFloat(strings.TrimSpace(part), 32)
		if err != nil {
			return nil, err
		}
		vector[i] = float32(val)
	}
	return vector, nil
}
