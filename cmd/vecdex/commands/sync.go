package commands

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/vecdex/vecdex"
	"github.com/vecdex/vecdex/compound"
	"github.com/vecdex/vecdex/utils"
)

// Sync restores a snapshot, then periodically applies store deltas to it
// until interrupted. The updated snapshot is written back on shutdown.
func Sync(c *cli.Context) error {
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
		return errors.New("No snapshot to sync; run build first")
	}

	searcher := compound.NewSearcher(store, indexer)
	// Mutations written after the snapshot are replayed from its file time.
	if info, err := os.Stat(filepath.Join(c.String("snapshot-dir"), vecdex.INDEX_FILE_NAME)); err == nil {
		searcher.SetCheckpoint(info.ModTime())
	}

	interval := c.Duration("interval")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	interrupt := utils.InterruptSignal()

	log.WithFields(log.Fields{"interval": interval}).Info("Syncing until interrupted")
	for {
		select {
		case <-ticker.C:
			if err := searcher.Sync(); err != nil {
				return err
			}
		case <-interrupt:
			log.Info("Interrupted, writing snapshot")
			return indexer.Save(c.String("snapshot-dir"))
		}
	}
}
