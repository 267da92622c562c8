package snapshot

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"dasinsights/logger"
)

// Document pairs one loaded snapshot tree with its calendar date.
type Document struct {
	Date string
	Name string
	Root Node
}

// LoadAll reads and parses every snapshot file. Reading is the only
// I/O-bound step of a run, so it fans out across a bounded worker group;
// results land in their original slots so the caller still consumes them in
// ascending date order. Any schema failure cancels the group and aborts the
// whole load, matching the fatal semantics of the schema gate.
func LoadAll(ctx context.Context, files []File, maxWorkers int) ([]*Document, error) {
	log := logger.GetLogger().WithComponent("loader")

	if maxWorkers < 1 {
		maxWorkers = 1
	}

	docs := make([]*Document, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWorkers)

	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			raw, err := os.ReadFile(file.Path)
			if err != nil {
				return fmt.Errorf("failed to read snapshot %s: %w", file.Name, err)
			}
			root, err := ParseDocument(raw, file.Name)
			if err != nil {
				return err
			}
			docs[i] = &Document{Date: file.Date, Name: file.Name, Root: root}
			logger.IncrementSnapshotParsed(len(raw))
			log.WithFields(logger.Fields{"file": file.Name, "date": file.Date, "bytes": len(raw)}).Debug("snapshot loaded")
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	log.WithFields(logger.Fields{"snapshots": len(docs), "workers": maxWorkers}).Info("all snapshots loaded")
	return docs, nil
}
