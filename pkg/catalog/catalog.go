// Package catalog drains archive index queries into external sinks, such as
// a directory on disk or a database-backed catalog. It is the bridge between
// the read-only archive index and whatever consumes the extracted content.
package catalog

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"sync/atomic"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ampynjord/starvis-sub003/pkg/archive"
)

// Sink receives extracted entries. Implementations must be safe for
// concurrent use; the syncer delivers entries from multiple workers.
type Sink interface {
	Put(ctx context.Context, e archive.Entry, data []byte) error
}

// Syncer extracts every entry matching a prefix query and hands the results
// to a Sink. Extraction only issues positioned reads on disjoint byte
// ranges, so the workers need no coordination beyond the pool itself.
type Syncer struct {
	Archive *archive.Archive

	// Workers bounds concurrent extractions; zero or negative means
	// GOMAXPROCS.
	Workers int

	// OnEntry, if set, is called after each entry lands in the sink. Called
	// concurrently from worker goroutines.
	OnEntry func(archive.Entry)
}

// Sync extracts everything under prefix into sink and returns the number of
// entries delivered. The first failure cancels outstanding work; entries
// already delivered stay delivered.
func (s *Syncer) Sync(ctx context.Context, prefix string, sink Sink) (int, error) {
	workers := s.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var n atomic.Int64
	for e := range s.Archive.Index().List(prefix) {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			data, err := s.Archive.Extract(e)
			if err != nil {
				return fmt.Errorf("extract %q: %w", e.Path, err)
			}
			if err := sink.Put(ctx, e, data); err != nil {
				return fmt.Errorf("sink %q: %w", e.Path, err)
			}
			log.WithField("path", e.Path).Trace("entry synced")
			if s.OnEntry != nil {
				s.OnEntry(e)
			}
			n.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return int(n.Load()), err
	}
	return int(n.Load()), nil
}

// DirSink writes entries under Root, mirroring their archive paths. Entry
// paths are rooted before joining so no entry can escape Root.
type DirSink struct {
	Root string

	// Mode is the file mode for written entries; zero means 0644.
	Mode os.FileMode
}

func (d DirSink) Put(_ context.Context, e archive.Entry, data []byte) error {
	rel := path.Clean("/" + e.Path)[1:]
	if rel == "" {
		return fmt.Errorf("entry %q resolves to an empty path", e.Path)
	}
	dst := filepath.Join(d.Root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create directory for %q: %w", e.Path, err)
	}
	mode := d.Mode
	if mode == 0 {
		mode = 0o644
	}
	if err := os.WriteFile(dst, data, mode); err != nil {
		return fmt.Errorf("write %q: %w", e.Path, err)
	}
	return nil
}
