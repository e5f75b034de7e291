// Package archive reads and indexes game data archives: a zip64-capable
// container format storing entries as raw deflate streams. The archive is
// opened read-only, its central directory is walked exactly once to build an
// in-memory path index, and entries are decompressed on demand through
// positioned reads.
package archive

import (
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
)

// Archive is an opened, indexed data archive. The underlying reader is never
// written to; indexing and extraction only borrow it for positioned reads,
// so an Archive is safe for concurrent use once Open or New returns.
type Archive struct {
	r      io.ReaderAt
	size   int64
	index  *Index
	closer io.Closer // set when the Archive owns the file
}

// Open opens the archive at path read-only and indexes it. Close releases
// the file.
func Open(path string) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat archive: %w", err)
	}
	a, err := New(f, fi.Size())
	if err != nil {
		f.Close()
		return nil, err
	}
	a.closer = f
	return a, nil
}

// New indexes an archive already available as a positioned reader of the
// given size. The caller keeps ownership of r.
func New(r io.ReaderAt, size int64) (*Archive, error) {
	end, err := readDirectoryEnd(r, size)
	if err != nil {
		return nil, err
	}
	ix, err := buildIndex(readDirectory(r, end, size))
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{
		"entries": ix.Len(),
		"records": end.records,
		"zip64":   end.zip64,
	}).Debug("archive indexed")
	return &Archive{r: r, size: size, index: ix}, nil
}

// Index returns the path index built at open time.
func (a *Archive) Index() *Index { return a.index }

// Size returns the archive's byte size.
func (a *Archive) Size() int64 { return a.size }

// Close releases the underlying file if the Archive owns one. The index
// stays usable, but extraction after Close fails.
func (a *Archive) Close() error {
	if a.closer != nil {
		return a.closer.Close()
	}
	return nil
}
