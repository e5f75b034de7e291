package archive

import (
	"iter"
	"strings"
)

// Index maps archive-internal paths to their resolved directory entries.
// It is built once from a single pass over the central directory and is
// read-only afterwards, so any number of goroutines may query it
// concurrently.
//
// The format does not forbid duplicate paths. When a path repeats, the later
// occurrence in central-directory order replaces the earlier one: directory
// order reflects the producer's most-recent-wins layering. This is a stated
// policy of the index, not an accidental map overwrite.
type Index struct {
	entries []Entry
	byPath  map[string]int
}

// buildIndex consumes the directory sequence once. Any error aborts the
// build; a partial index is never returned.
func buildIndex(seq iter.Seq2[Entry, error]) (*Index, error) {
	ix := &Index{byPath: make(map[string]int)}
	for e, err := range seq {
		if err != nil {
			return nil, err
		}
		if i, ok := ix.byPath[e.Path]; ok {
			ix.entries[i] = e
			continue
		}
		ix.byPath[e.Path] = len(ix.entries)
		ix.entries = append(ix.entries, e)
	}
	return ix, nil
}

// Len returns the number of distinct paths in the index.
func (ix *Index) Len() int { return len(ix.entries) }

// Lookup returns the entry for an exact path.
func (ix *Index) Lookup(path string) (Entry, bool) {
	i, ok := ix.byPath[path]
	if !ok {
		return Entry{}, false
	}
	return ix.entries[i], true
}

// List yields the entries whose path starts with prefix, lazily, in
// central-directory order. The order is stable across calls but otherwise
// unspecified; callers wanting sorted output sort explicitly.
func (ix *Index) List(prefix string) iter.Seq[Entry] {
	return ix.filter(func(p string) bool { return strings.HasPrefix(p, prefix) })
}

// ListSuffix yields the entries whose path ends with suffix, lazily, in the
// same order as List. Useful for pulling every file of one extension.
func (ix *Index) ListSuffix(suffix string) iter.Seq[Entry] {
	return ix.filter(func(p string) bool { return strings.HasSuffix(p, suffix) })
}

// Find yields the entries whose path contains substr anywhere,
// case-insensitively, lazily, in the same order as List.
func (ix *Index) Find(substr string) iter.Seq[Entry] {
	substr = strings.ToLower(substr)
	return ix.filter(func(p string) bool { return strings.Contains(strings.ToLower(p), substr) })
}

func (ix *Index) filter(match func(string) bool) iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		for _, e := range ix.entries {
			if match(e.Path) && !yield(e) {
				return
			}
		}
	}
}
