package archive

import (
	"bufio"
	"fmt"
	"io"
	"iter"
)

// readDirectory walks the central directory sequentially and yields one
// resolved Entry per record. Records carry no length prefix, so each record's
// end is only known after its header is decoded; the walk is strictly
// sequential by construction. The region is consumed through a large buffer
// so multi-million-entry directories cost a handful of reads, not one per
// field.
//
// The sequence is finite: it ends after the declared record count, or
// immediately after yielding a non-nil error. Errors abort the walk because
// offsets past a corrupt record cannot be trusted.
func readDirectory(r io.ReaderAt, end directoryEnd, archiveSize int64) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		chunk := int64(directoryChunkLen)
		if chunk > int64(end.size) {
			chunk = int64(end.size)
		}
		br := bufio.NewReaderSize(io.NewSectionReader(r, int64(end.offset), int64(end.size)), int(chunk))

		for i := uint64(0); i < end.records; i++ {
			e, err := readDirectoryHeader(br)
			if err != nil {
				yield(Entry{}, err)
				return
			}
			if int64(e.HeaderOffset) >= archiveSize {
				yield(Entry{}, fmt.Errorf("%w: entry %q: local header offset %d beyond archive size %d",
					ErrCorrupt, e.Path, e.HeaderOffset, archiveSize))
				return
			}
			if e.Method == Store && e.CompressedSize != e.UncompressedSize {
				yield(Entry{}, fmt.Errorf("%w: stored entry %q declares compressed %d != uncompressed %d",
					ErrCorrupt, e.Path, e.CompressedSize, e.UncompressedSize))
				return
			}
			if !yield(e, nil) {
				return
			}
		}
		if _, err := br.Peek(1); err != io.EOF {
			yield(Entry{}, fmt.Errorf("%w: central directory size disagrees with its declared record count", ErrCorrupt))
		}
	}
}

// readDirectoryHeader decodes one central directory record: the fixed
// 46-byte header first, then exactly the trailing name/extra/comment bytes
// the header declares.
func readDirectoryHeader(r io.Reader) (Entry, error) {
	var buf [directoryHeaderLen]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return Entry{}, fmt.Errorf("%w: central directory ends before its declared record count", ErrCorrupt)
		}
		return Entry{}, fmt.Errorf("read central directory record: %w", err)
	}
	b := readBuf(buf[:])
	if sig := b.uint32(); sig != directoryHeaderSignature {
		return Entry{}, fmt.Errorf("%w: bad central directory record signature 0x%08x", ErrCorrupt, sig)
	}

	var e Entry
	e.Method = b.skip(6).uint16()
	e.CRC32 = b.skip(4).uint32()
	compressed := b.uint32()
	uncompressed := b.uint32()
	nameLen := int(b.uint16())
	extraLen := int(b.uint16())
	commentLen := int(b.uint16())
	headerOffset := b.skip(8).uint32()

	d := make([]byte, nameLen+extraLen+commentLen)
	if _, err := io.ReadFull(r, d); err != nil {
		return Entry{}, fmt.Errorf("%w: central directory record truncated mid-entry", ErrCorrupt)
	}
	e.Path = string(d[:nameLen])

	u, c, off, err := resolveExtra(d[nameLen:nameLen+extraLen], uncompressed, compressed, headerOffset)
	if err != nil {
		return Entry{}, fmt.Errorf("entry %q: %w", e.Path, err)
	}
	e.UncompressedSize, e.CompressedSize, e.HeaderOffset = u, c, off
	return e, nil
}
