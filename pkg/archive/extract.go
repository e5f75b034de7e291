package archive

import (
	"bytes"
	"errors"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/klauspost/compress/flate"
)

// ExtractOption adjusts a single extraction.
type ExtractOption func(*extractOptions)

type extractOptions struct {
	verifyCRC bool
}

// WithCRC32Check verifies the extracted content against the directory's
// declared CRC32, failing with ErrChecksum on mismatch. Off by default.
func WithCRC32Check() ExtractOption {
	return func(o *extractOptions) { o.verifyCRC = true }
}

// Extract reads and decompresses one entry on demand. It only touches the
// byte range of that entry's local header and payload through positioned
// reads, so extractions of distinct entries may run concurrently without
// coordination.
func (a *Archive) Extract(e Entry, opts ...ExtractOption) ([]byte, error) {
	var o extractOptions
	for _, opt := range opts {
		opt(&o)
	}

	// The local header keeps its own copies of the name and extra lengths,
	// which can legitimately differ from the central directory's; the local
	// copies govern where the payload starts.
	var hdr [fileHeaderLen]byte
	if err := readFullAt(a.r, hdr[:], int64(e.HeaderOffset)); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: local header of %q truncated at offset %d", ErrCorrupt, e.Path, e.HeaderOffset)
		}
		return nil, fmt.Errorf("read local header of %q: %w", e.Path, err)
	}
	b := readBuf(hdr[:])
	if sig := b.uint32(); sig != fileHeaderSignature {
		return nil, fmt.Errorf("%w: expected local file header for %q at offset %d, found 0x%08x",
			ErrCorrupt, e.Path, e.HeaderOffset, sig)
	}
	nameLen := int(b.skip(22).uint16())
	extraLen := int(b.uint16())

	dataOffset := int64(e.HeaderOffset) + fileHeaderLen + int64(nameLen) + int64(extraLen)
	if e.CompressedSize > uint64(a.size) || dataOffset+int64(e.CompressedSize) > a.size {
		return nil, fmt.Errorf("%w: payload of %q runs past the end of the archive", ErrCorrupt, e.Path)
	}
	data := make([]byte, e.CompressedSize)
	if err := readFullAt(a.r, data, dataOffset); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: payload of %q truncated", ErrCorrupt, e.Path)
		}
		return nil, fmt.Errorf("read payload of %q: %w", e.Path, err)
	}

	var out []byte
	switch e.Method {
	case Store:
		out = data
	case Deflate:
		// Preallocation trusts the declared size only up to a bound, so a
		// corrupt directory cannot force an absurd allocation before the
		// length check runs.
		capHint := e.UncompressedSize
		if capHint > 1<<30 {
			capHint = 1 << 30
		}
		buf := bytes.NewBuffer(make([]byte, 0, capHint))
		fr := flate.NewReader(bytes.NewReader(data))
		// One byte past the declared size is enough to detect overrun
		// without letting a hostile stream expand unboundedly.
		n, err := io.Copy(buf, io.LimitReader(fr, int64(e.UncompressedSize)+1))
		if cerr := fr.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return nil, fmt.Errorf("%w: entry %q: %v", ErrDecompress, e.Path, err)
		}
		if uint64(n) != e.UncompressedSize {
			return nil, fmt.Errorf("%w: entry %q inflated to %d bytes, directory declares %d",
				ErrDecompress, e.Path, n, e.UncompressedSize)
		}
		out = buf.Bytes()
	default:
		return nil, fmt.Errorf("%w: entry %q uses method %d", ErrUnsupportedCompression, e.Path, e.Method)
	}

	if o.verifyCRC {
		if sum := crc32.ChecksumIEEE(out); sum != e.CRC32 {
			return nil, fmt.Errorf("%w: entry %q: got %08x, directory declares %08x", ErrChecksum, e.Path, sum, e.CRC32)
		}
	}
	return out, nil
}
