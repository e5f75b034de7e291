package archive

import (
	"encoding/binary"
	"fmt"
	"io"
)

// findSignatureInTail scans buf backward for the 4-byte little-endian
// signature sig and returns the offset of its last occurrence, or -1. Both
// end-of-directory lookups share this primitive.
func findSignatureInTail(buf []byte, sig uint32) int {
	for i := len(buf) - 4; i >= 0; i-- {
		if binary.LittleEndian.Uint32(buf[i:i+4]) == sig {
			return i
		}
	}
	return -1
}

// readDirectoryEnd locates the end-of-central-directory structures within
// the last tailWindowLen bytes of the archive. The zip64 locator takes
// precedence; the legacy 22-byte record is the fallback.
func readDirectoryEnd(r io.ReaderAt, size int64) (directoryEnd, error) {
	wLen := int64(tailWindowLen)
	if wLen > size {
		wLen = size
	}
	buf := make([]byte, wLen)
	if _, err := r.ReadAt(buf, size-wLen); err != nil && err != io.EOF {
		return directoryEnd{}, fmt.Errorf("read tail window: %w", err)
	}

	if p := findSignatureInTail(buf, locator64Signature); p >= 0 {
		return readDirectoryEnd64(r, size, buf[p:])
	}

	p := findLegacyDirectoryEnd(buf)
	if p < 0 {
		return directoryEnd{}, fmt.Errorf("%w: no end of central directory within the last %d bytes", ErrCorrupt, wLen)
	}
	b := readBuf(buf[p+10:]) // signature and per-disk fields
	end := directoryEnd{
		records: uint64(b.uint16()),
		size:    uint64(b.uint32()),
		offset:  uint64(b.uint32()),
	}
	if int64(end.offset) >= size {
		return directoryEnd{}, fmt.Errorf("%w: central directory offset %d beyond archive size %d", ErrCorrupt, end.offset, size)
	}
	return end, nil
}

// findLegacyDirectoryEnd returns the offset of the legacy end record in buf,
// skipping stray signature bytes whose declared comment length would run past
// the end of the file.
func findLegacyDirectoryEnd(buf []byte) int {
	w := buf
	for len(w) >= directoryEndLen {
		p := findSignatureInTail(w, directoryEndSignature)
		if p < 0 {
			return -1
		}
		if p+directoryEndLen <= len(buf) {
			commentLen := int(binary.LittleEndian.Uint16(buf[p+directoryEndLen-2:]))
			if p+directoryEndLen+commentLen <= len(buf) {
				return p
			}
		}
		w = buf[:p+3]
	}
	return -1
}

// readDirectoryEnd64 follows the zip64 locator (loc, signature included) to
// the 56-byte zip64 end record. The record carries full-width fields, so no
// sentinel mechanism applies at this level.
func readDirectoryEnd64(r io.ReaderAt, size int64, loc []byte) (directoryEnd, error) {
	if len(loc) < locator64Len {
		return directoryEnd{}, fmt.Errorf("%w: truncated zip64 end locator", ErrCorrupt)
	}
	b := readBuf(loc[4:])
	recOffset := b.skip(4).uint64() // disk holding the end record
	if int64(recOffset) < 0 || int64(recOffset)+directoryEnd64Len > size {
		return directoryEnd{}, fmt.Errorf("%w: zip64 end record offset %d beyond archive size %d", ErrCorrupt, recOffset, size)
	}

	var rec [directoryEnd64Len]byte
	if err := readFullAt(r, rec[:], int64(recOffset)); err != nil {
		return directoryEnd{}, fmt.Errorf("read zip64 end record: %w", err)
	}
	rb := readBuf(rec[:])
	if sig := rb.uint32(); sig != directoryEnd64Signature {
		return directoryEnd{}, fmt.Errorf("%w: expected zip64 end record at offset %d, found 0x%08x", ErrCorrupt, recOffset, sig)
	}
	// record size, versions, disk numbers, then per-disk entry count
	rb.skip(8 + 2 + 2 + 4 + 4 + 8)
	end := directoryEnd{
		records: rb.uint64(),
		size:    rb.uint64(),
		offset:  rb.uint64(),
		zip64:   true,
	}
	if int64(end.offset) >= size {
		return directoryEnd{}, fmt.Errorf("%w: central directory offset %d beyond archive size %d", ErrCorrupt, end.offset, size)
	}
	return end, nil
}

// readFullAt reads exactly len(p) bytes at off. Positioned reads keep
// concurrent callers from racing on a shared cursor.
func readFullAt(r io.ReaderAt, p []byte, off int64) error {
	n, err := r.ReadAt(p, off)
	if n == len(p) {
		return nil
	}
	if err == nil || err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return err
}
