package archive

import (
	"encoding/binary"
	"errors"
)

var (
	// ErrCorrupt indicates a structural signature mismatch or a declared
	// length that disagrees with the archive's actual layout. Parsing past
	// a corrupt region cannot be trusted, so index builds abort on it.
	ErrCorrupt = errors.New("archive: corrupt structure")
	// ErrMalformedExtra indicates a zip64 extended-information subfield too
	// short for the overrides its record requires.
	ErrMalformedExtra = errors.New("archive: malformed zip64 extra field")
	// ErrUnsupportedCompression indicates a valid but unimplemented
	// compression method. Reported per entry at extraction time.
	ErrUnsupportedCompression = errors.New("archive: unsupported compression method")
	// ErrDecompress indicates a malformed deflate stream or an inflated
	// length that disagrees with the directory's declared size.
	ErrDecompress = errors.New("archive: decompression failed")
	// ErrChecksum indicates a CRC32 mismatch during verified extraction.
	ErrChecksum = errors.New("archive: checksum mismatch")
)

const (
	directoryEndLen    = 22 // legacy end record, without comment
	directoryEnd64Len  = 56 // zip64 end record, fixed portion
	locator64Len       = 20 // zip64 end locator
	directoryHeaderLen = 46 // + name + extra + comment
	fileHeaderLen      = 30 // + name + extra

	directoryEndSignature    = 0x06054b50
	directoryEnd64Signature  = 0x06064b50
	locator64Signature       = 0x07064b50
	directoryHeaderSignature = 0x02014b50
	fileHeaderSignature      = 0x04034b50

	zip64ExtraID = 0x0001 // zip64 extended information

	// tailWindowLen bounds the backward scan for the end-of-directory
	// structures. Archives whose trailing comment pushes the end record
	// further from EOF than this are rejected, not misread.
	tailWindowLen = 1 << 20

	// directoryChunkLen is the buffer size used when walking the central
	// directory, so directories with millions of entries are read in a
	// handful of large reads instead of one read per record.
	directoryChunkLen = 32 << 20
)

// Compression methods.
const (
	Store   uint16 = 0 // no compression
	Deflate uint16 = 8 // raw DEFLATE, no zlib/gzip framing
)

// Entry describes one entry of the archive, with zip64 overrides already
// applied. Values are immutable once the index is built.
type Entry struct {
	// Path is the archive-internal, forward-slash-separated path exactly as
	// stored. The format does not promise valid UTF-8; the bytes are kept
	// verbatim.
	Path string

	CompressedSize   uint64
	UncompressedSize uint64

	// Method is the compression method; see Store and Deflate. Other codes
	// survive indexing and fail only when the entry is extracted.
	Method uint16

	// HeaderOffset is the byte offset of this entry's local file header.
	HeaderOffset uint64

	// CRC32 of the uncompressed content, as declared by the directory.
	// Checked on extraction only when requested.
	CRC32 uint32
}

// directoryEnd carries what the tail scan recovers: where the central
// directory lives and how many records it declares.
type directoryEnd struct {
	records uint64
	size    uint64
	offset  uint64
	zip64   bool
}

type readBuf []byte

func (b *readBuf) uint16() uint16 {
	v := binary.LittleEndian.Uint16(*b)
	*b = (*b)[2:]
	return v
}

func (b *readBuf) uint32() uint32 {
	v := binary.LittleEndian.Uint32(*b)
	*b = (*b)[4:]
	return v
}

func (b *readBuf) uint64() uint64 {
	v := binary.LittleEndian.Uint64(*b)
	*b = (*b)[8:]
	return v
}

func (b *readBuf) sub(n int) readBuf {
	b2 := (*b)[:n]
	*b = (*b)[n:]
	return b2
}

func (b *readBuf) skip(n int) *readBuf {
	*b = (*b)[n:]
	return b
}
