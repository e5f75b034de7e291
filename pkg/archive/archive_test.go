package archive

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"errors"
	"reflect"
	"testing"
)

type fixtureEntry struct {
	name   string
	data   []byte
	method uint16
}

// buildFixture produces archive bytes using the standard zip writer, which
// emits the same raw-deflate payloads and central directory layout the
// reader expects.
func buildFixture(t *testing.T, entries []fixtureEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, fe := range entries {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: fe.name, Method: fe.method})
		if err != nil {
			t.Fatalf("create header %q: %v", fe.name, err)
		}
		if _, err := w.Write(fe.data); err != nil {
			t.Fatalf("write %q: %v", fe.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return buf.Bytes()
}

func openFixture(t *testing.T, data []byte) *Archive {
	t.Helper()
	a, err := New(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("index archive: %v", err)
	}
	return a
}

func TestEndToEnd(t *testing.T) {
	oneContent := []byte("0123456789")
	twoContent := bytes.Repeat([]byte("<node attr=\"v\"/>\n"), 12)[:200]

	data := buildFixture(t, []fixtureEntry{
		{"a/one.xml", oneContent, zip.Store},
		{"a/two.xml", twoContent, zip.Deflate},
		{"b/other.bin", []byte{0xde, 0xad}, zip.Deflate},
	})
	a := openFixture(t, data)

	var listed []string
	for e := range a.Index().List("a/") {
		listed = append(listed, e.Path)
	}
	if len(listed) != 2 || listed[0] != "a/one.xml" || listed[1] != "a/two.xml" {
		t.Fatalf("List(a/) = %v, want both a/ entries", listed)
	}

	one, ok := a.Index().Lookup("a/one.xml")
	if !ok {
		t.Fatalf("a/one.xml not indexed")
	}
	if one.Method != Store || one.CompressedSize != 10 || one.UncompressedSize != 10 {
		t.Errorf("stored entry metadata wrong: %+v", one)
	}
	got, err := a.Extract(one)
	if err != nil {
		t.Fatalf("extract stored entry: %v", err)
	}
	if !bytes.Equal(got, oneContent) {
		t.Errorf("stored roundtrip mismatch: got %q", got)
	}

	two, ok := a.Index().Lookup("a/two.xml")
	if !ok {
		t.Fatalf("a/two.xml not indexed")
	}
	if two.Method != Deflate || two.UncompressedSize != 200 {
		t.Errorf("deflate entry metadata wrong: %+v", two)
	}
	got, err = a.Extract(two, WithCRC32Check())
	if err != nil {
		t.Fatalf("extract deflate entry: %v", err)
	}
	if !bytes.Equal(got, twoContent) {
		t.Errorf("deflate roundtrip mismatch")
	}
}

func TestOffsetsWithinArchive(t *testing.T) {
	data := buildFixture(t, []fixtureEntry{
		{"x", []byte("xx"), zip.Store},
		{"y/z", bytes.Repeat([]byte("z"), 4096), zip.Deflate},
	})
	a := openFixture(t, data)
	for e := range a.Index().List("") {
		if e.HeaderOffset >= uint64(len(data)) {
			t.Errorf("entry %q: header offset %d >= archive size %d", e.Path, e.HeaderOffset, len(data))
		}
	}
}

func TestBuildIsIdempotent(t *testing.T) {
	data := buildFixture(t, []fixtureEntry{
		{"a", []byte("aaa"), zip.Deflate},
		{"b", []byte("bbb"), zip.Store},
	})
	first := openFixture(t, data)
	second := openFixture(t, data)

	var fromFirst, fromSecond []Entry
	for e := range first.Index().List("") {
		fromFirst = append(fromFirst, e)
	}
	for e := range second.Index().List("") {
		fromSecond = append(fromSecond, e)
	}
	if !reflect.DeepEqual(fromFirst, fromSecond) {
		t.Errorf("two builds over the same bytes disagree:\n%+v\n%+v", fromFirst, fromSecond)
	}
}

func TestEmptyArchive(t *testing.T) {
	data := buildFixture(t, nil)
	a := openFixture(t, data)
	if a.Index().Len() != 0 {
		t.Fatalf("empty archive indexed %d entries", a.Index().Len())
	}
	for e := range a.Index().List("") {
		t.Errorf("unexpected entry %q in empty archive", e.Path)
	}
}

func TestArchiveComment(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	if err := zw.SetComment("mirrored from build 3.24.1"); err != nil {
		t.Fatalf("set comment: %v", err)
	}
	w, err := zw.Create("readme.txt")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	w.Write([]byte("hello"))
	if err := zw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	a := openFixture(t, buf.Bytes())
	if _, ok := a.Index().Lookup("readme.txt"); !ok {
		t.Errorf("entry not found behind trailing archive comment")
	}
}

func TestDuplicatePathLastWins(t *testing.T) {
	data := buildFixture(t, []fixtureEntry{
		{"patched.dat", []byte("old old old"), zip.Deflate},
		{"patched.dat", []byte("new content"), zip.Deflate},
	})
	a := openFixture(t, data)
	if a.Index().Len() != 1 {
		t.Fatalf("duplicate path produced %d index entries", a.Index().Len())
	}
	e, _ := a.Index().Lookup("patched.dat")
	got, err := a.Extract(e)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if string(got) != "new content" {
		t.Errorf("duplicate path resolved to %q, want the later occurrence", got)
	}
}

func TestTruncatedDirectoryFailsBuild(t *testing.T) {
	data := buildFixture(t, []fixtureEntry{
		{"a/one", []byte("one"), zip.Store},
		{"a/two", []byte("two"), zip.Store},
	})

	endPos := findLegacyDirectoryEnd(data)
	if endPos < 0 {
		t.Fatalf("fixture has no end record")
	}
	dirOffset := binary.LittleEndian.Uint32(data[endPos+16:])

	// Keep the end record but drop most of the central directory.
	corrupt := append([]byte{}, data[:dirOffset+10]...)
	corrupt = append(corrupt, data[endPos:]...)

	if _, err := New(bytes.NewReader(corrupt), int64(len(corrupt))); !errors.Is(err, ErrCorrupt) {
		t.Errorf("truncated directory: got %v, want ErrCorrupt", err)
	}
}

func TestBadDirectorySignatureFailsBuild(t *testing.T) {
	data := buildFixture(t, []fixtureEntry{{"a", []byte("a"), zip.Store}})
	endPos := findLegacyDirectoryEnd(data)
	dirOffset := binary.LittleEndian.Uint32(data[endPos+16:])
	data[dirOffset] ^= 0xff

	if _, err := New(bytes.NewReader(data), int64(len(data))); !errors.Is(err, ErrCorrupt) {
		t.Errorf("bad record signature: got %v, want ErrCorrupt", err)
	}
}

func TestNoEndRecordFailsBuild(t *testing.T) {
	junk := bytes.Repeat([]byte("not an archive "), 10)
	if _, err := New(bytes.NewReader(junk), int64(len(junk))); !errors.Is(err, ErrCorrupt) {
		t.Errorf("junk input: got %v, want ErrCorrupt", err)
	}
}
