package gzran

import (
	"compress/gzip"
	"encoding/binary"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
)

func sampleIndex() *Index {
	r := rand.New(rand.NewSource(42))
	idx := &Index{TotalIn: 12345, TotalOut: 98765, CRC32: 0xdeadbeef, ISIZE: 0x1234}
	for i := 0; i < 3; i++ {
		var p AccessPoint
		p.Out = uint64(i) * (1 << 20)
		p.In = uint64(i) * 1000
		p.Bits = uint8(i)
		r.Read(p.Window[:])
		idx.append(p)
	}
	return idx
}

func TestCodecRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.gz.idx")

	want := sampleIndex()
	if err := saveIndex(path, want); err != nil {
		t.Fatalf("saveIndex: %v", err)
	}

	got, err := loadIndex(path)
	if err != nil {
		t.Fatalf("loadIndex: %v", err)
	}

	if got.TotalIn != want.TotalIn || got.TotalOut != want.TotalOut {
		t.Fatalf("totals mismatch: got %+v, want %+v", got, want)
	}
	if got.CRC32 != want.CRC32 || got.ISIZE != want.ISIZE {
		t.Fatalf("trailer fields mismatch: got %+v, want %+v", got, want)
	}
	if len(got.Points) != len(want.Points) {
		t.Fatalf("point count mismatch: got %d, want %d", len(got.Points), len(want.Points))
	}
	for i := range want.Points {
		wp, gp := want.Points[i], got.Points[i]
		if wp.Out != gp.Out || wp.In != gp.In || wp.Bits != gp.Bits {
			t.Fatalf("point %d mismatch: got %+v, want %+v", i, gp, wp)
		}
		if wp.Window != gp.Window {
			t.Fatalf("point %d window mismatch", i)
		}
	}
}

func TestLoadIndexRejectsNonGzipFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.gz.idx")

	idx := sampleIndex()
	if err := saveIndex(path, idx); err != nil {
		t.Fatalf("saveIndex: %v", err)
	}

	// A file that isn't gzip at all is rejected as Incompatible.
	badPath := filepath.Join(dir, "not-gzip.idx")
	if err := os.WriteFile(badPath, []byte("not a gzip stream at all"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := loadIndex(badPath)
	if err == nil {
		t.Fatal("expected an error loading a non-gzip index file")
	}
	if KindOf(err) != Incompatible {
		t.Fatalf("KindOf(err) = %v, want Incompatible", KindOf(err))
	}
}

func TestLoadIndexRejectsHugeNPoints(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "huge.gz.idx")

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	gw := gzip.NewWriter(f)

	var hdr [headerSize]byte
	copy(hdr[0:4], indexMagic[:])
	hdr[4] = indexVersion
	binary.LittleEndian.PutUint64(hdr[8:16], math.MaxUint64)
	if _, err := gw.Write(hdr[:]); err != nil {
		t.Fatal(err)
	}
	if err := gw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	_, err = loadIndex(path)
	if err == nil {
		t.Fatal("expected an error loading an index with an absurd n_points")
	}
	if KindOf(err) != Incompatible {
		t.Fatalf("KindOf(err) = %v, want Incompatible", KindOf(err))
	}
}
