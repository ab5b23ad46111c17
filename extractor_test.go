package gzran

import (
	"bytes"
	"math/rand"
	"os"
	"testing"
)

func openForExtract(t *testing.T, path string) (*os.File, *Index) {
	t.Helper()
	idx, err := buildIndex(path)
	if err != nil {
		t.Fatalf("buildIndex: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { f.Close() })
	return f, idx
}

func TestExtractSmallFile(t *testing.T) {
	dir := t.TempDir()
	path := writeGzipFile(t, dir, "small.gz", []byte("abcdefghij"))
	f, idx := openForExtract(t, path)

	buf := make([]byte, 4)
	n, err := extract(f, idx, 3, buf)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if string(buf[:n]) != "defg" {
		t.Fatalf("extract(3, 4) = %q, want %q", buf[:n], "defg")
	}

	buf = make([]byte, 10)
	n, err = extract(f, idx, 8, buf)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if string(buf[:n]) != "ij" {
		t.Fatalf("extract(8, 10) = %q, want %q", buf[:n], "ij")
	}

	n, err = extract(f, idx, 10, buf)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if n != 0 {
		t.Fatalf("extract at end of stream = %d bytes, want 0", n)
	}
}

func TestExtractMultiPointAndBoundary(t *testing.T) {
	dir := t.TempDir()
	data := bytes.Repeat([]byte("A"), 4*1024*1024)
	path := writeGzipFileFlushed(t, dir, "multi.gz", data, 64*1024)
	f, idx := openForExtract(t, path)

	for _, p := range idx.Points {
		buf := make([]byte, 1024)
		n, err := extract(f, idx, p.Out, buf)
		if err != nil {
			t.Fatalf("extract at point.Out=%d: %v", p.Out, err)
		}
		if n != len(buf) || !allBytes(buf, 'A') {
			t.Fatalf("extract at point.Out=%d did not return 1024 'A's", p.Out)
		}
	}

	buf := make([]byte, 100)
	n, err := extract(f, idx, 4194300, buf)
	if err != nil {
		t.Fatalf("extract near end: %v", err)
	}
	if n != 4 {
		t.Fatalf("extract(4194300, 100) = %d bytes, want 4 (short read at end)", n)
	}

	buf = make([]byte, 1)
	n, err = extract(f, idx, 1048576, buf)
	if err != nil || n != 1 || buf[0] != 'A' {
		t.Fatalf("extract(1048576, 1) = %q, %d, %v", buf[:n], n, err)
	}

	buf = make([]byte, 2)
	n, err = extract(f, idx, 1048575, buf)
	if err != nil || n != 2 || string(buf) != "AA" {
		t.Fatalf("extract(1048575, 2) = %q, %d, %v", buf[:n], n, err)
	}
}

func TestExtractSubBytePrime(t *testing.T) {
	dir := t.TempDir()
	r := rand.New(rand.NewSource(42))
	data := make([]byte, 2*1024*1024)
	r.Read(data)
	path := writeGzipFile(t, dir, "prime.gz", data)
	f, idx := openForExtract(t, path)

	buf := make([]byte, 17)
	n, err := extract(f, idx, 1500000, buf)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	want := data[1500000:1500017]
	if n != len(want) || !bytes.Equal(buf, want) {
		t.Fatalf("extract(1500000, 17) = %x, want %x", buf[:n], want)
	}
}

func allBytes(b []byte, want byte) bool {
	for _, c := range b {
		if c != want {
			return false
		}
	}
	return true
}
