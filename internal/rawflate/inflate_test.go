package rawflate

import (
	"bufio"
	"bytes"
	"compress/flate"
	"io"
	"math/rand"
	"testing"
)

func deflate(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.DefaultCompression)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDecompressorMatchesStdlib(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	data := make([]byte, 500000)
	r.Read(data)
	compressed := deflate(t, data)

	dec := NewReader(bytes.NewReader(compressed))
	got, err := io.ReadAll(dec)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatal("decompressed output does not match original input")
	}
}

// TestResumeFromBoundary captures a mid-stream block boundary by stepping
// a decoder manually, then verifies a brand new decoder primed at that
// exact boundary (leftover bits + dictionary) reproduces the remaining
// output, the same trick builder.go and extractor.go play for real.
func TestResumeFromBoundary(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	data := make([]byte, 200000)
	r.Read(data)
	compressed := deflate(t, data)

	src := bufio.NewReader(bytes.NewReader(compressed))
	dec := NewDecompressor(src)

	var lastWoffset int64
	var resumeRoffset int64
	var resumeNb uint
	var resumeHist [MaxHist]byte
	var resumeHp int
	var resumeHfull bool
	found := false

	for !found {
		if dec.AtBoundary && !dec.Final && dec.Woffset > 50000 {
			resumeRoffset = dec.Roffset
			resumeNb = dec.Nb
			resumeHist = *dec.Hist
			resumeHp = dec.Hp
			resumeHfull = dec.Hfull
			lastWoffset = dec.Woffset
			found = true
			break
		}
		if dec.Err != nil {
			t.Fatalf("hit error before any boundary past 50000: %v", dec.Err)
		}
		dec.Step(dec)
	}

	totalBits := resumeRoffset*8 - int64(resumeNb)
	fullBytes := totalBits / 8
	rem := int(totalBits % 8)
	var inByte int64
	var bits uint8
	if rem == 0 {
		inByte = fullBytes
		bits = 0
	} else {
		inByte = fullBytes + 1
		bits = uint8(8 - rem)
	}

	fresh := bytes.NewReader(compressed[inByte:])
	freshDec := NewDecompressor(bufio.NewReader(fresh))
	if bits > 0 {
		straddle := compressed[inByte-1]
		freshDec.Prime(int(bits), uint32(straddle>>(8-bits)))
	}
	freshDec.SetDictionary(snapshotWindow(&resumeHist, resumeHp, resumeHfull))

	tail, err := io.ReadAll(freshDec)
	if err != nil {
		t.Fatalf("ReadAll from resumed decoder: %v", err)
	}
	want := data[lastWoffset:]
	if !bytes.Equal(tail, want) {
		t.Fatalf("resumed decode mismatch: got %d bytes, want %d bytes", len(tail), len(want))
	}
}

// snapshotWindow linearizes a circular history buffer the same way
// internal/window.Snapshot does, kept local so this package's tests do not
// import internal/window.
func snapshotWindow(hist *[MaxHist]byte, pos int, full bool) []byte {
	out := make([]byte, MaxHist)
	if !full {
		copy(out, hist[:pos])
		return out
	}
	n := copy(out, hist[pos:])
	copy(out[n:], hist[:pos])
	return out
}
