package gzran

import (
	"compress/gzip"
	"encoding/binary"
	"io"
	"math"
	"os"

	"github.com/go-zran/gzran/internal/window"
)

// indexMagic identifies this package's sidecar format. The legacy format
// this is modeled on used a 4-byte magic plus a sizeof_offset guard, so an
// index built on a 64-bit host couldn't be misread as 32-bit; this format
// fixes every field width up front instead, so the guard is the version
// byte alone.
var indexMagic = [4]byte{'G', 'Z', 'I', '1'}

const indexVersion = 1

// headerSize is magic(4) + version(1) + reserved(3) + n_points(8).
const headerSize = 16

// pointRecordSize is the on-disk size of one AccessPoint: out(8) + in(8) +
// bits(1) + window(32768).
const pointRecordSize = 8 + 8 + 1 + window.Size

// saveIndex writes idx to path as a gzip-compressed sidecar file. It is
// best-effort from the caller's point of view: a failure here must never
// invalidate an already-built in-memory Index.
func saveIndex(path string, idx *Index) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return wrap(WriteError, err, "create index file")
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = wrap(WriteError, cerr, "close index file")
		}
	}()

	gw := gzip.NewWriter(f)

	var hdr [headerSize]byte
	copy(hdr[0:4], indexMagic[:])
	hdr[4] = indexVersion
	binary.LittleEndian.PutUint64(hdr[8:16], uint64(len(idx.Points)))
	if _, werr := gw.Write(hdr[:]); werr != nil {
		gw.Close()
		return wrap(WriteError, werr, "write index header")
	}

	var totals [24]byte
	binary.LittleEndian.PutUint64(totals[0:8], idx.TotalIn)
	binary.LittleEndian.PutUint64(totals[8:16], idx.TotalOut)
	binary.LittleEndian.PutUint32(totals[16:20], idx.CRC32)
	binary.LittleEndian.PutUint32(totals[20:24], idx.ISIZE)
	if _, werr := gw.Write(totals[:]); werr != nil {
		gw.Close()
		return wrap(WriteError, werr, "write index totals")
	}

	var rec [pointRecordSize]byte
	for _, p := range idx.Points {
		binary.LittleEndian.PutUint64(rec[0:8], p.Out)
		binary.LittleEndian.PutUint64(rec[8:16], p.In)
		rec[16] = p.Bits
		copy(rec[17:17+window.Size], p.Window[:])
		if _, werr := gw.Write(rec[:]); werr != nil {
			gw.Close()
			return wrap(WriteError, werr, "write access point")
		}
	}

	if werr := gw.Close(); werr != nil {
		return wrap(WriteError, werr, "flush index file")
	}
	return nil
}

// loadIndex reads back an index file written by saveIndex. A format or
// version mismatch is reported as Incompatible so the caller can fall back
// to rebuilding rather than treating it as a hard failure.
func loadIndex(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, wrap(OpenError, err, "open index file")
	}
	defer f.Close()

	gr, err := gzip.NewReader(f)
	if err != nil {
		return nil, wrap(Incompatible, err, "index file is not gzip-compressed")
	}
	defer gr.Close()

	var hdr [headerSize]byte
	if _, err := io.ReadFull(gr, hdr[:]); err != nil {
		return nil, wrap(Incompatible, err, "read index header")
	}
	if [4]byte{hdr[0], hdr[1], hdr[2], hdr[3]} != indexMagic {
		return nil, wrap(Incompatible, nil, "index magic mismatch")
	}
	if hdr[4] != indexVersion {
		return nil, wrap(Incompatible, nil, "index version mismatch")
	}
	n := binary.LittleEndian.Uint64(hdr[8:16])
	// Reject an n_points whose total record size would overflow uint64,
	// the same checked multiplication a sizeof-based allocator needs before
	// trusting an on-disk element count. Smaller counts are not bounded
	// here and are used as the allocation capacity below.
	if n > math.MaxUint64/pointRecordSize {
		return nil, wrap(Incompatible, nil, "n_points too large")
	}

	var totals [24]byte
	if _, err := io.ReadFull(gr, totals[:]); err != nil {
		return nil, wrap(Incompatible, err, "read index totals")
	}

	idx := &Index{
		TotalIn:  binary.LittleEndian.Uint64(totals[0:8]),
		TotalOut: binary.LittleEndian.Uint64(totals[8:16]),
		CRC32:    binary.LittleEndian.Uint32(totals[16:20]),
		ISIZE:    binary.LittleEndian.Uint32(totals[20:24]),
		Points:   make([]AccessPoint, 0, n),
	}

	var rec [pointRecordSize]byte
	for i := uint64(0); i < n; i++ {
		if _, err := io.ReadFull(gr, rec[:]); err != nil {
			return nil, wrap(Incompatible, err, "read access point")
		}
		var p AccessPoint
		p.Out = binary.LittleEndian.Uint64(rec[0:8])
		p.In = binary.LittleEndian.Uint64(rec[8:16])
		p.Bits = rec[16]
		copy(p.Window[:], rec[17:17+window.Size])
		idx.Points = append(idx.Points, p)
	}
	return idx, nil
}
