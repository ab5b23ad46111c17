package gzran

import (
	"bufio"
	"io"
	"os"

	"github.com/go-zran/gzran/internal/capnslog"
	"github.com/go-zran/gzran/internal/rawflate"
	"github.com/go-zran/gzran/internal/window"
)

// span is the target spacing between access points in uncompressed bytes.
const span = 1 << 20 // 1 MiB

// chunk is the buffered-read size used while scanning the compressed file.
const chunk = 16384

var blog = capnslog.NewPackageLogger(repoPath, "builder")

// buildIndex decodes the whole compressed stream once, sampling an access
// point at (almost) every deflate block boundary spaced span bytes apart in
// the uncompressed output, as well as unconditionally at the very first
// boundary (so offset 0 is always servable without a full re-decode).
func buildIndex(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, wrap(OpenError, err, "open data file")
	}
	defer f.Close()

	r := bufio.NewReaderSize(f, chunk)
	cw, headerLen, err := detectHeader(r)
	if err != nil {
		return nil, err
	}

	dec := rawflate.NewDecompressor(r)
	idx := &Index{}

	// AtBoundary is true before the very first Step call too (offset 0, no
	// block decoded yet), so the boundary check must run before stepping:
	// NextBlock clears the flag as the first thing it does.
	var lastEmit uint64
	for {
		if dec.AtBoundary && !dec.Final {
			out := uint64(dec.Woffset)
			if out == 0 || out-lastEmit > span {
				idx.append(newAccessPoint(dec, headerLen))
				lastEmit = out
			}
		}
		if dec.Err != nil {
			if dec.Err == io.EOF {
				break
			}
			return nil, classifyDecodeError(dec.Err)
		}
		dec.Step(dec)
	}

	idx.TotalOut = uint64(dec.Woffset)
	idx.TotalIn = uint64(headerLen) + uint64(dec.Roffset) + uint64(cw.trailerLen())

	if len(idx.Points) == 0 {
		return nil, wrap(DataError, nil, "empty compressed stream")
	}

	if err := readTrailer(f, cw, idx); err != nil {
		blog.Warningf("could not verify gzip trailer for %s: %v", path, err)
	}

	return idx, nil
}

// newAccessPoint captures dec's current state as an AccessPoint. dec must
// be sitting exactly at a block boundary (dec.AtBoundary). headerLen is
// added to the raw-deflate byte offset to produce an absolute file offset,
// matching AccessPoint.In's contract.
func newAccessPoint(dec *rawflate.Decompressor, headerLen int64) AccessPoint {
	totalBits := dec.Roffset*8 - int64(dec.Nb)
	fullBytes := totalBits / 8
	rem := int(totalBits % 8)

	var in int64
	var bits uint8
	if rem == 0 {
		in = fullBytes
		bits = 0
	} else {
		in = fullBytes + 1
		bits = uint8(8 - rem)
	}

	return AccessPoint{
		Out:    uint64(dec.Woffset),
		In:     uint64(headerLen + in),
		Bits:   bits,
		Window: window.Snapshot(dec.Hist[:], dec.Hp, dec.Hfull),
	}
}

// readTrailer reads the 8 gzip trailer bytes immediately following the raw
// deflate stream and records what gzip's CRC32/ISIZE say the uncompressed
// data should look like. For a zlib stream it reads nothing and records
// nothing. f is left at an unspecified
// position; callers must already be done with it.
func readTrailer(f *os.File, w wrapper, idx *Index) error {
	if w != wrapperGzip {
		return nil
	}
	if _, err := f.Seek(int64(idx.TotalIn)-8, io.SeekStart); err != nil {
		return err
	}
	var trailer [8]byte
	if _, err := io.ReadFull(f, trailer[:]); err != nil {
		return err
	}
	idx.CRC32 = leUint32(trailer[0:4])
	idx.ISIZE = leUint32(trailer[4:8])
	return nil
}

func leUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

// classifyDecodeError maps the zoo of errors internal/rawflate can return
// to the Kind a caller actually needs to act on. The original C source this
// is modeled on ran this classification through a switch with every case
// falling through to the same default, so it always reported the same
// unhelpful kind; this maps each condition explicitly instead.
func classifyDecodeError(err error) error {
	switch err.(type) {
	case rawflate.CorruptInputError:
		return wrap(DataError, err, "corrupt deflate stream")
	case *rawflate.ReadError:
		return wrap(ReadError, err, "read compressed data")
	case rawflate.InternalError:
		return wrap(ZlibError, err, "inflate engine error")
	}
	if err == io.ErrUnexpectedEOF {
		return wrap(DataError, err, "truncated compressed stream")
	}
	return wrap(ZlibError, err, "inflate failed")
}
