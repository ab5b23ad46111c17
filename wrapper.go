package gzran

import (
	"bufio"
	"encoding/binary"
	"io"
)

// wrapper identifies which container format prefixes the raw deflate
// stream, mirroring the auto-detect mode real zlib offers via
// inflateInit2(windowBits = 47): accept either a gzip or a zlib header and
// dispatch on the magic bytes actually present.
type wrapper int

const (
	wrapperGzip wrapper = iota
	wrapperZlib
)

// trailerLen is the number of bytes following the raw deflate stream that
// belong to the wrapper (gzip's CRC32+ISIZE, zlib's Adler-32) and are not
// part of anything the deflate decoder consumes.
func (w wrapper) trailerLen() int64 {
	if w == wrapperZlib {
		return 4
	}
	return 8
}

const (
	gzipID1     = 0x1f
	gzipID2     = 0x8b
	gzipDeflate = 8

	gzipFlagText    = 1 << 0
	gzipFlagHdrCRC  = 1 << 1
	gzipFlagExtra   = 1 << 2
	gzipFlagName    = 1 << 3
	gzipFlagComment = 1 << 4
)

// detectHeader peeks the container's magic bytes, consumes the full header
// from r, and reports which wrapper it was and how many bytes the header
// occupied. r must support at least 2 bytes of lookahead (bufio.Reader
// always does).
func detectHeader(r *bufio.Reader) (wrapper, int64, error) {
	peek, err := r.Peek(2)
	if err != nil {
		return 0, 0, wrap(DataError, err, "read container header")
	}
	if peek[0] == gzipID1 && peek[1] == gzipID2 {
		n, err := readGzipHeader(r)
		return wrapperGzip, n, err
	}
	if peek[0]&0x0f == gzipDeflate && (int(peek[0])*256+int(peek[1]))%31 == 0 {
		n, err := readZlibHeader(r)
		return wrapperZlib, n, err
	}
	return 0, 0, wrap(DataError, nil, "unrecognized gzip/zlib header")
}

func readGzipHeader(r *bufio.Reader) (int64, error) {
	var hdr [10]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return 0, wrap(DataError, err, "read gzip header")
	}
	if hdr[0] != gzipID1 || hdr[1] != gzipID2 || hdr[2] != gzipDeflate {
		return 0, wrap(DataError, nil, "invalid gzip magic")
	}
	n := int64(len(hdr))
	flg := hdr[3]

	if flg&gzipFlagExtra != 0 {
		var xlen [2]byte
		if _, err := io.ReadFull(r, xlen[:]); err != nil {
			return 0, wrap(DataError, err, "read gzip extra length")
		}
		n += 2
		extra := int64(binary.LittleEndian.Uint16(xlen[:]))
		if _, err := io.CopyN(io.Discard, r, extra); err != nil {
			return 0, wrap(DataError, err, "read gzip extra field")
		}
		n += extra
	}
	if flg&gzipFlagName != 0 {
		m, err := skipCString(r)
		if err != nil {
			return 0, err
		}
		n += m
	}
	if flg&gzipFlagComment != 0 {
		m, err := skipCString(r)
		if err != nil {
			return 0, err
		}
		n += m
	}
	if flg&gzipFlagHdrCRC != 0 {
		if _, err := io.CopyN(io.Discard, r, 2); err != nil {
			return 0, wrap(DataError, err, "read gzip header crc")
		}
		n += 2
	}
	return n, nil
}

func skipCString(r *bufio.Reader) (int64, error) {
	var n int64
	for {
		b, err := r.ReadByte()
		if err != nil {
			return n, wrap(DataError, err, "read gzip header string")
		}
		n++
		if b == 0 {
			return n, nil
		}
	}
}

func readZlibHeader(r *bufio.Reader) (int64, error) {
	var hdr [2]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return 0, wrap(DataError, err, "read zlib header")
	}
	n := int64(len(hdr))
	if hdr[1]&0x20 != 0 {
		// FDICT: a 4-byte dictionary id follows. Dictionaries on the wire
		// aren't supported (there is no way to recover one from a bare
		// file), but the bytes still have to be skipped to find the
		// stream start.
		if _, err := io.CopyN(io.Discard, r, 4); err != nil {
			return 0, wrap(DataError, err, "read zlib dictionary id")
		}
		n += 4
	}
	return n, nil
}
