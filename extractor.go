package gzran

import (
	"bufio"
	"io"
	"os"

	"github.com/go-zran/gzran/internal/rawflate"
	"github.com/go-zran/gzran/internal/window"
)

// winSize is the scratch-buffer size used while discarding output between
// an access point and the requested offset. Access points are up to span
// apart, so a skip longer than winSize is done as several winSize reads.
const winSize = window.Size

// extract delivers up to len(buf) bytes of uncompressed data starting at
// offset from f, using idx to locate the nearest preceding access point
// and resuming raw-deflate decoding from there. It returns the number of
// bytes written into buf; a short count (including zero) at or past
// idx.TotalOut is not an error.
func extract(f *os.File, idx *Index, offset uint64, buf []byte) (int, error) {
	if len(buf) == 0 || offset >= idx.TotalOut {
		return 0, nil
	}
	point, ok := idx.findPreceding(offset)
	if !ok {
		return 0, nil
	}

	seekTo := int64(point.In)
	if point.Bits > 0 {
		seekTo--
	}
	if _, err := f.Seek(seekTo, io.SeekStart); err != nil {
		return 0, wrap(ReadError, err, "seek compressed file")
	}

	var prime byte
	if point.Bits > 0 {
		var b [1]byte
		if _, err := io.ReadFull(f, b[:]); err != nil {
			return 0, wrap(ReadError, err, "read straddling byte")
		}
		prime = b[0]
	}

	dec := rawflate.NewDecompressor(bufio.NewReaderSize(f, chunk))
	if point.Bits > 0 {
		dec.Prime(int(point.Bits), uint32(prime>>(8-point.Bits)))
	}
	dec.SetDictionary(point.Window[:])

	remaining := offset - point.Out
	for remaining > 0 {
		n := remaining
		if n > winSize {
			n = winSize
		}
		scratch := make([]byte, n)
		if _, err := io.ReadFull(dec, scratch); err != nil {
			return 0, classifySkipError(err)
		}
		remaining -= n
	}

	total, err := io.ReadFull(dec, buf)
	if err == io.ErrUnexpectedEOF || err == io.EOF {
		return total, nil
	}
	if err != nil {
		return total, classifySkipError(err)
	}
	return total, nil
}

func classifySkipError(err error) error {
	switch err.(type) {
	case rawflate.CorruptInputError:
		return wrap(DataError, err, "corrupt deflate stream")
	case *rawflate.ReadError:
		return wrap(ReadError, err, "read compressed data")
	case rawflate.InternalError:
		return wrap(ZlibError, err, "inflate engine error")
	}
	return wrap(ZlibError, err, "inflate failed")
}
