// Package window implements the fixed 32 KiB circular buffer that deflate
// uses for its sliding-window back references, and that gzran persists as
// the dictionary half of an access point. It holds no state of its own;
// it knows how to read a linear snapshot out of a caller-owned circular
// buffer, the same Hist/Hp/Hfull triple that internal/rawflate.Decompressor
// already maintains for LZ77 decoding.
package window

// Size is the deflate sliding-window size (RFC 1951 §2.2), and the exact
// length of an access point's dictionary.
const Size = 32768

// Snapshot linearizes a circular history buffer into stream order: the
// oldest retained byte first, the most recently written byte last. hist is
// the raw circular storage, pos is the next write position within it, and
// full reports whether the buffer has wrapped at least once (so the bytes
// before pos are valid history rather than unwritten zeroes).
func Snapshot(hist []byte, pos int, full bool) [Size]byte {
	var out [Size]byte
	if !full {
		// Not yet wrapped: only hist[:pos] is real output and the rest is
		// zeroes. The builder takes such a snapshot only for the access
		// point at offset 0, where no output precedes it; every later
		// point is more than span bytes in, so the buffer has wrapped.
		copy(out[:], hist[:pos])
		return out
	}
	n := copy(out[:], hist[pos:])
	copy(out[n:], hist[:pos])
	return out
}
