package gzran

import (
	"sort"

	"github.com/go-zran/gzran/internal/window"
)

// AccessPoint is a snapshot sufficient to resume raw-deflate decoding at a
// deflate block boundary: the compressed-stream position, the leftover
// sub-byte input bits, and the 32 KiB dictionary window.
type AccessPoint struct {
	// Out is the uncompressed-stream offset this point sits at.
	Out uint64
	// In is the byte offset in the compressed file (container header
	// included) of the first byte after the end of the preceding block
	// that holds none of that block's bits. The next block's header
	// starts in the byte at In-1 when Bits > 0, and at In otherwise.
	In uint64
	// Bits is the count, in 0..7, of unconsumed bits left over in the byte
	// at In-1 belonging to the previous, partially-consumed byte. Zero
	// means the restart is already byte-aligned.
	Bits uint8
	// Window holds the 32 KiB of uncompressed data immediately preceding
	// Out, the deflate dictionary needed to resolve back-references at
	// this point.
	Window [window.Size]byte
}

// Index is an ordered sequence of access points plus the stream totals
// needed to answer length queries without decoding anything.
type Index struct {
	Points   []AccessPoint
	TotalIn  uint64
	TotalOut uint64
	// CRC32 and ISIZE are the gzip trailer fields recorded once the first
	// member's end is reached (zero for a zlib stream). They are
	// informational only: they are not compared against the decoded data,
	// and a trailer that cannot be read is logged, not a build failure.
	CRC32 uint32
	ISIZE uint32
}

// append adds a point to the index. Points must be appended in strictly
// increasing Out order; the builder is the only writer and guarantees this.
func (idx *Index) append(p AccessPoint) {
	idx.Points = append(idx.Points, p)
}

// findPreceding returns the last point whose Out is less than or equal to
// offset, and true, or the zero AccessPoint and false if offset precedes
// the first point (or the index is empty).
func (idx *Index) findPreceding(offset uint64) (AccessPoint, bool) {
	points := idx.Points
	// sort.Search finds the first point with Out > offset; the point
	// before it is the last one with Out <= offset.
	i := sort.Search(len(points), func(i int) bool {
		return points[i].Out > offset
	})
	if i == 0 {
		return AccessPoint{}, false
	}
	return points[i-1], true
}
