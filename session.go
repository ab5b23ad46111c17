// Package gzran provides random access into gzip- or zlib-compressed
// files via a sidecar index of periodic inflate resume points, so a
// caller can seek and read from the middle of a compressed stream without
// re-decoding it from the start.
package gzran

import (
	"os"

	"github.com/go-zran/gzran/internal/capnslog"
)

var slog = capnslog.NewPackageLogger(repoPath, "session")

// Session is a handle to a compressed file opened for random access. It
// owns the underlying file descriptor and the in-memory index; both are
// released by Close.
type Session struct {
	dataPath  string
	indexPath string
	f         *os.File
	index     *Index
	offset    uint64
	lastErr   Kind
}

// Open opens path for random access, computing the sidecar index path as
// path + ".idx". It loads an existing, fresh, compatible index if one is
// present; otherwise (or if the existing one is missing, incompatible, or
// stale) it builds a fresh index from the compressed data and attempts to
// save it back. A save failure does not fail Open: the session remains
// valid with an in-memory-only index.
func Open(path string) (*Session, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, wrap(OpenError, err, "open data file")
	}

	indexPath := path + ".idx"
	idx, err := loadOrBuild(path, indexPath)
	if err != nil {
		f.Close()
		return nil, err
	}

	return &Session{
		dataPath:  path,
		indexPath: indexPath,
		f:         f,
		index:     idx,
	}, nil
}

func loadOrBuild(dataPath, indexPath string) (*Index, error) {
	if idx, err := tryLoad(dataPath, indexPath); err == nil {
		return idx, nil
	}

	idx, err := buildIndex(dataPath)
	if err != nil {
		return nil, err
	}

	if err := saveIndex(indexPath, idx); err != nil {
		slog.Warningf("could not persist index for %s: %v", dataPath, err)
	} else if err := stampFreshness(dataPath, indexPath); err != nil {
		slog.Warningf("could not stamp index freshness for %s: %v", dataPath, err)
	}

	return idx, nil
}

// tryLoad loads indexPath only if it exists, is compatible, and is fresh
// relative to dataPath. Any other outcome is reported as an error so the
// caller falls back to building, matching the lifecycle in which Missing,
// Incompatible, and Stale all lead to the same Building transition.
func tryLoad(dataPath, indexPath string) (*Index, error) {
	if _, err := os.Stat(indexPath); err != nil {
		return nil, wrap(OpenError, err, "index file missing")
	}
	fresh, err := isFresh(dataPath, indexPath)
	if err != nil {
		return nil, err
	}
	if !fresh {
		return nil, wrap(ExpiredIndex, nil, "index file stale")
	}
	return loadIndex(indexPath)
}

// Seek updates the session's logical read offset. It performs no I/O and
// does not validate offset against the stream length; an out-of-range
// offset is clamped at the next Read instead.
func (s *Session) Seek(offset uint64) {
	s.offset = offset
}

// Tell reports the session's current logical offset.
func (s *Session) Tell() uint64 {
	return s.offset
}

// Read fills buf with uncompressed data starting at the session's current
// offset, then advances the offset by the number of bytes written. A
// request entirely past the end of the uncompressed stream returns
// (0, nil), matching the short-read contract of the underlying extractor.
func (s *Session) Read(buf []byte) (int, error) {
	n, err := extract(s.f, s.index, s.offset, buf)
	if err != nil {
		s.lastErr = KindOf(err)
		return n, err
	}
	s.offset += uint64(n)
	return n, nil
}

// UnpackedLength returns the total uncompressed length of the stream.
func (s *Session) UnpackedLength() uint64 {
	return s.index.TotalOut
}

// PackedLength returns the total compressed file length, header through
// trailer.
func (s *Session) PackedLength() uint64 {
	return s.index.TotalIn
}

// Err reports the Kind of the last error this session produced, or
// Success if none has occurred yet.
func (s *Session) Err() Kind {
	return s.lastErr
}

// Close releases the session's file handle. It is idempotent: calling it
// more than once, or on an already-failed Open result, is a no-op beyond
// the first call's outcome.
func (s *Session) Close() error {
	if s == nil || s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	s.index = nil
	if err != nil {
		return wrap(OpenError, err, "close data file")
	}
	return nil
}
