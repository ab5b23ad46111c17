package gzran

import "os"

// stampFreshness sets both the mtime and the atime of indexPath to
// dataPath's mtime; dataPath's own atime is not read or copied. Called
// once right after a successful save so a later load can tell whether the
// data file has changed since the index was built.
func stampFreshness(dataPath, indexPath string) error {
	info, err := os.Stat(dataPath)
	if err != nil {
		return wrap(OpenError, err, "stat data file")
	}
	mtime := info.ModTime()
	return os.Chtimes(indexPath, mtime, mtime)
}

// isFresh reports whether indexPath's mtime still matches dataPath's. Any
// stat failure is reported as an OpenError rather than staleness, since it
// means the caller can't even establish what "stale" would mean here.
func isFresh(dataPath, indexPath string) (bool, error) {
	dataInfo, err := os.Stat(dataPath)
	if err != nil {
		return false, wrap(OpenError, err, "stat data file")
	}
	indexInfo, err := os.Stat(indexPath)
	if err != nil {
		return false, wrap(OpenError, err, "stat index file")
	}
	return dataInfo.ModTime().Equal(indexInfo.ModTime()), nil
}
