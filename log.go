package gzran

// repoPath is the repo identifier every package logger in this module
// registers under. capnslog groups loggers by (repo, package) so a single
// SetGlobalLogLevel call from a caller's main package can silence or raise
// verbosity across all of gzran at once.
const repoPath = "github.com/go-zran/gzran"
