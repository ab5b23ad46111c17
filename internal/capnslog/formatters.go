package capnslog

import (
	"bufio"
	"io"
	"strings"
)

// Formatter writes a log entry produced by a packageLogger to its
// destination.
type Formatter interface {
	Format(pkg string, level LogLevel, depth int, entries ...LogEntry)
}

// StringFormatter writes "pkg entry\n" lines to w, buffered and flushed
// once per call.
type StringFormatter struct {
	w *bufio.Writer
}

// NewStringFormatter builds a Formatter writing plain lines to w.
func NewStringFormatter(w io.Writer) *StringFormatter {
	return &StringFormatter{
		w: bufio.NewWriter(w),
	}
}

func (s *StringFormatter) Format(pkg string, _ LogLevel, _ int, entries ...LogEntry) {
	s.w.WriteString(pkg)
	endsInNL := false
	for _, v := range entries {
		s.w.WriteByte(' ')
		str := v.LogString()
		endsInNL = strings.HasSuffix(str, "\n")
		s.w.WriteString(str)
	}
	if !endsInNL {
		s.w.WriteString("\n")
	}
	s.w.Flush()
}
