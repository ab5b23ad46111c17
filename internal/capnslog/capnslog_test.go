package capnslog

import (
	"bytes"
	"strings"
	"testing"
)

func TestPackageLoggerLevelGating(t *testing.T) {
	var buf bytes.Buffer
	SetFormatter(NewStringFormatter(&buf))

	plog := NewPackageLogger("github.com/go-zran/gzran/test", "gating")
	plog.Infof("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Fatalf("expected Infof at default level to be written, got %q", buf.String())
	}

	buf.Reset()
	plog.Debugf("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected Debugf below INFO default to be suppressed, got %q", buf.String())
	}
}

func TestRepoLoggerSetLogLevel(t *testing.T) {
	var buf bytes.Buffer
	SetFormatter(NewStringFormatter(&buf))

	NewPackageLogger("github.com/go-zran/gzran/test2", "verbose")
	repo, err := RepoLogger("github.com/go-zran/gzran/test2")
	if err != nil {
		t.Fatal(err)
	}
	repo.SetGlobalLogLevel(DEBUG)

	plog := NewPackageLogger("github.com/go-zran/gzran/test2", "verbose")
	plog.Debugf("now visible")
	if !strings.Contains(buf.String(), "now visible") {
		t.Fatalf("expected Debugf after raising level to DEBUG, got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"ERROR": ERROR,
		"W":     WARNING,
		"4":     DEBUG,
	}
	for s, want := range cases {
		got, err := ParseLevel(s)
		if err != nil {
			t.Fatalf("ParseLevel(%q): %v", s, err)
		}
		if got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", s, got, want)
		}
	}
	if _, err := ParseLevel("bogus"); err == nil {
		t.Fatal("expected error for unrecognized level string")
	}
}
