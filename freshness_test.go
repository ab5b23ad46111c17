package gzran

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFreshnessStampAndCheck(t *testing.T) {
	dir := t.TempDir()
	dataPath := filepath.Join(dir, "data.gz")
	indexPath := dataPath + ".idx"

	if err := os.WriteFile(dataPath, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(indexPath, []byte("index"), 0o644); err != nil {
		t.Fatal(err)
	}

	// Give the index a deliberately different mtime before stamping.
	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(indexPath, old, old); err != nil {
		t.Fatal(err)
	}

	fresh, err := isFresh(dataPath, indexPath)
	if err != nil {
		t.Fatalf("isFresh: %v", err)
	}
	if fresh {
		t.Fatal("expected mismatched mtimes to be reported as stale")
	}

	if err := stampFreshness(dataPath, indexPath); err != nil {
		t.Fatalf("stampFreshness: %v", err)
	}

	fresh, err = isFresh(dataPath, indexPath)
	if err != nil {
		t.Fatalf("isFresh after stamp: %v", err)
	}
	if !fresh {
		t.Fatal("expected matching mtimes after stampFreshness")
	}
}

func TestFreshnessMissingFileIsOpenError(t *testing.T) {
	dir := t.TempDir()
	_, err := isFresh(filepath.Join(dir, "nope"), filepath.Join(dir, "nope.idx"))
	if err == nil {
		t.Fatal("expected an error for a missing data file")
	}
	if KindOf(err) != OpenError {
		t.Fatalf("KindOf(err) = %v, want OpenError", KindOf(err))
	}
}
