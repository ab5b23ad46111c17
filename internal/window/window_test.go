package window

import "testing"

func TestSnapshotNotFull(t *testing.T) {
	hist := make([]byte, Size)
	for i := 0; i < 100; i++ {
		hist[i] = byte(i)
	}
	snap := Snapshot(hist, 100, false)
	for i := 0; i < 100; i++ {
		if snap[i] != byte(i) {
			t.Fatalf("snap[%d] = %d, want %d", i, snap[i], byte(i))
		}
	}
	for i := 100; i < Size; i++ {
		if snap[i] != 0 {
			t.Fatalf("snap[%d] = %d, want 0 (unwritten)", i, snap[i])
		}
	}
}

func TestSnapshotFullWraps(t *testing.T) {
	hist := make([]byte, Size)
	for i := range hist {
		hist[i] = byte(i)
	}
	pos := 1000
	snap := Snapshot(hist, pos, true)
	// Oldest byte first: hist[pos:] then hist[:pos].
	for i := 0; i < Size-pos; i++ {
		want := hist[pos+i]
		if snap[i] != want {
			t.Fatalf("snap[%d] = %d, want %d", i, snap[i], want)
		}
	}
	for i := 0; i < pos; i++ {
		want := hist[i]
		if snap[Size-pos+i] != want {
			t.Fatalf("snap[%d] = %d, want %d", Size-pos+i, snap[Size-pos+i], want)
		}
	}
}
