//go:build !tinygo

package capture

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func TestCaptureRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cap", "run.db")

	first, err := Open(ctx, path, 2, "test")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_ = first.WriteLine("stale")
	_ = first.Close()

	s, err := Open(ctx, path, 2, "test")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	want := []string{"00100 -- 00200", "00101 -- 00201", "00102 -- 00202"}
	for _, l := range want {
		if err := s.WriteLine(l); err != nil {
			t.Fatalf("WriteLine: %v", err)
		}
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.WriteLine("late"); !errors.Is(err, ErrClosed) {
		t.Fatalf("after Close: %v", err)
	}

	r, err := OpenReader(ctx, path)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer r.Close()

	id, err := r.Latest(ctx)
	if err != nil || id != s.ID() {
		t.Fatalf("Latest=%d err=%v, want %d", id, err, s.ID())
	}
	var got []string
	err = r.Each(ctx, id, 0, func(row Row) error {
		if row.Seq != int64(len(got)+1) {
			t.Fatalf("seq %d at position %d", row.Seq, len(got))
		}
		got = append(got, row.Line)
		return nil
	})
	if err != nil {
		t.Fatalf("Each: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}

	var limited int
	_ = r.Each(ctx, id, 2, func(Row) error { limited++; return nil })
	if limited != 2 {
		t.Fatalf("limit 2 returned %d rows", limited)
	}
}

func TestOpenReaderMissingFile(t *testing.T) {
	if _, err := OpenReader(context.Background(), filepath.Join(t.TempDir(), "none.db")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
