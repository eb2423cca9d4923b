package transcript

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"chat-insights-go/internal/types"
)

func TestExtractTimeRangeDayFirst(t *testing.T) {
	text := "[1/2/2025, 09:00] A: hi\n[3/2/2025, 10:15] B: hey\n"
	rng, ok := ExtractTimeRange(text)
	if !ok {
		t.Fatal("expected a range")
	}
	wantStart := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2025, 2, 3, 10, 15, 0, 0, time.UTC)
	if !rng.Start.Equal(wantStart) || !rng.End.Equal(wantEnd) {
		t.Fatalf("got %s..%s", rng.FormatStart(), rng.FormatEnd())
	}
}

func TestExtractTimeRangeVariants(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantOK    bool
		wantStart string
		wantEnd   string
	}{
		{
			name:      "no brackets and two digit year",
			text:      "5/6/24, 8:05 - A: x\n6/6/24, 18:30:59 - B: y",
			wantOK:    true,
			wantStart: "2024-06-05 08:05",
			wantEnd:   "2024-06-06 18:30",
		},
		{
			name:      "month first only when day first is impossible",
			text:      "[12/25/2024, 10:00] A: x\n[1/12/2024, 09:00] B: y",
			wantOK:    true,
			wantStart: "2024-12-01 09:00",
			wantEnd:   "2024-12-25 10:00",
		},
		{
			name:      "malformed lines are skipped",
			text:      "[31/31/2024, 10:00] A: x\n[2/1/2024, 99:00] B: y\n[2/1/2024, 07:45] C: z",
			wantOK:    true,
			wantStart: "2024-01-02 07:45",
			wantEnd:   "2024-01-02 07:45",
		},
		{
			name:      "three digit years are rejected",
			text:      "[1/2/025, 09:00] A: x\n[3/2/2025, 10:15] B: y",
			wantOK:    true,
			wantStart: "2025-02-03 10:15",
			wantEnd:   "2025-02-03 10:15",
		},
		{
			name:   "no timestamps",
			text:   "hello\nworld",
			wantOK: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rng, ok := ExtractTimeRange(tt.text)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if rng.FormatStart() != tt.wantStart || rng.FormatEnd() != tt.wantEnd {
				t.Fatalf("got %s..%s, want %s..%s", rng.FormatStart(), rng.FormatEnd(), tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestLoadKeepsPreviousOnFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chat.txt")
	if err := os.WriteFile(path, []byte("[1/2/2025, 09:00] A: hi"), 0644); err != nil {
		t.Fatal(err)
	}
	s := New()
	if err := s.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !s.Loaded() || s.Source() != path || s.Path() != path {
		t.Fatal("transcript not loaded")
	}

	var ioErr *types.IOError
	if err := s.Load(filepath.Join(dir, "missing.txt")); !errors.As(err, &ioErr) {
		t.Fatalf("expected IOError, got %v", err)
	}
	if s.Text() != "[1/2/2025, 09:00] A: hi" {
		t.Fatal("previous transcript should survive a failed load")
	}

	s.LoadText("upload", "no stamps here")
	if _, ok := s.TimeRange(); ok {
		t.Fatal("range should be cleared by a new transcript without stamps")
	}
	if s.Source() != "upload" || s.Path() != "" {
		t.Fatalf("in-memory text has no file path: source=%q path=%q", s.Source(), s.Path())
	}
}
