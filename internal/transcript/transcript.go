// Package transcript holds the loaded chat export and the time span it covers.
package transcript

import (
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"chat-insights-go/internal/dataset"
	"chat-insights-go/internal/logger"
	"chat-insights-go/internal/types"
)

// matches "[1/2/2025, 09:00]" and "1/2/25, 9:00:15 -" style prefixes
var linePrefix = regexp.MustCompile(`^\[?(\d{1,2})/(\d{1,2})/(\d{2,4}),\s*(\d{1,2}):(\d{2})(?::(\d{2}))?\]?`)

type Store struct {
	log *logrus.Entry

	mu       sync.RWMutex
	source   string
	path     string // empty for in-memory text
	text     string
	rng      types.TimeRange
	hasRange bool
}

func New() *Store {
	return &Store{log: logger.New().WithField("component", "transcript")}
}

// Load replaces the transcript with the file's content. Spreadsheet
// exports (.xlsx) are converted to chat lines first. On failure the previous
// transcript is kept.
func (s *Store) Load(path string) error {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		text, err := dataset.LoadChat(path)
		if err != nil {
			return &types.IOError{Op: "read", Path: path, Err: err}
		}
		s.set(path, path, text)
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return &types.IOError{Op: "read", Path: path, Err: err}
	}
	s.set(path, path, string(data))
	return nil
}

// LoadText replaces the transcript with text that has no backing file;
// source only labels it.
func (s *Store) LoadText(source, text string) {
	s.set(source, "", text)
}

func (s *Store) set(source, path, text string) {
	rng, ok := ExtractTimeRange(text)

	s.mu.Lock()
	s.source = source
	s.path = path
	s.text = text
	s.rng = rng
	s.hasRange = ok
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{
		"source":    source,
		"bytes":     len(text),
		"has_range": ok,
	}).Info("transcript loaded")
}

// Path is the file the transcript was loaded from, or "" when it was
// handed over as text.
func (s *Store) Path() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.path
}

func (s *Store) Text() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.text
}

func (s *Store) Source() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.source
}

// Loaded reports whether a non-blank transcript is present.
func (s *Store) Loaded() bool {
	return strings.TrimSpace(s.Text()) != ""
}

func (s *Store) TimeRange() (types.TimeRange, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rng, s.hasRange
}

// SetTimeRange overrides the derived range, e.g. when restoring a session
// whose transcript file is no longer readable.
func (s *Store) SetTimeRange(r types.TimeRange) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rng = r
	s.hasRange = !r.IsZero()
}

// ExtractTimeRange returns the earliest and latest line timestamps in text.
// Dates are read day first; a line whose date only makes sense month first
// is read that way. Lines that do not parse are skipped.
func ExtractTimeRange(text string) (types.TimeRange, bool) {
	var rng types.TimeRange
	found := false
	for _, line := range strings.Split(text, "\n") {
		m := linePrefix.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		ts, ok := parseStamp(m[1:])
		if !ok {
			continue
		}
		if !found || ts.Before(rng.Start) {
			rng.Start = ts
		}
		if !found || ts.After(rng.End) {
			rng.End = ts
		}
		found = true
	}
	return rng, found
}

// parseStamp takes day, month, year, hour, minute and optional second.
func parseStamp(parts []string) (time.Time, bool) {
	n := make([]int, len(parts))
	for i, p := range parts {
		if p == "" {
			continue
		}
		v, err := strconv.Atoi(p)
		if err != nil {
			return time.Time{}, false
		}
		n[i] = v
	}
	first, second, year, hour, minute, sec := n[0], n[1], n[2], n[3], n[4], n[5]
	switch len(parts[2]) {
	case 2:
		year += 2000
	case 4:
	default:
		return time.Time{}, false
	}
	if hour > 23 || minute > 59 || sec > 59 {
		return time.Time{}, false
	}
	if t, ok := makeDate(year, second, first, hour, minute, sec); ok {
		return t, true
	}
	return makeDate(year, first, second, hour, minute, sec)
}

func makeDate(year, month, day, hour, minute, sec int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, hour, minute, sec, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}
