package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"chat-insights-go/internal/types"
)

const isoLayout = "2006-01-02T15:04:05"

// Snapshot is the on-disk form of a session.
type Snapshot struct {
	APIKey         string   `json:"api_key"`
	APITier        string   `json:"api_tier"`
	ParserModel    string   `json:"parser_model"`
	ModelDisplay   string   `json:"model_display"`
	ChatLogPath    string   `json:"chat_log_path"`
	ChatLogDisplay string   `json:"chat_log_display"`
	StartISO       string   `json:"start_iso,omitempty"`
	EndISO         string   `json:"end_iso,omitempty"`
	Participants   []string `json:"participants"`
	Team1          []string `json:"team1"`
	Team2          []string `json:"team2"`
}

func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	snap := Snapshot{
		APIKey:      s.credential,
		APITier:     s.tier,
		ParserModel: s.parserLabel,
	}
	s.mu.RUnlock()

	if m, ok := s.Catalog.Selected(); ok {
		snap.ModelDisplay = m.DisplayLabel
	}
	if src := s.Transcript.Source(); src != "" {
		snap.ChatLogPath = s.Transcript.Path()
		snap.ChatLogDisplay = filepath.Base(src)
	}
	if rng, ok := s.Transcript.TimeRange(); ok {
		if !rng.Start.IsZero() {
			snap.StartISO = rng.Start.Format(isoLayout)
		}
		if !rng.End.IsZero() {
			snap.EndISO = rng.End.Format(isoLayout)
		}
	}
	view := s.Teams.View()
	snap.Participants = view.Participants
	snap.Team1 = view.GroupA
	snap.Team2 = view.GroupB
	return snap
}

// Restore rebuilds session state from snap. Local state (tier, rosters,
// transcript, time range) is always applied; a credential is re-validated
// and, when accepted, the saved model choices are re-resolved. Problems
// are returned joined and do not stop the rest of the restore.
func (s *Session) Restore(ctx context.Context, snap Snapshot) error {
	var errs []error

	s.mu.Lock()
	if snap.APITier != "" {
		s.tier = snap.APITier
	}
	s.parserLabel = snap.ParserModel
	s.mu.Unlock()

	if snap.ChatLogPath != "" {
		if err := s.Transcript.Load(snap.ChatLogPath); err != nil {
			errs = append(errs, err)
		}
	}
	if rng, ok := parseRange(snap.StartISO, snap.EndISO); ok {
		s.Transcript.SetTimeRange(rng)
	}
	s.Teams.Restore(snap.Participants, snap.Team1, snap.Team2)

	if snap.APIKey != "" {
		if _, err := s.Authenticate(ctx, snap.APIKey); err != nil {
			errs = append(errs, err)
		} else if snap.ModelDisplay != "" {
			if err := s.Catalog.Select(snap.ModelDisplay); err != nil {
				errs = append(errs, err)
			}
		}
	}
	s.log.WithField("has_credential", s.hasCredential()).Info("session restored")
	return errors.Join(errs...)
}

func parseRange(startISO, endISO string) (types.TimeRange, bool) {
	var rng types.TimeRange
	if t, err := time.Parse(isoLayout, startISO); err == nil {
		rng.Start = t
	}
	if t, err := time.Parse(isoLayout, endISO); err == nil {
		rng.End = t
	}
	return rng, !rng.IsZero()
}

// SnapshotStore keeps timestamped snapshot files in one directory.
type SnapshotStore struct {
	Dir string
	now func() time.Time
}

func NewSnapshotStore(dir string) *SnapshotStore {
	return &SnapshotStore{Dir: dir, now: time.Now}
}

// Save writes snap as session_YYYYMMDD_HHMMSS.json and returns the path.
func (st *SnapshotStore) Save(snap Snapshot) (string, error) {
	if err := os.MkdirAll(st.Dir, 0755); err != nil {
		return "", &types.IOError{Op: "write", Path: st.Dir, Err: err}
	}
	path := filepath.Join(st.Dir, fmt.Sprintf("session_%s.json", st.now().Format("20060102_150405")))
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", &types.IOError{Op: "write", Path: path, Err: err}
	}
	return path, nil
}

// LoadLatest reads the newest snapshot. ok is false when there is none.
func (st *SnapshotStore) LoadLatest() (snap Snapshot, ok bool, err error) {
	files, err := filepath.Glob(filepath.Join(st.Dir, "session_*.json"))
	if err != nil || len(files) == 0 {
		return Snapshot{}, false, err
	}
	sort.Sort(sort.Reverse(sort.StringSlice(files)))
	data, err := os.ReadFile(files[0])
	if err != nil {
		return Snapshot{}, false, &types.IOError{Op: "read", Path: files[0], Err: err}
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, false, fmt.Errorf("decode %s: %w", files[0], err)
	}
	return snap, true, nil
}
