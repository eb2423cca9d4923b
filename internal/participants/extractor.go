// Package participants asks the backend who is talking in a transcript.
package participants

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"chat-insights-go/internal/backend"
	"chat-insights-go/internal/logger"
	"chat-insights-go/internal/types"
)

// Roster receives the extracted participant list.
type Roster interface {
	SetParticipants(names []string)
}

type Extractor struct {
	backend backend.Backend
	log     *logrus.Entry
}

func New(b backend.Backend) *Extractor {
	return &Extractor{backend: b, log: logger.New().WithField("component", "participants")}
}

func BuildPrompt(transcript string) string {
	return fmt.Sprintf("You are a WhatsApp chat log parser. Extract each unique participant name exactly as it appears "+
		"in the log. List one per line, no additional text.\n\n---BEGIN LOG---\n%s\n---END LOG---", transcript)
}

// ParseNames splits a one-name-per-line answer, trimming blanks and keeping
// the first occurrence of each name.
func ParseNames(answer string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, line := range strings.Split(answer, "\n") {
		name := strings.TrimSpace(line)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

// Extract returns the distinct participant names of transcript in the order
// they were first listed by the model.
func (e *Extractor) Extract(ctx context.Context, transcript, modelID string) ([]string, error) {
	if strings.TrimSpace(transcript) == "" {
		return nil, types.ErrNoTranscript
	}
	if modelID == "" {
		return nil, types.ErrNoModelSelected
	}
	start := time.Now()
	answer, err := e.backend.Generate(ctx, modelID, BuildPrompt(transcript))
	if err != nil {
		return nil, &types.ExtractError{Model: modelID, Err: err}
	}
	names := ParseNames(answer)
	if len(names) == 0 {
		return nil, &types.ExtractError{Model: modelID, Err: errors.New("model returned no participant names")}
	}
	e.log.WithFields(logrus.Fields{
		"model":        modelID,
		"participants": len(names),
		"duration_ms":  time.Since(start).Milliseconds(),
	}).Info("participants extracted")
	return names, nil
}

// Refresh extracts and hands the names to roster. The roster is left as it
// was when extraction fails.
func (e *Extractor) Refresh(ctx context.Context, transcript, modelID string, roster Roster) ([]string, error) {
	names, err := e.Extract(ctx, transcript, modelID)
	if err != nil {
		return nil, err
	}
	roster.SetParticipants(names)
	return names, nil
}
