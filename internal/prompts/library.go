// Package prompts stores reusable analysis prompts in a JSON file.
package prompts

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"chat-insights-go/internal/types"
)

const DefaultID = "default-detailed-report-v1"

var (
	ErrProtected = errors.New("the default prompt cannot be deleted")
	ErrNotFound  = errors.New("prompt not found")
)

type Prompt struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Model            string `json:"model"`
	Language         string `json:"language"`
	BaseInstructions string `json:"base_instructions"`
	UserQuery        string `json:"user_query"`
}

// Config returns the fields the analysis pipeline consumes.
func (p Prompt) Config() types.AnalysisConfig {
	return types.AnalysisConfig{
		BaseInstructions: p.BaseInstructions,
		UserQuery:        p.UserQuery,
		Language:         p.Language,
	}
}

func defaultPrompt() Prompt {
	return Prompt{
		ID:       DefaultID,
		Name:     "Default IT Support Report",
		Model:    "Gemini 1.5 Pro",
		Language: "English",
		BaseInstructions: "You are an analyst reviewing a support chat between a customer team and an IT support team. " +
			"Write a structured report with numbered sections: 1. Summary, 2. Timeline of issues, " +
			"3. Response quality of the IT support team, 4. Open actionables with owners.",
		UserQuery: "Analyze the chat log and produce the report.",
	}
}

type Library struct {
	path string

	mu      sync.RWMutex
	prompts []Prompt
}

// Load reads the library at path. A missing file yields a library holding
// only the default prompt.
func Load(path string) (*Library, error) {
	l := &Library{path: path}
	if err := l.reload(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Library) reload() error {
	var list []Prompt
	data, err := os.ReadFile(l.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return &types.IOError{Op: "read", Path: l.path, Err: err}
	default:
		if err := json.Unmarshal(data, &list); err != nil {
			return fmt.Errorf("decode prompts %s: %w", l.path, err)
		}
	}
	hasDefault := false
	for _, p := range list {
		if p.ID == DefaultID {
			hasDefault = true
			break
		}
	}
	if !hasDefault {
		list = append([]Prompt{defaultPrompt()}, list...)
	}
	l.mu.Lock()
	l.prompts = list
	l.mu.Unlock()
	return nil
}

// List returns all prompts sorted by name, case-insensitively.
func (l *Library) List() []Prompt {
	l.mu.RLock()
	out := append([]Prompt(nil), l.prompts...)
	l.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

func (l *Library) Get(id string) (Prompt, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, p := range l.prompts {
		if p.ID == id {
			return p, nil
		}
	}
	return Prompt{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// FindByName returns the first prompt whose name matches, ignoring case.
func (l *Library) FindByName(name string) (Prompt, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, p := range l.prompts {
		if strings.EqualFold(p.Name, name) {
			return p, nil
		}
	}
	return Prompt{}, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// Save inserts p, or replaces the prompt with the same ID, and writes the
// file. A prompt without ID gets a new one.
func (l *Library) Save(p Prompt) (Prompt, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return Prompt{}, fmt.Errorf("%w: prompt name", types.ErrEmptyInput)
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Language == "" {
		p.Language = "English"
	}

	l.mu.Lock()
	replaced := false
	for i := range l.prompts {
		if l.prompts[i].ID == p.ID {
			l.prompts[i] = p
			replaced = true
			break
		}
	}
	if !replaced {
		l.prompts = append(l.prompts, p)
	}
	l.mu.Unlock()
	return p, l.persist()
}

func (l *Library) Delete(id string) error {
	if id == DefaultID {
		return ErrProtected
	}
	l.mu.Lock()
	n := len(l.prompts)
	kept := l.prompts[:0]
	for _, p := range l.prompts {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	l.prompts = kept
	l.mu.Unlock()
	if len(kept) == n {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return l.persist()
}

func (l *Library) persist() error {
	l.mu.RLock()
	data, err := json.MarshalIndent(l.prompts, "", "    ")
	l.mu.RUnlock()
	if err != nil {
		return err
	}
	if err := os.WriteFile(l.path, data, 0644); err != nil {
		return &types.IOError{Op: "write", Path: l.path, Err: err}
	}
	return nil
}

// Import replaces the library file with src after checking that it decodes.
func (l *Library) Import(src string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return &types.IOError{Op: "read", Path: src, Err: err}
	}
	var check []Prompt
	if err := json.Unmarshal(data, &check); err != nil {
		return fmt.Errorf("decode prompts %s: %w", src, err)
	}
	if err := os.WriteFile(l.path, data, 0644); err != nil {
		return &types.IOError{Op: "write", Path: l.path, Err: err}
	}
	return l.reload()
}

// Export writes the current library to dst.
func (l *Library) Export(dst string) error {
	if err := l.persist(); err != nil {
		return err
	}
	data, err := os.ReadFile(l.path)
	if err != nil {
		return &types.IOError{Op: "read", Path: l.path, Err: err}
	}
	if err := os.WriteFile(dst, data, 0644); err != nil {
		return &types.IOError{Op: "write", Path: dst, Err: err}
	}
	return nil
}
