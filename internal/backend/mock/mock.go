// Package mock is a deterministic in-memory backend used by tests and by
// USE_MOCK_LLM=true runs.
package mock

import (
	"context"
	"errors"
	"io"
	"regexp"
	"strings"
	"sync"

	"chat-insights-go/internal/backend"
)

var speakerLine = regexp.MustCompile(`^\[[^\]]*\]\s*([^:]+):`)

type Backend struct {
	// ValidKey, when set, is the only credential Configure accepts.
	ValidKey string
	Models   []backend.ModelInfo

	ConfigureErr error
	ListErr      error
	GenerateErr  error
	StreamErr    error

	// GenerateFunc answers non-streaming calls; nil uses the demo responder.
	GenerateFunc func(modelID, prompt string) (string, error)

	Chunks []backend.Chunk
	// TailErr is returned after the last chunk instead of io.EOF.
	TailErr error
	// OnChunk runs before chunk i is handed out.
	OnChunk func(i int)

	mu            sync.Mutex
	prompts       []string
	generateCalls int
	streamCalls   int
}

// New returns a backend with two generation models, one embedding model and a
// short canned report.
func New() *Backend {
	return &Backend{
		Models: []backend.ModelInfo{
			{ID: "models/gemini-1.5-pro", DisplayName: "Gemini 1.5 Pro", Methods: []string{backend.MethodGenerateContent}},
			{ID: "models/gemini-1.5-flash", DisplayName: "Gemini 1.5 Flash", Methods: []string{backend.MethodGenerateContent}},
			{ID: "models/embedding-001", DisplayName: "Embedding 001", Methods: []string{"embedContent"}},
		},
		Chunks: []backend.Chunk{
			{Text: "1. Summary\n"},
			{Text: "- The customer reported an issue and support responded.\n"},
			{Text: "2. Actionables\n"},
			{Text: "- Follow up with the customer.\n"},
			{FinishReason: "STOP"},
		},
	}
}

func (b *Backend) Configure(ctx context.Context, credential string) error {
	if b.ConfigureErr != nil {
		return b.ConfigureErr
	}
	if strings.TrimSpace(credential) == "" {
		return errors.New("api key is empty")
	}
	if b.ValidKey != "" && credential != b.ValidKey {
		return errors.New("API key not valid")
	}
	return nil
}

func (b *Backend) ListModels(ctx context.Context) ([]backend.ModelInfo, error) {
	if b.ListErr != nil {
		return nil, b.ListErr
	}
	out := make([]backend.ModelInfo, len(b.Models))
	copy(out, b.Models)
	return out, nil
}

func (b *Backend) Generate(ctx context.Context, modelID, prompt string) (string, error) {
	b.mu.Lock()
	b.prompts = append(b.prompts, prompt)
	b.generateCalls++
	b.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if b.GenerateErr != nil {
		return "", b.GenerateErr
	}
	if b.GenerateFunc != nil {
		return b.GenerateFunc(modelID, prompt)
	}
	return demoAnswer(prompt), nil
}

func (b *Backend) GenerateStream(ctx context.Context, modelID, prompt string) (backend.Stream, error) {
	b.mu.Lock()
	b.prompts = append(b.prompts, prompt)
	b.streamCalls++
	b.mu.Unlock()
	if b.StreamErr != nil {
		return nil, b.StreamErr
	}
	chunks := make([]backend.Chunk, len(b.Chunks))
	copy(chunks, b.Chunks)
	return &stream{chunks: chunks, tail: b.TailErr, onChunk: b.OnChunk}, nil
}

// Prompts returns every prompt received so far, in call order.
func (b *Backend) Prompts() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.prompts...)
}

func (b *Backend) GenerateCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.generateCalls
}

func (b *Backend) StreamCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.streamCalls
}

// demoAnswer echoes the text of a translation request, lists the speakers of
// a participant request and otherwise returns a fixed sentence.
func demoAnswer(prompt string) string {
	if strings.HasPrefix(prompt, "Translate the following text") {
		if _, rest, ok := strings.Cut(prompt, "---\n"); ok {
			text, _, _ := strings.Cut(rest, "\n---")
			return text
		}
	}
	if strings.Contains(strings.ToLower(prompt), "participant") {
		var names []string
		for _, line := range strings.Split(prompt, "\n") {
			if m := speakerLine.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
				names = append(names, strings.TrimSpace(m[1]))
			}
		}
		return strings.Join(names, "\n")
	}
	return "mock answer"
}

type stream struct {
	mu      sync.Mutex
	chunks  []backend.Chunk
	pos     int
	tail    error
	onChunk func(i int)
	closed  bool
}

func (s *stream) Next(ctx context.Context) (backend.Chunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return backend.Chunk{}, errors.New("stream closed")
	}
	if err := ctx.Err(); err != nil {
		return backend.Chunk{}, err
	}
	if s.pos >= len(s.chunks) {
		if s.tail != nil {
			return backend.Chunk{}, s.tail
		}
		return backend.Chunk{}, io.EOF
	}
	if s.onChunk != nil {
		s.onChunk(s.pos)
	}
	ch := s.chunks[s.pos]
	s.pos++
	return ch, nil
}

func (s *stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
