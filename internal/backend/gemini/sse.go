package gemini

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"chat-insights-go/internal/backend"
)

const maxEventSize = 1 << 20

// sseStream reads "data: {...}" events of streamGenerateContent?alt=sse.
type sseStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
}

func newSSEStream(body io.ReadCloser) *sseStream {
	sc := bufio.NewScanner(body)
	sc.Buffer(make([]byte, 0, 64*1024), maxEventSize)
	return &sseStream{body: body, scanner: sc}
}

func (s *sseStream) Next(ctx context.Context) (backend.Chunk, error) {
	for s.scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return backend.Chunk{}, err
		}
		line := strings.TrimSpace(s.scanner.Text())
		data, ok := strings.CutPrefix(line, "data:")
		if !ok {
			continue
		}
		data = strings.TrimSpace(data)
		if data == "" || data == "[DONE]" {
			continue
		}
		var resp generateResponse
		if err := json.Unmarshal([]byte(data), &resp); err != nil {
			return backend.Chunk{}, fmt.Errorf("decode stream event: %w", err)
		}
		return backend.Chunk{Text: resp.text(), FinishReason: resp.finishReason()}, nil
	}
	if err := ctx.Err(); err != nil {
		return backend.Chunk{}, err
	}
	if err := s.scanner.Err(); err != nil {
		return backend.Chunk{}, err
	}
	return backend.Chunk{}, io.EOF
}

func (s *sseStream) Close() error {
	return s.body.Close()
}
