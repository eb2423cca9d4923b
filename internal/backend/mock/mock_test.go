package mock

import (
	"context"
	"errors"
	"io"
	"testing"

	"chat-insights-go/internal/backend"
)

var _ backend.Backend = (*Backend)(nil)

func TestDemoAnswerListsSpeakers(t *testing.T) {
	b := New()
	prompt := "List every participant name.\n---\n[1/2/2025, 09:00] Alice: hi\n[1/2/2025, 09:01] Bob: hello\nno speaker here\n---"
	out, err := b.Generate(context.Background(), "m", prompt)
	if err != nil {
		t.Fatal(err)
	}
	if out != "Alice\nBob" {
		t.Fatalf("unexpected names %q", out)
	}
}

func TestDemoAnswerEchoesTranslation(t *testing.T) {
	b := New()
	out, _ := b.Generate(context.Background(), "m", "Translate the following text to English. Return only the translated text.\n\n---\nhola\n---")
	if out != "hola" {
		t.Fatalf("unexpected translation %q", out)
	}
}

func TestStreamTailError(t *testing.T) {
	b := &Backend{Chunks: []backend.Chunk{{Text: "a"}}, TailErr: errors.New("reset")}
	s, err := b.GenerateStream(context.Background(), "m", "p")
	if err != nil {
		t.Fatal(err)
	}
	if ch, err := s.Next(context.Background()); err != nil || ch.Text != "a" {
		t.Fatalf("unexpected first chunk %+v %v", ch, err)
	}
	if _, err := s.Next(context.Background()); err == nil || err == io.EOF {
		t.Fatalf("expected tail error, got %v", err)
	}
	if b.StreamCalls() != 1 || len(b.Prompts()) != 1 {
		t.Fatalf("calls not recorded")
	}
}

func TestConfigureValidKey(t *testing.T) {
	b := &Backend{ValidKey: "k"}
	if err := b.Configure(context.Background(), "x"); err == nil {
		t.Fatal("expected wrong key to fail")
	}
	if err := b.Configure(context.Background(), "k"); err != nil {
		t.Fatal(err)
	}
}
