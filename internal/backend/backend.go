// Package backend defines the only network boundary of the analyzer: a
// generative-text service that can list models, answer a prompt once, or
// stream an answer chunk by chunk.
package backend

import (
	"context"
	"slices"
)

// MethodGenerateContent is the capability a model must advertise to be usable.
const MethodGenerateContent = "generateContent"

type ModelInfo struct {
	ID          string
	DisplayName string
	Methods     []string
}

// SupportsGeneration reports whether the model can answer text prompts.
func (m ModelInfo) SupportsGeneration() bool {
	return slices.Contains(m.Methods, MethodGenerateContent)
}

// Chunk is one unit of a streamed answer. Either field may be empty.
type Chunk struct {
	Text         string
	FinishReason string
}

// Stream is a lazy, single-consumption sequence of chunks. Next returns
// io.EOF after the last chunk. A Stream cannot be rewound.
type Stream interface {
	Next(ctx context.Context) (Chunk, error)
	Close() error
}

type Backend interface {
	// Configure installs the credential and performs a cheap capability check.
	Configure(ctx context.Context, credential string) error
	ListModels(ctx context.Context) ([]ModelInfo, error)
	Generate(ctx context.Context, modelID, prompt string) (string, error)
	GenerateStream(ctx context.Context, modelID, prompt string) (Stream, error)
}
