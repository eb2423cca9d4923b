// Package openai adapts an OpenAI-compatible chat gateway to backend.Backend.
package openai

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	goopenai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"

	"chat-insights-go/internal/backend"
	"chat-insights-go/internal/logger"
)

// model ids containing one of these cannot answer chat prompts
var nonChatMarkers = []string{"embedding", "whisper", "tts", "dall-e", "moderation"}

type Client struct {
	baseURL string
	log     *logrus.Entry

	mu  sync.RWMutex
	api *goopenai.Client
}

// New returns an unconfigured client. An empty baseURL means api.openai.com.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     logger.New().WithField("component", "openai"),
	}
}

func (c *Client) client() (*goopenai.Client, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.api == nil {
		return nil, errors.New("openai client not configured")
	}
	return c.api, nil
}

// Configure builds a client for the key and checks it by listing models.
func (c *Client) Configure(ctx context.Context, credential string) error {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return errors.New("api key is empty")
	}
	cfg := goopenai.DefaultConfig(credential)
	if c.baseURL != "" {
		cfg.BaseURL = c.baseURL
	}
	api := goopenai.NewClientWithConfig(cfg)
	if _, err := api.ListModels(ctx); err != nil {
		c.mu.Lock()
		c.api = nil
		c.mu.Unlock()
		return err
	}
	c.mu.Lock()
	c.api = api
	c.mu.Unlock()
	return nil
}

func (c *Client) ListModels(ctx context.Context) ([]backend.ModelInfo, error) {
	api, err := c.client()
	if err != nil {
		return nil, err
	}
	list, err := api.ListModels(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]backend.ModelInfo, 0, len(list.Models))
	for _, m := range list.Models {
		info := backend.ModelInfo{ID: m.ID, DisplayName: m.ID}
		if isChatModel(m.ID) {
			info.Methods = []string{backend.MethodGenerateContent}
		}
		out = append(out, info)
	}
	c.log.WithField("models", len(out)).Debug("listed models")
	return out, nil
}

func isChatModel(id string) bool {
	id = strings.ToLower(id)
	for _, marker := range nonChatMarkers {
		if strings.Contains(id, marker) {
			return false
		}
	}
	return true
}

func chatRequest(modelID, prompt string) goopenai.ChatCompletionRequest {
	return goopenai.ChatCompletionRequest{
		Model: modelID,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleUser, Content: prompt},
		},
	}
}

func (c *Client) Generate(ctx context.Context, modelID, prompt string) (string, error) {
	api, err := c.client()
	if err != nil {
		return "", err
	}
	resp, err := api.CreateChatCompletion(ctx, chatRequest(modelID, prompt))
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *Client) GenerateStream(ctx context.Context, modelID, prompt string) (backend.Stream, error) {
	api, err := c.client()
	if err != nil {
		return nil, err
	}
	req := chatRequest(modelID, prompt)
	req.Stream = true
	s, err := api.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return nil, err
	}
	return &chatStream{s: s}, nil
}

type chatStream struct {
	s *goopenai.ChatCompletionStream
}

// Next skips frames that carry neither text nor a finish reason, such as the
// role-only opening delta and usage frames without choices.
func (cs *chatStream) Next(ctx context.Context) (backend.Chunk, error) {
	for {
		if err := ctx.Err(); err != nil {
			return backend.Chunk{}, err
		}
		resp, err := cs.s.Recv()
		if errors.Is(err, io.EOF) {
			return backend.Chunk{}, io.EOF
		}
		if err != nil {
			return backend.Chunk{}, err
		}
		if len(resp.Choices) == 0 {
			continue
		}
		choice := resp.Choices[0]
		if choice.Delta.Content == "" && choice.FinishReason == "" {
			continue
		}
		return backend.Chunk{Text: choice.Delta.Content, FinishReason: string(choice.FinishReason)}, nil
	}
}

func (cs *chatStream) Close() error {
	return cs.s.Close()
}
