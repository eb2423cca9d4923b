package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"chat-insights-go/internal/backend"
	"chat-insights-go/internal/logger"
)

const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

type Client struct {
	baseURL string
	// httpClient bounds one-shot calls; streamClient has no timeout and is
	// governed by the caller's context instead.
	httpClient   *http.Client
	streamClient *http.Client
	log          *logrus.Entry

	mu     sync.RWMutex
	apiKey string
}

func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		httpClient:   &http.Client{Timeout: timeout},
		streamClient: &http.Client{},
		log:          logger.New().WithField("component", "gemini"),
	}
}

type part struct {
	Text string `json:"text,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type candidate struct {
	Content      content `json:"content"`
	FinishReason string  `json:"finishReason"`
}

type generateResponse struct {
	Candidates     []candidate `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

// text joins the parts of the first candidate.
func (r generateResponse) text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String()
}

func (r generateResponse) finishReason() string {
	if len(r.Candidates) > 0 && r.Candidates[0].FinishReason != "" {
		return r.Candidates[0].FinishReason
	}
	if r.PromptFeedback.BlockReason != "" {
		return r.PromptFeedback.BlockReason
	}
	return ""
}

type modelEntry struct {
	Name                       string   `json:"name"`
	DisplayName                string   `json:"displayName"`
	SupportedGenerationMethods []string `json:"supportedGenerationMethods"`
}

type listResponse struct {
	Models        []modelEntry `json:"models"`
	NextPageToken string       `json:"nextPageToken"`
}

// APIError is the decoded {"error": {...}} body of a failed call.
type APIError struct {
	StatusCode int    `json:"code"`
	Status     string `json:"status"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gemini: %d %s: %s", e.StatusCode, e.Status, e.Message)
}

func (c *Client) key() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.apiKey
}

func (c *Client) setKey(k string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.apiKey = k
}

// Configure installs the key and probes the models endpoint with it. The key
// is dropped again when the probe fails.
func (c *Client) Configure(ctx context.Context, credential string) error {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return errors.New("api key is empty")
	}
	c.setKey(credential)
	var probe listResponse
	if err := c.getJSON(ctx, c.baseURL+"/models?pageSize=1", &probe); err != nil {
		c.setKey("")
		return err
	}
	return nil
}

func (c *Client) ListModels(ctx context.Context) ([]backend.ModelInfo, error) {
	var out []backend.ModelInfo
	token := ""
	for {
		u, _ := url.Parse(c.baseURL + "/models")
		q := u.Query()
		q.Set("pageSize", "1000")
		if token != "" {
			q.Set("pageToken", token)
		}
		u.RawQuery = q.Encode()

		var page listResponse
		if err := c.getJSON(ctx, u.String(), &page); err != nil {
			return nil, err
		}
		for _, m := range page.Models {
			out = append(out, backend.ModelInfo{
				ID:          m.Name,
				DisplayName: m.DisplayName,
				Methods:     m.SupportedGenerationMethods,
			})
		}
		if page.NextPageToken == "" {
			break
		}
		token = page.NextPageToken
	}
	c.log.WithField("models", len(out)).Debug("listed models")
	return out, nil
}

func (c *Client) Generate(ctx context.Context, modelID, prompt string) (string, error) {
	req, err := c.newGenerateRequest(ctx, modelID, ":generateContent", prompt)
	if err != nil {
		return "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return "", decodeError(resp.StatusCode, body)
	}
	var out generateResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("json decode error: %v body=%s", err, string(body))
	}
	if len(out.Candidates) == 0 && out.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("prompt blocked: %s", out.PromptFeedback.BlockReason)
	}
	return out.text(), nil
}

func (c *Client) GenerateStream(ctx context.Context, modelID, prompt string) (backend.Stream, error) {
	req, err := c.newGenerateRequest(ctx, modelID, ":streamGenerateContent?alt=sse", prompt)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	resp, err := c.streamClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return nil, decodeError(resp.StatusCode, body)
	}
	return newSSEStream(resp.Body), nil
}

func (c *Client) newGenerateRequest(ctx context.Context, modelID, suffix, prompt string) (*http.Request, error) {
	key := c.key()
	if key == "" {
		return nil, errors.New("gemini client not configured")
	}
	if !strings.HasPrefix(modelID, "models/") {
		modelID = "models/" + modelID
	}
	payload, _ := json.Marshal(generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+modelID+suffix, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", key)
	return req, nil
}

// getJSON performs an idempotent GET with retry on transport and 5xx errors.
// 4xx answers (bad key, bad request) are permanent.
func (c *Client) getJSON(ctx context.Context, endpoint string, target interface{}) error {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 12 * time.Second
	var lastErr error
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("x-goog-api-key", c.key())
		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			c.log.WithError(err).Warn("gemini request failed")
			return err
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode >= 500 {
			lastErr = decodeError(resp.StatusCode, body)
			return lastErr
		}
		if resp.StatusCode >= 300 {
			lastErr = decodeError(resp.StatusCode, body)
			return backoff.Permanent(lastErr)
		}
		if err := json.Unmarshal(body, target); err != nil {
			lastErr = fmt.Errorf("json decode error: %v body=%s", err, string(body))
			return backoff.Permanent(lastErr)
		}
		return nil
	}
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		if lastErr != nil {
			return lastErr
		}
		return err
	}
	return nil
}

func decodeError(status int, body []byte) error {
	var wrapped struct {
		Error APIError `json:"error"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Error.Message != "" {
		wrapped.Error.StatusCode = status
		return &wrapped.Error
	}
	return &APIError{StatusCode: status, Status: http.StatusText(status), Message: strings.TrimSpace(string(body))}
}
