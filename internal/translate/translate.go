// Package translate turns a user query into the working language.
package translate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"chat-insights-go/internal/backend"
	"chat-insights-go/internal/logger"
	"chat-insights-go/internal/types"
)

type Translator struct {
	backend backend.Backend
	log     *logrus.Entry
}

func New(b backend.Backend) *Translator {
	return &Translator{backend: b, log: logger.New().WithField("component", "translate")}
}

func BuildPrompt(text, targetLanguage string) string {
	return fmt.Sprintf("Translate the following text to %s. "+
		"Return only the translated text without any additional commentary.\n\n---\n%s\n---", targetLanguage, text)
}

// Translate makes one call and returns the trimmed answer.
func (t *Translator) Translate(ctx context.Context, text, targetLanguage, modelID string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", &types.TranslateError{Language: targetLanguage, Err: types.ErrEmptyInput}
	}
	start := time.Now()
	out, err := t.backend.Generate(ctx, modelID, BuildPrompt(text, targetLanguage))
	if err != nil {
		return "", &types.TranslateError{Language: targetLanguage, Err: err}
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", &types.TranslateError{Language: targetLanguage, Err: types.ErrEmptyResult}
	}
	t.log.WithFields(logrus.Fields{
		"model":       modelID,
		"language":    targetLanguage,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("query translated")
	return out, nil
}
