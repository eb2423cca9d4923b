// Package catalog tracks the active credential, the models the backend can
// generate text with, and the model selected for analysis.
package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"chat-insights-go/internal/backend"
	"chat-insights-go/internal/logger"
	"chat-insights-go/internal/types"
)

type Catalog struct {
	backend backend.Backend
	log     *logrus.Entry

	mu       sync.RWMutex
	active   bool
	models   []types.ModelDescriptor
	selected types.ModelDescriptor
}

func New(b backend.Backend) *Catalog {
	return &Catalog{
		backend: b,
		log:     logger.New().WithField("component", "catalog"),
	}
}

// Validate hands the credential to the backend. A refused credential leaves
// the catalog inactive even if a previous one had been accepted.
func (c *Catalog) Validate(ctx context.Context, credential string) error {
	if strings.TrimSpace(credential) == "" {
		c.setActive(false)
		return &types.AuthError{Err: types.ErrEmptyInput}
	}
	if err := c.backend.Configure(ctx, credential); err != nil {
		c.setActive(false)
		c.log.WithError(err).Warn("credential rejected")
		return &types.AuthError{Err: err}
	}
	c.setActive(true)
	c.log.Info("credential accepted")
	return nil
}

func (c *Catalog) setActive(v bool) {
	c.mu.Lock()
	c.active = v
	c.mu.Unlock()
}

// Active reports whether a credential has been validated.
func (c *Catalog) Active() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.active
}

// ListModels fetches the generation-capable models, sorted by label, and
// replaces the cached list with them.
func (c *Catalog) ListModels(ctx context.Context) ([]types.ModelDescriptor, error) {
	if !c.Active() {
		return nil, types.ErrNotAuthenticated
	}
	infos, err := c.backend.ListModels(ctx)
	if err != nil {
		return nil, &types.FetchError{Err: err}
	}
	models := make([]types.ModelDescriptor, 0, len(infos))
	for _, m := range infos {
		if !m.SupportsGeneration() {
			continue
		}
		label := m.DisplayName
		if label == "" {
			label = m.ID
		}
		models = append(models, types.ModelDescriptor{InternalID: m.ID, DisplayLabel: label})
	}
	sort.SliceStable(models, func(i, j int) bool {
		return strings.ToLower(models[i].DisplayLabel) < strings.ToLower(models[j].DisplayLabel)
	})

	c.mu.Lock()
	c.models = models
	// the selection follows its label into the new list, or is dropped
	if !c.selected.IsZero() {
		kept := types.ModelDescriptor{}
		for _, m := range models {
			if m.DisplayLabel == c.selected.DisplayLabel {
				kept = m
				break
			}
		}
		if kept.IsZero() {
			c.log.WithField("model", c.selected.DisplayLabel).Warn("selected model no longer listed")
		}
		c.selected = kept
	}
	c.mu.Unlock()
	c.log.WithField("models", len(models)).Info("model catalog refreshed")
	return append([]types.ModelDescriptor(nil), models...), nil
}

// Models returns the cached list without contacting the backend.
func (c *Catalog) Models() []types.ModelDescriptor {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]types.ModelDescriptor(nil), c.models...)
}

// Resolve finds a cached model by its exact display label.
func (c *Catalog) Resolve(label string) (types.ModelDescriptor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, m := range c.models {
		if m.DisplayLabel == label {
			return m, true
		}
	}
	return types.ModelDescriptor{}, false
}

// Select makes the model with the given label the analysis model.
func (c *Catalog) Select(label string) error {
	m, ok := c.Resolve(label)
	if !ok {
		return fmt.Errorf("%w: unknown model %q", types.ErrNoModelSelected, label)
	}
	c.mu.Lock()
	c.selected = m
	c.mu.Unlock()
	return nil
}

func (c *Catalog) Selected() (types.ModelDescriptor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.selected, !c.selected.IsZero()
}
