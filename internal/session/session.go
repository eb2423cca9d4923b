// Package session ties the analyzer components together for one user.
package session

import (
	"context"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"chat-insights-go/internal/analysis"
	"chat-insights-go/internal/backend"
	"chat-insights-go/internal/catalog"
	"chat-insights-go/internal/logger"
	"chat-insights-go/internal/participants"
	"chat-insights-go/internal/ratelimit"
	"chat-insights-go/internal/teams"
	"chat-insights-go/internal/transcript"
	"chat-insights-go/internal/types"
)

type Options struct {
	Tier            string
	GroupAName      string
	GroupBName      string
	WorkingLanguage string
	Policy          ratelimit.Policy
}

type Session struct {
	Catalog    *catalog.Catalog
	Transcript *transcript.Store
	Extractor  *participants.Extractor
	Teams      *teams.Partition
	Limiter    *ratelimit.Limiter
	Pipeline   *analysis.Pipeline

	log *logrus.Entry

	mu          sync.RWMutex
	credential  string
	tier        string
	parserLabel string
}

func New(b backend.Backend, opts Options) *Session {
	if opts.Tier == "" {
		opts.Tier = ratelimit.FreeTier
	}
	if opts.GroupAName == "" {
		opts.GroupAName = "Customer"
	}
	if opts.GroupBName == "" {
		opts.GroupBName = "IT Support"
	}
	limiter := ratelimit.New(opts.Policy)
	return &Session{
		Catalog:    catalog.New(b),
		Transcript: transcript.New(),
		Extractor:  participants.New(b),
		Teams:      teams.New(opts.GroupAName, opts.GroupBName),
		Limiter:    limiter,
		Pipeline:   analysis.New(b, limiter, analysis.WithWorkingLanguage(opts.WorkingLanguage)),
		log:        logger.New().WithField("component", "session"),
		tier:       opts.Tier,
	}
}

// Authenticate validates the key and, on success, refreshes the model list.
func (s *Session) Authenticate(ctx context.Context, credential string) ([]types.ModelDescriptor, error) {
	if err := s.Catalog.Validate(ctx, credential); err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.credential = credential
	s.mu.Unlock()
	return s.Catalog.ListModels(ctx)
}

func (s *Session) Tier() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tier
}

func (s *Session) SetTier(tier string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tier = tier
}

// SetParserModel chooses the model used for participant extraction.
func (s *Session) SetParserModel(label string) error {
	if _, ok := s.Catalog.Resolve(label); !ok {
		return types.ErrNoModelSelected
	}
	s.mu.Lock()
	s.parserLabel = label
	s.mu.Unlock()
	return nil
}

// ParserModel returns the extraction model, falling back to the analysis
// model when none was chosen.
func (s *Session) ParserModel() (types.ModelDescriptor, bool) {
	s.mu.RLock()
	label := s.parserLabel
	s.mu.RUnlock()
	if label != "" {
		if m, ok := s.Catalog.Resolve(label); ok {
			return m, true
		}
	}
	return s.Catalog.Selected()
}

// ParseParticipants extracts participants with the parser model and merges
// them into the team partition.
func (s *Session) ParseParticipants(ctx context.Context) ([]string, error) {
	if !s.Transcript.Loaded() {
		return nil, types.ErrNoTranscript
	}
	m, ok := s.ParserModel()
	if !ok {
		return nil, types.ErrNoModelSelected
	}
	return s.Extractor.Refresh(ctx, s.Transcript.Text(), m.InternalID, s.Teams)
}

// Request assembles an analysis request from the current state.
func (s *Session) Request(cfg types.AnalysisConfig) analysis.Request {
	model, _ := s.Catalog.Selected()
	rng, _ := s.Transcript.TimeRange()
	view := s.Teams.View()
	return analysis.Request{
		Config:     cfg,
		Model:      model,
		Tier:       s.Tier(),
		Transcript: s.Transcript.Text(),
		Range:      rng,
		GroupAName: view.GroupAName,
		GroupBName: view.GroupBName,
		GroupA:     view.GroupA,
		GroupB:     view.GroupB,
	}
}

func (s *Session) StartAnalysis(ctx context.Context, cfg types.AnalysisConfig) (*analysis.Run, error) {
	return s.Pipeline.Start(ctx, s.Request(cfg))
}

func (s *Session) RunAnalysis(ctx context.Context, cfg types.AnalysisConfig, emit func(analysis.Event)) (analysis.Result, error) {
	return s.Pipeline.Run(ctx, s.Request(cfg), emit)
}

func (s *Session) hasCredential() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return strings.TrimSpace(s.credential) != ""
}
