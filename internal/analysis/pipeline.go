// Package analysis runs one streaming analysis at a time: optional query
// translation, prompt assembly, then chunk-by-chunk forwarding of the
// model's answer as events.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"chat-insights-go/internal/backend"
	"chat-insights-go/internal/logger"
	"chat-insights-go/internal/ratelimit"
	"chat-insights-go/internal/translate"
	"chat-insights-go/internal/types"
)

const DefaultWorkingLanguage = "English"

// Request carries everything one run needs, copied out of the session.
type Request struct {
	Config     types.AnalysisConfig
	Model      types.ModelDescriptor
	Tier       string
	Transcript string
	Range      types.TimeRange
	GroupAName string
	GroupBName string
	GroupA     []string
	GroupB     []string
}

type Pipeline struct {
	backend    backend.Backend
	translator *translate.Translator
	limiter    *ratelimit.Limiter
	working    string
	log        *logrus.Entry

	active atomic.Bool
}

type Option func(*Pipeline)

// WithWorkingLanguage sets the language queries are translated into.
func WithWorkingLanguage(lang string) Option {
	return func(p *Pipeline) {
		if strings.TrimSpace(lang) != "" {
			p.working = lang
		}
	}
}

func New(b backend.Backend, limiter *ratelimit.Limiter, opts ...Option) *Pipeline {
	if limiter == nil {
		limiter = ratelimit.New(nil)
	}
	p := &Pipeline{
		backend:    b,
		translator: translate.New(b),
		limiter:    limiter,
		working:    DefaultWorkingLanguage,
		log:        logger.New().WithField("component", "analysis"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Active reports whether a run is in progress.
func (p *Pipeline) Active() bool {
	return p.active.Load()
}

func (p *Pipeline) WorkingLanguage() string {
	return p.working
}

// admit claims the pipeline for req or explains why it cannot run. Nothing
// here touches the network.
func (p *Pipeline) admit(req Request) (*ratelimit.Reservation, error) {
	if !p.active.CompareAndSwap(false, true) {
		return nil, types.ErrBusy
	}
	if req.Model.IsZero() {
		p.active.Store(false)
		return nil, types.ErrNoModelSelected
	}
	if strings.TrimSpace(req.Transcript) == "" {
		p.active.Store(false)
		return nil, types.ErrNoTranscript
	}
	d, slot := p.limiter.Claim(req.Model.DisplayLabel, req.Tier)
	if d.Limited {
		p.active.Store(false)
		return nil, &types.RateLimitedError{Model: req.Model.DisplayLabel, Wait: d.Wait}
	}
	return slot, nil
}

// Run executes req on the calling goroutine, handing each event to emit.
func (p *Pipeline) Run(ctx context.Context, req Request, emit func(Event)) (Result, error) {
	slot, err := p.admit(req)
	if err != nil {
		return Result{}, err
	}
	defer p.active.Store(false)
	return p.execute(ctx, req, slot, emit), nil
}

// Start executes req on a new goroutine. Events arrive on the returned
// run's Events channel, which is closed after the last one.
func (p *Pipeline) Start(ctx context.Context, req Request) (*Run, error) {
	slot, err := p.admit(req)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	r := &Run{
		ID:     uuid.NewString(),
		events: make(chan Event, 32),
		done:   make(chan struct{}),
		cancel: cancel,
	}
	go func() {
		defer cancel()
		res := p.execute(ctx, req, slot, func(ev Event) { r.events <- ev })
		r.result = res
		p.active.Store(false)
		close(r.events)
		close(r.done)
	}()
	return r, nil
}

// execute drives one admitted run. slot is handed back to the limiter when
// the run ends before the model was asked for the analysis.
func (p *Pipeline) execute(ctx context.Context, req Request, slot *ratelimit.Reservation, emit func(Event)) Result {
	start := time.Now()
	log := p.log.WithFields(logrus.Fields{"model": req.Model.InternalID, "language": req.Config.Language})
	log.Info("analysis started")

	var out strings.Builder
	finish := func(outcome Outcome, err error) Result {
		res := Result{Outcome: outcome, Output: out.String(), Elapsed: time.Since(start), Err: err}
		entry := log.WithFields(logrus.Fields{"outcome": outcome, "duration_ms": res.Elapsed.Milliseconds()})
		if err != nil {
			entry.WithError(err).Warn("analysis finished")
		} else {
			entry.Info("analysis finished")
		}
		return res
	}
	fail := func(err error) Result {
		if ctx.Err() != nil {
			emit(Cancelled())
			return finish(OutcomeCancelled, nil)
		}
		emit(Failed(err.Error()))
		return finish(OutcomeFailed, err)
	}

	query := req.Config.UserQuery
	if needsTranslation(req.Config.Language, p.working) {
		emit(Status(fmt.Sprintf("Translating query to %s...", p.working)))
		translated, err := p.translator.Translate(ctx, query, p.working, req.Model.InternalID)
		if err != nil {
			slot.Release()
			return fail(err)
		}
		query = translated
		emit(Status("Translation complete"))
	}

	emit(Status("Preparing prompt..."))
	prompt := BuildPrompt(req, query)
	emit(Status("Sending to model..."))

	stream, err := p.backend.GenerateStream(ctx, req.Model.InternalID, prompt)
	if err != nil {
		return fail(&types.StreamError{Model: req.Model.InternalID, Err: err})
	}
	defer stream.Close()

	first := true
	for {
		if ctx.Err() != nil {
			emit(Cancelled())
			return finish(OutcomeCancelled, nil)
		}
		chunk, err := stream.Next(ctx)
		if errors.Is(err, io.EOF) {
			return finish(OutcomeCompleted, nil)
		}
		if err != nil {
			return fail(&types.StreamError{Model: req.Model.InternalID, Err: err})
		}
		if ctx.Err() != nil {
			emit(Cancelled())
			return finish(OutcomeCancelled, nil)
		}
		switch {
		case chunk.Text != "":
			out.WriteString(chunk.Text)
			emit(Content(chunk.Text))
		case first:
			reason := chunk.FinishReason
			if reason == "" {
				reason = "UNKNOWN"
			}
			emit(Status(fmt.Sprintf("Model ended (%s)", reason)))
		}
		first = false
	}
}

// Run is a handle on an analysis started with Pipeline.Start.
type Run struct {
	ID string

	events chan Event
	done   chan struct{}
	cancel context.CancelFunc
	once   sync.Once
	result Result
}

func (r *Run) Events() <-chan Event {
	return r.events
}

// Cancel asks the run to stop at the next chunk boundary.
func (r *Run) Cancel() {
	r.once.Do(r.cancel)
}

// Done is closed once the run has finished and the pipeline is idle again.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the run finishes. Events not yet received are discarded.
func (r *Run) Wait() Result {
	for range r.events {
	}
	<-r.done
	return r.result
}
