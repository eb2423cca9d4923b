package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"chat-insights-go/internal/analysis"
	"chat-insights-go/internal/history"
	"chat-insights-go/internal/logger"
	"chat-insights-go/internal/types"
)

// client -> server
type wsRequest struct {
	Type             string `json:"type"` // "start" or "cancel"
	PromptID         string `json:"prompt_id,omitempty"`
	BaseInstructions string `json:"base_instructions,omitempty"`
	UserQuery        string `json:"user_query,omitempty"`
	Language         string `json:"language,omitempty"`
}

// server -> client
type wsReply struct {
	Type        string          `json:"type"` // "event", "done" or "error"
	Event       *analysis.Event `json:"event,omitempty"`
	Outcome     string          `json:"outcome,omitempty"`
	ElapsedMS   int64           `json:"elapsed_ms,omitempty"`
	HistoryID   int64           `json:"history_id,omitempty"`
	Error       string          `json:"error,omitempty"`
	WaitSeconds float64         `json:"wait_seconds,omitempty"`
}

// handleAnalyzeWS runs one analysis per connection. The first message must
// be a start request; a later {"type":"cancel"} stops the run at the next
// chunk.
func (s *Server) handleAnalyzeWS(w http.ResponseWriter, r *http.Request) {
	reqLog := logger.New().WithRequest(r).WithField("handler", "ws-analyze")
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		reqLog.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	var start wsRequest
	if err := conn.ReadJSON(&start); err != nil {
		reqLog.WithError(err).Warn("failed to read start message")
		return
	}
	if start.Type != "start" {
		_ = conn.WriteJSON(wsReply{Type: "error", Error: `first message must have type "start"`})
		return
	}
	cfg, err := s.analysisConfig(start)
	if err != nil {
		_ = conn.WriteJSON(wsReply{Type: "error", Error: err.Error()})
		return
	}

	began := time.Now()
	run, err := s.sess.StartAnalysis(context.Background(), cfg)
	if err != nil {
		reply := wsReply{Type: "error", Error: err.Error()}
		var rateErr *types.RateLimitedError
		if errors.As(err, &rateErr) {
			reply.WaitSeconds = rateErr.Wait.Seconds()
		}
		reqLog.WithError(err).Warn("analysis refused")
		_ = conn.WriteJSON(reply)
		return
	}
	reqLog = reqLog.WithField("run_id", run.ID)

	// reader: cancel requests, or the client going away
	go func() {
		for {
			var msg wsRequest
			if err := conn.ReadJSON(&msg); err != nil {
				run.Cancel()
				return
			}
			if msg.Type == "cancel" {
				reqLog.Info("cancel requested")
				run.Cancel()
			}
		}
	}()

	for ev := range run.Events() {
		ev := ev
		if err := conn.WriteJSON(wsReply{Type: "event", Event: &ev}); err != nil {
			reqLog.WithError(err).Warn("failed to write event")
			run.Cancel()
		}
	}
	res := run.Wait()
	done := wsReply{Type: "done", Outcome: string(res.Outcome), ElapsedMS: res.Elapsed.Milliseconds()}
	if id, ok := s.record(context.Background(), began, cfg, res); ok {
		done.HistoryID = id
	}
	if err := conn.WriteJSON(done); err != nil {
		reqLog.WithError(err).Warn("failed to write completion")
	}
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// analysisConfig resolves a start request against the prompt library. Fields
// set on the request win over the stored prompt.
func (s *Server) analysisConfig(req wsRequest) (types.AnalysisConfig, error) {
	var cfg types.AnalysisConfig
	if req.PromptID != "" && s.prompts != nil {
		p, err := s.prompts.Get(req.PromptID)
		if err != nil {
			return cfg, err
		}
		cfg = p.Config()
	}
	if req.BaseInstructions != "" {
		cfg.BaseInstructions = req.BaseInstructions
	}
	if req.UserQuery != "" {
		cfg.UserQuery = req.UserQuery
	}
	if req.Language != "" {
		cfg.Language = req.Language
	}
	return cfg, nil
}

func (s *Server) record(ctx context.Context, began time.Time, cfg types.AnalysisConfig, res analysis.Result) (int64, bool) {
	if s.history == nil {
		return 0, false
	}
	model, _ := s.sess.Catalog.Selected()
	id, err := s.history.Add(ctx, history.Entry{
		StartedAt:  began,
		Model:      model.DisplayLabel,
		Language:   cfg.Language,
		Query:      cfg.UserQuery,
		Outcome:    string(res.Outcome),
		Output:     res.Output,
		DurationMS: res.Elapsed.Milliseconds(),
	})
	if err != nil {
		s.log.WithError(err).Warn("failed to record analysis history")
		return 0, false
	}
	return id, true
}
