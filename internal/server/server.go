// Package server exposes a session over HTTP, with analysis streamed over a
// websocket.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"chat-insights-go/internal/history"
	"chat-insights-go/internal/logger"
	"chat-insights-go/internal/prompts"
	"chat-insights-go/internal/session"
	"chat-insights-go/internal/teams"
	"chat-insights-go/internal/types"
)

var maxTranscriptBytes int64 = 32 << 20

type Server struct {
	sess      *session.Session
	prompts   *prompts.Library
	history   *history.Store
	snapshots *session.SnapshotStore
	log       *logrus.Entry
	upgrader  websocket.Upgrader
}

type Option func(*Server)

func WithPrompts(l *prompts.Library) Option { return func(s *Server) { s.prompts = l } }

// WithHistory records every finished analysis in h.
func WithHistory(h *history.Store) Option { return func(s *Server) { s.history = h } }

// WithSnapshots saves the session after each state change.
func WithSnapshots(st *session.SnapshotStore) Option { return func(s *Server) { s.snapshots = st } }

func New(sess *session.Session, opts ...Option) *Server {
	s := &Server{
		sess: sess,
		log:  logger.New().WithField("component", "server"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "ok")
	})
	mux.HandleFunc("POST /auth", s.handleAuth)
	mux.HandleFunc("GET /models", s.handleModels)
	mux.HandleFunc("POST /models/select", s.handleSelectModels)
	mux.HandleFunc("POST /transcript", s.handleTranscript)
	mux.HandleFunc("POST /participants", s.handleParticipants)
	mux.HandleFunc("GET /teams", s.handleTeams)
	mux.HandleFunc("POST /teams/assign", s.handleAssign)
	mux.HandleFunc("POST /teams/unassign", s.handleUnassign)
	mux.HandleFunc("GET /prompts", s.handlePrompts)
	mux.HandleFunc("GET /history", s.handleHistory)
	mux.HandleFunc("GET /ws/analyze", s.handleAnalyzeWS)
	return mux
}

type authRequest struct {
	APIKey string `json:"api_key"`
	Tier   string `json:"tier"`
}

func (s *Server) handleAuth(w http.ResponseWriter, r *http.Request) {
	var req authRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Tier != "" {
		s.sess.SetTier(req.Tier)
	}
	models, err := s.sess.Authenticate(r.Context(), req.APIKey)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.saveSnapshot()
	writeJSON(w, http.StatusOK, map[string]any{"tier": s.sess.Tier(), "models": models})
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"models": s.sess.Catalog.Models()}
	if m, ok := s.sess.Catalog.Selected(); ok {
		resp["analysis_model"] = m.DisplayLabel
	}
	if m, ok := s.sess.ParserModel(); ok {
		resp["parser_model"] = m.DisplayLabel
	}
	writeJSON(w, http.StatusOK, resp)
}

type selectRequest struct {
	AnalysisModel string `json:"analysis_model"`
	ParserModel   string `json:"parser_model"`
}

func (s *Server) handleSelectModels(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if !decode(w, r, &req) {
		return
	}
	if req.AnalysisModel != "" {
		if err := s.sess.Catalog.Select(req.AnalysisModel); err != nil {
			s.fail(w, r, err)
			return
		}
	}
	if req.ParserModel != "" {
		if err := s.sess.SetParserModel(req.ParserModel); err != nil {
			s.fail(w, r, err)
			return
		}
	}
	s.saveSnapshot()
	s.handleModels(w, r)
}

// handleTranscript takes the chat export as the raw request body.
func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxTranscriptBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			logger.New().WithRequest(r).WithField("limit", tooLarge.Limit).Warn("transcript upload too large")
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{
				"error": fmt.Sprintf("chat log exceeds %d bytes", tooLarge.Limit),
			})
			return
		}
		s.fail(w, r, &types.IOError{Op: "read", Path: "request body", Err: err})
		return
	}
	if strings.TrimSpace(string(body)) == "" {
		s.fail(w, r, types.ErrNoTranscript)
		return
	}
	source := r.URL.Query().Get("source")
	if source == "" {
		source = "upload"
	}
	s.sess.Transcript.LoadText(source, string(body))
	rng, ok := s.sess.Transcript.TimeRange()
	writeJSON(w, http.StatusOK, map[string]any{
		"source":    source,
		"bytes":     len(body),
		"has_range": ok,
		"start":     rng.FormatStart(),
		"end":       rng.FormatEnd(),
	})
}

func (s *Server) handleParticipants(w http.ResponseWriter, r *http.Request) {
	if _, err := s.sess.ParseParticipants(r.Context()); err != nil {
		s.fail(w, r, err)
		return
	}
	s.saveSnapshot()
	writeJSON(w, http.StatusOK, s.sess.Teams.View())
}

func (s *Server) handleTeams(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sess.Teams.View())
}

type assignRequest struct {
	Names []string `json:"names"`
	Group string   `json:"group"`
}

func (s *Server) handleAssign(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if !decode(w, r, &req) {
		return
	}
	group, err := parseGroup(req.Group)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.sess.Teams.Assign(req.Names, group)
	s.saveSnapshot()
	writeJSON(w, http.StatusOK, s.sess.Teams.View())
}

func (s *Server) handleUnassign(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if !decode(w, r, &req) {
		return
	}
	s.sess.Teams.Unassign(req.Names)
	s.saveSnapshot()
	writeJSON(w, http.StatusOK, s.sess.Teams.View())
}

func parseGroup(g string) (teams.Group, error) {
	switch strings.ToUpper(strings.TrimSpace(g)) {
	case "A", "1":
		return teams.GroupA, nil
	case "B", "2":
		return teams.GroupB, nil
	default:
		return teams.GroupA, fmt.Errorf("group must be A or B, got %q", g)
	}
}

func (s *Server) handlePrompts(w http.ResponseWriter, r *http.Request) {
	if s.prompts == nil {
		writeJSON(w, http.StatusOK, []prompts.Prompt{})
		return
	}
	writeJSON(w, http.StatusOK, s.prompts.List())
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeJSON(w, http.StatusOK, []history.Entry{})
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "limit must be a number", http.StatusBadRequest)
			return
		}
		limit = n
	}
	entries, err := s.history.List(r.Context(), limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) saveSnapshot() {
	if s.snapshots == nil {
		return
	}
	if _, err := s.snapshots.Save(s.sess.Snapshot()); err != nil {
		s.log.WithError(err).Warn("failed to save session snapshot")
	}
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	var (
		authErr    *types.AuthError
		rateErr    *types.RateLimitedError
		fetchErr   *types.FetchError
		extractErr *types.ExtractError
		trErr      *types.TranslateError
	)
	switch {
	case errors.As(err, &rateErr):
		return http.StatusTooManyRequests
	case errors.As(err, &authErr), errors.Is(err, types.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, types.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, types.ErrMissingInput), errors.Is(err, types.ErrEmptyInput):
		return http.StatusBadRequest
	case errors.As(err, &fetchErr), errors.As(err, &extractErr), errors.As(err, &trErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	var rateErr *types.RateLimitedError
	if errors.As(err, &rateErr) {
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(rateErr.Wait.Seconds()))))
	}
	entry := logger.New().WithRequest(r).WithError(err).WithField("status", status)
	if status >= 500 {
		entry.Error("request failed")
	} else {
		entry.Warn("request refused")
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, fmt.Sprintf("invalid JSON body: %v", err), http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
