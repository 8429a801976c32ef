package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sandevgo/svim/internal/core"
	"github.com/sandevgo/svim/internal/service/agent"
	"github.com/sandevgo/svim/pkg/log"
)

const maxBodyBytes = 64 << 10

type Runner interface {
	Run(ctx context.Context, turn agent.Turn) (agent.Result, error)
}

// Server exposes the turn orchestrator as a JSON webhook.
type Server struct {
	runner  Runner
	metrics *Metrics
	http    *http.Server
}

func New(addr string, runner Runner, metrics *Metrics) *Server {
	s := &Server{runner: runner, metrics: metrics}
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		s.metrics.Handler().ServeHTTP(w, r)
	})
	r.Post("/v1/reply", s.handleReply)
	return r
}

type replyRequest struct {
	Message   string         `json:"message"`
	ClientID  string         `json:"clienteId"`
	SessionID string         `json:"sessionId"`
	History   []core.Message `json:"history,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok", "version": core.SvimVersion})
}

func (s *Server) handleReply(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	logger := log.FromCtx(ctx).With().Str("request_id", middleware.GetReqID(ctx)).Logger()
	ctx = logger.WithContext(ctx)

	var req replyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.metrics.ObserveTurn(OutcomeInvalid, time.Since(start))
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		s.metrics.ObserveTurn(OutcomeInvalid, time.Since(start))
		respondError(w, http.StatusBadRequest, "invalid_request", "message is required")
		return
	}

	result, err := s.runner.Run(ctx, agent.Turn{
		Message:   req.Message,
		ClientID:  req.ClientID,
		SessionID: req.SessionID,
		History:   req.History,
	})
	if err != nil {
		s.metrics.ObserveTurn(OutcomeError, time.Since(start))
		logger.Error().Err(err).Msg("turn failed")
		respondError(w, http.StatusInternalServerError, "turn_failed", "não foi possível processar a mensagem")
		return
	}

	outcome := OutcomeOK
	if result.RateLimited {
		outcome = OutcomeRateLimited
	}
	s.metrics.ObserveTurn(outcome, time.Since(start))
	s.countToolResults(result.Messages)

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) countToolResults(entries []agent.TranscriptEntry) {
	for _, e := range entries {
		if e.Type != core.RoleTool {
			continue
		}
		kind := ""
		if core.IsErrorPayload(e.Content) {
			var payload struct {
				Error string `json:"error"`
			}
			_ = json.Unmarshal([]byte(e.Content), &payload)
			kind = payload.Error
		}
		s.metrics.ToolResults.WithLabelValues(kind).Inc()
	}
}

// Start serves until ctx is cancelled. Requests inherit ctx values, including the logger.
func (s *Server) Start(ctx context.Context) error {
	s.http.BaseContext = func(net.Listener) context.Context { return ctx }

	errCh := make(chan error, 1)
	go func() {
		log.FromCtx(ctx).Info().Str("addr", s.http.Addr).Msg("http server listening")
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		return nil
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	return s.http.Shutdown(shutdownCtx)
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(w http.ResponseWriter, r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
