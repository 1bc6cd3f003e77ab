// internal/server/server.go
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/law-makers/screengrab/internal/agent"
	"github.com/law-makers/screengrab/internal/engine"
	"github.com/law-makers/screengrab/pkg/models"
	"github.com/rs/zerolog/log"
)

// Options configures the agent HTTP server
type Options struct {
	AllowedOrigins []string
}

// Server exposes one Agent over HTTP so a trigger in another process can
// drive it. Routes mirror the agent actions one to one.
type Server struct {
	agent  *agent.Agent
	router *chi.Mux
}

// New creates a Server for a
func New(a *agent.Agent, opts Options) *Server {
	s := &Server{agent: a, router: chi.NewRouter()}

	s.router.Use(middleware.RealIP)
	s.router.Use(RequestContext)
	s.router.Use(Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(CORS(opts.AllowedOrigins))

	s.router.Get("/ping", s.action(models.ActionPing))
	s.router.Get("/meta", s.action(models.ActionGetMeta))
	s.router.Post("/scrape", s.handleScrape)
	s.router.Post("/abort", s.action(models.ActionAbortScrape))
	s.router.Get("/storage", s.action(models.ActionCheckStorage))
	s.router.Get("/progress", s.handleProgress)
	s.router.Post("/message", s.handleMessage)

	return s
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("Agent listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		log.Info().Msg("Shutting down agent server")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) action(action models.Action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeResponse(w, s.agent.Handle(r.Context(), models.Message{Action: action}))
	}
}

// handleScrape runs the scan detached from the request so a dropped
// connection does not abort it; only abort_scrape does
func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	ctx := context.WithoutCancel(r.Context())
	writeResponse(w, s.agent.StartScrape(ctx))
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	ev, ok := s.agent.LastProgress()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

// handleMessage accepts a raw {"action": ...} message
func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var msg models.Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		writeResponse(w, models.Response{
			Status:  models.StatusError,
			Message: "invalid message body",
			Code:    string(engine.ErrCodeValidation),
		})
		return
	}
	if msg.Action == models.ActionStartScrape {
		s.handleScrape(w, r)
		return
	}
	writeResponse(w, s.agent.Handle(r.Context(), msg))
}

func writeResponse(w http.ResponseWriter, resp models.Response) {
	writeJSON(w, statusFor(resp), resp)
}

func statusFor(resp models.Response) int {
	if resp.Status != models.StatusError {
		return http.StatusOK
	}
	switch engine.ErrorCode(resp.Code) {
	case engine.ErrCodeBusy:
		return http.StatusConflict
	case engine.ErrCodeValidation:
		return http.StatusBadRequest
	case engine.ErrCodeNoName, engine.ErrCodeNoScreens, engine.ErrCodeInvalidPage:
		return http.StatusUnprocessableEntity
	case engine.ErrCodeQuota:
		return http.StatusInsufficientStorage
	case engine.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("Failed to write response")
	}
}
