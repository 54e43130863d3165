// Package server exposes the Telegram webhook over HTTP.
package server

import (
	"context"
	"crypto/subtle"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Veraticus/kopiyka/internal/model"
	"github.com/Veraticus/kopiyka/internal/telegram"
)

// AdminTokenHeader carries the shared secret for admin endpoints.
const AdminTokenHeader = "X-Admin-Token"

// WebhookSecretHeader carries the secret registered with setWebhook.
const WebhookSecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// Config holds the HTTP server settings.
type Config struct {
	Addr            string
	WebhookPath     string
	WebhookSecret   string // deliveries without it are rejected; unchecked when empty
	AdminToken      string // admin endpoints are disabled when empty
	WebhookURL      string // registered by POST /admin/webhook when the request names none
	// TLS, when set, makes the server terminate HTTPS itself.
	TLS             *tls.Config
	ReadTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		WebhookPath:     "/webhook",
		ReadTimeout:     30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// UpdateHandler processes one inbound message.
type UpdateHandler interface {
	Handle(ctx context.Context, in model.Inbound)
}

// WebhookRegistrar points the chat platform at a webhook URL.
type WebhookRegistrar interface {
	SetWebhook(ctx context.Context, url string) error
}

// Server routes webhook deliveries to the bot.
type Server struct {
	handler UpdateHandler
	admin   WebhookRegistrar
	logger  *slog.Logger
	router  chi.Router
	config  Config
}

// New creates a server. admin may be nil, which disables webhook registration.
func New(config Config, handler UpdateHandler, admin WebhookRegistrar, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if config.WebhookPath == "" {
		config.WebhookPath = DefaultConfig().WebhookPath
	}

	s := &Server{
		handler: handler,
		admin:   admin,
		logger:  logger,
		config:  config,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)

	r.With(s.requireWebhookSecret).Post(s.config.WebhookPath, s.handleWebhook)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeText(w, http.StatusOK, "ok")
	})

	if s.config.AdminToken != "" && s.admin != nil {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(middleware.Recoverer)
			admin.Use(s.requireAdminToken)
			admin.Post("/webhook", s.handleSetWebhook)
		})
	}
	return r
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: s.config.ReadTimeout,
		TLSConfig:         s.config.TLS,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.config.Addr, "webhook_path", s.config.WebhookPath, "tls", srv.TLSConfig != nil)
		if srv.TLSConfig != nil {
			errCh <- srv.ListenAndServeTLS("", "")
			return
		}
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// handleWebhook always acknowledges the delivery. Telegram redelivers
// anything that is not a 200, and a failing message would loop forever.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	defer writeText(w, http.StatusOK, "ok")
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("panic while handling update", "panic", rec, "request_id", middleware.GetReqID(r.Context()))
		}
	}()

	update, err := telegram.DecodeUpdate(r.Body)
	if err != nil {
		s.logger.Warn("ignoring malformed update", "error", err)
		return
	}

	in, ok := telegram.ToInbound(update)
	if !ok {
		s.logger.Debug("ignoring update without message", "update_id", update.UpdateID)
		return
	}

	// Handling runs to completion even if Telegram hangs up.
	s.handler.Handle(context.WithoutCancel(r.Context()), in)
}

type setWebhookRequest struct {
	URL string `json:"url"`
}

type setWebhookResponse struct {
	URL   string `json:"url,omitempty"`
	Error string `json:"error,omitempty"`
	OK    bool   `json:"ok"`
}

func (s *Server) handleSetWebhook(w http.ResponseWriter, r *http.Request) {
	var req setWebhookRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, setWebhookResponse{Error: "invalid JSON body"})
			return
		}
	}

	url := req.URL
	if url == "" {
		url = s.config.WebhookURL
	}
	if url == "" {
		writeJSON(w, http.StatusBadRequest, setWebhookResponse{Error: "webhook url is not configured"})
		return
	}

	if err := s.admin.SetWebhook(r.Context(), url); err != nil {
		s.logger.Error("failed to register webhook", "error", err, "url", url)
		writeJSON(w, http.StatusBadGateway, setWebhookResponse{Error: err.Error()})
		return
	}

	s.logger.Info("webhook registered", "url", url)
	writeJSON(w, http.StatusOK, setWebhookResponse{OK: true, URL: url})
}

func (s *Server) requireAdminToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := r.Header.Get(AdminTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.config.AdminToken)) != 1 {
			writeJSON(w, http.StatusUnauthorized, setWebhookResponse{Error: "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireWebhookSecret(next http.Handler) http.Handler {
	if s.config.WebhookSecret == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := r.Header.Get(WebhookSecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.config.WebhookSecret)) != 1 {
			s.logger.Warn("rejected webhook delivery with bad secret",
				"remote_addr", r.RemoteAddr,
				"request_id", middleware.GetReqID(r.Context()))
			writeText(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
