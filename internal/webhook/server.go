package webhook

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"embyscan/internal/config"
	"embyscan/internal/logging"
	"embyscan/internal/notify"
)

const libraryNewDelay = 5 * time.Second

// Server receives Emby webhook notifications and relays them through
// the notifier.
type Server struct {
	mu        sync.Mutex
	bind      string
	token     string
	notifier  notify.Service
	coalescer *coalescer
	server    *http.Server
	logger    *slog.Logger
	running   bool
}

// NewServer builds the webhook server from configuration. The returned
// server is idle until Start is called.
func NewServer(cfg *config.Config, notifier notify.Service, logger *slog.Logger) *Server {
	if notifier == nil {
		notifier = notify.NewService(cfg)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		bind:     cfg.Webhook.Bind,
		token:    strings.TrimSpace(cfg.Webhook.Token),
		notifier: notifier,
		logger:   logger.With(logging.String(logging.FieldComponent, "webhook")),
	}
	s.coalescer = newCoalescer(libraryNewDelay, s.forward)
	return s
}

// Router exposes the HTTP routes, mostly for tests.
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/webhook", s.handleWebhook).Methods(http.MethodPost)
	router.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	return router
}

// Start binds the listener and begins serving in a background
// goroutine. A bind failure is returned to the caller.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return errors.New("webhook server already running")
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("webhook server listen on %s: %w", s.bind, err)
	}
	s.server = &http.Server{
		Handler:      s.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	s.running = true
	go func() {
		s.logger.Info("webhook server listening", logging.String("bind", s.bind))
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("webhook server failed", logging.Error(err))
		}
	}()
	return nil
}

// Stop shuts the server down and flushes coalesced announcements.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return nil
	}
	s.running = false
	s.coalescer.Stop()
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("webhook server shutdown: %w", err)
	}
	return nil
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	logger := s.logger.With(logging.String(logging.FieldRequestID, requestID))

	if s.token != "" && r.Header.Get("X-Webhook-Token") != s.token {
		logger.Warn("webhook rejected, bad token", logging.String("remote", r.RemoteAddr))
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}
	event, err := parsePayload(body)
	if err != nil {
		logger.Warn("webhook payload rejected", logging.Error(err))
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	logger.Info("webhook event received",
		logging.String(logging.FieldEvent, event.Event),
		logging.String("item", event.ItemName))

	if strings.Contains(event.Event, notify.EventLibraryNew) {
		s.coalescer.Offer(event)
	} else {
		s.forward(event)
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("success"))
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// forward pushes an event to the notifier with a delivery deadline so a
// slow Telegram API cannot wedge the coalescer goroutines.
func (s *Server) forward(event notify.LibraryEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.notifier.NotifyLibraryEvent(ctx, event); err != nil {
		s.logger.Warn("webhook notification failed",
			logging.String(logging.FieldEvent, event.Event),
			logging.Error(err))
	}
}
