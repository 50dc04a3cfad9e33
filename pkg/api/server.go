package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/specfleet/foreman/pkg/auth"
	"github.com/specfleet/foreman/pkg/config"
	"github.com/specfleet/foreman/pkg/events"
	"github.com/specfleet/foreman/pkg/ingest"
	"github.com/specfleet/foreman/pkg/kernel"
	"github.com/specfleet/foreman/pkg/log"
	"github.com/specfleet/foreman/pkg/metrics"
	"github.com/specfleet/foreman/pkg/storage"
	"github.com/specfleet/foreman/pkg/trigger"
)

// maxBodyBytes bounds inbound request bodies
const maxBodyBytes = 1 << 20

// Server is the HTTP surface of the plan scheduler
type Server struct {
	cfg      *config.Config
	store    storage.Store
	ingest   *ingest.Service
	kernel   *kernel.Kernel
	notifier *trigger.Notifier
	authn    *auth.Authenticator
	broker   *events.Broker
	router   chi.Router
	http     *http.Server
}

// NewServer wires the service components onto a router. The verifier is
// consulted only in identity_token auth mode and may be nil otherwise.
func NewServer(cfg *config.Config, store storage.Store, verifier auth.TokenVerifier) *Server {
	broker := events.NewBroker()

	s := &Server{
		cfg:      cfg,
		store:    store,
		ingest:   ingest.NewService(store),
		kernel:   kernel.New(store, broker),
		notifier: trigger.NewNotifier(cfg.ExecutionEnabled, cfg.ExecutionEndpoint),
		authn:    auth.New(cfg, verifier),
		broker:   broker,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", metrics.Handler())
	r.Post("/plans", s.handleCreatePlan)
	r.Get("/plans/{plan_id}", s.handleGetPlan)
	r.Post("/pubsub/spec-status", s.handleSpecStatus)

	s.router = r
	return s
}

// Router exposes the handler for tests
func (s *Server) Router() http.Handler {
	return s.router
}

// Start runs the HTTP server until Stop is called
func (s *Server) Start() error {
	s.broker.Start()
	go s.drainEvents()

	s.http = &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger := log.WithComponent("api")
	logger.Info().
		Str("addr", s.cfg.ListenAddr).
		Msg("HTTP API listening")
	return s.http.ListenAndServe()
}

// Stop gracefully shuts the server down
func (s *Server) Stop(ctx context.Context) error {
	s.broker.Stop()
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// drainEvents mirrors the operational event feed into the debug log. Metrics
// and leveled logging happen at the publishing sites; this stream exists so
// a single subscriber sees everything in order.
func (s *Server) drainEvents() {
	sub := s.broker.Subscribe()
	logger := log.WithComponent("events")
	for event := range sub {
		logger.Debug().
			Str("event_type", string(event.Type)).
			Str("plan_id", event.PlanID).
			Int("spec_index", event.SpecIndex).
			Str("message_id", event.MessageID).
			Msg(event.Message)
	}
}

func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// detailResponse is the error body shape shared by all endpoints
type detailResponse struct {
	Detail string `json:"detail"`
}
