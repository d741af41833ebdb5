// Package worker provides the HTTP service for the honeypot.
package worker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm/logger"

	"github.com/Mayank-Dandane/honeypot-api/internal/callback"
	"github.com/Mayank-Dandane/honeypot-api/internal/config"
	"github.com/Mayank-Dandane/honeypot-api/internal/db/gorm"
	"github.com/Mayank-Dandane/honeypot-api/internal/engagement"
	"github.com/Mayank-Dandane/honeypot-api/internal/worker/sdk"
	"github.com/Mayank-Dandane/honeypot-api/internal/worker/session"
	"github.com/Mayank-Dandane/honeypot-api/internal/worker/sse"
	"github.com/Mayank-Dandane/honeypot-api/internal/worker/turn"
)

// Service wires the turn pipeline to HTTP.
type Service struct {
	startTime      time.Time
	ctx            context.Context
	model          sdk.Model
	config         *config.Config
	router         *chi.Mux
	server         *http.Server
	sessionManager *session.Manager
	orchestrator   *turn.Orchestrator
	sseBroadcaster *sse.Broadcaster
	dispatcher     *callback.Dispatcher
	store          *gorm.Store
	reportStore    *gorm.ReportStore
	httpClient     *http.Client
	cancel         context.CancelFunc
	version        string
	ready          atomic.Bool
}

// Option configures a Service.
type Option func(*Service)

// WithModel injects the language model instead of building one from the config.
func WithModel(m sdk.Model) Option {
	return func(s *Service) { s.model = m }
}

// WithCallbackClient sets the HTTP client used to deliver reports.
func WithCallbackClient(c *http.Client) Option {
	return func(s *Service) { s.httpClient = c }
}

// NewService builds every component from cfg. Without a Gemini key the service runs on the
// rule classifier, the pattern extractor and the fallback catalog.
func NewService(version string, cfg *config.Config, opts ...Option) (*Service, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Service{
		version:   version,
		config:    cfg,
		ctx:       ctx,
		cancel:    cancel,
		startTime: time.Now(),
		router:    chi.NewRouter(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.initialize(); err != nil {
		cancel()
		if s.store != nil {
			_ = s.store.Close()
		}
		return nil, err
	}
	s.setupRoutes()
	s.server = &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func (s *Service) initialize() error {
	cfg := s.config

	catalog, err := engagement.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		return fmt.Errorf("load fallback catalog: %w", err)
	}
	replies := engagement.NewReplyPolicy(catalog, cfg.ReplyMinLength, cfg.ReplyMaxLength)

	if s.model == nil && cfg.GeminiAPIKey != "" {
		model, err := sdk.NewGeminiModel(s.ctx, cfg.GeminiAPIKey, cfg.Model)
		if err != nil {
			log.Warn().Err(err).Msg("Gemini client unavailable, running on rules and fallback replies")
		} else {
			s.model = model
			log.Info().Str("model", model.Name()).Msg("Gemini model configured")
		}
	}

	classifier := &sdk.HybridClassifier{}
	extractor := &sdk.HybridExtractor{}
	var persona sdk.PersonaGenerator
	if s.model != nil {
		classifier.LLM = &sdk.LLMClassifier{Model: s.model}
		extractor.LLM = &sdk.LLMExtractor{Model: s.model}
		persona = &sdk.LLMPersona{
			Model:         s.model,
			HistoryWindow: cfg.HistoryWindow,
			TokenBudget:   cfg.HistoryTokenBudget,
		}
	}

	var dispatcherOpts []callback.Option
	if s.httpClient != nil {
		dispatcherOpts = append(dispatcherOpts, callback.WithHTTPClient(s.httpClient))
	}
	s.dispatcher = callback.New(callback.Config{
		URL:        cfg.CallbackURL,
		APIKey:     cfg.CallbackAPIKey,
		Attempts:   cfg.CallbackAttempts,
		RetryDelay: cfg.CallbackRetryDelay(),
		Timeout:    cfg.CallbackTimeout(),
	}, dispatcherOpts...)
	if !s.dispatcher.Enabled() {
		log.Warn().Msg("HONEYPOT_CALLBACK_URL not set, final reports will only be archived")
	}

	if cfg.ArchiveDSN != "" {
		store, err := gorm.NewStore(gorm.Config{
			DSN:      cfg.ArchiveDSN,
			MaxConns: cfg.ArchiveMaxConns,
			LogLevel: logger.Silent,
		})
		if err != nil {
			return fmt.Errorf("open report archive: %w", err)
		}
		s.store = store
		s.reportStore = gorm.NewReportStore(store)
		log.Info().Str("dialect", store.Dialect()).Msg("Report archive enabled")
	}

	s.sessionManager = session.NewManager(
		session.WithIdleTimeout(cfg.SessionIdle()),
		session.WithCleanupInterval(cfg.CleanupInterval()),
	)
	s.sessionManager.SetOnSessionCreated(func(id string) {
		log.Debug().Str("sessionId", id).Msg("Session created")
	})
	s.sessionManager.SetOnSessionDeleted(func(id string) {
		log.Debug().Str("sessionId", id).Msg("Session removed")
	})
	s.sseBroadcaster = sse.NewBroadcaster()

	orchestratorOpts := []turn.Option{
		turn.WithClassifier(classifier),
		turn.WithExtractor(extractor),
		turn.WithReporter(s.dispatcher),
		turn.WithPublisher(s.sseBroadcaster),
		turn.WithReportPolicy(turn.ReportPolicy{MinTurns: cfg.ReportMinTurns, MaxTurns: cfg.ReportMaxTurns}),
		turn.WithTimeout(cfg.CollaboratorTimeout()),
		turn.WithConcurrency(cfg.AnalysisConcurrency),
	}
	if persona != nil {
		orchestratorOpts = append(orchestratorOpts, turn.WithPersona(persona))
	}
	if s.reportStore != nil {
		orchestratorOpts = append(orchestratorOpts, turn.WithArchive(s.reportStore))
	}
	s.orchestrator = turn.New(s.sessionManager, replies, orchestratorOpts...)
	return nil
}

func (s *Service) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/api/health", s.handleHealth)
	s.router.Get("/api/version", s.handleVersion)
	s.router.Get("/api/ready", s.handleReady)

	s.router.Group(func(r chi.Router) {
		r.Use(s.requireAPIKey)

		r.Post("/api/honeypot", s.handleTurn)
		r.Post("/api/message", s.handleTurn)

		r.Group(func(r chi.Router) {
			r.Use(s.requireReady)
			r.Get("/api/sessions", s.handleListSessions)
			r.Get("/api/sessions/{id}", s.handleGetSession)
			r.Get("/api/reports", s.handleListReports)
			r.Get("/api/events", s.sseBroadcaster.HandleSSE)
		})
	})
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Service) Handler() http.Handler {
	return s.router
}

// Start starts the sweep loop and serves HTTP until Shutdown is called.
func (s *Service) Start() error {
	s.sessionManager.Start()
	s.ready.Store(true)
	log.Info().
		Int("port", s.config.Port).
		Str("version", s.version).
		Bool("model", s.model != nil).
		Bool("archive", s.reportStore != nil).
		Msg("Honeypot listening")

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.ready.Store(false)
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests, waits for in-flight analysis within ctx, stops the sweep
// loop and closes the archive. Analysis still running when ctx expires is dropped.
func (s *Service) Shutdown(ctx context.Context) error {
	s.ready.Store(false)

	var errs []error
	if err := s.server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	if err := s.orchestrator.Wait(ctx); err != nil {
		log.Warn().Err(err).Msg("Background analysis still running at shutdown")
		errs = append(errs, err)
	}
	s.sessionManager.ShutdownAll(ctx)
	s.cancel()
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close archive: %w", err))
		}
	}
	return errors.Join(errs...)
}
