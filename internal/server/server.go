package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ifuryst/scriptforge/internal/config"
	"github.com/ifuryst/scriptforge/internal/metrics"
	"github.com/ifuryst/scriptforge/internal/models"
	"github.com/ifuryst/scriptforge/internal/script"
	"github.com/ifuryst/scriptforge/internal/service"
	"github.com/ifuryst/scriptforge/internal/workflow"
)

type Submitter interface {
	Submit(ctx context.Context, req service.SubmitRequest) (*service.SubmitResponse, error)
}

type StatusResolver interface {
	Resolve(ctx context.Context, jobID string) (*models.JobStatus, error)
}

type ScriptFetcher interface {
	Fetch(ctx context.Context, scriptID string) (*script.Script, error)
}

type HelpForwarder interface {
	Forward(ctx context.Context, req service.HelpRequest) (*service.HelpReply, error)
}

// Services are the request handlers' collaborators. Monitor and Dispatcher
// are optional and only take part in the lifecycle.
type Services struct {
	Gateway    Submitter
	Status     StatusResolver
	Scripts    ScriptFetcher
	Help       HelpForwarder
	Monitor    *service.StaleMonitor
	Dispatcher *workflow.Dispatcher
}

type Server struct {
	Config *config.Config
	Router *gin.Engine
	Logger *zap.Logger
	Server *http.Server

	services Services
	closers  []func()
}

// NewServer wires the production stack: the elevated database, the optional
// restricted pool, the workflow trigger and every service on top of them.
func NewServer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Server, error) {
	db, err := service.NewDatabase(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	pool, err := service.NewRestrictedPool(ctx, &cfg.RestrictedDatabase)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize restricted database: %w", err)
	}

	trigger, err := newTrigger(&cfg.Workflow)
	if err != nil {
		return nil, err
	}
	if trigger == nil {
		logger.Warn("No workflow endpoint configured, submissions will be rejected")
	}
	dispatcher := workflow.NewDispatcher(trigger, cfg.Workflow.Timeout, logger)

	submissions := service.NewSubmissionStore(db)
	scripts := service.NewScriptStore(db)

	var fallback service.StatusReader
	if pool != nil {
		fallback = service.NewRestrictedStatusReader(pool)
	}
	reader := service.NewFallbackStatusReader(service.NewElevatedStatusReader(submissions), fallback, logger)

	srv := New(cfg, logger, Services{
		Gateway:    service.NewGateway(submissions, dispatcher, cfg.RateLimit, cfg.Workflow.ETASeconds, logger),
		Status:     service.NewStatusResolver(reader),
		Scripts:    service.NewScriptFetcher(scripts, logger),
		Help:       service.NewHelpForwarder(cfg.Help.WebhookURL, logger),
		Monitor:    service.NewStaleMonitor(&cfg.Monitor, logger, submissions),
		Dispatcher: dispatcher,
	})

	if closer, ok := trigger.(io.Closer); ok {
		srv.closers = append(srv.closers, func() { _ = closer.Close() })
	}
	if pool != nil {
		srv.closers = append(srv.closers, pool.Close)
	}
	srv.closers = append(srv.closers, func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	return srv, nil
}

// New builds the router around already constructed services.
func New(cfg *config.Config, logger *zap.Logger, services Services) *Server {
	gin.SetMode(cfg.Server.Mode)

	srv := &Server{
		Config:   cfg,
		Router:   gin.New(),
		Logger:   logger,
		services: services,
	}

	srv.setupMiddleware()
	srv.setupRoutes()

	srv.Server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           srv.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return srv
}

func newTrigger(cfg *config.WorkflowConfig) (workflow.Trigger, error) {
	switch cfg.Transport {
	case "", "webhook":
		if cfg.WebhookURL == "" {
			return nil, nil
		}
		return workflow.NewWebhookTrigger(cfg.WebhookURL, cfg.Timeout), nil
	case "amqp":
		if cfg.AMQP.URL == "" {
			return nil, nil
		}
		return workflow.NewAMQPTrigger(cfg.AMQP.URL, cfg.AMQP.Exchange, cfg.AMQP.RoutingKey), nil
	default:
		return nil, fmt.Errorf("unknown workflow transport %q", cfg.Transport)
	}
}

func (s *Server) setupRoutes() {
	s.Router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Unix(),
		})
	})

	if s.Config.Metrics.Enabled {
		s.Router.GET(s.Config.Metrics.Path, gin.WrapH(metrics.Handler()))
	}

	// Served both at the root and under /api so either base URL works.
	for _, group := range []*gin.RouterGroup{&s.Router.RouterGroup, s.Router.Group("/api")} {
		group.POST("/submit", s.handleSubmit)
		group.GET("/status/:jobId", s.handleStatus)
		group.GET("/script/:scriptId", s.handleScript)
		group.POST("/help", s.handleHelp)
	}
}

// RunMonitor blocks until ctx ends or Shutdown stops the monitor.
func (s *Server) RunMonitor(ctx context.Context) error {
	if s.services.Monitor == nil {
		return nil
	}
	return s.services.Monitor.Run(ctx)
}

// Start blocks serving HTTP. It returns nil after a graceful Shutdown.
func (s *Server) Start(context.Context) error {
	s.Logger.Info("Starting HTTP server", zap.String("addr", s.Server.Addr))

	var err error
	if s.Config.Server.CertFile != "" && s.Config.Server.KeyFile != "" {
		err = s.Server.ListenAndServeTLS(s.Config.Server.CertFile, s.Config.Server.KeyFile)
	} else {
		err = s.Server.ListenAndServe()
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	// Stop the monitor first
	if s.services.Monitor != nil {
		s.services.Monitor.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var errs []error
	if err := s.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}

	// Let in-flight workflow triggers finish before the connections close.
	if s.services.Dispatcher != nil {
		if err := s.services.Dispatcher.Wait(shutdownCtx); err != nil {
			s.Logger.Warn("Workflow triggers still running at shutdown", zap.Error(err))
		}
	}

	for _, closeFn := range s.closers {
		closeFn()
	}

	s.Logger.Info("Server shutdown completed")
	return errors.Join(errs...)
}
