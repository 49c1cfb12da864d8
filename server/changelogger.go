package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/goto/salt/log"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/goto/changelogger/config"
	v1 "github.com/goto/changelogger/core/changelog/handler/v1beta1"
	"github.com/goto/changelogger/core/changelog/service"
	"github.com/goto/changelogger/internal/errors"
	"github.com/goto/changelogger/internal/store/postgres"
	changelogRepo "github.com/goto/changelogger/internal/store/postgres/changelog"
	"github.com/goto/changelogger/internal/telemetry"
	oHandler "github.com/goto/changelogger/server/handler/v1beta1"
)

const shutdownWait = 30 * time.Second

type setupFn func() error

type ChangeloggerServer struct {
	conf   *config.ServerConfig
	logger log.Logger

	dbPool *pgxpool.Pool

	httpAddr   string
	httpServer *http.Server

	cleanupFn []func()
}

func New(conf *config.ServerConfig) (*ChangeloggerServer, error) {
	server := &ChangeloggerServer{
		conf:     conf,
		httpAddr: fmt.Sprintf(":%d", conf.Serve.Port),
		logger:   NewLoggerFrom(conf.Log),
	}

	if err := conf.RequireDB(); err != nil {
		return server, errors.InvalidArgument("config", "serve.db: "+err.Error())
	}

	setupFns := []setupFn{
		server.setupTelemetry,
		server.setupDB,
		server.setupHandlers,
	}

	for _, fn := range setupFns {
		if err := fn(); err != nil {
			return server, err
		}
	}

	server.logger.Info("Starting Changelogger", "version", config.BuildVersion)
	server.startListening()

	return server, nil
}

func (s *ChangeloggerServer) setupTelemetry() error {
	teleShutdown, err := telemetry.Init(s.logger, s.conf.Telemetry)
	if err != nil {
		return err
	}

	s.cleanupFn = append(s.cleanupFn, teleShutdown)
	return nil
}

func (s *ChangeloggerServer) setupDB() error {
	err := postgres.Migrate(s.conf.Serve.DB.DSN)
	if err != nil {
		return fmt.Errorf("error initializing migration: %w", err)
	}

	s.dbPool, err = postgres.Open(s.conf.Serve.DB)
	if err != nil {
		return fmt.Errorf("postgres.Open: %w", err)
	}

	return nil
}

func (s *ChangeloggerServer) setupHandlers() error {
	host, err := NewGitHost(s.logger, s.conf.Git)
	if err != nil {
		return err
	}

	backend, err := NewTextGenerator(context.Background(), s.conf.Generator)
	if err != nil {
		return err
	}

	generator := service.NewChangelogGenerator(s.logger, backend)
	comparisonService := service.NewComparisonService(s.logger, host, generator, ComparisonConfigFrom(s.conf))

	repo := changelogRepo.NewRepository(s.dbPool)
	changelogService := service.NewChangelogService(s.logger, repo)

	s.httpServer = newHTTPServer(s.logger, s.httpAddr, s.conf.Serve.RequestTimeout,
		v1.NewChangelogHandler(s.logger, comparisonService, changelogService),
		oHandler.NewVersionHandler(s.logger, config.BuildVersion),
	)
	return nil
}

func (s *ChangeloggerServer) startListening() {
	go func() {
		s.logger.Info("Listening at", "address", s.httpAddr)
		if err := s.httpServer.ListenAndServe(); err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				s.logger.Fatal("server error", "error", err)
			}
		}
	}()
}

func (s *ChangeloggerServer) Shutdown() {
	s.logger.Warn("Shutting down server")
	if s.httpServer != nil {
		// Create a deadline to wait for server
		ctx, cancel := context.WithTimeout(context.Background(), shutdownWait)
		defer cancel()

		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("Error in http shutdown", "error", err.Error())
		}
	}

	for _, fn := range s.cleanupFn {
		fn()
	}

	if s.dbPool != nil {
		s.dbPool.Close()
	}

	s.logger.Info("Server shutdown complete")
}
