package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/scastellanos/solidapp/internal/handlers"
	"github.com/scastellanos/solidapp/internal/logger"
	"github.com/scastellanos/solidapp/internal/notify"
	"github.com/scastellanos/solidapp/internal/repository"
	"github.com/scastellanos/solidapp/internal/repository/postgres"
	"github.com/scastellanos/solidapp/internal/service/auth"
	"github.com/scastellanos/solidapp/internal/service/benefit"
	"github.com/scastellanos/solidapp/internal/service/campaign"
	"github.com/scastellanos/solidapp/internal/service/donation"
	"github.com/scastellanos/solidapp/internal/service/points"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler

	logger logger.Logger
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	l, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Connect to the database and run migrations
	pool, err := repository.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	storage := postgres.NewStorage(pool)
	notifier := notify.LogNotifier{Logger: l}

	// Initialize services
	authService, err := auth.NewService(auth.Config{Token: auth.TokenConfig{SecretKey: c.SecretKey}}, storage)
	if err != nil {
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}
	campaignService := campaign.NewService(storage)
	donationService := donation.NewService(storage, notifier, l)
	pointsService := points.NewService(storage)
	benefitService := benefit.NewService(storage, notifier, l)

	mux := handlers.NewRouter(
		authService,
		campaignService,
		donationService,
		pointsService,
		benefitService,
		l,
	)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    mux,
		logger:     l,
	}, nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); err == context.DeadlineExceeded {
			s.logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		s.logger.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	s.logger.Info("Starting server", "addr", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	return err
}
