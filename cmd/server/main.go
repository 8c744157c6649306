package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/bulknepal/bulknepal/internal/auth"
	"github.com/bulknepal/bulknepal/internal/config"
	"github.com/bulknepal/bulknepal/internal/nepse"
	"github.com/bulknepal/bulknepal/internal/poller"
	"github.com/bulknepal/bulknepal/internal/server"
	"github.com/bulknepal/bulknepal/internal/stream"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", zap.Error(err))
		return 1
	}

	logger.Info("configuration loaded",
		zap.String("port", cfg.Server.Port),
		zap.String("nepseBaseURL", cfg.Server.NepseBaseURL),
		zap.Bool("streamEnabled", cfg.Server.StreamEnabled),
		zap.Int("sessionTTLDays", cfg.Auth.SessionTTLDays),
	)

	if cfg.Auth.JWTSecret == "" {
		logger.Warn("auth.jwt_secret not set, sessions will not survive restarts")
		cfg.Auth.JWTSecret = "change_this_secret"
	}

	markets := nepse.NewClient(cfg.Server.NepseBaseURL, cfg.Server.Timeout(), logger)
	verifier := auth.NewVerifier(cfg.Auth.TokenInfoURL, cfg.Auth.GoogleAudience, logger)
	signer := auth.NewSigner(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL())
	limiter := rate.NewLimiter(rate.Limit(cfg.Server.RatePerSecond), cfg.Server.RateBurst)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// WebSocket stream (optional): the server runs its own synchronizer
	// against the upstream so stream subscribers never trigger extra fetches.
	var hub *stream.Hub
	if cfg.Server.StreamEnabled {
		sync := poller.New(markets, cfg.Client.StatusInterval(), cfg.Client.MarketInterval(), logger)
		go sync.Run(ctx)

		hub = stream.NewHub(sync, logger)
		go hub.Run(ctx)

		logger.Info("market stream enabled",
			zap.Duration("statusInterval", cfg.Client.StatusInterval()),
			zap.Duration("marketInterval", cfg.Client.MarketInterval()),
		)
	}

	srv := server.NewServer(markets, verifier, signer, hub, limiter, logger)
	router := server.NewRouter(srv, logger)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
		return 1
	}

	logger.Info("server stopped")
	return 0
}
