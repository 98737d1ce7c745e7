package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"inventario/internal/config"
	"inventario/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.MustNew(logger.Config{
		Level:       cfg.LogLevel,
		Environment: cfg.Env,
		ServiceName: "inventario",
	})
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := newService(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to start service", zap.Error(err))
	}

	if err := svc.consumeEvents(ctx); err != nil {
		log.Error("failed to start catalog event consumer", zap.Error(err))
	}
	go svc.sessions.Run(ctx, cfg.RefreshInterval)

	go func() {
		log.Info("starting server",
			zap.String("port", cfg.Port),
			zap.String("store", cfg.StoreDriver),
			zap.String("images", cfg.Images.Kind),
		)
		if err := svc.app.Listen(cfg.Port); err != nil {
			log.Error("server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server")

	if err := svc.app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error("error during fiber shutdown", zap.Error(err))
	}
	svc.close()
	log.Info("server gracefully stopped")
}
