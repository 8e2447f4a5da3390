// Package main runs the development stand-in of the RentAIAgent backend
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"rentaiagent/api"
	"rentaiagent/core/catalog"
	"rentaiagent/internal/logging"
)

const version = "0.1.0"

func main() {
	addr := flag.String("addr", ":8080", "Server address")
	catalogPath := flag.String("catalog", "", "HCL product catalog (default built-in)")
	signingKey := flag.String("signing-key", os.Getenv("RENTAI_SIGNING_KEY"), "token signing key")
	failRegister := flag.Bool("fail-register", false, "answer every registration with 503")
	failEmail := flag.Bool("fail-email", false, "answer every email request with 503")
	logLevel := flag.String("log-level", "info", "log level")
	flag.Parse()

	logCfg := logging.DefaultConfig()
	logCfg.Level = *logLevel
	if err := logging.Initialize(logCfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
	}
	defer logging.Sync()

	cat := catalog.Default()
	if *catalogPath != "" {
		var err error
		if cat, err = catalog.LoadHCL(*catalogPath); err != nil {
			logging.Error("failed to load catalog", zap.Error(err))
			os.Exit(1)
		}
	}

	cfg := api.DefaultConfig()
	cfg.Address = *addr
	cfg.FailRegister = *failRegister
	cfg.FailEmail = *failEmail
	if *signingKey != "" {
		cfg.SigningKey = []byte(*signingKey)
	}
	server := api.NewServer(cfg, cat, logging.Logger)

	fmt.Printf("RentAIAgent stub backend v%s\n", version)
	fmt.Printf("   API:     http://localhost%s/api/v1\n", *addr)
	fmt.Printf("   Metrics: http://localhost%s/metrics\n", *addr)
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("server failed", zap.Error(err))
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logging.Error("shutdown failed", zap.Error(err))
		}
	}
}
