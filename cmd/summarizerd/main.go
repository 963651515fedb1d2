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

	"github.com/charmbracelet/log"

	"github.com/glosignal/glosignal/internal/config"
	"github.com/glosignal/glosignal/internal/logging"
	"github.com/glosignal/glosignal/internal/server"
)

func main() {
	listen := flag.String("listen", "", "listen address (overrides config)")
	flag.Parse()

	logging.Init(log.InfoLevel)

	cfg := config.Load().Summarizer
	if *listen != "" {
		cfg.Listen = *listen
	}
	if cfg.APIKey == "" {
		fmt.Fprintln(os.Stderr, "summarizerd: ANTHROPIC_API_KEY is not set")
		os.Exit(1)
	}

	srv := server.New(cfg)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logging.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Stop(ctx)
	}()

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logging.Error("server failed", "error", err)
		os.Exit(1)
	}
}
