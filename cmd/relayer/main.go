// Command relayer runs the shielded-pool transaction relayer service: it
// loads a TOML config, wires every internal component through relayctx, and
// serves the Public API until it receives a termination signal.
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

	"github.com/dando385/chain-relayer/internal/api"
	"github.com/dando385/chain-relayer/internal/config"
	"github.com/dando385/chain-relayer/internal/relayctx"
)

func main() {
	configPath := flag.String("config", "relayer.toml", "path to the relayer TOML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "relayer:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rc, err := relayctx.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("build relayer context: %w", err)
	}
	defer rc.Shutdown()

	server := api.New(rc)
	addr := fmt.Sprintf("%s:%d", cfg.Settings.Host, cfg.Settings.Port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: server,
	}

	errCh := make(chan error, 1)
	go func() {
		rc.Logger.Info("relayer listening", zap.String("addr", addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		rc.Logger.Info("shutting down")
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
