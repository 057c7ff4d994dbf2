package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/pesto/internal/config"
	dbRedis "github.com/kailas-cloud/pesto/internal/db/redis"
	"github.com/kailas-cloud/pesto/internal/domain/render"
	chiTransport "github.com/kailas-cloud/pesto/internal/transport/chi"
	"github.com/kailas-cloud/pesto/internal/transport/pesto"
	healthuc "github.com/kailas-cloud/pesto/internal/usecase/health"
	renderuc "github.com/kailas-cloud/pesto/internal/usecase/render"
	"github.com/kailas-cloud/pesto/internal/version"
)

func newServeCmd(a *app) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve filtering and render previews over HTTP",
		Long: `Starts an HTTP server with:
  POST /v1/filter   filter a list of documents
  POST /v1/render   render documents without writing them
  GET  /health
  GET  /metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("port") {
				a.cfg.HTTP.Port = port
			}
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "HTTP port")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	cfg := a.cfg

	tmplText := ""
	if cfg.Build.Template != "" {
		data, err := os.ReadFile(cfg.Build.Template)
		if err != nil {
			return fmt.Errorf("read template: %w", err)
		}
		tmplText = string(data)
	}
	fileName := cfg.Build.FileName
	if fileName == "" {
		fileName = render.DefaultFileName
	}

	server, err := chiTransport.NewServer(chiTransport.Defaults{
		Template: tmplText,
		Options: renderuc.Options{
			FileName:          fileName,
			FrontMatter:       cfg.Build.FrontMatterEnabled(),
			FrontMatterFields: cfg.Build.FrontMatterFields,
			Aliases:           cfg.Build.Aliases,
			Defaults:          cfg.Build.Defaults,
			Overrides:         cfg.Build.Overrides,
			KeepAnnotations:   cfg.Build.Annotations,
		},
	}, cfg.Auth.APIKeys, cfg.HTTP.MaxBodyBytes, a.logger)
	if err != nil {
		return err
	}

	health, closeHealth, err := a.healthChecks(ctx)
	if err != nil {
		return err
	}
	defer closeHealth()
	server.WithHealth(health)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Routes(),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	a.logger.Info("Starting pesto API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("addr", addr),
		zap.Bool("auth", hasKeys(cfg.Auth.APIKeys)),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	a.logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	a.logger.Info("Server stopped gracefully")
	return nil
}

// healthChecks registers the upstream Pesto server and, for the redis
// driver, the output store.
func (a *app) healthChecks(ctx context.Context) (*healthuc.Service, func(), error) {
	cfg := a.cfg
	h := healthuc.New(a.logger).WithCheck("upstream",
		pesto.NewClient(cfg.Server.URL, cfg.Server.AccessKey, time.Duration(cfg.Server.TimeoutSec)*time.Second, a.logger))

	if cfg.Output.Driver != config.DriverRedis {
		return h, func() {}, nil
	}
	rc := cfg.Output.Redis
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    rc.Addrs,
		Username: rc.Username,
		Password: rc.Password,
		DB:       rc.DB,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	if err := store.WaitForReady(ctx, time.Duration(rc.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, nil, err
	}
	return h.WithCheck("output", store), store.Close, nil
}

func hasKeys(keys []string) bool {
	for _, k := range keys {
		if strings.TrimSpace(k) != "" {
			return true
		}
	}
	return false
}
