package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/support-triage-poc/server/internal/agent/graph"
	"github.com/support-triage-poc/server/internal/agent/model"
	"github.com/support-triage-poc/server/internal/agent/repo"
	errx "github.com/support-triage-poc/server/internal/core/error"
	"github.com/support-triage-poc/server/internal/dashboard"
	"github.com/support-triage-poc/server/internal/metrics"
	"github.com/support-triage-poc/server/internal/signals"
	logx "github.com/support-triage-poc/server/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the triage dashboard",
	Long: `Serves the triage dashboard and its JSON API. Audit entries go to Redis
when REDIS_URL is set and to process memory otherwise.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if appCfg.env().IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	runner, err := graph.BuildTriageGraph(ctx, appCfg.graphConfig(offline))
	if err != nil {
		return err
	}

	audit, closeAudit, err := newAuditRepository(ctx, appCfg)
	if err != nil {
		return err
	}
	defer closeAudit()

	sig, err := signals.Generate(time.Now())
	if err != nil {
		return err
	}

	session := dashboard.NewSession(runner, sig, audit, metrics.NewMetrics(prometheus.DefaultRegisterer))
	router := dashboard.NewRouter(dashboard.NewHandler(session), prometheus.DefaultGatherer)
	srv := dashboard.NewHTTPServer(appCfg.Server.Addr, router, appCfg.Diagnosis.Timeout+15*time.Second)

	errCh := make(chan error, 1)
	go func() {
		logx.Info().Str("addr", srv.Addr).Bool("offline", offline).Msg("Dashboard listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logx.Info().Msg("Shutting down dashboard")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logx.Error().Err(err).Msg("Server forced to shutdown")
		return err
	}
	return nil
}

func newAuditRepository(ctx context.Context, cfg *AppConfig) (model.AuditRepository, func(), error) {
	if !cfg.Redis.Enabled() {
		logx.Warn().Msg("REDIS_URL not set; audit log is kept in memory")
		return repo.NewMemoryAuditRepository(), func() {}, nil
	}

	rdb, err := cfg.Redis.New(ctx)
	if err != nil {
		return nil, nil, errx.WrapRedis(err)
	}
	logx.Info().Str("key", cfg.Audit.Key).Msg("Connected to Redis audit log")
	closeFn := func() {
		if err := rdb.Close(); err != nil {
			logx.Warn().Err(err).Msg("failed to close Redis client")
		}
	}
	return repo.NewRedisAuditRepository(rdb, cfg.Audit), closeFn, nil
}
