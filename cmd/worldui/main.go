package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/and161185/terraria-exporter/internal/admin"
	"github.com/and161185/terraria-exporter/internal/buildinfo"
	"github.com/and161185/terraria-exporter/internal/config"
	"github.com/and161185/terraria-exporter/internal/kubectl"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.NewWorldUIConfig()
	logger := cfg.Logger
	defer func() { _ = logger.Sync() }()
	buildinfo.LogBuildInfo(logger, "worldui")

	logger.Infof("World UI config: Addr=%s, Namespace=%s, Deployment=%s, StaticDir=%q, RepoRoot=%q, PrometheusURLs=%v",
		cfg.Addr,
		cfg.Namespace,
		cfg.Deployment,
		cfg.StaticDir,
		cfg.RepoRoot,
		cfg.PrometheusURLs,
	)

	querier, err := admin.NewPromQuerier(cfg.PrometheusURLs, logger)
	if err != nil {
		logger.Fatal(err)
	}

	srv := admin.NewServer(cfg, kubectl.NewRunner(cfg.KubectlBin, cfg.RepoRoot), querier)
	if err := srv.Run(ctx); err != nil {
		logger.Fatal(err)
	}
}
