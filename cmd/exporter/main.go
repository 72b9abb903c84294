package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/errgroup"

	"github.com/and161185/terraria-exporter/internal/buildinfo"
	"github.com/and161185/terraria-exporter/internal/client/transport"
	"github.com/and161185/terraria-exporter/internal/config"
	"github.com/and161185/terraria-exporter/internal/exporter"
	"github.com/and161185/terraria-exporter/internal/kubectl"
	"github.com/and161185/terraria-exporter/internal/server"
	"github.com/and161185/terraria-exporter/internal/sink"
	"github.com/and161185/terraria-exporter/internal/source/api"
	"github.com/and161185/terraria-exporter/internal/source/logs"
	"github.com/and161185/terraria-exporter/internal/source/snapshot"
	"github.com/and161185/terraria-exporter/internal/worldfile"
	"github.com/and161185/terraria-exporter/storage/inmemory"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.NewExporterConfig()
	logger := cfg.Logger
	defer func() { _ = logger.Sync() }()
	buildinfo.LogBuildInfo(logger, "exporter")

	logger.Infof("Exporter config: Addr=%s, ScrapeInterval=%d, APIURL=%q, WorldFile=%q, LogSource=%s, LogTracker=%t",
		cfg.Addr,
		cfg.ScrapeInterval,
		cfg.APIURL,
		cfg.WorldFilePath,
		cfg.LogSource,
		cfg.LogPlayerTracker,
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	store := inmemory.NewMemStorage()
	promSink, err := sink.NewPrometheus(reg, store)
	if err != nil {
		logger.Fatal(err)
	}

	apiClient := api.NewClient(api.Options{
		BaseURL:   cfg.APIURL,
		Token:     cfg.APIToken,
		TokenMode: transport.TokenMode(cfg.APITokenMode),
		Timeout:   cfg.Timeout(),
		OnBreakerChange: func(from, to gobreaker.State) {
			logger.Warnw("gameplay API breaker", "from", from.String(), "to", to.String())
		},
	})

	exp, err := exporter.New(
		apiClient,
		snapshot.NewAdapter(worldfile.NewDecoder()),
		newLogCollector(cfg),
		promSink,
		exporter.Options{
			Interval:          cfg.Interval(),
			WorldFile:         cfg.WorldFilePath,
			ServerConfig:      cfg.ServerConfigPath,
			TShockConfig:      cfg.TShockConfigPath,
			DefaultMaxPlayers: cfg.DefaultMaxPlayers,
			ChestSeriesLimit:  cfg.ChestItemSeriesLimit,
		},
		reg,
		logger,
	)
	if err != nil {
		logger.Fatal(err)
	}

	srv := server.NewServer(store, reg, cfg)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return exp.Run(gctx) })
	g.Go(func() error { return srv.Run(gctx) })
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal(err)
	}
	logger.Info("exporter stopped")
}

// newLogCollector picks the log source. A nil collector disables the tracker;
// a tracker whose source cannot be built stays enabled and reports down.
func newLogCollector(cfg *config.ExporterConfig) exporter.LogSource {
	if !cfg.LogPlayerTracker {
		return nil
	}

	var src logs.Source
	switch cfg.LogSource {
	case config.LogSourceNone:
		return nil
	case config.LogSourceFile:
		src = logs.FileSource{Path: cfg.LogFilePath}
	case config.LogSourceKubectl:
		src = logs.KubectlSource{
			Runner:     kubectl.NewRunner(cfg.KubectlBin, ""),
			Namespace:  cfg.K8sNamespace,
			Deployment: cfg.K8sDeployment,
			Container:  cfg.K8sContainer,
		}
	default:
		kube, err := logs.NewKubeSource(logs.KubeOptions{
			Host:          cfg.K8sHost,
			Port:          strconv.Itoa(cfg.K8sPort),
			Namespace:     cfg.K8sNamespace,
			LabelSelector: cfg.K8sLabelSelector,
			Container:     cfg.K8sContainer,
		})
		if err != nil {
			cfg.Logger.Warnw("log tracker unavailable", "error", err)
			return logs.NewAdapter(nil, cfg.K8sLogTailLines, cfg.Timeout())
		}
		src = kube
	}
	return logs.NewAdapter(src, cfg.K8sLogTailLines, cfg.Timeout())
}
