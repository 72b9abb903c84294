// Package exporter runs the scrape cycle: it queries every source, reconciles
// the results and publishes them through the metric sink.
package exporter

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/and161185/terraria-exporter/internal/reconcile"
	"github.com/and161185/terraria-exporter/internal/sink"
	"github.com/and161185/terraria-exporter/internal/source/api"
	"github.com/and161185/terraria-exporter/internal/source/capacity"
	"github.com/and161185/terraria-exporter/internal/source/logs"
	"github.com/and161185/terraria-exporter/internal/source/snapshot"
	"github.com/and161185/terraria-exporter/model"
)

const (
	CycleDuration = "terraria_exporter_cycle_duration_seconds"
	BreakerState  = "terraria_exporter_api_breaker_state"

	defaultInterval = 15 * time.Second
)

// APISource fetches the gameplay API resources.
type APISource interface {
	Fetch(ctx context.Context) api.Payloads
	BreakerState() gobreaker.State
}

// SnapshotSource decodes the world file.
type SnapshotSource interface {
	Load(path string) snapshot.Result
}

// LogSource tails and analyses the server log.
type LogSource interface {
	Collect(ctx context.Context) logs.Result
}

// Sink publishes one cycle.
type Sink interface {
	Write(ctx context.Context, set model.MetricSet) error
}

// Options holds the file paths and limits of a cycle.
type Options struct {
	Interval          time.Duration
	WorldFile         string
	ServerConfig      string
	TShockConfig      string
	DefaultMaxPlayers float64
	ChestSeriesLimit  int
}

// Exporter owns the sources and the sink of the scrape cycle.
type Exporter struct {
	api      APISource
	snapshot SnapshotSource
	logs     LogSource
	sink     Sink
	opts     Options
	logger   *zap.SugaredLogger

	cycleDuration prometheus.Gauge
	breakerState  prometheus.Gauge
}

// New wires an exporter and registers its self-metrics on reg. A nil logs
// source disables log tracking.
func New(apiSrc APISource, snap SnapshotSource, logSrc LogSource, s Sink, opts Options,
	reg prometheus.Registerer, logger *zap.SugaredLogger) (*Exporter, error) {
	if opts.Interval <= 0 {
		opts.Interval = defaultInterval
	}
	if opts.DefaultMaxPlayers <= 0 {
		opts.DefaultMaxPlayers = capacity.DefaultMaxPlayers
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	e := &Exporter{
		api:      apiSrc,
		snapshot: snap,
		logs:     logSrc,
		sink:     s,
		opts:     opts,
		logger:   logger,
		cycleDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: CycleDuration,
			Help: "Duration of the last scrape cycle",
		}),
		breakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: BreakerState,
			Help: "Gameplay API circuit breaker state (0 closed, 1 half-open, 2 open)",
		}),
	}
	for _, c := range []prometheus.Collector{e.cycleDuration, e.breakerState} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register self-metrics: %w", err)
		}
	}
	return e, nil
}

// Run scrapes immediately and then on every tick until ctx is done.
func (e *Exporter) Run(ctx context.Context) error {
	e.scrape(ctx)

	t := time.NewTicker(e.opts.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			e.scrape(ctx)
		}
	}
}

func (e *Exporter) scrape(ctx context.Context) {
	if err := e.ScrapeOnce(ctx); err != nil {
		e.logger.Warnw("publish metrics", "error", err)
	}
}

// ScrapeOnce runs a single cycle. Source faults never fail it; the returned
// error only reports samples the sink rejected.
func (e *Exporter) ScrapeOnce(ctx context.Context) error {
	start := time.Now()

	apiRes := stage(e, "api", func() api.Result {
		if e.api == nil {
			return api.Result{}
		}
		return api.Extract(e.api.Fetch(ctx))
	})
	snapRes := stage(e, "snapshot", func() snapshot.Result {
		if e.snapshot == nil {
			return snapshot.Result{}
		}
		return e.snapshot.Load(e.opts.WorldFile)
	})
	capRes := stage(e, "capacity", e.readCapacity)
	if capRes.Default <= 0 {
		capRes.Default = e.opts.DefaultMaxPlayers
	}
	logRes := stage(e, "logs", func() logs.Result {
		if e.logs == nil {
			return logs.Result{}
		}
		return e.logs.Collect(ctx)
	})

	if snapRes.Err != nil {
		e.logger.Debugw("world snapshot", "outcome", snapRes.Outcome.String(), "error", snapRes.Err)
	}
	if logRes.Err != nil {
		e.logger.Debugw("log tail", "pod", logRes.Pod, "error", logRes.Err)
	}

	state := reconcile.Reconcile(reconcile.Inputs{
		API:      apiRes,
		Snapshot: snapRes,
		Logs:     logRes,
		Capacity: capRes,
	}, reconcile.Options{ChestSeriesLimit: e.opts.ChestSeriesLimit})

	err := e.sink.Write(ctx, sink.Flatten(state))

	elapsed := time.Since(start)
	e.cycleDuration.Set(elapsed.Seconds())
	if e.api != nil {
		e.breakerState.Set(float64(e.api.BreakerState()))
	}
	e.logger.Infow("scrape cycle",
		"api", apiRes.Up,
		"snapshot", snapRes.Outcome.String(),
		"logs", logRes.OK,
		"runtime", state.RuntimeUp,
		"duration", elapsed,
	)
	return err
}

func (e *Exporter) readCapacity() reconcile.Capacity {
	c := reconcile.Capacity{Default: e.opts.DefaultMaxPlayers}
	var err error
	if c.ServerConfig, err = capacity.ReadServerConfig(e.opts.ServerConfig); err != nil {
		e.logger.Debugw("server config", "path", e.opts.ServerConfig, "error", err)
	}
	if c.AdminConfig, err = capacity.ReadTShockConfig(e.opts.TShockConfig); err != nil {
		e.logger.Debugw("tshock config", "path", e.opts.TShockConfig, "error", err)
	}
	return c
}

// stage runs fn and turns a panic into the zero result, which every source
// reads as down.
func stage[T any](e *Exporter, name string, fn func() T) (res T) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Debugw("source panicked", "source", name, "panic", r)
			var zero T
			res = zero
		}
	}()
	return fn()
}
