package sink

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/and161185/terraria-exporter/model"
)

// Store receives every written set, e.g. for the JSON value endpoints.
type Store interface {
	Replace(ctx context.Context, set model.MetricSet) error
}

// ErrUnknownMetric is returned for samples with no registered gauge.
var ErrUnknownMetric = errors.New("unknown metric")

// Prometheus publishes metric sets as gauges on a registry. A scrape that
// lands mid-write sees a mix of the old and the new cycle; every series on
// its own is always a whole value.
type Prometheus struct {
	scalars map[string]prometheus.Gauge
	vectors map[string]*prometheus.GaugeVec
	store   Store
}

// NewPrometheus registers every exporter gauge on reg. store may be nil.
func NewPrometheus(reg prometheus.Registerer, store Store) (*Prometheus, error) {
	p := &Prometheus{
		scalars: make(map[string]prometheus.Gauge, len(scalarSpecs)),
		vectors: make(map[string]*prometheus.GaugeVec, len(vectorSpecs)),
		store:   store,
	}
	for _, s := range scalarSpecs {
		g := prometheus.NewGauge(prometheus.GaugeOpts{Name: s.name, Help: s.help})
		if err := reg.Register(g); err != nil {
			return nil, fmt.Errorf("register %s: %w", s.name, err)
		}
		p.scalars[s.name] = g
	}
	for _, s := range vectorSpecs {
		v := prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: s.name, Help: s.help}, s.labels)
		if err := reg.Register(v); err != nil {
			return nil, fmt.Errorf("register %s: %w", s.name, err)
		}
		p.vectors[s.name] = v
	}
	return p, nil
}

// Write resets every gauge and sets the samples of set. Bad samples are
// skipped and reported together after the pass.
func (p *Prometheus) Write(ctx context.Context, set model.MetricSet) error {
	for _, g := range p.scalars {
		g.Set(0)
	}
	for _, v := range p.vectors {
		v.Reset()
	}

	var errs []error
	for _, s := range set {
		if g, ok := p.scalars[s.Name]; ok && len(s.Labels) == 0 {
			g.Set(s.Value)
			continue
		}
		v, ok := p.vectors[s.Name]
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %s", ErrUnknownMetric, s.ID()))
			continue
		}
		g, err := v.GetMetricWith(s.Labels)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.ID(), err))
			continue
		}
		g.Set(s.Value)
	}

	if p.store != nil {
		if err := p.store.Replace(ctx, set); err != nil {
			errs = append(errs, fmt.Errorf("store: %w", err))
		}
	}
	return errors.Join(errs...)
}
