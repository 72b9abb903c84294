package admin

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/api"
	promv1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"
	"go.uber.org/zap"

	"github.com/and161185/terraria-exporter/internal/sink"
)

const promQueryTimeout = 3 * time.Second

// ExporterMetrics are the exporter gauges shown on the management page. A nil
// field means no monitoring backend answered.
type ExporterMetrics struct {
	SourceUp        *float64 `json:"source_up"`
	WorldParserUp   *float64 `json:"world_parser_up"`
	PlayersOnline   *float64 `json:"players_online"`
	PlayersMax      *float64 `json:"players_max"`
	Hardmode        *float64 `json:"hardmode"`
	BloodMoon       *float64 `json:"blood_moon"`
	Eclipse         *float64 `json:"eclipse"`
	WorldTime       *float64 `json:"world_time"`
	ChestsTotal     *float64 `json:"chests_total"`
	HousesTotal     *float64 `json:"houses_total"`
	HousedNPCsTotal *float64 `json:"housed_npcs_total"`
}

// Querier evaluates instant PromQL queries.
type Querier interface {
	Scalar(ctx context.Context, query string) *float64
}

// PromQuerier asks a list of Prometheus servers in order and takes the first
// answer.
type PromQuerier struct {
	apis    []promv1.API
	timeout time.Duration
	logger  *zap.SugaredLogger
}

// NewPromQuerier builds a querier for urls.
func NewPromQuerier(urls []string, logger *zap.SugaredLogger) (*PromQuerier, error) {
	q := &PromQuerier{timeout: promQueryTimeout, logger: logger}
	for _, u := range urls {
		client, err := api.NewClient(api.Config{Address: strings.TrimRight(u, "/")})
		if err != nil {
			return nil, fmt.Errorf("prometheus client %s: %w", u, err)
		}
		q.apis = append(q.apis, promv1.NewAPI(client))
	}
	return q, nil
}

// Scalar returns the first sample of the query result, 0 for an empty result
// and nil when every server failed.
func (q *PromQuerier) Scalar(ctx context.Context, query string) *float64 {
	for i, a := range q.apis {
		v, err := q.query(ctx, a, query)
		if err != nil {
			q.logger.Debugw("prometheus query", "backend", i, "query", query, "error", err)
			continue
		}
		return &v
	}
	return nil
}

func (q *PromQuerier) query(ctx context.Context, a promv1.API, query string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()

	val, _, err := a.Query(ctx, query, time.Now())
	if err != nil {
		return 0, err
	}
	switch v := val.(type) {
	case model.Vector:
		if len(v) == 0 {
			return 0, nil
		}
		return float64(v[0].Value), nil
	case *model.Scalar:
		return float64(v.Value), nil
	default:
		return 0, fmt.Errorf("unexpected result type %s", val.Type())
	}
}

// ScrapeExporterMetrics reads the exporter gauges. Queries run one after the
// other so a dead backend costs at most its timeout per query.
func ScrapeExporterMetrics(ctx context.Context, q Querier) ExporterMetrics {
	pick := func(metric string) *float64 { return q.Scalar(ctx, "max("+metric+")") }
	return ExporterMetrics{
		SourceUp:        pick(sink.SourceUp),
		WorldParserUp:   pick(sink.ParserUp),
		PlayersOnline:   pick(sink.PlayersOnline),
		PlayersMax:      pick(sink.PlayersMax),
		Hardmode:        pick(sink.WorldHardmode),
		BloodMoon:       pick(sink.WorldBloodMoon),
		Eclipse:         pick(sink.WorldEclipse),
		WorldTime:       pick(sink.WorldTime),
		ChestsTotal:     pick(sink.ChestsTotal),
		HousesTotal:     pick(sink.HousesTotal),
		HousedNPCsTotal: pick(sink.HousedNPCsTotal),
	}
}
