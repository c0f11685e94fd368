// Package dashboard ties one run together: fetch the open tickets, rank the
// addresses, write the map and the summary, record metrics.
package dashboard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Zachdehooge/pothole-dashboard/internal/aggregator"
	"github.com/Zachdehooge/pothole-dashboard/internal/fetcher"
	"github.com/Zachdehooge/pothole-dashboard/internal/generator"
	"github.com/Zachdehooge/pothole-dashboard/internal/logger"
	"github.com/Zachdehooge/pothole-dashboard/internal/metrics"
	"github.com/Zachdehooge/pothole-dashboard/internal/serrors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const (
	streetLabel       = "street"
	intersectionLabel = "intersection"
	otherReason       = "other"
)

// Options holds output locations and map framing.
type Options struct {
	MapPath    string
	ReportPath string
	// MetricsTextfile is optional; when set, metrics are dumped there after
	// every Build, failed ones included.
	MetricsTextfile string

	CenterLat float64
	CenterLon float64
	Zoom      int
}

// Deps are the collaborators a Dashboard needs. Metrics and Gatherer may be
// nil.
type Deps struct {
	Source     fetcher.Source
	Aggregator *aggregator.Aggregator
	Metrics    *metrics.Collectors
	Gatherer   prometheus.Gatherer
}

// Report describes one completed run.
type Report struct {
	Total   int
	Markers int
	Ranking aggregator.Result
}

// Dashboard runs builds. It is not safe for concurrent Build calls sharing
// the same output paths.
type Dashboard struct {
	deps Deps
	opts Options
	now  func() time.Time
}

// New returns a Dashboard.
func New(deps Deps, opts Options) *Dashboard {
	if deps.Metrics == nil {
		deps.Metrics = metrics.New(nil)
	}
	return &Dashboard{deps: deps, opts: opts, now: time.Now}
}

// Build fetches, ranks and writes both pages.
func (d *Dashboard) Build(ctx context.Context) (*Report, error) {
	report, err := d.build(ctx)
	if err != nil {
		d.recordFailure(err)
	}
	d.writeTextfile(ctx)
	return report, err
}

func (d *Dashboard) build(ctx context.Context) (*Report, error) {
	records, report, err := d.rank(ctx)
	if err != nil {
		return nil, err
	}

	points := generator.NewPoints(records)
	report.Markers = len(points)

	err = generator.WriteMap(d.opts.MapPath, generator.MapData{
		CenterLat: d.opts.CenterLat,
		CenterLon: d.opts.CenterLon,
		Zoom:      d.opts.Zoom,
		Points:    points,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate map: %w", err)
	}

	summary := generator.NewSummary(report.Total, report.Ranking, d.now())
	if err := generator.WriteReport(d.opts.ReportPath, summary); err != nil {
		return nil, fmt.Errorf("failed to generate report: %w", err)
	}

	m := d.deps.Metrics
	m.MarkersRendered.Set(float64(report.Markers))
	m.LastSuccess.SetToCurrentTime()

	logger.Info(ctx, "dashboard written",
		zap.String("map", d.opts.MapPath),
		zap.String("report", d.opts.ReportPath),
		zap.Int("records", report.Total),
		zap.Int("markers", report.Markers),
	)
	return report, nil
}

// Rank fetches and ranks without writing anything.
func (d *Dashboard) Rank(ctx context.Context) (*Report, error) {
	_, report, err := d.rank(ctx)
	if err != nil {
		d.recordFailure(err)
		return nil, err
	}
	return report, nil
}

func (d *Dashboard) rank(ctx context.Context) ([]fetcher.Record, *Report, error) {
	records, err := d.fetch(ctx)
	if err != nil {
		return nil, nil, err
	}

	res := d.deps.Aggregator.Aggregate(fetcher.Addresses(records))
	if res.Skipped > 0 {
		logger.Debug(ctx, "records without a street address", zap.Int("skipped", res.Skipped))
	}

	m := d.deps.Metrics
	m.RecordsFetched.Set(float64(len(records)))
	m.AddressesSkipped.Set(float64(res.Skipped))
	m.Ranked.WithLabelValues(streetLabel).Set(float64(len(res.Streets)))
	m.Ranked.WithLabelValues(intersectionLabel).Set(float64(len(res.Intersections)))

	return records, &Report{Total: len(records), Ranking: res}, nil
}

// fetch returns ErrNotFound, naming the categories the portal does know,
// when the query matches nothing.
func (d *Dashboard) fetch(ctx context.Context) ([]fetcher.Record, error) {
	start := time.Now()
	records, err := d.deps.Source.FetchRecords(ctx)
	d.deps.Metrics.FetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	if len(records) > 0 {
		return records, nil
	}

	logger.Warn(ctx, "no records matched the query, listing categories")
	categories, err := d.deps.Source.FetchCategories(ctx)
	if err != nil {
		logger.Warn(ctx, "could not list categories", zap.Error(err))
		return nil, serrors.With(serrors.ErrNotFound, "no records matched the query")
	}

	return nil, serrors.With(serrors.ErrNotFound,
		"no records matched the query; the category names might have changed. available categories: %s",
		strings.Join(categories, ", "))
}

func (d *Dashboard) recordFailure(err error) {
	reason := otherReason
	if k := serrors.KindOf(err); k != nil {
		reason = k.Error()
	}
	d.deps.Metrics.BuildFailures.WithLabelValues(reason).Inc()
}

func (d *Dashboard) writeTextfile(ctx context.Context) {
	if d.opts.MetricsTextfile == "" || d.deps.Gatherer == nil {
		return
	}
	if err := metrics.WriteTextfile(d.opts.MetricsTextfile, d.deps.Gatherer); err != nil {
		logger.Warn(ctx, "could not write metrics textfile", zap.Error(err))
	}
}
