// Package report runs the reporting cycle: pull metrics, compare against
// the previous snapshot, classify the window's installs and deliver the
// rendered summary. Only the insights source, the classifier and the
// notifier are mandatory; every other collaborator degrades gracefully
// when absent or failing.
package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prepairo/adpulse/internal/attribution"
	"github.com/prepairo/adpulse/internal/config"
	"github.com/prepairo/adpulse/internal/delta"
	"github.com/prepairo/adpulse/internal/events"
	"github.com/prepairo/adpulse/internal/geo"
	"github.com/prepairo/adpulse/internal/metrics"
	"github.com/prepairo/adpulse/internal/models"
	"github.com/prepairo/adpulse/internal/slack"
	"github.com/prepairo/adpulse/internal/snapshot"
	"github.com/prepairo/adpulse/internal/stats"
	"go.uber.org/zap"
)

// InsightsFetcher pulls current metric totals for one account.
type InsightsFetcher interface {
	FetchInsights(ctx context.Context, accountID string, since, until time.Time) (map[string]float64, error)
}

// InstallSource reads app installs for the reporting window.
type InstallSource interface {
	InstallsBetween(ctx context.Context, since, until time.Time) ([]models.InstallRecord, error)
}

// Service wires the report cycle together.
type Service struct {
	insights   InsightsFetcher
	store      snapshot.Store
	installs   InstallSource
	classifier *attribution.Classifier
	counters   *stats.Counters
	sink       *events.Sink
	geo        *geo.Resolver
	notifier   slack.Notifier
	metrics    *metrics.Metrics
	cfg        config.ReportConfig
	logger     *zap.Logger
}

// Options carries the optional collaborators. Any nil field simply
// switches that side effect off.
type Options struct {
	Installs InstallSource
	Counters *stats.Counters
	Sink     *events.Sink
	Geo      *geo.Resolver
	Metrics  *metrics.Metrics
}

// NewService creates a report service.
func NewService(
	insights InsightsFetcher,
	store snapshot.Store,
	classifier *attribution.Classifier,
	notifier slack.Notifier,
	cfg config.ReportConfig,
	logger *zap.Logger,
	opts Options,
) *Service {
	return &Service{
		insights:   insights,
		store:      store,
		installs:   opts.Installs,
		classifier: classifier,
		counters:   opts.Counters,
		sink:       opts.Sink,
		geo:        opts.Geo,
		notifier:   notifier,
		metrics:    opts.Metrics,
		cfg:        cfg,
		logger:     logger,
	}
}

// Run executes one cycle per account. A failing account does not stop
// the others; the joined error reports every failure.
func (s *Service) Run(ctx context.Context, accounts []string, now time.Time) error {
	var errs []error
	for _, accountID := range accounts {
		if err := s.RunCycle(ctx, accountID, now); err != nil {
			s.logger.Error("report cycle failed",
				zap.String("account_id", accountID),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("account %s: %w", accountID, err))
		}
	}
	return errors.Join(errs...)
}

// RunCycle produces and delivers the report for one account.
//
// Failure policy: only a failed insights fetch or a failed delivery
// aborts the cycle. Store trouble downgrades the report to current
// values with a note, and the install, counter and archive steps are
// strictly additive.
func (s *Service) RunCycle(ctx context.Context, accountID string, now time.Time) error {
	started := time.Now()
	since := now.Add(-time.Duration(s.cfg.WindowHours) * time.Hour)

	current, err := s.fetchSnapshot(ctx, accountID, since, now)
	if err != nil {
		s.recordRun(accountID, "fetch_error", started)
		return err
	}

	deltas, trendNote := s.computeTrends(ctx, accountID, current, now)
	s.persistSnapshot(ctx, current)

	breakdown, countries := s.classifyInstalls(ctx, since, now)
	summary := Summary{
		AccountID:   accountID,
		Since:       since,
		Until:       now,
		Deltas:      deltas,
		Significant: SignificantChanges(deltas, s.cfg.SignificantChangePct, s.cfg.SignificantSpendFloor),
		Installs:    breakdown,
		Countries:   countries,
		TrendNote:   trendNote,
	}

	if err := s.notifier.Send(ctx, RenderText(summary)); err != nil {
		if s.metrics != nil {
			s.metrics.RecordDelivery("error")
		}
		s.recordRun(accountID, "delivery_error", started)
		return fmt.Errorf("failed to deliver report: %w", err)
	}
	if s.metrics != nil {
		s.metrics.RecordDelivery("ok")
	}

	s.recordRun(accountID, "ok", started)
	s.logger.Info("report cycle complete",
		zap.String("account_id", accountID),
		zap.Int("metrics", len(deltas)),
		zap.Int("installs", summary.Installs.Total),
		zap.Int("significant", len(summary.Significant)),
	)
	return nil
}

func (s *Service) fetchSnapshot(ctx context.Context, accountID string, since, until time.Time) (*models.MetricSnapshot, error) {
	values, err := s.insights.FetchInsights(ctx, accountID, since, until)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch current metrics: %w", err)
	}
	return &models.MetricSnapshot{
		AccountID:  accountID,
		CapturedAt: until,
		Metrics:    values,
	}, nil
}

// computeTrends loads the previous snapshot and diffs against it. A
// store outage is not fatal: the report goes out on current values only,
// with a note saying why the trend section is missing.
func (s *Service) computeTrends(ctx context.Context, accountID string, current *models.MetricSnapshot, now time.Time) (map[string]models.Delta, string) {
	previous, err := s.store.GetPrevious(ctx, accountID, now)
	if err != nil {
		s.logger.Warn("snapshot store unavailable, reporting without trends",
			zap.String("account_id", accountID),
			zap.Error(err),
		)
		if s.metrics != nil {
			s.metrics.RecordStoreError("get_previous")
			s.metrics.RecordTrendUnavailable(accountID, "store_unavailable")
		}
		return delta.Compute(current, nil), "trend data unavailable (snapshot store unreachable)"
	}

	if previous == nil {
		if s.metrics != nil {
			s.metrics.RecordTrendUnavailable(accountID, "first_run")
		}
		return delta.Compute(current, nil), ""
	}

	return delta.Compute(current, previous), ""
}

// persistSnapshot saves the current snapshot and prunes expired ones.
// Neither failure aborts the cycle; a duplicate save means another run
// already captured this instant and is only logged.
func (s *Service) persistSnapshot(ctx context.Context, snap *models.MetricSnapshot) {
	if err := s.store.Save(ctx, snap); err != nil {
		switch {
		case errors.Is(err, snapshot.ErrDuplicateSnapshot):
			s.logger.Info("snapshot already captured for this instant",
				zap.String("account_id", snap.AccountID),
				zap.Time("captured_at", snap.CapturedAt),
			)
		default:
			s.logger.Warn("failed to save snapshot", zap.Error(err))
			if s.metrics != nil {
				s.metrics.RecordStoreError("save")
			}
		}
		return
	}
	if s.metrics != nil {
		s.metrics.RecordSnapshotSaved(snap.AccountID)
	}

	deleted, err := s.store.Prune(ctx, s.cfg.RetentionDays)
	if err != nil {
		s.logger.Warn("failed to prune expired snapshots", zap.Error(err))
		if s.metrics != nil {
			s.metrics.RecordStoreError("prune")
		}
		return
	}
	if deleted > 0 {
		s.logger.Debug("pruned expired snapshots", zap.Int64("deleted", deleted))
		if s.metrics != nil {
			s.metrics.RecordPruned(deleted)
		}
	}
}

// classifyInstalls loads the window's installs, classifies each referrer
// and fans the results out to the counters and the event archive. All of
// it is best-effort; an empty breakdown just drops the install section
// from the report.
func (s *Service) classifyInstalls(ctx context.Context, since, until time.Time) (attribution.Breakdown, map[string]int) {
	if s.installs == nil {
		return attribution.Breakdown{}, nil
	}

	records, err := s.installs.InstallsBetween(ctx, since, until)
	if err != nil {
		s.logger.Warn("failed to load installs, skipping channel breakdown", zap.Error(err))
		return attribution.Breakdown{}, nil
	}

	results := make([]models.ChannelAttribution, 0, len(records))
	archive := make([]events.Event, 0, len(records))
	countries := make(map[string]int)
	for _, rec := range records {
		attr := s.classifier.Classify(rec.Referrer, rec.Platform)
		results = append(results, attr)
		if s.metrics != nil {
			s.metrics.RecordClassification(string(attr.Channel))
		}

		event := events.Event{
			Time:        rec.CreatedAt,
			UserID:      rec.UserID,
			Platform:    rec.Platform,
			Channel:     attr.Channel,
			Campaign:    attr.Campaign,
			RawReferrer: attr.RawReferrer,
		}
		if s.geo != nil && rec.SignupIP != "" {
			if country := s.geo.Country(rec.SignupIP); country != "" {
				event.Country = country
				countries[country]++
			}
		}
		archive = append(archive, event)
	}

	breakdown := attribution.Aggregate(results)

	if s.counters != nil {
		s.counters.RecordInstalls(ctx, breakdown.ByChannel)
	}
	if s.sink != nil {
		if err := s.sink.Write(ctx, archive); err != nil {
			s.logger.Warn("failed to archive attribution events", zap.Error(err))
		}
	}

	if len(countries) == 0 {
		countries = nil
	}
	return breakdown, countries
}

func (s *Service) recordRun(accountID, status string, started time.Time) {
	if s.metrics != nil {
		s.metrics.RecordRun(accountID, status, time.Since(started))
	}
}
