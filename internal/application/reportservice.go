package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/ericfisherdev/claimsdash/internal/domain/model"
	"github.com/ericfisherdev/claimsdash/internal/domain/port/driven"
)

// DefaultRenderHistoryKeep is the number of render records retained when the
// caller passes a non-positive keep.
const DefaultRenderHistoryKeep = 500

// WarehouseHealth is the liveness view served by the health endpoint.
type WarehouseHealth struct {
	OK               bool
	Error            string
	CredentialSource model.CredentialSource
	CredentialFresh  bool
	Pool             model.PoolStatus
}

// ReportService assembles dashboard reports from the query catalog and keeps a
// diagnostic history of renders. It holds no report state between calls.
type ReportService struct {
	reporter driven.ClaimsReporter
	creds    driven.CredentialSource
	pool     driven.ConnectionPool
	history  driven.RenderLogStore // nil disables history
	keep     int
	now      func() time.Time
	logger   *slog.Logger
}

// NewReportService creates a ReportService with all required dependencies.
func NewReportService(
	reporter driven.ClaimsReporter,
	creds driven.CredentialSource,
	pool driven.ConnectionPool,
	history driven.RenderLogStore,
	keep int,
	logger *slog.Logger,
) *ReportService {
	if keep <= 0 {
		keep = DefaultRenderHistoryKeep
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportService{
		reporter: reporter,
		creds:    creds,
		pool:     pool,
		history:  history,
		keep:     keep,
		now:      time.Now,
		logger:   logger,
	}
}

// Render runs the catalog in order and returns the complete report. The first
// failing query aborts the render and its error is returned unchanged; no
// partial report is produced. Every render is recorded in the history.
func (s *ReportService) Render(ctx context.Context) (*model.Report, error) {
	ctx, span := tracer.Start(ctx, "report.render")
	defer span.End()

	started := s.now()
	report, err := s.build(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "render failed")
	}

	source := credentialSourceOf(err, s.creds)
	span.SetAttributes(attribute.String("credential.source", string(source)))
	s.record(ctx, started, source, err)

	if err != nil {
		return nil, err
	}
	report.CredentialSource = source
	report.GeneratedAt = started
	return report, nil
}

func (s *ReportService) build(ctx context.Context) (*model.Report, error) {
	var (
		report model.Report
		err    error
	)

	if report.KPIs, err = s.reporter.KPIs(ctx); err != nil {
		return nil, err
	}
	if report.StatusCounts, err = s.reporter.StatusCounts(ctx); err != nil {
		return nil, err
	}
	if report.MonthlyTrend, err = s.reporter.MonthlyTrend(ctx); err != nil {
		return nil, err
	}
	if report.TopDenialReasons, err = s.reporter.TopDenialReasons(ctx); err != nil {
		return nil, err
	}
	if report.ProviderDenialRates, err = s.reporter.ProviderDenialRates(ctx); err != nil {
		return nil, err
	}
	if report.TopDiagnosesByCost, err = s.reporter.TopDiagnosesByCost(ctx); err != nil {
		return nil, err
	}
	if report.TopProviders, err = s.reporter.TopProviders(ctx); err != nil {
		return nil, err
	}
	if report.OutlierClaims, err = s.reporter.OutlierClaims(ctx); err != nil {
		return nil, err
	}

	return &report, nil
}

// Explore returns the reporting table's column schema and its first rows.
func (s *ReportService) Explore(ctx context.Context) (*model.Exploration, error) {
	ctx, span := tracer.Start(ctx, "report.explore")
	defer span.End()

	schema, err := s.reporter.TableSchema(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	sample, err := s.reporter.SampleRows(ctx, schema)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	return &model.Exploration{Schema: schema, Sample: sample}, nil
}

// RecentRenders returns up to limit render records, newest first. Without a
// history store it returns an empty list.
func (s *ReportService) RecentRenders(ctx context.Context, limit int) ([]model.RenderRecord, error) {
	if s.history == nil {
		return []model.RenderRecord{}, nil
	}
	if limit <= 0 || limit > s.keep {
		limit = s.keep
	}

	records, err := s.history.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent renders: %w", err)
	}
	return records, nil
}

// Health pings the warehouse through the pool and reports the credential and
// pool state. A failed ping is reported in the result, not as an error.
func (s *ReportService) Health(ctx context.Context) WarehouseHealth {
	health := WarehouseHealth{OK: true}
	if err := s.pool.Ping(ctx); err != nil {
		health.OK = false
		health.Error = err.Error()
	}

	cred, fresh := s.creds.Current()
	health.CredentialSource = cred.Source
	health.CredentialFresh = fresh
	health.Pool = s.pool.Status()
	return health
}

// credentialSourceOf names the credential a render used. A rejected
// credential is already discarded from the cache by the time the render
// fails, so the connection error's own source takes precedence.
func credentialSourceOf(renderErr error, creds driven.CredentialSource) model.CredentialSource {
	var connErr *model.ConnectionError
	if errors.As(renderErr, &connErr) && connErr.Source != "" {
		return connErr.Source
	}
	cred, _ := creds.Current()
	return cred.Source
}

// record stores the render outcome and trims old records. Failures are logged
// and never fail the render.
func (s *ReportService) record(ctx context.Context, started time.Time, source model.CredentialSource, renderErr error) {
	rec := model.RenderRecord{
		ID:               uuid.NewString(),
		StartedAt:        started,
		Duration:         s.now().Sub(started),
		Outcome:          model.OutcomeFor(renderErr),
		CredentialSource: source,
	}
	if renderErr != nil {
		rec.Error = renderErr.Error()
		s.logger.WarnContext(ctx, "dashboard render failed",
			"render_id", rec.ID,
			"outcome", rec.Outcome,
			"error", renderErr,
		)
	}

	if s.history == nil {
		return
	}

	// The request may already be canceled; history writes should still land.
	ctx = context.WithoutCancel(ctx)
	if err := s.history.Record(ctx, rec); err != nil {
		s.logger.ErrorContext(ctx, "failed to record render", "render_id", rec.ID, "error", err)
		return
	}
	if _, err := s.history.Prune(ctx, s.keep); err != nil {
		s.logger.ErrorContext(ctx, "failed to prune render history", "error", err)
	}
}
