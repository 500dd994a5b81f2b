package driven

import (
	"context"

	"github.com/ericfisherdev/claimsdash/internal/domain/model"
)

// ClaimsReporter is the fixed catalog of read-only aggregate queries over the
// claims reporting table. Each call leases one connection for one statement.
// Failures are *model.CredentialError, *model.ConnectionError or *model.QueryError.
type ClaimsReporter interface {
	KPIs(ctx context.Context) (model.KPIs, error)
	StatusCounts(ctx context.Context) ([]model.LabeledValue, error)
	MonthlyTrend(ctx context.Context) ([]model.TrendPoint, error)
	TopDenialReasons(ctx context.Context) ([]model.LabeledValue, error)
	ProviderDenialRates(ctx context.Context) ([]model.ProviderDenialRate, error)
	TopDiagnosesByCost(ctx context.Context) ([]model.LabeledValue, error)
	TopProviders(ctx context.Context) (model.Table, error)
	OutlierClaims(ctx context.Context) (model.Table, error)
	TableSchema(ctx context.Context) ([]model.ColumnInfo, error)
	SampleRows(ctx context.Context, columns []model.ColumnInfo) (model.Table, error)
}
