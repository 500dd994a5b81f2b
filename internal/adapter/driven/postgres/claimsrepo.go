package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/ericfisherdev/claimsdash/internal/domain/model"
	"github.com/ericfisherdev/claimsdash/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ClaimsReporter = (*ClaimsRepo)(nil)

// sampleRowLimit caps the raw table viewer.
const sampleRowLimit = 100

// nullLabel stands in for NULL category values in charts.
const nullLabel = "(none)"

// connLeaser leases one connection for the duration of fn.
type connLeaser interface {
	WithConn(ctx context.Context, fn func(conn *pgxpool.Conn) error) error
}

// ClaimsRepo is the Postgres implementation of the ClaimsReporter port. Every
// method leases one connection, runs one statement and releases it.
type ClaimsRepo struct {
	conns connLeaser
	table TableRef
}

// NewClaimsRepo creates a ClaimsRepo reading from table.
func NewClaimsRepo(conns connLeaser, table TableRef) *ClaimsRepo {
	return &ClaimsRepo{conns: conns, table: table}
}

// KPIs returns the five headline figures.
func (r *ClaimsRepo) KPIs(ctx context.Context) (model.KPIs, error) {
	query := fmt.Sprintf(`
		SELECT
			COUNT(*) AS total_claims,
			SUM(COALESCE(total_charge, 0)) AS total_charges,
			COUNT(DISTINCT member_id) AS distinct_members,
			COUNT(DISTINCT provider_id) AS distinct_providers,
			SUM(CASE WHEN claim_status = 'denied' THEN 1 ELSE 0 END)::float / NULLIF(COUNT(*), 0) AS denial_rate
		FROM %s`, r.table.Quoted())

	var kpis model.KPIs
	err := r.run(ctx, "kpis", query, nil, func(rows pgx.Rows) error {
		if !rows.Next() {
			return rows.Err()
		}
		var totalCharges, denialRate *float64
		if err := rows.Scan(&kpis.TotalClaims, &totalCharges, &kpis.DistinctMembers, &kpis.DistinctProviders, &denialRate); err != nil {
			return err
		}
		kpis.TotalCharges = deref(totalCharges)
		kpis.DenialRate = deref(denialRate)
		return nil
	})
	return kpis, err
}

// StatusCounts returns the number of claims per claim_status.
func (r *ClaimsRepo) StatusCounts(ctx context.Context) ([]model.LabeledValue, error) {
	query := fmt.Sprintf(`
		SELECT claim_status, COUNT(*) AS n_claims
		FROM %s
		GROUP BY claim_status`, r.table.Quoted())

	return r.labeledValues(ctx, "status_counts", query)
}

// MonthlyTrend returns total and denied charges per YYYY-MM period.
func (r *ClaimsRepo) MonthlyTrend(ctx context.Context) ([]model.TrendPoint, error) {
	query := fmt.Sprintf(`
		SELECT substr(claim_date::text, 1, 7) AS month,
			SUM(total_charge) AS charges,
			SUM(CASE WHEN claim_status = 'denied' THEN total_charge ELSE 0 END) AS denied_amt
		FROM %s
		GROUP BY month
		ORDER BY month`, r.table.Quoted())

	points := []model.TrendPoint{}
	err := r.run(ctx, "monthly_trend", query, nil, func(rows pgx.Rows) error {
		for rows.Next() {
			var period *string
			var charges, denied *float64
			if err := rows.Scan(&period, &charges, &denied); err != nil {
				return err
			}
			points = append(points, model.TrendPoint{
				Period:       label(period),
				Charges:      deref(charges),
				DeniedAmount: deref(denied),
			})
		}
		return nil
	})
	return points, err
}

// TopDenialReasons returns the ten diagnoses with the most denied claims.
func (r *ClaimsRepo) TopDenialReasons(ctx context.Context) ([]model.LabeledValue, error) {
	query := fmt.Sprintf(`
		SELECT diagnosis_desc, COUNT(*) AS denied_claims
		FROM %s
		WHERE claim_status = 'denied'
		GROUP BY diagnosis_desc
		ORDER BY denied_claims DESC
		LIMIT 10`, r.table.Quoted())

	return r.labeledValues(ctx, "top_denial_reasons", query)
}

// ProviderDenialRates returns the ten providers (with at least three claims)
// with the highest denial rate.
func (r *ClaimsRepo) ProviderDenialRates(ctx context.Context) ([]model.ProviderDenialRate, error) {
	query := fmt.Sprintf(`
		SELECT provider_name,
			SUM(CASE WHEN claim_status = 'denied' THEN 1 ELSE 0 END)::float / NULLIF(COUNT(*), 0) AS denial_rate,
			COUNT(*) AS total
		FROM %s
		GROUP BY provider_name
		HAVING COUNT(*) >= 3
		ORDER BY denial_rate DESC
		LIMIT 10`, r.table.Quoted())

	rates := []model.ProviderDenialRate{}
	err := r.run(ctx, "provider_denial_rates", query, nil, func(rows pgx.Rows) error {
		for rows.Next() {
			var provider *string
			var rate *float64
			var total int64
			if err := rows.Scan(&provider, &rate, &total); err != nil {
				return err
			}
			rates = append(rates, model.ProviderDenialRate{
				Provider:   label(provider),
				DenialRate: deref(rate),
				Total:      total,
			})
		}
		return nil
	})
	return rates, err
}

// TopDiagnosesByCost returns the ten diagnoses with the highest total charge.
func (r *ClaimsRepo) TopDiagnosesByCost(ctx context.Context) ([]model.LabeledValue, error) {
	query := fmt.Sprintf(`
		SELECT diagnosis_desc, COUNT(*) AS n_claims, SUM(total_charge) AS charges
		FROM %s
		GROUP BY diagnosis_desc
		ORDER BY charges DESC
		LIMIT 10`, r.table.Quoted())

	values := []model.LabeledValue{}
	err := r.run(ctx, "top_diagnoses_by_cost", query, nil, func(rows pgx.Rows) error {
		for rows.Next() {
			var diagnosis *string
			var count int64
			var charges *float64
			if err := rows.Scan(&diagnosis, &count, &charges); err != nil {
				return err
			}
			values = append(values, model.LabeledValue{Label: label(diagnosis), Value: deref(charges)})
		}
		return nil
	})
	return values, err
}

// TopProviders returns the ten providers with the highest total charge as a table.
func (r *ClaimsRepo) TopProviders(ctx context.Context) (model.Table, error) {
	query := fmt.Sprintf(`
		SELECT provider_name, SUM(total_charge) AS charges, COUNT(*) AS n_claims
		FROM %s
		GROUP BY provider_name
		ORDER BY charges DESC
		LIMIT 10`, r.table.Quoted())

	return r.collect(ctx, "top_providers", query, nil)
}

// OutlierClaims returns up to ten claims whose total charge exceeds the mean
// by more than three standard deviations, all columns included.
func (r *ClaimsRepo) OutlierClaims(ctx context.Context) (model.Table, error) {
	quoted := r.table.Quoted()
	query := fmt.Sprintf(`
		SELECT *
		FROM %s
		WHERE total_charge > (
			SELECT AVG(total_charge) + 3 * STDDEV(total_charge) FROM %s
		)
		ORDER BY total_charge DESC
		LIMIT 10`, quoted, quoted)

	return r.collect(ctx, "outlier_claims", query, nil)
}

// TableSchema returns the reporting table's columns in ordinal order.
func (r *ClaimsRepo) TableSchema(ctx context.Context) ([]model.ColumnInfo, error) {
	const query = `
		SELECT column_name, data_type
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position`

	columns := []model.ColumnInfo{}
	err := r.run(ctx, "table_schema", query, []any{r.table.Schema, r.table.Name}, func(rows pgx.Rows) error {
		for rows.Next() {
			var col model.ColumnInfo
			if err := rows.Scan(&col.Name, &col.DataType); err != nil {
				return err
			}
			columns = append(columns, col)
		}
		return nil
	})
	return columns, err
}

// SampleRows returns the first rows of the reporting table restricted to columns.
func (r *ClaimsRepo) SampleRows(ctx context.Context, columns []model.ColumnInfo) (model.Table, error) {
	if len(columns) == 0 {
		return model.Table{Columns: []string{}, Rows: [][]any{}}, nil
	}

	quotedCols := make([]string, len(columns))
	for i, col := range columns {
		quotedCols[i] = quoteColumn(col.Name)
	}
	query := fmt.Sprintf(`SELECT %s FROM %s LIMIT %d`,
		strings.Join(quotedCols, ", "), r.table.Quoted(), sampleRowLimit)

	return r.collect(ctx, "sample_rows", query, nil)
}

// labeledValues runs a two-column (label, count) query.
func (r *ClaimsRepo) labeledValues(ctx context.Context, name, query string) ([]model.LabeledValue, error) {
	values := []model.LabeledValue{}
	err := r.run(ctx, name, query, nil, func(rows pgx.Rows) error {
		for rows.Next() {
			var key *string
			var count int64
			if err := rows.Scan(&key, &count); err != nil {
				return err
			}
			values = append(values, model.LabeledValue{Label: label(key), Value: float64(count)})
		}
		return nil
	})
	return values, err
}

// collect runs a query and collects every column into a model.Table.
func (r *ClaimsRepo) collect(ctx context.Context, name, query string, args []any) (model.Table, error) {
	var tbl model.Table
	err := r.run(ctx, name, query, args, func(rows pgx.Rows) error {
		var err error
		tbl, err = collectTable(rows)
		return err
	})
	return tbl, err
}

// run leases a connection, executes query and hands the rows to scan. Any
// failure after the lease is reported as a *model.QueryError carrying the
// driver's message verbatim.
func (r *ClaimsRepo) run(ctx context.Context, name, query string, args []any, scan func(rows pgx.Rows) error) error {
	ctx, span := tracer.Start(ctx, "report."+name)
	defer span.End()
	span.SetAttributes(attribute.String("db.table", r.table.String()))

	err := r.conns.WithConn(ctx, func(conn *pgxpool.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return &model.QueryError{Query: name, Err: err}
		}
		defer rows.Close()

		if err := scan(rows); err != nil {
			return &model.QueryError{Query: name, Err: err}
		}
		if err := rows.Err(); err != nil {
			return &model.QueryError{Query: name, Err: err}
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, name)
	}
	return err
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

func label(s *string) string {
	if s == nil {
		return nullLabel
	}
	return *s
}
