package web

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/claimsdash/internal/application"
	"github.com/ericfisherdev/claimsdash/internal/domain/model"
)

type stubReporter struct {
	err error
}

func (s stubReporter) KPIs(_ context.Context) (model.KPIs, error) {
	return model.KPIs{TotalClaims: 1234, TotalCharges: 98765.5, DistinctMembers: 900, DistinctProviders: 42, DenialRate: 0.3}, s.err
}

func (s stubReporter) StatusCounts(_ context.Context) ([]model.LabeledValue, error) {
	return []model.LabeledValue{{Label: "paid", Value: 800}, {Label: "denied", Value: 400}}, nil
}

func (s stubReporter) MonthlyTrend(_ context.Context) ([]model.TrendPoint, error) {
	return []model.TrendPoint{{Period: "2025-01", Charges: 1000, DeniedAmount: 250}}, nil
}

func (s stubReporter) TopDenialReasons(_ context.Context) ([]model.LabeledValue, error) {
	return []model.LabeledValue{{Label: "<b>Asthma</b>", Value: 7}}, nil
}

func (s stubReporter) ProviderDenialRates(_ context.Context) ([]model.ProviderDenialRate, error) {
	return []model.ProviderDenialRate{{Provider: "Acme Clinic", DenialRate: 0.5, Total: 10}}, nil
}

func (s stubReporter) TopDiagnosesByCost(_ context.Context) ([]model.LabeledValue, error) {
	return nil, nil
}

func (s stubReporter) TopProviders(_ context.Context) (model.Table, error) {
	return model.Table{Columns: []string{"provider_name", "charges", "n_claims"}, Rows: [][]any{{"Cedar Care", 2400.0, int64(3)}}}, nil
}

func (s stubReporter) OutlierClaims(_ context.Context) (model.Table, error) {
	return model.Table{Columns: []string{"claim_id"}}, nil
}

func (s stubReporter) TableSchema(_ context.Context) ([]model.ColumnInfo, error) {
	return []model.ColumnInfo{{Name: "claim_id", DataType: "bigint"}}, s.err
}

func (s stubReporter) SampleRows(_ context.Context, _ []model.ColumnInfo) (model.Table, error) {
	return model.Table{Columns: []string{"claim_id"}, Rows: [][]any{{int64(77)}}}, nil
}

type stubCreds struct{}

func (stubCreds) Valid(_ context.Context) (model.Credential, error) {
	return model.Credential{Token: "t", Source: model.CredentialSourceEnvPassword}, nil
}

func (stubCreds) Current() (model.Credential, bool) {
	return model.Credential{Token: "t", Source: model.CredentialSourceEnvPassword}, true
}

func (stubCreds) Invalidate() {}

type stubPool struct{}

func (stubPool) Ping(_ context.Context) error { return nil }
func (stubPool) Status() model.PoolStatus     { return model.PoolStatus{} }

func setupMux(reporter stubReporter, notes string) *http.ServeMux {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := application.NewReportService(reporter, stubCreds{}, stubPool{}, nil, 0, logger)
	mux := http.NewServeMux()
	RegisterRoutes(mux, NewHandler(svc, "reporting.claims_enriched", notes, logger))
	return mux
}

func get(mux http.Handler, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestDashboard_RendersFullReport(t *testing.T) {
	rec := get(setupMux(stubReporter{}, "**Data refreshed nightly**"), "/")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()

	assert.Contains(t, body, "<title>Claims Analytics</title>")
	assert.Contains(t, body, `<aside class="notes"><p><strong>Data refreshed nightly</strong></p>`)
	assert.Contains(t, body, "1,234")
	assert.Contains(t, body, "$98,765.50")
	assert.Contains(t, body, "30.0%")
	assert.Contains(t, body, "Claims by status")
	assert.Contains(t, body, "Acme Clinic (10 claims)")
	assert.Contains(t, body, "2025-01")
	assert.Contains(t, body, "<td>Cedar Care</td><td>2400</td><td>3</td>")
	assert.Contains(t, body, "&lt;b&gt;Asthma&lt;/b&gt;", "labels are escaped")
	assert.Contains(t, body, "credential: env_password")
}

func TestDashboard_NoNotesBanner(t *testing.T) {
	rec := get(setupMux(stubReporter{}, ""), "/")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `class="notes"`)
}

func TestDashboard_ErrorsRenderOnlyErrorPanel(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantText   string
	}{
		{
			name:       "credential",
			err:        &model.CredentialError{Err: model.ErrNoCredential},
			wantStatus: http.StatusServiceUnavailable,
			wantText:   "Warehouse credential unavailable",
		},
		{
			name:       "connection",
			err:        &model.ConnectionError{Op: "build pool", Err: errors.New("dial tcp: connection refused")},
			wantStatus: http.StatusServiceUnavailable,
			wantText:   "dial tcp: connection refused",
		},
		{
			name:       "query",
			err:        &model.QueryError{Query: "kpis", Err: errors.New(`relation "reporting.claims_enriched" does not exist`)},
			wantStatus: http.StatusInternalServerError,
			wantText:   "relation &#34;reporting.claims_enriched&#34; does not exist",
		},
		{
			name:       "other",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantText:   "Something went wrong",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(setupMux(stubReporter{err: tt.err}, ""), "/")

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := rec.Body.String()
			assert.Contains(t, body, `class="error"`)
			assert.Contains(t, body, tt.wantText)
			assert.NotContains(t, body, `class="kpis"`, "no partial dashboard")
			assert.NotContains(t, body, "Claims by status")
		})
	}
}

func TestExplore(t *testing.T) {
	rec := get(setupMux(stubReporter{}, ""), "/explore")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<h1>reporting.claims_enriched</h1>")
	assert.Contains(t, body, "<td>claim_id</td><td>bigint</td>")
	assert.Contains(t, body, "<td>77</td>")
}

func TestStaticAssets(t *testing.T) {
	rec := get(setupMux(stubReporter{}, ""), "/static/css/dashboard.css")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), ".kpi-value")
}
