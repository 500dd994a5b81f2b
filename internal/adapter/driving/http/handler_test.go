package httphandler_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httphandler "github.com/ericfisherdev/claimsdash/internal/adapter/driving/http"
	"github.com/ericfisherdev/claimsdash/internal/application"
	"github.com/ericfisherdev/claimsdash/internal/domain/model"
)

// --- Mock implementations ---

type mockReporter struct {
	err    error
	panics bool
}

func (m *mockReporter) KPIs(_ context.Context) (model.KPIs, error) {
	if m.panics {
		panic("boom")
	}
	return model.KPIs{TotalClaims: 10, TotalCharges: 5500, DistinctMembers: 9, DistinctProviders: 4, DenialRate: 0.3}, m.err
}

func (m *mockReporter) StatusCounts(_ context.Context) ([]model.LabeledValue, error) {
	return []model.LabeledValue{{Label: "denied", Value: 3}, {Label: "paid", Value: 7}}, nil
}

func (m *mockReporter) MonthlyTrend(_ context.Context) ([]model.TrendPoint, error) {
	return []model.TrendPoint{{Period: "2025-01", Charges: 600, DeniedAmount: 300}}, nil
}

func (m *mockReporter) TopDenialReasons(_ context.Context) ([]model.LabeledValue, error) {
	return nil, nil
}

func (m *mockReporter) ProviderDenialRates(_ context.Context) ([]model.ProviderDenialRate, error) {
	return []model.ProviderDenialRate{{Provider: "Acme Clinic", DenialRate: 0.5, Total: 4}}, nil
}

func (m *mockReporter) TopDiagnosesByCost(_ context.Context) ([]model.LabeledValue, error) {
	return []model.LabeledValue{{Label: "Flu", Value: 2400}}, nil
}

func (m *mockReporter) TopProviders(_ context.Context) (model.Table, error) {
	return model.Table{Columns: []string{"provider_name", "charges", "n_claims"}, Rows: [][]any{{"Cedar Care", 2400.0, int64(3)}}}, nil
}

func (m *mockReporter) OutlierClaims(_ context.Context) (model.Table, error) {
	return model.Table{}, nil
}

func (m *mockReporter) TableSchema(_ context.Context) ([]model.ColumnInfo, error) {
	return []model.ColumnInfo{{Name: "claim_id", DataType: "bigint"}, {Name: "claim_status", DataType: "text"}}, m.err
}

func (m *mockReporter) SampleRows(_ context.Context, _ []model.ColumnInfo) (model.Table, error) {
	return model.Table{Columns: []string{"claim_id", "claim_status"}, Rows: [][]any{{int64(1), "paid"}}}, nil
}

type mockCreds struct {
	cred  model.Credential
	fresh bool
}

func (m mockCreds) Valid(_ context.Context) (model.Credential, error) { return m.cred, nil }
func (m mockCreds) Current() (model.Credential, bool)                { return m.cred, m.fresh }
func (m mockCreds) Invalidate()                                      {}

type mockPool struct {
	err    error
	status model.PoolStatus
}

func (m mockPool) Ping(_ context.Context) error { return m.err }
func (m mockPool) Status() model.PoolStatus     { return m.status }

type mockHistory struct {
	records []model.RenderRecord
	err     error
	limit   int
}

func (m *mockHistory) Record(_ context.Context, rec model.RenderRecord) error {
	m.records = append(m.records, rec)
	return nil
}

func (m *mockHistory) ListRecent(_ context.Context, limit int) ([]model.RenderRecord, error) {
	m.limit = limit
	return m.records, m.err
}

func (m *mockHistory) Prune(_ context.Context, _ int) (int64, error) { return 0, nil }

var testCreds = mockCreds{
	cred:  model.Credential{Token: "tok", Source: model.CredentialSourceIdentityProvider},
	fresh: true,
}

// setupMux creates a mux with a real ReportService backed by mocks.
func setupMux(reporter *mockReporter, pool mockPool, history *mockHistory) http.Handler {
	svc := application.NewReportService(reporter, testCreds, pool, history, 100, slog.Default())
	h := httphandler.NewHandler(svc, slog.Default())
	return httphandler.NewServeMux(h, slog.Default())
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	err := json.NewDecoder(rec.Body).Decode(v)
	require.NoError(t, err)
}

func serve(mux http.Handler, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

// --- Tests ---

func TestGetReport(t *testing.T) {
	history := &mockHistory{}
	mux := setupMux(&mockReporter{}, mockPool{}, history)

	rec := serve(mux, "/api/v1/report")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	decodeJSON(t, rec, &resp)

	kpis, ok := resp["kpis"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(10), kpis["total_claims"])
	assert.Equal(t, 0.3, kpis["denial_rate"])

	reasons, ok := resp["top_denial_reasons"].([]any)
	require.True(t, ok, "nil slices become empty arrays")
	assert.Empty(t, reasons)

	outliers, ok := resp["outlier_claims"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []any{}, outliers["rows"])
	assert.Equal(t, []any{}, outliers["columns"])

	top, ok := resp["top_providers"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []any{"provider_name", "charges", "n_claims"}, top["columns"])
	assert.Equal(t, []any{[]any{"Cedar Care", 2400.0, float64(3)}}, top["rows"])

	assert.Equal(t, "identity_provider", resp["credential_source"])
	_, err := time.Parse(time.RFC3339, resp["generated_at"].(string))
	assert.NoError(t, err)

	require.Len(t, history.records, 1)
	assert.Equal(t, model.RenderOutcomeOK, history.records[0].Outcome)
}

func TestGetReport_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   string
		wantError  string
	}{
		{
			name:       "credential",
			err:        &model.CredentialError{Err: model.ErrNoCredential},
			wantStatus: http.StatusServiceUnavailable,
			wantKind:   "credential",
		},
		{
			name:       "connection",
			err:        &model.ConnectionError{Op: "build pool", Err: errors.New("connection refused")},
			wantStatus: http.StatusServiceUnavailable,
			wantKind:   "connection",
		},
		{
			name:       "query",
			err:        &model.QueryError{Query: "kpis", Err: errors.New(`ERROR: column "total_charge" does not exist (SQLSTATE 42703)`)},
			wantStatus: http.StatusInternalServerError,
			wantKind:   "query",
			wantError:  `ERROR: column "total_charge" does not exist (SQLSTATE 42703)`,
		},
		{
			name:       "unclassified",
			err:        errors.New("something odd"),
			wantStatus: http.StatusInternalServerError,
			wantError:  "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := setupMux(&mockReporter{err: tt.err}, mockPool{}, &mockHistory{})

			rec := serve(mux, "/api/v1/report")

			assert.Equal(t, tt.wantStatus, rec.Code)
			var resp map[string]any
			decodeJSON(t, rec, &resp)
			assert.NotContains(t, resp, "kpis", "no partial report on failure")
			if tt.wantKind != "" {
				assert.Equal(t, tt.wantKind, resp["kind"])
			}
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, resp["error"])
			}
		})
	}
}

func TestGetExploration(t *testing.T) {
	mux := setupMux(&mockReporter{}, mockPool{}, &mockHistory{})

	rec := serve(mux, "/api/v1/explore")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp httphandler.ExploreResponse
	decodeJSON(t, rec, &resp)
	assert.Equal(t, []httphandler.ColumnResponse{
		{Name: "claim_id", DataType: "bigint"},
		{Name: "claim_status", DataType: "text"},
	}, resp.Schema)
	assert.Equal(t, []string{"claim_id", "claim_status"}, resp.Sample.Columns)
	require.Len(t, resp.Sample.Rows, 1)
}

func TestListRenders(t *testing.T) {
	started := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	history := &mockHistory{records: []model.RenderRecord{{
		ID:               "r1",
		StartedAt:        started,
		Duration:         1500 * time.Millisecond,
		Outcome:          model.RenderOutcomeQueryError,
		Error:            "query kpis: boom",
		CredentialSource: model.CredentialSourceEnvPassword,
	}}}
	mux := setupMux(&mockReporter{}, mockPool{}, history)

	rec := serve(mux, "/api/v1/renders?limit=5")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, history.limit)
	var resp []httphandler.RenderResponse
	decodeJSON(t, rec, &resp)
	require.Len(t, resp, 1)
	assert.Equal(t, httphandler.RenderResponse{
		ID:               "r1",
		StartedAt:        "2026-03-01T09:00:00Z",
		DurationMS:       1500,
		Outcome:          "query_error",
		Error:            "query kpis: boom",
		CredentialSource: "env_password",
	}, resp[0])
}

func TestListRenders_BadRequests(t *testing.T) {
	for _, q := range []string{"abc", "0", "-3"} {
		t.Run(q, func(t *testing.T) {
			mux := setupMux(&mockReporter{}, mockPool{}, &mockHistory{})

			rec := serve(mux, "/api/v1/renders?limit="+q)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestListRenders_StoreError(t *testing.T) {
	mux := setupMux(&mockReporter{}, mockPool{}, &mockHistory{err: errors.New("db fail")})

	rec := serve(mux, "/api/v1/renders")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		pool       mockPool
		wantStatus int
		wantBody   string
	}{
		{
			name:       "healthy",
			pool:       mockPool{status: model.PoolStatus{Built: true, TotalConns: 2, IdleConns: 2, MaxConns: 10}},
			wantStatus: http.StatusOK,
			wantBody:   "ok",
		},
		{
			name:       "warehouse down",
			pool:       mockPool{err: &model.ConnectionError{Op: "build pool", Err: errors.New("refused")}},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   "unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := setupMux(&mockReporter{}, tt.pool, &mockHistory{})

			rec := serve(mux, "/api/v1/health")

			assert.Equal(t, tt.wantStatus, rec.Code)
			var resp httphandler.HealthResponse
			decodeJSON(t, rec, &resp)
			assert.Equal(t, tt.wantBody, resp.Status)
			assert.Equal(t, "identity_provider", resp.CredentialSource)
			assert.True(t, resp.CredentialFresh)
			assert.Equal(t, tt.pool.status.MaxConns, resp.Pool.MaxConns)
		})
	}
}

func TestLive(t *testing.T) {
	pool := mockPool{err: &model.ConnectionError{Op: "build pool", Err: errors.New("refused")}}
	mux := setupMux(&mockReporter{}, pool, &mockHistory{})

	rec := serve(mux, "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	decodeJSON(t, rec, &resp)
	assert.Equal(t, "ok", resp["status"])
}

func TestRecoveryMiddleware(t *testing.T) {
	mux := setupMux(&mockReporter{panics: true}, mockPool{}, &mockHistory{})

	rec := serve(mux, "/api/v1/report")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var resp map[string]any
	decodeJSON(t, rec, &resp)
	assert.Equal(t, "internal server error", resp["error"])
}

func TestUnknownRoute(t *testing.T) {
	mux := setupMux(&mockReporter{}, mockPool{}, &mockHistory{})

	rec := serve(mux, "/api/v1/prs")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
