package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericfisherdev/claimsdash/internal/application"
	"github.com/ericfisherdev/claimsdash/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body. Kind is one of
// credential, connection or query for render failures.
type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
	Query string `json:"query,omitempty"`
}

// KPIResponse is the JSON representation of the headline figures.
type KPIResponse struct {
	TotalClaims       int64   `json:"total_claims"`
	TotalCharges      float64 `json:"total_charges"`
	DistinctMembers   int64   `json:"distinct_members"`
	DistinctProviders int64   `json:"distinct_providers"`
	DenialRate        float64 `json:"denial_rate"`
}

// LabeledValueResponse is one bar of a categorical chart.
type LabeledValueResponse struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// TrendPointResponse is one month of the charges trend.
type TrendPointResponse struct {
	Period       string  `json:"period"`
	Charges      float64 `json:"charges"`
	DeniedAmount float64 `json:"denied_amount"`
}

// ProviderDenialRateResponse is one provider's denial rate.
type ProviderDenialRateResponse struct {
	Provider   string  `json:"provider"`
	DenialRate float64 `json:"denial_rate"`
	Total      int64   `json:"total"`
}

// TableResponse is a tabular result with explicit column names.
type TableResponse struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// ReportResponse is the JSON representation of one dashboard render.
type ReportResponse struct {
	KPIs                KPIResponse                  `json:"kpis"`
	StatusCounts        []LabeledValueResponse       `json:"status_counts"`
	MonthlyTrend        []TrendPointResponse         `json:"monthly_trend"`
	TopDenialReasons    []LabeledValueResponse       `json:"top_denial_reasons"`
	ProviderDenialRates []ProviderDenialRateResponse `json:"provider_denial_rates"`
	TopDiagnosesByCost  []LabeledValueResponse       `json:"top_diagnoses_by_cost"`
	TopProviders        TableResponse                `json:"top_providers"`
	OutlierClaims       TableResponse                `json:"outlier_claims"`
	CredentialSource    string                       `json:"credential_source"`
	GeneratedAt         string                       `json:"generated_at"`
}

// ColumnResponse describes one column of the reporting table.
type ColumnResponse struct {
	Name     string `json:"name"`
	DataType string `json:"data_type"`
}

// ExploreResponse is the raw table viewer.
type ExploreResponse struct {
	Schema []ColumnResponse `json:"schema"`
	Sample TableResponse    `json:"sample"`
}

// RenderResponse is the JSON representation of a render history record.
type RenderResponse struct {
	ID               string `json:"id"`
	StartedAt        string `json:"started_at"`
	DurationMS       int64  `json:"duration_ms"`
	Outcome          string `json:"outcome"`
	Error            string `json:"error,omitempty"`
	CredentialSource string `json:"credential_source,omitempty"`
}

// PoolResponse is the JSON representation of the connection pool state.
type PoolResponse struct {
	Built         bool  `json:"built"`
	TotalConns    int32 `json:"total_conns"`
	IdleConns     int32 `json:"idle_conns"`
	AcquiredConns int32 `json:"acquired_conns"`
	MaxConns      int32 `json:"max_conns"`
}

// HealthResponse is the JSON body of GET /api/v1/health.
type HealthResponse struct {
	Status           string       `json:"status"`
	Error            string       `json:"error,omitempty"`
	CredentialSource string       `json:"credential_source,omitempty"`
	CredentialFresh  bool         `json:"credential_fresh"`
	Pool             PoolResponse `json:"pool"`
}

func toReportResponse(r *model.Report) ReportResponse {
	resp := ReportResponse{
		KPIs: KPIResponse{
			TotalClaims:       r.KPIs.TotalClaims,
			TotalCharges:      r.KPIs.TotalCharges,
			DistinctMembers:   r.KPIs.DistinctMembers,
			DistinctProviders: r.KPIs.DistinctProviders,
			DenialRate:        r.KPIs.DenialRate,
		},
		StatusCounts:        toLabeledValues(r.StatusCounts),
		MonthlyTrend:        make([]TrendPointResponse, 0, len(r.MonthlyTrend)),
		TopDenialReasons:    toLabeledValues(r.TopDenialReasons),
		ProviderDenialRates: make([]ProviderDenialRateResponse, 0, len(r.ProviderDenialRates)),
		TopDiagnosesByCost:  toLabeledValues(r.TopDiagnosesByCost),
		TopProviders:        toTableResponse(r.TopProviders),
		OutlierClaims:       toTableResponse(r.OutlierClaims),
		CredentialSource:    string(r.CredentialSource),
		GeneratedAt:         r.GeneratedAt.UTC().Format(time.RFC3339),
	}

	for _, p := range r.MonthlyTrend {
		resp.MonthlyTrend = append(resp.MonthlyTrend, TrendPointResponse{
			Period:       p.Period,
			Charges:      p.Charges,
			DeniedAmount: p.DeniedAmount,
		})
	}
	for _, p := range r.ProviderDenialRates {
		resp.ProviderDenialRates = append(resp.ProviderDenialRates, ProviderDenialRateResponse{
			Provider:   p.Provider,
			DenialRate: p.DenialRate,
			Total:      p.Total,
		})
	}

	return resp
}

func toLabeledValues(values []model.LabeledValue) []LabeledValueResponse {
	resp := make([]LabeledValueResponse, 0, len(values))
	for _, v := range values {
		resp = append(resp, LabeledValueResponse{Label: v.Label, Value: v.Value})
	}
	return resp
}

func toTableResponse(t model.Table) TableResponse {
	resp := TableResponse{Columns: t.Columns, Rows: t.Rows}
	if resp.Columns == nil {
		resp.Columns = []string{}
	}
	if resp.Rows == nil {
		resp.Rows = [][]any{}
	}
	return resp
}

func toExploreResponse(e *model.Exploration) ExploreResponse {
	resp := ExploreResponse{
		Schema: make([]ColumnResponse, 0, len(e.Schema)),
		Sample: toTableResponse(e.Sample),
	}
	for _, c := range e.Schema {
		resp.Schema = append(resp.Schema, ColumnResponse{Name: c.Name, DataType: c.DataType})
	}
	return resp
}

func toRenderResponse(rec model.RenderRecord) RenderResponse {
	return RenderResponse{
		ID:               rec.ID,
		StartedAt:        rec.StartedAt.UTC().Format(time.RFC3339),
		DurationMS:       rec.Duration.Milliseconds(),
		Outcome:          string(rec.Outcome),
		Error:            rec.Error,
		CredentialSource: string(rec.CredentialSource),
	}
}

func toHealthResponse(h application.WarehouseHealth) HealthResponse {
	status := "ok"
	if !h.OK {
		status = "unavailable"
	}
	return HealthResponse{
		Status:           status,
		Error:            h.Error,
		CredentialSource: string(h.CredentialSource),
		CredentialFresh:  h.CredentialFresh,
		Pool: PoolResponse{
			Built:         h.Pool.Built,
			TotalConns:    h.Pool.TotalConns,
			IdleConns:     h.Pool.IdleConns,
			AcquiredConns: h.Pool.AcquiredConns,
			MaxConns:      h.Pool.MaxConns,
		},
	}
}
