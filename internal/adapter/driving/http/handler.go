package httphandler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ericfisherdev/claimsdash/internal/application"
	"github.com/ericfisherdev/claimsdash/internal/domain/model"
)

// defaultRenderLimit is the page size of GET /api/v1/renders without ?limit.
const defaultRenderLimit = 50

// Handler is the HTTP driving adapter that serves the JSON API.
type Handler struct {
	reportSvc *application.ReportService
	logger    *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(reportSvc *application.ReportService, logger *slog.Logger) *Handler {
	return &Handler{
		reportSvc: reportSvc,
		logger:    logger,
	}
}

// RegisterRoutes registers the API routes on mux.
func RegisterRoutes(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("GET /api/v1/report", h.GetReport)
	mux.HandleFunc("GET /api/v1/explore", h.GetExploration)
	mux.HandleFunc("GET /api/v1/renders", h.ListRenders)
	mux.HandleFunc("GET /api/v1/health", h.Health)
	mux.HandleFunc("GET /healthz", h.Live)
}

// NewServeMux creates an http.Handler with the API routes registered and
// wrapped with logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	RegisterRoutes(mux, h)
	return Wrap(mux, logger)
}

// Wrap applies the recovery and logging middleware to next.
func Wrap(next http.Handler, logger *slog.Logger) http.Handler {
	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, next)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// GetReport renders the dashboard report. A failed render returns only the
// error; partial results are never sent.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.reportSvc.Render(r.Context())
	if err != nil {
		h.writeRenderError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toReportResponse(report))
}

// GetExploration returns the reporting table's schema and sample rows.
func (h *Handler) GetExploration(w http.ResponseWriter, r *http.Request) {
	exploration, err := h.reportSvc.Explore(r.Context())
	if err != nil {
		h.writeRenderError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toExploreResponse(exploration))
}

// ListRenders returns the most recent render records, newest first.
func (h *Handler) ListRenders(w http.ResponseWriter, r *http.Request) {
	limit := defaultRenderLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	records, err := h.reportSvc.RecentRenders(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list renders", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]RenderResponse, 0, len(records))
	for _, rec := range records {
		resp = append(resp, toRenderResponse(rec))
	}

	writeJSON(w, http.StatusOK, resp)
}

// Health pings the warehouse and reports credential and pool state.
// It answers 503 when the warehouse is unreachable.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	health := h.reportSvc.Health(r.Context())

	status := http.StatusOK
	if !health.OK {
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, toHealthResponse(health))
}

// Live reports that the process is serving. It never touches the warehouse,
// so a warehouse outage does not restart the container.
func (h *Handler) Live(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeRenderError maps the error taxonomy onto HTTP status codes. Credential
// and connection failures are 503; query failures are 500 and carry the
// driver's message verbatim.
func (h *Handler) writeRenderError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		credErr  *model.CredentialError
		connErr  *model.ConnectionError
		queryErr *model.QueryError
	)

	switch {
	case errors.As(err, &credErr):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error(), Kind: "credential"})
	case errors.As(err, &connErr):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error(), Kind: "connection"})
	case errors.As(err, &queryErr):
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: queryErr.Err.Error(), Kind: "query", Query: queryErr.Query})
	default:
		h.logger.ErrorContext(r.Context(), "render failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
