// Package web implements the HTML GUI driving adapter using templ components.
package web

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"

	"github.com/ericfisherdev/claimsdash/internal/adapter/driving/web/templates"
	"github.com/ericfisherdev/claimsdash/internal/adapter/driving/web/templates/pages"
	vm "github.com/ericfisherdev/claimsdash/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/claimsdash/internal/application"
	"github.com/ericfisherdev/claimsdash/internal/domain/model"
)

const pageTitle = "Claims Analytics"

// Handler is the web GUI driving adapter that serves HTML via templ components.
type Handler struct {
	reportSvc *application.ReportService
	tableName string
	notesHTML string
	logger    *slog.Logger
}

// NewHandler creates a Handler. notes is operator markdown shown above every
// page; it is rendered and sanitized once here.
func NewHandler(reportSvc *application.ReportService, tableName, notes string, logger *slog.Logger) *Handler {
	return &Handler{
		reportSvc: reportSvc,
		tableName: tableName,
		notesHTML: RenderMarkdown(notes),
		logger:    logger,
	}
}

// Dashboard renders the full dashboard. Any failure renders only the error
// panel so a partial dashboard is never shown.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	report, err := h.reportSvc.Render(r.Context())
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK, pages.Dashboard(toDashboardViewModel(report, h.notesHTML)))
}

// Explore renders the reporting table's schema and sample rows.
func (h *Handler) Explore(w http.ResponseWriter, r *http.Request) {
	exploration, err := h.reportSvc.Explore(r.Context())
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK, pages.Explore(toExploreViewModel(exploration, h.tableName, h.notesHTML)))
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	status, view := toErrorViewModel(err)
	if status == http.StatusInternalServerError && view.Detail == "" {
		h.logger.ErrorContext(r.Context(), "page render failed", "path", r.URL.Path, "error", err)
	}
	h.render(w, r, status, pages.Error(view))
}

// render buffers the page so a template failure can still produce a clean 500.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, body templ.Component) {
	layout := templates.Layout(pageTitle, body)

	var buf bytes.Buffer
	if err := layout.Render(r.Context(), &buf); err != nil {
		h.logger.Error("failed to render page", "path", r.URL.Path, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// toErrorViewModel maps the error taxonomy onto a status code and error panel.
// Query failures show the driver's message verbatim.
func toErrorViewModel(err error) (int, vm.ErrorViewModel) {
	var (
		credErr  *model.CredentialError
		connErr  *model.ConnectionError
		queryErr *model.QueryError
	)

	switch {
	case errors.As(err, &credErr):
		return http.StatusServiceUnavailable, vm.ErrorViewModel{
			Title:   "Warehouse credential unavailable",
			Message: "No identity token or PGPASSWORD could be obtained.",
			Detail:  err.Error(),
		}
	case errors.As(err, &connErr):
		return http.StatusServiceUnavailable, vm.ErrorViewModel{
			Title:   "Warehouse unreachable",
			Message: "Could not connect to the reporting warehouse.",
			Detail:  err.Error(),
		}
	case errors.As(err, &queryErr):
		return http.StatusInternalServerError, vm.ErrorViewModel{
			Title:   "Report query failed",
			Message: "Query " + queryErr.Query + " failed.",
			Detail:  queryErr.Err.Error(),
		}
	default:
		return http.StatusInternalServerError, vm.ErrorViewModel{
			Title:   "Something went wrong",
			Message: "The page could not be rendered.",
		}
	}
}
