package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"olist-dashboard/internal/errors"
	"olist-dashboard/internal/models"
	"olist-dashboard/internal/observability"
	"olist-dashboard/internal/services"
)

const cacheControl = "public, max-age=300"

type APIHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewAPIHandlers(analytics *services.Analytics, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

// selectionFromRequest reads the filter dimensions from the query string.
// An absent or "all" value means no restriction; any other year value must
// be an integer.
func selectionFromRequest(r *http.Request) (models.Selection, error) {
	sel := models.Selection{
		Year:     r.URL.Query().Get("year"),
		Category: r.URL.Query().Get("category"),
	}

	if !sel.YearIsAll() {
		if _, err := strconv.Atoi(sel.Year); err != nil {
			return sel, errors.BadRequest("year must be an integer or \"all\"")
		}
	}
	return sel, nil
}

func (h *APIHandlers) HandleSummary(w http.ResponseWriter, r *http.Request) {
	sel, err := selectionFromRequest(r)
	if err != nil {
		errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
		return
	}

	errors.WriteSuccess(w, h.analytics.Summary(sel))
}

func (h *APIHandlers) HandleMonthly(w http.ResponseWriter, r *http.Request) {
	sel, err := selectionFromRequest(r)
	if err != nil {
		errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
		return
	}

	errors.WriteSuccess(w, h.analytics.Monthly(sel))
}

func (h *APIHandlers) HandleCategoryPareto(w http.ResponseWriter, r *http.Request) {
	headers := map[string]string{
		"Cache-Control": cacheControl,
	}

	errors.WriteSuccessWithHeaders(w, h.analytics.CategoryPareto(), headers)
}

func (h *APIHandlers) HandleCategoryPayments(w http.ResponseWriter, r *http.Request) {
	headers := map[string]string{
		"Cache-Control": cacheControl,
	}

	errors.WriteSuccessWithHeaders(w, h.analytics.CategoryPayments(), headers)
}

func (h *APIHandlers) HandlePaymentTrends(w http.ResponseWriter, r *http.Request) {
	headers := map[string]string{
		"Cache-Control": cacheControl,
	}

	errors.WriteSuccessWithHeaders(w, h.analytics.PaymentTrends(), headers)
}

func (h *APIHandlers) HandleFacets(w http.ResponseWriter, r *http.Request) {
	headers := map[string]string{
		"Cache-Control": cacheControl,
	}

	errors.WriteSuccessWithHeaders(w, h.analytics.Facets(), headers)
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	healthData := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	}

	errors.WriteSuccess(w, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, h.analytics.Stats())
}
