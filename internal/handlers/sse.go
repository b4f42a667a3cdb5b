package handlers

import (
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/starfederation/datastar-go/datastar"

	"olist-dashboard/internal/errors"
	"olist-dashboard/internal/models"
	"olist-dashboard/internal/observability"
	"olist-dashboard/internal/services"
)

var metricsTemplate = template.Must(template.New("metrics").Parse(`
<div id="metrics-content" class="metrics-row">
<div class="metric-card"><span class="metric-label">Total Orders</span><strong>{{.Orders}}</strong></div>
<div class="metric-card"><span class="metric-label">Total Revenue</span><strong>${{printf "%.0f" .Revenue}}</strong></div>
<div class="metric-card"><span class="metric-label">Avg Order Value</span><strong>${{printf "%.2f" .AvgOrderValue}}</strong></div>
<div class="metric-card"><span class="metric-label">Customer Satisfaction</span><strong>{{printf "%.2f" .AvgReviewScore}}/5.0</strong></div>
</div>`))

type SSEHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewSSEHandlers(analytics *services.Analytics, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

func (h *SSEHandlers) renderMetrics(summary models.Summary) (string, error) {
	var buf strings.Builder
	err := metricsTemplate.Execute(&buf, summary)
	return buf.String(), err
}

// HandleRefresh recomputes every view for the requested selection and
// patches the whole dashboard in one event stream. The client hits this on
// page load and on every filter change.
func (h *SSEHandlers) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	sel, err := selectionFromRequest(r)
	if err != nil {
		errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
		return
	}

	sse := datastar.NewSSE(w, r)

	html, err := h.renderMetrics(h.analytics.Summary(sel))
	if err != nil {
		h.logger.Error("render metrics", "error", err)
		return
	}
	sse.PatchElements(html)

	signals, err := json.Marshal(map[string]any{
		"selection":   sel,
		"monthlyData": h.analytics.Monthly(sel),
		"paretoData":  h.analytics.CategoryPareto(),
		"treemapData": h.analytics.CategoryPayments(),
		"heatmapData": h.analytics.PaymentTrends(),
		"facets":      h.analytics.Facets(),
	})
	if err != nil {
		h.logger.Error("marshal dashboard signals", "error", err)
		return
	}
	sse.PatchSignals(signals)

	sse.PatchElements(fmt.Sprintf(
		`<div id="refresh-status">charts updated for year=%s category=%s</div>`,
		template.HTMLEscapeString(orAll(sel.Year)),
		template.HTMLEscapeString(orAll(sel.Category)),
	))

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// HandleMonthly streams only the filtered monthly series, for the trend
// panel's own refresh button.
func (h *SSEHandlers) HandleMonthly(w http.ResponseWriter, r *http.Request) {
	sel, err := selectionFromRequest(r)
	if err != nil {
		errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
		return
	}

	sse := datastar.NewSSE(w, r)

	signals, err := json.Marshal(map[string]any{
		"monthlyData": h.analytics.Monthly(sel),
	})
	if err != nil {
		h.logger.Error("marshal monthly data", "error", err)
		return
	}
	sse.PatchSignals(signals)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func orAll(v string) string {
	if v == "" {
		return models.AllValues
	}
	return v
}
