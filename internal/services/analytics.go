package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"olist-dashboard/internal/models"
)

// globalViews are the filter-independent derived views. They are pure
// functions of the unfiltered dataset, so they are computed once at load.
type globalViews struct {
	pareto   []models.CategoryRevenue
	topSet   []string
	payments []models.CategoryPayment
	trends   []models.PaymentShare
	facets   models.Facets
}

// Analytics holds the cleaned dataset for the process lifetime. The base
// snapshot is never mutated after load; every view method returns freshly
// computed values, so concurrent readers need no coordination beyond the
// snapshot swap lock.
type Analytics struct {
	mu       sync.RWMutex
	base     []models.Transaction
	global   globalViews
	csvPath  string
	loadedAt time.Time
	logger   *slog.Logger
}

func NewAnalytics() *Analytics {
	return &Analytics{
		logger: slog.Default(),
	}
}

// LoadFromCSV validates, cleans and installs the dataset. A failed load
// leaves any previously installed snapshot untouched.
func (a *Analytics) LoadFromCSV(ctx context.Context, filename string) error {
	start := time.Now()
	a.logger.Info("loading dataset", "filename", filename)

	cleaned, err := loadCSV(ctx, filename)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}

	a.install(cleaned, filename)

	duration := time.Since(start)
	a.logger.Info("dataset loaded",
		"records", len(cleaned),
		"duration", duration,
		"rate", fmt.Sprintf("%.0f records/sec", float64(len(cleaned))/duration.Seconds()))
	return nil
}

// SetData installs an already-cleaned dataset directly. Test seam.
func (a *Analytics) SetData(data []models.Transaction) {
	a.install(data, "")
}

func (a *Analytics) install(data []models.Transaction, path string) {
	topSet := topCategorySet(data)
	global := globalViews{
		pareto:   categoryPareto(data),
		topSet:   topSet,
		payments: categoryPaymentBreakdown(data, topSet),
		trends:   paymentTimeDistribution(data),
		facets:   computeFacets(data),
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.base = data
	a.global = global
	a.csvPath = path
	a.loadedAt = time.Now()
}

func (a *Analytics) snapshot() []models.Transaction {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.base
}

// Summary computes the scalar metrics over the filtered set.
func (a *Analytics) Summary(sel models.Selection) models.Summary {
	return summarize(filterTransactions(a.snapshot(), sel))
}

// Monthly computes the (year, month) aggregates over the filtered set.
func (a *Analytics) Monthly(sel models.Selection) []models.MonthlyAggregate {
	return monthlyAggregates(filterTransactions(a.snapshot(), sel))
}

// CategoryPareto always reflects the unfiltered dataset: the chart compares
// the global top categories against whatever slice is selected.
func (a *Analytics) CategoryPareto() []models.CategoryRevenue {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.global.pareto
}

// TopCategorySet is the minimal ranking prefix holding at most 80% of
// category revenue over the unfiltered dataset.
func (a *Analytics) TopCategorySet() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.global.topSet
}

// CategoryPayments is the treemap breakdown, restricted to TopCategorySet.
func (a *Analytics) CategoryPayments() []models.CategoryPayment {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.global.payments
}

// PaymentTrends is the month-by-payment-method percentage matrix.
func (a *Analytics) PaymentTrends() []models.PaymentShare {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.global.trends
}

// Facets lists the selectable filter values.
func (a *Analytics) Facets() models.Facets {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.global.facets
}

// Stats exposes load metadata for the admin endpoint.
func (a *Analytics) Stats() map[string]any {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return map[string]any{
		"record_count": len(a.base),
		"loaded_at":    a.loadedAt,
		"source":       a.csvPath,
		"categories":   len(a.global.facets.Categories),
		"years":        len(a.global.facets.Years),
		"top_set_size": len(a.global.topSet),
	}
}
