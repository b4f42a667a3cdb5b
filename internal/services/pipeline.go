package services

import (
	"math"
	"slices"
	"strconv"
	"strings"

	"olist-dashboard/internal/models"
)

const (
	topCategoryCount = 10
	paretoThreshold  = 80.0
)

// filterTransactions projects the base dataset onto a selection. It never
// mutates the input; applying the same selection twice yields identical
// results.
func filterTransactions(base []models.Transaction, sel models.Selection) []models.Transaction {
	if sel.YearIsAll() && sel.CategoryIsAll() {
		return slices.Clone(base)
	}

	year := -1
	if !sel.YearIsAll() {
		y, err := strconv.Atoi(sel.Year)
		if err != nil {
			return []models.Transaction{}
		}
		year = y
	}

	out := make([]models.Transaction, 0, len(base))
	for _, tx := range base {
		if year >= 0 && tx.Year() != year {
			continue
		}
		if !sel.CategoryIsAll() && tx.Category != sel.Category {
			continue
		}
		out = append(out, tx)
	}
	return out
}

// monthlyAggregates groups the filtered set by calendar month: distinct
// order count plus summed item value, ascending by (year, month).
func monthlyAggregates(txs []models.Transaction) []models.MonthlyAggregate {
	type monthGroup struct {
		orders  map[string]struct{}
		revenue float64
	}

	groups := make(map[int]*monthGroup)
	for _, tx := range txs {
		key := tx.Year()*100 + int(tx.PurchasedAt.Month())
		g := groups[key]
		if g == nil {
			g = &monthGroup{orders: make(map[string]struct{})}
			groups[key] = g
		}
		g.orders[tx.OrderID] = struct{}{}
		if tx.ItemValue != nil {
			g.revenue += *tx.ItemValue
		}
	}

	keys := make([]int, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	out := make([]models.MonthlyAggregate, 0, len(keys))
	for _, key := range keys {
		g := groups[key]
		out = append(out, models.MonthlyAggregate{
			Year:    key / 100,
			Month:   key % 100,
			Orders:  len(g.orders),
			Revenue: g.revenue,
		})
	}
	return out
}

// categoryRanking sums item value per non-null category and sorts descending.
// Ties keep first-appearance order, which the stable sort preserves because
// the slice is built in encounter order.
func categoryRanking(txs []models.Transaction) []models.CategoryRevenue {
	sums := make(map[string]float64)
	var order []string

	for _, tx := range txs {
		if tx.Category == "" || tx.ItemValue == nil {
			continue
		}
		if _, seen := sums[tx.Category]; !seen {
			order = append(order, tx.Category)
		}
		sums[tx.Category] += *tx.ItemValue
	}

	ranking := make([]models.CategoryRevenue, 0, len(order))
	for _, category := range order {
		ranking = append(ranking, models.CategoryRevenue{
			Category: category,
			Revenue:  sums[category],
		})
	}

	slices.SortStableFunc(ranking, func(a, b models.CategoryRevenue) int {
		if a.Revenue > b.Revenue {
			return -1
		}
		if a.Revenue < b.Revenue {
			return 1
		}
		return 0
	})
	return ranking
}

// categoryPareto is the top-10 ranking paired with a cumulative percentage
// over the whole dataset's item value total, null categories included. The
// last cumulative value is therefore generally below 100.
func categoryPareto(txs []models.Transaction) []models.CategoryRevenue {
	ranking := categoryRanking(txs)
	if len(ranking) > topCategoryCount {
		ranking = ranking[:topCategoryCount]
	}

	total := datasetValueTotal(txs)
	running := 0.0
	for i := range ranking {
		running += ranking[i].Revenue
		if total > 0 {
			ranking[i].CumulativePct = running / total * 100
		}
	}
	return ranking
}

// topCategorySet is the prefix of the full ranking whose cumulative revenue
// share stays at or below the threshold. The denominator is the ranking's
// own total, not the dataset total. The first category to cross the
// threshold is excluded, so the set is empty when the top category alone
// exceeds it.
func topCategorySet(txs []models.Transaction) []string {
	ranking := categoryRanking(txs)

	total := 0.0
	for _, r := range ranking {
		total += r.Revenue
	}
	if total <= 0 {
		return []string{}
	}

	set := make([]string, 0, len(ranking))
	running := 0.0
	for _, r := range ranking {
		running += r.Revenue
		if running/total*100 > paretoThreshold {
			break
		}
		set = append(set, r.Category)
	}
	return set
}

// categoryPaymentBreakdown restricts the dataset to the given category set
// and groups by (category, payment method). Revenue shares are relative to
// the breakdown's own total, rounded to two decimals.
func categoryPaymentBreakdown(txs []models.Transaction, categories []string) []models.CategoryPayment {
	included := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		included[c] = struct{}{}
	}

	type pairGroup struct {
		category string
		payment  string
		revenue  float64
		orders   int
	}

	groups := make(map[string]*pairGroup)
	for _, tx := range txs {
		if _, ok := included[tx.Category]; !ok {
			continue
		}
		key := tx.Category + "\x00" + tx.PaymentMethod
		g := groups[key]
		if g == nil {
			g = &pairGroup{category: tx.Category, payment: tx.PaymentMethod}
			groups[key] = g
		}
		g.orders++
		if tx.ItemValue != nil {
			g.revenue += *tx.ItemValue
		}
	}

	total := 0.0
	for _, g := range groups {
		total += g.revenue
	}

	out := make([]models.CategoryPayment, 0, len(groups))
	for _, g := range groups {
		pct := 0.0
		if total > 0 {
			pct = round2(g.revenue / total * 100)
		}
		out = append(out, models.CategoryPayment{
			Category:      g.category,
			PaymentMethod: g.payment,
			Revenue:       g.revenue,
			Orders:        g.orders,
			RevenuePct:    pct,
		})
	}

	slices.SortFunc(out, func(a, b models.CategoryPayment) int {
		if c := strings.Compare(a.Category, b.Category); c != 0 {
			return c
		}
		return strings.Compare(a.PaymentMethod, b.PaymentMethod)
	})
	return out
}

// paymentTimeDistribution pivots record counts by (month period, payment
// method) and normalizes each period's row to 100%. Periods with no records
// are simply absent.
func paymentTimeDistribution(txs []models.Transaction) []models.PaymentShare {
	counts := make(map[string]map[string]int)
	for _, tx := range txs {
		period := tx.Period()
		if counts[period] == nil {
			counts[period] = make(map[string]int)
		}
		counts[period][tx.PaymentMethod]++
	}

	periods := make([]string, 0, len(counts))
	for period := range counts {
		periods = append(periods, period)
	}
	slices.Sort(periods)

	out := make([]models.PaymentShare, 0, len(txs))
	for _, period := range periods {
		row := counts[period]

		rowTotal := 0
		for _, n := range row {
			rowTotal += n
		}

		methods := make([]string, 0, len(row))
		for method := range row {
			methods = append(methods, method)
		}
		slices.Sort(methods)

		for _, method := range methods {
			out = append(out, models.PaymentShare{
				Period:        period,
				PaymentMethod: method,
				Pct:           float64(row[method]) / float64(rowTotal) * 100,
			})
		}
	}
	return out
}

// summarize computes the four scalar metrics over the filtered set. Means
// skip nulls; with no samples they are reported as zero rather than NaN.
func summarize(txs []models.Transaction) models.Summary {
	orders := make(map[string]struct{})
	revenue := 0.0
	valueSamples := 0
	reviewSum := 0.0
	reviewSamples := 0

	for _, tx := range txs {
		orders[tx.OrderID] = struct{}{}
		if tx.ItemValue != nil {
			revenue += *tx.ItemValue
			valueSamples++
		}
		if tx.ReviewScore != nil {
			reviewSum += *tx.ReviewScore
			reviewSamples++
		}
	}

	s := models.Summary{
		Orders:  len(orders),
		Revenue: revenue,
	}
	if valueSamples > 0 {
		s.AvgOrderValue = revenue / float64(valueSamples)
	}
	if reviewSamples > 0 {
		s.AvgReviewScore = reviewSum / float64(reviewSamples)
	}
	return s
}

// computeFacets lists the distinct years and non-null categories available
// for filtering, sorted ascending.
func computeFacets(txs []models.Transaction) models.Facets {
	yearSet := make(map[int]struct{})
	categorySet := make(map[string]struct{})
	for _, tx := range txs {
		yearSet[tx.Year()] = struct{}{}
		if tx.Category != "" {
			categorySet[tx.Category] = struct{}{}
		}
	}

	years := make([]int, 0, len(yearSet))
	for y := range yearSet {
		years = append(years, y)
	}
	slices.Sort(years)

	categories := make([]string, 0, len(categorySet))
	for c := range categorySet {
		categories = append(categories, c)
	}
	slices.Sort(categories)

	return models.Facets{Years: years, Categories: categories}
}

func datasetValueTotal(txs []models.Transaction) float64 {
	total := 0.0
	for _, tx := range txs {
		if tx.ItemValue != nil {
			total += *tx.ItemValue
		}
	}
	return total
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
