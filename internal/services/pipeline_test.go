package services

import (
	"math"
	"reflect"
	"testing"
	"time"

	"olist-dashboard/internal/models"
)

const floatTolerance = 1e-9

func tx(order string, date time.Time, category string, value *float64, payment string) models.Transaction {
	return models.Transaction{
		OrderID:       order,
		PurchasedAt:   date,
		Category:      category,
		ItemValue:     value,
		PaymentMethod: payment,
	}
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

// The worked three-record example: two toys line items in Jan 2017 and one
// books line item in Feb 2017.
func exampleDataset() []models.Transaction {
	return []models.Transaction{
		tx("O1", day(2017, time.January, 5), "toys", models.Float(10), "credit_card"),
		tx("O2", day(2017, time.January, 20), "toys", models.Float(20), "boleto"),
		tx("O3", day(2017, time.February, 3), "books", models.Float(5), "credit_card"),
	}
}

func TestMonthlyAggregates_Example(t *testing.T) {
	got := monthlyAggregates(exampleDataset())

	want := []models.MonthlyAggregate{
		{Year: 2017, Month: 1, Orders: 2, Revenue: 30},
		{Year: 2017, Month: 2, Orders: 1, Revenue: 5},
	}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("monthlyAggregates() = %+v, want %+v", got, want)
	}
}

func TestMonthlyAggregates_DistinctOrders(t *testing.T) {
	data := []models.Transaction{
		tx("O1", day(2017, time.January, 5), "toys", models.Float(10), "credit_card"),
		tx("O1", day(2017, time.January, 5), "toys", models.Float(15), "credit_card"),
		tx("O2", day(2017, time.January, 9), "toys", models.Float(20), "boleto"),
	}

	got := monthlyAggregates(data)
	if len(got) != 1 {
		t.Fatalf("expected one month, got %d", len(got))
	}
	if got[0].Orders != 2 {
		t.Errorf("Orders = %d, want 2 (line items of one order count once)", got[0].Orders)
	}
	if math.Abs(got[0].Revenue-45) > floatTolerance {
		t.Errorf("Revenue = %f, want 45", got[0].Revenue)
	}
}

func TestMonthlyAggregates_Empty(t *testing.T) {
	got := monthlyAggregates(nil)
	if len(got) != 0 {
		t.Errorf("empty input should yield empty output, got %+v", got)
	}
}

func TestMonthlyAggregates_Conservation(t *testing.T) {
	data := exampleDataset()
	data = append(data,
		tx("O4", day(2018, time.March, 1), "toys", nil, "voucher"),
		tx("O5", day(2018, time.March, 2), "books", models.Float(7.5), "credit_card"),
	)

	filtered := filterTransactions(data, models.Selection{})

	monthlySum := 0.0
	for _, m := range monthlyAggregates(filtered) {
		monthlySum += m.Revenue
	}

	if math.Abs(monthlySum-datasetValueTotal(filtered)) > floatTolerance {
		t.Errorf("monthly revenue sum %f != dataset total %f", monthlySum, datasetValueTotal(filtered))
	}
}

func TestFilterTransactions_IdentityLaw(t *testing.T) {
	data := exampleDataset()

	got := filterTransactions(data, models.Selection{Year: "all", Category: "all"})
	if !reflect.DeepEqual(got, data) {
		t.Errorf("all/all selection should return the full dataset")
	}
}

func TestFilterTransactions_Dimensions(t *testing.T) {
	data := exampleDataset()
	data = append(data, tx("O4", day(2018, time.June, 1), "toys", models.Float(99), "voucher"))

	tests := []struct {
		name string
		sel  models.Selection
		want int
	}{
		{"year only", models.Selection{Year: "2017"}, 3},
		{"category only", models.Selection{Category: "toys"}, 3},
		{"year and category", models.Selection{Year: "2017", Category: "toys"}, 2},
		{"unknown year", models.Selection{Year: "2020"}, 0},
		{"unknown category", models.Selection{Category: "garden"}, 0},
		{"malformed year", models.Selection{Year: "twenty"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := filterTransactions(data, tt.sel)
			if len(got) != tt.want {
				t.Errorf("filterTransactions() returned %d records, want %d", len(got), tt.want)
			}
		})
	}
}

func TestFilterTransactions_Idempotent(t *testing.T) {
	data := exampleDataset()
	sel := models.Selection{Year: "2017", Category: "toys"}

	first := filterTransactions(data, sel)
	second := filterTransactions(data, sel)

	if !reflect.DeepEqual(first, second) {
		t.Error("repeated filtering with the same selection should be identical")
	}

	if !reflect.DeepEqual(monthlyAggregates(first), monthlyAggregates(second)) {
		t.Error("derived views of identical filtered sets should be identical")
	}
}

func TestCategoryPareto_Example(t *testing.T) {
	got := categoryPareto(exampleDataset())

	if len(got) != 2 {
		t.Fatalf("expected 2 ranked categories, got %d", len(got))
	}
	if got[0].Category != "toys" || got[1].Category != "books" {
		t.Errorf("ranking order = [%s, %s], want [toys, books]", got[0].Category, got[1].Category)
	}

	wantCum := []float64{30.0 / 35 * 100, 100}
	for i, want := range wantCum {
		if math.Abs(got[i].CumulativePct-want) > 0.1 {
			t.Errorf("cumulative[%d] = %f, want %f", i, got[i].CumulativePct, want)
		}
	}
}

func TestCategoryPareto_TruncatesToTen(t *testing.T) {
	var data []models.Transaction
	for i := 0; i < 15; i++ {
		data = append(data, tx("O", day(2017, time.January, 1),
			string(rune('a'+i)), models.Float(float64(100-i)), "credit_card"))
	}

	got := categoryPareto(data)
	if len(got) != 10 {
		t.Errorf("expected 10 categories, got %d", len(got))
	}

	// Denominator is the total over all 15 categories, so the 10th
	// cumulative percentage stays below 100.
	if got[9].CumulativePct >= 100 {
		t.Errorf("10th cumulative pct = %f, should be < 100", got[9].CumulativePct)
	}
}

func TestCategoryPareto_NullCategoryInDenominator(t *testing.T) {
	data := []models.Transaction{
		tx("O1", day(2017, time.January, 1), "toys", models.Float(60), "credit_card"),
		tx("O2", day(2017, time.January, 2), "", models.Float(40), "boleto"),
	}

	got := categoryPareto(data)
	if len(got) != 1 {
		t.Fatalf("null categories must not be ranked, got %d entries", len(got))
	}
	if math.Abs(got[0].CumulativePct-60) > floatTolerance {
		t.Errorf("cumulative pct = %f, want 60 (null-category revenue stays in the denominator)", got[0].CumulativePct)
	}
}

func TestCategoryRanking_StableTieBreak(t *testing.T) {
	data := []models.Transaction{
		tx("O1", day(2017, time.January, 1), "beta", models.Float(10), "credit_card"),
		tx("O2", day(2017, time.January, 2), "alpha", models.Float(10), "credit_card"),
	}

	got := categoryRanking(data)
	if got[0].Category != "beta" {
		t.Errorf("equal sums keep first-appearance order, got %s first", got[0].Category)
	}
}

func TestTopCategorySet_EmptyWhenFirstCrosses(t *testing.T) {
	// toys alone is 85.7% of category revenue, so even the top category is
	// excluded and the set is empty. Documented edge case, kept literally.
	got := topCategorySet(exampleDataset())
	if len(got) != 0 {
		t.Errorf("topCategorySet() = %v, want empty set", got)
	}
}

func TestTopCategorySet_PrefixOfRanking(t *testing.T) {
	data := []models.Transaction{
		tx("O1", day(2017, time.January, 1), "a", models.Float(40), "credit_card"),
		tx("O2", day(2017, time.January, 1), "b", models.Float(30), "credit_card"),
		tx("O3", day(2017, time.January, 1), "c", models.Float(20), "credit_card"),
		tx("O4", day(2017, time.January, 1), "d", models.Float(10), "credit_card"),
	}

	got := topCategorySet(data)

	// cum: a=40%, b=70%, c=90% -> c crosses and is excluded.
	want := []string{"a", "b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("topCategorySet() = %v, want %v", got, want)
	}

	ranking := categoryRanking(data)
	for i, category := range got {
		if ranking[i].Category != category {
			t.Errorf("set is not a prefix of the ranking at position %d", i)
		}
	}
}

func TestTopCategorySet_MonotonicUnderAddedRevenue(t *testing.T) {
	data := []models.Transaction{
		tx("O1", day(2017, time.January, 1), "a", models.Float(40), "credit_card"),
		tx("O2", day(2017, time.January, 1), "b", models.Float(30), "credit_card"),
		tx("O3", day(2017, time.January, 1), "c", models.Float(20), "credit_card"),
		tx("O4", day(2017, time.January, 1), "d", models.Float(10), "credit_card"),
	}

	before := topCategorySet(data)

	// Add revenue to b, already in the set.
	grown := append(append([]models.Transaction{}, data...),
		tx("O5", day(2017, time.February, 1), "b", models.Float(20), "credit_card"))
	after := topCategorySet(grown)

	for _, category := range before {
		found := false
		for _, c := range after {
			if c == category {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("category %q dropped from the set after revenue grew", category)
		}
	}
}

func TestCategoryPaymentBreakdown(t *testing.T) {
	data := []models.Transaction{
		tx("O1", day(2017, time.January, 1), "a", models.Float(60), "credit_card"),
		tx("O2", day(2017, time.January, 2), "a", models.Float(20), "boleto"),
		tx("O3", day(2017, time.January, 3), "b", models.Float(20), "credit_card"),
	}

	got := categoryPaymentBreakdown(data, []string{"a"})

	if len(got) != 2 {
		t.Fatalf("expected 2 groups for the restricted set, got %d", len(got))
	}

	// Sorted by category then payment method.
	if got[0].PaymentMethod != "boleto" || got[1].PaymentMethod != "credit_card" {
		t.Errorf("unexpected group order: %+v", got)
	}

	// Shares are relative to the breakdown's own total (80), not the
	// dataset total (100).
	if got[0].RevenuePct != 25.0 {
		t.Errorf("boleto share = %f, want 25.00", got[0].RevenuePct)
	}
	if got[1].RevenuePct != 75.0 {
		t.Errorf("credit_card share = %f, want 75.00", got[1].RevenuePct)
	}

	pctSum := 0.0
	for _, g := range got {
		pctSum += g.RevenuePct
	}
	if math.Abs(pctSum-100) > 0.01 {
		t.Errorf("breakdown shares sum to %f, want 100", pctSum)
	}
}

func TestCategoryPaymentBreakdown_EmptySet(t *testing.T) {
	got := categoryPaymentBreakdown(exampleDataset(), nil)
	if len(got) != 0 {
		t.Errorf("empty category set should yield an empty breakdown, got %+v", got)
	}
}

func TestPaymentTimeDistribution_RowsSumTo100(t *testing.T) {
	data := exampleDataset()
	data = append(data,
		tx("O4", day(2017, time.January, 25), "toys", models.Float(1), "voucher"),
		tx("O5", day(2017, time.April, 1), "books", models.Float(2), "boleto"),
	)

	got := paymentTimeDistribution(data)

	rowSums := make(map[string]float64)
	for _, share := range got {
		rowSums[share.Period] += share.Pct
	}

	if len(rowSums) != 3 {
		t.Fatalf("expected 3 periods, got %d", len(rowSums))
	}
	for period, sum := range rowSums {
		if math.Abs(sum-100) > floatTolerance {
			t.Errorf("period %s shares sum to %f, want 100", period, sum)
		}
	}

	// Months with no records are absent, not zero rows.
	for _, share := range got {
		if share.Period == "2017-03" {
			t.Error("2017-03 has no records and must be absent")
		}
	}
}

func TestPaymentTimeDistribution_Shares(t *testing.T) {
	got := paymentTimeDistribution(exampleDataset())

	want := []models.PaymentShare{
		{Period: "2017-01", PaymentMethod: "boleto", Pct: 50},
		{Period: "2017-01", PaymentMethod: "credit_card", Pct: 50},
		{Period: "2017-02", PaymentMethod: "credit_card", Pct: 100},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("paymentTimeDistribution() = %+v, want %+v", got, want)
	}
}

func TestSummarize_NullSkipping(t *testing.T) {
	data := []models.Transaction{
		{OrderID: "O1", PurchasedAt: day(2017, time.January, 1), ItemValue: models.Float(10), ReviewScore: models.Float(4)},
		{OrderID: "O1", PurchasedAt: day(2017, time.January, 1), ItemValue: models.Float(20), ReviewScore: nil},
		{OrderID: "O2", PurchasedAt: day(2017, time.January, 2), ItemValue: nil, ReviewScore: models.Float(2)},
	}

	got := summarize(data)

	if got.Orders != 2 {
		t.Errorf("Orders = %d, want 2", got.Orders)
	}
	if math.Abs(got.Revenue-30) > floatTolerance {
		t.Errorf("Revenue = %f, want 30", got.Revenue)
	}
	// Nil values are excluded from the mean, never treated as zero.
	if math.Abs(got.AvgOrderValue-15) > floatTolerance {
		t.Errorf("AvgOrderValue = %f, want 15", got.AvgOrderValue)
	}
	if math.Abs(got.AvgReviewScore-3) > floatTolerance {
		t.Errorf("AvgReviewScore = %f, want 3", got.AvgReviewScore)
	}
}

func TestSummarize_Empty(t *testing.T) {
	got := summarize(nil)
	if got.Orders != 0 || got.Revenue != 0 || got.AvgOrderValue != 0 || got.AvgReviewScore != 0 {
		t.Errorf("empty summary should be all zeros, got %+v", got)
	}
}

func TestComputeFacets(t *testing.T) {
	data := exampleDataset()
	data = append(data, tx("O4", day(2018, time.June, 1), "", models.Float(1), "voucher"))

	got := computeFacets(data)

	if !reflect.DeepEqual(got.Years, []int{2017, 2018}) {
		t.Errorf("Years = %v, want [2017 2018]", got.Years)
	}
	if !reflect.DeepEqual(got.Categories, []string{"books", "toys"}) {
		t.Errorf("Categories = %v, want [books toys] (null categories excluded)", got.Categories)
	}
}
