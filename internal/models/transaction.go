package models

import "time"

// Transaction is one order line item from the processed Olist export.
// ItemValue and ReviewScore are nil when the source field was missing or
// unparseable; aggregates skip nil values rather than coercing them to zero.
type Transaction struct {
	OrderID       string
	PurchasedAt   time.Time
	Category      string
	ItemValue     *float64
	ReviewScore   *float64
	PaymentMethod string
}

// Year returns the calendar year of the purchase timestamp.
func (t Transaction) Year() int {
	return t.PurchasedAt.Year()
}

// Period returns the calendar month key, e.g. "2017-03".
func (t Transaction) Period() string {
	return t.PurchasedAt.Format("2006-01")
}

// Selection is the active dashboard filter. The zero value means no
// restriction on either dimension.
type Selection struct {
	Year     string `json:"year"`
	Category string `json:"category"`
}

// AllValues is the sentinel for an unrestricted filter dimension.
const AllValues = "all"

func (s Selection) YearIsAll() bool {
	return s.Year == "" || s.Year == AllValues
}

func (s Selection) CategoryIsAll() bool {
	return s.Category == "" || s.Category == AllValues
}

type MonthlyAggregate struct {
	Year    int     `json:"year"`
	Month   int     `json:"month"`
	Orders  int     `json:"orders"`
	Revenue float64 `json:"revenue"`
}

type CategoryRevenue struct {
	Category      string  `json:"category"`
	Revenue       float64 `json:"revenue"`
	CumulativePct float64 `json:"cumulative_pct"`
}

type CategoryPayment struct {
	Category      string  `json:"category"`
	PaymentMethod string  `json:"payment_method"`
	Revenue       float64 `json:"revenue"`
	Orders        int     `json:"orders"`
	RevenuePct    float64 `json:"revenue_pct"`
}

type PaymentShare struct {
	Period        string  `json:"period"`
	PaymentMethod string  `json:"payment_method"`
	Pct           float64 `json:"pct"`
}

// Summary holds the four scalar metrics shown above the charts, computed
// over the filtered set with null-skipping semantics.
type Summary struct {
	Orders         int     `json:"orders"`
	Revenue        float64 `json:"revenue"`
	AvgOrderValue  float64 `json:"avg_order_value"`
	AvgReviewScore float64 `json:"avg_review_score"`
}

// Facets lists the distinct filter values present in the cleaned dataset.
type Facets struct {
	Years      []int    `json:"years"`
	Categories []string `json:"categories"`
}

// Float is a convenience for building nullable numeric fields in tests
// and fixtures.
func Float(v float64) *float64 { return &v }
