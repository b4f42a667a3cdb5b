package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"olist-dashboard/internal/errors"
	"olist-dashboard/internal/models"
)

const (
	batchSize  = 10000
	maxWorkers = 10
)

// Columns the pipeline reads. Anything else in the export is carried by the
// file but ignored here.
const (
	colTimestamp = "order_purchase_timestamp"
	colCategory  = "product_category_name_english"
	colOrderID   = "order_id"
	colItemValue = "total_item_value"
	colReview    = "review_score"
	colPayment   = "payment_type"
)

var requiredColumns = []string{
	colTimestamp,
	colCategory,
	colOrderID,
	colItemValue,
	colReview,
	colPayment,
}

// The upstream export writes pandas timestamps; the bare-date form shows up
// in hand-built fixtures.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02",
}

type columnIndex map[string]int

// validateHeader maps required column names to their positions. Missing
// columns fail with a SchemaError naming every one of them, before any row
// is parsed.
func validateHeader(header []string) (columnIndex, error) {
	idx := make(columnIndex, len(requiredColumns))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		idx[name] = i
	}

	var missing []string
	for _, name := range requiredColumns {
		if _, ok := idx[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, errors.NewSchemaError(missing)
	}

	return idx, nil
}

// loadCSV reads, validates and cleans the dataset in one pass. Rows with
// unparseable timestamps are dropped; unparseable numeric fields become nil
// and the row is kept.
func loadCSV(ctx context.Context, filename string) ([]models.Transaction, error) {
	file, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.MissingFile(filename)
		}
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty file")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	idx, err := validateHeader(header)
	if err != nil {
		return nil, err
	}

	var rows [][]string
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}
		rows = append(rows, record)
	}

	cleaned, err := coerceRows(ctx, rows, idx)
	if err != nil {
		return nil, err
	}

	if len(cleaned) == 0 {
		return nil, fmt.Errorf("no valid records found")
	}

	return cleaned, nil
}

// coerceRows parses row batches in parallel, preserving input order.
func coerceRows(ctx context.Context, rows [][]string, idx columnIndex) ([]models.Transaction, error) {
	parsed := make([]*models.Transaction, len(rows))

	var g errgroup.Group
	g.SetLimit(maxWorkers)

	for start := 0; start < len(rows); start += batchSize {
		end := min(start+batchSize, len(rows))
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			for i := start; i < end; i++ {
				if tx, ok := parseRow(rows[i], idx); ok {
					parsed[i] = &tx
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	cleaned := make([]models.Transaction, 0, len(parsed))
	for _, tx := range parsed {
		if tx != nil {
			cleaned = append(cleaned, *tx)
		}
	}
	return cleaned, nil
}

// parseRow coerces one record. The bool is false only when the timestamp is
// unparseable, which drops the row.
func parseRow(record []string, idx columnIndex) (models.Transaction, bool) {
	purchasedAt, ok := parseTimestamp(field(record, idx, colTimestamp))
	if !ok {
		return models.Transaction{}, false
	}

	return models.Transaction{
		OrderID:       field(record, idx, colOrderID),
		PurchasedAt:   purchasedAt,
		Category:      field(record, idx, colCategory),
		ItemValue:     parseNullableFloat(field(record, idx, colItemValue)),
		ReviewScore:   parseNullableFloat(field(record, idx, colReview)),
		PaymentMethod: field(record, idx, colPayment),
	}, true
}

func field(record []string, idx columnIndex, name string) string {
	i := idx[name]
	if i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func parseTimestamp(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

func parseNullableFloat(value string) *float64 {
	if value == "" {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil
	}
	return &f
}
