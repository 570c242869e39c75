package core

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Document number prefixes. Numbers look like PO-2026-0001.
const (
	PrefixPurchaseOrder   = "PO"
	PrefixGoodsReceipt    = "GR"
	PrefixPurchaseInvoice = "PI"
	PrefixInvoice         = "INV"
)

// maxNumberAttempts bounds retries after a document number collides with an existing row.
const maxNumberAttempts = 3

var documentNumberPattern = regexp.MustCompile(`^([A-Z]+)-(\d{4})-(\d{4,})$`)

// FormatDocumentNumber renders PREFIX-YEAR-NNNN with at least four counter digits.
func FormatDocumentNumber(prefix string, year int, n int64) string {
	return fmt.Sprintf("%s-%d-%04d", prefix, year, n)
}

// ParseDocumentNumber splits a document number into its prefix, year and counter.
func ParseDocumentNumber(s string) (prefix string, year int, n int64, err error) {
	m := documentNumberPattern.FindStringSubmatch(s)
	if m == nil {
		return "", 0, 0, validationErrorf("malformed document number %q", s)
	}
	year, _ = strconv.Atoi(m[2])
	n, _ = strconv.ParseInt(m[3], 10, 64)
	return m[1], year, n, nil
}

// NextDocumentNumberTx increments the (prefix, year) counter inside tx and returns
// the formatted number. The upsert holds the counter row lock until tx ends, so
// concurrent callers serialize and never observe the same value.
func NextDocumentNumberTx(ctx context.Context, tx pgx.Tx, prefix string, year int) (string, error) {
	n, err := bumpSequence(ctx, tx, prefix, year)
	if err != nil {
		return "", err
	}
	return FormatDocumentNumber(prefix, year, n), nil
}

func bumpSequence(ctx context.Context, q pgxQuerier, prefix string, year int) (int64, error) {
	var last int64
	err := q.QueryRow(ctx, `
		INSERT INTO document_sequences (prefix, year, last_number)
		VALUES ($1, $2, 1)
		ON CONFLICT (prefix, year)
		DO UPDATE SET last_number = document_sequences.last_number + 1
		RETURNING last_number
	`, prefix, year).Scan(&last)
	if err != nil {
		return 0, fmt.Errorf("generate %s sequence number for %d: %w", prefix, year, err)
	}
	return last, nil
}

// withDocumentNumberRetry runs create, which assigns a generated number under
// constraint. If the number collides with a row inserted outside the counter
// (imports, manual fixes), the counter is advanced in its own transaction and
// create runs again.
func withDocumentNumberRetry[T any](ctx context.Context, pool *pgxpool.Pool, prefix string, year int, constraint string, create func() (T, error)) (T, error) {
	var zero T
	for attempt := 1; ; attempt++ {
		v, err := create()
		if err == nil {
			return v, nil
		}
		if !isUniqueViolation(err, constraint) || attempt == maxNumberAttempts {
			return zero, err
		}
		if _, err := bumpSequence(ctx, pool, prefix, year); err != nil {
			return zero, err
		}
	}
}
