package properties

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	settlementapp "rentroll-cloud/internal/settlement/application"
)

const defaultPropertiesTable = "properties"

// PropertyReader loads the billing slice of properties for the batch engine.
type PropertyReader struct {
	db    *sql.DB
	table string
}

// NewPropertyReader constructs a reader.
func NewPropertyReader(db *sql.DB, opts ...ReaderOption) *PropertyReader {
	reader := &PropertyReader{db: db, table: defaultPropertiesTable}
	for _, opt := range opts {
		opt(reader)
	}
	return reader
}

// ReaderOption configures the reader.
type ReaderOption func(*PropertyReader)

// WithTable overrides the properties table name.
func WithTable(table string) ReaderOption {
	return func(reader *PropertyReader) {
		if reader != nil && table != "" {
			reader.table = table
		}
	}
}

// ListByIDs returns the billed properties matching the given ids. Unknown ids
// are simply absent from the result; the caller decides what that means.
func (r *PropertyReader) ListByIDs(ctx context.Context, ids []string) ([]settlementapp.BilledProperty, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("property reader: nil db")
	}
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	query := fmt.Sprintf(`
SELECT id, name, monthly_rent
FROM %s
WHERE id IN (%s)`, r.table, strings.Join(placeholders, ","))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []settlementapp.BilledProperty
	for rows.Next() {
		var property settlementapp.BilledProperty
		if err := rows.Scan(&property.ID, &property.Name, &property.MonthlyRent); err != nil {
			return nil, err
		}
		result = append(result, property)
	}
	return result, rows.Err()
}
