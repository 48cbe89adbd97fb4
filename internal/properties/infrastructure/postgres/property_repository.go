package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	properties "rentroll-cloud/internal/properties/domain"
)

const defaultPropertiesTable = "properties"

// DBTX is the subset of *sql.DB and *sql.Tx the repositories use.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PropertyRepository is a Postgres implementation for properties.
type PropertyRepository struct {
	db    DBTX
	table string
}

// NewPropertyRepository constructs a repository.
func NewPropertyRepository(db DBTX, opts ...PropertyOption) *PropertyRepository {
	repo := &PropertyRepository{db: db, table: defaultPropertiesTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// PropertyOption configures the repository.
type PropertyOption func(*PropertyRepository)

// WithPropertiesTable overrides the default table name.
func WithPropertiesTable(table string) PropertyOption {
	return func(repo *PropertyRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// Get loads a property by id.
func (r *PropertyRepository) Get(ctx context.Context, id string) (*properties.Property, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("property repo: nil db")
	}
	if id == "" {
		return nil, errors.New("property repo: empty id")
	}

	query := fmt.Sprintf(`
SELECT id, name, address, monthly_rent, wifi_name, wifi_pass, access_code,
	tenant_name, tenant_phone, created_at, updated_at
FROM %s
WHERE id = $1
LIMIT 1`, r.table)

	property, err := scanProperty(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return property, nil
}

// List returns all properties ordered by name.
func (r *PropertyRepository) List(ctx context.Context) ([]properties.Property, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("property repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT id, name, address, monthly_rent, wifi_name, wifi_pass, access_code,
	tenant_name, tenant_phone, created_at, updated_at
FROM %s
ORDER BY name ASC`, r.table)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []properties.Property
	for rows.Next() {
		property, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *property)
	}
	return result, rows.Err()
}

// Save upserts a property.
func (r *PropertyRepository) Save(ctx context.Context, property *properties.Property) error {
	if r == nil || r.db == nil {
		return errors.New("property repo: nil db")
	}
	if property == nil {
		return errors.New("property repo: nil property")
	}
	if err := property.Validate(); err != nil {
		return err
	}

	query := fmt.Sprintf(`
INSERT INTO %s (
	id,
	name,
	address,
	monthly_rent,
	wifi_name,
	wifi_pass,
	access_code,
	tenant_name,
	tenant_phone
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9
)
ON CONFLICT (id)
DO UPDATE SET
	name = EXCLUDED.name,
	address = EXCLUDED.address,
	monthly_rent = EXCLUDED.monthly_rent,
	wifi_name = EXCLUDED.wifi_name,
	wifi_pass = EXCLUDED.wifi_pass,
	access_code = EXCLUDED.access_code,
	tenant_name = EXCLUDED.tenant_name,
	tenant_phone = EXCLUDED.tenant_phone,
	updated_at = NOW()`, r.table)

	_, err := r.db.ExecContext(
		ctx,
		query,
		property.ID,
		property.Name,
		property.Address,
		property.MonthlyRent,
		property.WifiName,
		property.WifiPass,
		property.AccessCode,
		property.TenantName,
		property.TenantPhone,
	)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if property.CreatedAt.IsZero() {
		property.CreatedAt = now
	}
	property.UpdatedAt = now
	return nil
}

// Delete removes a property.
func (r *PropertyRepository) Delete(ctx context.Context, id string) error {
	if r == nil || r.db == nil {
		return errors.New("property repo: nil db")
	}
	if id == "" {
		return errors.New("property repo: empty id")
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.table)
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProperty(row rowScanner) (*properties.Property, error) {
	var property properties.Property
	var address, wifiName, wifiPass, accessCode, tenantName, tenantPhone sql.NullString
	err := row.Scan(
		&property.ID,
		&property.Name,
		&address,
		&property.MonthlyRent,
		&wifiName,
		&wifiPass,
		&accessCode,
		&tenantName,
		&tenantPhone,
		&property.CreatedAt,
		&property.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	property.Address = address.String
	property.WifiName = wifiName.String
	property.WifiPass = wifiPass.String
	property.AccessCode = accessCode.String
	property.TenantName = tenantName.String
	property.TenantPhone = tenantPhone.String
	property.CreatedAt = property.CreatedAt.UTC()
	property.UpdatedAt = property.UpdatedAt.UTC()
	return &property, nil
}
