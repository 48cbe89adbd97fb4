package properties

import (
	"context"
	"errors"
	"time"
)

// Property represents a managed rental unit.
type Property struct {
	ID          string
	Name        string
	Address     string
	MonthlyRent float64
	WifiName    string
	WifiPass    string
	AccessCode  string
	TenantName  string
	TenantPhone string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks property invariants.
func (p Property) Validate() error {
	if p.ID == "" {
		return errors.New("property: empty id")
	}
	if p.Name == "" {
		return errors.New("property: empty name")
	}
	if p.MonthlyRent < 0 {
		return errors.New("property: negative monthly rent")
	}
	return nil
}

// Repository manages property persistence.
type Repository interface {
	Get(ctx context.Context, id string) (*Property, error)
	List(ctx context.Context) ([]Property, error)
	Save(ctx context.Context, property *Property) error
	Delete(ctx context.Context, id string) error
}
