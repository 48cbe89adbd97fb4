package auth

import (
	"context"
	"database/sql"
	"errors"

	propertiesrepo "rentroll-cloud/internal/properties/infrastructure/postgres"
)

// ErrNotFound indicates resource not found.
var ErrNotFound = errors.New("resource not found")

// PropertyExistsChecker validates that a property id refers to a real property.
type PropertyExistsChecker interface {
	EnsurePropertyExists(ctx context.Context, propertyID string) error
}

// PropertyChecker checks property existence using the properties store.
type PropertyChecker struct {
	repo *propertiesrepo.PropertyRepository
}

// NewPropertyChecker constructs a PropertyChecker.
func NewPropertyChecker(db *sql.DB) *PropertyChecker {
	if db == nil {
		return nil
	}
	return &PropertyChecker{repo: propertiesrepo.NewPropertyRepository(db)}
}

// EnsurePropertyExists verifies the property exists.
func (c *PropertyChecker) EnsurePropertyExists(ctx context.Context, propertyID string) error {
	if c == nil || c.repo == nil {
		return nil
	}
	if propertyID == "" {
		return nil
	}
	property, err := c.repo.Get(ctx, propertyID)
	if err != nil {
		return err
	}
	if property == nil {
		return ErrNotFound
	}
	return nil
}
