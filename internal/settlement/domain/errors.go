package settlement

import "errors"

var (
	// ErrEmptyPropertyID is returned when a property id is empty.
	ErrEmptyPropertyID = errors.New("settlement: empty property id")
	// ErrUnparseableDate is returned when a date string cannot be parsed.
	ErrUnparseableDate = errors.New("settlement: unparseable date")
	// ErrEmptyDate is returned when a required date string is empty.
	ErrEmptyDate = errors.New("settlement: empty date")
	// ErrInvalidPeriod is returned when a settlement period is missing or inverted.
	ErrInvalidPeriod = errors.New("settlement: invalid period")
	// ErrNoBilledProperties is returned when a batch contains nothing to bill.
	ErrNoBilledProperties = errors.New("settlement: no billed properties")
	// ErrNoCarrierProperty is returned when shared fees are configured but no
	// property can carry them.
	ErrNoCarrierProperty = errors.New("settlement: no carrier property for shared fees")
	// ErrCarrierNotInBatch is returned when an explicit carrier id names a
	// property that is not billed by the batch.
	ErrCarrierNotInBatch = errors.New("settlement: carrier property not in batch")
	// ErrProrationMismatch is returned when caller-supplied exception figures do
	// not match the server-side recomputation.
	ErrProrationMismatch = errors.New("settlement: proration mismatch")
	// ErrPropertyNotFound is returned when a billed property id is unknown.
	ErrPropertyNotFound = errors.New("settlement: property not found")
)
