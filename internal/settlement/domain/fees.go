package settlement

import (
	"strings"
	"time"
)

// GasFee is a one-time utility/gas surcharge passed through to the batch.
type GasFee struct {
	Amount     float64
	ReceiptRef string
}

// ExtraFee is an arbitrary one-time batch cost with free-text description.
type ExtraFee struct {
	Amount      float64
	Description string
	ReceiptRefs []string
}

// SharedFeeConfig describes the one-time costs that apply once per batch
// rather than once per property.
type SharedFeeConfig struct {
	Gas     *GasFee
	Cleanup bool
	Extra   *ExtraFee
}

// FeePolicy carries the fixed magnitudes used when expanding a fee config.
type FeePolicy struct {
	CleanupAmount float64
}

// SharedFeeEntry is one expense to be written against the carrier property.
// Informational entries (the bank-deposit record) carry a zero amount and do
// not contribute to the deductible total.
type SharedFeeEntry struct {
	Description   string
	Amount        float64
	Category      string
	ReceiptRef    string
	Informational bool
}

// SharedFees is the result of reducing a fee config: the expense entries to
// write and the total deducted from the carrier property's report row.
type SharedFees struct {
	Entries []SharedFeeEntry
	Total   float64
}

// BuildSharedFees reduces a fee configuration to a flat list of expense
// entries plus the deductible total. The reduction is pure: it neither writes
// records nor depends on the per-property iteration, so the orchestrator can
// consume the total after all properties are processed. The optional
// bank-deposit reference always yields a zero-amount informational entry,
// even when no fee is active.
func BuildSharedFees(cfg SharedFeeConfig, policy FeePolicy, periodStart, periodEnd time.Time, bankDepositRef string) SharedFees {
	var fees SharedFees

	if bankDepositRef != "" {
		fees.Entries = append(fees.Entries, SharedFeeEntry{
			Description:   "Batch deposit: " + periodStart.Format("2006-01-02") + " to " + periodEnd.Format("2006-01-02"),
			Amount:        0,
			Category:      ExpenseCategoryOther,
			ReceiptRef:    bankDepositRef,
			Informational: true,
		})
	}

	if cfg.Gas != nil && cfg.Gas.Amount > 0 {
		fees.Entries = append(fees.Entries, SharedFeeEntry{
			Description: "Shared gas fee",
			Amount:      cfg.Gas.Amount,
			Category:    ExpenseCategoryMaintenance,
			ReceiptRef:  cfg.Gas.ReceiptRef,
		})
		fees.Total += cfg.Gas.Amount
	}

	if cfg.Cleanup && policy.CleanupAmount > 0 {
		fees.Entries = append(fees.Entries, SharedFeeEntry{
			Description: "Shared cleanup service",
			Amount:      policy.CleanupAmount,
			Category:    ExpenseCategoryMaintenance,
		})
		fees.Total += policy.CleanupAmount
	}

	if cfg.Extra != nil && cfg.Extra.Amount > 0 {
		description := "Shared extra fee"
		if cfg.Extra.Description != "" {
			description = "Shared: " + cfg.Extra.Description
		}
		fees.Entries = append(fees.Entries, SharedFeeEntry{
			Description: description,
			Amount:      cfg.Extra.Amount,
			Category:    ExpenseCategoryOther,
			ReceiptRef:  strings.Join(cfg.Extra.ReceiptRefs, ", "),
		})
		fees.Total += cfg.Extra.Amount
	}

	return fees
}

// Active reports whether any deductible fee is configured.
func (c SharedFeeConfig) Active() bool {
	if c.Gas != nil && c.Gas.Amount > 0 {
		return true
	}
	if c.Cleanup {
		return true
	}
	if c.Extra != nil && c.Extra.Amount > 0 {
		return true
	}
	return false
}
