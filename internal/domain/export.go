package domain

import "time"

// ExportRow is a single row in the full-data export.
// It is a flat, denormalized view: one row per expense, with claim fields
// repeated for every expense on that claim. Claims with no expenses yield
// one row with zero values for all expense fields.
//
// Tags holds the claim's tag names, ordered case-insensitively.
// Destinations holds destination names in trip order.
type ExportRow struct {
	// Claim fields, repeated for every expense on the claim.
	ClaimID      string
	ClaimantID   string
	ClaimantName string
	Status       Status
	StartTime    *time.Time
	EndTime      *time.Time
	Destinations []string
	Tags         []string

	// Expense fields, zero values when the claim has no expenses.
	ExpenseID   string
	Description string
	Category    Category
	Amount      string
	Currency    Currency
	OccurredAt  *time.Time
	Completed   bool
	Receipt     string
}
