package service

import (
	"time"

	"github.com/pkordes/claimtrack/internal/domain"
)

// ClaimLister is the read side of a ClaimCollection.
type ClaimLister interface {
	Claims() []domain.Claim
}

// ExportService assembles a flat export of every claim and its expenses.
type ExportService struct {
	claims ClaimLister
}

// NewExportService constructs an ExportService reading from claims.
func NewExportService(claims ClaimLister) *ExportService {
	return &ExportService{claims: claims}
}

// Export returns one ExportRow per expense across all claims, claims ordered
// by start time and expenses in their natural order. Claims with no expenses
// contribute one row with empty expense fields.
func (s *ExportService) Export() []domain.ExportRow {
	claims := s.claims.Claims()
	domain.SortByStartTime(claims)

	rows := make([]domain.ExportRow, 0, len(claims))
	for _, c := range claims {
		base := claimRow(c)
		expenses := c.Expenses()
		if len(expenses) == 0 {
			rows = append(rows, base)
			continue
		}
		domain.SortExpenses(expenses)
		for _, e := range expenses {
			row := base
			row.ExpenseID = e.ID()
			row.Description = e.Description()
			row.Category = e.Category()
			row.Amount = e.Money().Amount.StringFixed(2)
			row.Currency = e.Money().Currency
			row.OccurredAt = timePtr(e.OccurredAt())
			row.Completed = e.Completed()
			row.Receipt, _ = e.Receipt()
			rows = append(rows, row)
		}
	}
	return rows
}

func claimRow(c domain.Claim) domain.ExportRow {
	row := domain.ExportRow{
		ClaimID:      c.ID(),
		ClaimantID:   c.Claimant().ID,
		ClaimantName: c.Claimant().Name,
		Status:       c.Status(),
		Destinations: []string{},
		Tags:         []string{},
	}
	if c.HasStartTime() {
		row.StartTime = timePtr(c.StartTime())
	}
	if c.HasEndTime() {
		row.EndTime = timePtr(c.EndTime())
	}
	for _, d := range c.Destinations() {
		row.Destinations = append(row.Destinations, d.Name())
	}
	tags := c.Tags()
	domain.SortTags(tags)
	for _, t := range tags {
		row.Tags = append(row.Tags, t.Name)
	}
	return row
}

func timePtr(t time.Time) *time.Time { return &t }
