package domain

import (
	"encoding/json"
	"time"
)

// The record types below are the stored JSON shape of the value objects.
// Decoding goes straight into the unexported fields without running the
// builders, so files edited by hand or written partially still load; call
// Validate on the result before trusting it.

type expenseRecord struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Category    Category  `json:"category"`
	Money       Money     `json:"money"`
	OccurredAt  time.Time `json:"occurredAt"`
	RecordedAt  time.Time `json:"recordedAt"`
	Completed   bool      `json:"completed"`
	Receipt     string    `json:"receipt,omitempty"`
}

func (e Expense) MarshalJSON() ([]byte, error) {
	return json.Marshal(expenseRecord{
		ID:          e.id,
		Description: e.description,
		Category:    e.category,
		Money:       e.money,
		OccurredAt:  e.occurredAt,
		RecordedAt:  e.recordedAt,
		Completed:   e.completed,
		Receipt:     e.receipt,
	})
}

func (e *Expense) UnmarshalJSON(data []byte) error {
	var r expenseRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	*e = Expense{
		id:          r.ID,
		description: r.Description,
		category:    r.Category,
		money:       r.Money,
		occurredAt:  r.OccurredAt,
		recordedAt:  r.RecordedAt,
		completed:   r.Completed,
		receipt:     r.Receipt,
	}
	return nil
}

type destinationRecord struct {
	Name     string       `json:"name"`
	Reason   string       `json:"reason,omitempty"`
	Location *Geolocation `json:"location,omitempty"`
}

func (d Destination) MarshalJSON() ([]byte, error) {
	return json.Marshal(destinationRecord{Name: d.name, Reason: d.reason, Location: d.location})
}

func (d *Destination) UnmarshalJSON(data []byte) error {
	var r destinationRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	*d = Destination{name: r.Name, reason: r.Reason, location: r.Location}
	return nil
}

type claimRecord struct {
	ID           string        `json:"id"`
	Claimant     User          `json:"claimant"`
	Status       Status        `json:"status"`
	StartTime    *time.Time    `json:"startTime,omitempty"`
	EndTime      *time.Time    `json:"endTime,omitempty"`
	Destinations []Destination `json:"destinations"`
	Expenses     []Expense     `json:"expenses"`
	Tags         []Tag         `json:"tags"`
	Comments     []Comment     `json:"comments"`
	LastModified time.Time     `json:"lastModified"`
	Deleted      bool          `json:"deleted"`
}

func (c Claim) MarshalJSON() ([]byte, error) {
	r := claimRecord{
		ID:           c.id,
		Claimant:     c.claimant,
		Status:       c.status,
		Destinations: nonNil(c.destinations),
		Expenses:     nonNil(c.expenses),
		Tags:         nonNil(c.tags),
		Comments:     nonNil(c.comments),
		LastModified: c.lastModified,
		Deleted:      c.deleted,
	}
	if c.HasStartTime() {
		r.StartTime = &c.startTime
	}
	if c.HasEndTime() {
		r.EndTime = &c.endTime
	}
	return json.Marshal(r)
}

func (c *Claim) UnmarshalJSON(data []byte) error {
	var r claimRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	*c = Claim{
		id:           r.ID,
		claimant:     r.Claimant,
		status:       r.Status,
		destinations: r.Destinations,
		expenses:     r.Expenses,
		tags:         r.Tags,
		comments:     r.Comments,
		lastModified: r.LastModified,
		deleted:      r.Deleted,
	}
	if r.StartTime != nil {
		c.startTime = r.StartTime.UTC()
	}
	if r.EndTime != nil {
		c.endTime = r.EndTime.UTC()
	}
	return nil
}

// nonNil keeps empty lists encoded as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
