package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// ClaimBuilder stages a new or edited Claim.
//
// Defaults for a fresh builder: status IN_PROGRESS, no start or end time,
// empty destination/expense/tag/comment lists, not deleted. Every setter
// validates its argument; the first failure is kept and later calls are
// ignored. Once both bounds are set, a start time after the end time is a
// failure whichever setter causes it.
type ClaimBuilder struct {
	builderErr
	c Claim
}

// NewClaimBuilder returns a builder for a brand new claim owned by claimant.
func NewClaimBuilder(claimant User) *ClaimBuilder {
	b := &ClaimBuilder{c: Claim{status: StatusInProgress}}
	return b.Claimant(claimant)
}

func (b *ClaimBuilder) Claimant(u User) *ClaimBuilder {
	if b.failed() {
		return b
	}
	if err := u.Validate(); err != nil {
		b.failWith(err)
		return b
	}
	b.c.claimant = u
	return b
}

func (b *ClaimBuilder) StartTime(t time.Time) *ClaimBuilder {
	if b.failed() {
		return b
	}
	if t.IsZero() {
		b.fail("start time is required")
		return b
	}
	if b.c.HasEndTime() && t.After(b.c.endTime) {
		b.fail("start time %s is after end time %s", t.Format(time.RFC3339), b.c.endTime.Format(time.RFC3339))
		return b
	}
	b.c.startTime = t.UTC()
	return b
}

func (b *ClaimBuilder) EndTime(t time.Time) *ClaimBuilder {
	if b.failed() {
		return b
	}
	if t.IsZero() {
		b.fail("end time is required")
		return b
	}
	if b.c.HasStartTime() && t.Before(b.c.startTime) {
		b.fail("end time %s is before start time %s", t.Format(time.RFC3339), b.c.startTime.Format(time.RFC3339))
		return b
	}
	b.c.endTime = t.UTC()
	return b
}

// ClearStartTime unsets the start time.
func (b *ClaimBuilder) ClearStartTime() *ClaimBuilder {
	if !b.failed() {
		b.c.startTime = time.Time{}
	}
	return b
}

// ClearEndTime unsets the end time.
func (b *ClaimBuilder) ClearEndTime() *ClaimBuilder {
	if !b.failed() {
		b.c.endTime = time.Time{}
	}
	return b
}

func (b *ClaimBuilder) AddDestination(d Destination) *ClaimBuilder {
	if b.failed() {
		return b
	}
	if err := d.Validate(); err != nil {
		b.failWith(err)
		return b
	}
	b.c.destinations = append(b.c.destinations, d)
	return b
}

// RemoveDestination drops the first destination equal to d, if any.
func (b *ClaimBuilder) RemoveDestination(d Destination) *ClaimBuilder {
	if b.failed() {
		return b
	}
	if i := slices.IndexFunc(b.c.destinations, d.Equal); i >= 0 {
		b.c.destinations = slices.Delete(b.c.destinations, i, i+1)
	}
	return b
}

// ClearDestinations drops every destination.
func (b *ClaimBuilder) ClearDestinations() *ClaimBuilder {
	if !b.failed() {
		b.c.destinations = nil
	}
	return b
}

// PutExpense inserts e by ID. An expense already present with the same ID
// is removed first, so e always ends up last.
func (b *ClaimBuilder) PutExpense(e Expense) *ClaimBuilder {
	if b.failed() {
		return b
	}
	if err := e.Validate(); err != nil {
		b.failWith(err)
		return b
	}
	b.c.expenses = slices.DeleteFunc(b.c.expenses, func(x Expense) bool { return x.id == e.id })
	b.c.expenses = append(b.c.expenses, e)
	return b
}

// RemoveExpense drops the expense with the given ID, if any.
func (b *ClaimBuilder) RemoveExpense(id string) *ClaimBuilder {
	if !b.failed() {
		b.c.expenses = slices.DeleteFunc(b.c.expenses, func(x Expense) bool { return x.id == id })
	}
	return b
}

// AddTag adds t to the claim's tag set. A tag with the same ID is replaced
// in place.
func (b *ClaimBuilder) AddTag(t Tag) *ClaimBuilder {
	if b.failed() {
		return b
	}
	if err := t.Validate(); err != nil {
		b.failWith(err)
		return b
	}
	if i := slices.IndexFunc(b.c.tags, func(x Tag) bool { return x.ID == t.ID }); i >= 0 {
		b.c.tags[i] = t
		return b
	}
	b.c.tags = append(b.c.tags, t)
	return b
}

// RemoveTag drops the tag with t's ID, whatever name it carries.
func (b *ClaimBuilder) RemoveTag(t Tag) *ClaimBuilder {
	if !b.failed() {
		b.c.tags = slices.DeleteFunc(b.c.tags, func(x Tag) bool { return x.ID == t.ID })
	}
	return b
}

func (b *ClaimBuilder) AddComment(cm Comment) *ClaimBuilder {
	if b.failed() {
		return b
	}
	if err := cm.Validate(); err != nil {
		b.failWith(err)
		return b
	}
	b.c.comments = append(b.c.comments, cm)
	return b
}

// Deleted flags the claim as deleted.
func (b *ClaimBuilder) Deleted(deleted bool) *ClaimBuilder {
	if !b.failed() {
		b.c.deleted = deleted
	}
	return b
}

// Expense returns the staged expense with id.
func (b *ClaimBuilder) Expense(id string) (Expense, bool) {
	i := slices.IndexFunc(b.c.expenses, func(x Expense) bool { return x.id == id })
	if i < 0 {
		return Expense{}, false
	}
	return b.c.expenses[i], true
}

// HasTag reports whether a tag with id is staged.
func (b *ClaimBuilder) HasTag(id string) bool {
	return slices.ContainsFunc(b.c.tags, func(x Tag) bool { return x.ID == id })
}

// Fail records err unless the builder already holds a failure. Build then
// returns it unchanged, so callers can abort an edit with any error class.
func (b *ClaimBuilder) Fail(err error) *ClaimBuilder {
	b.failWith(err)
	return b
}

// setStatus is reserved for the lifecycle operations on Claim.
func (b *ClaimBuilder) setStatus(s Status) *ClaimBuilder {
	if !b.failed() {
		b.c.status = s
	}
	return b
}

// Build returns the staged Claim stamped with a fresh last-modified time.
// A fresh claim is assigned its ID here; an edited claim keeps its own.
func (b *ClaimBuilder) Build() (Claim, error) {
	if b.err != nil {
		return Claim{}, b.err
	}
	c := b.c
	if err := c.claimant.Validate(); err != nil {
		return Claim{}, err
	}
	if c.id == "" {
		c.id = uuid.NewString()
	}
	c.lastModified = now()
	c.destinations = slices.Clone(c.destinations)
	c.expenses = slices.Clone(c.expenses)
	c.tags = slices.Clone(c.tags)
	c.comments = slices.Clone(c.comments)
	return c, nil
}
