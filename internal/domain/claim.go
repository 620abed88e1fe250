// Package domain holds the expense claim model: immutable claims and their
// builders, the status lifecycle, tags, and the sentinel errors shared by the
// service and handler layers.
package domain

import (
	"fmt"
	"slices"
	"time"
)

// Claim is an immutable expense claim for one trip.
//
// A Claim is never modified after it is built. Edit returns a builder seeded
// with the claim's fields, and the lifecycle operations (Submit, Approve,
// Return) return a new Claim. Accessors that expose lists return copies.
type Claim struct {
	id           string
	claimant     User
	status       Status
	startTime    time.Time
	endTime      time.Time
	destinations []Destination
	expenses     []Expense
	tags         []Tag
	comments     []Comment
	lastModified time.Time
	deleted      bool
}

func (c Claim) ID() string              { return c.id }
func (c Claim) Claimant() User          { return c.claimant }
func (c Claim) Status() Status          { return c.status }
func (c Claim) StartTime() time.Time    { return c.startTime }
func (c Claim) EndTime() time.Time      { return c.endTime }
func (c Claim) HasStartTime() bool      { return !c.startTime.IsZero() }
func (c Claim) HasEndTime() bool        { return !c.endTime.IsZero() }
func (c Claim) LastModified() time.Time { return c.lastModified }
func (c Claim) Deleted() bool           { return c.deleted }

func (c Claim) Destinations() []Destination { return slices.Clone(c.destinations) }
func (c Claim) Expenses() []Expense         { return slices.Clone(c.expenses) }
func (c Claim) Tags() []Tag                 { return slices.Clone(c.tags) }
func (c Claim) Comments() []Comment         { return slices.Clone(c.comments) }

// Editable reports whether the claimant may still change the claim.
func (c Claim) Editable() bool { return c.status.Editable() }

// Expense looks up an expense by ID.
func (c Claim) Expense(id string) (Expense, bool) {
	i := slices.IndexFunc(c.expenses, func(e Expense) bool { return e.id == id })
	if i < 0 {
		return Expense{}, false
	}
	return c.expenses[i], true
}

// HasTag reports whether the claim references the tag with the given ID.
func (c Claim) HasTag(id string) bool {
	return slices.ContainsFunc(c.tags, func(t Tag) bool { return t.ID == id })
}

// HasIncompleteExpenses reports whether any expense still needs attention.
func (c Claim) HasIncompleteExpenses() bool {
	return slices.ContainsFunc(c.expenses, Expense.Incomplete)
}

// Totals sums the claim's expenses per currency.
func (c Claim) Totals() []Money {
	values := make([]Money, len(c.expenses))
	for i, e := range c.expenses {
		values[i] = e.money
	}
	return Totals(values)
}

// Edit returns a builder seeded with every field of c. The built claim keeps
// c's ID.
func (c Claim) Edit() *ClaimBuilder {
	seeded := c
	seeded.destinations = slices.Clone(c.destinations)
	seeded.expenses = slices.Clone(c.expenses)
	seeded.tags = slices.Clone(c.tags)
	seeded.comments = slices.Clone(c.comments)
	return &ClaimBuilder{c: seeded}
}

// Submit moves an in-progress or returned claim to SUBMITTED.
func (c Claim) Submit() (Claim, error) {
	next, err := c.status.Next(ActionSubmit)
	if err != nil {
		return Claim{}, fmt.Errorf("claim %s: %w", c.id, err)
	}
	return c.Edit().setStatus(next).Build()
}

// Approve moves a submitted claim to APPROVED and records the approver's
// comment. An approver may never act on their own claim.
func (c Claim) Approve(approver User, comment string) (Claim, error) {
	return c.review(ActionApprove, approver, comment)
}

// Return sends a submitted claim back to the claimant as RETURNED and
// records the approver's comment.
func (c Claim) Return(approver User, comment string) (Claim, error) {
	return c.review(ActionReturn, approver, comment)
}

func (c Claim) review(action Action, approver User, text string) (Claim, error) {
	if approver.Same(c.claimant) {
		return Claim{}, fmt.Errorf("%w: claimant cannot %s their own claim", ErrValidation, action)
	}
	next, err := c.status.Next(action)
	if err != nil {
		return Claim{}, fmt.Errorf("claim %s: %w", c.id, err)
	}
	cm, err := NewComment(text, approver)
	if err != nil {
		return Claim{}, err
	}
	return c.Edit().setStatus(next).AddComment(cm).Build()
}

// CanApprove reports whether user may approve or return the claim under the
// default SubmittedNotSelf policy.
func (c Claim) CanApprove(user User) bool {
	return SubmittedNotSelf(c, user)
}

// CanApproveWith evaluates an explicit approval policy.
func (c Claim) CanApproveWith(policy ApprovalPolicy, user User) bool {
	if policy == nil {
		policy = SubmittedNotSelf
	}
	return policy(c, user)
}

// Equal compares every field. Lists compare element-wise in order.
func (c Claim) Equal(o Claim) bool {
	return c.id == o.id &&
		c.claimant == o.claimant &&
		c.status == o.status &&
		c.startTime.Equal(o.startTime) &&
		c.endTime.Equal(o.endTime) &&
		c.lastModified.Equal(o.lastModified) &&
		c.deleted == o.deleted &&
		slices.EqualFunc(c.destinations, o.destinations, Destination.Equal) &&
		slices.EqualFunc(c.expenses, o.expenses, Expense.Equal) &&
		slices.Equal(c.tags, o.tags) &&
		slices.Equal(c.comments, o.comments)
}

// Validate checks every invariant of a claim that did not come through a
// builder, such as one decoded from storage.
func (c Claim) Validate() error {
	if c.id == "" {
		return fmt.Errorf("%w: claim id is required", ErrValidation)
	}
	if err := c.claimant.Validate(); err != nil {
		return fmt.Errorf("claim %s claimant: %w", c.id, err)
	}
	if !c.status.Valid() {
		return fmt.Errorf("%w: claim %s: unknown status %q", ErrValidation, c.id, c.status)
	}
	if c.HasStartTime() && c.HasEndTime() && c.startTime.After(c.endTime) {
		return fmt.Errorf("%w: claim %s: start time is after end time", ErrValidation, c.id)
	}
	for _, d := range c.destinations {
		if err := d.Validate(); err != nil {
			return fmt.Errorf("claim %s: %w", c.id, err)
		}
	}
	seen := make(map[string]struct{}, len(c.expenses))
	for _, e := range c.expenses {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("claim %s: %w", c.id, err)
		}
		if _, dup := seen[e.id]; dup {
			return fmt.Errorf("%w: claim %s: duplicate expense %s", ErrValidation, c.id, e.id)
		}
		seen[e.id] = struct{}{}
	}
	clear(seen)
	for _, t := range c.tags {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("claim %s: %w", c.id, err)
		}
		if _, dup := seen[t.ID]; dup {
			return fmt.Errorf("%w: claim %s: duplicate tag %s", ErrValidation, c.id, t.ID)
		}
		seen[t.ID] = struct{}{}
	}
	for _, cm := range c.comments {
		if err := cm.Validate(); err != nil {
			return fmt.Errorf("claim %s: %w", c.id, err)
		}
	}
	return nil
}

// CompareByStartTime orders claims by start time ascending. Claims without a
// start time sort last; ties break on ID.
func CompareByStartTime(a, b Claim) int {
	switch {
	case a.HasStartTime() && !b.HasStartTime():
		return -1
	case !a.HasStartTime() && b.HasStartTime():
		return 1
	}
	if c := a.startTime.Compare(b.startTime); c != 0 {
		return c
	}
	if a.id < b.id {
		return -1
	}
	if a.id > b.id {
		return 1
	}
	return 0
}

// SortByStartTime sorts claims in place using CompareByStartTime.
func SortByStartTime(claims []Claim) {
	slices.SortStableFunc(claims, CompareByStartTime)
}

// FilterByTags keeps the claims that reference any of the given tag IDs.
// With no IDs every claim is kept.
func FilterByTags(claims []Claim, tagIDs ...string) []Claim {
	if len(tagIDs) == 0 {
		return slices.Clone(claims)
	}
	out := make([]Claim, 0, len(claims))
	for _, c := range claims {
		if slices.ContainsFunc(tagIDs, c.HasTag) {
			out = append(out, c)
		}
	}
	return out
}
