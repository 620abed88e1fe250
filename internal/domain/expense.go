package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Expense is one immutable line item of a claim.
// Two expenses with the same ID are the same expense for put-by-id purposes,
// whatever their other fields hold.
type Expense struct {
	id          string
	description string
	category    Category
	money       Money
	occurredAt  time.Time
	recordedAt  time.Time
	completed   bool
	receipt     string
}

func (e Expense) ID() string            { return e.id }
func (e Expense) Description() string   { return e.description }
func (e Expense) Category() Category    { return e.category }
func (e Expense) Money() Money          { return e.money }
func (e Expense) OccurredAt() time.Time { return e.occurredAt }
func (e Expense) RecordedAt() time.Time { return e.recordedAt }
func (e Expense) Completed() bool       { return e.completed }

// Receipt returns the receipt file reference and whether one is attached.
func (e Expense) Receipt() (string, bool) { return e.receipt, e.receipt != "" }

// Incomplete reports whether the expense still needs attention: either the
// claimant has not flagged it complete or it carries no amount.
func (e Expense) Incomplete() bool {
	return !e.completed || e.money.Amount.IsZero()
}

// Equal compares every field; amounts compare numerically.
func (e Expense) Equal(o Expense) bool {
	return e.id == o.id &&
		e.description == o.description &&
		e.category == o.category &&
		e.money.Equal(o.money) &&
		e.occurredAt.Equal(o.occurredAt) &&
		e.recordedAt.Equal(o.recordedAt) &&
		e.completed == o.completed &&
		e.receipt == o.receipt
}

// Validate checks an expense that did not come through a builder, such as
// one decoded from storage.
func (e Expense) Validate() error {
	switch {
	case e.id == "":
		return fmt.Errorf("%w: expense id is required", ErrValidation)
	case strings.TrimSpace(e.description) == "":
		return fmt.Errorf("%w: expense %s: description is required", ErrValidation, e.id)
	case !e.category.Valid():
		return fmt.Errorf("%w: expense %s: unknown category %q", ErrValidation, e.id, e.category)
	case e.occurredAt.IsZero():
		return fmt.Errorf("%w: expense %s: occurred_at is required", ErrValidation, e.id)
	}
	if err := e.money.Validate(); err != nil {
		return fmt.Errorf("expense %s: %w", e.id, err)
	}
	return nil
}

// Edit returns a builder seeded with every field of e. Building it keeps
// e's ID and recorded time.
func (e Expense) Edit() *ExpenseBuilder {
	return &ExpenseBuilder{e: e}
}

// CompareExpenses orders expenses by occurred time, recorded time,
// description, amount, category and finally ID.
func CompareExpenses(a, b Expense) int {
	if c := a.occurredAt.Compare(b.occurredAt); c != 0 {
		return c
	}
	if c := a.recordedAt.Compare(b.recordedAt); c != 0 {
		return c
	}
	if c := strings.Compare(a.description, b.description); c != 0 {
		return c
	}
	if c := a.money.Amount.Cmp(b.money.Amount); c != 0 {
		return c
	}
	if c := strings.Compare(string(a.category), string(b.category)); c != 0 {
		return c
	}
	return strings.Compare(a.id, b.id)
}

// SortExpenses sorts in place using CompareExpenses.
func SortExpenses(expenses []Expense) {
	sort.SliceStable(expenses, func(i, j int) bool {
		return CompareExpenses(expenses[i], expenses[j]) < 0
	})
}

// ExpenseBuilder stages a new or edited Expense.
//
// Defaults for a fresh builder: zero amount in CAD, not completed, no
// receipt, occurred-at equal to the build time. Description and category
// have no default and must be set before Build.
type ExpenseBuilder struct {
	builderErr
	e Expense
}

// NewExpenseBuilder returns a builder for a brand new expense.
func NewExpenseBuilder() *ExpenseBuilder {
	return &ExpenseBuilder{e: Expense{money: Money{Amount: decimal.Zero, Currency: CAD}}}
}

func (b *ExpenseBuilder) Description(s string) *ExpenseBuilder {
	if b.failed() {
		return b
	}
	s = strings.TrimSpace(s)
	if s == "" {
		b.fail("description is required")
		return b
	}
	b.e.description = s
	return b
}

func (b *ExpenseBuilder) Category(c Category) *ExpenseBuilder {
	if b.failed() {
		return b
	}
	if !c.Valid() {
		b.fail("unknown category %q", c)
		return b
	}
	b.e.category = c
	return b
}

// Money sets amount and currency together.
func (b *ExpenseBuilder) Money(m Money) *ExpenseBuilder {
	if b.failed() {
		return b
	}
	if err := m.Validate(); err != nil {
		b.failWith(err)
		return b
	}
	b.e.money = m
	return b
}

// Amount sets the amount, keeping the current currency.
func (b *ExpenseBuilder) Amount(amount decimal.Decimal) *ExpenseBuilder {
	return b.Money(Money{Amount: amount, Currency: b.e.money.Currency})
}

// Currency sets the currency, keeping the current amount.
func (b *ExpenseBuilder) Currency(c Currency) *ExpenseBuilder {
	return b.Money(Money{Amount: b.e.money.Amount, Currency: c})
}

func (b *ExpenseBuilder) OccurredAt(t time.Time) *ExpenseBuilder {
	if b.failed() {
		return b
	}
	if t.IsZero() {
		b.fail("occurred_at is required")
		return b
	}
	b.e.occurredAt = t.UTC()
	return b
}

func (b *ExpenseBuilder) Completed(done bool) *ExpenseBuilder {
	if !b.failed() {
		b.e.completed = done
	}
	return b
}

// Receipt attaches a receipt file reference.
func (b *ExpenseBuilder) Receipt(ref string) *ExpenseBuilder {
	if b.failed() {
		return b
	}
	ref = strings.TrimSpace(ref)
	if ref == "" {
		b.fail("receipt reference must not be empty")
		return b
	}
	b.e.receipt = ref
	return b
}

func (b *ExpenseBuilder) ClearReceipt() *ExpenseBuilder {
	if !b.failed() {
		b.e.receipt = ""
	}
	return b
}

// Build returns the staged Expense. A fresh expense gets a new ID and its
// recorded time here; an edited one keeps both.
func (b *ExpenseBuilder) Build() (Expense, error) {
	if b.err != nil {
		return Expense{}, b.err
	}
	e := b.e
	if e.description == "" {
		return Expense{}, fmt.Errorf("%w: description is required", ErrValidation)
	}
	if e.category == "" {
		return Expense{}, fmt.Errorf("%w: category is required", ErrValidation)
	}
	ts := now()
	if e.id == "" {
		e.id = uuid.NewString()
		e.recordedAt = ts
	}
	if e.occurredAt.IsZero() {
		e.occurredAt = ts
	}
	return e, nil
}
