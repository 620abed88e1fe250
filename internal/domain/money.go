package domain

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Category is the closed set of expense categories.
type Category string

const (
	CategoryAirFare         Category = "air fare"
	CategoryGroundTransport Category = "ground transport"
	CategoryVehicleRental   Category = "vehicle rental"
	CategoryPrivateAuto     Category = "private automobile"
	CategoryFuel            Category = "fuel"
	CategoryParking         Category = "parking"
	CategoryRegistration    Category = "registration"
	CategoryAccommodation   Category = "accommodation"
	CategoryMeal            Category = "meal"
	CategorySupplies        Category = "supplies"
)

// Categories lists every valid category in display order.
var Categories = []Category{
	CategoryAirFare, CategoryGroundTransport, CategoryVehicleRental, CategoryPrivateAuto,
	CategoryFuel, CategoryParking, CategoryRegistration, CategoryAccommodation,
	CategoryMeal, CategorySupplies,
}

// ParseCategory matches s case-insensitively against the closed category set.
func ParseCategory(s string) (Category, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, c := range Categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: unknown category %q", ErrValidation, s)
}

// Valid reports whether c belongs to the closed set.
func (c Category) Valid() bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

// Currency is the closed set of ISO 4217 codes an expense may be recorded in.
type Currency string

const (
	CAD Currency = "CAD"
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
	CHF Currency = "CHF"
	JPY Currency = "JPY"
	CNY Currency = "CNY"
)

// Currencies lists every valid currency.
var Currencies = []Currency{CAD, USD, EUR, GBP, CHF, JPY, CNY}

// ParseCurrency matches s case-insensitively against the closed currency set.
func ParseCurrency(s string) (Currency, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, c := range Currencies {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: unknown currency %q", ErrValidation, s)
}

// Valid reports whether c belongs to the closed set.
func (c Currency) Valid() bool {
	for _, v := range Currencies {
		if v == c {
			return true
		}
	}
	return false
}

// Money is a non-negative amount in one currency.
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency Currency        `json:"currency"`
}

// NewMoney validates amount and currency.
func NewMoney(amount decimal.Decimal, currency Currency) (Money, error) {
	m := Money{Amount: amount, Currency: currency}
	if err := m.Validate(); err != nil {
		return Money{}, err
	}
	return m, nil
}

// Validate rejects negative amounts and currencies outside the closed set.
func (m Money) Validate() error {
	if m.Amount.IsNegative() {
		return fmt.Errorf("%w: amount must not be negative", ErrValidation)
	}
	if !m.Currency.Valid() {
		return fmt.Errorf("%w: unknown currency %q", ErrValidation, m.Currency)
	}
	return nil
}

// Equal compares amounts numerically, so 12.5 equals 12.50.
func (m Money) Equal(o Money) bool {
	return m.Currency == o.Currency && m.Amount.Equal(o.Amount)
}

func (m Money) String() string {
	return m.Amount.StringFixed(2) + " " + string(m.Currency)
}

// Totals sums a list of money values per currency, ordered by currency code.
func Totals(values []Money) []Money {
	sums := make(map[Currency]decimal.Decimal)
	for _, v := range values {
		sums[v.Currency] = sums[v.Currency].Add(v.Amount)
	}
	out := make([]Money, 0, len(sums))
	for c, amt := range sums {
		out = append(out, Money{Amount: amt, Currency: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Currency < out[j].Currency })
	return out
}
