package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/claimtrack/internal/domain"
)

var (
	ada   = domain.User{ID: "u-ada", Name: "Ada"}
	bob   = domain.User{ID: "u-bob", Name: "Bob"}
	carol = domain.User{ID: "u-carol", Name: "Carol"}
)

// ---- helpers ---------------------------------------------------------------

func buildClaim(t *testing.T, b *domain.ClaimBuilder) domain.Claim {
	t.Helper()
	c, err := b.Build()
	require.NoError(t, err)
	return c
}

func day(d int) time.Time {
	return time.Date(2025, time.June, d, 9, 0, 0, 0, time.UTC)
}

func mustExpense(t *testing.T, description string, amount string) domain.Expense {
	t.Helper()
	e, err := domain.NewExpenseBuilder().
		Description(description).
		Category(domain.CategoryMeal).
		Amount(decimal.RequireFromString(amount)).
		OccurredAt(day(2)).
		Completed(true).
		Build()
	require.NoError(t, err)
	return e
}

func mustDestination(t *testing.T, name string) domain.Destination {
	t.Helper()
	d, err := domain.NewDestinationBuilder().Name(name).Reason("client visit").Build()
	require.NoError(t, err)
	return d
}

func mustTag(t *testing.T, name string) domain.Tag {
	t.Helper()
	tag, err := domain.NewTag(name)
	require.NoError(t, err)
	return tag
}

// ---- ClaimBuilder ----------------------------------------------------------

func TestClaimBuilder_Defaults(t *testing.T) {
	c := buildClaim(t, domain.NewClaimBuilder(ada))

	assert.NotEmpty(t, c.ID())
	assert.Equal(t, ada, c.Claimant())
	assert.Equal(t, domain.StatusInProgress, c.Status())
	assert.False(t, c.HasStartTime())
	assert.False(t, c.HasEndTime())
	assert.Empty(t, c.Expenses())
	assert.Empty(t, c.Tags())
	assert.False(t, c.Deleted())
	assert.False(t, c.LastModified().IsZero())
}

func TestClaimBuilder_RequiresCompleteClaimant(t *testing.T) {
	_, err := domain.NewClaimBuilder(domain.User{ID: "u-1"}).Build()

	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestClaimBuilder_StartAfterEndFails(t *testing.T) {
	_, err := domain.NewClaimBuilder(ada).EndTime(day(3)).StartTime(day(5)).Build()
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = domain.NewClaimBuilder(ada).StartTime(day(5)).EndTime(day(3)).Build()
	assert.True(t, errors.Is(err, domain.ErrValidation))

	c := buildClaim(t, domain.NewClaimBuilder(ada).StartTime(day(3)).EndTime(day(3)))
	assert.Equal(t, c.StartTime(), c.EndTime(), "equal bounds are allowed")
}

func TestClaimBuilder_FirstErrorSticks(t *testing.T) {
	b := domain.NewClaimBuilder(ada).
		StartTime(time.Time{}).
		AddTag(domain.Tag{}).
		StartTime(day(1))

	_, err := b.Build()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "start time is required")
	assert.Equal(t, err, b.Err())
}

func TestClaimBuilder_FailKeepsErrorClass(t *testing.T) {
	lunch := mustExpense(t, "Lunch", "12.50")
	b := buildClaim(t, domain.NewClaimBuilder(ada).PutExpense(lunch)).Edit()

	got, ok := b.Expense(lunch.ID())
	require.True(t, ok)
	assert.True(t, got.Equal(lunch))
	_, ok = b.Expense("nope")
	assert.False(t, ok)

	_, err := b.Fail(domain.ErrNotFound).PutExpense(lunch).Build()
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestClaimBuilder_PutExpenseReplacesByID(t *testing.T) {
	lunch := mustExpense(t, "Lunch", "12.50")
	taxi := mustExpense(t, "Taxi", "30")
	c := buildClaim(t, domain.NewClaimBuilder(ada).PutExpense(lunch).PutExpense(taxi))

	dinner, err := lunch.Edit().Description("Dinner").Build()
	require.NoError(t, err)
	c = buildClaim(t, c.Edit().PutExpense(dinner))

	expenses := c.Expenses()
	require.Len(t, expenses, 2)
	assert.Equal(t, taxi.ID(), expenses[0].ID())
	assert.Equal(t, lunch.ID(), expenses[1].ID(), "replaced expense moves to the end")
	assert.Equal(t, "Dinner", expenses[1].Description())
}

func TestClaimBuilder_RemoveExpense(t *testing.T) {
	lunch := mustExpense(t, "Lunch", "12.50")
	c := buildClaim(t, domain.NewClaimBuilder(ada).PutExpense(lunch))

	c = buildClaim(t, c.Edit().RemoveExpense(lunch.ID()).RemoveExpense("absent"))

	assert.Empty(t, c.Expenses())
}

func TestClaimBuilder_TagsAreASetByID(t *testing.T) {
	ok := mustTag(t, "ok")
	renamed, err := ok.Renamed("wut")
	require.NoError(t, err)

	c := buildClaim(t, domain.NewClaimBuilder(ada).AddTag(ok).AddTag(ok))
	require.Len(t, c.Tags(), 1)

	c = buildClaim(t, c.Edit().AddTag(renamed))
	assert.Equal(t, []domain.Tag{renamed}, c.Tags())

	c = buildClaim(t, c.Edit().RemoveTag(ok))
	assert.Empty(t, c.Tags(), "removal matches on ID, not name")
}

func TestClaimBuilder_Destinations(t *testing.T) {
	ottawa := mustDestination(t, "Ottawa")
	montreal := mustDestination(t, "Montreal")
	c := buildClaim(t, domain.NewClaimBuilder(ada).AddDestination(ottawa).AddDestination(montreal))

	c = buildClaim(t, c.Edit().RemoveDestination(ottawa))
	require.Len(t, c.Destinations(), 1)
	assert.Equal(t, "Montreal", c.Destinations()[0].Name())

	c = buildClaim(t, c.Edit().ClearDestinations())
	assert.Empty(t, c.Destinations())
}

func TestClaim_EditKeepsIDAndOriginal(t *testing.T) {
	orig := buildClaim(t, domain.NewClaimBuilder(ada).StartTime(day(1)))

	edited := buildClaim(t, orig.Edit().StartTime(day(2)).AddTag(mustTag(t, "q2")))

	assert.Equal(t, orig.ID(), edited.ID())
	assert.Equal(t, day(1), orig.StartTime())
	assert.Empty(t, orig.Tags())
	assert.Equal(t, day(2), edited.StartTime())
}

func TestClaim_AccessorsReturnCopies(t *testing.T) {
	c := buildClaim(t, domain.NewClaimBuilder(ada).AddTag(mustTag(t, "ok")))

	tags := c.Tags()
	tags[0].Name = "changed"

	assert.Equal(t, "ok", c.Tags()[0].Name)
}

// ---- lifecycle -------------------------------------------------------------

func TestClaim_Lifecycle(t *testing.T) {
	c := buildClaim(t, domain.NewClaimBuilder(ada))

	submitted, err := c.Submit()
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSubmitted, submitted.Status())
	assert.False(t, submitted.Editable())

	returned, err := submitted.Return(bob, "  add the hotel receipt ")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReturned, returned.Status())
	assert.True(t, returned.Editable())
	assert.Equal(t, []domain.Comment{{Text: "add the hotel receipt", Approver: bob}}, returned.Comments())

	resubmitted, err := returned.Submit()
	require.NoError(t, err)
	approved, err := resubmitted.Approve(bob, "ok")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, approved.Status())
	assert.Len(t, approved.Comments(), 2)

	_, err = approved.Submit()
	assert.True(t, errors.Is(err, domain.ErrInvalidState))
	assert.Equal(t, domain.StatusInProgress, c.Status(), "lifecycle never mutates the receiver")
}

func TestClaim_ReviewErrors(t *testing.T) {
	c := buildClaim(t, domain.NewClaimBuilder(ada))

	_, err := c.Approve(bob, "early")
	assert.True(t, errors.Is(err, domain.ErrInvalidState))

	submitted, err := c.Submit()
	require.NoError(t, err)

	_, err = submitted.Approve(ada, "mine")
	assert.True(t, errors.Is(err, domain.ErrValidation), "self approval")

	_, err = submitted.Return(bob, " ")
	assert.True(t, errors.Is(err, domain.ErrValidation), "empty comment")

	approved, err := submitted.Approve(bob, "ok")
	require.NoError(t, err)
	_, err = approved.Approve(bob, "")
	assert.True(t, errors.Is(err, domain.ErrInvalidState), "terminal status wins over an empty comment")
}

func TestClaim_SelfApprovalComparesIDOnly(t *testing.T) {
	submitted, err := buildClaim(t, domain.NewClaimBuilder(ada)).Submit()
	require.NoError(t, err)
	renamedAda := domain.User{ID: ada.ID, Name: "u-ada"}

	_, err = submitted.Approve(renamedAda, "looks fine")
	assert.True(t, errors.Is(err, domain.ErrValidation))
	_, err = submitted.Return(renamedAda, "again")
	assert.True(t, errors.Is(err, domain.ErrValidation))
	assert.False(t, submitted.CanApprove(renamedAda))
}

// ---- derived values --------------------------------------------------------

func TestClaim_TotalsAndIncomplete(t *testing.T) {
	cad := mustExpense(t, "Lunch", "12.50")
	cad2 := mustExpense(t, "Dinner", "20.25")
	usd, err := mustExpense(t, "Taxi", "30").Edit().Currency(domain.USD).Build()
	require.NoError(t, err)
	c := buildClaim(t, domain.NewClaimBuilder(ada).PutExpense(cad).PutExpense(usd).PutExpense(cad2))

	totals := c.Totals()

	require.Len(t, totals, 2)
	assert.Equal(t, domain.CAD, totals[0].Currency)
	assert.True(t, totals[0].Amount.Equal(decimal.RequireFromString("32.75")))
	assert.Equal(t, domain.USD, totals[1].Currency)
	assert.False(t, c.HasIncompleteExpenses())

	draft, err := cad.Edit().Completed(false).Build()
	require.NoError(t, err)
	c = buildClaim(t, c.Edit().PutExpense(draft))
	assert.True(t, c.HasIncompleteExpenses())
}

func TestSortByStartTime(t *testing.T) {
	undated := buildClaim(t, domain.NewClaimBuilder(ada))
	claims := []domain.Claim{
		buildClaim(t, domain.NewClaimBuilder(ada).StartTime(day(10))),
		undated,
		buildClaim(t, domain.NewClaimBuilder(ada).StartTime(day(2))),
		buildClaim(t, domain.NewClaimBuilder(ada).StartTime(day(30))),
	}

	domain.SortByStartTime(claims)

	assert.Equal(t, day(2), claims[0].StartTime())
	assert.Equal(t, day(10), claims[1].StartTime())
	assert.Equal(t, day(30), claims[2].StartTime())
	assert.Equal(t, undated.ID(), claims[3].ID(), "claims without a start time sort last")
}

func TestFilterByTags(t *testing.T) {
	q2 := mustTag(t, "q2")
	tagged := buildClaim(t, domain.NewClaimBuilder(ada).AddTag(q2))
	plain := buildClaim(t, domain.NewClaimBuilder(ada))
	claims := []domain.Claim{tagged, plain}

	assert.Len(t, domain.FilterByTags(claims), 2)
	got := domain.FilterByTags(claims, q2.ID)
	require.Len(t, got, 1)
	assert.Equal(t, tagged.ID(), got[0].ID())
}
