package handler_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func expenseBody(description string) map[string]any {
	return map[string]any{
		"description": description,
		"category":    "meal",
		"amount":      "42.50",
		"currency":    "usd",
		"occurredAt":  "2025-06-02T12:00:00Z",
		"completed":   true,
		"receipt":     "receipts/lunch.pdf",
	}
}

// ---- POST /claims/{id}/expenses --------------------------------------------

func TestCreateExpense_201(t *testing.T) {
	api := newTestAPI(t, nil)
	id := api.createClaim(t, ada, nil)

	rec := api.do(t, http.MethodPost, "/claims/"+id+"/expenses", ada, expenseBody("Team lunch"))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decodeClaim(t, rec)
	require.Len(t, body.Claim.Expenses, 1)
	assert.Equal(t, "Team lunch", body.Claim.Expenses[0].Description)
	require.Len(t, body.Totals, 1)
	assert.Equal(t, "USD", body.Totals[0].Currency)
	assert.False(t, body.HasIncompleteExpenses)
}

func TestCreateExpense_422_UnknownCategory(t *testing.T) {
	api := newTestAPI(t, nil)
	id := api.createClaim(t, ada, nil)
	body := expenseBody("Lunch")
	body["category"] = "yacht"

	rec := api.do(t, http.MethodPost, "/claims/"+id+"/expenses", ada, body)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decodeError(t, rec).Error.Message, "yacht")
}

func TestCreateExpense_422_BadAmount(t *testing.T) {
	api := newTestAPI(t, nil)
	id := api.createClaim(t, ada, nil)

	for _, amount := range []string{"lots", "-3"} {
		body := expenseBody("Lunch")
		body["amount"] = amount

		rec := api.do(t, http.MethodPost, "/claims/"+id+"/expenses", ada, body)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, amount)
	}
}

func TestCreateExpense_404_Claim(t *testing.T) {
	api := newTestAPI(t, nil)

	rec := api.do(t, http.MethodPost, "/claims/nope/expenses", ada, expenseBody("Lunch"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ---- PUT/DELETE /claims/{id}/expenses/{expenseID} --------------------------

func TestUpdateExpense_ReplacesByID(t *testing.T) {
	api := newTestAPI(t, nil)
	id := api.createClaim(t, ada, nil)
	rec := api.do(t, http.MethodPost, "/claims/"+id+"/expenses", ada, expenseBody("Lunch"))
	require.Equal(t, http.StatusCreated, rec.Code)
	expenseID := decodeClaim(t, rec).Claim.Expenses[0].ID

	update := expenseBody("Dinner")
	update["completed"] = false
	delete(update, "receipt")
	rec = api.do(t, http.MethodPut, "/claims/"+id+"/expenses/"+expenseID, ada, update)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeClaim(t, rec)
	require.Len(t, body.Claim.Expenses, 1)
	assert.Equal(t, expenseID, body.Claim.Expenses[0].ID)
	assert.Equal(t, "Dinner", body.Claim.Expenses[0].Description)
	assert.True(t, body.HasIncompleteExpenses)

	claim, _ := api.claims.Get(id)
	e, ok := claim.Expense(expenseID)
	require.True(t, ok)
	_, hasReceipt := e.Receipt()
	assert.False(t, hasReceipt)
}

func TestUpdateExpense_404_Expense(t *testing.T) {
	api := newTestAPI(t, nil)
	id := api.createClaim(t, ada, nil)

	rec := api.do(t, http.MethodPut, "/claims/"+id+"/expenses/nope", ada, expenseBody("Lunch"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteExpense(t *testing.T) {
	api := newTestAPI(t, nil)
	id := api.createClaim(t, ada, nil)
	rec := api.do(t, http.MethodPost, "/claims/"+id+"/expenses", ada, expenseBody("Lunch"))
	require.Equal(t, http.StatusCreated, rec.Code)
	expenseID := decodeClaim(t, rec).Claim.Expenses[0].ID

	rec = api.do(t, http.MethodDelete, "/claims/"+id+"/expenses/"+expenseID, ada, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeClaim(t, rec).Claim.Expenses)

	rec = api.do(t, http.MethodDelete, "/claims/"+id+"/expenses/"+expenseID, ada, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
