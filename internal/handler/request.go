package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/pkordes/claimtrack/internal/domain"
	"github.com/pkordes/claimtrack/internal/middleware"
)

// Pagination is the metadata returned alongside every paged list.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// listResponse wraps one page of items.
type listResponse[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// paged slices items to the page requested by ?page= and ?limit=
// (defaults: page=1, limit=20, max=100).
func paged[T any](r *http.Request, items []T) listResponse[T] {
	params := domain.NewPaginationParams(queryInt(r, "page"), queryInt(r, "limit"))
	data, total := domain.Paginate(items, params)
	return listResponse[T]{
		Data:       data,
		Pagination: Pagination{Page: params.Page, Limit: params.Limit, Total: total},
	}
}

// queryInt returns the named query parameter as an int, or nil when absent
// or malformed.
func queryInt(r *http.Request, key string) *int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil
	}
	return &n
}

// decodeBody decodes the JSON request body into v. It writes the error
// response itself and reports false when decoding fails.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Body == nil || r.Body == http.NoBody {
		badRequest(w, "request body is required")
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeErrorBody(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large")
			return false
		}
		badRequest(w, "malformed JSON body: "+err.Error())
		return false
	}
	return true
}

// actingUser returns the user set by middleware.NewUserContext, writing a
// 401 when there is none.
func actingUser(w http.ResponseWriter, r *http.Request) (domain.User, bool) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		unauthorized(w)
	}
	return u, ok
}
