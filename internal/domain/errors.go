package domain

import "errors"

// ErrNotFound is returned when the requested claim or tag does not exist.
// Lookups prefer a (value, bool) result; this sentinel is used by the
// service and HTTP layers when an absent target must be reported.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned when input fails validation: an empty, negative
// or out-of-range builder argument, an unknown category or currency, start
// after end, or an approver acting on their own claim.
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrInvalidState is returned when a claim status transition is not allowed
// from the claim's current status (e.g. approving an approved claim).
// Handlers should map this to HTTP 409 Conflict.
var ErrInvalidState = errors.New("invalid state")

// ErrPersistence is returned when a store rejected a save. The in-memory
// state has already been updated; the caller decides whether to retry.
var ErrPersistence = errors.New("persistence error")
