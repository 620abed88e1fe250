package domain

import (
	"fmt"
	"strings"
)

// User identifies a claimant or an approver. The ID is the identity; the
// name is display data and may differ between requests for the same user.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// NewUser validates and constructs a User.
func NewUser(id, name string) (User, error) {
	u := User{ID: strings.TrimSpace(id), Name: strings.TrimSpace(name)}
	if err := u.Validate(); err != nil {
		return User{}, err
	}
	return u, nil
}

// Validate reports whether the user carries both an ID and a name.
func (u User) Validate() error {
	if u.ID == "" {
		return fmt.Errorf("%w: user id is required", ErrValidation)
	}
	if u.Name == "" {
		return fmt.Errorf("%w: user name is required", ErrValidation)
	}
	return nil
}

// Same reports whether u and o are the same person, comparing IDs only.
func (u User) Same(o User) bool { return u.ID == o.ID }

// IsZero reports whether u is the zero User.
func (u User) IsZero() bool { return u == User{} }
