package domain

import (
	"fmt"
	"strings"
)

// Comment is an approver's note recorded when a claim is approved or returned.
type Comment struct {
	Text     string `json:"text"`
	Approver User   `json:"approver"`
}

// NewComment requires non-empty text and a complete approver.
func NewComment(text string, approver User) (Comment, error) {
	c := Comment{Text: strings.TrimSpace(text), Approver: approver}
	if err := c.Validate(); err != nil {
		return Comment{}, err
	}
	return c, nil
}

func (c Comment) Validate() error {
	if c.Text == "" {
		return fmt.Errorf("%w: comment text is required", ErrValidation)
	}
	if err := c.Approver.Validate(); err != nil {
		return fmt.Errorf("comment approver: %w", err)
	}
	return nil
}
