package domain

import (
	"fmt"
	"strings"
)

// ApprovalPolicy decides whether approver may approve or return a claim.
type ApprovalPolicy func(c Claim, approver User) bool

// SubmittedNotSelf allows any user other than the claimant to act on a
// submitted claim. It is the default policy.
func SubmittedNotSelf(c Claim, approver User) bool {
	return c.status == StatusSubmitted && !approver.Same(c.claimant)
}

// SingleApprover additionally pins a claim to the first approver who
// commented on it: once any approver has acted, only that approver may act
// again.
func SingleApprover(c Claim, approver User) bool {
	if !SubmittedNotSelf(c, approver) {
		return false
	}
	for _, cm := range c.comments {
		if !cm.Approver.Same(approver) {
			return false
		}
	}
	return true
}

// Policy names accepted by ParseApprovalPolicy.
const (
	PolicySubmittedNotSelf = "submitted-not-self"
	PolicySingleApprover   = "single-approver"
)

// ParseApprovalPolicy maps a configuration name to its policy.
// An empty name selects SubmittedNotSelf.
func ParseApprovalPolicy(name string) (ApprovalPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", PolicySubmittedNotSelf:
		return SubmittedNotSelf, nil
	case PolicySingleApprover:
		return SingleApprover, nil
	}
	return nil, fmt.Errorf("%w: unknown approval policy %q", ErrValidation, name)
}
