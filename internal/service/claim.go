// Package service contains the consistency engine for expense claims.
// TagRegistry owns tag identity; ClaimCollection owns the ordered claim list
// and keeps it consistent with tag renames and deletions. Services depend on
// repo interfaces, not implementations.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/pkordes/claimtrack/internal/domain"
	"github.com/pkordes/claimtrack/internal/repo"
)

// RemoteSaver receives claims after every local save for best-effort remote
// sync. Implementations must return immediately.
type RemoteSaver interface {
	SaveClaims(claims []domain.Claim)
}

// ClaimOption configures a ClaimCollection.
type ClaimOption func(*ClaimCollection)

// WithRemote forwards changed claims to r after each local save.
func WithRemote(r RemoteSaver) ClaimOption {
	return func(c *ClaimCollection) { c.remote = r }
}

// WithApprovalPolicy selects who may approve or return a submitted claim.
// The default is domain.SubmittedNotSelf.
func WithApprovalPolicy(p domain.ApprovalPolicy) ClaimOption {
	return func(c *ClaimCollection) {
		if p != nil {
			c.policy = p
		}
	}
}

// ClaimCollection owns the authoritative ordered list of claims.
//
// Every mutation holds the collection lock across the in-memory change and
// the store save, so two mutators cannot interleave their saves. Save
// failures are logged; Flush retries explicitly.
//
// If the store could not be read at construction the collection never
// writes to it, so an unreadable store is not replaced by a partial list.
type ClaimCollection struct {
	store   repo.ClaimStore
	loadErr error
	remote  RemoteSaver
	policy  domain.ApprovalPolicy
	log     *slog.Logger

	mu     sync.RWMutex
	claims []domain.Claim
}

// NewClaimCollection builds a collection seeded from store. A nil store keeps
// claims in memory only. A read failure is logged, the collection starts
// empty and local saves are disabled.
func NewClaimCollection(ctx context.Context, store repo.ClaimStore, log *slog.Logger, opts ...ClaimOption) *ClaimCollection {
	if log == nil {
		log = slog.Default()
	}
	c := &ClaimCollection{store: store, policy: domain.SubmittedNotSelf, log: log}
	for _, opt := range opts {
		opt(c)
	}
	if store == nil {
		return c
	}
	claims, err := store.ReadAllClaims(ctx)
	if err != nil {
		log.Error("reading claims failed; starting empty with saves disabled", "error", err)
		c.loadErr = err
		return c
	}
	c.claims = claims
	return c
}

// Claims returns a copy of the ordered claim list.
func (c *ClaimCollection) Claims() []domain.Claim {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.claims)
}

// Get looks up a claim by ID.
func (c *ClaimCollection) Get(id string) (domain.Claim, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := c.indexLocked(id); i >= 0 {
		return c.claims[i], true
	}
	return domain.Claim{}, false
}

// AddClaim appends claim and saves. Returns domain.ErrValidation if the claim
// breaks an invariant or its ID is already present.
func (c *ClaimCollection) AddClaim(ctx context.Context, claim domain.Claim) error {
	if err := claim.Validate(); err != nil {
		return fmt.Errorf("service.ClaimCollection.AddClaim: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.indexLocked(claim.ID()) >= 0 {
		return fmt.Errorf("service.ClaimCollection.AddClaim: %w: claim %s already exists", domain.ErrValidation, claim.ID())
	}
	c.claims = append(c.claims, claim)
	c.persistLocked(ctx, claim)
	return nil
}

// DeleteClaim removes the claim with claim's ID and saves. It reports whether
// a claim was removed. The remote copy is overwritten with a deleted marker.
func (c *ClaimCollection) DeleteClaim(ctx context.Context, claim domain.Claim) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexLocked(claim.ID())
	if i < 0 {
		return false
	}
	c.deleteLocked(ctx, i)
	return true
}

// Delete removes the claim with id on behalf of its claimant. The claimant
// and status checks run under the same lock as the removal.
// Returns domain.ErrNotFound if id is absent, domain.ErrValidation if user
// is not the claimant and domain.ErrInvalidState if the claim is no longer
// editable.
func (c *ClaimCollection) Delete(ctx context.Context, id string, user domain.User) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexLocked(id)
	if i < 0 {
		return fmt.Errorf("service.ClaimCollection.Delete: claim %s: %w", id, domain.ErrNotFound)
	}
	if err := checkOwnEditable(c.claims[i], user); err != nil {
		return fmt.Errorf("service.ClaimCollection.Delete: %w", err)
	}
	c.deleteLocked(ctx, i)
	return nil
}

func (c *ClaimCollection) deleteLocked(ctx context.Context, i int) {
	removed := c.claims[i]
	c.claims = slices.Delete(c.claims, i, i+1)

	marker, err := removed.Edit().Deleted(true).Build()
	if err != nil {
		c.log.ErrorContext(ctx, "building deleted marker failed", "claim_id", removed.ID(), "error", err)
		c.persistLocked(ctx)
		return
	}
	c.persistLocked(ctx, marker)
}

// EditClaim replaces old, located by ID, with updated at the same position
// and saves. Untouched claims keep their relative order. It does nothing and
// returns false when old is not present.
//
// Returns domain.ErrValidation if updated breaks an invariant or carries a
// different ID than old.
func (c *ClaimCollection) EditClaim(ctx context.Context, old, updated domain.Claim) (bool, error) {
	if updated.ID() != old.ID() {
		return false, fmt.Errorf("service.ClaimCollection.EditClaim: %w: claim %s cannot replace claim %s", domain.ErrValidation, updated.ID(), old.ID())
	}
	if err := updated.Validate(); err != nil {
		return false, fmt.Errorf("service.ClaimCollection.EditClaim: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.replaceLocked(old.ID(), updated) {
		return false, nil
	}
	c.persistLocked(ctx, updated)
	return true, nil
}

// Update applies fn to the claim with id and stores the result in its place,
// all under the collection lock. Returns domain.ErrNotFound if id is absent
// and fn's error unchanged.
func (c *ClaimCollection) Update(ctx context.Context, id string, fn func(domain.Claim) (domain.Claim, error)) (domain.Claim, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexLocked(id)
	if i < 0 {
		return domain.Claim{}, fmt.Errorf("service.ClaimCollection.Update: claim %s: %w", id, domain.ErrNotFound)
	}
	updated, err := fn(c.claims[i])
	if err != nil {
		return domain.Claim{}, err
	}
	c.claims[i] = updated
	c.persistLocked(ctx, updated)
	return updated, nil
}

// Edit lets the claimant change an editable claim through its builder.
// Returns domain.ErrValidation if editor is not the claimant and
// domain.ErrInvalidState if the claim's status does not allow edits.
func (c *ClaimCollection) Edit(ctx context.Context, id string, editor domain.User, fn func(*domain.ClaimBuilder) *domain.ClaimBuilder) (domain.Claim, error) {
	return c.Update(ctx, id, func(cl domain.Claim) (domain.Claim, error) {
		if err := checkOwnEditable(cl, editor); err != nil {
			return domain.Claim{}, fmt.Errorf("service.ClaimCollection.Edit: %w", err)
		}
		updated, err := fn(cl.Edit()).Build()
		if err != nil {
			return domain.Claim{}, fmt.Errorf("service.ClaimCollection.Edit: %w", err)
		}
		return updated, nil
	})
}

// Submit submits the claim with id on behalf of its claimant.
func (c *ClaimCollection) Submit(ctx context.Context, id string, claimant domain.User) (domain.Claim, error) {
	return c.Update(ctx, id, func(cl domain.Claim) (domain.Claim, error) {
		if !claimant.Same(cl.Claimant()) {
			return domain.Claim{}, fmt.Errorf("service.ClaimCollection.Submit: %w: only the claimant may submit a claim", domain.ErrValidation)
		}
		return cl.Submit()
	})
}

// Approve approves the claim with id if the approval policy allows approver.
func (c *ClaimCollection) Approve(ctx context.Context, id string, approver domain.User, comment string) (domain.Claim, error) {
	return c.Update(ctx, id, func(cl domain.Claim) (domain.Claim, error) {
		if err := c.checkPolicy(cl, approver); err != nil {
			return domain.Claim{}, err
		}
		return cl.Approve(approver, comment)
	})
}

// Return returns the claim with id to its claimant if the approval policy
// allows approver.
func (c *ClaimCollection) Return(ctx context.Context, id string, approver domain.User, comment string) (domain.Claim, error) {
	return c.Update(ctx, id, func(cl domain.Claim) (domain.Claim, error) {
		if err := c.checkPolicy(cl, approver); err != nil {
			return domain.Claim{}, err
		}
		return cl.Return(approver, comment)
	})
}

// checkPolicy lets the claim's own transition checks report self-approval
// and wrong status; it only adds the policy's extra restrictions.
func (c *ClaimCollection) checkPolicy(cl domain.Claim, approver domain.User) error {
	if approver.Same(cl.Claimant()) || cl.Status() != domain.StatusSubmitted {
		return nil
	}
	if !cl.CanApproveWith(c.policy, approver) {
		return fmt.Errorf("%w: %s may not review claim %s", domain.ErrValidation, approver.Name, cl.ID())
	}
	return nil
}

// checkOwnEditable reports whether user may change cl: only the claimant, and
// only while the status allows edits.
func checkOwnEditable(cl domain.Claim, user domain.User) error {
	if !user.Same(cl.Claimant()) {
		return fmt.Errorf("%w: only the claimant may change a claim", domain.ErrValidation)
	}
	if !cl.Editable() {
		return fmt.Errorf("%w: claim is %s", domain.ErrInvalidState, cl.Status())
	}
	return nil
}

// ForClaimant returns user's claims ordered by start time.
func (c *ClaimCollection) ForClaimant(user domain.User) []domain.Claim {
	return c.view(func(cl domain.Claim) bool { return cl.Claimant().Same(user) })
}

// ForApprover returns the claims user may approve under the collection's
// policy, ordered by start time.
func (c *ClaimCollection) ForApprover(user domain.User) []domain.Claim {
	return c.view(func(cl domain.Claim) bool { return cl.CanApproveWith(c.policy, user) })
}

func (c *ClaimCollection) view(keep func(domain.Claim) bool) []domain.Claim {
	c.mu.RLock()
	out := make([]domain.Claim, 0, len(c.claims))
	for _, cl := range c.claims {
		if keep(cl) {
			out = append(out, cl)
		}
	}
	c.mu.RUnlock()
	domain.SortByStartTime(out)
	return out
}

// HandleTagEvent keeps claims consistent with the tag registry: a renamed
// tag is swapped for its new value and a deleted tag is removed from every
// claim that references it. Created tags need no claim update.
func (c *ClaimCollection) HandleTagEvent(ctx context.Context, ev domain.TagEvent) {
	var rewrite func(*domain.ClaimBuilder) *domain.ClaimBuilder
	switch ev.Kind {
	case domain.TagRenamed:
		rewrite = func(b *domain.ClaimBuilder) *domain.ClaimBuilder { return b.RemoveTag(ev.Old).AddTag(ev.Tag) }
	case domain.TagDeleted:
		rewrite = func(b *domain.ClaimBuilder) *domain.ClaimBuilder { return b.RemoveTag(ev.Tag) }
	default:
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	var changed []domain.Claim
	for i, cl := range c.claims {
		if !cl.HasTag(ev.Tag.ID) {
			continue
		}
		updated, err := rewrite(cl.Edit()).Build()
		if err != nil {
			c.log.ErrorContext(ctx, "rewriting claim tags failed", "claim_id", cl.ID(), "tag_id", ev.Tag.ID, "error", err)
			continue
		}
		c.claims[i] = updated
		changed = append(changed, updated)
	}
	if len(changed) == 0 {
		return
	}
	c.log.InfoContext(ctx, "propagated tag change", "kind", string(ev.Kind), "tag_id", ev.Tag.ID, "claims", len(changed))
	c.persistLocked(ctx, changed...)
}

// Flush saves the current claim list and reports any store error, for
// callers that want to retry after a logged save failure. It refuses to
// write a store that could not be read at startup.
func (c *ClaimCollection) Flush(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	if c.loadErr != nil {
		return fmt.Errorf("service.ClaimCollection.Flush: %w: store was not read at startup: %w", domain.ErrPersistence, c.loadErr)
	}
	claims := c.Claims()
	if err := c.store.SaveAllClaims(ctx, claims); err != nil {
		return fmt.Errorf("service.ClaimCollection.Flush: %w: %w", domain.ErrPersistence, err)
	}
	return nil
}

func (c *ClaimCollection) indexLocked(id string) int {
	return slices.IndexFunc(c.claims, func(cl domain.Claim) bool { return cl.ID() == id })
}

func (c *ClaimCollection) replaceLocked(id string, updated domain.Claim) bool {
	i := c.indexLocked(id)
	if i < 0 {
		return false
	}
	c.claims[i] = updated
	return true
}

// persistLocked saves the full list, then hands changed claims to the remote
// saver. A local save failure is logged and does not stop the remote push.
func (c *ClaimCollection) persistLocked(ctx context.Context, changed ...domain.Claim) {
	switch {
	case c.store == nil:
	case c.loadErr != nil:
		c.log.WarnContext(ctx, "skipping claim save; store was not read at startup")
	default:
		if err := c.store.SaveAllClaims(ctx, slices.Clone(c.claims)); err != nil {
			c.log.ErrorContext(ctx, "saving claims failed", "error", err)
		}
	}
	if c.remote != nil && len(changed) > 0 {
		c.remote.SaveClaims(changed)
	}
}
