package service_test

import (
	"context"
	"sync"

	"github.com/pkordes/claimtrack/internal/domain"
	"github.com/pkordes/claimtrack/internal/repo"
)

// ---- mock TagStore ---------------------------------------------------------

type mockTagStore struct {
	readAllTags func(ctx context.Context) ([]domain.Tag, error)
	saveAllTags func(ctx context.Context, tags []domain.Tag) error
}

func (m *mockTagStore) ReadAllTags(ctx context.Context) ([]domain.Tag, error) {
	if m.readAllTags == nil {
		return nil, nil
	}
	return m.readAllTags(ctx)
}

func (m *mockTagStore) SaveAllTags(ctx context.Context, tags []domain.Tag) error {
	if m.saveAllTags == nil {
		return nil
	}
	return m.saveAllTags(ctx, tags)
}

// compile-time check
var _ repo.TagStore = (*mockTagStore)(nil)

// ---- mock ClaimStore -------------------------------------------------------

type mockClaimStore struct {
	readAllClaims func(ctx context.Context) ([]domain.Claim, error)
	saveAllClaims func(ctx context.Context, claims []domain.Claim) error
}

func (m *mockClaimStore) ReadAllClaims(ctx context.Context) ([]domain.Claim, error) {
	if m.readAllClaims == nil {
		return nil, nil
	}
	return m.readAllClaims(ctx)
}

func (m *mockClaimStore) SaveAllClaims(ctx context.Context, claims []domain.Claim) error {
	if m.saveAllClaims == nil {
		return nil
	}
	return m.saveAllClaims(ctx, claims)
}

var _ repo.ClaimStore = (*mockClaimStore)(nil)

// ---- recording RemoteSaver -------------------------------------------------

type recordingRemote struct {
	mu    sync.Mutex
	saved [][]domain.Claim
}

func (r *recordingRemote) SaveClaims(claims []domain.Claim) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved = append(r.saved, claims)
}

func (r *recordingRemote) batches() [][]domain.Claim {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saved
}
