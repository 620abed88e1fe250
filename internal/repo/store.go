// Package repo contains the persistence collaborators for claims and tags.
// Each backend stores the full ordered list of claims and the ordered set of
// tags and replaces them wholesale on save. No business logic lives here:
// only encoding, storage and post-read validation.
package repo

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"

	"github.com/pkordes/claimtrack/internal/domain"
)

// ClaimStore persists the ordered list of claims.
type ClaimStore interface {
	// ReadAllClaims returns every stored claim in stored order.
	// A store with no prior data returns an empty slice and no error.
	ReadAllClaims(ctx context.Context) ([]domain.Claim, error)

	// SaveAllClaims replaces the stored claims with claims, keeping order.
	SaveAllClaims(ctx context.Context, claims []domain.Claim) error
}

// TagStore persists the ordered set of tags.
type TagStore interface {
	// ReadAllTags returns every stored tag in stored order.
	// A store with no prior data returns an empty slice and no error.
	ReadAllTags(ctx context.Context) ([]domain.Tag, error)

	// SaveAllTags replaces the stored tags with tags, keeping order.
	SaveAllTags(ctx context.Context, tags []domain.Tag) error
}

// Store is a backend that holds both claims and tags.
type Store interface {
	ClaimStore
	TagStore
}

// decodeEach decodes a JSON array element by element, so one hand-edited
// record costs only itself. Elements that fail to decode are dropped with a
// warning. An empty payload is an empty list; a payload that is not an array
// is an error.
func decodeEach[T any](log *slog.Logger, source string, data []byte) ([]T, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	out := make([]T, 0, len(raw))
	for i, elem := range raw {
		var v T
		if err := json.Unmarshal(elem, &v); err != nil {
			log.Warn("dropping undecodable stored record", "source", source, "index", i, "error", err)
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

// validClaims drops decoded claims that break an invariant, logging each one.
// Stored data is never trusted: files can be edited by hand or cut short.
func validClaims(log *slog.Logger, source string, claims []domain.Claim) []domain.Claim {
	out := make([]domain.Claim, 0, len(claims))
	seen := make(map[string]struct{}, len(claims))
	for _, c := range claims {
		if err := c.Validate(); err != nil {
			log.Warn("dropping invalid stored claim", "source", source, "claim_id", c.ID(), "error", err)
			continue
		}
		if _, dup := seen[c.ID()]; dup {
			log.Warn("dropping duplicate stored claim", "source", source, "claim_id", c.ID())
			continue
		}
		seen[c.ID()] = struct{}{}
		out = append(out, c)
	}
	return out
}

// validTags drops decoded tags that break an invariant or reuse an ID or a
// name already seen, logging each one.
func validTags(log *slog.Logger, source string, tags []domain.Tag) []domain.Tag {
	out := make([]domain.Tag, 0, len(tags))
	ids := make(map[string]struct{}, len(tags))
	names := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		if err := t.Validate(); err != nil {
			log.Warn("dropping invalid stored tag", "source", source, "tag_id", t.ID, "error", err)
			continue
		}
		_, dupID := ids[t.ID]
		_, dupName := names[t.Name]
		if dupID || dupName {
			log.Warn("dropping duplicate stored tag", "source", source, "tag_id", t.ID, "name", t.Name)
			continue
		}
		ids[t.ID] = struct{}{}
		names[t.Name] = struct{}{}
		out = append(out, t)
	}
	return out
}

func loggerOrDefault(log *slog.Logger) *slog.Logger {
	if log == nil {
		return slog.Default()
	}
	return log
}
