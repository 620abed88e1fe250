package remote

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pkordes/claimtrack/internal/domain"
)

// ClaimReader reads mirrored claims back from an Index.
type ClaimReader struct {
	idx   Index
	limit int
	log   *slog.Logger
}

// NewClaimReader returns a reader returning at most limit claims per call.
func NewClaimReader(idx Index, limit int, log *slog.Logger) *ClaimReader {
	if log == nil {
		log = slog.Default()
	}
	return &ClaimReader{idx: idx, limit: limit, log: log}
}

// ReadClaims lists the claims index. Documents that fail to decode or break
// a claim invariant are skipped.
func (r *ClaimReader) ReadClaims(ctx context.Context) ([]domain.Claim, error) {
	claims, err := ReadAll[domain.Claim](ctx, r.idx, ClaimsIndex, r.limit, r.log)
	if err != nil {
		return nil, fmt.Errorf("remote.ClaimReader.ReadClaims: %w", err)
	}
	valid := claims[:0]
	for _, c := range claims {
		if err := c.Validate(); err != nil {
			r.log.WarnContext(ctx, "skipping invalid remote claim", "claim_id", c.ID(), "error", err)
			continue
		}
		valid = append(valid, c)
	}
	return valid, nil
}
