package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/claimtrack/internal/domain"
)

// claimRequest is the body of POST /claims and PATCH /claims/{id}.
// On PATCH a nil field leaves the claim's value unchanged; Destinations,
// when present, replaces the whole list. Tags are only read on create.
type claimRequest struct {
	StartTime      *time.Time            `json:"startTime"`
	EndTime        *time.Time            `json:"endTime"`
	ClearStartTime bool                  `json:"clearStartTime"`
	ClearEndTime   bool                  `json:"clearEndTime"`
	Destinations   *[]destinationRequest `json:"destinations"`
	Tags           []string              `json:"tags"`
}

type destinationRequest struct {
	Name     string              `json:"name"`
	Reason   string              `json:"reason"`
	Location *domain.Geolocation `json:"location,omitempty"`
}

type reviewRequest struct {
	Comment string `json:"comment"`
}

type tagNameRequest struct {
	Name string `json:"name"`
}

// claimResponse is a claim plus the values derived from it.
type claimResponse struct {
	Claim                 domain.Claim   `json:"claim"`
	Totals                []domain.Money `json:"totals"`
	HasIncompleteExpenses bool           `json:"hasIncompleteExpenses"`
}

func toClaimResponse(c domain.Claim) claimResponse {
	return claimResponse{Claim: c, Totals: c.Totals(), HasIncompleteExpenses: c.HasIncompleteExpenses()}
}

func toClaimResponses(claims []domain.Claim) []claimResponse {
	out := make([]claimResponse, len(claims))
	for i, c := range claims {
		out[i] = toClaimResponse(c)
	}
	return out
}

// ListClaims handles GET /claims.
//
// ?view=mine lists the acting user's claims and ?view=review the claims they
// may approve; without a view every claim is listed. Repeated ?tag=<id>
// keeps claims carrying any of the given tags. Results are ordered by start
// time and paged with ?page= and ?limit=.
func (s *Server) ListClaims(w http.ResponseWriter, r *http.Request) {
	var claims []domain.Claim
	switch view := r.URL.Query().Get("view"); view {
	case "":
		claims = s.claims.Claims()
		domain.SortByStartTime(claims)
	case "mine", "review":
		u, ok := actingUser(w, r)
		if !ok {
			return
		}
		if view == "mine" {
			claims = s.claims.ForClaimant(u)
		} else {
			claims = s.claims.ForApprover(u)
		}
	default:
		badRequest(w, fmt.Sprintf("unknown view %q", view))
		return
	}
	claims = domain.FilterByTags(claims, r.URL.Query()["tag"]...)
	writeJSON(w, http.StatusOK, paged(r, toClaimResponses(claims)))
}

// CreateClaim handles POST /claims. The acting user becomes the claimant;
// tag names are resolved through the tag registry, creating missing tags.
func (s *Server) CreateClaim(w http.ResponseWriter, r *http.Request) {
	u, ok := actingUser(w, r)
	if !ok {
		return
	}
	var req claimRequest
	if !decodeBody(w, r, &req) {
		return
	}
	destinations, err := requestToDestinations(req.Destinations)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	tags := make([]domain.Tag, 0, len(req.Tags))
	for _, name := range req.Tags {
		t, err := s.tags.GetOrCreate(r.Context(), name)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		tags = append(tags, t)
	}

	b := applyClaimRequest(domain.NewClaimBuilder(u), req, destinations)
	for _, t := range tags {
		b.AddTag(t)
	}
	claim, err := b.Build()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.claims.AddClaim(r.Context(), claim); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toClaimResponse(claim))
}

// GetClaim handles GET /claims/{claimID}.
func (s *Server) GetClaim(w http.ResponseWriter, r *http.Request) {
	claim, ok := s.claims.Get(chi.URLParam(r, "claimID"))
	if !ok {
		notFound(w, "claim not found")
		return
	}
	writeJSON(w, http.StatusOK, toClaimResponse(claim))
}

// UpdateClaim handles PATCH /claims/{claimID}.
func (s *Server) UpdateClaim(w http.ResponseWriter, r *http.Request) {
	u, ok := actingUser(w, r)
	if !ok {
		return
	}
	var req claimRequest
	if !decodeBody(w, r, &req) {
		return
	}
	destinations, err := requestToDestinations(req.Destinations)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	updated, err := s.claims.Edit(r.Context(), chi.URLParam(r, "claimID"), u, func(b *domain.ClaimBuilder) *domain.ClaimBuilder {
		return applyClaimRequest(b, req, destinations)
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toClaimResponse(updated))
}

// DeleteClaim handles DELETE /claims/{claimID}. Only the claimant may delete,
// and only while the claim is still editable.
func (s *Server) DeleteClaim(w http.ResponseWriter, r *http.Request) {
	u, ok := actingUser(w, r)
	if !ok {
		return
	}
	if err := s.claims.Delete(r.Context(), chi.URLParam(r, "claimID"), u); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SubmitClaim handles POST /claims/{claimID}/submit.
func (s *Server) SubmitClaim(w http.ResponseWriter, r *http.Request) {
	u, ok := actingUser(w, r)
	if !ok {
		return
	}
	updated, err := s.claims.Submit(r.Context(), chi.URLParam(r, "claimID"), u)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toClaimResponse(updated))
}

// ApproveClaim handles POST /claims/{claimID}/approve.
func (s *Server) ApproveClaim(w http.ResponseWriter, r *http.Request) {
	s.review(w, r, s.claims.Approve)
}

// ReturnClaim handles POST /claims/{claimID}/return.
func (s *Server) ReturnClaim(w http.ResponseWriter, r *http.Request) {
	s.review(w, r, s.claims.Return)
}

type reviewFunc = func(ctx context.Context, id string, approver domain.User, comment string) (domain.Claim, error)

func (s *Server) review(w http.ResponseWriter, r *http.Request, act reviewFunc) {
	u, ok := actingUser(w, r)
	if !ok {
		return
	}
	var req reviewRequest
	if !decodeBody(w, r, &req) {
		return
	}
	updated, err := act(r.Context(), chi.URLParam(r, "claimID"), u, req.Comment)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toClaimResponse(updated))
}

// AddTagToClaim handles POST /claims/{claimID}/tags with {"name": "..."}.
// The tag is created in the registry if it does not exist yet. Its current
// value is looked up again under the claim lock, so a tag renamed or deleted
// in between is never stored stale.
func (s *Server) AddTagToClaim(w http.ResponseWriter, r *http.Request) {
	u, ok := actingUser(w, r)
	if !ok {
		return
	}
	var req tagNameRequest
	if !decodeBody(w, r, &req) {
		return
	}
	tag, err := s.tags.GetOrCreate(r.Context(), req.Name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	updated, err := s.claims.Edit(r.Context(), chi.URLParam(r, "claimID"), u, func(b *domain.ClaimBuilder) *domain.ClaimBuilder {
		current, ok := s.tags.FindByID(tag.ID)
		if !ok {
			return b.Fail(fmt.Errorf("tag %q: %w", tag.Name, domain.ErrNotFound))
		}
		return b.AddTag(current)
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toClaimResponse(updated))
}

// RemoveTagFromClaim handles DELETE /claims/{claimID}/tags/{tagID}.
func (s *Server) RemoveTagFromClaim(w http.ResponseWriter, r *http.Request) {
	u, ok := actingUser(w, r)
	if !ok {
		return
	}
	tagID := chi.URLParam(r, "tagID")
	updated, err := s.claims.Edit(r.Context(), chi.URLParam(r, "claimID"), u, func(b *domain.ClaimBuilder) *domain.ClaimBuilder {
		if !b.HasTag(tagID) {
			return b.Fail(fmt.Errorf("tag %s on claim: %w", tagID, domain.ErrNotFound))
		}
		return b.RemoveTag(domain.Tag{ID: tagID})
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toClaimResponse(updated))
}

// --- mapping helpers --------------------------------------------------------

// requestToDestinations builds every destination up front so a bad one is
// reported before the claim is touched. A nil list stays nil.
func requestToDestinations(reqs *[]destinationRequest) ([]domain.Destination, error) {
	if reqs == nil {
		return nil, nil
	}
	out := make([]domain.Destination, 0, len(*reqs))
	for i, dr := range *reqs {
		b := domain.NewDestinationBuilder().Name(dr.Name).Reason(dr.Reason)
		if dr.Location != nil {
			b.Location(*dr.Location)
		}
		d, err := b.Build()
		if err != nil {
			return nil, fmt.Errorf("destination %d: %w", i, err)
		}
		out = append(out, d)
	}
	return out, nil
}

// applyClaimRequest copies the request's fields onto b. The end time is
// cleared before a new start is set so a range can move forward in one call.
func applyClaimRequest(b *domain.ClaimBuilder, req claimRequest, destinations []domain.Destination) *domain.ClaimBuilder {
	if req.ClearStartTime {
		b.ClearStartTime()
	}
	if req.ClearEndTime || req.EndTime != nil {
		b.ClearEndTime()
	}
	if req.StartTime != nil {
		b.StartTime(*req.StartTime)
	}
	if req.EndTime != nil {
		b.EndTime(*req.EndTime)
	}
	if req.Destinations != nil {
		b.ClearDestinations()
		for _, d := range destinations {
			b.AddDestination(d)
		}
	}
	return b
}
