package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/claimtrack/internal/domain"
)

// ---- POST /claims ----------------------------------------------------------

func TestCreateClaim_201(t *testing.T) {
	api := newTestAPI(t, nil)

	rec := api.do(t, http.MethodPost, "/claims", ada, map[string]any{
		"startTime": "2025-06-01T09:00:00Z",
		"endTime":   "2025-06-03T17:00:00Z",
		"destinations": []map[string]any{
			{"name": "Ottawa", "reason": "client visit", "location": map[string]float64{"lat": 45.42, "lng": -75.69}},
		},
		"tags": []string{"ok", "travel"},
	})

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decodeClaim(t, rec)
	assert.NotEmpty(t, body.Claim.ID)
	assert.Equal(t, ada, body.Claim.Claimant)
	assert.Equal(t, string(domain.StatusInProgress), body.Claim.Status)
	require.Len(t, body.Claim.Destinations, 1)
	assert.Equal(t, "Ottawa", body.Claim.Destinations[0].Name)
	assert.Len(t, body.Claim.Tags, 2)

	_, ok := api.tags.FindByName("travel")
	assert.True(t, ok, "tags named on create are registered")
}

func TestCreateClaim_401_NoUser(t *testing.T) {
	api := newTestAPI(t, nil)

	rec := api.do(t, http.MethodPost, "/claims", domain.User{}, map[string]any{})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateClaim_422_StartAfterEnd(t *testing.T) {
	api := newTestAPI(t, nil)

	rec := api.do(t, http.MethodPost, "/claims", ada, map[string]any{
		"startTime": "2025-06-05T00:00:00Z",
		"endTime":   "2025-06-01T00:00:00Z",
	})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "validation_error", decodeError(t, rec).Error.Code)
}

func TestCreateClaim_422_MalformedBody(t *testing.T) {
	api := newTestAPI(t, nil)

	rec := api.do(t, http.MethodPost, "/claims", ada, "not an object")

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

// ---- GET /claims -----------------------------------------------------------

func TestListClaims_ViewsAndPagination(t *testing.T) {
	api := newTestAPI(t, nil)
	late := api.createClaim(t, ada, map[string]any{"startTime": "2025-09-01T00:00:00Z"})
	early := api.createClaim(t, ada, map[string]any{"startTime": "2025-01-01T00:00:00Z"})
	api.createClaim(t, bob, nil)

	rec := api.do(t, http.MethodGet, "/claims?view=mine", ada, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var mine struct {
		Data []claimBody `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&mine))
	require.Len(t, mine.Data, 2)
	assert.Equal(t, early, mine.Data[0].Claim.ID)
	assert.Equal(t, late, mine.Data[1].Claim.ID)

	rec = api.do(t, http.MethodGet, "/claims?page=2&limit=2", domain.User{}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Data       []claimBody `json:"data"`
		Pagination struct {
			Page  int `json:"page"`
			Limit int `json:"limit"`
			Total int `json:"total"`
		} `json:"pagination"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&page))
	assert.Len(t, page.Data, 1)
	assert.Equal(t, 2, page.Pagination.Page)
	assert.Equal(t, 3, page.Pagination.Total)
}

func TestListClaims_ReviewView(t *testing.T) {
	api := newTestAPI(t, nil)
	id := api.createClaim(t, ada, nil)
	require.Equal(t, http.StatusOK, api.do(t, http.MethodPost, "/claims/"+id+"/submit", ada, nil).Code)

	rec := api.do(t, http.MethodGet, "/claims?view=review", bob, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data []claimBody `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, id, resp.Data[0].Claim.ID)

	rec = api.do(t, http.MethodGet, "/claims?view=review", ada, nil)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Empty(t, resp.Data, "claimants never review their own claims")
}

func TestListClaims_FilterByTag(t *testing.T) {
	api := newTestAPI(t, nil)
	tagged := api.createClaim(t, ada, map[string]any{"tags": []string{"q3"}})
	api.createClaim(t, ada, nil)
	tag, ok := api.tags.FindByName("q3")
	require.True(t, ok)

	rec := api.do(t, http.MethodGet, "/claims?tag="+tag.ID, ada, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data []claimBody `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, tagged, resp.Data[0].Claim.ID)
}

func TestListClaims_422_UnknownView(t *testing.T) {
	api := newTestAPI(t, nil)

	rec := api.do(t, http.MethodGet, "/claims?view=everything", ada, nil)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

// ---- GET/PATCH/DELETE /claims/{id} ----------------------------------------

func TestGetClaim_404(t *testing.T) {
	api := newTestAPI(t, nil)

	rec := api.do(t, http.MethodGet, "/claims/nope", ada, nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeError(t, rec).Error.Code)
}

func TestUpdateClaim_MovesRangeForward(t *testing.T) {
	api := newTestAPI(t, nil)
	id := api.createClaim(t, ada, map[string]any{
		"startTime": "2025-01-01T00:00:00Z",
		"endTime":   "2025-01-02T00:00:00Z",
	})

	rec := api.do(t, http.MethodPatch, "/claims/"+id, ada, map[string]any{
		"startTime":    "2025-03-01T00:00:00Z",
		"endTime":      "2025-03-02T00:00:00Z",
		"destinations": []map[string]any{{"name": "Montreal"}},
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	claim, ok := api.claims.Get(id)
	require.True(t, ok)
	assert.Equal(t, 3, int(claim.StartTime().Month()))
	require.Len(t, claim.Destinations(), 1)
	assert.Equal(t, "Montreal", claim.Destinations()[0].Name())
}

func TestUpdateClaim_422_NotClaimant(t *testing.T) {
	api := newTestAPI(t, nil)
	id := api.createClaim(t, ada, nil)

	rec := api.do(t, http.MethodPatch, "/claims/"+id, bob, map[string]any{"clearStartTime": true})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestUpdateClaim_409_Submitted(t *testing.T) {
	api := newTestAPI(t, nil)
	id := api.createClaim(t, ada, nil)
	require.Equal(t, http.StatusOK, api.do(t, http.MethodPost, "/claims/"+id+"/submit", ada, nil).Code)

	rec := api.do(t, http.MethodPatch, "/claims/"+id, ada, map[string]any{"clearStartTime": true})

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "invalid_state", decodeError(t, rec).Error.Code)
}

func TestDeleteClaim_204(t *testing.T) {
	api := newTestAPI(t, nil)
	id := api.createClaim(t, ada, nil)

	rec := api.do(t, http.MethodDelete, "/claims/"+id, ada, nil)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	_, ok := api.claims.Get(id)
	assert.False(t, ok)
	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodDelete, "/claims/"+id, ada, nil).Code)
}

// ---- lifecycle -------------------------------------------------------------

func TestLifecycle_SubmitReturnResubmitApprove(t *testing.T) {
	api := newTestAPI(t, nil)
	id := api.createClaim(t, ada, nil)
	path := "/claims/" + id

	require.Equal(t, http.StatusOK, api.do(t, http.MethodPost, path+"/submit", ada, nil).Code)

	rec := api.do(t, http.MethodPost, path+"/return", bob, map[string]string{"comment": "missing receipt"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, string(domain.StatusReturned), decodeClaim(t, rec).Claim.Status)

	require.Equal(t, http.StatusOK, api.do(t, http.MethodPost, path+"/submit", ada, nil).Code)

	rec = api.do(t, http.MethodPost, path+"/approve", bob, map[string]string{"comment": "looks good"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeClaim(t, rec)
	assert.Equal(t, string(domain.StatusApproved), body.Claim.Status)
	require.Len(t, body.Claim.Comments, 2)
	assert.Equal(t, "looks good", body.Claim.Comments[1].Text)

	rec = api.do(t, http.MethodPost, path+"/approve", bob, map[string]string{"comment": "again"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestApproveClaim_422_SelfApproval(t *testing.T) {
	api := newTestAPI(t, nil)
	id := api.createClaim(t, ada, nil)
	require.Equal(t, http.StatusOK, api.do(t, http.MethodPost, "/claims/"+id+"/submit", ada, nil).Code)

	rec := api.do(t, http.MethodPost, "/claims/"+id+"/approve", ada, map[string]string{"comment": "fine by me"})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestApproveClaim_422_SelfApprovalUnderAnotherName(t *testing.T) {
	api := newTestAPI(t, nil)
	id := api.createClaim(t, ada, nil)
	require.Equal(t, http.StatusOK, api.do(t, http.MethodPost, "/claims/"+id+"/submit", ada, nil).Code)

	for _, alias := range []domain.User{{ID: ada.ID}, {ID: ada.ID, Name: "Not Ada"}} {
		rec := api.do(t, http.MethodPost, "/claims/"+id+"/approve", alias, map[string]string{"comment": "fine by me"})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, alias.Name)
	}
	claim, _ := api.claims.Get(id)
	assert.Equal(t, domain.StatusSubmitted, claim.Status())
}

func TestUpdateClaim_ClaimantWithoutNameHeader(t *testing.T) {
	api := newTestAPI(t, nil)
	id := api.createClaim(t, ada, nil)

	rec := api.do(t, http.MethodPatch, "/claims/"+id, domain.User{ID: ada.ID}, map[string]any{"destinations": []map[string]string{{"name": "Ottawa", "reason": "client visit"}}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = api.do(t, http.MethodDelete, "/claims/"+id, domain.User{ID: ada.ID}, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestDeleteClaim_409_Submitted(t *testing.T) {
	api := newTestAPI(t, nil)
	id := api.createClaim(t, ada, nil)
	require.Equal(t, http.StatusOK, api.do(t, http.MethodPost, "/claims/"+id+"/submit", ada, nil).Code)

	rec := api.do(t, http.MethodDelete, "/claims/"+id, ada, nil)

	assert.Equal(t, http.StatusConflict, rec.Code)
	_, ok := api.claims.Get(id)
	assert.True(t, ok)
}

func TestApproveClaim_422_EmptyComment(t *testing.T) {
	api := newTestAPI(t, nil)
	id := api.createClaim(t, ada, nil)
	require.Equal(t, http.StatusOK, api.do(t, http.MethodPost, "/claims/"+id+"/submit", ada, nil).Code)

	rec := api.do(t, http.MethodPost, "/claims/"+id+"/approve", bob, map[string]string{"comment": "  "})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestSubmitClaim_404(t *testing.T) {
	api := newTestAPI(t, nil)

	rec := api.do(t, http.MethodPost, "/claims/nope/submit", ada, nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ---- claim tags ------------------------------------------------------------

func TestClaimTags_AddAndRemove(t *testing.T) {
	api := newTestAPI(t, nil)
	id := api.createClaim(t, ada, nil)

	rec := api.do(t, http.MethodPost, "/claims/"+id+"/tags", ada, map[string]string{"name": "conference"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	tags := decodeClaim(t, rec).Claim.Tags
	require.Len(t, tags, 1)
	assert.Equal(t, "conference", tags[0].Name)

	rec = api.do(t, http.MethodDelete, "/claims/"+id+"/tags/"+tags[0].ID, ada, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeClaim(t, rec).Claim.Tags)

	rec = api.do(t, http.MethodDelete, "/claims/"+id+"/tags/"+tags[0].ID, ada, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClaimTags_AddStoresCurrentTagValue(t *testing.T) {
	api := newTestAPI(t, nil)
	id := api.createClaim(t, ada, nil)
	tag, err := api.tags.GetOrCreate(context.Background(), "conference")
	require.NoError(t, err)

	rec := api.do(t, http.MethodPost, "/claims/"+id+"/tags", ada, map[string]string{"name": "conference"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	_, err = api.tags.Rename(context.Background(), tag, "summit")
	require.NoError(t, err)

	claim, _ := api.claims.Get(id)
	current, _ := api.tags.FindByID(tag.ID)
	assert.Equal(t, []domain.Tag{current}, claim.Tags())
}
