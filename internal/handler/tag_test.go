package handler_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/claimtrack/internal/domain"
)

type tagPage struct {
	Data       []domain.Tag `json:"data"`
	Pagination struct {
		Page  int `json:"page"`
		Limit int `json:"limit"`
		Total int `json:"total"`
	} `json:"pagination"`
}

// ---- GET /tags -------------------------------------------------------------

func TestListTags_PrefixAndPagination(t *testing.T) {
	api := newTestAPI(t, nil)
	for _, name := range []string{"Travel", "training", "meals", "transit"} {
		require.Equal(t, http.StatusCreated, api.do(t, http.MethodPost, "/tags", ada, map[string]string{"name": name}).Code)
	}

	rec := api.do(t, http.MethodGet, "/tags?q=tr&limit=2", ada, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var page tagPage
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&page))
	assert.Equal(t, 3, page.Pagination.Total)
	assert.Equal(t, 2, page.Pagination.Limit)
	require.Len(t, page.Data, 2)
	assert.Equal(t, "training", page.Data[0].Name)
	assert.Equal(t, "transit", page.Data[1].Name)
}

func TestListTags_EmptyIsArray(t *testing.T) {
	api := newTestAPI(t, nil)

	rec := api.do(t, http.MethodGet, "/tags", ada, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":[],"pagination":{"page":1,"limit":20,"total":0}}`, rec.Body.String())
}

// ---- POST /tags ------------------------------------------------------------

func TestCreateTag_SameNameSameTag(t *testing.T) {
	api := newTestAPI(t, nil)

	var first, second domain.Tag
	rec := api.do(t, http.MethodPost, "/tags", ada, map[string]string{"name": "ok"})
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&first))
	rec = api.do(t, http.MethodPost, "/tags", bob, map[string]string{"name": " ok "})
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&second))

	assert.Equal(t, first, second)
}

func TestCreateTag_422_EmptyName(t *testing.T) {
	api := newTestAPI(t, nil)

	rec := api.do(t, http.MethodPost, "/tags", ada, map[string]string{"name": "  "})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

// ---- PUT /tags/{id} --------------------------------------------------------

func TestRenameTag_PropagatesToClaims(t *testing.T) {
	api := newTestAPI(t, nil)
	id := api.createClaim(t, ada, map[string]any{"tags": []string{"ok"}})
	tag, ok := api.tags.FindByName("ok")
	require.True(t, ok)

	rec := api.do(t, http.MethodPut, "/tags/"+tag.ID, ada, map[string]string{"name": "wut"})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	claim, _ := api.claims.Get(id)
	require.Len(t, claim.Tags(), 1)
	assert.Equal(t, domain.Tag{ID: tag.ID, Name: "wut"}, claim.Tags()[0])
}

func TestRenameTag_422_NameTaken(t *testing.T) {
	api := newTestAPI(t, nil)
	api.createClaim(t, ada, map[string]any{"tags": []string{"ok", "wut"}})
	tag, _ := api.tags.FindByName("ok")

	rec := api.do(t, http.MethodPut, "/tags/"+tag.ID, ada, map[string]string{"name": "wut"})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestRenameTag_404(t *testing.T) {
	api := newTestAPI(t, nil)

	rec := api.do(t, http.MethodPut, "/tags/nope", ada, map[string]string{"name": "x"})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ---- DELETE /tags/{id} -----------------------------------------------------

func TestDeleteTag_RemovesFromClaims(t *testing.T) {
	api := newTestAPI(t, nil)
	id := api.createClaim(t, ada, map[string]any{"tags": []string{"ok", "keep"}})
	tag, _ := api.tags.FindByName("ok")

	rec := api.do(t, http.MethodDelete, "/tags/"+tag.ID, ada, nil)

	require.Equal(t, http.StatusNoContent, rec.Code)
	claim, _ := api.claims.Get(id)
	require.Len(t, claim.Tags(), 1)
	assert.Equal(t, "keep", claim.Tags()[0].Name)
	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodDelete, "/tags/"+tag.ID, ada, nil).Code)
}
