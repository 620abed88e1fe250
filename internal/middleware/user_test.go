package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/claimtrack/internal/domain"
	"github.com/pkordes/claimtrack/internal/middleware"
)

// captureUser runs the user middleware and returns what the next handler saw.
func captureUser(t *testing.T, id, name string) (domain.User, bool) {
	t.Helper()
	var (
		got domain.User
		ok  bool
	)
	h := middleware.NewUserContext()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = middleware.UserFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/claims", nil)
	if id != "" {
		req.Header.Set(middleware.HeaderUserID, id)
	}
	if name != "" {
		req.Header.Set(middleware.HeaderUserName, name)
	}
	h.ServeHTTP(httptest.NewRecorder(), req)
	return got, ok
}

func TestUserContext_BothHeaders(t *testing.T) {
	u, ok := captureUser(t, "u-1", "Ada Lovelace")

	require.True(t, ok)
	assert.Equal(t, domain.User{ID: "u-1", Name: "Ada Lovelace"}, u)
}

func TestUserContext_NameFallsBackToID(t *testing.T) {
	u, ok := captureUser(t, "u-1", "")

	require.True(t, ok)
	assert.Equal(t, "u-1", u.Name)
}

func TestUserContext_NoHeaders(t *testing.T) {
	_, ok := captureUser(t, "", "")

	assert.False(t, ok)
}

func TestUserContext_BlankIDIgnored(t *testing.T) {
	_, ok := captureUser(t, "   ", "Ada")

	assert.False(t, ok)
}
