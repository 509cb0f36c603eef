package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testHandler(t *testing.T) *Handler {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)
	return NewHandler(
		Operator{Username: "operator", PasswordHash: string(hash)},
		TokenService{Secret: []byte("test-secret"), Issuer: "cellhub", Duration: time.Hour},
		NewDenylist(),
	)
}

func testRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h.RegisterRoutes(r.Group("/auth"))
	r.GET("/admin/ping", h.Middleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": MustGetClaims(c).Username})
	})
	return r
}

func do(r http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, r http.Handler) string {
	t.Helper()
	w := do(r, http.MethodPost, "/auth/token", `{"username":"operator","password":"correct horse"}`, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestTokenFlow(t *testing.T) {
	r := testRouter(testHandler(t))

	token := login(t, r)
	w := do(r, http.MethodGet, "/admin/ping", "", token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user":"operator"`)

	w = do(r, http.MethodPost, "/auth/logout", "", token)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/admin/ping", "", token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTokenRejections(t *testing.T) {
	h := testHandler(t)
	r := testRouter(h)

	cases := []struct {
		name string
		body string
		code int
	}{
		{"bad json", `{`, http.StatusBadRequest},
		{"missing password", `{"username":"operator"}`, http.StatusBadRequest},
		{"wrong password", `{"username":"operator","password":"nope nope"}`, http.StatusUnauthorized},
		{"wrong user", `{"username":"admin","password":"correct horse"}`, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.code, do(r, http.MethodPost, "/auth/token", tc.body, "").Code)
		})
	}

	t.Run("disabled", func(t *testing.T) {
		off := NewHandler(Operator{Username: "operator"}, h.Tokens, NewDenylist())
		w := do(testRouter(off), http.MethodPost, "/auth/token", `{"username":"operator","password":"correct horse"}`, "")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestMiddlewareRejectsBadTokens(t *testing.T) {
	h := testHandler(t)
	r := testRouter(h)

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/admin/ping", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/admin/ping", "", "garbage").Code)

	other := TokenService{Secret: []byte("other-secret"), Issuer: "cellhub", Duration: time.Hour}
	forged, _, err := other.Sign("operator")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/admin/ping", "", forged).Code)

	expired := h.Tokens
	expired.Duration = -time.Minute
	stale, _, err := expired.Sign("operator")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/admin/ping", "", stale).Code)
}

func TestHashPassword(t *testing.T) {
	_, err := HashPassword("short")
	assert.Error(t, err)

	hash, err := HashPassword("long enough")
	require.NoError(t, err)
	assert.NoError(t, Operator{Username: "op", PasswordHash: hash}.Verify("op", "long enough"))
}
