package middleware

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rentflow/mono-repo/backend/shared/go-utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	s, err := tok.SignedString(key)
	require.NoError(t, err)
	return s
}

func TestAdminAuthMiddleware(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	other, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	valid := func() jwt.MapClaims {
		return jwt.MapClaims{
			"sub":  "admin-1",
			"role": "admin",
			"iss":  TokenIssuer,
			"exp":  float64(time.Now().Add(time.Hour).Unix()),
		}
	}

	cases := []struct {
		name       string
		header     func() string
		wantStatus int
		wantCode   string
	}{
		{
			name:       "missing header",
			header:     func() string { return "" },
			wantStatus: http.StatusUnauthorized,
			wantCode:   utils.ErrCodeUnauthorized,
		},
		{
			name:       "valid admin",
			header:     func() string { return "Bearer " + signToken(t, key, valid()) },
			wantStatus: http.StatusOK,
		},
		{
			name: "expired",
			header: func() string {
				c := valid()
				c["exp"] = float64(time.Now().Add(-time.Minute).Unix())
				return "Bearer " + signToken(t, key, c)
			},
			wantStatus: http.StatusUnauthorized,
			wantCode:   utils.ErrCodeTokenExpired,
		},
		{
			name: "wrong issuer",
			header: func() string {
				c := valid()
				c["iss"] = "someone-else"
				return "Bearer " + signToken(t, key, c)
			},
			wantStatus: http.StatusUnauthorized,
			wantCode:   utils.ErrCodeUnauthorized,
		},
		{
			name:       "wrong key",
			header:     func() string { return "Bearer " + signToken(t, other, valid()) },
			wantStatus: http.StatusUnauthorized,
			wantCode:   utils.ErrCodeUnauthorized,
		},
		{
			name: "not an admin",
			header: func() string {
				c := valid()
				c["role"] = "tenant"
				return "Bearer " + signToken(t, key, c)
			},
			wantStatus: http.StatusForbidden,
			wantCode:   utils.ErrCodeUnauthorized,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var seenUser string
			h := AdminAuthMiddleware(&key.PublicKey)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seenUser = UserIDFromContext(r)
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/overdue", nil)
			if hv := tc.header(); hv != "" {
				req.Header.Set("Authorization", hv)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			require.Equal(t, tc.wantStatus, rr.Code)
			if tc.wantStatus == http.StatusOK {
				assert.Equal(t, "admin-1", seenUser)
				return
			}
			var body utils.ErrorResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, tc.wantCode, body.Code)
			assert.False(t, body.Success)
		})
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	h := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", rr.Header().Get(RequestIDHeader))

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.NotEmpty(t, seen)
	assert.NotEqual(t, "abc-123", seen)
}
