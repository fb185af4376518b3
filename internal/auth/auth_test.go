package auth

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prdtool/internal/domain"
	"prdtool/internal/domain/models"
)

func signedToken(t *testing.T, key *ecdsa.PrivateKey, claims *models.SupabaseClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodES256, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func TestVerifyToken(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	verifier := NewKeyfuncVerifier(func(*jwt.Token) (interface{}, error) {
		return &key.PublicKey, nil
	}, logger)

	claims := func(role string, exp time.Time) *models.SupabaseClaims {
		return &models.SupabaseClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "0c6f2d1a-8e44-4b3f-a2c5-9b7d6e5f4a30",
				ExpiresAt: jwt.NewNumericDate(exp),
			},
			Role: role,
		}
	}

	t.Run("valid", func(t *testing.T) {
		got, err := verifier.VerifyToken(signedToken(t, key, claims("authenticated", time.Now().Add(time.Hour))))
		require.NoError(t, err)
		assert.Equal(t, "0c6f2d1a-8e44-4b3f-a2c5-9b7d6e5f4a30", got.GetUserID())
	})

	t.Run("anonymous role", func(t *testing.T) {
		_, err := verifier.VerifyToken(signedToken(t, key, claims("anon", time.Now().Add(time.Hour))))
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("expired", func(t *testing.T) {
		_, err := verifier.VerifyToken(signedToken(t, key, claims("authenticated", time.Now().Add(-time.Hour))))
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("hmac rejected", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims("authenticated", time.Now().Add(time.Hour))).
			SignedString([]byte("secret"))
		require.NoError(t, err)
		_, err = verifier.VerifyToken(token)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := verifier.VerifyToken("not-a-token")
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})
}

func TestAdminClient_EnsureUser(t *testing.T) {
	var created []createUserRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer service-key", r.Header.Get("Authorization"))
		assert.Equal(t, "/auth/v1/admin/users", r.URL.Path)

		switch r.Method {
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode(listUsersResponse{Users: []adminUser{{ID: "existing-id", Email: "known@example.com"}}})
		case http.MethodPost:
			var req createUserRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			created = append(created, req)
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(adminUser{ID: "new-id", Email: req.Email})
		}
	}))
	defer srv.Close()

	client := NewAdminClient(srv.URL, "service-key")

	id, err := client.EnsureUser(context.Background(), "known@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "existing-id", id)
	assert.Empty(t, created)

	id, err = client.EnsureUser(context.Background(), "new@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "new-id", id)
	require.Len(t, created, 1)
	assert.True(t, created[0].EmailConfirm)
}

func TestAdminClient_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewAdminClient(srv.URL, "bad").EnsureUser(context.Background(), "a@example.com", "pw")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}
