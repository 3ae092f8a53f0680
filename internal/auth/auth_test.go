package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"potterylog/internal/domain"
	"potterylog/internal/logging"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("kiln-opening-day")
	require.NoError(t, err)
	assert.NotEqual(t, "kiln-opening-day", hash)

	assert.True(t, CheckPassword(hash, "kiln-opening-day"))
	assert.False(t, CheckPassword(hash, "wrong"))
	assert.False(t, CheckPassword("not-a-hash", "kiln-opening-day"))
}

func TestIssueAndVerify(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)

	token, err := issuer.Issue(&domain.User{ID: "u-1", Username: "potter"})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", userID)
}

func TestVerifyExpiredToken(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Minute)
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	issuer.now = func() time.Time { return base }

	token, err := issuer.Issue(&domain.User{ID: "u-1", Username: "potter"})
	require.NoError(t, err)

	issuer.now = func() time.Time { return base.Add(2 * time.Minute) }
	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyWrongSecret(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	other := NewTokenIssuer("other", time.Hour)

	token, err := issuer.Issue(&domain.User{ID: "u-1", Username: "potter"})
	require.NoError(t, err)

	_, err = other.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyGarbage(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	_, err := issuer.Verify("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestMiddleware(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	logger := logging.Discard()

	var gotUserID string
	handler := Middleware(issuer, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, _ = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("valid token", func(t *testing.T) {
		token, err := issuer.Issue(&domain.User{ID: "u-7", Username: "potter"})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/items", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "u-7", gotUserID)
	})

	t.Run("missing header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/items", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "Not authenticated", body["detail"])
	})

	t.Run("bad token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/items", nil)
		req.Header.Set("Authorization", "Bearer nonsense")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

type fakeUserStore struct {
	count   int
	created *domain.User
}

func (f *fakeUserStore) Count(ctx context.Context) (int, error) { return f.count, nil }

func (f *fakeUserStore) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	f.created = user
	return user, nil
}

func TestEnsureBootstrapUser(t *testing.T) {
	logger := logging.Discard()
	ctx := context.Background()

	t.Run("creates admin on empty table", func(t *testing.T) {
		users := &fakeUserStore{}
		err := EnsureBootstrapUser(ctx, users, "admin", "hunter2", logger)
		require.NoError(t, err)
		require.NotNil(t, users.created)
		assert.Equal(t, "admin", users.created.Username)
		assert.True(t, CheckPassword(users.created.HashedPassword, "hunter2"))
	})

	t.Run("skips when users exist", func(t *testing.T) {
		users := &fakeUserStore{count: 3}
		err := EnsureBootstrapUser(ctx, users, "admin", "hunter2", logger)
		require.NoError(t, err)
		assert.Nil(t, users.created)
	})

	t.Run("skips without credentials", func(t *testing.T) {
		users := &fakeUserStore{}
		err := EnsureBootstrapUser(ctx, users, "", "", logger)
		require.NoError(t, err)
		assert.Nil(t, users.created)
	})
}
