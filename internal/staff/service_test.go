package staff

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	byEmail map[string]*Staff
}

func (r *stubRepo) Create(ctx context.Context, s *Staff) error { return nil }

func (r *stubRepo) GetByID(ctx context.Context, id string) (*Staff, error) {
	return nil, ErrNotFound
}

func (r *stubRepo) GetByEmail(ctx context.Context, email string) (*Staff, error) {
	if s, ok := r.byEmail[email]; ok {
		return s, nil
	}
	return nil, ErrNotFound
}

func (r *stubRepo) Delete(ctx context.Context, id string) (bool, error) { return false, nil }

func testSessions(t *testing.T) *Sessions {
	t.Helper()
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	return NewSessions(&stubRepo{byEmail: map[string]*Staff{
		"ana@resto.test": {
			ID:           "st1",
			RestaurantID: "r1",
			Email:        "ana@resto.test",
			Role:         RoleManager,
			PasswordHash: hash,
		},
	}})
}

func TestLoginSweepsExpiredTokens(t *testing.T) {
	svc := testSessions(t)

	svc.tokens["stale-1"] = Session{Token: "stale-1", StaffID: "old", ExpiresAt: time.Now().Add(-time.Hour)}
	svc.tokens["stale-2"] = Session{Token: "stale-2", StaffID: "old", ExpiresAt: time.Now().Add(-time.Minute)}
	svc.tokens["fresh"] = Session{Token: "fresh", StaffID: "st9", ExpiresAt: time.Now().Add(time.Hour)}

	sess, err := svc.Login(context.Background(), "ana@resto.test", "s3cret")
	require.NoError(t, err)

	svc.mu.Lock()
	defer svc.mu.Unlock()
	assert.Len(t, svc.tokens, 2)
	assert.Contains(t, svc.tokens, sess.Token)
	assert.Contains(t, svc.tokens, "fresh")
	assert.NotContains(t, svc.tokens, "stale-1")
	assert.NotContains(t, svc.tokens, "stale-2")
}

func TestValidatePrunesExpiredToken(t *testing.T) {
	svc := testSessions(t)
	svc.tokens["stale"] = Session{Token: "stale", StaffID: "st1", ExpiresAt: time.Now().Add(-time.Second)}

	_, ok := svc.Validate("stale")
	assert.False(t, ok)

	svc.mu.Lock()
	defer svc.mu.Unlock()
	assert.NotContains(t, svc.tokens, "stale")
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := testSessions(t)

	_, err := svc.Login(context.Background(), "ana@resto.test", "wrong")
	assert.ErrorIs(t, err, ErrBadCredentials)

	_, err = svc.Login(context.Background(), "nobody@resto.test", "s3cret")
	assert.ErrorIs(t, err, ErrBadCredentials)
}
