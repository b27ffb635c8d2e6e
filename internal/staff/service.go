package staff

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrBadCredentials = errors.New("invalid email or password")

const sessionTTL = 12 * time.Hour

// Sessions authenticates staff and hands out opaque bearer tokens carrying
// the holder's restaurant scope. Tokens live in memory; a restart logs
// everyone out, which is acceptable for a back-office.
type Sessions struct {
	repo Repository

	mu     sync.Mutex
	tokens map[string]Session
}

func NewSessions(repo Repository) *Sessions {
	return &Sessions{repo: repo, tokens: make(map[string]Session)}
}

func (s *Sessions) Login(ctx context.Context, email, password string) (Session, error) {
	member, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Session{}, ErrBadCredentials
		}
		return Session{}, err
	}
	if !CheckPassword(member.PasswordHash, password) {
		return Session{}, ErrBadCredentials
	}
	sess := Session{
		Token:        uuid.NewString(),
		StaffID:      member.ID,
		RestaurantID: member.RestaurantID,
		Role:         member.Role,
		ExpiresAt:    time.Now().Add(sessionTTL),
	}
	s.mu.Lock()
	s.sweepLocked(time.Now())
	s.tokens[sess.Token] = sess
	s.mu.Unlock()
	return sess, nil
}

// sweepLocked drops every expired token so the map stays bounded by the
// number of live sessions. Caller holds s.mu.
func (s *Sessions) sweepLocked(now time.Time) {
	for tok, sess := range s.tokens {
		if now.After(sess.ExpiresAt) {
			delete(s.tokens, tok)
		}
	}
}

// Validate resolves a bearer token. Expired tokens are pruned on sight.
func (s *Sessions) Validate(token string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.tokens[token]
	if !ok {
		return Session{}, false
	}
	if time.Now().After(sess.ExpiresAt) {
		delete(s.tokens, token)
		return Session{}, false
	}
	return sess, true
}

func (s *Sessions) Logout(token string) {
	s.mu.Lock()
	delete(s.tokens, token)
	s.mu.Unlock()
}
