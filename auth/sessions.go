package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"
	"time"
)

type session struct {
	gate     *Gate
	lastSeen time.Time
}

// Sessions keeps one Gate per verified credential, so a token is verified
// once and later requests reuse the outcome until the token expires or is
// signed out. Invalid credentials and Error outcomes are not kept.
type Sessions struct {
	verifier Verifier
	idleTTL  time.Duration
	now      func() time.Time

	mu      sync.Mutex
	gates   map[string]*session
	revoked map[string]time.Time // key -> token expiry
}

func NewSessions(v Verifier) *Sessions {
	return &Sessions{
		verifier: v,
		idleTTL:  time.Hour,
		now:      time.Now,
		gates:    make(map[string]*session),
		revoked:  make(map[string]time.Time),
	}
}

func sessionKey(credential string) string {
	sum := sha256.Sum256([]byte(credential))
	return hex.EncodeToString(sum[:])
}

// Resolve returns the caller's state for credential.
func (s *Sessions) Resolve(ctx context.Context, credential string) State {
	if credential == "" {
		return State{Status: Denied}
	}
	key := sessionKey(credential)
	now := s.now()

	s.mu.Lock()
	if _, ok := s.revoked[key]; ok {
		s.mu.Unlock()
		return State{Status: Denied}
	}
	entry, ok := s.gates[key]
	if ok {
		st := entry.gate.State()
		if !st.ExpiresAt.IsZero() && !now.Before(st.ExpiresAt) {
			delete(s.gates, key)
			ok = false
		}
	}
	if !ok {
		entry = &session{gate: NewGate(s.verifier)}
		s.gates[key] = entry
	}
	entry.lastSeen = now
	s.mu.Unlock()

	st := entry.gate.Resolve(ctx, credential)
	if !st.IsAuthenticated {
		s.mu.Lock()
		if s.gates[key] == entry {
			delete(s.gates, key)
		}
		s.mu.Unlock()
	}
	return st
}

// SignOut revokes credential until its expiry. Credentials that fail
// verification are already unusable and are not recorded.
func (s *Sessions) SignOut(ctx context.Context, credential string) {
	if credential == "" {
		return
	}
	key := sessionKey(credential)

	// revoke first so no Resolve slips in while the expiry is looked up
	s.mu.Lock()
	entry, ok := s.gates[key]
	delete(s.gates, key)
	s.revoked[key] = s.now().Add(24 * time.Hour)
	s.mu.Unlock()

	var expires time.Time
	if ok {
		expires = entry.gate.State().ExpiresAt
		entry.gate.SignOut()
	}
	if expires.IsZero() && s.verifier != nil {
		claims, err := s.verifier.Verify(ctx, credential)
		switch {
		case errors.Is(err, ErrInvalidCredential):
			s.mu.Lock()
			delete(s.revoked, key)
			s.mu.Unlock()
			return
		case err == nil && claims.ExpiresAt != nil:
			expires = claims.ExpiresAt.Time
		}
	}
	if !expires.IsZero() {
		s.mu.Lock()
		s.revoked[key] = expires
		s.mu.Unlock()
	}
}

// Prune drops expired revocations and idle or expired sessions. It
// returns how many entries were removed.
func (s *Sessions) Prune() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, expires := range s.revoked {
		if !now.Before(expires) {
			delete(s.revoked, key)
			removed++
		}
	}
	for key, entry := range s.gates {
		st := entry.gate.State()
		expired := !st.ExpiresAt.IsZero() && !now.Before(st.ExpiresAt)
		if expired || now.Sub(entry.lastSeen) > s.idleTTL {
			delete(s.gates, key)
			removed++
		}
	}
	return removed
}

// Len reports the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.gates)
}
