// Package auth decides whether a caller may use the back office. A caller
// is authorized only with a valid credential carrying the admin claim.
package auth

import (
	"context"
	"errors"
	"sync"
	"time"
)

type Status int

const (
	Unresolved Status = iota
	Resolving
	Authorized
	Denied
	Error
)

func (s Status) String() string {
	switch s {
	case Unresolved:
		return "unresolved"
	case Resolving:
		return "resolving"
	case Authorized:
		return "authorized"
	case Denied:
		return "denied"
	case Error:
		return "error"
	}
	return "unknown"
}

// State is the outcome of resolving a credential. Denied and Error are
// distinct: Error means the verifier could not answer.
type State struct {
	Status          Status    `json:"status"`
	IsAuthenticated bool      `json:"isAuthenticated"`
	IsAdmin         bool      `json:"isAdmin"`
	Subject         string    `json:"subject,omitempty"`
	Email           string    `json:"email,omitempty"`
	Name            string    `json:"name,omitempty"`
	ExpiresAt       time.Time `json:"expiresAt,omitempty"`
	Err             error     `json:"-"`
}

// Gate resolves one caller's credential at most once per credential
// change. Callers arriving while a resolution is running wait for it.
type Gate struct {
	verifier Verifier

	mu         sync.Mutex
	credential string
	state      State
	done       chan struct{}
}

func NewGate(v Verifier) *Gate {
	return &Gate{verifier: v}
}

// State returns the current state without resolving.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Resolve returns the state for credential, verifying it only when it
// differs from the last credential seen. If ctx ends while waiting the
// returned state is Resolving.
func (g *Gate) Resolve(ctx context.Context, credential string) State {
	g.mu.Lock()
	if g.state.Status != Unresolved && credential == g.credential {
		if g.state.Status != Resolving {
			st := g.state
			g.mu.Unlock()
			return st
		}
		done := g.done
		g.mu.Unlock()
		select {
		case <-done:
			return g.State()
		case <-ctx.Done():
			return State{Status: Resolving}
		}
	}

	g.credential = credential
	g.state = State{Status: Resolving}
	done := make(chan struct{})
	g.done = done
	g.mu.Unlock()

	st := resolve(ctx, g.verifier, credential)

	g.mu.Lock()
	// a sign-out or newer credential supersedes this result
	if g.done == done {
		g.state = st
	}
	close(done)
	g.mu.Unlock()
	return st
}

// SignOut forgets the credential. The next Resolve starts over.
func (g *Gate) SignOut() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.credential = ""
	g.state = State{}
	g.done = nil
}

func resolve(ctx context.Context, v Verifier, credential string) State {
	if credential == "" {
		return State{Status: Denied}
	}
	if v == nil {
		return State{Status: Error, Err: ErrVerifierUnavailable}
	}

	claims, err := v.Verify(ctx, credential)
	switch {
	case errors.Is(err, ErrInvalidCredential):
		return State{Status: Denied, Err: err}
	case err != nil:
		return State{Status: Error, Err: err}
	}

	st := State{
		IsAuthenticated: true,
		IsAdmin:         claims.Admin,
		Subject:         claims.Subject,
		Email:           claims.Email,
		Name:            claims.Name,
	}
	if claims.ExpiresAt != nil {
		st.ExpiresAt = claims.ExpiresAt.Time
	}
	if claims.Admin {
		st.Status = Authorized
	} else {
		st.Status = Denied
	}
	return st
}
