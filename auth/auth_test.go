package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test_secret"

func adminAllowlist(email string) bool { return email == "owner@studio.test" }

func issue(t *testing.T, email string) string {
	t.Helper()
	tok, _, err := NewIssuer(testSecret, "studio", time.Hour, adminAllowlist).Issue("acc-1", email, "Owner")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return tok
}

// countingVerifier counts calls and can block until released.
type countingVerifier struct {
	inner   Verifier
	calls   int32
	release chan struct{}
	err     error
}

func (v *countingVerifier) Verify(ctx context.Context, credential string) (*Claims, error) {
	atomic.AddInt32(&v.calls, 1)
	if v.release != nil {
		<-v.release
	}
	if v.err != nil {
		return nil, v.err
	}
	return v.inner.Verify(ctx, credential)
}

func TestIssuer_AdminClaimComesFromAllowlist(t *testing.T) {
	v := NewJWTVerifier(testSecret, "studio")

	claims, err := v.Verify(context.Background(), issue(t, "owner@studio.test"))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !claims.Admin || claims.Subject != "acc-1" || claims.ID == "" {
		t.Fatalf("unexpected claims %+v", claims)
	}

	claims, err = v.Verify(context.Background(), issue(t, "staff@studio.test"))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Admin {
		t.Fatalf("non-allowlisted account got the admin claim")
	}
}

func TestVerifier_RejectsForgedAndExpired(t *testing.T) {
	v := NewJWTVerifier(testSecret, "studio")

	forged, _, _ := NewIssuer("other_secret", "studio", time.Hour, adminAllowlist).Issue("acc-1", "owner@studio.test", "")
	if _, err := v.Verify(context.Background(), forged); !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("expected invalid credential for forged token, got %v", err)
	}

	issuer := NewIssuer(testSecret, "studio", time.Hour, adminAllowlist)
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, _, _ := issuer.Issue("acc-1", "owner@studio.test", "")
	if _, err := v.Verify(context.Background(), expired); !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("expected invalid credential for expired token, got %v", err)
	}

	none := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{Admin: true})
	s, _ := none.SignedString([]byte(testSecret))
	if _, err := v.Verify(context.Background(), s); !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("expected invalid credential for HS512 token, got %v", err)
	}
}

func TestVerifier_NoSecretIsUnavailable(t *testing.T) {
	_, err := NewJWTVerifier("", "studio").Verify(context.Background(), "x.y.z")
	if !errors.Is(err, ErrVerifierUnavailable) {
		t.Fatalf("expected ErrVerifierUnavailable, got %v", err)
	}
}

func TestGate_States(t *testing.T) {
	g := NewGate(NewJWTVerifier(testSecret, "studio"))
	ctx := context.Background()

	if st := g.State(); st.Status != Unresolved {
		t.Fatalf("expected Unresolved, got %s", st.Status)
	}
	if st := g.Resolve(ctx, ""); st.Status != Denied || st.IsAuthenticated {
		t.Fatalf("expected unauthenticated Denied, got %+v", st)
	}
	if st := g.Resolve(ctx, "garbage"); st.Status != Denied {
		t.Fatalf("expected Denied for garbage, got %s", st.Status)
	}
	st := g.Resolve(ctx, issue(t, "staff@studio.test"))
	if st.Status != Denied || !st.IsAuthenticated || st.IsAdmin {
		t.Fatalf("expected authenticated non-admin Denied, got %+v", st)
	}
	st = g.Resolve(ctx, issue(t, "owner@studio.test"))
	if st.Status != Authorized || !st.IsAdmin {
		t.Fatalf("expected Authorized, got %+v", st)
	}

	g.SignOut()
	if st := g.State(); st.Status != Unresolved {
		t.Fatalf("expected Unresolved after sign out, got %s", st.Status)
	}
}

func TestGate_VerifierFailureIsErrorNotDenied(t *testing.T) {
	g := NewGate(&countingVerifier{err: errors.New("connection refused")})
	st := g.Resolve(context.Background(), "token")
	if st.Status != Error || st.IsAuthenticated {
		t.Fatalf("expected Error, got %+v", st)
	}

	g = NewGate(NewJWTVerifier("", "studio"))
	if st := g.Resolve(context.Background(), "token"); st.Status != Error {
		t.Fatalf("expected Error without a secret, got %s", st.Status)
	}
}

func TestGate_ResolvesOncePerCredential(t *testing.T) {
	v := &countingVerifier{inner: NewJWTVerifier(testSecret, "studio"), release: make(chan struct{})}
	g := NewGate(v)
	tok := issue(t, "owner@studio.test")

	var wg sync.WaitGroup
	states := make([]State, 8)
	for i := range states {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			states[i] = g.Resolve(context.Background(), tok)
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(v.release)
	wg.Wait()

	if n := atomic.LoadInt32(&v.calls); n != 1 {
		t.Fatalf("expected one verification, got %d", n)
	}
	for _, st := range states {
		if st.Status != Authorized {
			t.Fatalf("expected all callers Authorized, got %s", st.Status)
		}
	}

	g.Resolve(context.Background(), tok)
	if n := atomic.LoadInt32(&v.calls); n != 1 {
		t.Fatalf("repeat resolution verified again")
	}
	g.Resolve(context.Background(), issue(t, "staff@studio.test"))
	if n := atomic.LoadInt32(&v.calls); n != 2 {
		t.Fatalf("credential change must resolve again, got %d calls", n)
	}
}

func TestSessions_SignOutRevokes(t *testing.T) {
	s := NewSessions(NewJWTVerifier(testSecret, "studio"))
	tok := issue(t, "owner@studio.test")

	if st := s.Resolve(context.Background(), tok); st.Status != Authorized {
		t.Fatalf("expected Authorized, got %s", st.Status)
	}
	s.SignOut(context.Background(), tok)
	if st := s.Resolve(context.Background(), tok); st.Status != Denied {
		t.Fatalf("expected Denied after sign out, got %s", st.Status)
	}
}

func TestSessions_ErrorIsNotCached(t *testing.T) {
	v := &countingVerifier{err: errors.New("timeout")}
	s := NewSessions(v)
	s.Resolve(context.Background(), "token")
	s.Resolve(context.Background(), "token")
	if n := atomic.LoadInt32(&v.calls); n != 2 {
		t.Fatalf("expected Error to be retried, got %d calls", n)
	}
	if s.Len() != 0 {
		t.Fatalf("expected no cached sessions, got %d", s.Len())
	}
}

func TestSessions_InvalidCredentialsAreNotKept(t *testing.T) {
	s := NewSessions(NewJWTVerifier(testSecret, "studio"))
	for i := 0; i < 1000; i++ {
		cred := fmt.Sprintf("garbage-%d", i)
		if st := s.Resolve(context.Background(), cred); st.Status != Denied || st.IsAuthenticated {
			t.Fatalf("expected Denied, got %+v", st)
		}
		s.SignOut(context.Background(), cred)
	}
	if n := s.Len(); n != 0 {
		t.Fatalf("expected no sessions for invalid tokens, got %d", n)
	}
	s.mu.Lock()
	revoked := len(s.revoked)
	s.mu.Unlock()
	if revoked != 0 {
		t.Fatalf("expected no revocations for invalid tokens, got %d", revoked)
	}

	// a valid non-admin token is still cached
	s.Resolve(context.Background(), issue(t, "staff@studio.test"))
	if n := s.Len(); n != 1 {
		t.Fatalf("expected the verified session to be kept, got %d", n)
	}
}

func TestSessions_PruneDropsExpired(t *testing.T) {
	s := NewSessions(NewJWTVerifier(testSecret, "studio"))
	tok := issue(t, "owner@studio.test")
	s.Resolve(context.Background(), tok)
	s.SignOut(context.Background(), issue(t, "staff@studio.test"))

	s.now = func() time.Time { return time.Now().Add(25 * time.Hour) }
	if removed := s.Prune(); removed != 2 {
		t.Fatalf("expected 2 removals, got %d", removed)
	}
	if s.Len() != 0 {
		t.Fatalf("expected empty registry")
	}
}

func TestRequireAdmin(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name     string
		sessions *Sessions
		header   string
		want     int
	}{
		{"no credential", NewSessions(NewJWTVerifier(testSecret, "studio")), "", http.StatusUnauthorized},
		{"non admin", NewSessions(NewJWTVerifier(testSecret, "studio")), "Bearer " + issue(t, "staff@studio.test"), http.StatusForbidden},
		{"admin", NewSessions(NewJWTVerifier(testSecret, "studio")), "Bearer " + issue(t, "owner@studio.test"), http.StatusOK},
		{"verifier down", NewSessions(NewJWTVerifier("", "studio")), "Bearer " + issue(t, "owner@studio.test"), http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		r := gin.New()
		r.GET("/admin", RequireAdmin(tc.sessions), func(c *gin.Context) {
			if StateFromContext(c).Status != Authorized {
				t.Fatalf("%s: handler ran without Authorized state", tc.name)
			}
			c.Status(http.StatusOK)
		})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		r.ServeHTTP(w, req)
		if w.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d (%s)", tc.name, tc.want, w.Code, w.Body.String())
		}
	}
}

func TestCredentialFromCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := NewSessions(NewJWTVerifier(testSecret, "studio"))
	r := gin.New()
	r.GET("/admin", RequireAdmin(s), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: issue(t, "owner@studio.test")})
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with cookie, got %d", w.Code)
	}
}

func TestRequireSignedIn(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := NewSessions(NewJWTVerifier(testSecret, "studio"))
	r := gin.New()
	r.GET("/me", RequireSignedIn(s), func(c *gin.Context) {
		c.String(http.StatusOK, StateFromContext(c).Email)
	})

	cases := []struct {
		header string
		want   int
	}{
		{"", http.StatusUnauthorized},
		{"Bearer garbage", http.StatusUnauthorized},
		{"Bearer " + issue(t, "staff@studio.test"), http.StatusOK},
		{"Bearer " + issue(t, "owner@studio.test"), http.StatusOK},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		r.ServeHTTP(w, req)
		if w.Code != tc.want {
			t.Fatalf("%q: expected %d, got %d", tc.header, tc.want, w.Code)
		}
	}
}
