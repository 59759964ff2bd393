package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrInvalidCredential covers malformed, forged and expired tokens.
	ErrInvalidCredential = errors.New("invalid credential")
	// ErrVerifierUnavailable means tokens cannot be checked at all, for
	// example because no signing secret is configured.
	ErrVerifierUnavailable = errors.New("credential verifier unavailable")
)

// Claims are carried by every session token. Admin is decided by the
// issuer and cannot be changed by the holder.
type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Admin bool   `json:"admin"`
	jwt.RegisteredClaims
}

// Verifier checks a credential and returns its claims.
type Verifier interface {
	Verify(ctx context.Context, credential string) (*Claims, error)
}

type Issuer struct {
	secret  []byte
	issuer  string
	ttl     time.Duration
	isAdmin func(email string) bool
	now     func() time.Time
}

// NewIssuer signs tokens with secret. isAdmin decides the admin claim.
func NewIssuer(secret, issuer string, ttl time.Duration, isAdmin func(email string) bool) *Issuer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if isAdmin == nil {
		isAdmin = func(string) bool { return false }
	}
	return &Issuer{secret: []byte(secret), issuer: issuer, ttl: ttl, isAdmin: isAdmin, now: time.Now}
}

// Issue signs a token for the account.
func (i *Issuer) Issue(subject, email, name string) (string, *Claims, error) {
	if len(i.secret) == 0 {
		return "", nil, ErrVerifierUnavailable
	}
	now := i.now()
	claims := &Claims{
		Email: email,
		Name:  name,
		Admin: i.isAdmin(email),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    i.issuer,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims, nil
}

type JWTVerifier struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewJWTVerifier(secret, issuer string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret), issuer: issuer, now: time.Now}
}

func (v *JWTVerifier) Verify(ctx context.Context, credential string) (*Claims, error) {
	if len(v.secret) == 0 {
		return nil, ErrVerifierUnavailable
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(v.now),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	parser := jwt.NewParser(opts...)

	claims := &Claims{}
	token, err := parser.ParseWithClaims(credential, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}
	if !token.Valid {
		return nil, ErrInvalidCredential
	}
	if claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: missing exp", ErrInvalidCredential)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing sub", ErrInvalidCredential)
	}
	return claims, nil
}
