package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken  = errors.New("invalid or expired token")
	ErrMissingSecret = errors.New("token secret is not configured")
	ErrMissingClaims = errors.New("token subject is required")
)

// Claims is the access token payload. Subject carries the username.
type Claims struct {
	UserID uint   `json:"uid"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Identity is the data an access token is minted for.
type Identity struct {
	UserID   uint
	Username string
	Role     string
}

// AccessToken is a signed token together with its expiry.
type AccessToken struct {
	Token     string
	ExpiresAt time.Time
}

// Signer issues and verifies HMAC-signed JWT access tokens.
type Signer struct {
	secret []byte
	method jwt.SigningMethod
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner returns a signer for the given HMAC algorithm (HS256, HS384, HS512).
func NewSigner(secret []byte, algorithm, issuer string, ttl time.Duration) (*Signer, error) {
	if len(secret) == 0 {
		return nil, ErrMissingSecret
	}
	method, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("token: unsupported algorithm %q", algorithm)
	}
	return &Signer{
		secret: secret,
		method: method,
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Issue mints an access token for id.
func (s *Signer) Issue(id Identity) (AccessToken, error) {
	if id.Username == "" {
		return AccessToken{}, ErrMissingClaims
	}

	now := s.now().UTC()
	exp := now.Add(s.ttl)
	claims := Claims{
		UserID: id.UserID,
		Role:   id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.Username,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, ExpiresAt: exp}, nil
}

// Verify checks signature, algorithm, issuer and expiry. Every failure is
// reported as ErrInvalidToken.
func (s *Signer) Verify(raw string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	var claims Claims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil || !tok.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}
