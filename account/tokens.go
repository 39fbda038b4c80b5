package account

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for tokens that fail parsing, signature
// verification or expiry checks in either scope.
var ErrInvalidToken = errors.New("account: invalid token")

// tokenClaims nests the auth projection under "data", matching the claim
// layout clients already parse.
type tokenClaims struct {
	Data AuthCustomer `json:"data"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies bearer tokens. Access and refresh tokens
// use two distinct secrets so one scope can never be replayed as the other.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// TokenOptions configures a TokenIssuer. Zero TTLs fall back to 15 minutes
// for access and 7 days for refresh tokens.
type TokenOptions struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// NewTokenIssuer creates an issuer from the two scope secrets.
func NewTokenIssuer(opts TokenOptions) (*TokenIssuer, error) {
	if opts.AccessSecret == "" || opts.RefreshSecret == "" {
		return nil, errors.New("account: both token secrets are required")
	}
	if opts.AccessTTL <= 0 {
		opts.AccessTTL = 15 * time.Minute
	}
	if opts.RefreshTTL <= 0 {
		opts.RefreshTTL = 7 * 24 * time.Hour
	}
	return &TokenIssuer{
		accessSecret:  []byte(opts.AccessSecret),
		refreshSecret: []byte(opts.RefreshSecret),
		accessTTL:     opts.AccessTTL,
		refreshTTL:    opts.RefreshTTL,
		now:           time.Now,
	}, nil
}

// AccessToken issues a signed access-scope token for the customer.
func (t *TokenIssuer) AccessToken(a AuthCustomer) (string, error) {
	return t.sign(a, t.accessSecret, t.accessTTL)
}

// RefreshToken issues a signed refresh-scope token for the customer.
func (t *TokenIssuer) RefreshToken(a AuthCustomer) (string, error) {
	return t.sign(a, t.refreshSecret, t.refreshTTL)
}

func (t *TokenIssuer) sign(a AuthCustomer, secret []byte, ttl time.Duration) (string, error) {
	now := t.now()
	claims := tokenClaims{
		Data: a,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("account: sign token: %w", err)
	}
	return signed, nil
}

// ParseAccess verifies an access-scope token and returns its auth projection.
func (t *TokenIssuer) ParseAccess(token string) (AuthCustomer, error) {
	return t.parse(token, t.accessSecret)
}

// ParseRefresh verifies a refresh-scope token and returns its auth
// projection.
func (t *TokenIssuer) ParseRefresh(token string) (AuthCustomer, error) {
	return t.parse(token, t.refreshSecret)
}

func (t *TokenIssuer) parse(token string, secret []byte) (AuthCustomer, error) {
	var claims tokenClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", tok.Header["alg"])
		}
		return secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil || !parsed.Valid || claims.Data.Username == "" {
		return AuthCustomer{}, ErrInvalidToken
	}
	return claims.Data, nil
}
