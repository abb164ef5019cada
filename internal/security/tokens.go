package security

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when a token is malformed, expired or signed with another key.
	ErrInvalidToken = errors.New("invalid token")
	// ErrShortSecret is returned when the signing secret is too short for HS256.
	ErrShortSecret = errors.New("session secret must be at least 32 bytes")
)

// FlowClaims holds JWT claims for the signup flow cookie. Subject is the flow session id.
type FlowClaims struct {
	jwt.RegisteredClaims
}

// FlowTokenProvider issues and validates the HS256 cookie that binds a browser to its signup flow.
type FlowTokenProvider struct {
	secret []byte
	issuer string
	ttl    time.Duration
	nowF   func() time.Time
}

// NewFlowTokenProvider returns a provider signing with secret. issuer is set on claims and checked on Parse.
func NewFlowTokenProvider(secret []byte, issuer string, ttl time.Duration) (*FlowTokenProvider, error) {
	if len(secret) < 32 {
		return nil, ErrShortSecret
	}
	return &FlowTokenProvider{
		secret: secret,
		issuer: issuer,
		ttl:    ttl,
		nowF:   func() time.Time { return time.Now().UTC() },
	}, nil
}

// RandomSecret returns 32 random bytes. Used when no SESSION_SECRET is configured outside production;
// cookies then do not survive a restart.
func RandomSecret() ([]byte, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

// TTL returns the token lifetime.
func (p *FlowTokenProvider) TTL() time.Duration {
	return p.ttl
}

// Issue returns a signed token for sessionID and its expiration time.
func (p *FlowTokenProvider) Issue(sessionID string) (string, time.Time, error) {
	jti, err := generateJTI()
	if err != nil {
		return "", time.Time{}, err
	}
	now := p.nowF()
	expiresAt := now.Add(p.ttl)
	claims := FlowClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   sessionID,
			Issuer:    p.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// Parse validates signature, expiry and issuer and returns the flow session id.
func (p *FlowTokenProvider) Parse(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &FlowClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return p.secret, nil
	},
		jwt.WithIssuer(p.issuer),
		jwt.WithTimeFunc(p.nowF),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", ErrInvalidToken
	}
	claims, ok := token.Claims.(*FlowClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

func generateJTI() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
