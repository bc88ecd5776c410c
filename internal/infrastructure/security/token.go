package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/techchallenge/usuarios-api/internal/core/domain"
)

// MinKeyLength is the shortest HS256 key accepted.
const MinKeyLength = 32

// MinTTL is the shortest token lifetime accepted; iat and exp are whole seconds.
const MinTTL = time.Second

type accessClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// JWTCodec issues and parses HS256 access tokens.
type JWTCodec struct {
	key []byte
	ttl time.Duration
}

func NewJWTCodec(secret string, ttl time.Duration) (*JWTCodec, error) {
	if len(secret) < MinKeyLength {
		return nil, fmt.Errorf("jwt secret must be at least %d bytes, got %d", MinKeyLength, len(secret))
	}
	if ttl < MinTTL {
		return nil, fmt.Errorf("jwt ttl must be at least %s, got %s", MinTTL, ttl)
	}
	return &JWTCodec{key: []byte(secret), ttl: ttl}, nil
}

// TTL is the lifetime given to issued tokens.
func (c *JWTCodec) TTL() time.Duration { return c.ttl }

func (c *JWTCodec) Issue(subject, role string, now time.Time) (string, error) {
	claims := accessClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(ceilSecond(now.Add(c.ttl))),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (c *JWTCodec) Parse(token string, now time.Time) (domain.TokenClaims, error) {
	claims := &accessClaims{}
	_, err := jwt.ParseWithClaims(token, claims, c.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return domain.TokenClaims{}, domain.ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return domain.TokenClaims{}, domain.ErrTokenBadSignature
		default:
			return domain.TokenClaims{}, fmt.Errorf("%w: %v", domain.ErrTokenMalformed, err)
		}
	}

	out := domain.TokenClaims{Subject: claims.Subject, Role: claims.Role}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

// ceilSecond rounds t up to a whole second. NumericDate keeps seconds only,
// so truncating exp would end the token before now+ttl.
func ceilSecond(t time.Time) time.Time {
	whole := t.Truncate(time.Second)
	if whole.Equal(t) {
		return whole
	}
	return whole.Add(time.Second)
}

func (c *JWTCodec) keyFunc(*jwt.Token) (any, error) {
	return c.key, nil
}
