package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	signingSecret []byte
	tokenExpiry   = 24 * time.Hour

	// ErrInvalidToken is returned for tokens that fail signature,
	// structure or expiry checks.
	ErrInvalidToken = errors.New("invalid token")
)

// Claims is the payload embedded in every issued token.
type Claims struct {
	UserID int64  `json:"id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

// Configure sets the shared signing secret and token lifetime. Must be
// called before tokens are issued or parsed.
func Configure(secret string, expiry time.Duration) {
	signingSecret = []byte(secret)
	if expiry > 0 {
		tokenExpiry = expiry
	}
}

// GenerateToken issues a signed token for the given identity.
func GenerateToken(userID int64, email, role, name string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Email:  email,
		Role:   role,
		Name:   name,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenExpiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(signingSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies a token and returns its claims.
func ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return signingSecret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// TokenExpiry reports the configured token lifetime, used to align
// cookie expiry with token expiry.
func TokenExpiry() time.Duration {
	return tokenExpiry
}
