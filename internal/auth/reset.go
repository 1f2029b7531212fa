package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid or expired token")

const resetPurpose = "password_reset"

// ResetTokens issues and verifies signed password reset tokens.
type ResetTokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

type resetClaims struct {
	Purpose string `json:"purpose"`
	Email   string `json:"email"`
	jwt.RegisteredClaims
}

func NewResetTokens(secret string, ttl time.Duration) *ResetTokens {
	return &ResetTokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (r *ResetTokens) Issue(userID int64, email string) (string, error) {
	now := r.now()
	claims := resetClaims{
		Purpose: resetPurpose,
		Email:   email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(r.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(r.secret)
	if err != nil {
		return "", fmt.Errorf("sign reset token: %w", err)
	}
	return token, nil
}

// Verify returns the user id the token was issued for.
func (r *ResetTokens) Verify(token string) (int64, error) {
	var claims resetClaims
	parsed, err := jwt.ParseWithClaims(token, &claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return r.secret, nil
		},
		jwt.WithTimeFunc(r.now),
	)
	if err != nil || !parsed.Valid {
		return 0, ErrInvalidToken
	}
	if claims.Purpose != resetPurpose {
		return 0, ErrInvalidToken
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, ErrInvalidToken
	}
	return id, nil
}
