package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const DefaultSessionTokenTTL = 7 * 24 * time.Hour

var (
	ErrSessionTokenMissing = errors.New("missing session token")
	ErrSessionTokenInvalid = errors.New("invalid session token")
	ErrSessionTokenExpired = errors.New("expired session token")
)

type SessionClaims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

func BuildSessionToken(secretKey []byte, userID string, ttl time.Duration, now time.Time) (string, time.Time, error) {
	if ttl <= 0 {
		ttl = DefaultSessionTokenTTL
	}
	if now.IsZero() {
		now = time.Now()
	}
	if strings.TrimSpace(userID) == "" {
		return "", time.Time{}, ErrSessionTokenInvalid
	}

	expiresAt := now.Add(ttl)
	claims := SessionClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secretKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func ParseSessionToken(secretKey []byte, rawToken string, now time.Time) (*SessionClaims, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, ErrSessionTokenMissing
	}
	if now.IsZero() {
		now = time.Now()
	}

	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(rawToken, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return secretKey, nil
	}, jwt.WithTimeFunc(func() time.Time { return now }))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrSessionTokenExpired
		}
		return nil, ErrSessionTokenInvalid
	}
	if !token.Valid || strings.TrimSpace(claims.UserID) == "" {
		return nil, ErrSessionTokenInvalid
	}
	if claims.ExpiresAt == nil {
		return nil, ErrSessionTokenInvalid
	}
	return claims, nil
}
