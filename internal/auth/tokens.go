package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessClaims is the payload of an access token. Sub holds the user id.
type AccessClaims struct {
	Nome string `json:"nome"`
	jwt.RegisteredClaims
}

type TokenManager struct {
	secret         []byte
	accessTokenTTL time.Duration
}

func NewTokenManager(secret string, accessTTL time.Duration) *TokenManager {
	return &TokenManager{
		secret:         []byte(secret),
		accessTokenTTL: accessTTL,
	}
}

func (m *TokenManager) IssueAccessToken(userID, nome string) (string, time.Time, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(m.accessTokenTTL)

	claims := AccessClaims{
		Nome: nome,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign jwt: %w", err)
	}
	return token, expiresAt, nil
}

func (m *TokenManager) ParseAccessToken(token string) (AccessClaims, error) {
	var claims AccessClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return AccessClaims{}, fmt.Errorf("parse jwt: %w", err)
	}
	if !parsed.Valid {
		return AccessClaims{}, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return AccessClaims{}, errors.New("token has no subject")
	}
	return claims, nil
}
