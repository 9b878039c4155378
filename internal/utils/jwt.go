package utils

import (
	"errors"
	"time"

	"ledgerpay/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

const TokenIssuer = "ledgerpay"

var ErrMissingSecret = errors.New("jwt secret not configured")

// GenerateToken signs an HS256 access token whose subject is customerID.
func GenerateToken(secret, customerID, name string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", ErrMissingSecret
	}

	now := time.Now()
	claims := models.CustomerClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    TokenIssuer,
			Subject:   customerID,
		},
		Name: name,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken parses and validates a token string.
func ParseToken(secret, tokenStr string) (*models.CustomerClaims, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}

	claims := &models.CustomerClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(TokenIssuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.CustomerID() == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}
