package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the token payload issued at login. Role drives authorization
// decisions downstream; Identifier is the login key (registration number,
// staff ID or email).
type Claims struct {
	Role       string `json:"role"`
	UserID     string `json:"user_id"`
	Identifier string `json:"identifier"`
	Email      string `json:"email"`
	jwt.RegisteredClaims
}

type TokenManager struct {
	secret string
	issuer string
}

func NewTokenManager(secret, issuer string) *TokenManager {
	if secret == "" {
		secret = "change-me-in-production"
	}
	if issuer == "" {
		issuer = "campusbus"
	}
	return &TokenManager{secret: secret, issuer: issuer}
}

func (tm *TokenManager) GenerateToken(role, userID, identifier, email string, expiresIn time.Duration) (string, error) {
	if role == "" || userID == "" {
		return "", fmt.Errorf("role and user_id required")
	}
	now := time.Now()
	claims := Claims{
		Role:       role,
		UserID:     userID,
		Identifier: identifier,
		Email:      email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
			Issuer:    tm.issuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(tm.secret))
}

func (tm *TokenManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(tm.secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token failed: %w", err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

func ExtractToken(authHeader string) (string, error) {
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", fmt.Errorf("invalid authorization header")
	}
	return parts[1], nil
}
