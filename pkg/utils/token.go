package utils

import (
	"errors"
	"time"

	"github.com/Xeladesign/shok/internal/config"
	"github.com/golang-jwt/jwt/v5"
)

const (
	TokenIssuer = "shok-backend"
	TokenTTL    = 7 * 24 * time.Hour
)

var (
	ErrNoSigningKey = errors.New("jwt secret is not configured")
	ErrTokenSubject = errors.New("token does not name a user")
)

// Claims identify the user behind a REST call or realtime connection.
type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

func signingKey() ([]byte, error) {
	if config.AppConfig == nil || config.AppConfig.JWTSecret == "" {
		return nil, ErrNoSigningKey
	}
	return []byte(config.AppConfig.JWTSecret), nil
}

// GenerateToken issues an HS256 token for userID valid for TokenTTL.
func GenerateToken(userID string) (string, error) {
	if userID == "" {
		return "", ErrTokenSubject
	}
	key, err := signingKey()
	if err != nil {
		return "", err
	}

	now := time.Now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        NewID(),
			Subject:   userID,
			Issuer:    TokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}

// ValidateToken checks signature, issuer and expiry and returns the claims.
func ValidateToken(raw string) (*Claims, error) {
	key, err := signingKey()
	if err != nil {
		return nil, err
	}

	var claims Claims
	_, err = jwt.ParseWithClaims(raw, &claims,
		func(*jwt.Token) (interface{}, error) { return key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(TokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if claims.UserID == "" || claims.Subject != claims.UserID {
		return nil, ErrTokenSubject
	}
	return &claims, nil
}
