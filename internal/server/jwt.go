package server

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jonathan/resume-genie/internal/config"
)

// Issuer is the iss claim of every token this service signs.
const Issuer = "resume-genie"

// Claims are the JWT claims accepted by the API. The subject names the
// client the token was issued to.
type Claims struct {
	jwt.RegisteredClaims
}

// JWTService signs and validates HS256 API tokens.
type JWTService struct {
	config *config.JWTConfig
	now    func() time.Time
}

// NewJWTService creates a JWT service with the given configuration.
func NewJWTService(cfg *config.JWTConfig) *JWTService {
	return &JWTService{config: cfg, now: time.Now}
}

// GenerateToken signs a token for subject that expires after the configured
// number of hours.
func (s *JWTService) GenerateToken(subject string) (string, error) {
	if subject == "" {
		return "", errors.New("token subject is empty")
	}
	now := s.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.Expiration())),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken checks the signature, expiry and issuer of a token and
// returns its subject.
func (s *JWTService) ValidateToken(tokenString string) (string, error) {
	if tokenString == "" {
		return "", errors.New("token string is empty")
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	},
		jwt.WithIssuer(Issuer),
		jwt.WithTimeFunc(s.now),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", fmt.Errorf("token expired: %w", err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "", fmt.Errorf("invalid token signature: %w", err)
	case errors.Is(err, jwt.ErrTokenMalformed):
		return "", fmt.Errorf("malformed token: %w", err)
	default:
		return "", fmt.Errorf("failed to parse token: %w", err)
	}

	if claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}
