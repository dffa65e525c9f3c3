package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/cleantrack-dev/cleantrack/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is what a verified token tells us about its bearer.
type Claims struct {
	UserID    uint
	Role      models.Role
	ExpiresAt time.Time
}

// TokenManager issues and verifies HS256 tokens binding a user id to a role.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret string, ttl time.Duration) (*TokenManager, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT secret is not set")
	}

	if ttl <= 0 {
		return nil, fmt.Errorf("JWT TTL must be positive, got %s", ttl)
	}

	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

func (m *TokenManager) Issue(userID uint, role models.Role) (string, time.Time, error) {
	expiresAt := m.now().Add(m.ttl)

	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    string(role),
		"exp":     expiresAt.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(m.secret)

	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

func (m *TokenManager) Verify(tokenString string) (Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())

	if err != nil || !token.Valid {
		return Claims{}, ErrInvalidToken
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)

	if !ok {
		return Claims{}, ErrInvalidToken
	}

	// JSON numbers decode as float64.
	userID, ok := mapClaims["user_id"].(float64)

	if !ok || userID <= 0 {
		return Claims{}, ErrInvalidToken
	}

	roleClaim, _ := mapClaims["role"].(string)

	role, err := models.ParseRole(roleClaim)

	if err != nil {
		return Claims{}, ErrInvalidToken
	}

	exp, err := mapClaims.GetExpirationTime()

	if err != nil || exp == nil {
		return Claims{}, ErrInvalidToken
	}

	return Claims{UserID: uint(userID), Role: role, ExpiresAt: exp.Time}, nil
}
