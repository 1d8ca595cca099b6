package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"doctorsportal/apperr"
	"doctorsportal/db"
	"doctorsportal/models"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson"
)

// Claims carries the identity claim of an access token.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256 access tokens for registered users.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	store  db.Store
}

func NewTokenService(secret string, ttl time.Duration, store db.Store) *TokenService {
	return &TokenService{secret: []byte(secret), ttl: ttl, store: store}
}

// Issue signs a token for email. Only registered users get one.
func (s *TokenService) Issue(ctx context.Context, email string) (string, error) {
	if email == "" {
		return "", apperr.Forbidden("forbidden access")
	}

	var user models.User
	err := s.store.FindOne(ctx, db.Users, bson.M{"email": email}, &user)
	if errors.Is(err, db.ErrNotFound) {
		return "", apperr.Forbidden("forbidden access")
	}
	if err != nil {
		return "", apperr.Internal("failed to find user", err)
	}

	now := time.Now()
	claims := &Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", apperr.Internal("failed to sign token", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of token and returns its claims.
func (s *TokenService) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return nil, &apperr.Error{Kind: apperr.KindForbidden, Message: "forbidden access", Err: err}
	}
	if claims.Email == "" {
		return nil, apperr.Forbidden("forbidden access")
	}
	return claims, nil
}
