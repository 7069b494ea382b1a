package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/flexible-healthcare/training-service/internal/config"
	"github.com/flexible-healthcare/training-service/internal/models"
)

const tokenLeeway = 30 * time.Second

// sessionClaims carries enough of the user to serve requests without an identity lookup
type sessionClaims struct {
	Email string          `json:"email"`
	Name  string          `json:"name,omitempty"`
	Role  models.UserRole `json:"role"`
	jwt.RegisteredClaims
}

// TokenRevoker remembers signed-out token ids until they would have expired anyway
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type RedisTokenRevoker struct {
	client *redis.Client
	prefix string
}

func NewRedisTokenRevoker(client *redis.Client) *RedisTokenRevoker {
	return &RedisTokenRevoker{client: client, prefix: "session:revoked:"}
}

func (r *RedisTokenRevoker) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return r.client.Set(ctx, r.prefix+tokenID, 1, ttl).Err()
}

func (r *RedisTokenRevoker) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.client.Exists(ctx, r.prefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// TokenIssuer signs and verifies HS256 session tokens
type TokenIssuer struct {
	secret   []byte
	ttl      time.Duration
	issuer   string
	audience string
	revoker  TokenRevoker
	now      func() time.Time
}

// NewTokenIssuer accepts a nil revoker; tokens then stay valid until they expire
func NewTokenIssuer(cfg config.SessionConfig, revoker TokenRevoker) *TokenIssuer {
	return &TokenIssuer{
		secret:   []byte(cfg.Secret),
		ttl:      cfg.TTL,
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		revoker:  revoker,
		now:      time.Now,
	}
}

func (t *TokenIssuer) Issue(user *models.User) (*models.Session, error) {
	now := t.now().UTC()
	expiresAt := now.Add(t.ttl)

	claims := sessionClaims{
		Email: user.Email,
		Name:  user.DisplayName,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    t.issuer,
			Audience:  jwt.ClaimStrings{t.audience},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign session token: %w", err)
	}

	return &models.Session{
		Token:     signed,
		TokenType: "Bearer",
		ExpiresAt: expiresAt,
		User:      user,
	}, nil
}

func (t *TokenIssuer) parse(token string) (*sessionClaims, error) {
	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithAudience(t.audience),
		jwt.WithLeeway(tokenLeeway),
		jwt.WithTimeFunc(t.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if !parsed.Valid || strings.TrimSpace(claims.Subject) == "" {
		return nil, errors.New("invalid session token")
	}
	return claims, nil
}

// Verify parses the token and rejects revoked ones
func (t *TokenIssuer) Verify(ctx context.Context, token string) (*models.Session, error) {
	claims, err := t.parse(token)
	if err != nil {
		return nil, err
	}

	if t.revoker != nil {
		revoked, err := t.revoker.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check token revocation: %w", err)
		}
		if revoked {
			return nil, errors.New("session token revoked")
		}
	}

	return &models.Session{
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: claims.ExpiresAt.Time,
		User: &models.User{
			ID:          claims.Subject,
			Email:       claims.Email,
			DisplayName: claims.Name,
			Role:        claims.Role,
		},
	}, nil
}

// Revoke blocks the token for its remaining lifetime and returns its subject
func (t *TokenIssuer) Revoke(ctx context.Context, token string) (string, error) {
	claims, err := t.parse(token)
	if err != nil {
		return "", err
	}
	if t.revoker == nil {
		return claims.Subject, nil
	}
	ttl := claims.ExpiresAt.Time.Sub(t.now()) + tokenLeeway
	if err := t.revoker.Revoke(ctx, claims.ID, ttl); err != nil {
		return "", fmt.Errorf("failed to revoke session token: %w", err)
	}
	return claims.Subject, nil
}
