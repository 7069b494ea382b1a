package casdoor

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/google/uuid"

	"github.com/flexible-healthcare/training-service/internal/cache"
	"github.com/flexible-healthcare/training-service/internal/models"
	"github.com/flexible-healthcare/training-service/internal/repositories"
)

// CasdoorConfig holds the configuration for Casdoor connection
type CasdoorConfig struct {
	Endpoint         string
	ClientID         string
	ClientSecret     string
	Certificate      string
	OrganizationName string
	ApplicationName  string
}

// Client is the subset of the Casdoor SDK client the identity store calls
type Client interface {
	GetUserByUserId(userId string) (*casdoorsdk.User, error)
	GetUserByEmail(email string) (*casdoorsdk.User, error)
	AddUser(user *casdoorsdk.User) (bool, error)
	CheckUserPassword(user *casdoorsdk.User) (bool, error)
	ParseJwtToken(token string) (*casdoorsdk.Claims, error)
}

type IdentityCasdoor struct {
	client       Client
	organization string
	users        *cache.CacheHelper
}

func NewIdentityCasdoor(config CasdoorConfig, cacheManager *cache.CacheManager) repositories.UserRepository {
	client := casdoorsdk.NewClient(
		config.Endpoint,
		config.ClientID,
		config.ClientSecret,
		config.Certificate,
		config.OrganizationName,
		config.ApplicationName,
	)
	return NewIdentityWithClient(client, config.OrganizationName, cacheManager)
}

// NewIdentityWithClient builds the store over any Client implementation
func NewIdentityWithClient(client Client, organization string, cacheManager *cache.CacheManager) repositories.UserRepository {
	return &IdentityCasdoor{
		client:       client,
		organization: organization,
		users:        cacheManager.User,
	}
}

// ===== CACHE METHODS =====

func (u *IdentityCasdoor) cacheUser(ctx context.Context, user *models.User) {
	ttl := cache.UserCacheConfig.TTL
	if err := u.users.Set(ctx, "id:"+user.ID, user, ttl); err != nil {
		return
	}
	_ = u.users.Set(ctx, "email:"+strings.ToLower(user.Email), user, ttl)
}

// ===== CONVERSION METHODS =====

func (u *IdentityCasdoor) toModel(casdoorUser *casdoorsdk.User) *models.User {
	if casdoorUser == nil {
		return nil
	}

	var createdAt time.Time
	if casdoorUser.CreatedTime != "" {
		createdAt, _ = time.Parse(time.RFC3339, casdoorUser.CreatedTime)
	}

	var avatar *string
	if casdoorUser.Avatar != "" {
		avatar = &casdoorUser.Avatar
	}

	displayName := casdoorUser.DisplayName
	if displayName == "" {
		displayName = strings.TrimSpace(casdoorUser.FirstName + " " + casdoorUser.LastName)
	}

	return &models.User{
		ID:            casdoorUser.Id,
		Email:         casdoorUser.Email,
		FirstName:     casdoorUser.FirstName,
		LastName:      casdoorUser.LastName,
		DisplayName:   displayName,
		Role:          roleOf(casdoorUser),
		AvatarURL:     avatar,
		EmailVerified: casdoorUser.EmailVerified,
		CreatedAt:     createdAt,
	}
}

// roleOf picks the strongest mapped role; admin wins outright
func roleOf(casdoorUser *casdoorsdk.User) models.UserRole {
	roles := make([]models.UserRole, 0, len(casdoorUser.Roles))
	for _, role := range casdoorUser.Roles {
		if role != nil {
			roles = append(roles, mapRole(role.Name))
		}
	}

	switch {
	case casdoorUser.IsAdmin || slices.Contains(roles, models.RoleAdmin):
		return models.RoleAdmin
	case slices.Contains(roles, models.RoleManager):
		return models.RoleManager
	default:
		return models.RoleLearner
	}
}

func mapRole(name string) models.UserRole {
	switch strings.ToLower(name) {
	case "admin", "administrator":
		return models.RoleAdmin
	case "manager", "supervisor":
		return models.RoleManager
	default:
		return models.RoleLearner
	}
}

// ===== READ OPERATIONS =====

func (u *IdentityCasdoor) GetByID(ctx context.Context, id string) (*models.User, error) {
	var cached models.User
	if err := u.users.Get(ctx, "id:"+id, &cached); err == nil {
		return &cached, nil
	}

	casdoorUser, err := u.client.GetUserByUserId(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user from Casdoor: %w", err)
	}
	if casdoorUser == nil {
		return nil, repositories.ErrNotFound
	}

	user := u.toModel(casdoorUser)
	u.cacheUser(ctx, user)
	return user, nil
}

func (u *IdentityCasdoor) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var cached models.User
	if err := u.users.Get(ctx, "email:"+email, &cached); err == nil {
		return &cached, nil
	}

	casdoorUser, err := u.client.GetUserByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email from Casdoor: %w", err)
	}
	if casdoorUser == nil {
		return nil, repositories.ErrNotFound
	}

	user := u.toModel(casdoorUser)
	u.cacheUser(ctx, user)
	return user, nil
}

// ===== ACCOUNT OPERATIONS =====

// Create registers the account in the configured organization
func (u *IdentityCasdoor) Create(ctx context.Context, req *models.SignUpRequest) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	existing, err := u.client.GetUserByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, repositories.ErrUserAlreadyExists
	}

	id := uuid.NewString()
	casdoorUser := &casdoorsdk.User{
		Owner:       u.organization,
		Name:        id,
		Id:          id,
		Type:        "normal-user",
		Email:       email,
		Password:    req.Password,
		FirstName:   strings.TrimSpace(req.FirstName),
		LastName:    strings.TrimSpace(req.LastName),
		DisplayName: strings.TrimSpace(req.FirstName + " " + req.LastName),
		CreatedTime: time.Now().UTC().Format(time.RFC3339),
	}

	ok, err := u.client.AddUser(casdoorUser)
	if err != nil {
		return nil, fmt.Errorf("failed to create user in Casdoor: %w", err)
	}
	if !ok {
		return nil, repositories.ErrUserAlreadyExists
	}

	user := u.toModel(casdoorUser)
	u.cacheUser(ctx, user)
	return user, nil
}

// Authenticate never distinguishes an unknown email from a wrong password
func (u *IdentityCasdoor) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	casdoorUser, err := u.client.GetUserByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if casdoorUser == nil {
		return nil, repositories.ErrInvalidCredentials
	}

	ok, err := u.client.CheckUserPassword(&casdoorsdk.User{
		Owner:    casdoorUser.Owner,
		Name:     casdoorUser.Name,
		Password: password,
	})
	if err != nil || !ok {
		return nil, repositories.ErrInvalidCredentials
	}

	user := u.toModel(casdoorUser)
	u.cacheUser(ctx, user)
	return user, nil
}

// ParseToken validates a Casdoor-issued JWT against the configured certificate
func (u *IdentityCasdoor) ParseToken(token string) (*models.User, error) {
	claims, err := u.client.ParseJwtToken(token)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Casdoor token: %w", err)
	}
	if claims == nil {
		return nil, errors.New("empty token claims")
	}
	return u.toModel(&claims.User), nil
}
