package repositories

import (
	"context"
	"errors"

	"github.com/flexible-healthcare/training-service/internal/models"
)

var (
	// ErrInvalidCredentials covers unknown email and wrong password alike
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserAlreadyExists  = errors.New("user already exists")
)

// UserRepository is the identity provider seen as a user store.
// The training service never owns user data.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// Create registers a new account
	Create(ctx context.Context, req *models.SignUpRequest) (*models.User, error)
	// Authenticate checks a password and returns the account
	Authenticate(ctx context.Context, email, password string) (*models.User, error)

	// ParseToken validates a token issued by the identity provider itself
	ParseToken(token string) (*models.User, error)
}
