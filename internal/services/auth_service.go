package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/flexible-healthcare/training-service/internal/events"
	"github.com/flexible-healthcare/training-service/internal/models"
	"github.com/flexible-healthcare/training-service/internal/repositories"
	"github.com/flexible-healthcare/training-service/internal/validator"
)

const (
	msgInvalidCredentials = "Invalid email or password."
	msgAccountExists      = "An account with this email already exists."
)

type authService struct {
	users     repositories.UserRepository
	tokens    *TokenIssuer
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
	now       func() time.Time

	mu        sync.RWMutex
	listeners map[int]SessionListener
	nextID    int
}

func NewAuthService(users repositories.UserRepository, tokens *TokenIssuer, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher) AuthService {
	return &authService{
		users:     users,
		tokens:    tokens,
		logger:    logger,
		validator: validator,
		publisher: publisher,
		now:       time.Now,
		listeners: make(map[int]SessionListener),
	}
}

func (s *authService) SignUp(ctx context.Context, req *models.SignUpRequest) (*models.Session, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.users.Create(ctx, req)
	if err != nil {
		if errors.Is(err, repositories.ErrUserAlreadyExists) {
			return nil, &AuthError{Reason: msgAccountExists, Conflict: true}
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	session, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("User signed up", "user_id", user.ID)
	s.emit(ctx, models.SessionSignedIn, user.ID)
	return session, nil
}

func (s *authService) SignIn(ctx context.Context, req *models.SignInRequest) (*models.Session, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.users.Authenticate(ctx, strings.ToLower(strings.TrimSpace(req.Email)), req.Password)
	if err != nil {
		if errors.Is(err, repositories.ErrInvalidCredentials) || repositories.IsNotFoundError(err) {
			s.logger.Info("Sign in rejected")
			return nil, NewAuthError(msgInvalidCredentials)
		}
		return nil, fmt.Errorf("failed to authenticate: %w", err)
	}

	session, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("User signed in", "user_id", user.ID)
	s.emit(ctx, models.SessionSignedIn, user.ID)
	return session, nil
}

func (s *authService) SignOut(ctx context.Context, token string) error {
	userID, err := s.tokens.Revoke(ctx, token)
	if err != nil {
		s.logger.Debug("Sign out with unusable token", "error", err)
		return ErrSessionNotFound
	}

	s.logger.Info("User signed out", "user_id", userID)
	s.emit(ctx, models.SessionSignedOut, userID)
	return nil
}

// GetSession accepts our own tokens first, then tokens issued by the identity provider
func (s *authService) GetSession(ctx context.Context, token string) (*models.Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrSessionNotFound
	}

	session, err := s.tokens.Verify(ctx, token)
	if err == nil {
		return session, nil
	}

	user, perr := s.users.ParseToken(token)
	if perr != nil {
		s.logger.Debug("Session token rejected", "error", err, "identity_error", perr)
		return nil, ErrSessionNotFound
	}
	return &models.Session{Token: token, TokenType: "Bearer", User: user}, nil
}

func (s *authService) OnSessionChange(listener SessionListener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = listener
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// emit notifies in-process listeners and then the bus
func (s *authService) emit(ctx context.Context, change models.SessionEventType, userID string) {
	event := models.SessionEvent{Type: change, UserID: userID, At: s.now().UTC()}

	s.mu.RLock()
	listeners := make([]SessionListener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.RUnlock()

	for _, l := range listeners {
		l(ctx, event)
	}

	if s.publisher == nil {
		return
	}
	busEvent, err := events.NewEvent(events.TypeSessionChanged, events.SessionChangedData{
		UserID: userID,
		Change: string(change),
		At:     event.At,
	})
	if err == nil {
		err = s.publisher.Publish(ctx, busEvent)
	}
	if err != nil {
		s.logger.Warn("Failed to publish session change", "user_id", userID, "error", err)
	}
}
