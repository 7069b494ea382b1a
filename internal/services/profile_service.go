package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/flexible-healthcare/training-service/internal/models"
	"github.com/flexible-healthcare/training-service/internal/repositories"
	"github.com/flexible-healthcare/training-service/internal/storage"
	"github.com/flexible-healthcare/training-service/internal/validator"
)

// MaxAvatarSize is the largest accepted avatar upload
const MaxAvatarSize = 5 << 20

type profileService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	store     storage.ObjectStore
	now       func() time.Time
}

// NewProfileService accepts a nil store; avatar uploads then fail with ErrStorageUnavailable
func NewProfileService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, store storage.ObjectStore) ProfileService {
	return &profileService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		store:     store,
		now:       time.Now,
	}
}

func (s *profileService) Get(ctx context.Context, userID string) (*models.ProfileResponse, error) {
	profile, err := s.getOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toProfileResponse(profile), nil
}

// getOrCreate inserts the default profile the first time a user is seen
func (s *profileService) getOrCreate(ctx context.Context, userID string) (*models.Profile, error) {
	profile, err := s.repo.Profile().GetByID(ctx, nil, userID)
	if err == nil {
		return profile, nil
	}
	if !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	email := ""
	if user, uerr := s.repo.User().GetByID(ctx, userID); uerr == nil {
		email = user.Email
	} else {
		s.logger.Warn("Creating profile without identity email", "user_id", userID, "error", uerr)
	}

	// Create ignores a row inserted concurrently, so read back whichever won
	if err := s.repo.Profile().Create(ctx, nil, models.NewDefaultProfile(userID, email)); err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}
	s.logger.Info("Default profile created", "user_id", userID)

	profile, err = s.repo.Profile().GetByID(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return profile, nil
}

func (s *profileService) Update(ctx context.Context, userID string, req *models.ProfileUpdateRequest) (*models.ProfileResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	profile, err := s.getOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	applyProfileUpdate(profile, req)
	profile.UpdatedAt = s.now().UTC()
	if err := s.repo.Profile().Update(ctx, nil, profile); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	s.logger.Info("Profile updated", "user_id", userID)
	return toProfileResponse(profile), nil
}

// applyProfileUpdate copies set fields; an empty string clears an optional text field
func applyProfileUpdate(profile *models.Profile, req *models.ProfileUpdateRequest) {
	profile.FirstName = mergeText(profile.FirstName, req.FirstName)
	profile.LastName = mergeText(profile.LastName, req.LastName)
	profile.Department = mergeText(profile.Department, req.Department)
	profile.JobTitle = mergeText(profile.JobTitle, req.JobTitle)

	if req.EmailTrainingReminders != nil {
		profile.EmailTrainingReminders = *req.EmailTrainingReminders
	}
	if req.EmailDeadlineAlerts != nil {
		profile.EmailDeadlineAlerts = *req.EmailDeadlineAlerts
	}
	if req.EmailCompletionSummary != nil {
		profile.EmailCompletionSummary = *req.EmailCompletionSummary
	}
	if req.ReminderDaysBefore != nil {
		profile.ReminderDaysBefore = *req.ReminderDaysBefore
	}
}

func mergeText(current, update *string) *string {
	if update == nil {
		return current
	}
	trimmed := strings.TrimSpace(*update)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func (s *profileService) UploadAvatar(ctx context.Context, userID string, file io.Reader, size int64, contentType string) (*models.ProfileResponse, error) {
	if s.store == nil {
		return nil, ErrStorageUnavailable
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, validator.ValidationErrors{
			validator.NewValidationError("avatar", "must be an image", contentType),
		}
	}
	if size <= 0 || size > MaxAvatarSize {
		return nil, validator.ValidationErrors{
			validator.NewValidationError("avatar", "must be between 1 byte and 5 MiB", size),
		}
	}

	profile, err := s.getOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	path := fmt.Sprintf("%s/avatar-%d", userID, s.now().UnixMilli())
	if err := s.store.Upload(ctx, path, io.LimitReader(file, size), size, contentType); err != nil {
		return nil, fmt.Errorf("failed to upload avatar: %w", err)
	}

	url := s.store.PublicURL(path)
	profile.AvatarURL = &url
	profile.UpdatedAt = s.now().UTC()
	if err := s.repo.Profile().Update(ctx, nil, profile); err != nil {
		return nil, fmt.Errorf("failed to save avatar url: %w", err)
	}

	s.logger.Info("Avatar uploaded", "user_id", userID, "path", path, "size", size)
	return toProfileResponse(profile), nil
}

func toProfileResponse(profile *models.Profile) *models.ProfileResponse {
	return &models.ProfileResponse{
		Profile:              profile,
		CompletionPercentage: profile.CompletionPercentage(),
	}
}
