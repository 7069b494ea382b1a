package services

import (
	"fmt"
	"slices"
	"time"

	"github.com/flexible-healthcare/training-service/internal/models"
)

// Classify buckets a module for the feed.
// Precedence: completed, in progress, high priority or mandatory, new.
func Classify(module *models.TrainingModule, progress *models.UserProgress) models.FeedVariant {
	switch {
	case progress.IsCompleted():
		return models.VariantCompleted
	case progress.IsInProgress():
		return models.VariantProgress
	case module.IsHighPriority() || module.Mandatory():
		return models.VariantUrgent
	default:
		return models.VariantNew
	}
}

// Tag is the short label shown on a module card
func Tag(module *models.TrainingModule, progress *models.UserProgress) string {
	switch {
	case progress.IsCompleted():
		return "Completed"
	case progress.IsInProgress():
		return fmt.Sprintf("%d%% Complete", progress.ProgressPercentage)
	case module.IsHighPriority():
		return "High Priority"
	case module.Mandatory():
		return "Mandatory"
	default:
		return "Not Started"
	}
}

// Rank orders two feed entries and returns 0 when they are unordered,
// which leaves them in input order under a stable sort.
func Rank(moduleA *models.TrainingModule, progressA *models.UserProgress, moduleB *models.TrainingModule, progressB *models.UserProgress) int {
	aDone, bDone := progressA.IsCompleted(), progressB.IsCompleted()
	switch {
	case aDone && !bDone:
		return 1
	case !aDone && bDone:
		return -1
	case aDone && bDone:
		return 0
	}

	aActive, bActive := progressA.IsInProgress(), progressB.IsInProgress()
	switch {
	case aActive && !bActive:
		return -1
	case !aActive && bActive:
		return 1
	case aActive && bActive:
		return 0
	}

	aHigh, bHigh := moduleA.IsHighPriority(), moduleB.IsHighPriority()
	switch {
	case aHigh && !bHigh:
		return -1
	case !aHigh && bHigh:
		return 1
	}
	return 0
}

// NewFeedItem derives variant, tag and display duration for one module
func NewFeedItem(module *models.TrainingModule, progress *models.UserProgress) *models.FeedItem {
	return &models.FeedItem{
		Module:          module,
		Progress:        progress,
		Variant:         Classify(module, progress),
		Tag:             Tag(module, progress),
		DurationMinutes: module.Duration(),
	}
}

// SortFeedItems stable-sorts items in place by Rank
func SortFeedItems(items []*models.FeedItem) {
	slices.SortStableFunc(items, func(a, b *models.FeedItem) int {
		return Rank(a.Module, a.Progress, b.Module, b.Progress)
	})
}

// ApplyAdvance moves progress forward by increment, clamped to 100.
// Reaching 100 completes the row; below 100 it stays in progress with
// completed_at cleared.
func ApplyAdvance(progress *models.UserProgress, increment int, now time.Time) {
	if increment <= 0 {
		increment = models.DefaultProgressIncrement
	}

	percent := min(100, max(0, progress.ProgressPercentage+increment))
	progress.ProgressPercentage = percent

	if percent >= 100 {
		progress.Status = models.ProgressCompleted
		progress.CompletedAt = &now
		return
	}
	progress.Status = models.ProgressInProgress
	progress.CompletedAt = nil
}
