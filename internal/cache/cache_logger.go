package cache

import (
	"context"
	"log/slog"
)

// SafeInvalidatePattern logs instead of returning the error
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete logs instead of returning the error
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// InvalidateModuleCache drops a module and every cached catalog page
func InvalidateModuleCache(ctx context.Context, cm *CacheManager, moduleID string) {
	if cm == nil {
		return
	}
	SafeDelete(ctx, cm.Module, "id:"+moduleID, "all")
	SafeInvalidatePattern(ctx, cm.Module, "list:*")
}

// InvalidateUserStats drops cached dashboard aggregates for one user
func InvalidateUserStats(ctx context.Context, cm *CacheManager, userID string) {
	if cm == nil {
		return
	}
	SafeInvalidatePattern(ctx, cm.Stats, userID+":*")
}
