package cache

import (
	"context"
	"log/slog"
	"time"
)

// Review count keys
const (
	ReviewPendingKeyPrefix = "pending:"
	ReviewSummaryKey       = "summary"
)

// SafeInvalidatePattern safely invalidates cache pattern with logging
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete safely deletes cache keys with logging
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// InvalidateReviewCache drops cached queue counts and the owner's stats after a
// content item is created or reviewed
func InvalidateReviewCache(ctx context.Context, cm *CacheManager, contentType string, ownerID string) {
	SafeDelete(ctx, cm.Review, ReviewSummaryKey, ReviewPendingKeyPrefix+contentType)
	if ownerID != "" {
		SafeInvalidatePattern(ctx, cm.Stats, "contributor:"+ownerID+"*")
	}
}

// InvalidateUserCache drops the cached user row
func InvalidateUserCache(ctx context.Context, cm *CacheManager, userID string) {
	SafeDelete(ctx, cm.User, "id:"+userID)
}

// SafeSet safely stores a value with logging
func SafeSet(ctx context.Context, helper *CacheHelper, key string, value interface{}, ttl time.Duration) {
	if err := helper.Set(ctx, key, value, ttl); err != nil {
		slog.WarnContext(ctx, "Failed to set cache key",
			"error", err,
			"key", key)
	}
}
