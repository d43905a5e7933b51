package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// SafeInvalidatePattern invalidates a cache pattern, logging instead of
// propagating cache failures.
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete deletes cache keys, logging instead of propagating failures.
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// InvalidateCourseCache drops every cached view of a course and the
// practice catalog it belongs to.
func InvalidateCourseCache(ctx context.Context, cm *CacheManager, courseID, practiceID uint) {
	SafeDelete(ctx, cm.Course,
		fmt.Sprintf("id:%d", courseID),
		fmt.Sprintf("content:%d", courseID))
	SafeInvalidatePattern(ctx, cm.Course, fmt.Sprintf("catalog:%d*", practiceID))
	SafeInvalidatePattern(ctx, cm.Stats, fmt.Sprintf("practice:%d*", practiceID))
}

// InvalidateQuestionnaireCache drops cached questionnaire views after
// authoring changes.
func InvalidateQuestionnaireCache(ctx context.Context, cm *CacheManager, questionnaireID, courseID uint) {
	SafeDelete(ctx, cm.Questionnaire,
		fmt.Sprintf("id:%d", questionnaireID),
		fmt.Sprintf("course:%d", courseID))
}
