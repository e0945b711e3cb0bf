package services

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/vytor/quizforge/internal/cache"
	"github.com/vytor/quizforge/internal/errors"
	"github.com/vytor/quizforge/internal/logger"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100

	quizListPrefix   = "quiz:list:"
	quizDetailPrefix = "quiz:detail:"
	importPrefix     = "import:"
)

func quizDetailKey(id int64) string { return fmt.Sprintf("%s%d", quizDetailPrefix, id) }

func quizListKey(page, limit int) string { return fmt.Sprintf("%s%d:%d", quizListPrefix, page, limit) }

func importKey(jobID string) string { return importPrefix + jobID }

// pagination applies defaults (page 1, limit 10) and rejects out-of-range values.
func pagination(page, limit int) (int, int, error) {
	if page == 0 {
		page = 1
	}
	if limit == 0 {
		limit = defaultPageLimit
	}
	if page < 1 {
		return 0, 0, errors.NewValidationError("page", "must be at least 1")
	}
	if limit < 1 || limit > maxPageLimit {
		return 0, 0, errors.NewValidationError("limit", fmt.Sprintf("must be between 1 and %d", maxPageLimit))
	}
	return page, limit, nil
}

// invalidate drops keys and every key under prefixes. Failures are logged only.
func invalidate(ctx context.Context, store cache.Store, keys []string, prefixes ...string) {
	log := logger.FromContext(ctx)
	if len(keys) > 0 {
		if err := store.Delete(ctx, keys...); err != nil {
			log.Warn("cache delete failed: keys=%v: %v", keys, err)
		}
	}
	for _, prefix := range prefixes {
		if err := store.InvalidateByPrefix(ctx, prefix); err != nil {
			log.Warn("cache invalidation failed: prefix=%s: %v", prefix, err)
		}
	}
}

// describe extracts the code and message reported to clients for err.
func describe(err error) (string, string) {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code, appErr.Message
	}
	return errors.ErrCodeInternal, err.Error()
}
