package notifications

import (
	"context"
	"fmt"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// FailureRecorder counts skipped side effects.
type FailureRecorder interface {
	NotificationFailed(name string)
}

// Runner executes side effects that must never fail the caller.
type Runner struct {
	logg    *logger.Logger
	metrics FailureRecorder
}

// NewRunner builds a best-effort runner. metrics may be nil.
func NewRunner(logg *logger.Logger, metrics FailureRecorder) *Runner {
	return &Runner{logg: logg, metrics: metrics}
}

// Do runs fn and logs a warning on error or panic. It never returns the failure.
func (r *Runner) Do(ctx context.Context, name string, fn func() error) {
	if r == nil {
		return
	}
	err := safeCall(fn)
	if err == nil {
		return
	}
	if r.metrics != nil {
		r.metrics.NotificationFailed(name)
	}
	if r.logg != nil {
		logCtx := r.logg.WithFields(ctx, map[string]any{
			"side_effect": name,
			"error":       err.Error(),
		})
		r.logg.Warn(logCtx, "best-effort side effect failed")
	}
}

// BestEffort is Do without metrics.
func BestEffort(ctx context.Context, logg *logger.Logger, name string, fn func() error) {
	NewRunner(logg, nil).Do(ctx, name, fn)
}

func safeCall(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return fn()
}
