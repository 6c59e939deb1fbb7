package weread

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"
)

const (
	// DefaultMaxAttempts is the retry budget for a single remote call.
	DefaultMaxAttempts = 3

	// DefaultRetryDelay is the fixed wait between attempts.
	DefaultRetryDelay = 5 * time.Second
)

// GuardConfig configures a Guard.
type GuardConfig struct {
	MaxAttempts uint          // Attempts per call (default: 3)
	Delay       time.Duration // Fixed wait between attempts (default: 5s)
	// Refresh re-establishes the session after an expiry signal.
	Refresh func(ctx context.Context) error
	Logger  *slog.Logger
}

// Guard wraps remote calls with a bounded refresh-and-retry cycle.
// It owns no domain data; the only state it touches is the session through Refresh.
type Guard struct {
	maxAttempts uint
	delay       time.Duration
	refresh     func(ctx context.Context) error
	logger      *slog.Logger
}

// NewGuard creates a new session guard.
func NewGuard(cfg GuardConfig) *Guard {
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Delay <= 0 {
		cfg.Delay = DefaultRetryDelay
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Guard{
		maxAttempts: cfg.MaxAttempts,
		delay:       cfg.Delay,
		refresh:     cfg.Refresh,
		logger:      cfg.Logger,
	}
}

// Do runs fn until it succeeds, fails with a non-retryable error, or the
// attempt budget runs out. Exhausted budgets surface as ErrRemoteUnavailable.
func (g *Guard) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	attempts := 0
	err := retry.Do(
		func() error {
			attempts++
			return fn(ctx)
		},
		retry.Context(ctx),
		retry.Attempts(g.maxAttempts),
		retry.Delay(g.delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(retryable),
		retry.OnRetry(func(n uint, err error) {
			// Called after the final attempt too; nothing left to refresh for.
			if n+1 >= g.maxAttempts {
				return
			}
			g.onRetry(ctx, op, n+1, err)
		}),
	)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s: %w", op, ctxErr)
	}
	if retryable(err) {
		g.logger.Error("remote call failed after retries",
			"op", op,
			"attempts", attempts,
			"error", err)
		return fmt.Errorf("%s: %w after %d attempts: %w", op, ErrRemoteUnavailable, attempts, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (g *Guard) onRetry(ctx context.Context, op string, attempt uint, err error) {
	if !sessionInvalid(err) {
		g.logger.Warn("remote call failed, retrying",
			"op", op,
			"attempt", attempt,
			"delay", g.delay,
			"error", err)
		return
	}

	g.logger.Warn("session expired, refreshing",
		"op", op,
		"attempt", attempt)
	if g.refresh == nil {
		return
	}
	if rerr := g.refresh(ctx); rerr != nil {
		// The next attempt will surface the expiry again if the refresh did not take.
		g.logger.Warn("session refresh failed", "op", op, "error", rerr)
		return
	}
	g.logger.Info("session refreshed", "op", op)
}
