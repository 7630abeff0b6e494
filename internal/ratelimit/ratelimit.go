// Package ratelimit throttles login attempts per username. Counters live in
// PostgreSQL so every API instance sees the same totals.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/saturnino-fabrica-de-software/emotune/internal/domain"
)

// DB interface for database operations
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// LoginThrottle is a fixed-window attempt counter keyed by username.
type LoginThrottle struct {
	db          DB
	window      time.Duration
	maxAttempts int
	now         func() time.Time
}

func NewLoginThrottle(db DB, maxAttempts int, window time.Duration) *LoginThrottle {
	return &LoginThrottle{
		db:          db,
		window:      window,
		maxAttempts: maxAttempts,
		now:         time.Now,
	}
}

func loginKey(username string) string {
	return "login:" + username
}

// Allow records an attempt for username and returns
// domain.ErrTooManyLoginAttempts once the window's budget is spent.
func (r *LoginThrottle) Allow(ctx context.Context, username string) error {
	if r.maxAttempts <= 0 {
		return nil
	}

	now := r.now().UTC()
	windowStart := now.Add(-r.window)

	// A counter whose window has elapsed restarts at 1.
	query := `
		INSERT INTO login_attempts (key, count, window_start)
		VALUES ($1, 1, $2)
		ON CONFLICT (key)
		DO UPDATE SET
			count = CASE
				WHEN login_attempts.window_start <= $3 THEN 1
				ELSE login_attempts.count + 1
			END,
			window_start = CASE
				WHEN login_attempts.window_start <= $3 THEN $2
				ELSE login_attempts.window_start
			END
		RETURNING count
	`

	var count int
	if err := r.db.QueryRow(ctx, query, loginKey(username), now, windowStart).Scan(&count); err != nil {
		return fmt.Errorf("check login attempts: %w", err)
	}

	if count > r.maxAttempts {
		return domain.ErrTooManyLoginAttempts.WithError(
			fmt.Errorf("%d/%d attempts in window", count, r.maxAttempts))
	}
	return nil
}

// Reset clears the counter after a successful login.
func (r *LoginThrottle) Reset(ctx context.Context, username string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM login_attempts WHERE key = $1`, loginKey(username))
	if err != nil {
		return fmt.Errorf("reset login attempts: %w", err)
	}
	return nil
}

// CleanupExpired removes counters whose window has elapsed.
func (r *LoginThrottle) CleanupExpired(ctx context.Context) (int64, error) {
	cutoff := r.now().UTC().Add(-r.window)
	result, err := r.db.Exec(ctx, `DELETE FROM login_attempts WHERE window_start <= $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup login attempts: %w", err)
	}
	return result.RowsAffected(), nil
}

// RunCleanup calls CleanupExpired every interval until ctx is done.
func (r *LoginThrottle) RunCleanup(ctx context.Context, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := r.CleanupExpired(ctx)
			if err != nil {
				logger.Warn("login attempt cleanup failed", "error", err)
				continue
			}
			if removed > 0 {
				logger.Debug("login attempt counters removed", "count", removed)
			}
		}
	}
}
