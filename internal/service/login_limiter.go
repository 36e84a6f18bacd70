package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const loginAttemptsPrefix = "login_attempts:"

// AttemptCounter is a fixed-window counter keyed by string.
type AttemptCounter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
	Reset(ctx context.Context, key string) error
}

// LoginLimiter throttles login attempts per normalized email. It fails open
// when the counter is unavailable.
type LoginLimiter struct {
	counter     AttemptCounter
	maxAttempts int64
	window      time.Duration
	logger      *zap.Logger
}

// NewLoginLimiter builds a limiter. maxAttempts <= 0 disables throttling.
func NewLoginLimiter(counter AttemptCounter, maxAttempts int, window time.Duration, logger *zap.Logger) *LoginLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoginLimiter{counter: counter, maxAttempts: int64(maxAttempts), window: window, logger: logger}
}

func (l *LoginLimiter) enabled() bool {
	return l != nil && l.counter != nil && l.maxAttempts > 0 && l.window > 0
}

// Allow records an attempt for email and reports whether it may proceed.
func (l *LoginLimiter) Allow(ctx context.Context, email string) bool {
	if !l.enabled() {
		return true
	}
	count, err := l.counter.Incr(ctx, loginAttemptsPrefix+email, l.window)
	if err != nil {
		l.logger.Warn("login limiter unavailable", zap.Error(err))
		return true
	}
	return count <= l.maxAttempts
}

// Reset clears the attempt counter after a successful login.
func (l *LoginLimiter) Reset(ctx context.Context, email string) {
	if !l.enabled() {
		return
	}
	if err := l.counter.Reset(ctx, loginAttemptsPrefix+email); err != nil {
		l.logger.Warn("login limiter reset failed", zap.Error(err))
	}
}
