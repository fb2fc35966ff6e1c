package usecase

import (
	"context"
	"time"

	authDomain "github.com/allisson/gatekeeper/internal/auth/domain"
	"github.com/allisson/gatekeeper/internal/metrics"
	userDomain "github.com/allisson/gatekeeper/internal/user/domain"
)

// tokenUseCaseWithMetrics decorates TokenUseCase with metrics instrumentation.
type tokenUseCaseWithMetrics struct {
	next    TokenUseCase
	metrics metrics.BusinessMetrics
}

// NewTokenUseCaseWithMetrics wraps a TokenUseCase with metrics recording.
func NewTokenUseCaseWithMetrics(useCase TokenUseCase, m metrics.BusinessMetrics) TokenUseCase {
	return &tokenUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (t *tokenUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	t.metrics.RecordOperation(ctx, "auth", operation, status)
	t.metrics.RecordDuration(ctx, "auth", operation, time.Since(start), status)
}

// Login records metrics for login attempts.
func (t *tokenUseCaseWithMetrics) Login(
	ctx context.Context,
	email, password string,
) (*userDomain.User, *authDomain.TokenPair, error) {
	start := time.Now()
	user, pair, err := t.next.Login(ctx, email, password)
	t.record(ctx, "login", start, err)
	return user, pair, err
}

// IssuePair records metrics for token pair issuance.
func (t *tokenUseCaseWithMetrics) IssuePair(ctx context.Context, user *userDomain.User) (*authDomain.TokenPair, error) {
	start := time.Now()
	pair, err := t.next.IssuePair(ctx, user)
	t.record(ctx, "token_issue", start, err)
	return pair, err
}

// Authenticate records metrics for access token validation.
func (t *tokenUseCaseWithMetrics) Authenticate(ctx context.Context, accessToken string) (*userDomain.User, error) {
	start := time.Now()
	user, err := t.next.Authenticate(ctx, accessToken)
	t.record(ctx, "authenticate", start, err)
	return user, err
}

// Refresh records metrics for access token refresh.
func (t *tokenUseCaseWithMetrics) Refresh(ctx context.Context, refreshToken string) (*authDomain.IssuedAccessToken, error) {
	start := time.Now()
	access, err := t.next.Refresh(ctx, refreshToken)
	t.record(ctx, "token_refresh", start, err)
	return access, err
}

// Logout records metrics for refresh token revocation.
func (t *tokenUseCaseWithMetrics) Logout(ctx context.Context, principal *userDomain.User, refreshToken string) error {
	start := time.Now()
	err := t.next.Logout(ctx, principal, refreshToken)
	t.record(ctx, "logout", start, err)
	return err
}

// PruneRevocations records metrics for revocation pruning.
func (t *tokenUseCaseWithMetrics) PruneRevocations(ctx context.Context, dryRun bool) (int64, error) {
	start := time.Now()
	count, err := t.next.PruneRevocations(ctx, dryRun)
	t.record(ctx, "revocation_prune", start, err)
	return count, err
}
