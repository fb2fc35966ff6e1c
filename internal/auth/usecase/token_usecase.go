package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	auditDomain "github.com/allisson/gatekeeper/internal/audit/domain"
	auditUsecase "github.com/allisson/gatekeeper/internal/audit/usecase"
	authDomain "github.com/allisson/gatekeeper/internal/auth/domain"
	authService "github.com/allisson/gatekeeper/internal/auth/service"
	"github.com/allisson/gatekeeper/internal/config"
	apperrors "github.com/allisson/gatekeeper/internal/errors"
	userDomain "github.com/allisson/gatekeeper/internal/user/domain"
)

// tokenUseCase implements TokenUseCase.
type tokenUseCase struct {
	config          *config.Config
	userRepo        UserRepository
	revocationRepo  RevocationRepository
	jwtService      authService.JWTService
	passwordService authService.PasswordService
	recorder        auditUsecase.Recorder
	logger          *slog.Logger
}

// NewTokenUseCase creates a new TokenUseCase.
func NewTokenUseCase(
	cfg *config.Config,
	userRepo UserRepository,
	revocationRepo RevocationRepository,
	jwtService authService.JWTService,
	passwordService authService.PasswordService,
	recorder auditUsecase.Recorder,
	logger *slog.Logger,
) TokenUseCase {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &tokenUseCase{
		config:          cfg,
		userRepo:        userRepo,
		revocationRepo:  revocationRepo,
		jwtService:      jwtService,
		passwordService: passwordService,
		recorder:        recorder,
		logger:          logger.With(slog.String("component", "auth")),
	}
}

// Login looks up the user by normalized email and verifies the password.
//
// An unknown email still pays for a full hash verification against a dummy
// hash, and inactive users are rejected only after verification, so neither
// timing nor the error tells callers which check failed.
func (t *tokenUseCase) Login(
	ctx context.Context,
	email, password string,
) (*userDomain.User, *authDomain.TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	metadata := map[string]any{"email": email}

	user, err := t.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, userDomain.ErrUserNotFound) {
			return nil, nil, err
		}
		if _, err := t.passwordService.Verify(ctx, password, ""); err != nil {
			return nil, nil, err
		}
		metadata["reason"] = "unknown_account"
		t.recorder.RecordFailure(ctx, auditDomain.ActionLogin, nil, auditDomain.ResourceUser, "", metadata)
		return nil, nil, apperrors.ErrAuthenticationFailed
	}

	ok, err := t.passwordService.Verify(ctx, password, user.Password)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, nil, err
		}
		t.logger.ErrorContext(ctx, "stored password hash could not be verified",
			slog.String("user_id", user.ID.String()),
			slog.Any("error", err),
		)
		metadata["reason"] = "unverifiable_hash"
		t.recorder.RecordFailure(ctx, auditDomain.ActionLogin, &user.ID, auditDomain.ResourceUser, user.ID.String(), metadata)
		return nil, nil, apperrors.ErrAuthenticationFailed
	}

	if !ok || !user.IsActive {
		metadata["reason"] = "invalid_password"
		if ok {
			metadata["reason"] = "inactive_account"
		}
		t.recorder.RecordFailure(ctx, auditDomain.ActionLogin, &user.ID, auditDomain.ResourceUser, user.ID.String(), metadata)
		return nil, nil, apperrors.ErrAuthenticationFailed
	}

	pair, err := t.IssuePair(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()
	if err := t.userRepo.TouchLastLogin(ctx, user.ID, now); err != nil {
		t.logger.WarnContext(ctx, "failed to update last login",
			slog.String("user_id", user.ID.String()),
			slog.Any("error", err),
		)
	} else {
		user.LastLoginAt = &now
	}

	t.recorder.RecordSuccess(ctx, auditDomain.ActionLogin, &user.ID, auditDomain.ResourceUser, user.ID.String(), metadata)

	return user, pair, nil
}

// IssuePair signs an access and a refresh token stamped with the user's current token version.
func (t *tokenUseCase) IssuePair(_ context.Context, user *userDomain.User) (*authDomain.TokenPair, error) {
	access, accessClaims, err := t.jwtService.Issue(
		user.ID,
		authDomain.AccessToken,
		user.TokenVersion,
		t.config.AccessTokenTTL,
	)
	if err != nil {
		return nil, err
	}

	refresh, refreshClaims, err := t.jwtService.Issue(
		user.ID,
		authDomain.RefreshToken,
		user.TokenVersion,
		t.config.RefreshTokenTTL,
	)
	if err != nil {
		return nil, err
	}

	return &authDomain.TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessClaims.ExpiresAt,
		RefreshExpiresAt: refreshClaims.ExpiresAt,
	}, nil
}

// Authenticate resolves the active user behind an access token.
func (t *tokenUseCase) Authenticate(ctx context.Context, accessToken string) (*userDomain.User, error) {
	_, user, err := t.validate(ctx, accessToken, authDomain.AccessToken)
	return user, err
}

// Refresh trades a valid, unrevoked refresh token for a new access token.
// The refresh token itself is left untouched.
func (t *tokenUseCase) Refresh(ctx context.Context, refreshToken string) (*authDomain.IssuedAccessToken, error) {
	claims, user, err := t.validate(ctx, refreshToken, authDomain.RefreshToken)
	if err != nil {
		t.recorder.RecordFailure(ctx, auditDomain.ActionRefresh, nil, auditDomain.ResourceSession, "",
			map[string]any{"reason": failureReason(err)})
		return nil, err
	}

	revoked, err := t.revocationRepo.IsRevoked(ctx, claims.JTI)
	if err != nil {
		return nil, err
	}
	if revoked {
		t.recorder.RecordFailure(ctx, auditDomain.ActionRefresh, &user.ID, auditDomain.ResourceSession, claims.JTI,
			map[string]any{"reason": "revoked"})
		return nil, apperrors.Wrap(apperrors.ErrTokenInvalid, "refresh token revoked")
	}

	access, accessClaims, err := t.jwtService.Issue(
		user.ID,
		authDomain.AccessToken,
		user.TokenVersion,
		t.config.AccessTokenTTL,
	)
	if err != nil {
		return nil, err
	}

	t.recorder.RecordSuccess(ctx, auditDomain.ActionRefresh, &user.ID, auditDomain.ResourceSession, claims.JTI, nil)

	return &authDomain.IssuedAccessToken{Token: access, ExpiresAt: accessClaims.ExpiresAt}, nil
}

// Logout revokes the principal's refresh token until it would have expired.
func (t *tokenUseCase) Logout(ctx context.Context, principal *userDomain.User, refreshToken string) error {
	claims, err := t.jwtService.Parse(refreshToken)
	if err != nil {
		return err
	}

	if claims.Type != authDomain.RefreshToken {
		return apperrors.Wrap(apperrors.ErrTokenInvalid, "not a refresh token")
	}
	if principal == nil || claims.UserID != principal.ID {
		return apperrors.Wrap(apperrors.ErrTokenInvalid, "refresh token belongs to another user")
	}

	revoked := &authDomain.RevokedToken{
		JTI:       claims.JTI,
		UserID:    claims.UserID,
		ExpiresAt: claims.ExpiresAt,
		RevokedAt: time.Now().UTC(),
	}
	if err := t.revocationRepo.Create(ctx, revoked); err != nil {
		return err
	}

	t.recorder.RecordSuccess(ctx, auditDomain.ActionLogout, &principal.ID, auditDomain.ResourceSession, claims.JTI, nil)
	return nil
}

// PruneRevocations deletes revocation entries whose tokens have expired.
// With dryRun it only counts them.
func (t *tokenUseCase) PruneRevocations(ctx context.Context, dryRun bool) (int64, error) {
	count, err := t.revocationRepo.DeleteExpired(ctx, time.Now().UTC(), dryRun)
	if err != nil {
		return 0, err
	}

	if !dryRun {
		t.recorder.RecordSuccess(ctx, auditDomain.ActionRevocationsPruned, nil, auditDomain.ResourceSession, "",
			map[string]any{"deleted": count})
	}
	return count, nil
}

// validate runs the credential checks shared by access and refresh tokens.
func (t *tokenUseCase) validate(
	ctx context.Context,
	raw string,
	expected authDomain.TokenType,
) (*authDomain.Claims, *userDomain.User, error) {
	claims, err := t.jwtService.Parse(raw)
	if err != nil {
		return nil, nil, err
	}

	user, err := t.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, userDomain.ErrUserNotFound) {
			return nil, nil, apperrors.ErrAuthenticationFailed
		}
		return nil, nil, err
	}

	if !user.IsActive {
		return nil, nil, apperrors.ErrAuthenticationFailed
	}

	if claims.Version != user.TokenVersion {
		return nil, nil, apperrors.Wrap(apperrors.ErrTokenInvalid, "token generation is stale")
	}

	if claims.Type != expected {
		return nil, nil, apperrors.Wrap(apperrors.ErrTokenInvalid, "unexpected token type")
	}

	return claims, user, nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrTokenExpired):
		return "token_expired"
	case errors.Is(err, apperrors.ErrTokenInvalid):
		return "token_invalid"
	case errors.Is(err, apperrors.ErrAuthenticationFailed):
		return "authentication_failed"
	default:
		return "error"
	}
}
