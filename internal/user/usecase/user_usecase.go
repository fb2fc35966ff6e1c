package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/gatekeeper/internal/audit/domain"
	auditUsecase "github.com/allisson/gatekeeper/internal/audit/usecase"
	authDomain "github.com/allisson/gatekeeper/internal/auth/domain"
	"github.com/allisson/gatekeeper/internal/database"
	apperrors "github.com/allisson/gatekeeper/internal/errors"
	outboxDomain "github.com/allisson/gatekeeper/internal/outbox/domain"
	"github.com/allisson/gatekeeper/internal/user/domain"
)

// DefaultRegistrationRole is assigned to self-registered accounts when it exists.
const DefaultRegistrationRole = authDomain.RoleReadOnly

// UserUseCase handles user lifecycle business logic.
type UserUseCase struct {
	txManager  database.TxManager
	userRepo   UserRepository
	roleLookup RoleLookup
	outboxRepo OutboxEventRepository
	passwords  PasswordHasher
	recorder   auditUsecase.Recorder
	logger     *slog.Logger
	now        func() time.Time
}

// NewUserUseCase creates a new UserUseCase.
func NewUserUseCase(
	txManager database.TxManager,
	userRepo UserRepository,
	roleLookup RoleLookup,
	outboxRepo OutboxEventRepository,
	passwords PasswordHasher,
	recorder auditUsecase.Recorder,
	logger *slog.Logger,
) *UserUseCase {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &UserUseCase{
		txManager:  txManager,
		userRepo:   userRepo,
		roleLookup: roleLookup,
		outboxRepo: outboxRepo,
		passwords:  passwords,
		recorder:   recorder,
		logger:     logger.With(slog.String("component", "users")),
		now:        time.Now,
	}
}

// Register creates a self-registered account.
func (uc *UserUseCase) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	input.Email = normalizeEmail(input.Email)
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
	if err := input.validate(); err != nil {
		return nil, err
	}

	hash, err := uc.passwords.Hash(ctx, input.Password)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to hash password")
	}

	user := uc.newUser(input.Email, input.FirstName, input.LastName, hash, true)
	user.RoleID, user.RoleName = uc.defaultRole(ctx)

	if err := uc.create(ctx, user, nil); err != nil {
		uc.recorder.RecordFailure(ctx, auditDomain.ActionRegister, nil, auditDomain.ResourceUser, "",
			map[string]any{"reason": failureReason(err)})
		return nil, err
	}

	uc.recorder.RecordSuccess(ctx, auditDomain.ActionRegister, &user.ID, auditDomain.ResourceUser,
		user.ID.String(), map[string]any{"email": user.Email})
	return user, nil
}

// CreateUser creates an account on behalf of an administrator.
func (uc *UserUseCase) CreateUser(
	ctx context.Context,
	actorID uuid.UUID,
	input CreateUserInput,
) (*domain.User, error) {
	input.Email = normalizeEmail(input.Email)
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
	if err := input.validate(); err != nil {
		return nil, err
	}

	hash, err := uc.passwords.Hash(ctx, input.Password)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to hash password")
	}

	user := uc.newUser(input.Email, input.FirstName, input.LastName, hash, input.IsActive)
	user.RoleID = cloneID(input.RoleID)

	actor := actorRef(actorID)
	if err := uc.create(ctx, user, actor); err != nil {
		uc.recorder.RecordFailure(ctx, auditDomain.ActionUserCreated, actor, auditDomain.ResourceUser, "",
			map[string]any{"email": input.Email, "reason": failureReason(err)})
		return nil, err
	}

	created, err := uc.userRepo.GetByID(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	uc.recorder.RecordSuccess(ctx, auditDomain.ActionUserCreated, actor, auditDomain.ResourceUser,
		created.ID.String(), map[string]any{
			"email":     created.Email,
			"role":      created.RoleName,
			"is_active": created.IsActive,
		})
	return created, nil
}

// GetUser returns a user by id.
func (uc *UserUseCase) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return uc.userRepo.GetByID(ctx, id)
}

// ListUsers returns a page of users matching filter.
func (uc *UserUseCase) ListUsers(
	ctx context.Context,
	filter domain.UserFilter,
	offset, limit int,
) ([]*domain.User, error) {
	if filter.OrderBy != "" && !filter.OrderBy.IsValid() {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidInput, "unsupported ordering %q", filter.OrderBy)
	}
	return uc.userRepo.List(ctx, filter, offset, limit)
}

// UpdateProfile changes the caller's names.
func (uc *UserUseCase) UpdateProfile(
	ctx context.Context,
	userID uuid.UUID,
	input UpdateProfileInput,
) (*domain.User, error) {
	input.FirstName = trimPtr(input.FirstName)
	input.LastName = trimPtr(input.LastName)
	if err := input.validate(); err != nil {
		return nil, err
	}

	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	changed := applyNames(user, input.FirstName, input.LastName)
	if len(changed) == 0 {
		return user, nil
	}

	if err := uc.update(ctx, user, &userID); err != nil {
		return nil, err
	}

	uc.recorder.RecordSuccess(ctx, auditDomain.ActionProfileUpdated, &userID, auditDomain.ResourceUser,
		userID.String(), map[string]any{"fields": changed})
	return user, nil
}

// UpdateUser applies administrative changes.
func (uc *UserUseCase) UpdateUser(
	ctx context.Context,
	actorID, id uuid.UUID,
	input UpdateUserInput,
) (*domain.User, error) {
	input.FirstName = trimPtr(input.FirstName)
	input.LastName = trimPtr(input.LastName)
	if err := input.validate(); err != nil {
		return nil, err
	}

	user, err := uc.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	changed := applyNames(user, input.FirstName, input.LastName)
	switch {
	case input.ClearRole:
		if user.HasRole() {
			user.RoleID = nil
			changed = append(changed, "role_id")
		}
	case input.RoleID != nil:
		if !user.HasRole() || *user.RoleID != *input.RoleID {
			user.RoleID = cloneID(input.RoleID)
			changed = append(changed, "role_id")
		}
	}
	if len(changed) == 0 {
		return user, nil
	}

	actor := actorRef(actorID)
	if err := uc.update(ctx, user, actor); err != nil {
		uc.recorder.RecordFailure(ctx, auditDomain.ActionUserUpdated, actor, auditDomain.ResourceUser,
			id.String(), map[string]any{"fields": changed, "reason": failureReason(err)})
		return nil, err
	}

	updated, err := uc.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	uc.recorder.RecordSuccess(ctx, auditDomain.ActionUserUpdated, actor, auditDomain.ResourceUser,
		id.String(), map[string]any{"fields": changed, "role": updated.RoleName})
	return updated, nil
}

// ChangePassword replaces the caller's password and invalidates their tokens.
func (uc *UserUseCase) ChangePassword(ctx context.Context, userID uuid.UUID, input ChangePasswordInput) error {
	if err := input.validate(); err != nil {
		return err
	}

	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	ok, err := uc.passwords.Verify(ctx, input.OldPassword, user.Password)
	if err != nil {
		return apperrors.Wrap(err, "failed to verify password")
	}
	if !ok {
		uc.recorder.RecordFailure(ctx, auditDomain.ActionPasswordChanged, &userID, auditDomain.ResourceUser,
			userID.String(), map[string]any{"reason": "invalid_old_password"})
		return domain.ErrInvalidOldPassword
	}

	hash, err := uc.passwords.Hash(ctx, input.NewPassword)
	if err != nil {
		return apperrors.Wrap(err, "failed to hash password")
	}

	version, err := uc.bump(ctx, user, &userID, outboxDomain.EventUserPasswordChanged,
		func(ctx context.Context) (int64, error) {
			return uc.userRepo.UpdatePassword(ctx, userID, hash)
		})
	if err != nil {
		return err
	}

	uc.recorder.RecordSuccess(ctx, auditDomain.ActionPasswordChanged, &userID, auditDomain.ResourceUser,
		userID.String(), map[string]any{"token_version": version})
	return nil
}

// DeactivateUser soft-deletes an account.
func (uc *UserUseCase) DeactivateUser(ctx context.Context, actorID, id uuid.UUID) (*domain.User, error) {
	user, err := uc.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	actor := actorRef(actorID)
	wasActive := user.IsActive
	version, err := uc.bump(ctx, user, actor, outboxDomain.EventUserDeactivated,
		func(ctx context.Context) (int64, error) {
			return uc.userRepo.Deactivate(ctx, id)
		})
	if err != nil {
		uc.recorder.RecordFailure(ctx, auditDomain.ActionUserDeactivated, actor, auditDomain.ResourceUser,
			id.String(), map[string]any{"reason": failureReason(err)})
		return nil, err
	}

	user.IsActive = false
	user.TokenVersion = version
	user.UpdatedAt = uc.now().UTC()

	uc.recorder.RecordSuccess(ctx, auditDomain.ActionUserDeactivated, actor, auditDomain.ResourceUser,
		id.String(), map[string]any{
			"email":         user.Email,
			"was_active":    wasActive,
			"token_version": version,
		})
	return user, nil
}

// ResetPassword assigns a temporary password.
func (uc *UserUseCase) ResetPassword(ctx context.Context, actorID, id uuid.UUID) (string, error) {
	user, err := uc.userRepo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}

	temporary, err := uc.passwords.GenerateTemporaryPassword()
	if err != nil {
		return "", apperrors.Wrap(err, "failed to generate temporary password")
	}

	hash, err := uc.passwords.Hash(ctx, temporary)
	if err != nil {
		return "", apperrors.Wrap(err, "failed to hash password")
	}

	actor := actorRef(actorID)
	version, err := uc.bump(ctx, user, actor, outboxDomain.EventUserPasswordReset,
		func(ctx context.Context) (int64, error) {
			return uc.userRepo.UpdatePassword(ctx, id, hash)
		})
	if err != nil {
		uc.recorder.RecordFailure(ctx, auditDomain.ActionUserPasswordReset, actor, auditDomain.ResourceUser,
			id.String(), map[string]any{"reason": failureReason(err)})
		return "", err
	}

	uc.recorder.RecordSuccess(ctx, auditDomain.ActionUserPasswordReset, actor, auditDomain.ResourceUser,
		id.String(), map[string]any{"email": user.Email, "token_version": version})
	return temporary, nil
}

func (uc *UserUseCase) newUser(email, firstName, lastName, hash string, active bool) *domain.User {
	now := uc.now().UTC()
	return &domain.User{
		ID:        uuid.Must(uuid.NewV7()),
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
		Password:  hash,
		IsActive:  active,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (uc *UserUseCase) defaultRole(ctx context.Context) (*uuid.UUID, string) {
	role, err := uc.roleLookup.GetByName(ctx, DefaultRegistrationRole)
	if err != nil {
		if !apperrors.Is(err, authDomain.ErrRoleNotFound) {
			uc.logger.WarnContext(ctx, "failed to resolve registration role",
				slog.String("role", DefaultRegistrationRole),
				slog.Any("error", err),
			)
		}
		return nil, ""
	}
	id := role.ID
	return &id, role.Name
}

func (uc *UserUseCase) create(ctx context.Context, user *domain.User, actor *uuid.UUID) error {
	return uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := uc.userRepo.Create(ctx, user); err != nil {
			return err
		}
		return uc.emit(ctx, outboxDomain.EventUserCreated, user, actor)
	})
}

func (uc *UserUseCase) update(ctx context.Context, user *domain.User, actor *uuid.UUID) error {
	user.UpdatedAt = uc.now().UTC()
	return uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := uc.userRepo.Update(ctx, user); err != nil {
			return err
		}
		return uc.emit(ctx, outboxDomain.EventUserUpdated, user, actor)
	})
}

// bump runs mutate, which must increment the token version, and writes the
// event carrying the new version in the same transaction.
func (uc *UserUseCase) bump(
	ctx context.Context,
	user *domain.User,
	actor *uuid.UUID,
	eventType string,
	mutate func(ctx context.Context) (int64, error),
) (int64, error) {
	var version int64
	err := uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		v, err := mutate(ctx)
		if err != nil {
			return err
		}
		version = v

		snapshot := *user
		snapshot.TokenVersion = v
		return uc.emit(ctx, eventType, &snapshot, actor)
	})
	if err != nil {
		return 0, err
	}
	return version, nil
}

func (uc *UserUseCase) emit(ctx context.Context, eventType string, user *domain.User, actor *uuid.UUID) error {
	meta, _ := auditDomain.GetRequestMeta(ctx)
	event, err := outboxDomain.NewOutboxEvent(eventType, outboxDomain.SecurityEvent{
		UserID:        user.ID,
		Email:         user.Email,
		ActorID:       actor,
		TokenVersion:  user.TokenVersion,
		CorrelationID: meta.CorrelationID,
		OccurredAt:    uc.now().UTC(),
	})
	if err != nil {
		return apperrors.Wrap(err, "failed to build outbox event")
	}
	return uc.outboxRepo.Create(ctx, event)
}

func applyNames(user *domain.User, firstName, lastName *string) []string {
	var changed []string
	if firstName != nil && *firstName != user.FirstName {
		user.FirstName = *firstName
		changed = append(changed, "first_name")
	}
	if lastName != nil && *lastName != user.LastName {
		user.LastName = *lastName
		changed = append(changed, "last_name")
	}
	return changed
}

func actorRef(actorID uuid.UUID) *uuid.UUID {
	if actorID == uuid.Nil {
		return nil
	}
	return &actorID
}

func cloneID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func failureReason(err error) string {
	switch {
	case apperrors.Is(err, apperrors.ErrConflict):
		return "conflict"
	case apperrors.Is(err, apperrors.ErrNotFound):
		return "not_found"
	case apperrors.Is(err, apperrors.ErrInvalidInput):
		return "invalid_input"
	default:
		return "internal_error"
	}
}
