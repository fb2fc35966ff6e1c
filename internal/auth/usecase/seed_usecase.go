package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/gatekeeper/internal/audit/domain"
	auditUsecase "github.com/allisson/gatekeeper/internal/audit/usecase"
	authDomain "github.com/allisson/gatekeeper/internal/auth/domain"
	"github.com/allisson/gatekeeper/internal/database"
	apperrors "github.com/allisson/gatekeeper/internal/errors"
)

type seedUseCase struct {
	txManager database.TxManager
	roleRepo  RoleRepository
	recorder  auditUsecase.Recorder
}

// NewSeedUseCase creates a new SeedUseCase.
func NewSeedUseCase(txManager database.TxManager, roleRepo RoleRepository, recorder auditUsecase.Recorder) SeedUseCase {
	return &seedUseCase{
		txManager: txManager,
		roleRepo:  roleRepo,
		recorder:  recorder,
	}
}

func (s *seedUseCase) SeedAuthorization(ctx context.Context, clearCatalog bool) (*authDomain.SeedResult, error) {
	roles := authDomain.DefaultRoles()

	err := s.txManager.WithTx(ctx, func(ctx context.Context) error {
		if clearCatalog {
			if err := s.roleRepo.Clear(ctx); err != nil {
				return err
			}
		}

		permissionIDs := make(map[string]uuid.UUID, len(authDomain.DefaultPermissions))
		for _, seed := range authDomain.DefaultPermissions {
			id, err := s.roleRepo.UpsertPermission(ctx, seed)
			if err != nil {
				return err
			}
			permissionIDs[seed.Code] = id
		}

		for _, role := range roles {
			roleID, err := s.roleRepo.UpsertRole(ctx, role.Name)
			if err != nil {
				return err
			}

			ids := make([]uuid.UUID, 0, len(role.Permissions))
			for _, code := range role.Permissions {
				id, ok := permissionIDs[code]
				if !ok {
					return fmt.Errorf("role %q references unknown permission %q", role.Name, code)
				}
				ids = append(ids, id)
			}

			if err := s.roleRepo.ReplacePermissions(ctx, roleID, ids); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to seed authorization catalog")
	}

	result := &authDomain.SeedResult{
		Permissions: len(authDomain.DefaultPermissions),
		Roles:       len(roles),
		Cleared:     clearCatalog,
	}

	s.recorder.RecordSuccess(ctx, auditDomain.ActionAuthorizationSeeded, nil, auditDomain.ResourceRole, "",
		map[string]any{
			"permissions": result.Permissions,
			"roles":       result.Roles,
			"cleared":     clearCatalog,
		})

	return result, nil
}
