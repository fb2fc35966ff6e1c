package app

import (
	"fmt"

	authHTTP "github.com/allisson/gatekeeper/internal/auth/http"
	authRepository "github.com/allisson/gatekeeper/internal/auth/repository"
	authService "github.com/allisson/gatekeeper/internal/auth/service"
	authUseCase "github.com/allisson/gatekeeper/internal/auth/usecase"
	"github.com/allisson/gatekeeper/internal/config"
)

// JWTService returns the token signer. The signing key is resolved (and KMS-decrypted) once.
func (c *Container) JWTService() (authService.JWTService, error) {
	err := c.initOnce(&c.jwtServiceInit, "jwtService", func() error {
		key, err := c.resolveSigningKey("AUTH_JWT_SIGNING_KEY", c.config.JWTSigningKey)
		if err != nil {
			return err
		}
		jwtService, err := authService.NewJWTService(key, c.config.JWTIssuer)
		if err != nil {
			return fmt.Errorf("failed to create jwt service: %w", err)
		}
		c.jwtService = jwtService
		return nil
	})
	return c.jwtService, err
}

// PasswordService returns the argon2id password service with its bounded worker pool.
func (c *Container) PasswordService() (authService.PasswordService, error) {
	err := c.initOnce(&c.passwordServiceInit, "passwordService", func() error {
		passwordService, err := authService.NewPasswordService(c.config.PasswordHashWorkers)
		if err != nil {
			return fmt.Errorf("failed to create password service: %w", err)
		}
		c.passwordService = passwordService
		return nil
	})
	return c.passwordService, err
}

// RoleRepository returns the role and permission catalog repository based on database driver.
func (c *Container) RoleRepository() (authUseCase.RoleRepository, error) {
	err := c.initOnce(&c.roleRepositoryInit, "roleRepository", func() error {
		db, err := c.DB()
		if err != nil {
			return fmt.Errorf("failed to get database for role repository: %w", err)
		}
		switch c.config.DBDriver {
		case "mysql":
			c.roleRepository = authRepository.NewMySQLRoleRepository(db)
		case "postgres":
			c.roleRepository = authRepository.NewPostgreSQLRoleRepository(db)
		default:
			return fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
		return nil
	})
	return c.roleRepository, err
}

// RevocationRepository returns the refresh revocation store selected by REVOCATION_STORE.
func (c *Container) RevocationRepository() (authUseCase.RevocationRepository, error) {
	err := c.initOnce(&c.revocationRepoInit, "revocationRepository", func() error {
		if c.config.RevocationStore == config.RevocationStoreRedis {
			client, err := c.RedisClient()
			if err != nil {
				return err
			}
			if client == nil {
				return fmt.Errorf("REDIS_URL is required when REVOCATION_STORE is redis")
			}
			c.revocationRepository = authRepository.NewRedisRevocationStore(client)
			return nil
		}

		db, err := c.DB()
		if err != nil {
			return fmt.Errorf("failed to get database for revocation repository: %w", err)
		}
		switch c.config.DBDriver {
		case "mysql":
			c.revocationRepository = authRepository.NewMySQLRevocationRepository(db)
		case "postgres":
			c.revocationRepository = authRepository.NewPostgreSQLRevocationRepository(db)
		default:
			return fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
		return nil
	})
	return c.revocationRepository, err
}

// TokenUseCase returns the credential issuer and validator, wrapped with metrics.
func (c *Container) TokenUseCase() (authUseCase.TokenUseCase, error) {
	err := c.initOnce(&c.tokenUseCaseInit, "tokenUseCase", func() error {
		userRepo, err := c.UserRepository()
		if err != nil {
			return fmt.Errorf("failed to get user repository for token use case: %w", err)
		}
		revocationRepo, err := c.RevocationRepository()
		if err != nil {
			return fmt.Errorf("failed to get revocation repository for token use case: %w", err)
		}
		jwtService, err := c.JWTService()
		if err != nil {
			return fmt.Errorf("failed to get jwt service for token use case: %w", err)
		}
		passwordService, err := c.PasswordService()
		if err != nil {
			return err
		}
		recorder, err := c.AuditRecorder()
		if err != nil {
			return err
		}
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return err
		}

		useCase := authUseCase.NewTokenUseCase(
			c.config,
			userRepo,
			revocationRepo,
			jwtService,
			passwordService,
			recorder,
			c.Logger(),
		)
		c.tokenUseCase = authUseCase.NewTokenUseCaseWithMetrics(useCase, businessMetrics)
		return nil
	})
	return c.tokenUseCase, err
}

// PermissionUseCase returns the permission resolver.
func (c *Container) PermissionUseCase() (authUseCase.PermissionUseCase, error) {
	err := c.initOnce(&c.permissionUseCaseInit, "permissionUseCase", func() error {
		roleRepo, err := c.RoleRepository()
		if err != nil {
			return fmt.Errorf("failed to get role repository for permission use case: %w", err)
		}
		c.permissionUseCase = authUseCase.NewPermissionUseCase(roleRepo, c.Logger())
		return nil
	})
	return c.permissionUseCase, err
}

// SeedUseCase returns the authorization catalog seeder.
func (c *Container) SeedUseCase() (authUseCase.SeedUseCase, error) {
	err := c.initOnce(&c.seedUseCaseInit, "seedUseCase", func() error {
		txManager, err := c.TxManager()
		if err != nil {
			return err
		}
		roleRepo, err := c.RoleRepository()
		if err != nil {
			return err
		}
		recorder, err := c.AuditRecorder()
		if err != nil {
			return err
		}
		c.seedUseCase = authUseCase.NewSeedUseCase(txManager, roleRepo, recorder)
		return nil
	})
	return c.seedUseCase, err
}

// AuthHandler builds the /v1/auth handler.
func (c *Container) AuthHandler() (*authHTTP.AuthHandler, error) {
	tokenUseCase, err := c.TokenUseCase()
	if err != nil {
		return nil, err
	}
	permissionUseCase, err := c.PermissionUseCase()
	if err != nil {
		return nil, err
	}
	userUseCase, err := c.UserUseCase()
	if err != nil {
		return nil, err
	}
	return authHTTP.NewAuthHandler(tokenUseCase, permissionUseCase, userUseCase, c.Logger()), nil
}

// PermissionMiddleware builds the route guard that audits denials.
func (c *Container) PermissionMiddleware() (*authHTTP.PermissionMiddleware, error) {
	permissionUseCase, err := c.PermissionUseCase()
	if err != nil {
		return nil, err
	}
	recorder, err := c.AuditRecorder()
	if err != nil {
		return nil, err
	}
	return authHTTP.NewPermissionMiddleware(permissionUseCase, recorder, c.Logger()), nil
}
