package app

import (
	"fmt"

	userHTTP "github.com/allisson/gatekeeper/internal/user/http"
	userRepository "github.com/allisson/gatekeeper/internal/user/repository"
	userUseCase "github.com/allisson/gatekeeper/internal/user/usecase"
)

// UserRepository returns the user repository based on database driver.
func (c *Container) UserRepository() (userUseCase.UserRepository, error) {
	err := c.initOnce(&c.userRepositoryInit, "userRepository", func() error {
		db, err := c.DB()
		if err != nil {
			return fmt.Errorf("failed to get database for user repository: %w", err)
		}
		switch c.config.DBDriver {
		case "mysql":
			c.userRepository = userRepository.NewMySQLUserRepository(db)
		case "postgres":
			c.userRepository = userRepository.NewPostgreSQLUserRepository(db)
		default:
			return fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
		return nil
	})
	return c.userRepository, err
}

// UserUseCase returns the user lifecycle use case, wrapped with metrics.
func (c *Container) UserUseCase() (userUseCase.UseCase, error) {
	err := c.initOnce(&c.userUseCaseInit, "userUseCase", func() error {
		txManager, err := c.TxManager()
		if err != nil {
			return fmt.Errorf("failed to get tx manager for user use case: %w", err)
		}
		userRepo, err := c.UserRepository()
		if err != nil {
			return fmt.Errorf("failed to get user repository for user use case: %w", err)
		}
		roleRepo, err := c.RoleRepository()
		if err != nil {
			return fmt.Errorf("failed to get role repository for user use case: %w", err)
		}
		outboxRepo, err := c.OutboxRepository()
		if err != nil {
			return fmt.Errorf("failed to get outbox repository for user use case: %w", err)
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

		useCase := userUseCase.NewUserUseCase(
			txManager,
			userRepo,
			roleRepo,
			outboxRepo,
			passwordService,
			recorder,
			c.Logger(),
		)
		c.userUseCase = userUseCase.NewUserUseCaseWithMetrics(useCase, businessMetrics)
		return nil
	})
	return c.userUseCase, err
}

// UserHandler builds the /v1/users handler.
func (c *Container) UserHandler() (*userHTTP.UserHandler, error) {
	useCase, err := c.UserUseCase()
	if err != nil {
		return nil, err
	}
	return userHTTP.NewUserHandler(useCase, c.Logger()), nil
}
