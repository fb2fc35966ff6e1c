package app

import (
	"fmt"

	outboxRepository "github.com/allisson/gatekeeper/internal/outbox/repository"
	outboxUseCase "github.com/allisson/gatekeeper/internal/outbox/usecase"
)

// OutboxRepository returns the outbox event repository based on database driver.
func (c *Container) OutboxRepository() (outboxUseCase.OutboxEventRepository, error) {
	err := c.initOnce(&c.outboxRepositoryInit, "outboxRepository", func() error {
		db, err := c.DB()
		if err != nil {
			return fmt.Errorf("failed to get database for outbox repository: %w", err)
		}
		switch c.config.DBDriver {
		case "mysql":
			c.outboxRepository = outboxRepository.NewMySQLOutboxEventRepository(db)
		case "postgres":
			c.outboxRepository = outboxRepository.NewPostgreSQLOutboxEventRepository(db)
		default:
			return fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
		return nil
	})
	return c.outboxRepository, err
}

// OutboxUseCase returns the security event worker. Events are published to Redis
// when REDIS_URL is set and logged otherwise.
func (c *Container) OutboxUseCase() (outboxUseCase.UseCase, error) {
	err := c.initOnce(&c.outboxUseCaseInit, "outboxUseCase", func() error {
		txManager, err := c.TxManager()
		if err != nil {
			return fmt.Errorf("failed to get tx manager for outbox use case: %w", err)
		}
		outboxRepo, err := c.OutboxRepository()
		if err != nil {
			return fmt.Errorf("failed to get outbox repository for outbox use case: %w", err)
		}
		redisClient, err := c.RedisClient()
		if err != nil {
			return err
		}
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return err
		}

		var processor outboxUseCase.EventProcessor = outboxUseCase.NewLoggingEventProcessor(c.Logger())
		if redisClient != nil {
			processor = outboxUseCase.NewRedisEventProcessor(redisClient, c.config.OutboxChannel)
		}

		c.outboxUseCase = outboxUseCase.NewOutboxUseCase(
			outboxUseCase.Config{
				Interval:   c.config.OutboxInterval,
				BatchSize:  c.config.OutboxBatchSize,
				MaxRetries: c.config.OutboxMaxRetries,
				Retention:  c.config.OutboxRetention,
			},
			txManager,
			outboxRepo,
			processor,
			businessMetrics,
			c.Logger(),
		)
		return nil
	})
	return c.outboxUseCase, err
}
