package app

import (
	"fmt"

	auditHTTP "github.com/allisson/gatekeeper/internal/audit/http"
	auditRepository "github.com/allisson/gatekeeper/internal/audit/repository"
	auditService "github.com/allisson/gatekeeper/internal/audit/service"
	auditUseCase "github.com/allisson/gatekeeper/internal/audit/usecase"
)

// AuditSigner returns the HMAC signer. Signing is disabled when AUDIT_SIGNING_KEY is empty.
func (c *Container) AuditSigner() (auditService.AuditSigner, error) {
	err := c.initOnce(&c.auditSignerInit, "auditSigner", func() error {
		if c.config.AuditSigningKey == "" {
			c.auditSigner = auditService.NewAuditSigner(nil)
			return nil
		}
		key, err := c.resolveSigningKey("AUDIT_SIGNING_KEY", c.config.AuditSigningKey)
		if err != nil {
			return err
		}
		c.auditSigner = auditService.NewAuditSigner(key)
		return nil
	})
	return c.auditSigner, err
}

// AuditLogRepository returns the audit log repository based on database driver.
func (c *Container) AuditLogRepository() (auditUseCase.AuditLogRepository, error) {
	err := c.initOnce(&c.auditLogRepoInit, "auditLogRepository", func() error {
		db, err := c.DB()
		if err != nil {
			return fmt.Errorf("failed to get database for audit log repository: %w", err)
		}
		switch c.config.DBDriver {
		case "mysql":
			c.auditLogRepository = auditRepository.NewMySQLAuditLogRepository(db)
		case "postgres":
			c.auditLogRepository = auditRepository.NewPostgreSQLAuditLogRepository(db)
		default:
			return fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
		return nil
	})
	return c.auditLogRepository, err
}

// AuditRecorder returns the fail-silent audit recorder shared by every component.
func (c *Container) AuditRecorder() (auditUseCase.Recorder, error) {
	err := c.initOnce(&c.auditRecorderInit, "auditRecorder", func() error {
		repo, err := c.AuditLogRepository()
		if err != nil {
			return err
		}
		signer, err := c.AuditSigner()
		if err != nil {
			return err
		}
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return err
		}
		c.auditRecorder = auditUseCase.NewRecorder(repo, signer, businessMetrics, c.Logger())
		return nil
	})
	return c.auditRecorder, err
}

// AuditLogUseCase returns the audit query and maintenance use case, wrapped with metrics.
func (c *Container) AuditLogUseCase() (auditUseCase.AuditLogUseCase, error) {
	err := c.initOnce(&c.auditLogUseCaseInit, "auditLogUseCase", func() error {
		repo, err := c.AuditLogRepository()
		if err != nil {
			return err
		}
		signer, err := c.AuditSigner()
		if err != nil {
			return err
		}
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return err
		}
		c.auditLogUseCase = auditUseCase.NewAuditLogUseCaseWithMetrics(
			auditUseCase.NewAuditLogUseCase(repo, signer),
			businessMetrics,
		)
		return nil
	})
	return c.auditLogUseCase, err
}

// AuditLogHandler builds the /v1/audit/logs handler.
func (c *Container) AuditLogHandler() (*auditHTTP.AuditLogHandler, error) {
	useCase, err := c.AuditLogUseCase()
	if err != nil {
		return nil, err
	}
	return auditHTTP.NewAuditLogHandler(useCase, c.Logger()), nil
}
