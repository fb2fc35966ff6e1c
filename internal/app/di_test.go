package app

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authRepository "github.com/allisson/gatekeeper/internal/auth/repository"
	authService "github.com/allisson/gatekeeper/internal/auth/service"
	"github.com/allisson/gatekeeper/internal/config"
	"github.com/allisson/gatekeeper/internal/metrics"
)

func randomKey(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return key
}

func TestNewContainer(t *testing.T) {
	cfg := &config.Config{LogLevel: "info", DBDriver: "postgres"}

	container := NewContainer(cfg)

	require.NotNil(t, container)
	assert.Same(t, cfg, container.Config())
}

func TestContainer_LoggerIsSingleton(t *testing.T) {
	container := NewContainer(&config.Config{LogLevel: "debug"})
	assert.Nil(t, container.logger)

	logger := container.Logger()

	require.NotNil(t, logger)
	assert.Same(t, logger, container.Logger())
}

func TestContainer_InitializationErrorIsRemembered(t *testing.T) {
	container := NewContainer(&config.Config{DBDriver: "invalid_driver"})

	_, err := container.DB()
	require.Error(t, err)

	_, err2 := container.DB()
	assert.Equal(t, err, err2)

	_, err = container.UserUseCase()
	assert.Error(t, err)
}

func TestContainer_RedisClient(t *testing.T) {
	t.Run("NotConfigured", func(t *testing.T) {
		client, err := NewContainer(&config.Config{}).RedisClient()
		require.NoError(t, err)
		assert.Nil(t, client)
	})

	t.Run("InvalidURL", func(t *testing.T) {
		_, err := NewContainer(&config.Config{RedisURL: "http://nope"}).RedisClient()
		assert.ErrorContains(t, err, "REDIS_URL")
	})

	t.Run("Configured", func(t *testing.T) {
		container := NewContainer(&config.Config{RedisURL: "redis://localhost:6379/0"})
		client, err := container.RedisClient()
		require.NoError(t, err)
		require.NotNil(t, client)
		assert.NoError(t, container.Shutdown(context.Background()))
	})
}

func TestContainer_RevocationRepositoryRedis(t *testing.T) {
	container := NewContainer(&config.Config{
		RevocationStore: config.RevocationStoreRedis,
		RedisURL:        "redis://localhost:6379/0",
	})
	defer func() { _ = container.Shutdown(context.Background()) }()

	repo, err := container.RevocationRepository()

	require.NoError(t, err)
	assert.IsType(t, &authRepository.RedisRevocationStore{}, repo)
}

func TestContainer_JWTService(t *testing.T) {
	t.Run("PlainKey", func(t *testing.T) {
		container := NewContainer(&config.Config{
			JWTSigningKey: base64.StdEncoding.EncodeToString(randomKey(t)),
			JWTIssuer:     "gatekeeper",
		})

		jwtService, err := container.JWTService()
		require.NoError(t, err)
		assert.NotNil(t, jwtService)
	})

	t.Run("KMSWrappedKey", func(t *testing.T) {
		keyURI := "base64key://" + base64.URLEncoding.EncodeToString(randomKey(t))
		ciphertext, err := authService.NewKMSService().Encrypt(context.Background(), keyURI, randomKey(t))
		require.NoError(t, err)

		container := NewContainer(&config.Config{
			JWTSigningKey: ciphertext,
			JWTIssuer:     "gatekeeper",
			KMSKeyURI:     keyURI,
		})

		jwtService, err := container.JWTService()
		require.NoError(t, err)
		assert.NotNil(t, jwtService)
	})

	t.Run("ShortKey", func(t *testing.T) {
		container := NewContainer(&config.Config{
			JWTSigningKey: base64.StdEncoding.EncodeToString([]byte("too-short")),
		})

		_, err := container.JWTService()
		assert.ErrorContains(t, err, "AUTH_JWT_SIGNING_KEY")
	})
}

func TestContainer_AuditSigner(t *testing.T) {
	t.Run("DisabledWithoutKey", func(t *testing.T) {
		signer, err := NewContainer(&config.Config{}).AuditSigner()
		require.NoError(t, err)
		assert.False(t, signer.Enabled())
	})

	t.Run("EnabledWithKey", func(t *testing.T) {
		signer, err := NewContainer(&config.Config{
			AuditSigningKey: base64.StdEncoding.EncodeToString(randomKey(t)),
		}).AuditSigner()
		require.NoError(t, err)
		assert.True(t, signer.Enabled())
	})
}

func TestContainer_MetricsDisabled(t *testing.T) {
	container := NewContainer(&config.Config{MetricsEnabled: false})

	businessMetrics, err := container.BusinessMetrics()
	require.NoError(t, err)
	assert.IsType(t, &metrics.NoOpBusinessMetrics{}, businessMetrics)

	server, err := container.MetricsServer()
	require.NoError(t, err)
	assert.Nil(t, server)
}

func TestContainer_MetricsEnabled(t *testing.T) {
	container := NewContainer(&config.Config{
		MetricsEnabled:   true,
		MetricsNamespace: "gatekeeper_di_test",
		MetricsPort:      0,
	})

	server, err := container.MetricsServer()
	require.NoError(t, err)
	assert.NotNil(t, server)

	assert.NoError(t, container.Shutdown(context.Background()))
}

func TestContainer_ShutdownWithoutComponents(t *testing.T) {
	assert.NoError(t, NewContainer(&config.Config{}).Shutdown(context.Background()))
}
