// Package integration provides end-to-end tests for the Gatekeeper API.
// Tests run every flow against both PostgreSQL and MySQL and are skipped when
// the test databases are not reachable.
package integration

import (
	"bytes"
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/gatekeeper/internal/app"
	authDomain "github.com/allisson/gatekeeper/internal/auth/domain"
	authDTO "github.com/allisson/gatekeeper/internal/auth/http/dto"
	"github.com/allisson/gatekeeper/internal/config"
	"github.com/allisson/gatekeeper/internal/testutil"
	userDTO "github.com/allisson/gatekeeper/internal/user/http/dto"
	userUseCase "github.com/allisson/gatekeeper/internal/user/usecase"
)

const (
	adminEmail    = "root@example.com"
	adminPassword = "R00t-Integration!"
)

var drivers = []struct {
	name     string
	dbDriver string
}{
	{"PostgreSQL", "postgres"},
	{"MySQL", "mysql"},
}

// integrationTestContext holds all dependencies and state for integration testing.
type integrationTestContext struct {
	container *app.Container
	db        *sql.DB
	server    *httptest.Server
	dbDriver  string
}

func randomKey(t *testing.T) string {
	t.Helper()
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(key)
}

// setupIntegrationTest migrates a clean database, seeds the authorization catalog,
// creates an administrator and serves the full router.
func setupIntegrationTest(t *testing.T, dbDriver string) *integrationTestContext {
	t.Helper()

	gin.SetMode(gin.TestMode)

	var db *sql.DB
	var dsn string
	if dbDriver == "postgres" {
		db = testutil.SetupPostgresDB(t)
		dsn = testutil.GetPostgresTestDSN()
	} else {
		db = testutil.SetupMySQLDB(t)
		dsn = testutil.GetMySQLTestDSN()
	}

	t.Setenv("DB_DRIVER", dbDriver)
	t.Setenv("DB_CONNECTION_STRING", dsn)
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("AUTH_JWT_SIGNING_KEY", randomKey(t))
	t.Setenv("AUDIT_SIGNING_KEY", randomKey(t))
	t.Setenv("PASSWORD_HASH_WORKERS", "2")
	t.Setenv("REVOCATION_STORE", config.RevocationStoreDatabase)
	t.Setenv("REDIS_URL", "")
	t.Setenv("KMS_KEY_URI", "")
	t.Setenv("RATE_LIMIT_ENABLED", "false")
	t.Setenv("RATE_LIMIT_AUTH_ENABLED", "false")
	t.Setenv("METRICS_ENABLED", "false")

	cfg := config.Load()
	require.NoError(t, cfg.Validate())

	container := app.NewContainer(cfg)
	ctx := context.Background()

	seedUseCase, err := container.SeedUseCase()
	require.NoError(t, err)
	_, err = seedUseCase.SeedAuthorization(ctx, false)
	require.NoError(t, err, "failed to seed authorization")

	roles, err := container.RoleRepository()
	require.NoError(t, err)
	adminRole, err := roles.GetByName(ctx, authDomain.RoleAdministrator)
	require.NoError(t, err)

	users, err := container.UserUseCase()
	require.NoError(t, err)
	_, err = users.CreateUser(ctx, uuid.Nil, userUseCase.CreateUserInput{
		Email:     adminEmail,
		FirstName: "Root",
		LastName:  "Admin",
		Password:  adminPassword,
		RoleID:    &adminRole.ID,
		IsActive:  true,
	})
	require.NoError(t, err, "failed to create admin")

	httpSrv, err := container.HTTPServer(ctx)
	require.NoError(t, err, "failed to get HTTP server")

	handler := httpSrv.GetHandler()
	require.NotNil(t, handler, "handler should not be nil after SetupRouter")

	return &integrationTestContext{
		container: container,
		db:        db,
		server:    httptest.NewServer(handler),
		dbDriver:  dbDriver,
	}
}

// teardownIntegrationTest cleans up all resources.
func teardownIntegrationTest(t *testing.T, ctx *integrationTestContext) {
	t.Helper()

	if ctx.server != nil {
		ctx.server.Close()
	}
	if ctx.container != nil {
		if err := ctx.container.Shutdown(context.Background()); err != nil {
			t.Logf("Warning: container shutdown error: %v", err)
		}
	}
	if ctx.db != nil {
		testutil.TeardownDB(t, ctx.db)
	}
}

// makeRequest performs an HTTP request and returns the response and body. An empty
// token sends no Authorization header.
func (ctx *integrationTestContext) makeRequest(
	t *testing.T,
	method, path string,
	body any,
	token string,
) (*http.Response, []byte) {
	t.Helper()

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		require.NoError(t, err, "failed to marshal request body")
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequest(method, ctx.server.URL+path, bodyReader)
	require.NoError(t, err, "failed to create request")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	//nolint:gosec // controlled test environment with localhost URLs
	resp, err := client.Do(req)
	require.NoError(t, err, "failed to perform request")

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "failed to read response body")
	if closeErr := resp.Body.Close(); closeErr != nil {
		t.Logf("Warning: failed to close response body: %v", closeErr)
	}

	return resp, respBody
}

func (ctx *integrationTestContext) login(t *testing.T, email, password string) authDTO.AuthResponse {
	t.Helper()

	resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var out authDTO.AuthResponse
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func TestIntegration_Health_BasicChecks(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	for _, tc := range drivers {
		t.Run(tc.name, func(t *testing.T) {
			ctx := setupIntegrationTest(t, tc.dbDriver)
			defer teardownIntegrationTest(t, ctx)

			resp, body := ctx.makeRequest(t, http.MethodGet, "/health", nil, "")
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.JSONEq(t, `{"status":"healthy"}`, string(body))

			resp, body = ctx.makeRequest(t, http.MethodGet, "/ready", nil, "")
			assert.Equal(t, http.StatusOK, resp.StatusCode)

			var ready map[string]any
			require.NoError(t, json.Unmarshal(body, &ready))
			assert.Equal(t, "ready", ready["status"])
			assert.Equal(t, map[string]any{"database": "ok"}, ready["components"])
		})
	}
}

func TestIntegration_Auth_SelfServiceFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	for _, tc := range drivers {
		t.Run(tc.name, func(t *testing.T) {
			ctx := setupIntegrationTest(t, tc.dbDriver)
			defer teardownIntegrationTest(t, ctx)

			var registered authDTO.AuthResponse

			t.Run("01_Register", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/auth/register", map[string]string{
					"email":            "Jane.Doe@Example.com",
					"first_name":       "Jane",
					"last_name":        "Doe",
					"password":         "Str0ng-Passw0rd",
					"password_confirm": "Str0ng-Passw0rd",
				}, "")
				require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
				require.NoError(t, json.Unmarshal(body, &registered))

				assert.Equal(t, "jane.doe@example.com", registered.User.Email)
				require.NotNil(t, registered.User.RoleName)
				assert.Equal(t, authDomain.RoleReadOnly, *registered.User.RoleName)
				assert.NotEmpty(t, registered.Tokens.Access)
				assert.NotEmpty(t, registered.Tokens.Refresh)
			})

			t.Run("02_DuplicateRegisterConflicts", func(t *testing.T) {
				resp, _ := ctx.makeRequest(t, http.MethodPost, "/v1/auth/register", map[string]string{
					"email":            "jane.doe@example.com",
					"first_name":       "Jane",
					"last_name":        "Again",
					"password":         "Str0ng-Passw0rd",
					"password_confirm": "Str0ng-Passw0rd",
				}, "")
				assert.Equal(t, http.StatusConflict, resp.StatusCode)
			})

			t.Run("03_ProfileAndPermissions", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodGet, "/v1/auth/profile", nil, registered.Tokens.Access)
				require.Equal(t, http.StatusOK, resp.StatusCode)

				var profile userDTO.UserResponse
				require.NoError(t, json.Unmarshal(body, &profile))
				assert.Equal(t, registered.User.ID, profile.ID)

				resp, body = ctx.makeRequest(t, http.MethodGet, "/v1/auth/permissions", nil, registered.Tokens.Access)
				require.Equal(t, http.StatusOK, resp.StatusCode)

				var perms authDTO.PermissionsResponse
				require.NoError(t, json.Unmarshal(body, &perms))
				assert.ElementsMatch(t, []string{
					authDomain.PermDashboardView,
					authDomain.PermReconciliationView,
					authDomain.PermReportsView,
				}, perms.Permissions)
			})

			t.Run("04_ReadOnlyCannotListUsers", func(t *testing.T) {
				resp, _ := ctx.makeRequest(t, http.MethodGet, "/v1/users", nil, registered.Tokens.Access)
				assert.Equal(t, http.StatusForbidden, resp.StatusCode)
			})

			t.Run("05_RefreshIssuesNewAccessToken", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/auth/refresh", map[string]string{
					"refresh": registered.Tokens.Refresh,
				}, "")
				require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

				var refreshed authDTO.RefreshResponse
				require.NoError(t, json.Unmarshal(body, &refreshed))

				resp, _ = ctx.makeRequest(t, http.MethodGet, "/v1/auth/profile", nil, refreshed.Access)
				assert.Equal(t, http.StatusOK, resp.StatusCode)
			})

			t.Run("06_LogoutRevokesRefreshToken", func(t *testing.T) {
				resp, _ := ctx.makeRequest(t, http.MethodPost, "/v1/auth/logout", map[string]string{
					"refresh": registered.Tokens.Refresh,
				}, registered.Tokens.Access)
				require.Equal(t, http.StatusNoContent, resp.StatusCode)

				resp, _ = ctx.makeRequest(t, http.MethodPost, "/v1/auth/refresh", map[string]string{
					"refresh": registered.Tokens.Refresh,
				}, "")
				assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			})

			t.Run("07_ChangePasswordInvalidatesTokens", func(t *testing.T) {
				session := ctx.login(t, "jane.doe@example.com", "Str0ng-Passw0rd")

				resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/auth/change-password", map[string]string{
					"old_password":         "Str0ng-Passw0rd",
					"new_password":         "N3w-Str0ng-Passw0rd",
					"new_password_confirm": "N3w-Str0ng-Passw0rd",
				}, session.Tokens.Access)
				require.Equal(t, http.StatusNoContent, resp.StatusCode, string(body))

				resp, _ = ctx.makeRequest(t, http.MethodGet, "/v1/auth/profile", nil, session.Tokens.Access)
				assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

				resp, _ = ctx.makeRequest(t, http.MethodPost, "/v1/auth/login", map[string]string{
					"email":    "jane.doe@example.com",
					"password": "Str0ng-Passw0rd",
				}, "")
				assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

				ctx.login(t, "jane.doe@example.com", "N3w-Str0ng-Passw0rd")
			})
		})
	}
}

func TestIntegration_Users_AdminFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	for _, tc := range drivers {
		t.Run(tc.name, func(t *testing.T) {
			ctx := setupIntegrationTest(t, tc.dbDriver)
			defer teardownIntegrationTest(t, ctx)

			admin := ctx.login(t, adminEmail, adminPassword)
			roles, err := ctx.container.RoleRepository()
			require.NoError(t, err)
			analyst, err := roles.GetByName(context.Background(), authDomain.RoleAnalyst)
			require.NoError(t, err)

			var created userDTO.UserResponse

			t.Run("01_CreateUser", func(t *testing.T) {
				roleID := analyst.ID.String()
				resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/users", map[string]any{
					"email":      "analyst@example.com",
					"first_name": "Ana",
					"last_name":  "Lyst",
					"password":   "Analyst-Passw0rd",
					"role_id":    roleID,
				}, admin.Tokens.Access)
				require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
				require.NoError(t, json.Unmarshal(body, &created))

				require.NotNil(t, created.RoleName)
				assert.Equal(t, authDomain.RoleAnalyst, *created.RoleName)
				assert.True(t, created.IsActive)
			})

			t.Run("02_ListAndGet", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodGet, "/v1/users?search=analyst", nil, admin.Tokens.Access)
				require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

				var list userDTO.ListUsersResponse
				require.NoError(t, json.Unmarshal(body, &list))
				require.Len(t, list.Data, 1)
				assert.Equal(t, created.ID, list.Data[0].ID)

				resp, _ = ctx.makeRequest(t, http.MethodGet, "/v1/users/"+created.ID.String(), nil, admin.Tokens.Access)
				assert.Equal(t, http.StatusOK, resp.StatusCode)

				resp, _ = ctx.makeRequest(t, http.MethodGet, "/v1/users/"+uuid.NewString(), nil, admin.Tokens.Access)
				assert.Equal(t, http.StatusNotFound, resp.StatusCode)
			})

			t.Run("03_ClearRoleRemovesPermissions", func(t *testing.T) {
				session := ctx.login(t, "analyst@example.com", "Analyst-Passw0rd")

				resp, body := ctx.makeRequest(t, http.MethodPatch, "/v1/users/"+created.ID.String(),
					map[string]any{"role_id": nil}, admin.Tokens.Access)
				require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

				var updated userDTO.UserResponse
				require.NoError(t, json.Unmarshal(body, &updated))
				assert.Nil(t, updated.RoleID)

				resp, body = ctx.makeRequest(t, http.MethodGet, "/v1/auth/permissions", nil, session.Tokens.Access)
				require.Equal(t, http.StatusOK, resp.StatusCode)

				var perms authDTO.PermissionsResponse
				require.NoError(t, json.Unmarshal(body, &perms))
				assert.Nil(t, perms.Role)
				assert.Empty(t, perms.Permissions)
			})

			t.Run("04_ResetPassword", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodPost,
					"/v1/users/"+created.ID.String()+"/reset-password", nil, admin.Tokens.Access)
				require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
				assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))

				var reset userDTO.ResetPasswordResponse
				require.NoError(t, json.Unmarshal(body, &reset))
				require.NotEmpty(t, reset.TemporaryPassword)

				ctx.login(t, "analyst@example.com", reset.TemporaryPassword)
			})

			t.Run("05_DeactivateBlocksLogin", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodPost,
					"/v1/users/"+created.ID.String()+"/deactivate", nil, admin.Tokens.Access)
				require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

				var deactivated userDTO.UserResponse
				require.NoError(t, json.Unmarshal(body, &deactivated))
				assert.False(t, deactivated.IsActive)

				resp, _ = ctx.makeRequest(t, http.MethodPost, "/v1/auth/login", map[string]string{
					"email":    "analyst@example.com",
					"password": "Analyst-Passw0rd",
				}, "")
				assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			})

			t.Run("06_AuditTrailRecordsLifecycle", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodGet,
					"/v1/audit/logs?resource_type=user&limit=100", nil, admin.Tokens.Access)
				require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

				var logs struct {
					Data []struct {
						Action     string `json:"action"`
						ResourceID string `json:"resource_id"`
						Signed     bool   `json:"signed"`
					} `json:"data"`
				}
				require.NoError(t, json.Unmarshal(body, &logs))

				actions := make(map[string]bool)
				for _, entry := range logs.Data {
					if entry.ResourceID == created.ID.String() {
						actions[entry.Action] = true
						assert.True(t, entry.Signed)
					}
				}
				assert.True(t, actions["user.created"], "missing user.created in %v", actions)
				assert.True(t, actions["user.deactivated"], "missing user.deactivated in %v", actions)
			})
		})
	}
}
