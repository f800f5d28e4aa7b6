//go:build integration

package router_test

// Integration tests against real Postgres + Redis via testcontainers.
// Run with: go test -tags integration ./internal/router/... -v

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"swiftaza/internal/config"
	"swiftaza/internal/infra"
	"swiftaza/internal/repository"
	"swiftaza/internal/router"
	"swiftaza/internal/service"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"gorm.io/gorm"
)

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func do(t *testing.T, srv *httptest.Server, method, path string, body *bytes.Buffer, token string) *http.Response {
	t.Helper()
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequest(method, srv.URL+path, body)
	} else {
		req, err = http.NewRequest(method, srv.URL+path, nil)
	}
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

type testEnv struct {
	server *httptest.Server
	db     *gorm.DB
	rdb    *redis.Client
}

// seedManager creates a manager the way cmd/seedmanager does.
func (e *testEnv) seedManager(t *testing.T, email, password string) {
	t.Helper()
	users := repository.NewUserRepository(e.db)
	roles := repository.NewRoleRepository(e.db)
	coord := service.NewCoordinator(users, roles, repository.NewWalletRepository(e.db),
		repository.NewProfileRepository(e.rdb), repository.NewArchiveRepository(e.rdb), service.NewAuthorizer(roles))
	_, err := service.BootstrapManager(context.Background(), users, service.NewProvisioner(roles), coord,
		service.ManagerSeed{Email: email, FullName: "Root Manager", Password: password})
	require.NoError(t, err)
}

func login(t *testing.T, srv *httptest.Server, email, password string) string {
	t.Helper()
	resp := do(t, srv, http.MethodPost, "/api/v1/auth/login", jsonBody(t, map[string]string{
		"email": email, "password": password,
	}), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out struct {
		Token string `json:"token"`
	}
	decodeJSON(t, resp, &out)
	require.NotEmpty(t, out.Token)
	return out.Token
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("swaz_test"),
		tcPostgres.WithUsername("swaz"),
		tcPostgres.WithPassword("swaz"),
		tcPostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.RunContainer(ctx, testcontainers.WithImage("redis:7-alpine"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Port:                       5000,
		Env:                        "test",
		WorkerPoolSize:             1,
		CORSOrigins:                "*",
		DatabaseDriver:             "postgres",
		DatabaseURL:                pgURL,
		RedisURL:                   rdURL,
		JWTSecret:                  "test-secret-key",
		JWTExpirationHours:         1,
		VerificationCodeTTLSeconds: 60,
		VerificationStore:          "redis",
	}

	db, err := infra.NewDatabase(cfg.DatabaseDriver, cfg.DatabaseURL)
	require.NoError(t, err)
	require.NoError(t, infra.RunMigrations(db))

	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)

	app := router.New(cfg, db, rdb, infra.NopPublisher{}, infra.NewCircuitBreaker(infra.SMTPBreakerConfig()))
	srv := httptest.NewServer(app.Engine)
	t.Cleanup(srv.Close)

	return &testEnv{server: srv, db: db, rdb: rdb}
}

func TestIntegration_RegisterLoginAndManage(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	resp := do(t, env.server, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Buyer registration writes the row, the cached profile and a mail job.
	resp = do(t, env.server, http.MethodPost, "/api/v1/buyer", jsonBody(t, map[string]any{
		"fullName": "Ada Buyer",
		"email":    "ada@example.com",
		"password": "s3cret-pass",
	}), "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var reg struct {
		User struct {
			ID       string `json:"id"`
			UserType string `json:"user_type"`
		} `json:"user"`
		Permissions []string `json:"permissions"`
		CacheSynced bool     `json:"cache_synced"`
	}
	decodeJSON(t, resp, &reg)
	assert.Equal(t, "buyer", reg.User.UserType)
	assert.Contains(t, reg.Permissions, "buy101")
	assert.True(t, reg.CacheSynced)

	n, err := env.rdb.Exists(ctx, "profile:"+reg.User.ID).Result()
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	queued, err := env.rdb.LLen(ctx, "jobs:email").Result()
	require.NoError(t, err)
	assert.EqualValues(t, 1, queued)

	// Same email again is a conflict.
	resp = do(t, env.server, http.MethodPost, "/api/v1/buyer", jsonBody(t, map[string]any{
		"fullName": "Ada Other",
		"email":    "ada@example.com",
		"password": "s3cret-pass",
	}), "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	adaToken := login(t, env.server, "ada@example.com", "s3cret-pass")

	resp = do(t, env.server, http.MethodGet, "/api/v1/auth/status", nil, adaToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var status struct {
		IsAuthenticated bool   `json:"isAuthenticated"`
		UserType        string `json:"user_type"`
	}
	decodeJSON(t, resp, &status)
	assert.True(t, status.IsAuthenticated)
	assert.Equal(t, "buyer", status.UserType)

	// A buyer cannot reach manager routes.
	resp = do(t, env.server, http.MethodGet, "/api/v1/manager/users/all", nil, adaToken)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// Manager registration is closed to anonymous callers and buyers.
	grace := map[string]any{"fullName": "Grace Manager", "email": "grace@example.com", "password": "s3cret-pass"}
	resp = do(t, env.server, http.MethodPost, "/api/v1/manager", jsonBody(t, grace), "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
	resp = do(t, env.server, http.MethodPost, "/api/v1/manager", jsonBody(t, grace), adaToken)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// A seeded manager may register another one, whose token carries adm101.
	env.seedManager(t, "root@example.com", "root-pass-123")
	rootToken := login(t, env.server, "root@example.com", "root-pass-123")
	resp = do(t, env.server, http.MethodPost, "/api/v1/manager", jsonBody(t, grace), rootToken)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var mgr struct {
		Token string `json:"token"`
	}
	decodeJSON(t, resp, &mgr)
	require.NotEmpty(t, mgr.Token)

	resp = do(t, env.server, http.MethodGet, "/api/v1/manager/users/buyer", nil, mgr.Token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, env.server, http.MethodGet, "/api/v1/manager/user/ada@example.com", nil, mgr.Token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, env.server, http.MethodDelete, "/api/v1/manager/user/"+reg.User.ID, nil, mgr.Token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	n, err = env.rdb.Exists(ctx, "profile:"+reg.User.ID, "deleted_user:"+reg.User.ID).Result()
	require.NoError(t, err)
	assert.EqualValues(t, 1, n, "profile evicted, archive written")

	resp = do(t, env.server, http.MethodGet, "/api/v1/manager/deleted_users", nil, mgr.Token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var deleted struct {
		Total int `json:"total"`
	}
	decodeJSON(t, resp, &deleted)
	assert.Equal(t, 1, deleted.Total)
}

func TestIntegration_WalletCreditDebit(t *testing.T) {
	env := setupTestEnv(t)

	resp := do(t, env.server, http.MethodPost, "/api/v1/seller", jsonBody(t, map[string]any{
		"fullName": "Sam Seller",
		"email":    "sam@example.com",
		"password": "s3cret-pass",
	}), "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var reg struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
		Token string `json:"token"`
	}
	decodeJSON(t, resp, &reg)

	resp = do(t, env.server, http.MethodPost, "/api/v1/wallet", jsonBody(t, map[string]string{
		"userId": reg.User.ID, "pin": "4321",
	}), "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, env.server, http.MethodPost, "/api/v1/wallet", jsonBody(t, map[string]string{
		"userId": reg.User.ID, "pin": "4321",
	}), reg.Token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, env.server, http.MethodPost, "/api/v1/wallet/credit", jsonBody(t, map[string]string{"amount": "25.00"}), reg.Token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, env.server, http.MethodPost, "/api/v1/wallet/debit", jsonBody(t, map[string]string{"amount": "30.00", "pin": "4321"}), reg.Token)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, env.server, http.MethodPost, "/api/v1/wallet/debit", jsonBody(t, map[string]string{"amount": "5.00", "pin": "0000"}), reg.Token)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, env.server, http.MethodPost, "/api/v1/wallet/debit", jsonBody(t, map[string]string{"amount": "5.00", "pin": "4321"}), reg.Token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var bal struct {
		Balance decimal.Decimal `json:"balance"`
	}
	decodeJSON(t, resp, &bal)
	assert.True(t, bal.Balance.Equal(decimal.NewFromInt(20)), "balance %s", bal.Balance)
}
