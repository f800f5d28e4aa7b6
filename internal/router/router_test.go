package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"swiftaza/internal/config"
	"swiftaza/internal/model"
	"swiftaza/internal/repository"
	"swiftaza/internal/service"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "router-test-secret"

// newTestApp wires the router without a relational store; only requests
// rejected before reaching a repository are safe to send.
func newTestApp(t *testing.T) (*gin.Engine, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := &config.Config{Env: "test", CORSOrigins: "*", JWTSecret: testSecret, JWTExpirationHours: 1}
	app := New(cfg, nil, rdb, nil, nil)
	return app.Engine, rdb
}

func send(r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// buyerToken issues a token for a buyer whose cached profile holds buy101..108.
func buyerToken(t *testing.T, rdb *redis.Client) (string, uuid.UUID) {
	t.Helper()
	u := &model.User{ID: uuid.New(), FullName: "Bea Buyer", Email: "bea@x.io", Kind: model.KindBuyer}
	require.NoError(t, repository.NewProfileRepository(rdb).Put(context.Background(), &model.ProfileRecord{
		ID:          u.ID.String(),
		FullName:    u.FullName,
		Email:       u.Email,
		Type:        u.Kind,
		Permissions: service.RoleCatalogue[service.RoleBuyer],
		Roles:       []string{service.RoleBuyer},
	}))
	token, err := service.NewTokenIssuer(testSecret, time.Hour).Issue(u)
	require.NoError(t, err)
	return token, u.ID
}

func TestManagerRegistration_RequiresManager(t *testing.T) {
	r, rdb := newTestApp(t)
	body := map[string]string{"fullName": "Mallory", "email": "m@evil.io", "password": "s3cret-pass"}

	assert.Equal(t, http.StatusUnauthorized, send(r, http.MethodPost, "/api/v1/manager", "", body).Code)

	token, _ := buyerToken(t, rdb)
	assert.Equal(t, http.StatusForbidden, send(r, http.MethodPost, "/api/v1/manager", token, body).Code)
}

func TestAccountMutations_RequireToken(t *testing.T) {
	r, _ := newTestApp(t)
	id := uuid.NewString()

	cases := []struct {
		method, path string
		body         interface{}
	}{
		{http.MethodPut, "/api/v1/buyer/update", map[string]string{"id": id, "email": "new@x.io"}},
		{http.MethodPut, "/api/v1/seller/update", map[string]string{"id": id}},
		{http.MethodDelete, "/api/v1/buyer/Some%20One", nil},
		{http.MethodPost, "/api/v1/wallet", map[string]string{"userId": id, "pin": "1234"}},
		{http.MethodGet, "/api/v1/user/get_user/4111111111111111", nil},
		{http.MethodGet, "/api/v1/user/get_all_users", nil},
		{http.MethodDelete, "/api/v1/user/4111111111111111", nil},
	}
	for _, tc := range cases {
		w := send(r, tc.method, tc.path, "", tc.body)
		assert.Equal(t, http.StatusUnauthorized, w.Code, tc.method+" "+tc.path)
	}
}

func TestCardHolderRoutes_RequirePermission(t *testing.T) {
	r, rdb := newTestApp(t)
	token, _ := buyerToken(t, rdb)

	assert.Equal(t, http.StatusForbidden, send(r, http.MethodGet, "/api/v1/user/get_user/4111111111111111", token, nil).Code)
	assert.Equal(t, http.StatusForbidden, send(r, http.MethodDelete, "/api/v1/user/4111111111111111", token, nil).Code)
	assert.Equal(t, http.StatusForbidden, send(r, http.MethodGet, "/api/v1/manager/users/all", token, nil).Code)
}
