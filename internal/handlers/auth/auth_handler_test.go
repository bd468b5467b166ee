package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	domain "neusentra-service/internal/domain/auth"
	"neusentra-service/internal/middleware"
	"neusentra-service/internal/pkg/session"
	"neusentra-service/internal/pkg/token"
	authUsecase "neusentra-service/internal/service/auth"
)

type memStore struct {
	bootstrapped bool
	users        map[string]*domain.User
	nextUser     int64
	nextLogin    int64
}

func newMemStore() *memStore {
	return &memStore{users: make(map[string]*domain.User), nextUser: 1, nextLogin: 100}
}

func (m *memStore) UserCount(ctx context.Context) (int64, error) {
	return int64(len(m.users)), nil
}

func (m *memStore) IsBootstrapped(ctx context.Context) (bool, error) {
	return m.bootstrapped, nil
}

func (m *memStore) CreateSuperAdmin(ctx context.Context, fullname, username, passwordHash string) (int64, error) {
	m.bootstrapped = true
	id := m.nextUser
	m.nextUser++
	m.users[username] = &domain.User{
		ID:           id,
		Fullname:     fullname,
		Username:     username,
		PasswordHash: passwordHash,
		Role:         "superadmin",
		IsActive:     true,
		Permissions:  domain.Permissions{CanManageUsers: true},
	}
	return id, nil
}

func (m *memStore) FetchUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	u, ok := m.users[username]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) GetSuperAdminPermissions(ctx context.Context) (domain.Permissions, error) {
	return domain.Permissions{CanManageUsers: true}, nil
}

func (m *memStore) OpenLoginSession(ctx context.Context, userID int64) (int64, error) {
	id := m.nextLogin
	m.nextLogin++
	return id, nil
}

func (m *memStore) CloseLoginSession(ctx context.Context, loginID string) error {
	return nil
}

type nopAuditor struct{}

func (nopAuditor) Record(ctx context.Context, entry domain.AuditEntry) {}

type nopPublisher struct{}

func (nopPublisher) EmitToAll(event string, data interface{}) {}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	tokens := token.NewService(
		"neusentra-test",
		token.AccessPolicy("access-secret-for-tests", 15*time.Minute),
		token.RefreshPolicy("refresh-secret-for-tests", time.Hour),
	)
	svc := authUsecase.NewService(
		newMemStore(), tokens, session.NewStore(client),
		nopAuditor{}, nopPublisher{}, zap.NewNop(), bcrypt.MinCost,
	)

	h := NewAuthHandler(svc, time.Hour, zap.NewNop())
	authMW := middleware.NewAuthMiddleware(svc)

	r := gin.New()
	v1 := r.Group("/v1/auth")
	v1.GET("/initialization-status", h.InitializationStatus)
	v1.POST("/initialize", h.Initialize)
	v1.POST("/login", h.Login)
	v1.POST("/refresh-token", h.Refresh)
	v1.POST("/logout", authMW.Auth(), h.Logout)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string, mutate func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if mutate != nil {
		mutate(req)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func refreshCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == "refreshToken" {
			return c
		}
	}
	t.Fatal("refreshToken cookie not set")
	return nil
}

func initializeBody() string {
	return `{"fullname":"Jane Admin","username":"jane","password":"Sup3rAdmin!"}`
}

func TestInitializationStatusEndpoint(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/v1/auth/initialization-status", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"initialized":false`)

	doJSON(t, r, http.MethodPost, "/v1/auth/initialize", initializeBody(), nil)

	w = doJSON(t, r, http.MethodGet, "/v1/auth/initialization-status", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"initialized":true`)
}

func TestInitializeEndpoint(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/v1/auth/initialize", initializeBody(), nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			AccessToken string             `json:"accessToken"`
			Permissions domain.Permissions `json:"permissions"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.NotEmpty(t, body.Data.AccessToken)
	assert.True(t, body.Data.Permissions.CanManageUsers)

	// The refresh token travels only as a locked-down cookie.
	assert.NotContains(t, w.Body.String(), "refreshToken")
	c := refreshCookie(t, w)
	assert.NotEmpty(t, c.Value)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
	assert.Equal(t, "/v1/auth/refresh-token", c.Path)
}

func TestInitializeEndpointRejectsWeakPassword(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/v1/auth/initialize",
		`{"fullname":"Jane Admin","username":"jane","password":"weak"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInitializeEndpointTwice(t *testing.T) {
	r := newTestRouter(t)

	doJSON(t, r, http.MethodPost, "/v1/auth/initialize", initializeBody(), nil)
	w := doJSON(t, r, http.MethodPost, "/v1/auth/initialize", initializeBody(), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "already initialized")
}

func TestLoginEndpoint(t *testing.T) {
	r := newTestRouter(t)
	doJSON(t, r, http.MethodPost, "/v1/auth/initialize", initializeBody(), nil)

	w := doJSON(t, r, http.MethodPost, "/v1/auth/login",
		`{"username":"jane","password":"Sup3rAdmin!"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	refreshCookie(t, w)

	// Unknown user and wrong password produce the same response.
	wUnknown := doJSON(t, r, http.MethodPost, "/v1/auth/login",
		`{"username":"nobody","password":"Sup3rAdmin!"}`, nil)
	wWrong := doJSON(t, r, http.MethodPost, "/v1/auth/login",
		`{"username":"jane","password":"Wr0ngPass!"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, wUnknown.Code)
	assert.Equal(t, http.StatusUnauthorized, wWrong.Code)
	assert.Equal(t, wUnknown.Body.String(), wWrong.Body.String())
}

func TestRefreshEndpoint(t *testing.T) {
	r := newTestRouter(t)
	init := doJSON(t, r, http.MethodPost, "/v1/auth/initialize", initializeBody(), nil)
	cookie := refreshCookie(t, init)

	w := doJSON(t, r, http.MethodPost, "/v1/auth/refresh-token", "", func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value})
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "accessToken")

	rotated := refreshCookie(t, w)
	assert.NotEqual(t, cookie.Value, rotated.Value)

	// Replaying the superseded cookie fails with the same shape as any
	// other refresh failure.
	wReplay := doJSON(t, r, http.MethodPost, "/v1/auth/refresh-token", "", func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value})
	})
	assert.Equal(t, http.StatusUnauthorized, wReplay.Code)

	wMissing := doJSON(t, r, http.MethodPost, "/v1/auth/refresh-token", "", nil)
	assert.Equal(t, http.StatusUnauthorized, wMissing.Code)
	assert.Equal(t, wMissing.Body.String(), wReplay.Body.String())
}

func TestLogoutEndpoint(t *testing.T) {
	r := newTestRouter(t)
	init := doJSON(t, r, http.MethodPost, "/v1/auth/initialize", initializeBody(), nil)
	cookie := refreshCookie(t, init)

	var body struct {
		Data struct {
			AccessToken string `json:"accessToken"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(init.Body.Bytes(), &body))

	w := doJSON(t, r, http.MethodPost, "/v1/auth/logout", "", func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+body.Data.AccessToken)
	})
	require.Equal(t, http.StatusOK, w.Code)

	// The cookie is cleared on logout.
	cleared := refreshCookie(t, w)
	assert.Empty(t, cleared.Value)

	// The access token is dead immediately.
	wDead := doJSON(t, r, http.MethodPost, "/v1/auth/logout", "", func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+body.Data.AccessToken)
	})
	assert.Equal(t, http.StatusUnauthorized, wDead.Code)

	// And so is the refresh cookie.
	wRefresh := doJSON(t, r, http.MethodPost, "/v1/auth/refresh-token", "", func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value})
	})
	assert.Equal(t, http.StatusUnauthorized, wRefresh.Code)
}

func TestLogoutRequiresAuth(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/v1/auth/logout", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, r, http.MethodPost, "/v1/auth/logout", "", func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer garbage")
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
