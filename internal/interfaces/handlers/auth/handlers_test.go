package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	authsvc "meterinstall-backend/internal/application/auth"
	"meterinstall-backend/internal/domain"
	"meterinstall-backend/internal/middleware"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeUserFinder returns the configured user when the password is "password123".
type fakeUserFinder struct {
	user *domain.User
	err  error
}

func (f *fakeUserFinder) FindByUsernameAndPassword(_ context.Context, username, password string) (*domain.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.user == nil || f.user.Username != username {
		return nil, authsvc.ErrInvalidUsername
	}
	if password != "password123" {
		return nil, authsvc.ErrIncorrectPassword
	}
	if !f.user.IsActive {
		return nil, authsvc.ErrInactiveUser
	}
	return f.user, nil
}

func testUser(active bool) *domain.User {
	return &domain.User{ID: uuid.New(), Username: "malee", FirstName: "Malee", LastName: "Suksan", Roles: []string{"manager"}, IsActive: active}
}

func setupAuthHandlers(t *testing.T, finder authsvc.UserFinder) (*Handlers, *redis.Client) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	return &Handlers{UserFinder: finder, Rdb: rdb, TokenTTL: 30 * time.Minute}, rdb
}

func postLogin(t *testing.T, app *fiber.App, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest("POST", "/login", reader)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func loginApp(h *Handlers) *fiber.App {
	app := fiber.New()
	app.Post("/login", middleware.Session(h.Rdb), h.Login)
	return app
}

func TestLogin_EmptyBody(t *testing.T) {
	h, _ := setupAuthHandlers(t, &fakeUserFinder{})
	resp := postLogin(t, loginApp(h), nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestLogin_MissingCredentials(t *testing.T) {
	h, _ := setupAuthHandlers(t, &fakeUserFinder{})
	resp := postLogin(t, loginApp(h), map[string]string{"username": "malee"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestLogin_Rejections(t *testing.T) {
	cases := []struct {
		name   string
		finder *fakeUserFinder
		body   map[string]string
		want   int
	}{
		{"unknown user", &fakeUserFinder{}, map[string]string{"username": "ghost", "password": "x"}, fiber.StatusUnauthorized},
		{"wrong password", &fakeUserFinder{user: testUser(true)}, map[string]string{"username": "malee", "password": "wrong"}, fiber.StatusUnauthorized},
		{"inactive", &fakeUserFinder{user: testUser(false)}, map[string]string{"username": "malee", "password": "password123"}, fiber.StatusForbidden},
		{"store down", &fakeUserFinder{err: assert.AnError}, map[string]string{"username": "malee", "password": "password123"}, fiber.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h, _ := setupAuthHandlers(t, tc.finder)
			resp := postLogin(t, loginApp(h), tc.body)
			assert.Equal(t, tc.want, resp.StatusCode)
		})
	}
}

func TestLogin_Success(t *testing.T) {
	user := testUser(true)
	h, rdb := setupAuthHandlers(t, &fakeUserFinder{user: user})
	h.JWTSecret = "secret"
	resp := postLogin(t, loginApp(h), map[string]string{"username": "malee", "password": "password123"})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	b, _ := io.ReadAll(resp.Body)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, "Login successful", out["message"])
	data := out["data"].(map[string]interface{})
	u := data["user"].(map[string]interface{})
	assert.Equal(t, "Malee Suksan", u["fullname"])
	assert.Equal(t, []interface{}{"manager"}, u["roles"])

	p, err := authsvc.ParseToken("secret", data["access_token"].(string))
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), p.UserID)

	cookies := resp.Header.Values("Set-Cookie")
	require.NotEmpty(t, cookies)
	assert.Contains(t, cookies[0], middleware.SessionCookieName+"=")

	members, err := rdb.SMembers(context.Background(), "user_sessions:"+user.ID.String()).Result()
	require.NoError(t, err)
	require.Len(t, members, 1)
	exists, err := rdb.Exists(context.Background(), middleware.SessionRedisPrefix+members[0]).Result()
	require.NoError(t, err)
	assert.EqualValues(t, 1, exists)
}

func TestLogin_NoTokenWithoutSecret(t *testing.T) {
	h, _ := setupAuthHandlers(t, &fakeUserFinder{user: testUser(true)})
	resp := postLogin(t, loginApp(h), map[string]string{"username": "malee", "password": "password123"})
	b, _ := io.ReadAll(resp.Body)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &out))
	assert.NotContains(t, out["data"].(map[string]interface{}), "access_token")
}

func TestLogin_NilUserFinder(t *testing.T) {
	h, _ := setupAuthHandlers(t, nil)
	resp := postLogin(t, loginApp(h), map[string]string{"username": "a", "password": "b"})
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}

func TestMe_NoSession(t *testing.T) {
	h, _ := setupAuthHandlers(t, &fakeUserFinder{})
	app := fiber.New()
	app.Get("/me", h.Me)
	resp, err := app.Test(httptest.NewRequest("GET", "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestMe_WithSessionUserInLocals(t *testing.T) {
	h, _ := setupAuthHandlers(t, &fakeUserFinder{})
	app := fiber.New()
	app.Get("/me", func(c *fiber.Ctx) error {
		c.Locals("user", map[string]interface{}{
			"user_id":  "550e8400-e29b-41d4-a716-446655440000",
			"username": "malee",
			"fullname": "Malee Suksan",
			"roles":    []interface{}{"manager"},
		})
		return h.Me(c)
	})
	resp, err := app.Test(httptest.NewRequest("GET", "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	b, _ := io.ReadAll(resp.Body)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &out))
	user := out["data"].(map[string]interface{})["user"].(map[string]interface{})
	assert.Equal(t, "malee", user["username"])
}

func TestLogout_RemovesSession(t *testing.T) {
	h, rdb := setupAuthHandlers(t, &fakeUserFinder{})
	ctx := context.Background()
	require.NoError(t, rdb.Set(ctx, middleware.SessionRedisPrefix+"sid1", `{"user":{"user_id":"u1","roles":["user"]}}`, 0).Err())
	require.NoError(t, rdb.SAdd(ctx, "user_sessions:u1", "sid1").Err())

	app := fiber.New()
	app.Delete("/logout", middleware.Session(rdb), h.Logout)
	req := httptest.NewRequest("DELETE", "/logout", nil)
	req.Header.Set("Cookie", middleware.SessionCookieName+"=s:sid1")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Values("Set-Cookie"))

	n, err := rdb.Exists(ctx, middleware.SessionRedisPrefix+"sid1").Result()
	require.NoError(t, err)
	assert.Zero(t, n)
	members, err := rdb.SMembers(ctx, "user_sessions:u1").Result()
	require.NoError(t, err)
	assert.Empty(t, members)
}
