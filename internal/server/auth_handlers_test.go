package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"voidline/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "Str0ng!Password#1"

func signupUser(t *testing.T, app *fiber.App, username string) map[string]any {
	t.Helper()
	resp := doJSON(t, app, http.MethodPost, "/signup", jsonBody(t, map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": testPassword,
	}))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var body map[string]any
	decodeJSON(t, resp, &body)
	return body
}

func TestSignupAndLogin(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	app := fiber.New()
	app.Post("/signup", s.Signup)
	app.Post("/login", s.Login)

	body := signupUser(t, app, "firstuser")
	assert.NotEmpty(t, body["token"])

	t.Run("duplicate email conflicts", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/signup", jsonBody(t, map[string]string{
			"username": "otheruser",
			"email":    "firstuser@example.com",
			"password": testPassword,
		}))
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("login with correct password", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/login", jsonBody(t, map[string]string{
			"email":    "firstuser@example.com",
			"password": testPassword,
		}))
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]any
		decodeJSON(t, resp, &body)
		assert.NotEmpty(t, body["token"])
	})

	t.Run("login with wrong password", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/login", jsonBody(t, map[string]string{
			"email":    "firstuser@example.com",
			"password": "WrongPassword!234",
		}))
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("password hash never stored in clear", func(t *testing.T) {
		var user models.User
		require.NoError(t, s.db.Where("username = ?", "firstuser").First(&user).Error)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(testPassword)))
	})
}

func TestSignupValidation(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	app := fiber.New()
	app.Post("/signup", s.Signup)

	tests := []struct {
		name string
		body map[string]string
	}{
		{"missing fields", map[string]string{"username": "someone"}},
		{"short password", map[string]string{
			"username": "someone", "email": "s@example.com", "password": "short",
		}},
		{"bad email", map[string]string{
			"username": "someone", "email": "not-an-email", "password": testPassword,
		}},
		{"bad username", map[string]string{
			"username": "x", "email": "s@example.com", "password": testPassword,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, app, http.MethodPost, "/signup", jsonBody(t, tt.body))
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestAuthRequiredTokenRoundTrip(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	app := fiber.New()
	app.Get("/me", s.AuthRequired(), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"user_id": c.Locals("userID")})
	})

	user := createUser(t, s.db, "tokenuser", models.RoleUser)
	token, err := s.generateToken(user.ID, user.Username)
	require.NoError(t, err)

	t.Run("valid token passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)

		var body map[string]any
		decodeJSON(t, resp, &body)
		assert.Equal(t, float64(user.ID), body["user_id"])
	})

	t.Run("missing token rejected", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/me", nil), -1)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("garbage token rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer not.a.token")
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("token signed with other secret rejected", func(t *testing.T) {
		foreignCfg := *s.config
		foreignCfg.JWTSecret = "other_secret"
		foreign := &Server{config: &foreignCfg}
		badToken, err := foreign.generateToken(user.ID, user.Username)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+badToken)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}
