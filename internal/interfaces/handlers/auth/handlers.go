package auth

import (
	"errors"
	"time"

	authsvc "meterinstall-backend/internal/application/auth"
	"meterinstall-backend/internal/middleware"
	"meterinstall-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const userSessionsPrefix = "user_sessions:"

// Handlers holds dependencies for auth endpoints.
type Handlers struct {
	UserFinder authsvc.UserFinder
	Rdb        *redis.Client
	Config     middleware.SessionConfig
	JWTSecret  string
	TokenTTL   time.Duration
}

// Login POST /api/v1/auth/login: authenticate, create session, set cookie, and issue a bearer token when configured.
func (h *Handlers) Login(c *fiber.Ctx) error {
	if h.UserFinder == nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	var req authsvc.LoginInput
	if err := c.BodyParser(&req); err != nil || req.Username == "" || req.Password == "" {
		return response.Error(c, authsvc.ErrUsernamePasswordRequired.Error(), fiber.StatusBadRequest, nil)
	}

	user, err := h.UserFinder.FindByUsernameAndPassword(c.UserContext(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, authsvc.ErrUsernamePasswordRequired):
			return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
		case errors.Is(err, authsvc.ErrInvalidUsername), errors.Is(err, authsvc.ErrIncorrectPassword):
			return response.Error(c, err.Error(), fiber.StatusUnauthorized, nil)
		case errors.Is(err, authsvc.ErrInactiveUser):
			return response.Error(c, err.Error(), fiber.StatusForbidden, nil)
		default:
			log.Error().Err(err).Msg("login lookup failed")
			return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
		}
	}

	principal := authsvc.PrincipalFromUser(user)
	sessionID := middleware.RegenerateSessionID(c)
	middleware.SetSessionUser(c, principal)

	if err := h.Rdb.SAdd(c.UserContext(), userSessionsPrefix+principal.UserID, sessionID).Err(); err != nil {
		log.Error().Err(err).Msg("session tracking failed")
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}

	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.Value = "s:" + sessionID
	c.Cookie(&cookie)

	data := fiber.Map{"user": principal}
	if h.JWTSecret != "" {
		token, err := authsvc.IssueToken(h.JWTSecret, h.TokenTTL, principal, time.Now())
		if err != nil {
			log.Error().Err(err).Msg("token signing failed")
			return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
		}
		data["access_token"] = token
		data["token_type"] = "bearer"
	}
	log.Info().Str("user_id", principal.UserID).Msg("login successful")
	return response.Success(c, "Login successful", data, nil)
}

// Me GET /api/v1/auth/me returns the current principal.
func (h *Handlers) Me(c *fiber.Ctx) error {
	p, err := authsvc.VerifyUser(middleware.GetUser(c))
	if err != nil {
		log.Info().Str("path", "/auth/me").
			Bool("session_id_present", middleware.GetSessionID(c) != "").
			Msg("auth/me: returning 401 Not authenticated")
		return response.Error(c, "Not authenticated", fiber.StatusUnauthorized, nil)
	}
	return response.Success(c, "Authenticated", fiber.Map{"user": p}, nil)
}

// Logout DELETE /api/v1/auth/logout removes the session from Redis and clears the cookie.
func (h *Handlers) Logout(c *fiber.Ctx) error {
	sessionID := middleware.GetSessionID(c)
	ctx := c.UserContext()

	if sessionID != "" {
		if p := middleware.GetPrincipal(c); p != nil {
			_ = h.Rdb.SRem(ctx, userSessionsPrefix+p.UserID, sessionID).Err()
		}
		_ = h.Rdb.Del(ctx, middleware.SessionRedisPrefix+sessionID).Err()
	}
	middleware.DestroySession(c)

	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.MaxAge = -1
	c.Cookie(&cookie)

	return response.Success(c, "Logged out successfully", nil, nil)
}
