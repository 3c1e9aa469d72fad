package api

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sadopc/suivi/internal/auth"
	"github.com/sadopc/suivi/internal/store"
)

const localUser = "user"

func (s *Server) requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(fiber.HeaderXRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(fiber.HeaderXRequestID, id)

		start := time.Now()
		err := c.Next()
		if err != nil {
			// let the error handler set the status before logging it
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				c.Status(fiber.StatusInternalServerError)
			}
		}
		s.logger.Info("request",
			zap.String("id", id),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("duration", time.Since(start)))
		return nil
	}
}

func bearerToken(c *fiber.Ctx) (string, bool) {
	h := c.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(h, "Bearer ") {
		return "", false
	}
	tok := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	return tok, tok != ""
}

// requireAuth resolves the bearer token to an active account.
func (s *Server) requireAuth(c *fiber.Ctx) error {
	tok, ok := bearerToken(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
	}
	claims, err := s.auth.ParseToken(tok)
	if err != nil {
		return err
	}
	u, err := s.store.GetUser(claims.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return auth.ErrInvalidToken
	}
	if err != nil {
		return err
	}
	if !u.IsActive {
		return auth.ErrAccountDisabled
	}
	c.Locals(localUser, u)
	return c.Next()
}

func requireAdmin(c *fiber.Ctx) error {
	if !currentUser(c).IsAdmin() {
		return fiber.NewError(fiber.StatusForbidden, "admin access required")
	}
	return c.Next()
}

func currentUser(c *fiber.Ctx) *store.User {
	u, _ := c.Locals(localUser).(*store.User)
	if u == nil {
		return &store.User{}
	}
	return u
}
