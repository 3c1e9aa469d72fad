package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sadopc/suivi/internal/auth"
	"github.com/sadopc/suivi/internal/export"
	"github.com/sadopc/suivi/internal/store"
	"github.com/sadopc/suivi/internal/timesheet"
)

type errorBody struct {
	Error   string `json:"error"`
	Kind    string `json:"kind,omitempty"`
	Details any    `json:"details,omitempty"`
}

// classify maps an error to its status and response body.
func classify(err error) (int, errorBody) {
	body := errorBody{Error: err.Error()}

	var ve *timesheet.ValidationError
	if errors.As(err, &ve) {
		body.Kind = string(ve.Kind)
		body.Details = ve
		return fiber.StatusUnprocessableEntity, body
	}
	switch timesheet.KindOf(err) {
	case timesheet.KindUnauthenticated:
		body.Kind = string(timesheet.KindUnauthenticated)
		return fiber.StatusUnauthorized, body
	case timesheet.KindStoreUnavailable:
		body.Kind = string(timesheet.KindStoreUnavailable)
		body.Error = timesheet.ErrStoreUnavailable.Error()
		return fiber.StatusServiceUnavailable, body
	}

	var ie *auth.InputError
	var fe *fiber.Error
	switch {
	case errors.As(err, &ie):
		body.Kind = "InvalidInput"
		body.Details = ie.Fields
		return fiber.StatusUnprocessableEntity, body
	case errors.Is(err, auth.ErrInvalidInput), errors.Is(err, auth.ErrPasswordMismatch):
		body.Kind = "InvalidInput"
		return fiber.StatusUnprocessableEntity, body
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken):
		body.Kind = string(timesheet.KindUnauthenticated)
		return fiber.StatusUnauthorized, body
	case errors.Is(err, auth.ErrAccountDisabled):
		body.Kind = "Forbidden"
		return fiber.StatusForbidden, body
	case errors.Is(err, store.ErrEmailTaken):
		body.Kind = "Conflict"
		return fiber.StatusConflict, body
	case errors.Is(err, store.ErrNotFound), errors.Is(err, export.ErrNoData):
		body.Kind = "NotFound"
		return fiber.StatusNotFound, body
	case errors.As(err, &fe):
		body.Error = fe.Message
		switch fe.Code {
		case fiber.StatusUnauthorized:
			body.Kind = string(timesheet.KindUnauthenticated)
		case fiber.StatusForbidden:
			body.Kind = "Forbidden"
		case fiber.StatusNotFound:
			body.Kind = "NotFound"
		}
		return fe.Code, body
	}
	return fiber.StatusInternalServerError, errorBody{Error: "internal error", Kind: "Internal"}
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	status, body := classify(err)
	if status >= fiber.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
	}
	return c.Status(status).JSON(body)
}
