package server

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/yevheniigera/nlu-webhook-relay/internal/relay"
	"github.com/yevheniigera/nlu-webhook-relay/internal/webhook"
)

// Error is a failed webhook call as reported to the caller. Err keeps the
// underlying cause for logs; only Detail leaves the process.
type Error struct {
	Status int
	Detail string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d %s: %v", e.Status, e.Detail, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// classify maps pipeline errors to statuses. Caller faults are 4xx, faults in
// custom code or its output are 5xx.
func classify(err error, callCase string) *Error {
	switch {
	case errors.Is(err, webhook.ErrUnknownCallCase):
		return &Error{fiber.StatusBadRequest, "Unknown call_case: " + callCase, err}
	case errors.Is(err, webhook.ErrMalformedBody):
		return &Error{fiber.StatusBadRequest, "Invalid JSON format", err}
	case errors.Is(err, webhook.ErrInvalidRequestShape):
		return &Error{fiber.StatusBadRequest, "Invalid request format", err}
	case errors.Is(err, webhook.ErrInvalidResponseShape):
		return &Error{fiber.StatusInternalServerError, "Invalid response format", err}
	case errors.Is(err, relay.ErrCollaboratorTimeout):
		return &Error{fiber.StatusGatewayTimeout, "Custom code timed out", err}
	default:
		return &Error{fiber.StatusInternalServerError, "Internal server error", err}
	}
}

func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	var e *Error
	if !errors.As(err, &e) {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			e = &Error{Status: fe.Code, Detail: utils.StatusMessage(fe.Code), Err: fe}
		} else {
			e = &Error{Status: fiber.StatusInternalServerError, Detail: "Internal server error", Err: err}
		}
	}

	attrs := []any{
		"method", c.Method(),
		"path", c.Path(),
		"status", e.Status,
		"request_id", c.GetRespHeader(fiber.HeaderXRequestID),
		"error", e.Err,
	}
	if e.Status >= fiber.StatusInternalServerError {
		s.logger.Error("webhook call failed", attrs...)
	} else {
		s.logger.Info("webhook call rejected", attrs...)
	}

	return c.Status(e.Status).JSON(fiber.Map{"detail": e.Detail})
}
