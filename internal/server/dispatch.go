package server

import (
	"context"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.opentelemetry.io/otel/attribute"

	"github.com/yevheniigera/nlu-webhook-relay/internal/webhook"
)

// callCase serves POST /:call_case. The auth middleware has already run.
func (s *Server) callCase(c *fiber.Ctx) error {
	token := utils.CopyString(c.Params("call_case"))
	logger := s.logger.With("request_id", c.GetRespHeader(fiber.HeaderXRequestID))

	ctx, done := s.timer.Start(c.UserContext(), "call_case", attribute.String("call_case", token))
	body, err := s.dispatch(ctx, logger, token, c.Body(), requestHeaders(c))
	if err != nil {
		err = classify(err, token)
	}
	done(err)

	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Status(fiber.StatusOK).Send(body)
}

func (s *Server) dispatch(ctx context.Context, logger *slog.Logger, token string, body []byte, headers map[string]string) ([]byte, error) {
	cc, err := webhook.ParseCallCase(token)
	if err != nil {
		return nil, err
	}

	logger.DebugContext(ctx, "webhook request received", "call_case", cc, "body", string(body))

	req, err := webhook.ParseRequest(body)
	if err != nil {
		return nil, err
	}
	req.SetHeaders(headers)

	resp := req.ExtractWebhookResponse()

	logger.DebugContext(ctx, "calling custom code",
		"call_case", cc,
		"session", req.Session,
		"intent", req.IntentDisplayName(),
		"response_id", req.ResponseID,
	)

	resp, err = s.relay.Call(ctx, cc, req, resp)
	if err != nil {
		return nil, err
	}

	return webhook.RenderResponse(resp)
}

// requestHeaders copies the inbound headers with lower-cased names. The
// Authorization header is withheld from custom code.
func requestHeaders(c *fiber.Ctx) map[string]string {
	headers := make(map[string]string)
	c.Request().Header.VisitAll(func(key, value []byte) {
		name := strings.ToLower(string(key))
		if name == "authorization" {
			return
		}
		headers[name] = string(value)
	})
	return headers
}
