package webhook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"cloud.google.com/go/dialogflow/apiv2/dialogflowpb"
	"github.com/go-playground/validator/v10"
	"google.golang.org/protobuf/encoding/protojson"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ParseRequest decodes and validates a webhook request body. The body may be
// a JSON object or a JSON string holding the encoded object; some platform
// versions double-encode the payload.
func ParseRequest(body []byte) (*WebhookRequest, error) {
	raw := bytes.TrimSpace(body)
	if !json.Valid(raw) {
		return nil, ErrMalformedBody
	}

	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedBody, err)
		}
		raw = bytes.TrimSpace([]byte(inner))
		if !json.Valid(raw) {
			return nil, fmt.Errorf("%w: string body does not hold JSON", ErrMalformedBody)
		}
	}

	var req WebhookRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequestShape, err)
	}

	if err := validate.Struct(&req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequestShape, err)
	}

	if err := checkCarriedFields(req.QueryResult); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequestShape, err)
	}

	return &req, nil
}

// checkCarriedFields holds the messages and contexts that ExtractWebhookResponse
// copies into the response to the same Dialogflow rules the response is
// checked against, so an untouched seed always renders.
func checkCarriedFields(qr *QueryResult) error {
	body, err := json.Marshal(struct {
		FulfillmentMessages []Message `json:"fulfillmentMessages,omitempty"`
		OutputContexts      []Context `json:"outputContexts,omitempty"`
	}{qr.FulfillmentMessages, qr.OutputContexts})
	if err != nil {
		return err
	}
	return protojson.Unmarshal(body, &dialogflowpb.WebhookResponse{})
}

// ValidateResponse checks resp both against its own field rules and against
// the Dialogflow WebhookResponse message the platform decodes it into.
func ValidateResponse(resp *WebhookResponse) error {
	_, err := render(resp)
	return err
}

// RenderResponse validates resp and returns its JSON encoding.
func RenderResponse(resp *WebhookResponse) ([]byte, error) {
	return render(resp)
}

func render(resp *WebhookResponse) ([]byte, error) {
	if resp == nil {
		return nil, fmt.Errorf("%w: nil response", ErrInvalidResponseShape)
	}

	if err := validate.Struct(resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponseShape, err)
	}

	body, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponseShape, err)
	}

	if err := protojson.Unmarshal(body, &dialogflowpb.WebhookResponse{}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponseShape, err)
	}

	return body, nil
}
