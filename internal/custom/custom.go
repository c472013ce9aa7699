// Package custom holds the business logic behind the webhook. Both functions
// get the validated request and a response pre-filled with the request's
// fulfillment messages and output contexts, and return the response to send
// back to the platform.
//
// Replace the bodies below with your own logic. Honour ctx for any I/O; the
// relay gives up on the call once ctx is done.
package custom

import (
	"context"

	"github.com/yevheniigera/nlu-webhook-relay/internal/webhook"
)

// SlotFilling is called while the platform is still collecting required
// parameters of an intent. Typical use: look up or compute parameter values
// and return them in resp.OutputContexts.
func SlotFilling(ctx context.Context, req *webhook.WebhookRequest, resp *webhook.WebhookResponse) (*webhook.WebhookResponse, error) {
	return resp, nil
}

// ResponseRefinement is called after an intent is fully matched. Typical use:
// rewrite resp.FulfillmentMessages before they reach the user.
func ResponseRefinement(ctx context.Context, req *webhook.WebhookRequest, resp *webhook.WebhookResponse) (*webhook.WebhookResponse, error) {
	return resp, nil
}
