package webhook

import (
	"fmt"

	"github.com/google/uuid"
)

// NewSampleRequest returns a fully populated request as the platform would
// send it for a matched "order.pizza" intent.
func NewSampleRequest() *WebhookRequest {
	sessionID := uuid.New().String()
	session := fmt.Sprintf("projects/sample-project/agent/sessions/%s", sessionID)

	return &WebhookRequest{
		ResponseID: uuid.New().String(),
		Session:    session,
		QueryResult: &QueryResult{
			QueryText: "I want to order a large pizza",
			Action:    "order.pizza",
			Parameters: map[string]any{
				"size":  "large",
				"count": float64(1),
			},
			AllRequiredParamsPresent: true,
			FulfillmentText:          "Which toppings would you like?",
			FulfillmentMessages: []Message{
				{Text: &Text{Text: []string{"Which toppings would you like?"}}},
				{QuickReplies: &QuickReplies{
					Title:        "Popular toppings",
					QuickReplies: []string{"Mushrooms", "Salami", "Olives"},
				}},
			},
			OutputContexts: []Context{
				{
					Name:          session + "/contexts/order-pizza",
					LifespanCount: 5,
					Parameters:    map[string]any{"size": "large"},
				},
				{
					Name:          session + "/contexts/i_order_pizza_followup",
					LifespanCount: 2,
				},
			},
			Intent: &Intent{
				Name:        "projects/sample-project/agent/intents/" + uuid.New().String(),
				DisplayName: "order.pizza",
			},
			IntentDetectionConfidence: 0.93,
			LanguageCode:              "en",
		},
		OriginalDetectIntentRequest: map[string]any{
			"source":  "sample",
			"payload": map[string]any{},
		},
		Headers: map[string]string{},
	}
}
