package webhook

import "encoding/json"

type Intent struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName" validate:"required"`
}

type Text struct {
	Text []string `json:"text"`
}

type Image struct {
	ImageURI          string `json:"imageUri,omitempty"`
	AccessibilityText string `json:"accessibilityText,omitempty"`
}

type QuickReplies struct {
	Title        string   `json:"title,omitempty"`
	QuickReplies []string `json:"quickReplies,omitempty"`
}

type CardButton struct {
	Text     string `json:"text,omitempty"`
	Postback string `json:"postback,omitempty"`
}

type Card struct {
	Title    string       `json:"title,omitempty"`
	Subtitle string       `json:"subtitle,omitempty"`
	ImageURI string       `json:"imageUri,omitempty"`
	Buttons  []CardButton `json:"buttons,omitempty"`
}

// Message is one fulfillment message. Exactly one variant is expected to be
// set. Variants without a typed field (simpleResponses, basicCard,
// listSelect and the rest) are kept verbatim in Extra under their JSON name.
type Message struct {
	Text         *Text          `json:"text,omitempty"`
	Image        *Image         `json:"image,omitempty"`
	QuickReplies *QuickReplies  `json:"quickReplies,omitempty"`
	Card         *Card          `json:"card,omitempty"`
	Payload      map[string]any `json:"payload,omitempty"`
	Platform     string         `json:"platform,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

var typedMessageFields = map[string]bool{
	"text":         true,
	"image":        true,
	"quickReplies": true,
	"card":         true,
	"payload":      true,
	"platform":     true,
}

type plainMessage Message

func (m *Message) UnmarshalJSON(data []byte) error {
	var p plainMessage
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	for name, value := range fields {
		if typedMessageFields[name] {
			continue
		}
		if p.Extra == nil {
			p.Extra = make(map[string]json.RawMessage)
		}
		p.Extra[name] = append(json.RawMessage(nil), value...)
	}

	*m = Message(p)
	return nil
}

// MarshalJSON writes the typed variants and then any Extra entry whose name
// is not already taken by a typed one.
func (m Message) MarshalJSON() ([]byte, error) {
	body, err := json.Marshal(plainMessage(m))
	if err != nil || len(m.Extra) == 0 {
		return body, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	for name, value := range m.Extra {
		if _, taken := fields[name]; taken || typedMessageFields[name] {
			continue
		}
		fields[name] = value
	}
	return json.Marshal(fields)
}

// Context is a named piece of conversation state with a lifespan counted in
// conversational turns.
type Context struct {
	Name          string         `json:"name" validate:"required"`
	LifespanCount int            `json:"lifespanCount" validate:"gte=0"`
	Parameters    map[string]any `json:"parameters,omitempty"`
}

type EventInput struct {
	Name         string         `json:"name" validate:"required"`
	Parameters   map[string]any `json:"parameters,omitempty"`
	LanguageCode string         `json:"languageCode,omitempty"`
}

type QueryResult struct {
	QueryText                 string         `json:"queryText"`
	Action                    string         `json:"action"`
	Parameters                map[string]any `json:"parameters"`
	AllRequiredParamsPresent  bool           `json:"allRequiredParamsPresent"`
	FulfillmentText           string         `json:"fulfillmentText"`
	FulfillmentMessages       []Message      `json:"fulfillmentMessages" validate:"dive"`
	OutputContexts            []Context      `json:"outputContexts" validate:"dive"`
	Intent                    *Intent        `json:"intent" validate:"required"`
	IntentDetectionConfidence float64        `json:"intentDetectionConfidence"`
	LanguageCode              string         `json:"languageCode"`
}

// WebhookRequest is the payload the platform posts when an intent with an
// active webhook is matched.
type WebhookRequest struct {
	ResponseID                  string            `json:"responseId"`
	QueryResult                 *QueryResult      `json:"queryResult" validate:"required"`
	OriginalDetectIntentRequest any               `json:"originalDetectIntentRequest"`
	Session                     string            `json:"session"`
	Headers                     map[string]string `json:"headers"`
}

// WebhookResponse is returned to the platform. Source and Payload are copied
// verbatim into the platform's webhook_source and webhook_payload.
type WebhookResponse struct {
	FulfillmentText     string         `json:"fulfillmentText"`
	FulfillmentMessages []Message      `json:"fulfillmentMessages" validate:"dive"`
	Source              string         `json:"source"`
	Payload             map[string]any `json:"payload"`
	OutputContexts      []Context      `json:"outputContexts" validate:"dive"`
	FollowupEventInput  *EventInput    `json:"followupEventInput"`
}

// SetHeaders attaches the inbound transport headers to the request.
func (r *WebhookRequest) SetHeaders(headers map[string]string) {
	r.Headers = headers
}

// IntentDisplayName returns the matched intent's display name, or "" when the
// request has not been validated.
func (r *WebhookRequest) IntentDisplayName() string {
	if r.QueryResult == nil || r.QueryResult.Intent == nil {
		return ""
	}
	return r.QueryResult.Intent.DisplayName
}

// ExtractWebhookResponse builds the default response for r: fulfillment
// messages and output contexts are carried forward, everything else is empty.
func (r *WebhookRequest) ExtractWebhookResponse() *WebhookResponse {
	resp := &WebhookResponse{
		FulfillmentMessages: []Message{},
		Payload:             map[string]any{},
		OutputContexts:      []Context{},
	}
	if r.QueryResult == nil {
		return resp
	}

	for _, m := range r.QueryResult.FulfillmentMessages {
		resp.FulfillmentMessages = append(resp.FulfillmentMessages, m.clone())
	}
	for _, c := range r.QueryResult.OutputContexts {
		resp.OutputContexts = append(resp.OutputContexts, c.clone())
	}

	return resp
}

func (m Message) clone() Message {
	out := Message{Platform: m.Platform, Payload: cloneMap(m.Payload)}
	if m.Extra != nil {
		out.Extra = make(map[string]json.RawMessage, len(m.Extra))
		for name, value := range m.Extra {
			out.Extra[name] = append(json.RawMessage(nil), value...)
		}
	}
	if m.Text != nil {
		out.Text = &Text{Text: cloneStrings(m.Text.Text)}
	}
	if m.Image != nil {
		img := *m.Image
		out.Image = &img
	}
	if m.QuickReplies != nil {
		out.QuickReplies = &QuickReplies{
			Title:        m.QuickReplies.Title,
			QuickReplies: cloneStrings(m.QuickReplies.QuickReplies),
		}
	}
	if m.Card != nil {
		card := *m.Card
		card.Buttons = append([]CardButton(nil), m.Card.Buttons...)
		out.Card = &card
	}
	return out
}

func (c Context) clone() Context {
	c.Parameters = cloneMap(c.Parameters)
	return c
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append(make([]string, 0, len(s)), s...)
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}
