package relay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yevheniigera/nlu-webhook-relay/internal/custom"
	"github.com/yevheniigera/nlu-webhook-relay/internal/webhook"
)

var (
	ErrCollaboratorFailure = errors.New("custom code failed")
	ErrCollaboratorTimeout = errors.New("custom code timed out")
)

// Func is the custom-code contract. It receives the validated request and the
// default response and returns the response to send back. It may modify or
// replace resp.
type Func func(ctx context.Context, req *webhook.WebhookRequest, resp *webhook.WebhookResponse) (*webhook.WebhookResponse, error)

// Table maps every call case to its custom-code function.
type Table map[webhook.CallCase]Func

func Default() Table {
	return Table{
		webhook.SlotFilling:        custom.SlotFilling,
		webhook.ResponseRefinement: custom.ResponseRefinement,
	}
}

type Relay struct {
	table   Table
	timeout time.Duration
}

// New returns a Relay over table. A zero timeout leaves the deadline to the
// caller's context.
func New(table Table, timeout time.Duration) (*Relay, error) {
	for _, cc := range webhook.CallCases() {
		if table[cc] == nil {
			return nil, fmt.Errorf("no custom code registered for call_case %s", cc)
		}
	}
	return &Relay{table: table, timeout: timeout}, nil
}

// Call runs the function registered for cc exactly once. Panics and errors
// are reported as ErrCollaboratorFailure; if ctx ends first the call is
// abandoned and ErrCollaboratorTimeout is returned.
func (r *Relay) Call(ctx context.Context, cc webhook.CallCase, req *webhook.WebhookRequest, resp *webhook.WebhookResponse) (*webhook.WebhookResponse, error) {
	fn, ok := r.table[cc]
	if !ok {
		return nil, fmt.Errorf("%w: %s", webhook.ErrUnknownCallCase, cc)
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	type result struct {
		resp *webhook.WebhookResponse
		err  error
	}
	done := make(chan result, 1)

	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- result{err: fmt.Errorf("%w: panic: %v", ErrCollaboratorFailure, p)}
			}
		}()
		out, err := fn(ctx, req, resp)
		done <- result{resp: out, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			if errors.Is(res.err, ErrCollaboratorFailure) {
				return nil, res.err
			}
			if ctx.Err() != nil && errors.Is(res.err, ctx.Err()) {
				return nil, fmt.Errorf("%w: %w", ErrCollaboratorTimeout, res.err)
			}
			return nil, fmt.Errorf("%w: %w", ErrCollaboratorFailure, res.err)
		}
		return res.resp, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrCollaboratorTimeout, ctx.Err())
	}
}
