package webhook

import "fmt"

// CallCase selects which custom-code function handles a webhook call. The set
// is closed: a token outside it is rejected, never defaulted.
type CallCase string

const (
	SlotFilling        CallCase = "slot_filling"
	ResponseRefinement CallCase = "response_refinement"
)

var callCases = map[CallCase]struct{}{
	SlotFilling:        {},
	ResponseRefinement: {},
}

// CallCases returns the known call cases.
func CallCases() []CallCase {
	return []CallCase{SlotFilling, ResponseRefinement}
}

// ParseCallCase resolves a routing token. The returned error wraps
// ErrUnknownCallCase and carries the offending token.
func ParseCallCase(token string) (CallCase, error) {
	cc := CallCase(token)
	if _, ok := callCases[cc]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownCallCase, token)
	}
	return cc, nil
}

func (c CallCase) String() string {
	return string(c)
}
