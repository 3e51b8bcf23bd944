package signalr

import "github.com/google/uuid"

// newAttemptID returns a correlation id for a single Start attempt's log
// lines, distinct from the server-assigned connectionId (which only exists
// after negotiate succeeds) and from invocation ids (which stay strictly
// increasing decimal naturals, never uuids). Grounded on the reference
// server's use of uuid.New().String() for its own instance and invocation
// correlation ids (redishublifetimemnager.go, serveroptions_test.go).
func newAttemptID() string {
	return uuid.New().String()
}
