package driven

import "context"

// Notifier defines the driven port for the chat audit trail. Delivery is
// best-effort: implementations never retry, and an unconfigured notifier is
// a silent no-op.
type Notifier interface {
	PostMessage(ctx context.Context, text string) error
}
