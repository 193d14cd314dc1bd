package driven

import "context"

// Notifier defines the driven port for best-effort out-of-band alerting.
// Delivery failure must never mask the error being reported: callers log a
// failed Notify and carry on with their primary response.
type Notifier interface {
	Notify(ctx context.Context, subject, body string) error
}
