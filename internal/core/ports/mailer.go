package ports

import "context"

// Mailer delivers a single HTML message to one recipient.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// Notification is a queued outbound message for the async dispatcher.
type Notification struct {
	To       string
	Subject  string
	HTMLBody string
}

// Notifier accepts fire-and-forget notifications. Delivery failures are
// logged, never surfaced to the enqueueing request.
type Notifier interface {
	Dispatch(n Notification)
}
