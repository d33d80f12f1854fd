// Package mail provides the outbound mail transport used by the overdue
// notifier. The core only depends on the Sender interface; AWS SES is the
// production implementation.
package mail

import (
	"context"
	"log"
)

// Sender delivers one message to a batch of recipients.
// Implementations must treat an empty recipient list as a no-op.
type Sender interface {
	Send(ctx context.Context, message string, recipients []string) error
}

// LogSender writes messages to the log instead of sending them. Used in
// development and when SES is disabled in config.
type LogSender struct{}

// Send logs the message and recipient count.
func (LogSender) Send(_ context.Context, message string, recipients []string) error {
	log.Printf("[mail] (log-only) would send to %d recipients: %s", len(recipients), message)
	return nil
}
