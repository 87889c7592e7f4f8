package messaging

import (
	"context"

	"github.com/cockroachdb/errors"
)

// ErrSendFailed marks a notification that could not be delivered.
var ErrSendFailed = errors.New("notification send failed")

// Gateway delivers text to the single configured destination.
// This keeps the application logic independent of the bot library.
type Gateway interface {
	Send(ctx context.Context, text string) error
}
