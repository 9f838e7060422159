package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nhle/branch-tracker/internal/model"
)

// AuthError indicates that a source rejected the supplied credentials.
type AuthError struct {
	SourceType SourceType
	Message    string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error (%s): %s", e.SourceType, e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// SourceType identifies the kind of external source integration.
type SourceType string

const (
	SourceTypeCalendar SourceType = "calendar"
	SourceTypeEmail    SourceType = "email"
)

// EventLister retrieves calendar events.
type EventLister interface {
	// ListEvents returns up to max events of calendarID starting in
	// [start, end), ordered by start time.
	ListEvents(
		ctx context.Context,
		calendarID string,
		start, end time.Time,
		max int64,
	) ([]model.Event, error)
}

// MailQuery is a server-side mailbox search. All non-empty criteria
// must hold; Senders is a disjunction.
type MailQuery struct {
	// Since limits results to messages dated on or after this day.
	Since time.Time

	// Subject is a raw substring the Subject header must contain.
	Subject string

	// Senders lists acceptable From addresses. Empty means any sender.
	Senders []string
}

// Mailbox searches and fetches messages in an already selected folder.
type Mailbox interface {
	// SearchMessages returns the identifiers of messages matching q.
	SearchMessages(ctx context.Context, q MailQuery) ([]uint32, error)

	// FetchMessage returns the full RFC 5322 bytes of a message.
	FetchMessage(ctx context.Context, id uint32) ([]byte, error)
}

// Session is a Mailbox bound to an open, authenticated connection.
type Session interface {
	Mailbox

	// Close deselects the folder and logs out.
	Close() error
}
