package testutil

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nhle/branch-tracker/internal/model"
	"github.com/nhle/branch-tracker/internal/source"
)

// Message is a canned mailbox entry.
type Message struct {
	From    string
	Subject string
	Date    time.Time

	// Raw overrides the generated RFC 5322 bytes when set.
	Raw []byte

	// FetchErr makes FetchMessage fail for this message.
	FetchErr error
}

// FakeMailbox is an in-memory source.Session. Its search mimics an
// IMAP server: case-insensitive raw substring on Subject, exact
// sender match and SINCE on the message date.
type FakeMailbox struct {
	Messages  []Message
	SearchErr error

	Queries []source.MailQuery
	Fetched []uint32
	Closed  int
}

var _ source.Session = (*FakeMailbox)(nil)

func (f *FakeMailbox) SearchMessages(_ context.Context, q source.MailQuery) ([]uint32, error) {
	f.Queries = append(f.Queries, q)
	if f.SearchErr != nil {
		return nil, f.SearchErr
	}

	var ids []uint32
	for i, m := range f.Messages {
		if !q.Since.IsZero() && m.Date.Before(q.Since) {
			continue
		}
		if !strings.Contains(strings.ToLower(m.Subject), strings.ToLower(q.Subject)) {
			continue
		}
		if len(q.Senders) > 0 && !containsFold(q.Senders, m.From) {
			continue
		}
		ids = append(ids, uint32(i+1))
	}
	return ids, nil
}

func (f *FakeMailbox) FetchMessage(_ context.Context, id uint32) ([]byte, error) {
	f.Fetched = append(f.Fetched, id)
	if id == 0 || int(id) > len(f.Messages) {
		return nil, errors.New("no such message")
	}
	m := f.Messages[id-1]
	if m.FetchErr != nil {
		return nil, m.FetchErr
	}
	if m.Raw != nil {
		return m.Raw, nil
	}
	return []byte(fmt.Sprintf(
		"From: %s\r\nSubject: %s\r\nDate: %s\r\n\r\nbody\r\n",
		m.From, m.Subject, m.Date.Format(time.RFC1123Z),
	)), nil
}

func (f *FakeMailbox) Close() error {
	f.Closed++
	return nil
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

// FakeCalendar is a source.EventLister returning fixed events.
type FakeCalendar struct {
	Events []model.Event
	Err    error

	CalendarID string
	Start, End time.Time
	Max        int64
}

var _ source.EventLister = (*FakeCalendar)(nil)

func (f *FakeCalendar) ListEvents(
	_ context.Context, calendarID string, start, end time.Time, max int64,
) ([]model.Event, error) {
	f.CalendarID, f.Start, f.End, f.Max = calendarID, start, end, max
	if f.Err != nil {
		return nil, f.Err
	}
	events := f.Events
	if max > 0 && int64(len(events)) > max {
		events = events[:max]
	}
	return events, nil
}
