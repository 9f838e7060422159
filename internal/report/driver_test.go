package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/branch-tracker/internal/crossref"
	"github.com/nhle/branch-tracker/internal/logging"
	"github.com/nhle/branch-tracker/internal/matcher"
	"github.com/nhle/branch-tracker/internal/model"
	"github.com/nhle/branch-tracker/internal/source"
	"github.com/nhle/branch-tracker/tests/testutil"
)

const sender = "notify@example.com"

var now = time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

func newDriver(cal source.EventLister) *Driver {
	extractor := crossref.MustNewExtractor("")
	m := matcher.New(matcher.Config{AllowedSenders: []string{sender}}, extractor, logging.Discard())
	return NewDriver(Options{CalendarID: "team@example.com"}, cal, extractor, m, logging.Discard())
}

func opener(mb *testutil.FakeMailbox) SessionOpener {
	return func(context.Context) (source.Session, error) { return mb, nil }
}

func openingEvent() model.Event {
	return model.Event{Title: "Opening B 071", Date: "2024-03-01", Description: ""}
}

func TestRun_Found(t *testing.T) {
	cal := &testutil.FakeCalendar{Events: []model.Event{openingEvent()}}
	mb := &testutil.FakeMailbox{Messages: []testutil.Message{
		{From: sender, Subject: "RE: Opening B071 confirmation", Date: time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC)},
	}}

	rep, err := newDriver(cal).Run(context.Background(), now, opener(mb))
	require.NoError(t, err)

	assert.Equal(t, []model.ReportRow{{
		EventTitle: "Opening B 071",
		EventDate:  "2024-03-01",
		BranchID:   "B071",
		Status:     model.StatusFound,
	}}, rep.Rows)
	assert.Equal(t, 1, rep.EventCount)
	assert.Equal(t, 1, mb.Closed)

	assert.Equal(t, "team@example.com", cal.CalendarID)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), cal.Start)
	assert.Equal(t, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), cal.End)
	assert.Equal(t, int64(DefaultMaxEvents), cal.Max)
}

func TestRun_Waiting(t *testing.T) {
	cal := &testutil.FakeCalendar{Events: []model.Event{openingEvent()}}
	mb := &testutil.FakeMailbox{}

	rep, err := newDriver(cal).Run(context.Background(), now, opener(mb))
	require.NoError(t, err)

	require.Len(t, rep.Rows, 1)
	assert.Equal(t, "B071", rep.Rows[0].BranchID)
	assert.Equal(t, model.StatusWaiting, rep.Rows[0].Status)
	assert.Equal(t, 1, mb.Closed)
}

func TestRun_MalformedDateIsWaiting(t *testing.T) {
	ev := openingEvent()
	ev.Date = "sometime in March"
	cal := &testutil.FakeCalendar{Events: []model.Event{ev}}
	mb := &testutil.FakeMailbox{Messages: []testutil.Message{
		{From: sender, Subject: "B071", Date: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)},
	}}

	rep, err := newDriver(cal).Run(context.Background(), now, opener(mb))
	require.NoError(t, err)

	require.Len(t, rep.Rows, 1)
	assert.Equal(t, model.StatusWaiting, rep.Rows[0].Status)
	assert.Empty(t, mb.Queries)
}

func TestRun_RowsInDiscoveryOrder(t *testing.T) {
	cal := &testutil.FakeCalendar{Events: []model.Event{
		{Title: "Visit B-200 and B 100", Date: "2024-02-01T10:00:00+07:00", Description: "follow-up for b200"},
		{Title: "No branch", Date: "2024-02-02"},
		{Title: "Audit", Date: "2024-02-03", Description: "B:300"},
	}}
	mb := &testutil.FakeMailbox{Messages: []testutil.Message{
		{From: sender, Subject: "B100 done", Date: time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC)},
		{From: "stranger@example.com", Subject: "B300 done", Date: time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC)},
	}}

	rep, err := newDriver(cal).Run(context.Background(), now, opener(mb))
	require.NoError(t, err)

	var got []string
	for _, r := range rep.Rows {
		got = append(got, r.BranchID+":"+string(r.Status))
	}
	assert.Equal(t, []string{"B200:Waiting", "B100:Found", "B300:Waiting"}, got)
}

func TestRun_NoEventsDoesNotOpenMailbox(t *testing.T) {
	cal := &testutil.FakeCalendar{}
	opened := false

	_, err := newDriver(cal).Run(context.Background(), now, func(context.Context) (source.Session, error) {
		opened = true
		return &testutil.FakeMailbox{}, nil
	})

	assert.ErrorIs(t, err, ErrNoEvents)
	assert.False(t, opened)
}

func TestRun_NoIdentifiers(t *testing.T) {
	cal := &testutil.FakeCalendar{Events: []model.Event{{Title: "Team lunch", Date: "2024-03-01"}}}
	opened := false

	_, err := newDriver(cal).Run(context.Background(), now, func(context.Context) (source.Session, error) {
		opened = true
		return &testutil.FakeMailbox{}, nil
	})

	assert.ErrorIs(t, err, ErrNoIdentifiers)
	assert.False(t, opened)
}

func TestRun_CalendarError(t *testing.T) {
	cal := &testutil.FakeCalendar{Err: errors.New("404 notFound")}

	_, err := newDriver(cal).Run(context.Background(), now, opener(&testutil.FakeMailbox{}))
	assert.ErrorIs(t, err, ErrCalendar)
	assert.Contains(t, err.Error(), "404 notFound")
}

func TestRun_OpenError(t *testing.T) {
	cal := &testutil.FakeCalendar{Events: []model.Event{openingEvent()}}
	authErr := &source.AuthError{SourceType: source.SourceTypeEmail, Message: "bad password"}

	_, err := newDriver(cal).Run(context.Background(), now, func(context.Context) (source.Session, error) {
		return nil, authErr
	})

	assert.True(t, source.IsAuthError(err))
}

func TestRun_ClosesSessionOnCancel(t *testing.T) {
	cal := &testutil.FakeCalendar{Events: []model.Event{openingEvent()}}
	mb := &testutil.FakeMailbox{}
	ctx, cancel := context.WithCancel(context.Background())

	_, err := newDriver(cal).Run(ctx, now, func(context.Context) (source.Session, error) {
		cancel()
		return mb, nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, mb.Closed)
}

func TestCollect_CapsEvents(t *testing.T) {
	events := make([]model.Event, 300)
	for i := range events {
		events[i] = model.Event{Title: "B100", Date: "2024-03-01"}
	}
	cal := &testutil.FakeCalendar{Events: events}

	plan, err := newDriver(cal).Collect(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxEvents, plan.EventCount)
	assert.Len(t, plan.Items, DefaultMaxEvents)
}

func TestRowsSatisfyTextInvariant(t *testing.T) {
	extractor := crossref.MustNewExtractor("")
	cal := &testutil.FakeCalendar{Events: []model.Event{
		{Title: "Opening b-071", Description: "and B 4567; not B12"},
		{Title: "x", Description: "B12345"},
	}}

	plan, err := newDriver(cal).Collect(context.Background(), now)
	require.NoError(t, err)
	for _, item := range plan.Items {
		assert.Contains(t, extractor.Extract(item.Event.SearchText()), item.BranchID)
	}
}
