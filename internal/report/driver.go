// Package report drives calendar-to-mailbox reconciliation and writes
// its results.
package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nhle/branch-tracker/internal/crossref"
	"github.com/nhle/branch-tracker/internal/lib/logger/sl"
	"github.com/nhle/branch-tracker/internal/model"
	"github.com/nhle/branch-tracker/internal/source"
)

// DefaultMaxEvents is the page size of the single calendar request.
const DefaultMaxEvents = 250

var (
	// ErrNoEvents means the calendar had no events this quarter.
	ErrNoEvents = errors.New("no events found for the current quarter")

	// ErrNoIdentifiers means no event mentioned a branch identifier.
	ErrNoIdentifiers = errors.New("no branch IDs found in any calendar event this quarter")

	// ErrCalendar wraps failures of the calendar listing.
	ErrCalendar = errors.New("fetching calendar events")
)

// BranchMatcher decides whether a branch notification email exists.
type BranchMatcher interface {
	Match(ctx context.Context, mb source.Mailbox, id, referenceDate string) bool
}

// SessionOpener opens the mailbox session used for matching.
type SessionOpener func(ctx context.Context) (source.Session, error)

// Pending is an (event, identifier) pair awaiting a mailbox check.
type Pending struct {
	Event    model.Event
	BranchID string
}

// Plan is the result of scanning the calendar.
type Plan struct {
	Start, End time.Time
	EventCount int
	Items      []Pending
}

// Report is a completed reconciliation.
type Report struct {
	Start, End time.Time
	EventCount int
	Rows       []model.ReportRow
}

// Options configures a Driver.
type Options struct {
	CalendarID string
	MaxEvents  int64
}

// Driver reconciles one quarter of calendar events against a mailbox.
type Driver struct {
	opts      Options
	calendar  source.EventLister
	extractor *crossref.Extractor
	matcher   BranchMatcher
	log       *slog.Logger
}

// NewDriver creates a Driver.
func NewDriver(
	opts Options,
	calendar source.EventLister,
	extractor *crossref.Extractor,
	matcher BranchMatcher,
	log *slog.Logger,
) *Driver {
	if opts.MaxEvents <= 0 {
		opts.MaxEvents = DefaultMaxEvents
	}
	return &Driver{
		opts:      opts,
		calendar:  calendar,
		extractor: extractor,
		matcher:   matcher,
		log:       log,
	}
}

// Collect lists the quarter's events and extracts their identifiers.
func (d *Driver) Collect(ctx context.Context, now time.Time) (*Plan, error) {
	start, end := QuarterBounds(now)

	events, err := d.calendar.ListEvents(ctx, d.opts.CalendarID, start, end, d.opts.MaxEvents)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCalendar, err)
	}
	if len(events) == 0 {
		return nil, ErrNoEvents
	}

	plan := &Plan{Start: start, End: end, EventCount: len(events)}
	for _, ev := range events {
		for _, id := range d.extractor.Extract(ev.SearchText()) {
			plan.Items = append(plan.Items, Pending{Event: ev, BranchID: id})
		}
	}

	d.log.Info("scanned calendar",
		slog.Int("events", plan.EventCount),
		slog.Int("branch_refs", len(plan.Items)),
	)

	if len(plan.Items) == 0 {
		return plan, ErrNoIdentifiers
	}
	return plan, nil
}

// Resolve checks every pending item against mb, in plan order.
func (d *Driver) Resolve(ctx context.Context, mb source.Mailbox, plan *Plan) ([]model.ReportRow, error) {
	rows := make([]model.ReportRow, 0, len(plan.Items))
	for _, item := range plan.Items {
		if err := ctx.Err(); err != nil {
			return rows, err
		}

		d.log.Debug("searching mailbox",
			slog.String("branch_id", item.BranchID),
			slog.String("event_date", item.Event.Date),
		)

		found := d.matcher.Match(ctx, mb, item.BranchID, item.Event.Date)
		rows = append(rows, model.ReportRow{
			EventTitle: item.Event.Title,
			EventDate:  item.Event.Date,
			BranchID:   item.BranchID,
			Status:     model.StatusFor(found),
		})
	}
	return rows, nil
}

// Run collects the plan, opens a mailbox session only when there is
// something to check, resolves every item and closes the session on
// every path.
func (d *Driver) Run(ctx context.Context, now time.Time, open SessionOpener) (*Report, error) {
	plan, err := d.Collect(ctx, now)
	if err != nil {
		return nil, err
	}

	session, err := open(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := session.Close(); closeErr != nil {
			d.log.Warn("closing mailbox session", sl.Err(closeErr))
		}
	}()

	rows, err := d.Resolve(ctx, session, plan)
	if err != nil {
		return nil, err
	}

	return &Report{
		Start:      plan.Start,
		End:        plan.End,
		EventCount: plan.EventCount,
		Rows:       rows,
	}, nil
}
