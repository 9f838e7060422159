// Package matcher confirms branch identifiers against mailbox subjects.
package matcher

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nhle/branch-tracker/internal/crossref"
	"github.com/nhle/branch-tracker/internal/lib/logger/sl"
	"github.com/nhle/branch-tracker/internal/source"
	"github.com/nhle/branch-tracker/internal/source/email"
)

// dateLayout is the date part of an ISO 8601 date or date-time.
const dateLayout = "2006-01-02"

// Config holds the matching policy.
type Config struct {
	// AllowedSenders are the From addresses accepted as notifications.
	AllowedSenders []string
}

// Matcher searches a mailbox for a notification about a branch.
//
// The server-side search narrows candidates by raw subject substring;
// the subject of each candidate is then decoded and re-extracted so
// that only a normalized identifier match counts.
type Matcher struct {
	cfg       Config
	extractor *crossref.Extractor
	log       *slog.Logger
}

// New creates a Matcher.
func New(cfg Config, extractor *crossref.Extractor, log *slog.Logger) *Matcher {
	return &Matcher{cfg: cfg, extractor: extractor, log: log}
}

// ParseReferenceDate parses "2024-03-01" or "2024-03-01T09:00:00+07:00"
// and returns midnight UTC of the date part.
func ParseReferenceDate(s string) (time.Time, error) {
	datePart, _, _ := strings.Cut(strings.TrimSpace(s), "T")
	d, err := time.Parse(dateLayout, datePart)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing event date %q: %w", s, err)
	}
	return d, nil
}

// Match reports whether a message from an allowed sender, dated on or
// after referenceDate, has a subject containing id. Failures never
// propagate: they are logged and count as no match.
func (m *Matcher) Match(
	ctx context.Context,
	mb source.Mailbox,
	id string,
	referenceDate string,
) bool {
	log := m.log.With(slog.String("branch_id", id))

	since, err := ParseReferenceDate(referenceDate)
	if err != nil {
		log.Warn("skipping email check, could not parse event date", sl.Err(err))
		return false
	}

	ids, err := mb.SearchMessages(ctx, source.MailQuery{
		Since:   since,
		Subject: id,
		Senders: m.cfg.AllowedSenders,
	})
	if err != nil {
		log.Warn("mailbox search failed", sl.Err(err))
		return false
	}
	if len(ids) == 0 {
		return false
	}

	log.Debug("verifying candidates", slog.Int("candidates", len(ids)))

	for _, msgID := range ids {
		if ctx.Err() != nil {
			return false
		}

		raw, err := mb.FetchMessage(ctx, msgID)
		if err != nil {
			log.Debug("skipping message", slog.Uint64("uid", uint64(msgID)), sl.Err(err))
			continue
		}

		subject, err := email.SubjectFromMessage(raw)
		if err != nil {
			log.Debug("skipping message", slog.Uint64("uid", uint64(msgID)), sl.Err(err))
			continue
		}

		if m.extractor.Contains(subject, id) {
			log.Info("verified branch in email subject", slog.String("subject", truncate(subject, 60)))
			return true
		}
	}

	return false
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
