package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/branch-tracker/internal/credential"
	"github.com/nhle/branch-tracker/internal/crossref"
	"github.com/nhle/branch-tracker/internal/lib/logger/sl"
	"github.com/nhle/branch-tracker/internal/matcher"
	"github.com/nhle/branch-tracker/internal/model"
	"github.com/nhle/branch-tracker/internal/prompt"
	"github.com/nhle/branch-tracker/internal/report"
	"github.com/nhle/branch-tracker/internal/source"
	"github.com/nhle/branch-tracker/internal/source/calendar"
	"github.com/nhle/branch-tracker/internal/source/email"
	"github.com/nhle/branch-tracker/internal/store"
	"github.com/nhle/branch-tracker/internal/theme"
)

const reportSteps = 4

type reportOptions struct {
	calendarID string
	output     string
	noHistory  bool
}

func (o *reportOptions) bindFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.calendarID, "calendar", "", "Google Calendar ID (overrides calendar.id)")
	cmd.Flags().StringVarP(&o.output, "output", "o", "", "CSV report path (overrides report.output)")
	cmd.Flags().BoolVar(&o.noHistory, "no-history", false, "Do not record this run in the history database")
}

func newReportCommand(ctx *commandContext) *cobra.Command {
	opts := &reportOptions{}
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate the event/email status report for the current quarter",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, ctx, opts)
		},
	}
	opts.bindFlags(cmd)
	return cmd
}

func runReport(cmd *cobra.Command, cc *commandContext, opts *reportOptions) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	cfg := cc.config
	log := cc.logger

	fmt.Fprintln(out, theme.HeaderStyle.Render("Google Calendar and IMAP Tracker"))

	fmt.Fprintln(out, "\n"+theme.Step(1, reportSteps, "Authenticating with Google Calendar..."))
	creds, err := cc.credentials()
	if err != nil {
		return err
	}
	authz := calendar.NewAuthorizer(
		cfg.Calendar.CredentialsFile,
		calendar.NewKeyringTokenStore(creds),
		consentPrinter(out),
		log,
	)
	ts, err := authz.TokenSource(ctx)
	if err != nil {
		if errors.Is(err, calendar.ErrMissingClientSecrets) {
			return fmt.Errorf("%w\nDownload the OAuth client (Desktop app) JSON from the Google Cloud console and save it as %s, or set calendar.credentials_file", err, cfg.Calendar.CredentialsFile)
		}
		return fmt.Errorf("authenticating with Google Calendar: %w", err)
	}
	calClient, err := calendar.NewClient(ctx, ts)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, theme.SuccessStyle.Render("Authentication successful."))

	calendarID := firstNonEmpty(opts.calendarID, cfg.Calendar.ID)
	prompter := prompt.New()
	if calendarID == "" {
		calendarID, err = prompter.CalendarID()
		if err != nil {
			return err
		}
	}

	extractor, err := crossref.NewExtractor(cfg.Matching.Pattern)
	if err != nil {
		return err
	}
	if len(cfg.Mailbox.AllowedSenders) == 0 {
		log.Warn("mailbox.allowed_senders is empty; emails from any sender will be accepted")
	}

	m := matcher.New(matcher.Config{AllowedSenders: cfg.Mailbox.AllowedSenders}, extractor, log)
	driver := report.NewDriver(
		report.Options{CalendarID: calendarID, MaxEvents: cfg.Calendar.MaxResults},
		calClient, extractor, m, log,
	)

	fmt.Fprintf(out, "\n%s\n", theme.Step(2, reportSteps,
		fmt.Sprintf("Fetching calendar events for the current quarter from '%s'...", calendarID)))

	startedAt := time.Now()
	rep, err := driver.Run(ctx, startedAt, mailboxOpener(out, cfg, creds, prompter, log))
	switch {
	case errors.Is(err, report.ErrNoEvents):
		fmt.Fprintln(out, theme.WarningStyle.Render("No events found for the current quarter in the specified calendar."))
		return nil
	case errors.Is(err, report.ErrNoIdentifiers):
		fmt.Fprintln(out, theme.WarningStyle.Render("No Branch IDs found in any calendar events this quarter. Exiting."))
		return nil
	case errors.Is(err, report.ErrCalendar):
		return fmt.Errorf("%w\nPlease check that the calendar ID is correct and that you have access to it", err)
	case source.IsAuthError(err):
		return fmt.Errorf("IMAP error: could not log in, please check credentials: %w", err)
	case err != nil:
		return fmt.Errorf("unexpected error: %w", err)
	}

	output := firstNonEmpty(opts.output, cfg.Report.Output)
	if err := report.WriteCSVFile(output, rep.Rows); err != nil {
		return err
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, report.RenderSummary(rep.Rows))

	if !opts.noHistory {
		recordRun(ctx, out, cc, log, model.Run{
			StartedAt:    startedAt,
			CalendarID:   calendarID,
			QuarterStart: rep.Start,
			QuarterEnd:   rep.End,
			OutputPath:   output,
			Rows:         rep.Rows,
		})
	}

	fmt.Fprintln(out, theme.SuccessStyle.Render(
		fmt.Sprintf("\nProcessing complete. Report saved to '%s'", output)))
	return nil
}

// mailboxOpener prompts for missing IMAP settings and opens the
// session. It only runs once the calendar produced branch IDs.
func mailboxOpener(
	out io.Writer,
	cfg *model.AppConfig,
	creds *credential.Store,
	prompter *prompt.Prompter,
	log *slog.Logger,
) report.SessionOpener {
	return func(ctx context.Context) (source.Session, error) {
		fmt.Fprintf(out, "\n%s\n", theme.Step(3, reportSteps, "Connecting to IMAP server..."))

		login := prompt.MailboxLogin{
			Host:     cfg.Mailbox.Host,
			Username: cfg.Mailbox.Username,
		}
		if login.Username != "" {
			if pw, err := creds.Get(credential.IMAPKey(login.Username)); err == nil {
				login.Password = pw
			} else {
				log.Debug("no stored IMAP password", sl.Err(err))
			}
		}

		login, err := prompter.Mailbox(login)
		if err != nil {
			return nil, err
		}

		client := email.NewIMAPClient(email.Config{
			Host:     login.Host,
			Port:     cfg.Mailbox.Port,
			Username: login.Username,
			Password: login.Password,
			TLS:      cfg.Mailbox.TLS,
			Folder:   cfg.Mailbox.Folder,
		})
		session, err := client.Open(ctx)
		if err != nil {
			return nil, err
		}
		fmt.Fprintln(out, theme.SuccessStyle.Render("IMAP connection successful."))

		if login.Remember {
			if err := creds.Set(credential.IMAPKey(login.Username), login.Password); err != nil {
				log.Warn("could not store IMAP password", sl.Err(err))
			}
		}

		fmt.Fprintf(out, "\n%s\n", theme.Step(4, reportSteps, "Cross-referencing with email subjects and generating report..."))
		if len(cfg.Mailbox.AllowedSenders) > 0 {
			fmt.Fprintln(out, theme.HelpStyle.Render(
				"Filtering for emails from: "+strings.Join(cfg.Mailbox.AllowedSenders, ", ")))
		}
		return session, nil
	}
}

// recordRun stores the run and prints status changes since the
// previous run. History problems never fail the report.
func recordRun(ctx context.Context, out io.Writer, cc *commandContext, log *slog.Logger, run model.Run) {
	err := cc.withStore(func(s store.Store) error {
		prev, err := s.LatestRun(ctx)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			log.Warn("could not load previous run", sl.Err(err))
		}

		id, err := s.SaveRun(ctx, run)
		if err != nil {
			return err
		}
		log.Debug("recorded run", slog.String("run_id", id))

		if prev != nil {
			printChanges(out, report.Changes(prev.Rows, run.Rows))
		}
		return nil
	})
	if err != nil {
		log.Warn("could not record run history", sl.Err(err))
	}
}

func printChanges(out io.Writer, changes []report.Change) {
	if len(changes) == 0 {
		return
	}
	fmt.Fprintln(out, "Changes since the previous run:")
	for _, c := range changes {
		fmt.Fprintf(out, "  %s %s: %s -> %s\n",
			c.BranchID, theme.HelpStyle.Render(c.EventKey),
			theme.StatusStyle(c.From).Render(string(c.From)),
			theme.StatusStyle(c.To).Render(string(c.To)),
		)
	}
}

func consentPrinter(out io.Writer) calendar.ConsentFunc {
	return func(authURL string) {
		fmt.Fprintln(out, "Open this URL in your browser to grant read-only calendar access:")
		fmt.Fprintln(out, authURL)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
