// Package prompt asks for run-time inputs that are missing from
// configuration.
package prompt

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
)

// MailboxLogin holds the interactive IMAP inputs.
type MailboxLogin struct {
	Host     string
	Username string
	Password string
	Remember bool
}

// Runner runs a form. Tests substitute it to avoid a terminal.
type Runner func(*huh.Form) error

// Prompter builds and runs huh forms.
type Prompter struct {
	run Runner
}

// New returns a Prompter that runs forms on the terminal.
func New() *Prompter {
	return &Prompter{run: func(f *huh.Form) error { return f.Run() }}
}

// NewWithRunner returns a Prompter using run.
func NewWithRunner(run Runner) *Prompter {
	return &Prompter{run: run}
}

// CalendarID asks for the calendar identifier.
func (p *Prompter) CalendarID() (string, error) {
	var id string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Google Calendar ID").
				Description("e.g. yourname@gmail.com or a long ...@group.calendar.google.com ID").
				Value(&id).
				Validate(validateRequired("Calendar ID")),
		),
	)
	if err := p.run(form); err != nil {
		return "", fmt.Errorf("reading calendar ID: %w", err)
	}
	return strings.TrimSpace(id), nil
}

// Mailbox asks for whichever of host, username and password are empty
// in login. The password is masked.
func (p *Prompter) Mailbox(login MailboxLogin) (MailboxLogin, error) {
	var fields []huh.Field

	if login.Host == "" {
		fields = append(fields, huh.NewInput().
			Title("IMAP Host").
			Description("IMAP server hostname").
			Placeholder("imap.gmail.com").
			Value(&login.Host).
			Validate(validateRequired("IMAP Host")))
	}
	if login.Username == "" {
		fields = append(fields, huh.NewInput().
			Title("Email address").
			Placeholder("user@example.com").
			Value(&login.Username).
			Validate(validateRequired("Email address")))
	}
	if login.Password == "" {
		fields = append(fields,
			huh.NewInput().
				Title("Password").
				Description("Email account password or app password").
				EchoMode(huh.EchoModePassword).
				Value(&login.Password).
				Validate(validateRequired("Password")),
			huh.NewConfirm().
				Title("Remember password in the system keyring?").
				Affirmative("Yes").
				Negative("No").
				Value(&login.Remember),
		)
	}

	if len(fields) == 0 {
		return login, nil
	}

	if err := p.run(huh.NewForm(huh.NewGroup(fields...))); err != nil {
		return login, fmt.Errorf("reading mailbox login: %w", err)
	}

	login.Host = strings.TrimSpace(login.Host)
	login.Username = strings.TrimSpace(login.Username)
	return login, nil
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}
