package prompt

import (
	"errors"
	"testing"

	"github.com/charmbracelet/huh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMailbox_NothingMissingSkipsForm(t *testing.T) {
	p := NewWithRunner(func(*huh.Form) error {
		t.Fatal("form must not run")
		return nil
	})

	in := MailboxLogin{Host: "imap.example.com", Username: "ops@example.com", Password: "pw"}
	out, err := p.Mailbox(in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestMailbox_AbortIsError(t *testing.T) {
	calls := 0
	p := NewWithRunner(func(*huh.Form) error {
		calls++
		return huh.ErrUserAborted
	})

	_, err := p.Mailbox(MailboxLogin{Host: "imap.example.com"})
	assert.True(t, errors.Is(err, huh.ErrUserAborted))
	assert.Equal(t, 1, calls)
}

func TestCalendarID_AbortIsError(t *testing.T) {
	p := NewWithRunner(func(*huh.Form) error { return huh.ErrUserAborted })

	_, err := p.CalendarID()
	assert.True(t, errors.Is(err, huh.ErrUserAborted))
}

func TestValidateRequired(t *testing.T) {
	v := validateRequired("Password")
	assert.EqualError(t, v("  "), "Password is required")
	assert.NoError(t, v("x"))
}
