package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/branch-tracker/internal/crossref"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultCredentialsFile, cfg.Calendar.CredentialsFile)
	assert.Equal(t, int64(DefaultMaxResults), cfg.Calendar.MaxResults)
	assert.Equal(t, DefaultIMAPPort, cfg.Mailbox.Port)
	assert.True(t, cfg.Mailbox.TLS)
	assert.Equal(t, DefaultFolder, cfg.Mailbox.Folder)
	assert.Equal(t, crossref.DefaultPattern, cfg.Matching.Pattern)
	assert.Equal(t, DefaultReportOutput, cfg.Report.Output)
	assert.Empty(t, cfg.Mailbox.AllowedSenders)
}

func TestLoadConfig_ReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
calendar:
  id: branches@group.calendar.google.com
  max_results: 100
mailbox:
  host: imap.example.com
  username: ops@example.com
  tls: false
  allowed_senders:
    - " Alice@Example.com "
    - alice@example.com
    - bob@example.com
report:
  output: out.csv
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "branches@group.calendar.google.com", cfg.Calendar.ID)
	assert.Equal(t, int64(100), cfg.Calendar.MaxResults)
	assert.Equal(t, "imap.example.com", cfg.Mailbox.Host)
	assert.Equal(t, DefaultIMAPPort, cfg.Mailbox.Port)
	assert.False(t, cfg.Mailbox.TLS)
	assert.Equal(t, []string{"alice@example.com", "bob@example.com"}, cfg.Mailbox.AllowedSenders)
	assert.Equal(t, "out.csv", cfg.Report.Output)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("BRANCHTRACKER_MAILBOX_HOST", "imap.env.example.com")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "imap.env.example.com", cfg.Mailbox.Host)
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultAppConfig()
	cfg.Calendar.ID = "team@example.com"
	cfg.Mailbox.AllowedSenders = []string{"notify@example.com"}
	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "team@example.com", loaded.Calendar.ID)
	assert.Equal(t, []string{"notify@example.com"}, loaded.Mailbox.AllowedSenders)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, StatusFound, StatusFor(true))
	assert.Equal(t, StatusWaiting, StatusFor(false))
}

func TestCountStatuses(t *testing.T) {
	found, waiting := CountStatuses([]ReportRow{
		{Status: StatusFound},
		{Status: StatusWaiting},
		{Status: StatusWaiting},
	})
	assert.Equal(t, 1, found)
	assert.Equal(t, 2, waiting)
}
