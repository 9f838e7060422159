package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/nhle/branch-tracker/internal/crossref"
)

// Defaults applied when a key is absent from the config file.
const (
	DefaultCredentialsFile = "credentials.json"
	DefaultMaxResults      = 250
	DefaultIMAPPort        = "993"
	DefaultFolder          = "INBOX"
	DefaultPattern         = crossref.DefaultPattern
	DefaultReportOutput    = "event_email_report.csv"
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"
)

// envPrefix prefixes environment overrides, e.g. BRANCHTRACKER_MAILBOX_HOST.
const envPrefix = "BRANCHTRACKER"

// CalendarConfig holds the Google Calendar settings.
type CalendarConfig struct {
	// ID is the calendar to read, e.g. someone@example.com or a
	// ...@group.calendar.google.com identifier. Prompted when empty.
	ID string `mapstructure:"id" yaml:"id"`

	// CredentialsFile is the OAuth client secrets JSON downloaded from
	// the Google Cloud console.
	CredentialsFile string `mapstructure:"credentials_file" yaml:"credentials_file"`

	// MaxResults caps the number of events listed per run.
	MaxResults int64 `mapstructure:"max_results" yaml:"max_results"`
}

// MailboxConfig holds the IMAP settings. The password is never stored
// here; it is prompted for or read from the system keyring.
type MailboxConfig struct {
	Host           string   `mapstructure:"host" yaml:"host"`
	Port           string   `mapstructure:"port" yaml:"port"`
	Username       string   `mapstructure:"username" yaml:"username"`
	TLS            bool     `mapstructure:"tls" yaml:"tls"`
	Folder         string   `mapstructure:"folder" yaml:"folder"`
	AllowedSenders []string `mapstructure:"allowed_senders" yaml:"allowed_senders"`
}

// MatchingConfig holds the branch identifier pattern.
type MatchingConfig struct {
	Pattern string `mapstructure:"pattern" yaml:"pattern"`
}

// ReportConfig controls where report output and run history go.
type ReportConfig struct {
	Output    string `mapstructure:"output" yaml:"output"`
	HistoryDB string `mapstructure:"history_db" yaml:"history_db"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Calendar CalendarConfig `mapstructure:"calendar" yaml:"calendar"`
	Mailbox  MailboxConfig  `mapstructure:"mailbox" yaml:"mailbox"`
	Matching MatchingConfig `mapstructure:"matching" yaml:"matching"`
	Report   ReportConfig   `mapstructure:"report" yaml:"report"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
}

// configDir returns ~/.config/branchtracker, or the working directory
// when the home directory cannot be resolved.
func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "branchtracker")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/branchtracker/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

// DefaultHistoryPath returns the default run history database path.
func DefaultHistoryPath() string {
	return filepath.Join(configDir(), "history.db")
}

// DefaultAppConfig returns the configuration used when no file exists.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		Calendar: CalendarConfig{
			CredentialsFile: DefaultCredentialsFile,
			MaxResults:      DefaultMaxResults,
		},
		Mailbox: MailboxConfig{
			Port:           DefaultIMAPPort,
			TLS:            true,
			Folder:         DefaultFolder,
			AllowedSenders: []string{},
		},
		Matching: MatchingConfig{Pattern: DefaultPattern},
		Report: ReportConfig{
			Output:    DefaultReportOutput,
			HistoryDB: DefaultHistoryPath(),
		},
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// setDefaults registers every key so that env overrides resolve even
// when the file omits them.
func setDefaults(v *viper.Viper) {
	d := DefaultAppConfig()
	v.SetDefault("calendar.id", d.Calendar.ID)
	v.SetDefault("calendar.credentials_file", d.Calendar.CredentialsFile)
	v.SetDefault("calendar.max_results", d.Calendar.MaxResults)
	v.SetDefault("mailbox.host", d.Mailbox.Host)
	v.SetDefault("mailbox.port", d.Mailbox.Port)
	v.SetDefault("mailbox.username", d.Mailbox.Username)
	v.SetDefault("mailbox.tls", d.Mailbox.TLS)
	v.SetDefault("mailbox.folder", d.Mailbox.Folder)
	v.SetDefault("mailbox.allowed_senders", d.Mailbox.AllowedSenders)
	v.SetDefault("matching.pattern", d.Matching.Pattern)
	v.SetDefault("report.output", d.Report.Output)
	v.SetDefault("report.history_db", d.Report.HistoryDB)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, defaults (plus environment overrides) are
// returned.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); !ok {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Calendar.MaxResults <= 0 {
		cfg.Calendar.MaxResults = DefaultMaxResults
	}
	if cfg.Mailbox.Folder == "" {
		cfg.Mailbox.Folder = DefaultFolder
	}
	if cfg.Matching.Pattern == "" {
		cfg.Matching.Pattern = DefaultPattern
	}
	cfg.Mailbox.AllowedSenders = cleanSenders(cfg.Mailbox.AllowedSenders)

	return cfg, nil
}

// cleanSenders trims, lower-cases and deduplicates sender addresses.
func cleanSenders(senders []string) []string {
	seen := make(map[string]bool, len(senders))
	out := make([]string, 0, len(senders))
	for _, s := range senders {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("calendar", cfg.Calendar)
	v.Set("mailbox", cfg.Mailbox)
	v.Set("matching", cfg.Matching)
	v.Set("report", cfg.Report)
	v.Set("log", cfg.Log)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
