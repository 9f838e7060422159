package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/nhle/branch-tracker/internal/credential"
	"github.com/nhle/branch-tracker/internal/logging"
	"github.com/nhle/branch-tracker/internal/model"
	"github.com/nhle/branch-tracker/internal/store"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *model.AppConfig
	logger     *slog.Logger
	configErr  error

	credsOnce sync.Once
	creds     *credential.Store
	credsErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) configPath() string {
	if c.configFlag != nil {
		if path := strings.TrimSpace(*c.configFlag); path != "" {
			return path
		}
	}
	return model.DefaultConfigPath()
}

// ensureConfig loads configuration and builds the logger once.
func (c *commandContext) ensureConfig(cmd *cobra.Command) (*model.AppConfig, error) {
	c.configOnce.Do(func() {
		cfg, err := model.LoadConfig(c.configPath())
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			cfg.Log.Level = *c.logLevelFlag
		}

		logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())
		if err != nil {
			c.configErr = fmt.Errorf("configuring logger: %w", err)
			return
		}

		c.config = cfg
		c.logger = logger
	})
	return c.config, c.configErr
}

// credentials opens the system keyring once.
func (c *commandContext) credentials() (*credential.Store, error) {
	c.credsOnce.Do(func() {
		c.creds, c.credsErr = credential.Open()
	})
	return c.creds, c.credsErr
}

// withStore opens the run history database for the duration of fn.
func (c *commandContext) withStore(fn func(store.Store) error) error {
	s, err := store.NewSQLiteStore(c.config.Report.HistoryDB)
	if err != nil {
		return fmt.Errorf("opening run history: %w", err)
	}
	defer s.Close()
	return fn(s)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
