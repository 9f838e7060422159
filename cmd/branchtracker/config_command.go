package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/branch-tracker/internal/crossref"
	"github.com/nhle/branch-tracker/internal/model"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigValidateCommand(ctx))

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				target = model.DefaultConfigPath()
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := model.SaveConfig(target, model.DefaultAppConfig()); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Edit calendar.id, mailbox.host, mailbox.username and mailbox.allowed_senders before running branchtracker.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.config
			if _, err := crossref.NewExtractor(cfg.Matching.Pattern); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			path := ctx.configPath()
			fmt.Fprintf(out, "Config path: %s\n", path)
			if _, err := os.Stat(path); os.IsNotExist(err) {
				fmt.Fprintln(out, "Config file did not exist; defaults were used")
			}
			if _, err := os.Stat(cfg.Calendar.CredentialsFile); os.IsNotExist(err) {
				fmt.Fprintf(out, "Warning: OAuth client secrets not found at %s\n", cfg.Calendar.CredentialsFile)
			}
			if len(cfg.Mailbox.AllowedSenders) == 0 {
				fmt.Fprintln(out, "Warning: mailbox.allowed_senders is empty; any sender will match")
			}
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}
