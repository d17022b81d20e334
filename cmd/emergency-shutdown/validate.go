package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/fgeck/emergency-shutdown/internal/models"
	"github.com/fgeck/emergency-shutdown/internal/services/shutdown"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newValidateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [action]",
		Short: "Validate configuration and platform support",
		Long: `Validate the configuration file and report whether this platform can perform
an emergency shutdown. Nothing is shut down and no privilege is changed.

An optional action (noreboot, reboot, poweroff) limits the action table to it.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.MaximumNArgs(1)(cmd, args); err != nil {
				return &usageError{Err: err}
			}
			return nil
		},
		RunE: opts.validateConfig,
	}
}

func (o *options) validateConfig(cmd *cobra.Command, args []string) error {
	actions := models.ShutdownActions
	if len(args) == 1 {
		action, err := models.ParseShutdownAction(args[0])
		if err != nil {
			return &usageError{Err: err}
		}
		actions = []models.ShutdownAction{action}
	}

	if o.configFile != "" {
		// Check if file exists
		if _, err := os.Stat(o.configFile); os.IsNotExist(err) {
			log.Error().Str("file", o.configFile).Msg("config file not found")
			return fmt.Errorf("config file not found: %s", o.configFile)
		}
	}

	cfg, err := o.loadConfig()
	if err != nil {
		return err
	}

	platformErr := shutdown.New(log.Logger).CheckPlatform()

	out := cmd.OutOrStdout()

	// Print configuration summary
	fmt.Fprintln(out, "Configuration is valid!")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Summary:")
	if o.configFile != "" {
		fmt.Fprintf(out, "  Config file: %s\n", o.configFile)
	} else {
		fmt.Fprintln(out, "  Config file: (none, using defaults)")
	}
	fmt.Fprintf(out, "  Host: %s\n", cfg.Host)
	fmt.Fprintf(out, "  Notify timeout: %s\n", cfg.NotifyTimeout)
	fmt.Fprintf(out, "  Telegram: %v\n", cfg.Telegram != nil)
	if cfg.Telegram != nil {
		fmt.Fprintf(out, "    Chat ID: %s\n", cfg.Telegram.ChatID)
		fmt.Fprintln(out, "    Bot Token: (configured)")
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Platform:")
	fmt.Fprintf(out, "  OS: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if platformErr != nil {
		fmt.Fprintf(out, "  Supported: false (%s)\n", platformErr)
	} else {
		fmt.Fprintln(out, "  Supported: true")
	}
	fmt.Fprintf(out, "  Required privilege: %s\n", models.ShutdownPrivilege)

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Actions:")
	for _, action := range actions {
		fmt.Fprintf(out, "  --%-9s -> %s (%d)\n", action, shutdown.RequestFlag(action), uint32(shutdown.RequestFlag(action)))
	}

	return nil
}
