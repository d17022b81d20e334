package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fgeck/emergency-shutdown/internal/config"
	"github.com/fgeck/emergency-shutdown/internal/models"
	"github.com/fgeck/emergency-shutdown/internal/services/runner"
	"github.com/fgeck/emergency-shutdown/internal/services/shutdown"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Version is set at build time.
var Version = "dev"

// Process exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// Long flag aliases kept for compatibility with the ShutdownXxx action names.
var flagAliases = map[string]string{
	"ShutdownNoReboot": "noreboot",
	"ShutdownReboot":   "reboot",
	"ShutdownPowerOff": "poweroff",
}

// usageError marks errors caused by the command line rather than the shutdown.
type usageError struct {
	Err error
}

func (e *usageError) Error() string { return e.Err.Error() }

func (e *usageError) Unwrap() error { return e.Err }

type runnerFactory func(logger zerolog.Logger) runner.Service

type options struct {
	// Configuration flags.
	configFile string
	verbose    bool
	quiet      bool
	jsonOutput bool

	// Action flags, exactly one must be set.
	noReboot bool
	reboot   bool
	powerOff bool

	newRunner runnerFactory
}

func newRootCmd(newRunner runnerFactory) *cobra.Command {
	opts := &options{newRunner: newRunner}

	cmd := &cobra.Command{
		Use:   "emergency-shutdown (-n | -r | -p)",
		Short: "Force an immediate halt, reboot or power-off",
		Long: `emergency-shutdown enables SeShutdownPrivilege for its own process and then
asks the kernel (NtShutdownSystem) to halt, reboot or power off the machine
immediately. Running applications are NOT notified and unsaved work is lost.

Requires administrator rights. Windows only.`,
		Example: `  emergency-shutdown --poweroff
  emergency-shutdown -r --config /etc/emergency-shutdown.yaml`,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.NoArgs(cmd, args); err != nil {
				return &usageError{Err: err}
			}
			return nil
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(cmd.OutOrStdout(), opts)
		},
		RunE:          opts.runShutdown,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "config file (optional)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose (debug) output")
	cmd.PersistentFlags().BoolVarP(&opts.quiet, "quiet", "q", false, "enable quiet mode (errors only)")
	cmd.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "output logs in JSON format")

	cmd.Flags().BoolVarP(&opts.noReboot, "noreboot", "n", false, "halt the system (alias --ShutdownNoReboot)")
	cmd.Flags().BoolVarP(&opts.reboot, "reboot", "r", false, "emergency reboot (alias --ShutdownReboot)")
	cmd.Flags().BoolVarP(&opts.powerOff, "poweroff", "p", false, "emergency power off (alias --ShutdownPowerOff)")

	cmd.SetGlobalNormalizationFunc(normalizeFlagName)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{Err: err}
	})

	cmd.AddCommand(newValidateCmd(opts))

	return cmd
}

func normalizeFlagName(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	if canonical, ok := flagAliases[name]; ok {
		name = canonical
	}
	return pflag.NormalizedName(name)
}

func setupLogging(out io.Writer, opts *options) {
	// Set output format
	if opts.jsonOutput {
		log.Logger = zerolog.New(out).With().Timestamp().Logger()
	} else {
		output := zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
		output.FormatLevel = func(i interface{}) string {
			if s, ok := i.(string); ok {
				return strings.ToUpper(s)
			}
			return ""
		}
		log.Logger = zerolog.New(output).With().Timestamp().Logger()
	}

	// Set log level
	switch {
	case opts.quiet:
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case opts.verbose:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// selectedAction returns the single action chosen on the command line.
func (o *options) selectedAction() (models.ShutdownAction, error) {
	var selected []models.ShutdownAction
	if o.noReboot {
		selected = append(selected, models.NoReboot)
	}
	if o.reboot {
		selected = append(selected, models.Reboot)
	}
	if o.powerOff {
		selected = append(selected, models.PowerOff)
	}

	switch len(selected) {
	case 0:
		return 0, errors.New("one of the arguments -n/--noreboot -r/--reboot -p/--poweroff is required")
	case 1:
		return selected[0], nil
	default:
		names := make([]string, len(selected))
		for i, a := range selected {
			names[i] = "--" + a.String()
		}
		return 0, fmt.Errorf("arguments %s are mutually exclusive", strings.Join(names, ", "))
	}
}

// loadConfig reads the config file if one was given, defaults otherwise.
func (o *options) loadConfig() (*models.Config, error) {
	if o.configFile == "" {
		return config.Defaults(), nil
	}

	cfg, err := config.NewParser().LoadFile(o.configFile)
	if err != nil {
		log.Error().Err(err).Str("file", o.configFile).Msg("failed to load config")
		return nil, err
	}

	if err := config.Validate(cfg); err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		return nil, err
	}

	return cfg, nil
}

func (o *options) runShutdown(cmd *cobra.Command, args []string) error {
	action, err := o.selectedAction()
	if err != nil {
		return &usageError{Err: err}
	}

	cfg, err := o.loadConfig()
	if err != nil {
		return err
	}

	log.Debug().
		Str("config", o.configFile).
		Str("host", cfg.Host).
		Bool("telegram", cfg.Telegram != nil).
		Msg("configuration loaded")

	err = o.newRunner(log.Logger).Run(cmd.Context(), *cfg, action)
	logShutdownError(err, action)
	return err
}

func logShutdownError(err error, action models.ShutdownAction) {
	if err == nil {
		return
	}

	event := log.Error().Err(err).Stringer("action", action).Str("kind", errorKind(err))

	var reqErr *shutdown.ShutdownRequestError
	if errors.As(err, &reqErr) {
		event = event.Stringer("status", reqErr.Status)
	}

	event.Msg("emergency shutdown failed")
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, shutdown.ErrUnsupportedPlatform):
		return "UnsupportedPlatformError"
	case errors.Is(err, shutdown.ErrPrivilegeLookup):
		return "PrivilegeLookupError"
	case errors.Is(err, shutdown.ErrPrivilegeAdjustment):
		return "PrivilegeAdjustmentError"
	case errors.Is(err, shutdown.ErrShutdownRequest):
		return "ShutdownRequestError"
	default:
		return "Error"
	}
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	return execute(newRootCmd(func(logger zerolog.Logger) runner.Service {
		return runner.New(logger)
	}), os.Args[1:], os.Stderr)
}

func execute(cmd *cobra.Command, args []string, stderr io.Writer) int {
	cmd.SetArgs(args)

	executed, err := cmd.ExecuteC()
	if err == nil {
		return exitOK
	}

	var usageErr *usageError
	if errors.As(err, &usageErr) {
		// pflag reports a bad flag before cobra looks at --help.
		if helpRequested(args) {
			if helpErr := executed.Help(); helpErr != nil {
				fmt.Fprintf(stderr, "Error: %s\n", helpErr)
				return exitFailure
			}
			return exitOK
		}
		fmt.Fprint(stderr, executed.UsageString())
		fmt.Fprintf(stderr, "\n[ERROR] %s\n", usageErr.Err)
		return exitUsage
	}

	fmt.Fprintf(stderr, "Error: %s\n", err)
	return exitFailure
}

func helpRequested(args []string) bool {
	for _, arg := range args {
		switch {
		case arg == "--":
			return false
		case arg == "-h", arg == "--help", strings.HasPrefix(arg, "--help="):
			return arg != "--help=false"
		}
	}
	return false
}
