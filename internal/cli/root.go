package cli

import (
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"padron/internal/audit"
	"padron/internal/identity/history"
	"padron/internal/identity/registry"
	"padron/internal/identity/service"
	"padron/internal/identity/session"
	"padron/internal/platform/config"
	"padron/internal/platform/logger"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Token      string
	Format     string // "json" | "text"
	Verbose    bool
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the padron CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "padron",
		Short: "Consult the national identity registry",
		Long: `Consult the national identity registry by DNI.

Successful lookups are remembered for the rest of the session, so the same
DNI is never fetched twice. Configuration is shared with the server
(PADRON_CONFIG, PADRON_REGISTRY_URL, PADRON_REGISTRY_TOKEN, ...).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return &ExitError{Code: ExitCommandError, Message: fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats)}
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", os.Getenv(config.EnvConfigPath), "path to YAML config file")
	cmd.PersistentFlags().StringVar(&opts.Token, "token", "", "registry credential for this session (overrides the configured token)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log lookups and audit events to stderr")

	cmd.AddCommand(NewConsultCommand(opts))
	cmd.AddCommand(NewShellCommand(opts))

	return cmd
}

// newSession wires a lookup session from configuration.
func newSession(opts *RootOptions, errOut io.Writer) (*session.Session, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load configuration", err)
	}

	level := "warn"
	if opts.Verbose {
		level = "debug"
	}
	log, err := logger.NewWithWriter(errOut, level, cfg.Log.Format)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to build logger", err)
	}

	client, err := registry.NewClient(registry.Config{
		BaseURL:    cfg.Registry.URL,
		Token:      cfg.Registry.Token,
		QueryParam: cfg.Registry.QueryParam,
	})
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to build registry client", err)
	}

	svc := service.New(client,
		service.WithLogger(log),
		service.WithAuditPublisher(audit.NewPublisher([]audit.Sink{audit.NewLogSink(log)})),
	)
	return session.New(svc,
		session.WithCredential(opts.Token),
		session.WithHistory(history.New(history.WithCapacity(cfg.History.Capacity))),
	), nil
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *formatter {
	return &formatter{format: opts.Format, out: cmd.OutOrStdout(), errOut: cmd.ErrOrStderr()}
}

