package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	pkgstrings "padron/pkg/platform/strings"
)

// NewConsultCommand creates the consult command.
func NewConsultCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "consult <dni>...",
		Short: "Look up one or more DNIs",
		Long: `Look up one or more DNIs in the identity registry.

Repeated DNIs are consulted once. The command exits with status 1 when any
lookup fails and keeps going with the remaining DNIs.

Example:
  padron consult 72345678 10203040
  padron consult --format json 72345678`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConsult(rootOpts, cmd, args)
		},
	}
}

func runConsult(opts *RootOptions, cmd *cobra.Command, args []string) error {
	sess, err := newSession(opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	out := newFormatter(opts, cmd)

	failed := 0
	for _, id := range pkgstrings.DedupeAndTrim(args) {
		res, err := sess.Lookup(cmd.Context(), id)
		if err != nil {
			failed++
			if werr := out.failure(id, err); werr != nil {
				return werr
			}
			continue
		}
		if err := out.record(res.Record, res.FromCache, time.Now()); err != nil {
			return err
		}
	}
	if failed > 0 {
		return &ExitError{Code: ExitFailure, Message: fmt.Sprintf("%d lookup(s) failed", failed)}
	}
	return nil
}
