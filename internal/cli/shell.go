package cli

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

const shellPrompt = "padron> "

// NewShellCommand creates the interactive shell command.
func NewShellCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive lookup session with history",
		Long: `Start an interactive lookup session.

Type a DNI (or several, separated by spaces) to look it up. DNIs already
found in this session are answered from history.

Commands:
  history   list successful lookups, most recent first
  help      show this help
  exit      leave the shell (also quit or end of input)`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runShell(rootOpts, cmd)
		},
	}
}

func runShell(opts *RootOptions, cmd *cobra.Command) error {
	sess, err := newSession(opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	out := newFormatter(opts, cmd)
	w := cmd.OutOrStdout()
	scanner := bufio.NewScanner(cmd.InOrStdin())

	for {
		if opts.Format == "text" {
			fmt.Fprint(w, shellPrompt)
		}
		if !scanner.Scan() {
			break
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch strings.ToLower(fields[0]) {
		case "exit", "quit":
			return nil
		case "help":
			fmt.Fprintln(w, cmd.Long)
			continue
		case "history":
			if err := out.history(sess.History()); err != nil {
				return err
			}
			continue
		}
		for _, id := range fields {
			res, err := sess.Lookup(cmd.Context(), id)
			if err != nil {
				if werr := out.failure(id, err); werr != nil {
					return werr
				}
				continue
			}
			if err := out.record(res.Record, res.FromCache, time.Now()); err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return WrapExitError(ExitCommandError, "failed to read input", err)
	}
	return nil
}
