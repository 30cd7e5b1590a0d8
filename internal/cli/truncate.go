package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// TruncateOptions holds flags for the truncate command.
type TruncateOptions struct {
	*RootOptions
	Yes bool
}

// NewTruncateCommand creates the truncate command.
func NewTruncateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TruncateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "truncate",
		Short: "Delete every cached row, forcing a full resync",
		Long: `Delete every row from all cache tables while keeping the schema.
The next sync session rebuilds the snapshot from scratch.

Examples:
  statecache truncate --dir /var/lib/mirrorfs --account acct1 --yes`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTruncate(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Yes, "yes", false, "confirm the destructive operation")

	return cmd
}

func runTruncate(opts *TruncateOptions, cmd *cobra.Command) error {
	if !opts.Yes {
		return NewExitError(ExitFailure, "refusing to truncate without --yes")
	}

	st, err := openStore(opts.RootOptions)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Truncate(); err != nil {
		return WrapExitError(ExitCommandError, "failed to truncate cache", err)
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	if opts.Format == "json" {
		return out.Success(map[string]string{"result": "truncated"})
	}
	fmt.Fprintln(cmd.OutOrStdout(), "cache truncated")
	return nil
}
