package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// WipeOptions holds flags for the wipe command.
type WipeOptions struct {
	*RootOptions
	Yes bool
}

// NewWipeCommand creates the wipe command.
func NewWipeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WipeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "wipe",
		Short: "Delete the account's backing database file",
		Long: `Close and delete the cache's backing file entirely, including the
handle-obfuscation keys. Reopening the account creates a brand new store
with fresh keys.

Examples:
  statecache wipe --dir /var/lib/mirrorfs --account acct1 --yes`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWipe(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Yes, "yes", false, "confirm the destructive operation")

	return cmd
}

func runWipe(opts *WipeOptions, cmd *cobra.Command) error {
	if !opts.Yes {
		return NewExitError(ExitFailure, "refusing to wipe without --yes")
	}

	st, err := openStore(opts.RootOptions)
	if err != nil {
		return err
	}

	stats, err := st.Stats()
	if err != nil {
		st.Close()
		return WrapExitError(ExitCommandError, "failed to read cache stats", err)
	}
	if err := st.Remove(); err != nil {
		return WrapExitError(ExitCommandError, "failed to remove cache", err)
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	if opts.Format == "json" {
		return out.Success(map[string]string{"removed": stats.Path})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", stats.Path)
	return nil
}
