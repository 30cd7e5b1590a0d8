package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mirrorfs/statecache/internal/statecache"
)

// SCSNOptions holds flags for the scsn command group.
type SCSNOptions struct {
	*RootOptions
}

// NewSCSNCommand creates the scsn command with its get/set subcommands.
func NewSCSNCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SCSNOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "scsn",
		Short: "Read or write the sync sequence number",
		Long: `Read or write the cache's sync sequence number, the marker that
records which server state the cached snapshot corresponds to.

Examples:
  statecache scsn get --dir /var/lib/mirrorfs --account acct1
  statecache scsn set HqQkgmuY8kM --dir /var/lib/mirrorfs --account acct1`,
	}

	cmd.AddCommand(newSCSNGetCommand(opts))
	cmd.AddCommand(newSCSNSetCommand(opts))

	return cmd
}

func newSCSNGetCommand(opts *SCSNOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "get",
		Short:         "Print the stored sync sequence number",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSCSNGet(opts, cmd)
		},
	}
}

func newSCSNSetCommand(opts *SCSNOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "set <value>",
		Short:         "Overwrite the stored sync sequence number",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSCSNSet(opts, cmd, args[0])
		},
	}
}

func runSCSNGet(opts *SCSNOptions, cmd *cobra.Command) error {
	st, err := openStore(opts.RootOptions)
	if err != nil {
		return err
	}
	defer st.Close()

	scsn, err := st.GetSCSN()
	if statecache.IsNotFound(err) {
		return NewExitError(ExitFailure, "no sync sequence number recorded")
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read sync sequence number", err)
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	if opts.Format == "json" {
		return out.Success(map[string]string{"scsn": string(scsn)})
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(scsn))
	return nil
}

func runSCSNSet(opts *SCSNOptions, cmd *cobra.Command, value string) error {
	st, err := openStore(opts.RootOptions)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.PutSCSN([]byte(value)); err != nil {
		return WrapExitError(ExitCommandError, "failed to write sync sequence number", err)
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	if opts.Format == "json" {
		return out.Success(map[string]string{"scsn": value})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "scsn set to %s\n", value)
	return nil
}
