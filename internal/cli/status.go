package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mirrorfs/statecache/internal/statecache"
)

// StatusOptions holds flags for the status command.
type StatusOptions struct {
	*RootOptions
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatusOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Summarize a state cache",
		Long: `Open an account's state cache and print row counts per table
plus whether a sync sequence number has been recorded.

Examples:
  statecache status --dir /var/lib/mirrorfs --account acct1
  statecache status --config mirrorfs.yaml --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(opts, cmd)
		},
	}

	return cmd
}

func runStatus(opts *StatusOptions, cmd *cobra.Command) error {
	st, err := openStore(opts.RootOptions)
	if err != nil {
		return err
	}
	defer st.Close()

	stats, err := st.Stats()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read cache stats", err)
	}

	out := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	if opts.Format == "json" {
		return out.Success(stats)
	}
	fmt.Fprint(cmd.OutOrStdout(), renderStatus(stats))
	return nil
}

// renderStatus formats cache stats as aligned text.
func renderStatus(st statecache.Stats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Store:            %s\n", st.Path)
	fmt.Fprintf(&b, "Nodes:            %d\n", st.Nodes)
	fmt.Fprintf(&b, "Users:            %d\n", st.Users)
	fmt.Fprintf(&b, "Pending requests: %d\n", st.PendingRequests)
	fmt.Fprintf(&b, "Scalar slots:     %d\n", st.ScalarSlots)
	fmt.Fprintf(&b, "SCSN present:     %t\n", st.HasSCSN)
	return b.String()
}
