package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Pull remote changes and upload pending plans once",
	Args:  cobra.NoArgs,
	RunE:  runSync,
}

var errSyncDisabled = errors.New("BABYPLATE_REMOTE_URL is not set")

func runSync(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	rt, err := openRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()
	if rt.engine == nil {
		return errSyncDisabled
	}

	report, err := rt.engine.Sync(ctx)
	if jsonOutput {
		if werr := writeJSON(cmd.OutOrStdout(), report); werr != nil {
			return werr
		}
		return err
	}
	printReport(cmd.OutOrStdout(), report)
	return err
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show recent merge decisions",
	Args:  cobra.NoArgs,
	RunE:  runAudit,
}

var auditLimit int

func init() {
	auditCmd.Flags().IntVar(&auditLimit, "limit", 20, "Number of entries, 0 for all")
}

func runAudit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	rt, err := openRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	entries, err := rt.plans.AuditLog(ctx, auditLimit)
	if err != nil {
		return err
	}
	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), entries)
	}
	printAudit(cmd.OutOrStdout(), entries)
	return nil
}
