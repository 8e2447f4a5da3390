package cmd

import (
	"github.com/spf13/cobra"

	"rentaiagent/internal/config"
	"rentaiagent/internal/logging"
)

var (
	outboxJSON  bool
	outboxClear bool
)

// outboxCmd shows emails that could not be sent
var outboxCmd = &cobra.Command{
	Use:   "outbox",
	Short: "List emails recorded locally when sending failed",
	Long: `List the registration emails that neither email endpoint accepted.
They are kept (the most recent ones only) so they can be sent by hand.`,
	Args: cobra.NoArgs,
	RunE: runOutbox,
}

func init() {
	rootCmd.AddCommand(outboxCmd)
	outboxCmd.Flags().BoolVar(&outboxJSON, "json", false, "print JSON including the registration data")
	outboxCmd.Flags().BoolVar(&outboxClear, "clear", false, "remove all recorded emails")
}

func runOutbox(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime(config.Get(), logging.Logger)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	w := newWriter(cmd.OutOrStdout())

	if outboxClear {
		if err := rt.outbox.Clear(ctx); err != nil {
			return err
		}
		w.Success("Outbox cleared")
		return nil
	}

	entries, err := rt.outbox.List(ctx)
	if err != nil {
		return err
	}
	if outboxJSON {
		return printJSON(cmd.OutOrStdout(), entries)
	}
	if len(entries) == 0 {
		w.Info("Outbox is empty")
		return nil
	}
	t := w.NewTable("RECORDED", "ID", "TO", "SUBJECT")
	for _, e := range entries {
		t.AddRow(e.Timestamp.Format("2006-01-02 15:04:05"), e.ID, e.To, e.Subject)
	}
	t.Render()
	return nil
}
