package cmd

import (
	"fmt"
	"io"

	"finance_tracker/internal/events"
	"finance_tracker/internal/ledger"

	"github.com/spf13/cobra"
)

var (
	reconcileUser uint
	reconcileFix  bool
)

// reconcileCmd recomputes balances from transactions.
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Check stored balances against their transactions",
	Long: `Recompute every account balance from its baseline and the recorded
transactions, and report accounts whose stored balance disagrees.
Transactions whose account no longer exists are listed as orphans.

With --fix, drifted balances are overwritten with the recomputed value.

Example:
  ledgerctl reconcile
  ledgerctl reconcile --user 42 --fix`,
	Run: runReconcile,
}

func init() {
	reconcileCmd.Flags().UintVar(&reconcileUser, "user", 0, "only check this user's accounts (default all users)")
	reconcileCmd.Flags().BoolVar(&reconcileFix, "fix", false, "overwrite drifted balances")
}

func runReconcile(cmd *cobra.Command, args []string) {
	cfg, gdb, err := openDB()
	exitOnError(err, "failed to open database")

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.AMQPURL != "" {
		rabbit, err := events.NewRabbitMQPublisher(cfg.AMQPURL, cfg.AMQPQueue)
		exitOnError(err, "failed to connect to RabbitMQ")
		defer rabbit.Close()
		publisher = rabbit
	}

	svc := ledger.NewService(gdb, publisher, cfg.MaxRetries)
	report, err := svc.Reconcile(cmd.Context(), reconcileUser, reconcileFix)
	exitOnError(err, "reconciliation failed")

	printReport(cmd.OutOrStdout(), report)
}

// printReport writes a human-readable reconciliation summary
func printReport(w io.Writer, report *ledger.ReconcileReport) {
	fmt.Fprintln(w, "\n=== Reconciliation ===")
	fmt.Fprintf(w, "Accounts checked: %d\n", report.Checked)
	fmt.Fprintf(w, "Drifted accounts: %d\n", len(report.Drifts))
	for _, d := range report.Drifts {
		status := "not fixed"
		if d.Fixed {
			status = "fixed"
		}
		fmt.Fprintf(w, "  %s (user %d): stored %s, expected %s, delta %s [%s]\n",
			d.AccountID, d.UserID, d.Stored, d.Expected, d.Delta, status)
	}
	fmt.Fprintf(w, "Orphan transactions: %d\n", len(report.Orphans))
	for _, t := range report.Orphans {
		fmt.Fprintf(w, "  %s (user %d, account %s): %s %s\n", t.ID, t.UserID, t.AccountID, t.Type, t.Amount)
	}
	fmt.Fprintln(w)
}
