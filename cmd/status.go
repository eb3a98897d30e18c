package cmd

import (
	"context"
	"fmt"

	"purchase-reconciler/core/config"
	"purchase-reconciler/core/logger"
	"purchase-reconciler/core/reconcile"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// statusCmd shows the local order record and whether a run would do anything.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the local order record and whether reconciliation is needed",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(".")
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		l, err := logger.New(&cfg.Log)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		defer l.Sync()

		store, err := openStore(cfg, l)
		if err != nil {
			return err
		}

		record, err := reconcile.LoadRecord(context.Background(), store)
		if err != nil {
			return err
		}

		l.Info("Local order record",
			zap.String("account_id", cfg.Billing.AccountID),
			zap.String("order_id", record.OrderID),
			zap.String("payment_id", record.PaymentID),
			zap.Bool("needs_reconciliation", reconcile.NeedsReconciliation(record)),
		)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(statusCmd)
}
