package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"purchase-reconciler/core/config"
	"purchase-reconciler/core/logger"
	"purchase-reconciler/core/orders"
	"purchase-reconciler/core/reconcile"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	orderIDFlag   string
	paymentIDFlag string
	listenFlag    bool
	jsonFlag      bool
)

// reconcileCmd runs a single reconciliation pass.
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Run one purchase reconciliation pass",
	Long: `Reads the local order record and, when no order id was stored for the pending
payment, acknowledges every unacknowledged purchase the billing provider reports.

Examples:
  # Read the local record from the database
  reconcile

  # Use identifiers from the command line instead of the database
  reconcile --payment-id P1

  # Keep the session open and acknowledge pushed updates until interrupted
  reconcile --listen

  # Print the run report as JSON
  reconcile --json`,
	RunE: runReconcile,
}

func init() {
	reconcileCmd.Flags().StringVar(&orderIDFlag, "order-id", "", "Local order id (skips the database)")
	reconcileCmd.Flags().StringVar(&paymentIDFlag, "payment-id", "", "Local payment id (skips the database)")
	reconcileCmd.Flags().BoolVar(&listenFlag, "listen", false, "Keep the session open for pushed updates until interrupted")
	reconcileCmd.Flags().BoolVar(&jsonFlag, "json", false, "Print the run report as JSON")

	RootCmd.AddCommand(reconcileCmd)
}

func runReconcile(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer l.Sync()

	store, err := selectStore(cmd, cfg, l)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc := buildServices(ctx, cfg, l, store)
	defer svc.Close()

	report, err := svc.engine.Run(ctx)
	if err != nil {
		return fmt.Errorf("reconciliation failed: %w", err)
	}

	if listenFlag && svc.engine.State() == reconcile.StateReady {
		l.Info("Listening for purchase updates, press Ctrl+C to stop")
		<-ctx.Done()
		report = svc.engine.LastReport()
	}

	if jsonFlag {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	printRunReport(l, report)
	return nil
}

// selectStore prefers identifiers given as flags over the database.
func selectStore(cmd *cobra.Command, cfg *config.Config, l *zap.Logger) (orders.Store, error) {
	if cmd.Flags().Changed("order-id") || cmd.Flags().Changed("payment-id") {
		return orders.StaticStore{Order: orderIDFlag, Payment: paymentIDFlag}, nil
	}
	store, err := openStore(cfg, l)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// printRunReport prints a run report using the logger.
func printRunReport(l *zap.Logger, r *reconcile.RunReport) {
	if r.Skipped {
		l.Info("Nothing to reconcile, local order present",
			zap.String("run_id", r.RunID),
			zap.String("order_id", r.OrderID),
		)
		return
	}

	fields := []zap.Field{
		zap.String("run_id", r.RunID),
		zap.String("payment_id", r.PaymentID),
		zap.String("stage", string(r.Stage)),
		zap.Int("purchases", r.Purchases),
		zap.Int("already_acknowledged", r.Summary.AlreadyAcknowledged),
		zap.Int("acknowledged", r.Summary.Acknowledged),
		zap.Int("failed", r.Summary.Failed),
	}
	if r.Error != "" {
		fields = append(fields, zap.String("error", r.Error))
	}

	if r.Succeeded() {
		l.Info("Reconciliation report", fields...)
	} else {
		l.Warn("Reconciliation report", fields...)
	}

	for _, o := range r.Outcomes {
		if o.Status == reconcile.StatusFailed {
			l.Warn("Purchase not acknowledged",
				zap.String("order_id", o.OrderID),
				zap.String("code", o.Code),
				zap.String("source", string(o.Source)),
			)
		}
	}
}
