package cmd

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"purchase-reconciler/core/config"
	"purchase-reconciler/core/loader"
	"purchase-reconciler/core/logger"
	"purchase-reconciler/core/middleware/auth"
	"purchase-reconciler/core/middleware/rayid"
	"purchase-reconciler/core/reconcile"

	"purchase-reconciler/feature/reconciliation"
	"purchase-reconciler/feature/reports"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the reconciliation server",
	Long: `Starts the HTTP server, initializes all enabled features and, unless disabled,
runs one reconciliation pass at startup.`,
	Run: func(cmd *cobra.Command, args []string) {
		// 1. Load Configuration
		cfg, err := config.LoadConfig(".")
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		// 2. Initialize Logger
		logg, err := logger.New(&cfg.Log)
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
		defer logg.Sync()
		zap.ReplaceGlobals(logg)
		logg = logg.With(zap.String("account_id", cfg.Billing.AccountID))

		// 3. Connect to the local order database
		store, err := openStore(cfg, logg)
		if err != nil {
			logg.Fatal("Failed to open local order store", zap.Error(err))
		}

		// 4. Wire engine, provider client, feed and archive
		ctx := context.Background()
		svc := buildServices(ctx, cfg, logg, store)
		defer svc.Close()

		app := fiber.New(fiber.Config{
			DisableStartupMessage: true,
		})

		// 5. Register Features
		mgr := loader.NewManager(logg)
		mgr.Register(reconciliation.NewFeature(svc.engine, logg))
		mgr.Register(reports.NewFeature(svc.archive, logg))

		// RayID must be first to trace everything
		app.Use(rayid.New())

		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		app.Get("/health", func(c *fiber.Ctx) error {
			return c.JSON(fiber.Map{"status": "ok", "state": svc.engine.State()})
		})

		app.Use(auth.New(auth.Config{
			ApiKey: cfg.Server.ApiKey,
			Next:   func(c *fiber.Ctx) bool { return c.Path() == "/health" },
		}))
		if !cfg.Server.IsProtected() {
			logg.Warn("API key not configured, endpoints are unprotected")
		}

		if err := mgr.LoadAll(app); err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}

		// 6. Start Server
		go func() {
			logg.Info("Starting server", zap.String("port", cfg.Server.Port))
			if err := app.Listen(cfg.Server.Address()); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		// 7. Startup reconciliation
		if cfg.Server.RunOnStart {
			go func() {
				if _, err := svc.engine.Run(ctx); err != nil && !errors.Is(err, reconcile.ErrClosed) {
					logg.Error("Startup reconciliation failed", zap.Error(err))
				}
			}()
		}

		// 8. Graceful Shutdown
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")
		_ = app.Shutdown()
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
