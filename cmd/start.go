package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"infra-inventory/core/config"
	"infra-inventory/core/loader"
	"infra-inventory/core/logger"
	"infra-inventory/core/middleware/auth"
	"infra-inventory/core/middleware/rayid"

	"infra-inventory/feature/integrity"
	"infra-inventory/feature/vmsync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "infra-inventory/docs/swagger"
)

// @title Infra Inventory API
// @version 1.0
// @description API for the virtual machine inventory and its sync engine.
// @host localhost:8080
// @BasePath /

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the inventory server and sync scheduler",
	Long:  `Starts the HTTP server, initializes all enabled features and runs the periodic VM sync.`,
	Run: func(cmd *cobra.Command, args []string) {
		// 1. Load Configuration
		cfg, err := config.LoadConfig(".")
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
		if err := cfg.Server.Validate(); err != nil {
			log.Fatalf("Invalid server configuration: %v", err)
		}

		// 2. Initialize Logger
		logg, err := logger.New(&cfg.Log)
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
		defer logg.Sync()
		logg = logg.With(zap.String("server", cfg.Server.Name))
		zap.ReplaceGlobals(logg)

		// 3. Wire database, storage, metrics, events and the orchestrator
		rt, err := newRuntime(cmd.Context(), cfg, logg)
		if err != nil {
			logg.Fatal("Failed to initialize runtime", zap.Error(err))
		}

		// 4. Initialize Fiber App
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true,
		})

		// 5. Initialize Feature Loader
		mgr := loader.NewManager()
		mgr.Register(vmsync.NewFeature(rt.service()))
		mgr.Register(integrity.NewFeature(rt.storage, cfg.Storage.Bucket, []string{cfg.Sync.ReportPrefix}, logg, rt.db))

		// RayID must be first so every later log line carries it.
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

		// Swagger stays public; everything else needs the API key.
		app.Get("/swagger/*", swagger.HandlerDefault)
		app.Use(auth.New(auth.Config{ApiKey: cfg.Server.ApiKey, Skip: []string{"/swagger"}}))

		loaded, err := mgr.LoadAll(app)
		if err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}
		logg.Info("Features loaded", zap.Strings("features", loaded))

		// 6. Start Scheduler
		sched := vmsync.NewScheduler(logg, schedulerJobs(rt)...)
		schedCtx, stopScheduler := context.WithCancel(context.Background())
		schedDone := make(chan struct{})
		go func() {
			defer close(schedDone)
			sched.Start(schedCtx)
		}()

		// 7. Start Server
		go func() {
			logg.Info("Starting server", zap.String("port", cfg.Server.Port))
			if err := app.Listen(cfg.Server.Address()); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		// 8. Graceful Shutdown
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")
		_ = app.Shutdown()

		stopScheduler()
		<-schedDone
		logg.Info("Waiting for in-flight sync runs")
		sched.Wait()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		rt.close(ctx)
	},
}

// schedulerJobs returns the VM sync job and, when reports are archived with a
// retention, a daily prune job.
func schedulerJobs(rt *runtime) []vmsync.Job {
	jobs := []vmsync.Job{vmsync.SyncJob(rt.cfg.Sync, rt.orchestrator)}

	days := rt.cfg.Sync.ReportRetentionDays
	if rt.archive == nil || days <= 0 {
		return jobs
	}
	retention := time.Duration(days) * 24 * time.Hour
	return append(jobs, vmsync.Job{
		Name:     "report-prune",
		Interval: 24 * time.Hour,
		Run: func(ctx context.Context) {
			removed, err := rt.archive.Prune(ctx, time.Now(), retention)
			if err != nil {
				rt.logger.Warn("Failed to prune sync reports", zap.Error(err))
				return
			}
			rt.logger.Info("Pruned sync reports", zap.Int("removed", removed), zap.Int("retention_days", days))
		},
	})
}

func init() {
	RootCmd.AddCommand(startCmd)
}
