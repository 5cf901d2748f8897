package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SHREYANK007/LMS-sub003/database"
	"github.com/SHREYANK007/LMS-sub003/handlers"
	"github.com/SHREYANK007/LMS-sub003/jobs"
	"github.com/SHREYANK007/LMS-sub003/routes"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run migrations, then serve the HTTP API and background jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			a, err := newApplication(cfg, log)
			if err != nil {
				return err
			}
			defer a.close()
			return a.serve(cmd.Context())
		},
	}
}

func (a *application) serve(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.Migrate(ctx, a.db); err != nil {
		return err
	}
	if err := database.SeedAdmin(ctx, a.db, a.cfg, a.logger); err != nil {
		return err
	}

	go a.hub.Run(ctx)

	scheduler := jobs.NewScheduler(a.logger.Named("jobs"))
	reminders, err := jobs.NewReminderJob(a.requests, a.notifier, a.metrics, a.logger.Named("reminders"), a.cfg.ReminderCron)
	if err != nil {
		return err
	}
	if err := scheduler.Add(a.cfg.ReminderCron, reminders); err != nil {
		return err
	}
	if err := scheduler.Add(a.cfg.ReconcileCron, jobs.NewReconcileJob(a.service)); err != nil {
		return err
	}
	scheduler.Start()
	defer scheduler.Stop()

	deps := handlers.Deps{
		Users:       a.users,
		Requests:    a.service,
		Hub:         a.hub,
		JWTSecret:   a.cfg.JWTSecret,
		JWTExpiry:   a.cfg.JWTExpiry,
		FrontendURL: a.cfg.FrontendURL,
		Logger:      a.logger.Named("http"),
	}
	if a.google != nil {
		deps.Calendar = a.google
		deps.Linker = a.google
	}

	app := a.newFiberApp()
	routes.Setup(app, handlers.New(deps), a.registry)

	go func() {
		<-ctx.Done()
		a.logger.Info("Shutting down server")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			a.logger.Error("Server shutdown failed", zap.Error(err))
		}
	}()

	a.logger.Info("Server is running", zap.String("port", a.cfg.Port))
	return app.Listen(":" + a.cfg.Port)
}

func (a *application) newFiberApp() *fiber.App {
	app := fiber.New(fiber.Config{
		Prefork:       false,
		AppName:       "Tutoring LMS",
		CaseSensitive: true,
		StrictRouting: true,
		ReadTimeout:   15 * time.Second,
		WriteTimeout:  15 * time.Second,
		IdleTimeout:   60 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}

			a.logger.Error("Unhandled request error",
				zap.Error(err),
				zap.String("path", c.Path()),
				zap.String("method", c.Method()),
			)
			return c.Status(code).JSON(fiber.Map{
				"success": false,
				"error":   err.Error(),
			})
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:  a.cfg.FrontendURL,
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowMethods:  "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders: "Content-Length, Content-Disposition",
		MaxAge:        86400,
	}))
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "UTC",
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	return app
}
