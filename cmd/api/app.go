package main

import (
	"github.com/SHREYANK007/LMS-sub003/calendar"
	config "github.com/SHREYANK007/LMS-sub003/configs"
	"github.com/SHREYANK007/LMS-sub003/database"
	"github.com/SHREYANK007/LMS-sub003/metrics"
	"github.com/SHREYANK007/LMS-sub003/notifications"
	"github.com/SHREYANK007/LMS-sub003/services"
	"github.com/SHREYANK007/LMS-sub003/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// application holds the wired dependencies shared by the commands.
type application struct {
	cfg      *config.Config
	logger   *zap.Logger
	db       *gorm.DB
	users    *database.UserStore
	requests *database.SessionRequestStore
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	mailer   notifications.Mailer
	notifier *notifications.Notifier
	hub      *websocket.Hub
	google   *calendar.Google
	service  *services.SessionRequestService
}

func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.RequireDatabase(); err != nil {
		return nil, nil, err
	}
	return cfg, config.NewLogger(cfg.Environment), nil
}

func newApplication(cfg *config.Config, logger *zap.Logger) (*application, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}

	app := &application{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		users:    database.NewUserStore(db),
		requests: database.NewSessionRequestStore(db),
		registry: prometheus.NewRegistry(),
		hub:      websocket.NewHub(logger.Named("websocket")),
	}
	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	app.metrics = metrics.New(app.registry)
	app.mailer = notifications.NewMailer(cfg.Email, logger.Named("mail"))
	app.notifier = notifications.NewNotifier(app.mailer, cfg.FrontendURL)

	opts := services.Options{
		Requests:       app.requests,
		Users:          app.users,
		OrganizerEmail: cfg.Google.OrganizerEmail,
		Notifier:       app.notifier,
		Publisher:      app.hub,
		Metrics:        app.metrics,
		Logger:         logger.Named("session_requests"),
	}
	if cfg.CalendarEnabled() {
		app.google = calendar.NewGoogle(cfg.Google, app.users, logger.Named("calendar"))
		opts.Calendar = app.google
	} else {
		logger.Warn("GOOGLE_CLIENT_ID or GOOGLE_CLIENT_SECRET not set, calendar events are disabled")
	}
	app.service = services.NewSessionRequestService(opts)
	return app, nil
}

// close waits for queued e-mails and releases the database.
func (a *application) close() {
	if w, ok := a.mailer.(interface{ Wait() }); ok {
		w.Wait()
	}
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = a.logger.Sync()
}
