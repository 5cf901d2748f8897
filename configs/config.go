package config

import (
	"errors"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type GoogleConfig struct {
	ClientID       string
	ClientSecret   string
	RedirectURL    string
	CalendarID     string
	OrganizerEmail string
	TimeZone       string
}

type EmailConfig struct {
	SendGridAPIKey string
	SenderEmail    string
	SenderName     string
}

type Config struct {
	Environment string
	Port        string
	DatabaseURL string
	FrontendURL string

	JWTSecret string
	JWTExpiry time.Duration

	AdminEmail    string
	AdminPassword string
	AdminFullName string

	Google GoogleConfig
	Email  EmailConfig

	ReminderCron  string
	ReconcileCron string
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetTypeByDefaultValue(true)
	v.SetDefault("ENV", "development")
	v.SetDefault("PORT", "8080")
	v.SetDefault("JWT_EXPIRY", 72*time.Hour)
	v.SetDefault("ADMIN_FULL_NAME", "Administrator")
	v.SetDefault("GOOGLE_CALENDAR_ID", "primary")
	v.SetDefault("CALENDAR_TIMEZONE", "UTC")
	v.SetDefault("EMAIL_SENDER_NAME", "Tutoring LMS")
	v.SetDefault("REMINDER_CRON", "*/5 * * * *")
	v.SetDefault("RECONCILE_CRON", "*/15 * * * *")
	v.SetDefault("FRONTEND_URL", "http://localhost:3000")
	v.AutomaticEnv()
	return v
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("Warning: .env file not found, reading from system environment variables")
	}

	v := newViper()
	cfg := &Config{
		Environment: v.GetString("ENV"),
		Port:        v.GetString("PORT"),
		DatabaseURL: v.GetString("DATABASE_URL"),
		FrontendURL: v.GetString("FRONTEND_URL"),

		JWTSecret: v.GetString("JWT_SECRET"),
		JWTExpiry: v.GetDuration("JWT_EXPIRY"),

		AdminEmail:    v.GetString("ADMIN_EMAIL"),
		AdminPassword: v.GetString("ADMIN_PASSWORD"),
		AdminFullName: v.GetString("ADMIN_FULL_NAME"),

		Google: GoogleConfig{
			ClientID:       v.GetString("GOOGLE_CLIENT_ID"),
			ClientSecret:   v.GetString("GOOGLE_CLIENT_SECRET"),
			RedirectURL:    v.GetString("GOOGLE_REDIRECT_URL"),
			CalendarID:     v.GetString("GOOGLE_CALENDAR_ID"),
			OrganizerEmail: v.GetString("CALENDAR_ORGANIZER_EMAIL"),
			TimeZone:       v.GetString("CALENDAR_TIMEZONE"),
		},
		Email: EmailConfig{
			SendGridAPIKey: v.GetString("SENDGRID_API_KEY"),
			SenderEmail:    v.GetString("EMAIL_SENDER"),
			SenderName:     v.GetString("EMAIL_SENDER_NAME"),
		},

		ReminderCron:  v.GetString("REMINDER_CRON"),
		ReconcileCron: v.GetString("RECONCILE_CRON"),
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required but not set")
	}
	return cfg, nil
}

// RequireDatabase fails when no database connection string is configured.
func (c *Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required but not set")
	}
	return nil
}

// CalendarEnabled reports whether Google OAuth credentials are configured.
func (c *Config) CalendarEnabled() bool {
	return c.Google.ClientID != "" && c.Google.ClientSecret != ""
}
