package wandercms

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// SiteConfig holds all configuration for a wandercms site.
type SiteConfig struct {
	Name        string // Site name (default "WanderCMS")
	URL         string // Canonical URL (default "http://localhost:3000")
	Description string // Site description for RSS and meta tags
	Author      string // Author name for JSON-LD

	Addr         string // Listen address (default ":3000")
	DatabasePath string // SQLite path (default "data/wandercms.db")
	MediaRoot    string // Upload storage root (default "media")
	StaticDir    string // User-owned static assets (default "public")

	SessionSecret string // Required: session encryption secret
	CookieSecure  bool   // Set true for HTTPS

	LogLevel string // logrus level (default "info")

	SMTPHost         string // Mail transport host; contact delivery fails soft when unset
	SMTPPort         int    // Mail transport port (default 587)
	SMTPUsername     string
	SMTPPassword     string
	ContactRecipient string // Fixed site-operator address for contact mail
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "WanderCMS"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/wandercms.db"
	}
	if c.MediaRoot == "" {
		c.MediaRoot = "media"
	}
	if c.StaticDir == "" {
		c.StaticDir = "public"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.SMTPPort == 0 {
		c.SMTPPort = 587
	}
}

// LoadConfig builds a SiteConfig from environment variables. A .env file in
// the working directory is loaded first when present.
func LoadConfig() SiteConfig {
	_ = godotenv.Load()

	cfg := SiteConfig{
		Name:             EnvOr("SITE_NAME", ""),
		URL:              strings.TrimSuffix(os.Getenv("SITE_URL"), "/"),
		Description:      os.Getenv("SITE_DESCRIPTION"),
		Author:           os.Getenv("SITE_AUTHOR"),
		Addr:             os.Getenv("LISTEN_ADDR"),
		DatabasePath:     os.Getenv("DATABASE_PATH"),
		MediaRoot:        os.Getenv("MEDIA_ROOT"),
		StaticDir:        os.Getenv("STATIC_DIR"),
		SessionSecret:    os.Getenv("SESSION_SECRET"),
		CookieSecure:     strings.EqualFold(os.Getenv("COOKIE_SECURE"), "true"),
		LogLevel:         os.Getenv("LOG_LEVEL"),
		SMTPHost:         os.Getenv("SMTP_HOST"),
		SMTPPort:         envInt("SMTP_PORT", 0),
		SMTPUsername:     os.Getenv("SMTP_USERNAME"),
		SMTPPassword:     os.Getenv("SMTP_PASSWORD"),
		ContactRecipient: os.Getenv("CONTACT_RECIPIENT"),
	}
	cfg.setDefaults()
	return cfg
}

// Option configures additional App behavior.
type Option func(*App)

// WithMailer overrides the mail transport, mainly for tests.
func WithMailer(m Mailer) Option {
	return func(a *App) {
		a.mailer = m
	}
}

// WithLogger overrides the logrus logger the app was going to construct.
func WithLogger(l *logrus.Logger) Option {
	return func(a *App) {
		a.Logger = l
	}
}

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// NewLogger constructs a logrus logger with JSON output and the given level.
func NewLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	parsed, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		parsed = logrus.InfoLevel
	}
	logger.SetLevel(parsed)
	return logger
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// MustEnv returns the value of the environment variable key, or fatally exits if empty.
func MustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		logrus.Fatalf("required environment variable %s is not set", key)
	}
	return v
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n := 0
	for _, r := range v {
		if r < '0' || r > '9' {
			return fallback
		}
		n = n*10 + int(r-'0')
	}
	return n
}
