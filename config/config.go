package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

type DBConfig struct {
	Driver string // postgres or sqlite
	URL    string
}

type JWTConfig struct {
	Secret string
	Issuer string
	Expiry time.Duration
}

type StudioConfig struct {
	Name         string
	Address      string
	ContactEmail string
	Currency     string
	TaxRate      float64 // percent
	Timezone     string
}

// Location returns the studio timezone, falling back to UTC when the
// configured zone is unknown.
func (s StudioConfig) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

type LoggerConfig struct {
	Mode       string // production or development
	FileEnable bool
	Filename   string
}

type GenAIConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxAttempts int
	Timeout     time.Duration
}

type TwilioConfig struct {
	AccountSID     string
	AuthToken      string
	PhoneNumber    string
	WhatsAppNumber string
}

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

type TelegramConfig struct {
	Token        string
	AdminChatIDs []int64
}

type Config struct {
	AppEnv            string
	Port              string
	DB                DBConfig
	JWT               JWTConfig
	AdminEmails       []string
	AdminPasswordHash string
	Studio            StudioConfig
	AllowedOrigins    []string
	Logger            LoggerConfig
	GenAI             GenAIConfig
	Twilio            TwilioConfig
	SMTP              SMTPConfig
	Telegram          TelegramConfig
	ReminderSpec      string
	SeedCatalog       bool
}

// Load reads .env (when present) and the process environment. Missing
// credentials are not an error here; the components that need them report
// themselves unavailable instead.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	cfg := &Config{
		AppEnv: env("APP_ENV", "development"),
		Port:   env("PORT", "8080"),
		DB: DBConfig{
			Driver: env("DB_DRIVER", "postgres"),
			URL:    env("DB_URL", ""),
		},
		JWT: JWTConfig{
			Secret: env("JWT_SECRET", ""),
			Issuer: env("JWT_ISSUER", "blakwhyte-studio"),
			Expiry: time.Duration(cast.ToInt(env("JWT_EXPIRY_HOURS", "24"))) * time.Hour,
		},
		AdminEmails:       list(env("ADMIN_EMAILS", "")),
		AdminPasswordHash: env("ADMIN_PASSWORD_HASH", ""),
		Studio: StudioConfig{
			Name:         env("STUDIO_NAME", "Blak Whyte Studio"),
			Address:      env("STUDIO_ADDRESS", "123 Style Avenue, Cape Town"),
			ContactEmail: env("STUDIO_EMAIL", "hello@blakwhyte.studio"),
			Currency:     env("STUDIO_CURRENCY", "ZAR"),
			TaxRate:      cast.ToFloat64(env("STUDIO_TAX_RATE", "0")),
			Timezone:     env("STUDIO_TIMEZONE", "Africa/Johannesburg"),
		},
		AllowedOrigins: list(env("CORS_ORIGINS", "http://localhost:3000")),
		Logger: LoggerConfig{
			Mode:       env("LOG_MODE", "development"),
			FileEnable: env("LOG_FILE", "") != "",
			Filename:   env("LOG_FILE", ""),
		},
		GenAI: GenAIConfig{
			APIKey:      env("GEMINI_API_KEY", ""),
			Model:       env("GEMINI_MODEL", "gemini-2.0-flash"),
			BaseURL:     env("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
			MaxAttempts: cast.ToInt(env("GEMINI_MAX_ATTEMPTS", "3")),
			Timeout:     cast.ToDuration(env("GEMINI_TIMEOUT", "30s")),
		},
		Twilio: TwilioConfig{
			AccountSID:     env("TWILIO_ACCOUNT_SID", ""),
			AuthToken:      env("TWILIO_AUTH_TOKEN", ""),
			PhoneNumber:    env("TWILIO_PHONE_NUMBER", ""),
			WhatsAppNumber: env("TWILIO_WHATSAPP_NUMBER", ""),
		},
		SMTP: SMTPConfig{
			Host:     env("SMTP_HOST", ""),
			Port:     cast.ToInt(env("SMTP_PORT", "587")),
			User:     env("SMTP_USER", ""),
			Password: env("SMTP_PASSWORD", ""),
			From:     env("SMTP_FROM", ""),
		},
		Telegram: TelegramConfig{
			Token: env("TELEGRAM_BOT_TOKEN", ""),
		},
		ReminderSpec: env("REMINDER_CRON", "0 9 * * *"),
		SeedCatalog:  cast.ToBool(env("SEED_CATALOG", "true")),
	}
	for _, id := range list(env("TELEGRAM_ADMIN_CHATS", "")) {
		if chat := cast.ToInt64(id); chat != 0 {
			cfg.Telegram.AdminChatIDs = append(cfg.Telegram.AdminChatIDs, chat)
		}
	}
	return cfg, nil
}

// IsAdminEmail reports whether email is on the administrator allowlist.
func (c *Config) IsAdminEmail(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false
	}
	for _, admin := range c.AdminEmails {
		if strings.EqualFold(admin, email) {
			return true
		}
	}
	return false
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func env(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func list(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
