package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds every runtime setting, populated from environment variables.
type Config struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	DBHost       string `env:"DB_HOST" envDefault:"localhost"`
	DBPort       uint   `env:"DB_PORT" envDefault:"5432"`
	DBName       string `env:"DB_NAME" envDefault:"kleverbot"`
	DBSecretID   string `env:"DB_SECRET_ID"`
	DBSSLDisable bool   `env:"DB_SSL_MODE_DISABLE" envDefault:"false"`

	JWTAccessSecret  string        `env:"JWT_ACCESS_SECRET,required"`
	JWTRefreshSecret string        `env:"JWT_REFRESH_SECRET,required"`
	AccessTTL        time.Duration `env:"JWT_ACCESS_EXPIRES_IN" envDefault:"1h"`
	RefreshTTL       time.Duration `env:"JWT_REFRESH_EXPIRES_IN" envDefault:"720h"`
	RefreshShortTTL  time.Duration `env:"JWT_REFRESH_SHORT_EXPIRES_IN" envDefault:"168h"`
	JWTLeeway        time.Duration `env:"JWT_LEEWAY" envDefault:"0s"`

	BcryptCost int `env:"BCRYPT_COST" envDefault:"10"`

	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"5"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"10"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

	CleanupInterval time.Duration `env:"TOKEN_CLEANUP_INTERVAL" envDefault:"24h"`

	ResetTokenTTL time.Duration `env:"PASSWORD_RESET_EXPIRES_IN" envDefault:"1h"`
	FrontendURL   string        `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`

	SMTPHost string `env:"SMTP_HOST"`
	SMTPPort int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser string `env:"SMTP_USER"`
	SMTPPass string `env:"SMTP_PASS"`
	MailFrom string `env:"MAIL_FROM" envDefault:"no-reply@kleverbot.io"`
}

// Load parses the process environment into a Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
