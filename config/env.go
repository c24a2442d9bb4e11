package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
)

// Config holds every environment driven setting of the API.
type Config struct {
	Port   string `env:"PORT,default=8080"`
	DBURL  string `env:"DB_URL"`
	GinEnv string `env:"GIN_MODE,default=debug"`

	JWTSecret      string `env:"JWT_SECRET"`
	JWTExpiryHours int    `env:"JWT_EXPIRY_HOURS,default=24"`

	LogLevel  string `env:"LOG_LEVEL,default=info"`
	LogFormat string `env:"LOG_FORMAT,default=text"`

	CORSOrigins string `env:"CORS_ORIGINS,default=http://localhost:3000"`

	RedisURL  string `env:"REDIS_URL"`
	NATSURL   string `env:"NATS_URL"`
	NATSToken string `env:"NATS_TOKEN"`

	AIAPIURL string `env:"AI_API_URL"`
	AIAPIKey string `env:"AI_API_KEY"`
	AIModel  string `env:"AI_MODEL,default=gpt-4o-mini"`

	TwilioAccountSID  string `env:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken   string `env:"TWILIO_AUTH_TOKEN"`
	TwilioPhoneNumber string `env:"TWILIO_PHONE_NUMBER"`

	ChatRatePerMinute int `env:"CHAT_RATE_PER_MINUTE,default=20"`

	ReminderCron      string `env:"REMINDER_CRON,default=0 9 * * *"`
	VoucherExpiryCron string `env:"VOUCHER_EXPIRY_CRON,default=0 * * * *"`
	VoucherValidDays  int    `env:"VOUCHER_VALID_DAYS,default=90"`
}

// Load decodes the process environment into a Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, err
	}
	return &cfg, nil
}

// TokenTTL is how long issued JWTs stay valid.
func (c *Config) TokenTTL() time.Duration {
	if c.JWTExpiryHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.JWTExpiryHours) * time.Hour
}

func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func (c *Config) VoucherValidity() time.Duration {
	days := c.VoucherValidDays
	if days <= 0 {
		days = 90
	}
	return time.Duration(days) * 24 * time.Hour
}
