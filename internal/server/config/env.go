package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays Config fields from environment variables. A .env file
// in the working directory is loaded first if present; real environment
// variables win over .env entries (godotenv.Load does not override).
func parseEnv(config *Config) {
	_ = godotenv.Load()

	setString := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	setDuration := func(dst *time.Duration, key string) {
		if v, ok := os.LookupEnv(key); ok {
			if d, err := time.ParseDuration(v); err == nil {
				*dst = d
			}
		}
	}

	setString(&config.EndpointAddrHTTP, "ADDRESS")
	setString(&config.DatabaseDSN, "DATABASE_DSN")
	setString(&config.RedisAddr, "REDIS_ADDR")
	setString(&config.RedisPassword, "REDIS_PASSWORD")
	setString(&config.SecretKey, "SECRET")
	setDuration(&config.AccessTokenValidityDuration, "ACCESS_TOKEN_TTL")
	setDuration(&config.GoogleTokenValidityDuration, "GOOGLE_TOKEN_TTL")
	setDuration(&config.OTPValidityDuration, "OTP_TTL")
	setDuration(&config.ResetTokenValidityDuration, "RESET_TOKEN_TTL")
	setString(&config.GoogleClientID, "GOOGLE_CLIENT_ID")
	setString(&config.SendgridAPIKey, "SENDGRID_API_KEY")
	setString(&config.MailFrom, "MAIL_FROM")
	setString(&config.FrontendBaseURL, "FRONTEND_URL")
}
