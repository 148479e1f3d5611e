package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env              string
	Port             string
	SessionSecret    string
	DatabaseURL      string
	RedisURL         string
	BrevoAPIKey      string // BREVO_API_KEY for welcome/verification emails
	MailFrom         string // MAIL_FROM sender email (default noreply@teamhub.app)
	InviteBaseURL    string // base URL for invite links in emails
	AllowCrossSiteDev bool
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	port := viper.GetString("PORT")
	if port == "" {
		port = "8080"
	}
	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	dbURL := viper.GetString("DATABASE_URL")
	if env == "test" {
		dbURL = viper.GetString("DATABASE_URL_TEST")
	}

	return &Config{
		Env:              env,
		Port:             port,
		SessionSecret:    viper.GetString("SESSION_SECRET"),
		DatabaseURL:      dbURL,
		RedisURL:         viper.GetString("REDIS_URL"),
		BrevoAPIKey:      viper.GetString("BREVO_API_KEY"),
		MailFrom:         viper.GetString("MAIL_FROM"),
		InviteBaseURL:    inviteBaseURL(viper.GetString("INVITE_BASE_URL")),
		AllowCrossSiteDev: strings.EqualFold(viper.GetString("ALLOW_CROSS_SITE_DEV"), "true"),
	}, nil
}

func inviteBaseURL(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "https://app.teamhub.app"
	}
	return s
}
