package config

import (
	"strings"

	"github.com/spf13/viper"
)

const defaultDatabaseURL = "sqlite:portfolio.db"

// Config holds application configuration (env + Viper).
type Config struct {
	Env                 string
	Port                string
	DatabaseURL         string // postgres://… or sqlite:<path>
	RedisURL            string // optional; enables request stats on the health dashboard
	FrontendURLEndsWith string
	DevPassword         string
	HealthAdminKey      string
	Currency            string // ISO 4217 display currency
	LogLevel            string
	LogPretty           bool
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	v.SetDefault("PORT", "8080")
	v.SetDefault("CURRENCY", "LKR")
	v.SetDefault("LOG_LEVEL", "info")

	env := v.GetString("APP_ENV")
	if env == "" {
		env = v.GetString("NODE_ENV")
	}
	if env == "" {
		env = "development"
	}

	var dbURL string
	switch env {
	case "production":
		dbURL = v.GetString("DATABASE_URL_PROD")
	case "test":
		dbURL = v.GetString("DATABASE_URL_TEST")
	default:
		dbURL = v.GetString("DATABASE_URL_DEV")
	}
	if dbURL == "" {
		dbURL = v.GetString("DATABASE_URL")
	}
	if dbURL == "" {
		dbURL = defaultDatabaseURL
	}

	logPretty := env == "development"
	if v.IsSet("LOG_PRETTY") {
		logPretty = v.GetBool("LOG_PRETTY")
	}

	return &Config{
		Env:                 env,
		Port:                v.GetString("PORT"),
		DatabaseURL:         dbURL,
		RedisURL:            v.GetString("REDIS_URL"),
		FrontendURLEndsWith: v.GetString("FRONTEND_URL_ENDS_WITH"),
		DevPassword:         v.GetString("DEV_PASSWORD"),
		HealthAdminKey:      v.GetString("HEALTH_ADMIN_KEY"),
		Currency:            strings.ToUpper(strings.TrimSpace(v.GetString("CURRENCY"))),
		LogLevel:            v.GetString("LOG_LEVEL"),
		LogPretty:           logPretty,
	}
}
