package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv     string
	LogLevel   string
	Port       string
	DBDriver   string
	DSN        string
	SQLitePath string
}

// Load reads .env (if present) and the process environment.
func Load() Config {
	_ = godotenv.Load()
	return FromEnv()
}

func FromEnv() Config {
	c := Config{
		AppEnv:     strings.ToLower(os.Getenv("APP_ENV")),
		LogLevel:   env("LOG_LEVEL", "info"),
		Port:       env("PORT", "8080"),
		DBDriver:   strings.ToLower(env("DB_DRIVER", "postgres")),
		SQLitePath: env("SQLITE_PATH", "booklibrary.db"),
	}
	c.DSN = os.Getenv("DB_DSN")
	if strings.TrimSpace(c.DSN) == "" && c.DBDriver == "postgres" {
		c.DSN = postgresDSN()
	}
	return c
}

func (c Config) IsProduction() bool {
	return c.AppEnv == "production" || c.AppEnv == "prod"
}

func postgresDSN() string {
	host := env("DB_HOST", "localhost")
	port := env("DB_PORT", "5432")
	user := env("DB_USER", env("POSTGRES_USER", "postgres"))
	pass := env("DB_PASSWORD", env("POSTGRES_PASSWORD", "postgres"))
	name := env("DB_NAME", env("POSTGRES_DB", "booklibrary"))
	ssl := env("DB_SSLMODE", "disable")
	return "host=" + host + " user=" + user + " password=" + pass + " dbname=" + name + " port=" + port + " sslmode=" + ssl
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
