package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port            string
	DatabaseDSN     string
	JWTSecret       string
	Env             string
	TokenTTLMinutes int
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

// Load 先尝试加载本地 .env，再从环境变量读取配置。
func Load() Config {
	_ = godotenv.Load()

	port := getenv("APP_PORT", "3000")
	dsn := getenv("DATABASE_DSN", "host=localhost user=postgres password=postgres dbname=offthegrid port=5432 sslmode=disable TimeZone=UTC")
	secret := getenv("JWT_SECRET", "supersecretkey")
	env := getenv("APP_ENV", "dev")
	ttlStr := getenv("TOKEN_TTL_MINUTES", "60")
	ttl, err := strconv.Atoi(ttlStr)
	if err != nil || ttl <= 0 {
		ttl = 60
	}
	return Config{
		Port:            port,
		DatabaseDSN:     dsn,
		JWTSecret:       secret,
		Env:             env,
		TokenTTLMinutes: ttl,
	}
}
