package config

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// LoadEnv loads a .env file (if present) and overlays secrets and endpoints
// from the environment onto c. A missing file is not an error.
func LoadEnv(c *Config, envPath string) {
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil {
			slog.Debug("could not load env file", "path", envPath, "err", err)
		}
	}

	c.Providers.OANDA.Token = getEnvString("OANDA_TOKEN", c.Providers.OANDA.Token)
	c.Providers.OANDA.BaseURL = getEnvString("OANDA_BASE_URL", c.Providers.OANDA.BaseURL)
	c.Providers.Dukascopy.BaseURL = getEnvString("DUKASCOPY_BASE_URL", c.Providers.Dukascopy.BaseURL)
	c.Providers.Cache.Addr = getEnvString("REDIS_ADDR", c.Providers.Cache.Addr)
	c.Providers.Cache.Password = getEnvString("REDIS_PASSWORD", c.Providers.Cache.Password)
	c.Providers.Cache.DB = getEnvInt("REDIS_DB", c.Providers.Cache.DB)
	c.Journal.DBPath = getEnvString("CHARTSCAN_DB", c.Journal.DBPath)
	c.Scan.Workers = getEnvInt("CHARTSCAN_WORKERS", c.Scan.Workers)
}

func getEnvString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("ignoring non-integer env value", "key", key, "value", v)
		return def
	}
	return n
}
