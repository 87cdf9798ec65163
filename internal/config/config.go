package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds the server's environment-derived settings. Command-line flags
// take precedence over these values.
type Config struct {
	DBPath    string
	Addr      string
	LogPath   string
	AdminUser string
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first if present.
func Load() Config {
	godotenv.Load()

	return Config{
		DBPath:    getEnv("FIELDSTOCK_DB", "fieldstock.sqlite3"),
		Addr:      getEnv("FIELDSTOCK_ADDR", ":8080"),
		LogPath:   getEnv("FIELDSTOCK_LOG", ""),
		AdminUser: getEnv("FIELDSTOCK_ADMIN_USER", "hod"),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
