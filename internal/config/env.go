package config

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// envFiles are loaded in order; godotenv never overrides a variable that is already set,
// so the process environment wins over .env.local, which wins over .env.
var envFiles = []string{".env.local", ".env"}

// loadEnvFiles loads the dotenv files found in dir. Missing files are ignored and parse
// errors only logged: the configuration may not reference them at all.
func loadEnvFiles(dir string) {
	for _, name := range envFiles {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			slog.Warn("Failed to load environment file", slog.String("path", p), slog.String("error", err.Error()))
			continue
		}
		slog.Debug("Loaded environment file", slog.String("path", p))
	}
}
