package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// ResolveRuntimePath anchors relative runtime paths in the user's home directory.
func ResolveRuntimePath(path string) string {
	if path == "" {
		path = ".svim"
	}

	if !filepath.IsAbs(path) {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		path = filepath.Join(home, path)
	}
	return path
}

// GetRuntimePath reads SVIM_RUNTIME_PATH before the full config is parsed.
func GetRuntimePath() string {
	return ResolveRuntimePath(os.Getenv("SVIM_RUNTIME_PATH"))
}

// LoadEnvFiles loads the runtime .env and then ./.env; variables already set are never overwritten.
// It returns the files that were loaded.
func LoadEnvFiles(runtimePath string) ([]string, error) {
	candidates := []string{
		filepath.Join(runtimePath, ".env"),
		".env",
	}

	var loaded []string
	for _, path := range candidates {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return loaded, err
		}
		if err := godotenv.Load(path); err != nil {
			return loaded, err
		}
		loaded = append(loaded, path)
	}
	return loaded, nil
}
