package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads variables from .env files without overwriting anything
// already set in the process environment. Explicit paths are tried first,
// then .env in the working directory, then the directory of the scout
// document when one is given via SCOUT_CONFIG. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	candidates := append([]string{}, paths...)
	candidates = append(candidates, ".env")
	if cfg := envString("SCOUT_CONFIG", ""); cfg != "" {
		candidates = append(candidates, filepath.Join(filepath.Dir(cfg), ".env"))
	}

	seen := map[string]bool{}
	for _, path := range candidates {
		if path == "" {
			continue
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		if seen[abs] {
			continue
		}
		seen[abs] = true
		if err := loadIfExists(path); err != nil {
			return err
		}
	}
	return nil
}

func loadIfExists(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}
