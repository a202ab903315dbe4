package env

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads environment variables from a .env file.
// It uses the ENV_PATH environment variable to determine the path to the .env file,
// falling back to the first default path that exists.
func LoadDotEnv(env string, defaultPaths ...string) error {
	var envPath string
	if os.Getenv("ENV_PATH") != "" {
		envPath = os.Getenv("ENV_PATH")
	} else {
		for _, p := range defaultPaths {
			if _, err := os.Stat(p); err == nil {
				envPath = p
				break
			}
		}
		if envPath == "" && len(defaultPaths) > 0 {
			slog.Info("ENV_PATH is not set, using default path", "defaultPath", defaultPaths[0])
			envPath = defaultPaths[0]
		}
	}

	err := godotenv.Load(envPath)
	if err != nil {
		if env == "local" || env == "" {
			slog.Error("Failed to load environment variables in local mode", "error", err)
			return err
		}
		slog.Debug("Skipping .env ...")
	}

	return nil
}
