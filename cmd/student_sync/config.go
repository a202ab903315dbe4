package main

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"

	"github.com/DjordjeVuckovic/student-sync/internal/storage/mysql"
	"github.com/DjordjeVuckovic/student-sync/internal/tunnel"
	"github.com/DjordjeVuckovic/student-sync/pkg/config/env"
	"github.com/DjordjeVuckovic/student-sync/pkg/pagination"
)

func NewAppConfig() *AppConfig {
	return &AppConfig{
		ENV: os.Getenv("ENV"),
	}
}

type AppConfig struct {
	ENV string
}

type SyncConfig struct {
	APIURL      string
	APIToken    string
	MappingPath string
	Tunnel      tunnel.Config
	DB          mysql.Config
	Limit       int
	StartOffset int
}

func (as *AppConfig) Load() (*SyncConfig, error) {
	err := env.LoadDotEnv(as.ENV, "cmd/student_sync/.env")
	if err != nil {
		slog.Info("Skipping .env environment variables...", "error", err)
	}

	required := func(key string) (string, error) {
		v := os.Getenv(key)
		if v == "" {
			slog.Error(key + " environment variable is not set")
			return "", fmt.Errorf("%s environment variable is not set", key)
		}
		return v, nil
	}

	apiURL, err := required("API_URL")
	if err != nil {
		return nil, err
	}
	apiToken, err := required("API_TOKEN")
	if err != nil {
		return nil, err
	}
	mappingPath, err := required("MAPPING_CONFIG_PATH")
	if err != nil {
		return nil, err
	}
	sshHost, err := required("SSH_HOST")
	if err != nil {
		return nil, err
	}
	sshUser, err := required("SSH_USER")
	if err != nil {
		return nil, err
	}
	sshKey, err := required("SSH_KEY_PATH")
	if err != nil {
		return nil, err
	}
	dbHost, err := required("MYSQL_DB_HOST")
	if err != nil {
		return nil, err
	}
	dbUser, err := required("MYSQL_DB_USER")
	if err != nil {
		return nil, err
	}
	dbPassword, err := required("MYSQL_DB_PASSWORD")
	if err != nil {
		return nil, err
	}
	dbName, err := required("MYSQL_DB_NAME")
	if err != nil {
		return nil, err
	}

	limit, err := strconv.Atoi(os.Getenv("QUERY_LIMIT"))
	if err != nil || limit <= 0 {
		limit = pagination.PageDefaultLimit
	}
	offset, err := strconv.Atoi(os.Getenv("QUERY_OFFSET"))
	if err != nil || offset < 0 {
		offset = 0
	}

	cfg := &SyncConfig{
		APIURL:      apiURL,
		APIToken:    apiToken,
		MappingPath: mappingPath,
		Tunnel: tunnel.Config{
			BastionAddr: withDefaultPort(sshHost, "22"),
			User:        sshUser,
			KeyPath:     sshKey,
			RemoteAddr:  withDefaultPort(dbHost, "3306"),
		},
		DB: mysql.Config{
			User:     dbUser,
			Password: dbPassword,
			Database: dbName,
		},
		Limit:       limit,
		StartOffset: offset,
	}

	return cfg, nil
}

func withDefaultPort(host, port string) string {
	if _, _, err := net.SplitHostPort(host); err == nil {
		return host
	}
	return net.JoinHostPort(host, port)
}
