package testing

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"sort"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mysql"
)

type MySQLContainer struct {
	Container  testcontainers.Container
	ConnString string
}

type MySQLConfig struct {
	Database string
	Username string
	Password string
}

func NewMySQLContainer(ctx context.Context, cfg MySQLConfig) (*MySQLContainer, error) {
	return createMySQLContainer(ctx, cfg)
}

func NewMySQLContainerWithCleanup(ctx context.Context, tb testing.TB) *MySQLContainer {
	tb.Helper()

	container, err := createMySQLContainer(ctx, MySQLConfig{
		Database: "students_test_db",
		Username: "test",
		Password: "test",
	})
	if err != nil {
		tb.Fatalf("failed to create mysql container: %v", err)
	}

	tb.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container.Container); err != nil {
			tb.Logf("failed to terminate mysql container: %v", err)
		}
	})

	return container
}

func createMySQLContainer(ctx context.Context, cfg MySQLConfig) (*MySQLContainer, error) {
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(b), "../..")
	migrationsDir := filepath.Join(projectRoot, "db", "migrations")

	migrationFiles, err := filepath.Glob(filepath.Join(migrationsDir, "*.up.sql"))
	if err != nil {
		return nil, fmt.Errorf("failed to find migration files: %w", err)
	}
	sort.Strings(migrationFiles)

	mysqlContainer, err := mysql.Run(ctx,
		"mysql:8.4",
		mysql.WithDatabase(cfg.Database),
		mysql.WithUsername(cfg.Username),
		mysql.WithPassword(cfg.Password),
		mysql.WithScripts(migrationFiles...),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start mysql container: %w", err)
	}

	connStr, err := mysqlContainer.ConnectionString(ctx, "parseTime=true")
	if err != nil {
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	return &MySQLContainer{
		Container:  mysqlContainer,
		ConnString: connStr,
	}, nil
}
