package mysql

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/DjordjeVuckovic/student-sync/internal/apperr"
)

type Config struct {
	User     string
	Password string
	Database string
}

// DSN builds the driver DSN for the given endpoint. addr is usually a
// tunnel's forwarded local address, not the real database host.
func (c Config) DSN(addr string) string {
	cfg := mysql.NewConfig()
	cfg.User = c.User
	cfg.Passwd = c.Password
	cfg.Net = "tcp"
	cfg.Addr = addr
	cfg.DBName = c.Database
	cfg.ParseTime = true
	return cfg.FormatDSN()
}

// Connect opens and verifies a database connection through addr.
// A refused or failing connection is a ConnectionError.
func Connect(ctx context.Context, cfg Config, addr string) (*sql.DB, error) {
	db, err := sql.Open("mysql", cfg.DSN(addr))
	if err != nil {
		return nil, apperr.NewConnectionWrap("open database handle", err)
	}

	// One processing unit owns the lease; no pooling beyond it.
	db.SetMaxOpenConns(2)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, apperr.NewConnectionWrap("ping database", err)
	}

	return db, nil
}
