package mysql

import (
	"context"
	"database/sql"
	"sync"

	"github.com/DjordjeVuckovic/student-sync/internal/domain"
	"github.com/DjordjeVuckovic/student-sync/internal/ingest"
	"github.com/DjordjeVuckovic/student-sync/internal/tunnel"
)

// Sink acquires leases against a MySQL database that is only
// reachable through a bastion: tunnel first, then the database
// connection through the tunnel's forwarded local port.
type Sink struct {
	tunnelCfg tunnel.Config
	dbCfg     Config
}

func NewSink(tunnelCfg tunnel.Config, dbCfg Config) *Sink {
	return &Sink{
		tunnelCfg: tunnelCfg,
		dbCfg:     dbCfg,
	}
}

func (s *Sink) Open(ctx context.Context) (ingest.Lease, error) {
	fwd, err := tunnel.Open(s.tunnelCfg)
	if err != nil {
		return nil, err
	}

	db, err := Connect(ctx, s.dbCfg, fwd.LocalAddr())
	if err != nil {
		_ = fwd.Close()
		return nil, err
	}

	return &Lease{
		forwarder: fwd,
		db:        db,
		storer:    NewStorer(db),
	}, nil
}

// Lease bundles the tunnel and the database handle opened through it.
type Lease struct {
	forwarder *tunnel.Forwarder
	db        *sql.DB
	storer    *Storer

	closeOnce sync.Once
	closeErr  error
}

func (l *Lease) Commit(ctx context.Context, students []domain.Student) error {
	return l.storer.SaveBulk(ctx, students)
}

// Close releases the database handle before the tunnel, so the tunnel
// never disappears under a live connection. Safe to call more than
// once.
func (l *Lease) Close() error {
	l.closeOnce.Do(func() {
		dbErr := l.db.Close()
		tunnelErr := l.forwarder.Close()
		if dbErr != nil {
			l.closeErr = dbErr
			return
		}
		l.closeErr = tunnelErr
	})
	return l.closeErr
}
