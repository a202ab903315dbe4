package ingest

import (
	"context"

	"github.com/DjordjeVuckovic/student-sync/internal/domain"
	"github.com/DjordjeVuckovic/student-sync/pkg/pagination"
)

// State names the phases of one import run. A run moves
// INIT -> FETCHING -> COMMITTING -> (FETCHING | DONE | FAILED);
// DONE and FAILED are terminal and a new run with a resume offset is
// the only recovery mechanism.
type State string

const (
	StateInit       State = "INIT"
	StateFetching   State = "FETCHING"
	StateCommitting State = "COMMITTING"
	StateDone       State = "DONE"
	StateFailed     State = "FAILED"
)

// Pipeline defines the common interface for data import pipelines
type Pipeline interface {
	// Run executes the pipeline with the given context
	Run(ctx context.Context) (*Result, error)
}

// Source pulls one page of raw records per call. Implementations hold
// no pagination state; the driver owns the cursor.
type Source interface {
	Fetch(ctx context.Context, req pagination.OffsetRequest) (*pagination.Page[map[string]any], error)
}

// Mapper turns a raw upstream record into a Student.
type Mapper interface {
	Map(record map[string]any) (domain.Student, error)
}

// Lease is a scoped bundle of tunnel and database connection. It is
// exclusively owned by the run that opened it and must be released on
// every exit path.
type Lease interface {
	// Commit durably persists one page as a single atomic unit.
	Commit(ctx context.Context, students []domain.Student) error

	// Close releases the database handle and then the tunnel.
	Close() error
}

// Sink acquires leases against the destination.
type Sink interface {
	Open(ctx context.Context) (Lease, error)
}

// Result is the outcome of a run. LastCommittedOffset is the resume
// point: it only ever advances after a page's commit succeeds.
type Result struct {
	State               State
	LastCommittedOffset int
	Pages               int
	Records             int
}
