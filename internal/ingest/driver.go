package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/DjordjeVuckovic/student-sync/internal/domain"
	"github.com/DjordjeVuckovic/student-sync/pkg/pagination"
)

// Driver sequences the source and the sink one page at a time: fetch,
// map, commit, advance. The cursor is gated on commit success, so a
// failed run is always resumable from Result.LastCommittedOffset
// without losing or duplicating records.
type Driver struct {
	source Source
	mapper Mapper
	sink   Sink
	start  pagination.OffsetRequest
	runID  uuid.UUID
}

type DriverOption func(driver *Driver)

// WithStartOffset resumes from an externally persisted cursor instead
// of offset 0.
func WithStartOffset(offset int) DriverOption {
	return func(driver *Driver) {
		driver.start.Offset = offset
	}
}

func WithLimit(limit int) DriverOption {
	return func(driver *Driver) {
		driver.start.Limit = limit
	}
}

func NewDriver(source Source, mapper Mapper, sink Sink, opts ...DriverOption) *Driver {
	d := &Driver{
		source: source,
		mapper: mapper,
		sink:   sink,
		start: pagination.OffsetRequest{
			Offset: 0,
			Limit:  pagination.PageDefaultLimit,
		},
		runID: uuid.New(),
	}
	for _, opt := range opts {
		opt(d)
	}
	_ = d.start.Validate()

	return d
}

// Run drives the import to a terminal state. One lease is opened on
// the first commit and reused for the rest of the run; it is released
// on every exit path, including failure.
func (d *Driver) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	req := d.start
	res := &Result{
		State:               StateInit,
		LastCommittedOffset: req.Offset,
	}

	slog.Info("Starting import run",
		"run_id", d.runID,
		"offset", req.Offset,
		"limit", req.Limit,
	)

	var lease Lease
	defer func() {
		if lease == nil {
			return
		}
		if err := lease.Close(); err != nil {
			slog.Error("Failed to release lease", "run_id", d.runID, "error", err)
		}
	}()

	for {
		// Cancellation is honored only here, at a page boundary, so a
		// half-committed page is never left behind.
		select {
		case <-ctx.Done():
			res.State = StateFailed
			slog.Info("Import run cancelled",
				"run_id", d.runID,
				"last_committed_offset", res.LastCommittedOffset,
			)
			return res, ctx.Err()
		default:
		}

		res.State = StateFetching
		page, err := d.source.Fetch(ctx, req)
		if err != nil {
			res.State = StateFailed
			return res, fmt.Errorf("fetch page at offset %d: %w", req.Offset, err)
		}

		if page.Empty() {
			res.State = StateDone
			slog.Info("Import run completed",
				"run_id", d.runID,
				"pages", res.Pages,
				"records", res.Records,
				"duration", time.Since(start),
			)
			return res, nil
		}

		res.State = StateCommitting
		students, err := d.mapPage(page)
		if err != nil {
			res.State = StateFailed
			return res, fmt.Errorf("map page at offset %d: %w", req.Offset, err)
		}

		if lease == nil {
			lease, err = d.sink.Open(ctx)
			if err != nil {
				lease = nil
				res.State = StateFailed
				return res, fmt.Errorf("open lease: %w", err)
			}
		}

		if err := lease.Commit(ctx, students); err != nil {
			res.State = StateFailed
			return res, fmt.Errorf("commit page at offset %d: %w", req.Offset, err)
		}

		res.Pages++
		res.Records += page.Size()
		res.LastCommittedOffset = page.NextOffset()

		slog.Info("Page committed",
			"run_id", d.runID,
			"offset", req.Offset,
			"size", page.Size(),
			"next_offset", page.NextOffset(),
		)

		req = pagination.OffsetRequest{Offset: page.NextOffset(), Limit: req.Limit}
	}
}

func (d *Driver) mapPage(page *pagination.Page[map[string]any]) ([]domain.Student, error) {
	now := time.Now()
	students := make([]domain.Student, 0, page.Size())

	for i, record := range page.Items {
		student, err := d.mapper.Map(record)
		if err != nil {
			return nil, err
		}
		student.Metadata = domain.StudentMetadata{
			SourceOffset: page.Offset + i,
			ImportedAt:   now,
		}
		students = append(students, student)
	}

	return students, nil
}
