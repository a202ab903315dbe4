package mysql

import (
	"context"
	"database/sql"

	"github.com/DjordjeVuckovic/student-sync/internal/apperr"
	"github.com/DjordjeVuckovic/student-sync/internal/domain"
)

// INSERT IGNORE keeps the upsert idempotent on the natural key, so a
// page replayed after a resume cannot create duplicate rows.
const upsertStudent = `
	INSERT IGNORE INTO students (nim, nama_program_studi)
	VALUES (?, ?)
`

type Storer struct {
	db *sql.DB
}

func NewStorer(db *sql.DB) *Storer {
	return &Storer{db: db}
}

// SaveBulk persists one page of students as a single transaction:
// either every record in the page is durably visible or none is. Any
// statement failure rolls the whole page back and surfaces as a
// WriteError so the caller does not advance its cursor.
func (s *Storer) SaveBulk(ctx context.Context, students []domain.Student) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.NewWriteWrap("begin transaction", err)
	}

	stmt, err := tx.PrepareContext(ctx, upsertStudent)
	if err != nil {
		_ = tx.Rollback()
		return apperr.NewWriteWrap("prepare upsert", err)
	}
	defer stmt.Close()

	for _, student := range students {
		if _, err := stmt.ExecContext(ctx, student.NIM, student.StudyProgram); err != nil {
			_ = tx.Rollback()
			return apperr.NewWriteWrap("insert student "+student.NIM, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperr.NewWriteWrap("commit page", err)
	}

	return nil
}

// Count returns the number of stored students.
func (s *Storer) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM students`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
