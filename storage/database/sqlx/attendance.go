package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/attendance"
	"github.com/trezcool/darasa/storage/database"
)

const attendanceColumns = "id, student_id, class_id, date, status, notes, marked_by, session_type, created_at"

type attendanceRepository struct {
	db *sqlx.DB
}

var _ attendance.Repository = (*attendanceRepository)(nil)

func NewAttendanceRepository(db *sqlx.DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

// ReplaceClassDay deletes & inserts in one transaction: readers see either the previous day or the new one.
func (repo *attendanceRepository) ReplaceClassDay(ctx context.Context, classID string, date core.Date, records []attendance.Record) ([]attendance.Record, error) {
	saved := make([]attendance.Record, len(records))
	for i, rec := range records {
		rec.ID = newID()
		saved[i] = rec
	}

	err := database.WithTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM attendance WHERE class_id = $1 AND date = $2", classID, date); err != nil {
			return err
		}
		if len(saved) == 0 {
			return nil
		}
		q := `INSERT INTO attendance (` + attendanceColumns + `)
			VALUES (:id, :student_id, :class_id, :date, :status, :notes, :marked_by, :session_type, :created_at)`
		_, err := tx.NamedExecContext(ctx, q, saved)
		return err
	})
	if err != nil {
		return nil, core.NewStorageError("replacing class attendance", err)
	}
	return saved, nil
}

func (repo *attendanceRepository) QueryClassDay(ctx context.Context, classID string, date core.Date) ([]attendance.Record, error) {
	records := make([]attendance.Record, 0)
	if !validID(classID) {
		return records, nil
	}
	q := `SELECT a.id, a.student_id, a.class_id, a.date, a.status, a.notes, a.marked_by, a.session_type, a.created_at
		FROM attendance a JOIN students s ON s.id = a.student_id
		WHERE a.class_id = $1 AND a.date = $2
		ORDER BY s.last_name ASC, s.first_name ASC`
	if err := repo.db.SelectContext(ctx, &records, q, classID, date); err != nil {
		return nil, core.NewStorageError("querying class attendance", err)
	}
	return records, nil
}

func (repo *attendanceRepository) QueryStudentRecords(ctx context.Context, studentID string, from, to core.Date) ([]attendance.Record, error) {
	records := make([]attendance.Record, 0)
	if !validID(studentID) {
		return records, nil
	}
	q := "SELECT " + attendanceColumns + " FROM attendance WHERE student_id = $1 AND date BETWEEN $2 AND $3 ORDER BY date ASC"
	if err := repo.db.SelectContext(ctx, &records, q, studentID, from, to); err != nil {
		return nil, core.NewStorageError("querying student attendance", err)
	}
	return records, nil
}
