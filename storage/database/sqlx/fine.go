package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/fine"
)

// fineRefTypeIndex keeps one active fine per attendance record & fine type.
const fineRefTypeIndex = "fines_attendance_ref_type_uniq"

const fineColumns = "id, student_id, fine_type, amount, status, issued_date, paid_date, payment_method, collected_by, notes, attendance_ref, created_at, updated_at"

type fineRepository struct {
	db *sqlx.DB
}

var _ fine.Repository = (*fineRepository)(nil)

func NewFineRepository(db *sqlx.DB) fine.Repository {
	return &fineRepository{db: db}
}

func (repo *fineRepository) CreateFine(ctx context.Context, f fine.Fine) (fine.Fine, error) {
	f.ID = newID()
	q := `INSERT INTO fines (` + fineColumns + `)
		VALUES (:id, :student_id, :fine_type, :amount, :status, :issued_date, :paid_date, :payment_method,
			:collected_by, :notes, :attendance_ref, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, f); err != nil {
		if isUniqueViolation(err, fineRefTypeIndex) {
			return fine.Fine{}, fine.ErrAlreadyIssued
		}
		return fine.Fine{}, core.NewStorageError("creating fine", err)
	}
	return f, nil
}

func (repo *fineRepository) GetFine(ctx context.Context, id string) (fine.Fine, error) {
	if !validID(id) {
		return fine.Fine{}, fine.ErrNotFound
	}
	var f fine.Fine
	if err := repo.db.GetContext(ctx, &f, "SELECT "+fineColumns+" FROM fines WHERE id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return fine.Fine{}, fine.ErrNotFound
		}
		return fine.Fine{}, core.NewStorageError("getting fine", err)
	}
	return f, nil
}

func (repo *fineRepository) QueryStudentFines(ctx context.Context, studentID string, filter fine.Filter, ordering ...core.DBOrdering) ([]fine.Fine, error) {
	fines := make([]fine.Fine, 0)
	if !validID(studentID) {
		return fines, nil
	}

	var w where
	w.add("student_id = ?", studentID)
	if len(filter.Statuses) > 0 {
		w.add("status IN (?)", filter.Statuses)
	}
	if filter.FineType != "" {
		w.add("fine_type = ?", filter.FineType)
	}
	q, args, err := w.build(repo.db, "SELECT "+fineColumns+" FROM fines", orderBy(ordering, "issued_date DESC, created_at DESC"))
	if err != nil {
		return nil, core.NewStorageError("querying fines", err)
	}
	if err = repo.db.SelectContext(ctx, &fines, q, args...); err != nil {
		return nil, core.NewStorageError("querying fines", err)
	}
	return fines, nil
}

func (repo *fineRepository) QueryFinesByRefPrefix(ctx context.Context, prefix string) ([]fine.Fine, error) {
	fines := make([]fine.Fine, 0)
	q := "SELECT " + fineColumns + " FROM fines WHERE attendance_ref LIKE $1 ORDER BY created_at ASC"
	if err := repo.db.SelectContext(ctx, &fines, q, likeEscaper.Replace(prefix)+"%"); err != nil {
		return nil, core.NewStorageError("querying fines by attendance", err)
	}
	return fines, nil
}

// UpdatePendingFine is a single conditional UPDATE: concurrent transitions of the same fine
// cannot both succeed.
func (repo *fineRepository) UpdatePendingFine(ctx context.Context, upd fine.StatusUpdate) (fine.Fine, bool, error) {
	if !validID(upd.ID) {
		return fine.Fine{}, false, nil
	}
	q := `UPDATE fines SET
			status = $2,
			paid_date = COALESCE($3, paid_date),
			payment_method = COALESCE($4, payment_method),
			collected_by = COALESCE($5, collected_by),
			notes = COALESCE($6, notes),
			updated_at = $7
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + fineColumns

	var f fine.Fine
	err := repo.db.GetContext(ctx, &f, q,
		upd.ID, upd.Status, upd.PaidDate, upd.PaymentMethod, upd.CollectedBy, upd.Notes, upd.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return fine.Fine{}, false, nil
		}
		return fine.Fine{}, false, core.NewStorageError("updating fine status", err)
	}
	return f, true, nil
}

func (repo *fineRepository) SumFinesByStatus(ctx context.Context, studentIDs ...string) ([]fine.StatusTotal, error) {
	totals := make([]fine.StatusTotal, 0)
	ids := validIDs(studentIDs)
	if len(ids) == 0 {
		return totals, nil
	}

	var w where
	w.add("student_id IN (?)", ids)
	q, args, err := w.build(
		repo.db,
		"SELECT student_id, status, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS amount FROM fines",
		" GROUP BY student_id, status",
	)
	if err != nil {
		return nil, core.NewStorageError("summing fines", err)
	}
	if err = repo.db.SelectContext(ctx, &totals, q, args...); err != nil {
		return nil, core.NewStorageError("summing fines", err)
	}
	return totals, nil
}
