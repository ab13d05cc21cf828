package sqlxrepos

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/fine"
)

var fineRowColumns = []string{
	"id", "student_id", "fine_type", "amount", "status", "issued_date", "paid_date", "payment_method",
	"collected_by", "notes", "attendance_ref", "created_at", "updated_at",
}

func Test_fineRepository_UpdatePendingFine(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 10, 9, 30, 0, 0, time.UTC)
	collectorID := newID()
	upd := fine.StatusUpdate{
		ID:            newID(),
		Status:        fine.StatusPaid,
		PaidDate:      null.TimeFrom(now),
		PaymentMethod: null.StringFrom("cash"),
		CollectedBy:   null.StringFrom(collectorID),
		UpdatedAt:     now,
	}

	t.Run("pending fine is updated", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewFineRepository(db)

		rows := sqlmock.NewRows(fineRowColumns).AddRow(
			upd.ID, newID(), fine.TypeLate, "3.50", "paid", now, now, "cash",
			collectorID, nil, nil, now, now,
		)
		mock.ExpectQuery(`UPDATE fines SET .* WHERE id = \$1 AND status = 'pending'`).
			WithArgs(upd.ID, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnRows(rows)

		f, ok, err := repo.UpdatePendingFine(ctx, upd)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, fine.StatusPaid, f.Status)
		assert.Equal(t, "3.50", f.Amount.StringFixed(2))
		assert.Equal(t, "2024-01-10", f.IssuedDate.String())
		assert.Equal(t, "cash", f.PaymentMethod.String)
		assert.False(t, f.Notes.Valid)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no pending row", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewFineRepository(db)

		mock.ExpectQuery(`UPDATE fines SET`).WillReturnRows(sqlmock.NewRows(fineRowColumns))

		_, ok, err := repo.UpdatePendingFine(ctx, upd)
		assert.NoError(t, err)
		assert.False(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("store failure", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewFineRepository(db)

		mock.ExpectQuery(`UPDATE fines SET`).WillReturnError(errors.New("connection refused"))

		_, ok, err := repo.UpdatePendingFine(ctx, upd)
		assert.False(t, ok)
		assert.True(t, core.IsStorage(err), "err = %v", err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("malformed id never reaches the store", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewFineRepository(db)

		bad := upd
		bad.ID = "lol"
		_, ok, err := repo.UpdatePendingFine(ctx, bad)
		assert.NoError(t, err)
		assert.False(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func Test_fineRepository_CreateFine(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 10, 9, 30, 0, 0, time.UTC)
	f := fine.Fine{
		StudentID:     newID(),
		FineType:      fine.TypeLate,
		Amount:        decimal.RequireFromString("3.50"),
		Status:        fine.StatusPending,
		IssuedDate:    core.MustParseDate("2024-01-10"),
		AttendanceRef: null.StringFrom(newID() + "/2024-01-10/" + newID()),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	tests := []struct {
		name    string
		execErr error
		check   func(t *testing.T, err error)
	}{
		{
			name: "created",
			check: func(t *testing.T, err error) {
				assert.NoError(t, err)
			},
		},
		{
			name:    "active fine already issued",
			execErr: &pq.Error{Code: "23505", Constraint: "fines_attendance_ref_type_uniq"},
			check: func(t *testing.T, err error) {
				assert.Equal(t, fine.ErrAlreadyIssued, err)
			},
		},
		{
			name:    "other unique violation",
			execErr: &pq.Error{Code: "23505", Constraint: "fines_pkey"},
			check: func(t *testing.T, err error) {
				assert.True(t, core.IsStorage(err), "err = %v", err)
			},
		},
		{
			name:    "store failure",
			execErr: errors.New("connection refused"),
			check: func(t *testing.T, err error) {
				assert.True(t, core.IsStorage(err), "err = %v", err)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewFineRepository(db)

			exp := mock.ExpectExec(`INSERT INTO fines`)
			if tc.execErr != nil {
				exp.WillReturnError(tc.execErr)
			} else {
				exp.WillReturnResult(sqlmock.NewResult(0, 1))
			}

			created, err := repo.CreateFine(ctx, f)
			tc.check(t, err)
			if err == nil {
				assert.True(t, validID(created.ID))
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func Test_fineRepository_QueryFinesByRefPrefix(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 10, 9, 30, 0, 0, time.UTC)
	classID, studentID := newID(), newID()
	prefix := classID + "/2024-01-10/"

	t.Run("matches the day of a class", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewFineRepository(db)

		rows := sqlmock.NewRows(fineRowColumns).AddRow(
			newID(), studentID, fine.TypeAbsence, "5.00", "pending", now, nil, nil,
			nil, nil, prefix+studentID, now, now,
		)
		mock.ExpectQuery(`SELECT .* FROM fines WHERE attendance_ref LIKE \$1`).
			WithArgs(prefix + "%").
			WillReturnRows(rows)

		fines, err := repo.QueryFinesByRefPrefix(ctx, prefix)
		require.NoError(t, err)
		require.Len(t, fines, 1)
		assert.Equal(t, prefix+studentID, fines[0].AttendanceRef.String)
		assert.Equal(t, fine.StatusPending, fines[0].Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("wildcards are escaped", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewFineRepository(db)

		mock.ExpectQuery(`SELECT .* FROM fines WHERE attendance_ref LIKE \$1`).
			WithArgs(`a\_b\%c\\/%`).
			WillReturnRows(sqlmock.NewRows(fineRowColumns))

		fines, err := repo.QueryFinesByRefPrefix(ctx, `a_b%c\/`)
		require.NoError(t, err)
		assert.Empty(t, fines)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("store failure", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewFineRepository(db)

		mock.ExpectQuery(`SELECT .* FROM fines`).WillReturnError(errors.New("connection refused"))

		_, err := repo.QueryFinesByRefPrefix(ctx, prefix)
		assert.True(t, core.IsStorage(err), "err = %v", err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
