package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/fine"
)

type fineRepository struct {
	db *DB
}

var _ fine.Repository = (*fineRepository)(nil)

func NewFineRepository(db *DB) fine.Repository {
	return &fineRepository{db: db}
}

func (repo *fineRepository) CreateFine(_ context.Context, f fine.Fine) (fine.Fine, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if err := repo.db.checkFault("creating fine"); err != nil {
		return fine.Fine{}, err
	}
	if f.AttendanceRef.Valid && f.Status != fine.StatusCancelled {
		for _, other := range repo.db.fines {
			if other.AttendanceRef == f.AttendanceRef && other.FineType == f.FineType && other.Status != fine.StatusCancelled {
				return fine.Fine{}, fine.ErrAlreadyIssued
			}
		}
	}
	f.ID = newID()
	repo.db.fines[f.ID] = f
	return f, nil
}

func (repo *fineRepository) GetFine(_ context.Context, id string) (fine.Fine, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if f, ok := repo.db.fines[id]; ok {
		return f, nil
	}
	return fine.Fine{}, fine.ErrNotFound
}

func matchFine(f fine.Fine, filter fine.Filter) bool {
	if filter.FineType != "" && f.FineType != filter.FineType {
		return false
	}
	if len(filter.Statuses) == 0 {
		return true
	}
	for _, s := range filter.Statuses {
		if f.Status == s {
			return true
		}
	}
	return false
}

func (repo *fineRepository) QueryStudentFines(_ context.Context, studentID string, filter fine.Filter, ordering ...core.DBOrdering) ([]fine.Fine, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	fines := make([]fine.Fine, 0)
	for _, f := range repo.db.fines {
		if f.StudentID == studentID && matchFine(f, filter) {
			fines = append(fines, f)
		}
	}
	sortRows(
		len(fines),
		func(i, j int) { fines[i], fines[j] = fines[j], fines[i] },
		func(i, j int, field string) int {
			a, b := fines[i], fines[j]
			switch field {
			case "amount":
				return cmpDecimal(a.Amount, b.Amount)
			case "status":
				return cmpString(string(a.Status), string(b.Status))
			case "fine_type":
				return cmpString(a.FineType, b.FineType)
			case "created_at":
				return cmpTime(a.CreatedAt, b.CreatedAt)
			default:
				return cmpTime(a.IssuedDate.Time, b.IssuedDate.Time)
			}
		},
		ordering,
		[]core.DBOrdering{{Field: "issued_date"}, {Field: "created_at"}},
	)
	return fines, nil
}

func (repo *fineRepository) QueryFinesByRefPrefix(_ context.Context, prefix string) ([]fine.Fine, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	fines := make([]fine.Fine, 0)
	for _, f := range repo.db.fines {
		if f.AttendanceRef.Valid && strings.HasPrefix(f.AttendanceRef.String, prefix) {
			fines = append(fines, f)
		}
	}
	sort.Slice(fines, func(i, j int) bool { return fines[i].CreatedAt.Before(fines[j].CreatedAt) })
	return fines, nil
}

func (repo *fineRepository) UpdatePendingFine(_ context.Context, upd fine.StatusUpdate) (fine.Fine, bool, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	f, ok := repo.db.fines[upd.ID]
	if !ok || f.Status != fine.StatusPending {
		return fine.Fine{}, false, nil
	}
	if err := repo.db.checkFault("updating fine status"); err != nil {
		return fine.Fine{}, false, err
	}
	f.Status = upd.Status
	if upd.PaidDate.Valid {
		f.PaidDate = upd.PaidDate
	}
	if upd.PaymentMethod.Valid {
		f.PaymentMethod = upd.PaymentMethod
	}
	if upd.CollectedBy.Valid {
		f.CollectedBy = upd.CollectedBy
	}
	if upd.Notes.Valid {
		f.Notes = upd.Notes
	}
	f.UpdatedAt = upd.UpdatedAt
	repo.db.fines[f.ID] = f
	return f, true, nil
}

func (repo *fineRepository) SumFinesByStatus(_ context.Context, studentIDs ...string) ([]fine.StatusTotal, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	type key struct {
		studentID string
		status    fine.Status
	}
	wanted := make(map[string]bool, len(studentIDs))
	for _, id := range studentIDs {
		wanted[id] = true
	}
	sums := make(map[key]*fine.StatusTotal)
	for _, f := range repo.db.fines {
		if !wanted[f.StudentID] {
			continue
		}
		k := key{f.StudentID, f.Status}
		t, ok := sums[k]
		if !ok {
			t = &fine.StatusTotal{StudentID: f.StudentID, Status: f.Status, Amount: decimal.Zero}
			sums[k] = t
		}
		t.Count++
		t.Amount = t.Amount.Add(f.Amount)
	}

	totals := make([]fine.StatusTotal, 0, len(sums))
	for _, t := range sums {
		totals = append(totals, *t)
	}
	return totals, nil
}
