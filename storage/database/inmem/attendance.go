package inmemdb

import (
	"context"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/attendance"
)

type attendanceRepository struct {
	db *DB
}

var _ attendance.Repository = (*attendanceRepository)(nil)

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

func (repo *attendanceRepository) ReplaceClassDay(_ context.Context, classID string, date core.Date, records []attendance.Record) ([]attendance.Record, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if err := repo.db.checkFault("replacing class attendance"); err != nil {
		return nil, err
	}
	for id, rec := range repo.db.attendance {
		if rec.ClassID == classID && rec.Date.Equal(date) {
			delete(repo.db.attendance, id)
		}
	}
	saved := make([]attendance.Record, len(records))
	for i, rec := range records {
		rec.ID = newID()
		repo.db.attendance[rec.ID] = rec
		saved[i] = rec
	}
	return saved, nil
}

// byStudentName sorts records like a class roster; must be called with the lock held.
func (repo *attendanceRepository) byStudentName(records []attendance.Record) {
	sortRows(
		len(records),
		func(i, j int) { records[i], records[j] = records[j], records[i] },
		func(i, j int, field string) int {
			a, b := repo.db.students[records[i].StudentID], repo.db.students[records[j].StudentID]
			if field == "first_name" {
				return cmpString(a.FirstName, b.FirstName)
			}
			return cmpString(a.LastName, b.LastName)
		},
		nil,
		[]core.DBOrdering{{Field: "last_name", Ascending: true}, {Field: "first_name", Ascending: true}},
	)
}

func (repo *attendanceRepository) QueryClassDay(_ context.Context, classID string, date core.Date) ([]attendance.Record, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	records := make([]attendance.Record, 0)
	for _, rec := range repo.db.attendance {
		if rec.ClassID == classID && rec.Date.Equal(date) {
			records = append(records, rec)
		}
	}
	repo.byStudentName(records)
	return records, nil
}

func (repo *attendanceRepository) QueryStudentRecords(_ context.Context, studentID string, from, to core.Date) ([]attendance.Record, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	records := make([]attendance.Record, 0)
	for _, rec := range repo.db.attendance {
		if rec.StudentID == studentID && !rec.Date.Before(from.Time) && !rec.Date.After(to.Time) {
			records = append(records, rec)
		}
	}
	sortRows(
		len(records),
		func(i, j int) { records[i], records[j] = records[j], records[i] },
		func(i, j int, _ string) int { return cmpTime(records[i].Date.Time, records[j].Date.Time) },
		nil,
		[]core.DBOrdering{{Field: "date", Ascending: true}},
	)
	return records, nil
}
