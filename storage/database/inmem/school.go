package inmemdb

import (
	"context"
	"time"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/school"
)

type schoolRepository struct {
	db *DB
}

var _ school.Repository = (*schoolRepository)(nil)

func NewSchoolRepository(db *DB) school.Repository {
	return &schoolRepository{db: db}
}

func (repo *schoolRepository) CheckClassNameUniqueness(_ context.Context, name string, excludedIDs ...string) error {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, cls := range repo.db.classes {
		if cls.Name == name && !excluded(cls.ID, excludedIDs) {
			return school.ErrClassNameExists
		}
	}
	return nil
}

func (repo *schoolRepository) CreateClass(_ context.Context, cls school.Class) (school.Class, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if err := repo.db.checkFault("creating class"); err != nil {
		return school.Class{}, err
	}
	cls.ID = newID()
	repo.db.classes[cls.ID] = cls
	return cls, nil
}

func (repo *schoolRepository) GetClass(_ context.Context, id string) (school.Class, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if cls, ok := repo.db.classes[id]; ok {
		return cls, nil
	}
	return school.Class{}, school.ErrClassNotFound
}

func (repo *schoolRepository) QueryClasses(_ context.Context, ordering ...core.DBOrdering) ([]school.Class, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	classes := make([]school.Class, 0, len(repo.db.classes))
	for _, cls := range repo.db.classes {
		classes = append(classes, cls)
	}
	sortRows(
		len(classes),
		func(i, j int) { classes[i], classes[j] = classes[j], classes[i] },
		func(i, j int, field string) int {
			a, b := classes[i], classes[j]
			switch field {
			case "level":
				return cmpString(a.Level, b.Level)
			case "created_at":
				return cmpTime(a.CreatedAt, b.CreatedAt)
			default:
				return cmpString(a.Name, b.Name)
			}
		},
		ordering,
		[]core.DBOrdering{{Field: "name", Ascending: true}},
	)
	return classes, nil
}

func (repo *schoolRepository) CheckAdmissionNoUniqueness(_ context.Context, admissionNo string, excludedIDs ...string) error {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, st := range repo.db.students {
		if st.AdmissionNo == admissionNo && !excluded(st.ID, excludedIDs) {
			return school.ErrAdmissionNoExists
		}
	}
	return nil
}

func (repo *schoolRepository) CreateStudent(_ context.Context, st school.Student) (school.Student, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if err := repo.db.checkFault("creating student"); err != nil {
		return school.Student{}, err
	}
	st.ID = newID()
	repo.db.students[st.ID] = st
	return st, nil
}

func (repo *schoolRepository) GetStudent(_ context.Context, id string) (school.Student, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if st, ok := repo.db.students[id]; ok {
		return st, nil
	}
	return school.Student{}, school.ErrStudentNotFound
}

func matchStudent(st school.Student, filter school.StudentFilter) bool {
	if filter.ClassID != "" && st.ClassID != filter.ClassID {
		return false
	}
	if filter.Search != "" &&
		!(contains(st.FirstName, filter.Search) || contains(st.LastName, filter.Search) || contains(st.AdmissionNo, filter.Search)) {
		return false
	}
	if len(filter.Statuses) > 0 {
		for _, s := range filter.Statuses {
			if st.Status == s {
				return true
			}
		}
		return false
	}
	return true
}

func (repo *schoolRepository) QueryStudents(_ context.Context, filter school.StudentFilter, ordering ...core.DBOrdering) ([]school.Student, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	students := make([]school.Student, 0)
	for _, st := range repo.db.students {
		if matchStudent(st, filter) {
			students = append(students, st)
		}
	}
	sortRows(
		len(students),
		func(i, j int) { students[i], students[j] = students[j], students[i] },
		func(i, j int, field string) int {
			a, b := students[i], students[j]
			switch field {
			case "admission_no":
				return cmpString(a.AdmissionNo, b.AdmissionNo)
			case "first_name":
				return cmpString(a.FirstName, b.FirstName)
			case "status":
				return cmpString(string(a.Status), string(b.Status))
			case "created_at":
				return cmpTime(a.CreatedAt, b.CreatedAt)
			default:
				return cmpString(a.LastName, b.LastName)
			}
		},
		ordering,
		[]core.DBOrdering{{Field: "last_name", Ascending: true}, {Field: "first_name", Ascending: true}},
	)
	return students, nil
}

func (repo *schoolRepository) UpdateStudentStatus(_ context.Context, id string, status school.StudentStatus, updatedAt time.Time) (school.Student, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	st, ok := repo.db.students[id]
	if !ok {
		return school.Student{}, school.ErrStudentNotFound
	}
	if err := repo.db.checkFault("updating student status"); err != nil {
		return school.Student{}, err
	}
	st.Status = status
	st.UpdatedAt = updatedAt
	repo.db.students[id] = st
	return st, nil
}
