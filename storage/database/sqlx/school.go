package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/school"
)

const (
	classColumns   = "id, name, level, COALESCE(teacher_id::text, '') AS teacher_id, created_at, updated_at"
	studentColumns = "id, admission_no, first_name, last_name, class_id, status, guardian_name, guardian_phone, guardian_email, created_at, updated_at"
)

type schoolRepository struct {
	db *sqlx.DB
}

var _ school.Repository = (*schoolRepository)(nil)

func NewSchoolRepository(db *sqlx.DB) school.Repository {
	return &schoolRepository{db: db}
}

func (repo *schoolRepository) count(ctx context.Context, op, table, col, val string, excludedIDs []string) (int, error) {
	var w where
	w.add(col+" = ?", val)
	if excluded := validIDs(excludedIDs); len(excluded) > 0 {
		w.add("id NOT IN (?)", excluded)
	}
	q, args, err := w.build(repo.db, "SELECT COUNT(*) FROM "+table, "")
	if err != nil {
		return 0, core.NewStorageError(op, err)
	}
	var n int
	if err = repo.db.GetContext(ctx, &n, q, args...); err != nil {
		return 0, core.NewStorageError(op, err)
	}
	return n, nil
}

func (repo *schoolRepository) CheckClassNameUniqueness(ctx context.Context, name string, excludedIDs ...string) error {
	n, err := repo.count(ctx, "checking class name uniqueness", "classes", "name", name, excludedIDs)
	if err != nil {
		return err
	}
	if n > 0 {
		return school.ErrClassNameExists
	}
	return nil
}

func (repo *schoolRepository) CreateClass(ctx context.Context, cls school.Class) (school.Class, error) {
	cls.ID = newID()
	q := `INSERT INTO classes (id, name, level, teacher_id, created_at, updated_at)
		VALUES (:id, :name, :level, CAST(NULLIF(:teacher_id, '') AS uuid), :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, cls); err != nil {
		return school.Class{}, core.NewStorageError("creating class", err)
	}
	return cls, nil
}

func (repo *schoolRepository) GetClass(ctx context.Context, id string) (school.Class, error) {
	if !validID(id) {
		return school.Class{}, school.ErrClassNotFound
	}
	var cls school.Class
	if err := repo.db.GetContext(ctx, &cls, "SELECT "+classColumns+" FROM classes WHERE id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return school.Class{}, school.ErrClassNotFound
		}
		return school.Class{}, core.NewStorageError("getting class", err)
	}
	return cls, nil
}

func (repo *schoolRepository) QueryClasses(ctx context.Context, ordering ...core.DBOrdering) ([]school.Class, error) {
	classes := make([]school.Class, 0)
	q := "SELECT " + classColumns + " FROM classes" + orderBy(ordering, "name ASC")
	if err := repo.db.SelectContext(ctx, &classes, q); err != nil {
		return nil, core.NewStorageError("querying classes", err)
	}
	return classes, nil
}

func (repo *schoolRepository) CheckAdmissionNoUniqueness(ctx context.Context, admissionNo string, excludedIDs ...string) error {
	n, err := repo.count(ctx, "checking admission number uniqueness", "students", "admission_no", admissionNo, excludedIDs)
	if err != nil {
		return err
	}
	if n > 0 {
		return school.ErrAdmissionNoExists
	}
	return nil
}

func (repo *schoolRepository) CreateStudent(ctx context.Context, st school.Student) (school.Student, error) {
	st.ID = newID()
	q := `INSERT INTO students (` + studentColumns + `)
		VALUES (:id, :admission_no, :first_name, :last_name, :class_id, :status,
			:guardian_name, :guardian_phone, :guardian_email, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, st); err != nil {
		return school.Student{}, core.NewStorageError("creating student", err)
	}
	return st, nil
}

func (repo *schoolRepository) GetStudent(ctx context.Context, id string) (school.Student, error) {
	if !validID(id) {
		return school.Student{}, school.ErrStudentNotFound
	}
	var st school.Student
	if err := repo.db.GetContext(ctx, &st, "SELECT "+studentColumns+" FROM students WHERE id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return school.Student{}, school.ErrStudentNotFound
		}
		return school.Student{}, core.NewStorageError("getting student", err)
	}
	return st, nil
}

func (repo *schoolRepository) QueryStudents(ctx context.Context, filter school.StudentFilter, ordering ...core.DBOrdering) ([]school.Student, error) {
	students := make([]school.Student, 0)

	var w where
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		w.add("(first_name ILIKE ? OR last_name ILIKE ? OR admission_no ILIKE ?)", like, like, like)
	}
	if filter.ClassID != "" {
		if !validID(filter.ClassID) {
			return students, nil
		}
		w.add("class_id = ?", filter.ClassID)
	}
	if len(filter.Statuses) > 0 {
		w.add("status IN (?)", filter.Statuses)
	}
	q, args, err := w.build(repo.db, "SELECT "+studentColumns+" FROM students", orderBy(ordering, "last_name ASC, first_name ASC"))
	if err != nil {
		return nil, core.NewStorageError("querying students", err)
	}
	if err = repo.db.SelectContext(ctx, &students, q, args...); err != nil {
		return nil, core.NewStorageError("querying students", err)
	}
	return students, nil
}

func (repo *schoolRepository) UpdateStudentStatus(ctx context.Context, id string, status school.StudentStatus, updatedAt time.Time) (school.Student, error) {
	if !validID(id) {
		return school.Student{}, school.ErrStudentNotFound
	}
	var st school.Student
	q := "UPDATE students SET status = $2, updated_at = $3 WHERE id = $1 RETURNING " + studentColumns
	if err := repo.db.GetContext(ctx, &st, q, id, status, updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return school.Student{}, school.ErrStudentNotFound
		}
		return school.Student{}, core.NewStorageError("updating student status", err)
	}
	return st, nil
}
