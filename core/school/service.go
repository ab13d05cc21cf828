package school

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

var (
	// errors
	ErrClassNotFound     = core.NewNotFoundError("class", "")
	ErrStudentNotFound   = core.NewNotFoundError("student", "")
	ErrClassNameExists   = errors.New("a class with this name already exists")
	ErrAdmissionNoExists = errors.New("a student with this admission number already exists")
)

type (
	Repository interface {
		CheckClassNameUniqueness(ctx context.Context, name string, excludedIDs ...string) error
		CreateClass(ctx context.Context, cls Class) (Class, error)
		GetClass(ctx context.Context, id string) (Class, error)
		QueryClasses(ctx context.Context, ordering ...core.DBOrdering) ([]Class, error)

		CheckAdmissionNoUniqueness(ctx context.Context, admissionNo string, excludedIDs ...string) error
		CreateStudent(ctx context.Context, st Student) (Student, error)
		GetStudent(ctx context.Context, id string) (Student, error)
		QueryStudents(ctx context.Context, filter StudentFilter, ordering ...core.DBOrdering) ([]Student, error)
		UpdateStudentStatus(ctx context.Context, id string, status StudentStatus, updatedAt time.Time) (Student, error)
	}

	Service struct {
		repo     Repository
		validate *validator.Validate
	}
)

var (
	classOrderings   = []string{"name", "level", "created_at"}
	studentOrderings = []string{"admission_no", "first_name", "last_name", "status", "created_at"}

	rosterOrdering = []core.DBOrdering{{Field: "last_name", Ascending: true}, {Field: "first_name", Ascending: true}}
)

func NewService(repo Repository, validate *validator.Validate) *Service {
	return &Service{repo: repo, validate: validate}
}

func (svc *Service) CreateClass(ctx context.Context, nc NewClass) (Class, error) {
	nc.Clean()
	if err := svc.validate.Struct(nc); err != nil {
		return Class{}, err
	}
	if err := svc.repo.CheckClassNameUniqueness(ctx, nc.Name); err != nil {
		if err == ErrClassNameExists {
			return Class{}, core.NewValidationError(err, core.FieldError{Field: "name", Error: err.Error()})
		}
		return Class{}, errors.Wrap(err, "checking class name uniqueness")
	}

	now := core.NowFunc().UTC()
	return svc.repo.CreateClass(ctx, Class{
		Name:      nc.Name,
		Level:     nc.Level,
		TeacherID: nc.TeacherID,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (svc *Service) GetClass(ctx context.Context, id string) (Class, error) {
	return svc.repo.GetClass(ctx, core.CleanString(id, true /* lower */))
}

func (svc *Service) QueryClasses(ctx context.Context, ordering ...core.DBOrdering) ([]Class, error) {
	return svc.repo.QueryClasses(ctx, core.AllowedOrderings(ordering, classOrderings...)...)
}

// CreateStudent enrolls a new active Student into an existing Class.
func (svc *Service) CreateStudent(ctx context.Context, ns NewStudent) (Student, error) {
	ns.Clean()
	if err := svc.validate.Struct(ns); err != nil {
		return Student{}, err
	}
	if _, err := svc.repo.GetClass(ctx, ns.ClassID); err != nil {
		if core.IsNotFound(err) {
			return Student{}, core.NewValidationError(err, core.FieldError{Field: "class_id", Error: err.Error()})
		}
		return Student{}, errors.Wrap(err, "finding class")
	}
	if err := svc.repo.CheckAdmissionNoUniqueness(ctx, ns.AdmissionNo); err != nil {
		if err == ErrAdmissionNoExists {
			return Student{}, core.NewValidationError(err, core.FieldError{Field: "admission_no", Error: err.Error()})
		}
		return Student{}, errors.Wrap(err, "checking admission number uniqueness")
	}

	now := core.NowFunc().UTC()
	return svc.repo.CreateStudent(ctx, Student{
		AdmissionNo:   ns.AdmissionNo,
		FirstName:     ns.FirstName,
		LastName:      ns.LastName,
		ClassID:       ns.ClassID,
		Status:        StudentActive,
		GuardianName:  ns.GuardianName,
		GuardianPhone: ns.GuardianPhone,
		GuardianEmail: ns.GuardianEmail,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
}

func (svc *Service) GetStudent(ctx context.Context, id string) (Student, error) {
	return svc.repo.GetStudent(ctx, core.CleanString(id, true /* lower */))
}

func (svc *Service) QueryStudents(ctx context.Context, filter StudentFilter, ordering ...core.DBOrdering) ([]Student, error) {
	filter.Clean()
	return svc.repo.QueryStudents(ctx, filter, core.AllowedOrderings(ordering, studentOrderings...)...)
}

// ActiveRoster lists the active students of a class, sorted by name.
func (svc *Service) ActiveRoster(ctx context.Context, classID string) ([]Student, error) {
	cls, err := svc.GetClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	filter := StudentFilter{ClassID: cls.ID, Statuses: []StudentStatus{StudentActive}}
	return svc.repo.QueryStudents(ctx, filter, rosterOrdering...)
}

func (svc *Service) SetStudentStatus(ctx context.Context, id string, upd StudentStatusUpdate) (Student, error) {
	if err := svc.validate.Struct(upd); err != nil {
		return Student{}, err
	}
	return svc.repo.UpdateStudentStatus(ctx, core.CleanString(id, true /* lower */), upd.Status, core.NowFunc().UTC())
}
