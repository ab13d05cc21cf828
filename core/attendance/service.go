package attendance

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/school"
)

var (
	errDuplicateEntry = "student is listed more than once"
	errNotOnRoster    = "student is not on the active roster of this class"
	errDateRange      = "from must not be after to"
)

type (
	Repository interface {
		// ReplaceClassDay deletes every record of the class on date and inserts records,
		// all or nothing.
		ReplaceClassDay(ctx context.Context, classID string, date core.Date, records []Record) ([]Record, error)
		QueryClassDay(ctx context.Context, classID string, date core.Date) ([]Record, error)
		QueryStudentRecords(ctx context.Context, studentID string, from, to core.Date) ([]Record, error)
	}

	// School gives access to the classes & rosters attendance is taken for.
	School interface {
		GetClass(ctx context.Context, id string) (school.Class, error)
		GetStudent(ctx context.Context, id string) (school.Student, error)
		ActiveRoster(ctx context.Context, classID string) ([]school.Student, error)
	}

	Service struct {
		repo     Repository
		school   School
		validate *validator.Validate
	}
)

func NewService(repo Repository, sch School, validate *validator.Validate) *Service {
	return &Service{repo: repo, school: sch, validate: validate}
}

// SaveAttendance replaces the attendance of req.ClassID on req.Date with one Record per active
// student of the class. Re-running it with the same request leaves the same state.
func (svc *Service) SaveAttendance(ctx context.Context, req SaveRequest, markedBy string) ([]Record, error) {
	req.Clean()
	if err := svc.validate.Struct(req); err != nil {
		return nil, err
	}
	date, err := core.ParseDate(req.Date)
	if err != nil {
		return nil, core.NewValidationError(err, core.FieldError{Field: "date", Error: err.Error()})
	}

	roster, err := svc.school.ActiveRoster(ctx, req.ClassID)
	if err != nil {
		return nil, errors.Wrap(err, "loading class roster")
	}
	onRoster := make(map[string]struct{}, len(roster))
	for _, st := range roster {
		onRoster[st.ID] = struct{}{}
	}

	entries := make(map[string]Entry, len(req.Entries))
	var fldErrs []core.FieldError
	for i, e := range req.Entries {
		fld := fmt.Sprintf("entries[%d].student_id", i)
		if _, dup := entries[e.StudentID]; dup {
			fldErrs = append(fldErrs, core.FieldError{Field: fld, Error: errDuplicateEntry})
			continue
		}
		if _, ok := onRoster[e.StudentID]; !ok {
			fldErrs = append(fldErrs, core.FieldError{Field: fld, Error: errNotOnRoster})
			continue
		}
		entries[e.StudentID] = e
	}
	if len(fldErrs) > 0 {
		return nil, core.NewValidationError(nil, fldErrs...)
	}

	now := core.NowFunc().UTC()
	day := core.Date{Time: date}
	records := make([]Record, 0, len(roster))
	for _, st := range roster {
		rec := Record{
			StudentID:   st.ID,
			ClassID:     req.ClassID,
			Date:        day,
			Status:      StatusPresent,
			MarkedBy:    markedBy,
			SessionType: req.SessionType,
			CreatedAt:   now,
		}
		if e, ok := entries[st.ID]; ok {
			if e.Status != "" {
				rec.Status = e.Status
			}
			if e.Notes != "" {
				rec.Notes = null.StringFrom(e.Notes)
			}
		}
		records = append(records, rec)
	}

	saved, err := svc.repo.ReplaceClassDay(ctx, req.ClassID, day, records)
	if err != nil {
		return nil, errors.Wrap(err, "replacing class attendance")
	}
	return saved, nil
}

// GetAttendance reads back the attendance of a class for one day.
func (svc *Service) GetAttendance(ctx context.Context, classID, date string) ([]Record, error) {
	day, err := parseDateField("date", date)
	if err != nil {
		return nil, err
	}
	cls, err := svc.school.GetClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	return svc.repo.QueryClassDay(ctx, cls.ID, day)
}

// StudentSummary counts the attendance of a student between from and to (inclusive).
// Empty bounds default to the last 30 days.
func (svc *Service) StudentSummary(ctx context.Context, studentID, from, to string) (Summary, error) {
	toDate := core.Today()
	if to != "" {
		d, err := parseDateField("to", to)
		if err != nil {
			return Summary{}, err
		}
		toDate = d
	}
	fromDate := core.NewDate(toDate.AddDate(0, 0, -30))
	if from != "" {
		d, err := parseDateField("from", from)
		if err != nil {
			return Summary{}, err
		}
		fromDate = d
	}
	if fromDate.After(toDate.Time) {
		return Summary{}, core.NewValidationError(nil, core.FieldError{Field: "from", Error: errDateRange})
	}

	st, err := svc.school.GetStudent(ctx, studentID)
	if err != nil {
		return Summary{}, err
	}
	records, err := svc.repo.QueryStudentRecords(ctx, st.ID, fromDate, toDate)
	if err != nil {
		return Summary{}, errors.Wrap(err, "querying student attendance")
	}
	return newSummary(st.ID, fromDate, toDate, records), nil
}

func parseDateField(field, s string) (core.Date, error) {
	t, err := core.ParseDate(s)
	if err != nil {
		return core.Date{}, core.NewValidationError(err, core.FieldError{Field: field, Error: "date must be formatted as YYYY-MM-DD"})
	}
	return core.Date{Time: t}, nil
}
