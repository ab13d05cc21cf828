package fine

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/school"
)

var (
	// errors
	ErrNotFound      = core.NewNotFoundError("fine", "")
	ErrAlreadyIssued = errors.New("an active fine of this type already exists for the attendance record")
)

type (
	Repository interface {
		// CreateFine returns ErrAlreadyIssued when f duplicates the type & attendance_ref
		// of a fine that is not cancelled.
		CreateFine(ctx context.Context, f Fine) (Fine, error)
		GetFine(ctx context.Context, id string) (Fine, error)
		QueryStudentFines(ctx context.Context, studentID string, filter Filter, ordering ...core.DBOrdering) ([]Fine, error)
		// QueryFinesByRefPrefix returns the fines whose attendance_ref starts with prefix.
		QueryFinesByRefPrefix(ctx context.Context, prefix string) ([]Fine, error)

		// UpdatePendingFine applies upd only if the fine is still pending.
		// ok is false when no pending fine with upd.ID exists.
		UpdatePendingFine(ctx context.Context, upd StatusUpdate) (f Fine, ok bool, err error)

		SumFinesByStatus(ctx context.Context, studentIDs ...string) ([]StatusTotal, error)
	}

	School interface {
		GetStudent(ctx context.Context, id string) (school.Student, error)
	}

	Service struct {
		repo     Repository
		school   School
		conf     core.FinesConfig
		validate *validator.Validate
	}
)

var fineOrderings = []string{"issued_date", "amount", "status", "fine_type", "created_at"}

func NewService(repo Repository, sch School, conf core.FinesConfig, validate *validator.Validate) *Service {
	return &Service{repo: repo, school: sch, conf: conf, validate: validate}
}

// IssueFine manually charges a pending fine to a student.
func (svc *Service) IssueFine(ctx context.Context, studentID string, nf NewFine) (Fine, error) {
	nf.Clean()
	if err := svc.validate.Struct(nf); err != nil {
		return Fine{}, err
	}
	st, err := svc.school.GetStudent(ctx, studentID)
	if err != nil {
		return Fine{}, err
	}

	issued := core.Today()
	if nf.IssuedDate != "" {
		issued = core.MustParseDate(nf.IssuedDate) // validated
	}
	now := core.NowFunc().UTC()
	f := Fine{
		StudentID:  st.ID,
		FineType:   nf.FineType,
		Amount:     nf.Amount,
		Status:     StatusPending,
		IssuedDate: issued,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if nf.Notes != "" {
		f.Notes = null.StringFrom(nf.Notes)
	}
	return svc.repo.CreateFine(ctx, f)
}

func (svc *Service) GetFine(ctx context.Context, id string) (Fine, error) {
	return svc.repo.GetFine(ctx, core.CleanString(id, true /* lower */))
}

func (svc *Service) ListStudentFines(ctx context.Context, studentID string, filter Filter, ordering ...core.DBOrdering) ([]Fine, error) {
	st, err := svc.school.GetStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	filter.Clean()
	if err := svc.validate.Struct(filter); err != nil {
		return nil, err
	}
	return svc.repo.QueryStudentFines(ctx, st.ID, filter, core.AllowedOrderings(ordering, fineOrderings...)...)
}

// CollectFine marks a pending fine as paid.
func (svc *Service) CollectFine(ctx context.Context, id string, req CollectRequest, collectorID string) (Fine, error) {
	req.Clean()
	if err := svc.validate.Struct(req); err != nil {
		return Fine{}, err
	}
	now := core.NowFunc().UTC()
	return svc.transition(ctx, StatusUpdate{
		ID:            id,
		Status:        StatusPaid,
		PaidDate:      null.TimeFrom(now),
		PaymentMethod: null.StringFrom(req.PaymentMethod),
		CollectedBy:   null.StringFrom(collectorID),
		UpdatedAt:     now,
	})
}

// WaiveFine forgives a pending fine.
func (svc *Service) WaiveFine(ctx context.Context, id, waiverID string) (Fine, error) {
	return svc.transition(ctx, StatusUpdate{
		ID:          id,
		Status:      StatusWaived,
		CollectedBy: null.StringFrom(waiverID),
		Notes:       null.StringFrom(waivedNote),
		UpdatedAt:   core.NowFunc().UTC(),
	})
}

// CancelFine voids a pending fine issued in error.
func (svc *Service) CancelFine(ctx context.Context, id, userID, reason string) (Fine, error) {
	upd := StatusUpdate{
		ID:          id,
		Status:      StatusCancelled,
		CollectedBy: null.StringFrom(userID),
		UpdatedAt:   core.NowFunc().UTC(),
	}
	if reason = core.CleanString(reason); reason != "" {
		upd.Notes = null.StringFrom(reason)
	}
	return svc.transition(ctx, upd)
}

// transition is a compare-and-swap on the pending status.
// The fine is left untouched when it is not pending anymore.
func (svc *Service) transition(ctx context.Context, upd StatusUpdate) (Fine, error) {
	upd.ID = core.CleanString(upd.ID, true /* lower */)
	f, ok, err := svc.repo.UpdatePendingFine(ctx, upd)
	if err != nil {
		return Fine{}, errors.Wrapf(err, "marking fine as %s", upd.Status)
	}
	if ok {
		return f, nil
	}

	cur, err := svc.repo.GetFine(ctx, upd.ID)
	if err != nil {
		return Fine{}, err
	}
	return Fine{}, core.NewInvalidStateError("fine", cur.ID, string(cur.Status), string(upd.Status))
}

// StudentSummary aggregates the fines of an existing student.
func (svc *Service) StudentSummary(ctx context.Context, studentID string) (Summary, error) {
	st, err := svc.school.GetStudent(ctx, studentID)
	if err != nil {
		return Summary{}, err
	}
	sums, err := svc.StudentSummaries(ctx, st.ID)
	if err != nil {
		return Summary{}, err
	}
	return sums[st.ID], nil
}

// StudentSummaries aggregates the fines of many students in one read.
// Every requested student gets a Summary, even without fines.
func (svc *Service) StudentSummaries(ctx context.Context, studentIDs ...string) (map[string]Summary, error) {
	sums := make(map[string]Summary, len(studentIDs))
	if len(studentIDs) == 0 {
		return sums, nil
	}
	totals, err := svc.repo.SumFinesByStatus(ctx, studentIDs...)
	if err != nil {
		return nil, errors.Wrap(err, "summing fines")
	}
	for _, id := range studentIDs {
		sums[id] = newSummary(id, totals)
	}
	return sums, nil
}
