package fee

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/school"
)

var (
	// errors
	ErrNotFound = core.NewNotFoundError("invoice", "")

	errPaymentExceedsBalance = "payment exceeds the invoice balance"
	errInvalidStatusFilter   = "status must be one of: pending, partial, paid, cancelled"
)

type (
	Repository interface {
		CreateInvoice(ctx context.Context, inv Invoice) (Invoice, error)
		GetInvoice(ctx context.Context, id string) (Invoice, error)
		QueryStudentInvoices(ctx context.Context, studentID string, filter Filter, ordering ...core.DBOrdering) ([]Invoice, error)
		QueryOutstandingInvoices(ctx context.Context, studentIDs ...string) ([]Invoice, error)

		// ApplyPayment is a guarded update, ok is false when the invoice is not outstanding
		// or owes less than the payment.
		ApplyPayment(ctx context.Context, p Payment) (inv Invoice, ok bool, err error)
		// CancelInvoice only cancels invoices without any payment.
		CancelInvoice(ctx context.Context, id string, updatedAt time.Time) (inv Invoice, ok bool, err error)
	}

	School interface {
		GetStudent(ctx context.Context, id string) (school.Student, error)
	}

	Service struct {
		repo     Repository
		school   School
		validate *validator.Validate
	}
)

var invoiceOrderings = []string{"due_date", "amount_due", "status", "title", "created_at"}

func NewService(repo Repository, sch School, validate *validator.Validate) *Service {
	return &Service{repo: repo, school: sch, validate: validate}
}

func (svc *Service) CreateInvoice(ctx context.Context, studentID string, ni NewInvoice) (Invoice, error) {
	ni.Clean()
	if err := svc.validate.Struct(ni); err != nil {
		return Invoice{}, err
	}
	st, err := svc.school.GetStudent(ctx, studentID)
	if err != nil {
		return Invoice{}, err
	}

	now := core.NowFunc().UTC()
	return svc.repo.CreateInvoice(ctx, Invoice{
		StudentID:  st.ID,
		Title:      ni.Title,
		AmountDue:  ni.AmountDue,
		AmountPaid: decimal.Zero,
		DueDate:    core.MustParseDate(ni.DueDate), // validated
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
}

func (svc *Service) GetInvoice(ctx context.Context, id string) (Invoice, error) {
	return svc.repo.GetInvoice(ctx, core.CleanString(id, true /* lower */))
}

func (svc *Service) ListStudentInvoices(ctx context.Context, studentID string, filter Filter, ordering ...core.DBOrdering) ([]Invoice, error) {
	st, err := svc.school.GetStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	for _, s := range filter.Statuses {
		if !s.Valid() {
			return nil, core.NewValidationError(nil, core.FieldError{Field: "status", Error: errInvalidStatusFilter})
		}
	}
	return svc.repo.QueryStudentInvoices(ctx, st.ID, filter, core.AllowedOrderings(ordering, invoiceOrderings...)...)
}

// RecordPayment moves an invoice to partial, or paid once its balance is settled.
func (svc *Service) RecordPayment(ctx context.Context, id string, req PaymentRequest) (Invoice, error) {
	if err := svc.validate.Struct(req); err != nil {
		return Invoice{}, err
	}
	id = core.CleanString(id, true /* lower */)
	inv, ok, err := svc.repo.ApplyPayment(ctx, Payment{InvoiceID: id, Amount: req.Amount, UpdatedAt: core.NowFunc().UTC()})
	if err != nil {
		return Invoice{}, errors.Wrap(err, "applying payment")
	}
	if ok {
		return inv, nil
	}

	cur, err := svc.repo.GetInvoice(ctx, id)
	if err != nil {
		return Invoice{}, err
	}
	if !cur.Status.Outstanding() {
		return Invoice{}, core.NewInvalidStateError("invoice", cur.ID, string(cur.Status), string(StatusPaid))
	}
	return Invoice{}, core.NewValidationError(nil, core.FieldError{Field: "amount", Error: errPaymentExceedsBalance})
}

func (svc *Service) CancelInvoice(ctx context.Context, id string) (Invoice, error) {
	id = core.CleanString(id, true /* lower */)
	inv, ok, err := svc.repo.CancelInvoice(ctx, id, core.NowFunc().UTC())
	if err != nil {
		return Invoice{}, errors.Wrap(err, "cancelling invoice")
	}
	if ok {
		return inv, nil
	}

	cur, err := svc.repo.GetInvoice(ctx, id)
	if err != nil {
		return Invoice{}, err
	}
	return Invoice{}, core.NewInvalidStateError("invoice", cur.ID, string(cur.Status), string(StatusCancelled))
}

// StudentSummary aggregates the outstanding invoices of an existing student.
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

// StudentSummaries aggregates the outstanding invoices of many students in one read.
// Invoices are overdue once their due date is before today.
func (svc *Service) StudentSummaries(ctx context.Context, studentIDs ...string) (map[string]Summary, error) {
	sums := make(map[string]Summary, len(studentIDs))
	if len(studentIDs) == 0 {
		return sums, nil
	}
	invoices, err := svc.repo.QueryOutstandingInvoices(ctx, studentIDs...)
	if err != nil {
		return nil, errors.Wrap(err, "querying outstanding invoices")
	}
	today := core.Today()
	for _, id := range studentIDs {
		sums[id] = newSummary(id, invoices, today)
	}
	return sums, nil
}
