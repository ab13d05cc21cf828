package fee

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/trezcool/darasa/core"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusPartial   Status = "partial"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPartial, StatusPaid, StatusCancelled:
		return true
	default:
		return false
	}
}

// Outstanding is true while some of the invoice is still owed.
func (s Status) Outstanding() bool { return s == StatusPending || s == StatusPartial }

type Invoice struct {
	ID         string          `json:"id" db:"id"`
	StudentID  string          `json:"student_id" db:"student_id"`
	Title      string          `json:"title" db:"title"`
	AmountDue  decimal.Decimal `json:"amount_due" db:"amount_due"`
	AmountPaid decimal.Decimal `json:"amount_paid" db:"amount_paid"`
	DueDate    core.Date       `json:"due_date" db:"due_date"`
	Status     Status          `json:"status" db:"status"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at" db:"updated_at"`
}

func (inv Invoice) Balance() decimal.Decimal {
	return inv.AmountDue.Sub(inv.AmountPaid)
}

func (inv Invoice) IsOverdue(today core.Date) bool {
	return inv.Status.Outstanding() && inv.DueDate.Before(today.Time)
}

func (inv Invoice) MarshalJSON() ([]byte, error) {
	type invoice Invoice
	return json.Marshal(struct {
		invoice
		AmountDue  string `json:"amount_due"`
		AmountPaid string `json:"amount_paid"`
		Balance    string `json:"balance"`
	}{
		invoice:    invoice(inv),
		AmountDue:  inv.AmountDue.StringFixed(2),
		AmountPaid: inv.AmountPaid.StringFixed(2),
		Balance:    inv.Balance().StringFixed(2),
	})
}

type NewInvoice struct {
	Title     string          `json:"title" validate:"required,notblank,max=255"`
	AmountDue decimal.Decimal `json:"amount_due" validate:"decimal_positive,money"`
	DueDate   string          `json:"due_date" validate:"required,isodate"`
}

func (ni *NewInvoice) Clean() {
	ni.Title = core.CleanString(ni.Title)
	ni.DueDate = core.CleanString(ni.DueDate)
}

type PaymentRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"decimal_positive,money"`
}

// Payment adds Amount to the paid amount of a pending or partial invoice,
// provided the invoice still owes at least Amount.
type Payment struct {
	InvoiceID string
	Amount    decimal.Decimal
	UpdatedAt time.Time
}

type Filter struct {
	Statuses []Status `query:"status"`
}

// Summary is the fee exposure of a student.
type Summary struct {
	StudentID         string          `json:"student_id"`
	PendingInvoices   int             `json:"pending_invoices"`
	OverdueInvoices   int             `json:"overdue_invoices"`
	OutstandingAmount decimal.Decimal `json:"outstanding_amount"`
}

func (s Summary) MarshalJSON() ([]byte, error) {
	type summary Summary
	return json.Marshal(struct {
		summary
		OutstandingAmount string `json:"outstanding_amount"`
	}{summary: summary(s), OutstandingAmount: s.OutstandingAmount.StringFixed(2)})
}

func newSummary(studentID string, invoices []Invoice, today core.Date) Summary {
	sum := Summary{StudentID: studentID, OutstandingAmount: decimal.Zero}
	for _, inv := range invoices {
		if inv.StudentID != studentID || !inv.Status.Outstanding() {
			continue
		}
		sum.PendingInvoices++
		if inv.IsOverdue(today) {
			sum.OverdueInvoices++
		}
		sum.OutstandingAmount = sum.OutstandingAmount.Add(inv.Balance())
	}
	return sum
}
