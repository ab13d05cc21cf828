package fine

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusWaived    Status = "waived"
	StatusCancelled Status = "cancelled"
)

var AllStatuses = []Status{StatusPending, StatusPaid, StatusWaived, StatusCancelled}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusWaived, StatusCancelled:
		return true
	default:
		return false
	}
}

// Fine types issued by the attendance rules.
const (
	TypeLate    = "late"
	TypeAbsence = "absence"
)

var PaymentMethods = []string{"cash", "mobile_money", "bank_transfer", "card", "cheque"}

const (
	waivedNote    = "Waived by admin"
	correctedNote = "attendance corrected"
)

type Fine struct {
	ID            string          `json:"id" db:"id"`
	StudentID     string          `json:"student_id" db:"student_id"`
	FineType      string          `json:"fine_type" db:"fine_type"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	Status        Status          `json:"status" db:"status"`
	IssuedDate    core.Date       `json:"issued_date" db:"issued_date"`
	PaidDate      null.Time       `json:"paid_date" db:"paid_date"`
	PaymentMethod null.String     `json:"payment_method" db:"payment_method"`
	CollectedBy   null.String     `json:"collected_by" db:"collected_by"`
	Notes         null.String     `json:"notes" db:"notes"`
	AttendanceRef null.String     `json:"attendance_ref" db:"attendance_ref"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

func (f Fine) IsPending() bool { return f.Status == StatusPending }

// MarshalJSON renders the amount with 2 decimal places.
func (f Fine) MarshalJSON() ([]byte, error) {
	type fine Fine
	return json.Marshal(struct {
		fine
		Amount string `json:"amount"`
	}{fine: fine(f), Amount: f.Amount.StringFixed(2)})
}

// NewFine is a manually issued fine.
type NewFine struct {
	FineType   string          `json:"fine_type" validate:"required,notblank,max=50"`
	Amount     decimal.Decimal `json:"amount" validate:"decimal_positive,money"`
	IssuedDate string          `json:"issued_date" validate:"omitempty,isodate"`
	Notes      string          `json:"notes" validate:"max=500"`
}

func (nf *NewFine) Clean() {
	nf.FineType = core.CleanString(nf.FineType, true /* lower */)
	nf.IssuedDate = core.CleanString(nf.IssuedDate)
	nf.Notes = core.CleanString(nf.Notes)
}

type CollectRequest struct {
	PaymentMethod string `json:"payment_method" validate:"required,payment_method"`
}

func (cr *CollectRequest) Clean() {
	cr.PaymentMethod = core.CleanString(cr.PaymentMethod, true /* lower */)
}

type CancelRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// StatusUpdate moves a pending Fine to Status.
type StatusUpdate struct {
	ID            string
	Status        Status
	PaidDate      null.Time
	PaymentMethod null.String
	CollectedBy   null.String
	Notes         null.String
	UpdatedAt     time.Time
}

type Filter struct {
	Statuses []Status `query:"status"`
	FineType string   `query:"fine_type"`
}

func (f *Filter) Clean() {
	f.FineType = core.CleanString(f.FineType, true /* lower */)
}

// StatusTotal is the number & sum of a student's fines in one status.
type StatusTotal struct {
	StudentID string          `db:"student_id"`
	Status    Status          `db:"status"`
	Count     int             `db:"count"`
	Amount    decimal.Decimal `db:"amount"`
}

// Summary is the fine exposure of a student.
type Summary struct {
	StudentID      string          `json:"student_id"`
	PendingCount   int             `json:"pending_count"`
	PendingAmount  decimal.Decimal `json:"pending_amount"`
	PaidCount      int             `json:"paid_count"`
	WaivedCount    int             `json:"waived_count"`
	CancelledCount int             `json:"cancelled_count"`
	TotalCount     int             `json:"total_count"`
}

func (s Summary) MarshalJSON() ([]byte, error) {
	type summary Summary
	return json.Marshal(struct {
		summary
		PendingAmount string `json:"pending_amount"`
	}{summary: summary(s), PendingAmount: s.PendingAmount.StringFixed(2)})
}

func newSummary(studentID string, totals []StatusTotal) Summary {
	sum := Summary{StudentID: studentID, PendingAmount: decimal.Zero}
	for _, t := range totals {
		if t.StudentID != studentID {
			continue
		}
		switch t.Status {
		case StatusPending:
			sum.PendingCount += t.Count
			sum.PendingAmount = sum.PendingAmount.Add(t.Amount)
		case StatusPaid:
			sum.PaidCount += t.Count
		case StatusWaived:
			sum.WaivedCount += t.Count
		case StatusCancelled:
			sum.CancelledCount += t.Count
		}
		sum.TotalCount += t.Count
	}
	return sum
}
