package fee_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/fee"
	"github.com/trezcool/darasa/tests"
)

func setup(t *testing.T) (*testutil.Stack, string) {
	s := testutil.NewStack(t)
	cls := testutil.CreateClass(t, s.SchoolSvc, "Form 1A")
	st := testutil.CreateStudent(t, s.SchoolSvc, cls.ID, "ADM001", "Amani", "Kamau")
	return s, st.ID
}

func pay(amount string) fee.PaymentRequest {
	return fee.PaymentRequest{Amount: decimal.RequireFromString(amount)}
}

func TestService_CreateInvoice(t *testing.T) {
	s, studentID := setup(t)
	ctx := context.Background()

	inv := testutil.CreateInvoice(t, s.FeeSvc, studentID, " Term 1 tuition ", "1500", core.MustParseDate("2024-02-01"))
	assert.Equal(t, "Term 1 tuition", inv.Title)
	assert.Equal(t, fee.StatusPending, inv.Status)
	assert.True(t, inv.AmountPaid.IsZero())

	data, err := json.Marshal(inv)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"amount_due":"1500.00"`)
	assert.Contains(t, string(data), `"balance":"1500.00"`)
	assert.Contains(t, string(data), `"due_date":"2024-02-01"`)

	_, err = s.FeeSvc.CreateInvoice(ctx, studentID, fee.NewInvoice{Title: "Trip", AmountDue: decimal.Zero, DueDate: "2024-02-01"})
	assert.Error(t, err)

	_, err = s.FeeSvc.CreateInvoice(ctx, studentID, fee.NewInvoice{Title: "Trip", AmountDue: decimal.NewFromInt(10), DueDate: "01/02/2024"})
	assert.Error(t, err)

	for _, amount := range []string{"0.001", "12.345", "10000000000"} {
		_, err = s.FeeSvc.CreateInvoice(ctx, studentID, fee.NewInvoice{Title: "Trip", AmountDue: decimal.RequireFromString(amount), DueDate: "2024-02-01"})
		assert.True(t, isFieldError(err, "amount_due"), "amount %s: %v", amount, err)
	}
}

func TestService_RecordPayment(t *testing.T) {
	s, studentID := setup(t)
	ctx := context.Background()

	inv := testutil.CreateInvoice(t, s.FeeSvc, studentID, "Term 1 tuition", "100.00", core.MustParseDate("2024-02-01"))

	got, err := s.FeeSvc.RecordPayment(ctx, inv.ID, pay("40.10"))
	require.NoError(t, err)
	assert.Equal(t, fee.StatusPartial, got.Status)
	assert.Equal(t, "59.90", got.Balance().StringFixed(2))

	_, err = s.FeeSvc.RecordPayment(ctx, inv.ID, pay("60.00"))
	assert.True(t, core.IsValidation(err), "overpayment: %v", err)

	_, err = s.FeeSvc.RecordPayment(ctx, inv.ID, pay("-1"))
	assert.Error(t, err)

	_, err = s.FeeSvc.RecordPayment(ctx, inv.ID, pay("0.005"))
	assert.True(t, isFieldError(err, "amount"), "sub-cent payment: %v", err)

	got, err = s.FeeSvc.RecordPayment(ctx, inv.ID, pay("59.90"))
	require.NoError(t, err)
	assert.Equal(t, fee.StatusPaid, got.Status)
	assert.True(t, got.Balance().IsZero())

	_, err = s.FeeSvc.RecordPayment(ctx, inv.ID, pay("1"))
	assert.True(t, core.IsInvalidState(err))

	_, err = s.FeeSvc.CancelInvoice(ctx, inv.ID)
	assert.True(t, core.IsInvalidState(err))

	_, err = s.FeeSvc.RecordPayment(ctx, "0a6f3b8e-1c3e-4c55-9a57-3d1c4e2b9f10", pay("1"))
	assert.True(t, core.IsNotFound(err))
}

func TestService_CancelInvoice(t *testing.T) {
	s, studentID := setup(t)
	ctx := context.Background()

	inv := testutil.CreateInvoice(t, s.FeeSvc, studentID, "Trip", "30", core.MustParseDate("2024-02-01"))
	got, err := s.FeeSvc.CancelInvoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, fee.StatusCancelled, got.Status)

	_, err = s.FeeSvc.RecordPayment(ctx, inv.ID, pay("1"))
	assert.True(t, core.IsInvalidState(err))
}

func TestService_clock(t *testing.T) {
	s, studentID := setup(t)
	ctx := context.Background()

	now := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	defer func(f func() time.Time) { core.NowFunc = f }(core.NowFunc)
	core.NowFunc = func() time.Time { return now }

	inv := testutil.CreateInvoice(t, s.FeeSvc, studentID, "Trip", "30", core.MustParseDate("2024-04-01"))
	assert.True(t, inv.CreatedAt.Equal(now))
	assert.True(t, inv.UpdatedAt.Equal(now))

	now = now.Add(48 * time.Hour)
	got, err := s.FeeSvc.RecordPayment(ctx, inv.ID, pay("10"))
	require.NoError(t, err)
	assert.True(t, got.UpdatedAt.Equal(now))
	assert.True(t, got.CreatedAt.Equal(inv.CreatedAt))

	other := testutil.CreateInvoice(t, s.FeeSvc, studentID, "Uniform", "12", core.MustParseDate("2024-04-01"))
	now = now.Add(time.Hour)
	cancelled, err := s.FeeSvc.CancelInvoice(ctx, other.ID)
	require.NoError(t, err)
	assert.True(t, cancelled.UpdatedAt.Equal(now))
}

func TestService_StudentSummary(t *testing.T) {
	s, studentID := setup(t)
	ctx := context.Background()

	today := core.Today()
	overdue := testutil.CreateInvoice(t, s.FeeSvc, studentID, "Term 1", "100.25", core.NewDate(today.AddDate(0, 0, -1)))
	testutil.CreateInvoice(t, s.FeeSvc, studentID, "Term 2", "200", today)
	cancelled := testutil.CreateInvoice(t, s.FeeSvc, studentID, "Trip", "50", today)

	_, err := s.FeeSvc.RecordPayment(ctx, overdue.ID, pay("0.25"))
	require.NoError(t, err)
	_, err = s.FeeSvc.CancelInvoice(ctx, cancelled.ID)
	require.NoError(t, err)

	sum, err := s.FeeSvc.StudentSummary(ctx, studentID)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.PendingInvoices)
	assert.Equal(t, 1, sum.OverdueInvoices)
	assert.Equal(t, "300.00", sum.OutstandingAmount.StringFixed(2))

	data, err := json.Marshal(sum)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"outstanding_amount":"300.00"`)

	list, err := s.FeeSvc.ListStudentInvoices(ctx, studentID, fee.Filter{Statuses: []fee.Status{fee.StatusCancelled}})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, cancelled.ID, list[0].ID)
}

func isFieldError(err error, field string) bool {
	if vErrs, ok := errors.Cause(err).(validator.ValidationErrors); ok {
		for _, fe := range vErrs {
			if fe.Field() == field {
				return true
			}
		}
	}
	return false
}
