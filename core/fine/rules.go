package fine

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/attendance"
)

// RulesResult lists the fines touched by ApplyAttendanceRules.
type RulesResult struct {
	Issued    []Fine `json:"issued"`
	Cancelled []Fine `json:"cancelled"`
}

// ruleRecord is an attendance record with the fine it calls for.
type ruleRecord struct {
	attendance.Record
	fineType string
	amount   decimal.Decimal
	due      bool
}

// fineFor returns the fine type & amount charged for an attendance status, if any.
func (svc *Service) fineFor(status attendance.Status) (string, decimal.Decimal, bool) {
	switch status {
	case attendance.StatusLate:
		return TypeLate, svc.conf.LateAmount, svc.conf.LateAmount.IsPositive()
	case attendance.StatusAbsent:
		return TypeAbsence, svc.conf.AbsentAmount, svc.conf.AbsentAmount.IsPositive()
	default:
		return "", decimal.Zero, false
	}
}

// ApplyAttendanceRules issues the late & absence fines due for the attendance of a class on one day,
// once records (its full saved state) are stored. Each fine is tied to its record's
// class/date/student slot, so applying the rules again after the day is re-saved only issues
// what is missing and cancels pending fines that the corrected attendance no longer justifies,
// including those of students who no longer have a record that day.
func (svc *Service) ApplyAttendanceRules(ctx context.Context, classID string, day core.Date, records []attendance.Record) (RulesResult, error) {
	var res RulesResult
	existing, err := svc.repo.QueryFinesByRefPrefix(ctx, attendance.DayRef(classID, day))
	if err != nil {
		return res, errors.Wrap(err, "querying attendance fines")
	}

	due := make(map[string]ruleRecord, len(records))
	for _, rec := range records {
		fineType, amount, ok := svc.fineFor(rec.Status)
		due[rec.Ref()] = ruleRecord{Record: rec, fineType: fineType, amount: amount, due: ok}
	}

	now := core.NowFunc().UTC()
	issued := make(map[string]bool, len(existing))
	for _, f := range existing {
		if f.Status == StatusCancelled {
			continue
		}
		r := due[f.AttendanceRef.String]
		if r.due && f.FineType == r.fineType {
			issued[f.AttendanceRef.String] = true
			continue
		}
		if !f.IsPending() {
			continue // settled fines are never reverted
		}
		cancelled, err := svc.transition(ctx, StatusUpdate{
			ID:        f.ID,
			Status:    StatusCancelled,
			Notes:     null.StringFrom(correctedNote),
			UpdatedAt: now,
		})
		if err != nil {
			if core.IsInvalidState(err) {
				continue // settled meanwhile
			}
			return res, errors.Wrap(err, "cancelling attendance fine")
		}
		res.Cancelled = append(res.Cancelled, cancelled)
	}

	for _, rec := range records {
		r := due[rec.Ref()]
		if !r.due || issued[rec.Ref()] {
			continue
		}
		f, err := svc.repo.CreateFine(ctx, Fine{
			StudentID:     rec.StudentID,
			FineType:      r.fineType,
			Amount:        r.amount,
			Status:        StatusPending,
			IssuedDate:    rec.Date,
			AttendanceRef: null.StringFrom(rec.Ref()),
			CreatedAt:     now,
			UpdatedAt:     now,
		})
		if err != nil {
			if errors.Is(err, ErrAlreadyIssued) {
				continue // issued by a concurrent save of the same day
			}
			return res, errors.Wrap(err, "issuing attendance fine")
		}
		res.Issued = append(res.Issued, f)
	}
	return res, nil
}
