package attendance

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
)

type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusLate    Status = "late"
	StatusExcused Status = "excused"
	StatusSick    Status = "sick"
)

var AllStatuses = []Status{StatusPresent, StatusAbsent, StatusLate, StatusExcused, StatusSick}

func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusLate, StatusExcused, StatusSick:
		return true
	default:
		return false
	}
}

// Attended is true for statuses counting toward the attendance rate.
func (s Status) Attended() bool { return s == StatusPresent || s == StatusLate }

const SessionRegular = "regular"

// Record is the attendance of one student in one class on one day.
type Record struct {
	ID          string      `json:"id" db:"id"`
	StudentID   string      `json:"student_id" db:"student_id"`
	ClassID     string      `json:"class_id" db:"class_id"`
	Date        core.Date   `json:"date" db:"date"`
	Status      Status      `json:"status" db:"status"`
	Notes       null.String `json:"notes" db:"notes"`
	MarkedBy    string      `json:"marked_by" db:"marked_by"`
	SessionType string      `json:"session_type" db:"session_type"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
}

// Ref identifies the (class, date, student) slot a Record occupies.
func (r Record) Ref() string {
	return DayRef(r.ClassID, r.Date) + r.StudentID
}

// DayRef is the prefix shared by the Ref of every Record of a class on one day.
func DayRef(classID string, day core.Date) string {
	return classID + "/" + day.String() + "/"
}

// Entry is the status picked for one student when marking a class.
type Entry struct {
	StudentID string `json:"student_id" validate:"required"`
	Status    Status `json:"status" validate:"omitempty,attendance_status"`
	Notes     string `json:"notes" validate:"max=500"`
}

// SaveRequest replaces the attendance of a whole class for one day.
// Active students of the class without an Entry are marked present.
type SaveRequest struct {
	ClassID     string  `json:"class_id" validate:"required"`
	Date        string  `json:"date" validate:"required,isodate"`
	SessionType string  `json:"session_type" validate:"omitempty,max=32"`
	Entries     []Entry `json:"entries" validate:"dive"`
}

func (req *SaveRequest) Clean() {
	req.ClassID = core.CleanString(req.ClassID, true /* lower */)
	req.Date = core.CleanString(req.Date)
	req.SessionType = core.CleanString(req.SessionType, true /* lower */)
	if req.SessionType == "" {
		req.SessionType = SessionRegular
	}
	for i := range req.Entries {
		e := &req.Entries[i]
		e.StudentID = core.CleanString(e.StudentID, true /* lower */)
		e.Status = Status(core.CleanString(string(e.Status), true /* lower */))
		e.Notes = core.CleanString(e.Notes)
	}
}

// Summary counts a student's attendance records over a period.
type Summary struct {
	StudentID string          `json:"student_id"`
	From      core.Date       `json:"from"`
	To        core.Date       `json:"to"`
	Counts    map[Status]int  `json:"counts"`
	Total     int             `json:"total"`
	Rate      decimal.Decimal `json:"rate"` // % of present|late days
}

func newSummary(studentID string, from, to core.Date, records []Record) Summary {
	sum := Summary{
		StudentID: studentID,
		From:      from,
		To:        to,
		Counts:    make(map[Status]int, len(AllStatuses)),
		Rate:      decimal.Zero,
	}
	for _, s := range AllStatuses {
		sum.Counts[s] = 0
	}
	var attended int64
	for _, r := range records {
		sum.Counts[r.Status]++
		sum.Total++
		if r.Status.Attended() {
			attended++
		}
	}
	if sum.Total > 0 {
		sum.Rate = decimal.NewFromInt(attended).
			Mul(decimal.NewFromInt(100)).
			DivRound(decimal.NewFromInt(int64(sum.Total)), 2)
	}
	return sum
}
