package notify

import (
	"context"
	"net/mail"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/attendance"
	"github.com/trezcool/darasa/core/fine"
	"github.com/trezcool/darasa/core/school"
)

type Kind string

const (
	KindAttendance   Kind = "attendance_alert"
	KindFineReminder Kind = "fine_reminder"
)

// alertStatuses are the attendance statuses guardians are told about.
var alertStatuses = map[attendance.Status]bool{
	attendance.StatusAbsent: true,
	attendance.StatusLate:   true,
	attendance.StatusSick:   true,
}

// Alert is a message for a student's guardian, relayed by hand through WhatsApp or by email.
type Alert struct {
	Kind          Kind              `json:"kind"`
	StudentID     string            `json:"student_id"`
	StudentName   string            `json:"student_name"`
	GuardianName  string            `json:"guardian_name"`
	GuardianPhone string            `json:"guardian_phone"`
	GuardianEmail string            `json:"guardian_email"`
	Status        attendance.Status `json:"status,omitempty"`
	Date          core.Date         `json:"date"`
	Message       string            `json:"message"`
	WhatsAppLink  string            `json:"whatsapp_link"`
}

func (a Alert) emailSubject() string {
	if a.Kind == KindFineReminder {
		return "Fine reminder: " + a.StudentName
	}
	return "Attendance alert: " + a.StudentName
}

type (
	School interface {
		GetClass(ctx context.Context, id string) (school.Class, error)
		GetStudent(ctx context.Context, id string) (school.Student, error)
		QueryStudents(ctx context.Context, filter school.StudentFilter, ordering ...core.DBOrdering) ([]school.Student, error)
	}

	Attendance interface {
		GetAttendance(ctx context.Context, classID, date string) ([]attendance.Record, error)
	}

	Fines interface {
		StudentSummary(ctx context.Context, studentID string) (fine.Summary, error)
	}

	Dispatcher struct {
		school     School
		attendance Attendance
		fines      Fines
		mailSvc    core.EmailService
		conf       *core.Config
	}
)

func NewDispatcher(sch School, att Attendance, fines Fines, mailSvc core.EmailService, conf *core.Config) *Dispatcher {
	return &Dispatcher{
		school:     sch,
		attendance: att,
		fines:      fines,
		mailSvc:    mailSvc,
		conf:       conf,
	}
}

func (d *Dispatcher) newAlert(kind Kind, st school.Student, msg string) Alert {
	return Alert{
		Kind:          kind,
		StudentID:     st.ID,
		StudentName:   st.FullName(),
		GuardianName:  st.GuardianName,
		GuardianPhone: st.GuardianPhone,
		GuardianEmail: st.GuardianEmail,
		Message:       msg,
		WhatsAppLink:  WhatsAppLink(st.GuardianPhone, msg, d.conf.Notify.DefaultRegion),
	}
}

// AttendanceAlerts builds one Alert per student marked absent, late or sick in a class on a day.
func (d *Dispatcher) AttendanceAlerts(ctx context.Context, classID, date string) ([]Alert, error) {
	records, err := d.attendance.GetAttendance(ctx, classID, date)
	if err != nil {
		return nil, err
	}
	cls, err := d.school.GetClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	students, err := d.school.QueryStudents(ctx, school.StudentFilter{ClassID: cls.ID})
	if err != nil {
		return nil, errors.Wrap(err, "querying class students")
	}
	byID := make(map[string]school.Student, len(students))
	for _, st := range students {
		byID[st.ID] = st
	}

	alerts := make([]Alert, 0)
	for _, rec := range records {
		st, ok := byID[rec.StudentID]
		if !ok || !alertStatuses[rec.Status] {
			continue
		}
		msg := AttendanceMessage(d.conf.AppName, st.GuardianName, st.FullName(), cls.Name, rec.Status, rec.Date, rec.Notes.String)
		alert := d.newAlert(KindAttendance, st, msg)
		alert.Status = rec.Status
		alert.Date = rec.Date
		alerts = append(alerts, alert)
	}
	return alerts, nil
}

// FineReminder builds an Alert about the pending fines of a student.
func (d *Dispatcher) FineReminder(ctx context.Context, studentID string) (Alert, error) {
	st, err := d.school.GetStudent(ctx, studentID)
	if err != nil {
		return Alert{}, err
	}
	sum, err := d.fines.StudentSummary(ctx, st.ID)
	if err != nil {
		return Alert{}, errors.Wrap(err, "summarizing fines")
	}
	msg := FineReminderMessage(d.conf.AppName, st.GuardianName, st.FullName(), d.conf.Fines.Currency, sum.PendingCount, sum.PendingAmount)
	alert := d.newAlert(KindFineReminder, st, msg)
	alert.Date = core.Today()
	return alert, nil
}

// EmailAlerts queues an email for every Alert whose guardian has an email address.
// It returns the number of queued emails; delivery is not tracked.
func (d *Dispatcher) EmailAlerts(alerts ...Alert) int {
	messages := make([]*core.EmailMessage, 0, len(alerts))
	for _, a := range alerts {
		if a.GuardianEmail == "" {
			continue
		}
		messages = append(messages, &core.EmailMessage{
			To:           []mail.Address{{Name: a.GuardianName, Address: a.GuardianEmail}},
			Subject:      a.emailSubject(),
			TemplateName: string(a.Kind),
			TemplateData: a,
		})
	}
	if len(messages) > 0 {
		d.mailSvc.SendMessages(messages...)
	}
	return len(messages)
}
