package school

import (
	"net/mail"
	"strings"
	"time"

	"github.com/trezcool/darasa/core"
)

type StudentStatus string

const (
	StudentActive    StudentStatus = "active"
	StudentWithdrawn StudentStatus = "withdrawn"
	StudentGraduated StudentStatus = "graduated"
)

func (s StudentStatus) Valid() bool {
	switch s {
	case StudentActive, StudentWithdrawn, StudentGraduated:
		return true
	default:
		return false
	}
}

type Class struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Level     string    `json:"level" db:"level"`
	TeacherID string    `json:"teacher_id,omitempty" db:"teacher_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type Student struct {
	ID            string        `json:"id" db:"id"`
	AdmissionNo   string        `json:"admission_no" db:"admission_no"`
	FirstName     string        `json:"first_name" db:"first_name"`
	LastName      string        `json:"last_name" db:"last_name"`
	ClassID       string        `json:"class_id" db:"class_id"`
	Status        StudentStatus `json:"status" db:"status"`
	GuardianName  string        `json:"guardian_name" db:"guardian_name"`
	GuardianPhone string        `json:"guardian_phone" db:"guardian_phone"`
	GuardianEmail string        `json:"guardian_email" db:"guardian_email"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" db:"updated_at"`
}

func (s Student) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

func (s Student) IsActive() bool { return s.Status == StudentActive }

// GuardianAddress is nil when the guardian has no email on record.
func (s Student) GuardianAddress() *mail.Address {
	if s.GuardianEmail == "" {
		return nil
	}
	return &mail.Address{Name: s.GuardianName, Address: s.GuardianEmail}
}

type NewClass struct {
	Name      string `json:"name" validate:"required,notblank,max=100"`
	Level     string `json:"level" validate:"omitempty,max=50"`
	TeacherID string `json:"teacher_id" validate:"omitempty,uuid"`
}

func (nc *NewClass) Clean() {
	nc.Name = core.CleanString(nc.Name)
	nc.Level = core.CleanString(nc.Level)
	nc.TeacherID = core.CleanString(nc.TeacherID, true /* lower */)
}

type NewStudent struct {
	AdmissionNo   string `json:"admission_no" validate:"required,notblank,max=50"`
	FirstName     string `json:"first_name" validate:"required,notblank,max=100"`
	LastName      string `json:"last_name" validate:"required,notblank,max=100"`
	ClassID       string `json:"class_id" validate:"required,uuid"`
	GuardianName  string `json:"guardian_name" validate:"omitempty,max=255"`
	GuardianPhone string `json:"guardian_phone" validate:"omitempty,max=32"`
	GuardianEmail string `json:"guardian_email" validate:"omitempty,email"`
}

func (ns *NewStudent) Clean() {
	ns.AdmissionNo = core.CleanString(ns.AdmissionNo)
	ns.FirstName = core.CleanString(ns.FirstName)
	ns.LastName = core.CleanString(ns.LastName)
	ns.ClassID = core.CleanString(ns.ClassID, true /* lower */)
	ns.GuardianName = core.CleanString(ns.GuardianName)
	ns.GuardianPhone = core.CleanString(ns.GuardianPhone)
	ns.GuardianEmail = core.CleanString(ns.GuardianEmail, true /* lower */)
}

type StudentStatusUpdate struct {
	Status StudentStatus `json:"status" validate:"required,student_status"`
}

type StudentFilter struct {
	Search   string          `query:"search"`
	ClassID  string          `query:"class_id"`
	Statuses []StudentStatus `query:"status"`
}

func (sf *StudentFilter) Clean() {
	sf.Search = core.CleanString(sf.Search)
	sf.ClassID = core.CleanString(sf.ClassID, true /* lower */)
}
