package notify

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/attendance"
)

var statusPhrases = map[attendance.Status]string{
	attendance.StatusPresent: "present",
	attendance.StatusAbsent:  "absent",
	attendance.StatusLate:    "late",
	attendance.StatusExcused: "excused",
	attendance.StatusSick:    "absent due to sickness",
}

func greeting(guardian string) string {
	if guardian = strings.TrimSpace(guardian); guardian == "" {
		return "Dear Parent/Guardian,"
	}
	return "Dear " + guardian + ","
}

func formatMoney(currency string, amount decimal.Decimal) string {
	return strings.TrimSpace(currency + " " + amount.StringFixed(2))
}

// AttendanceMessage is the text sent to a guardian about a student's attendance.
func AttendanceMessage(school, guardian, student, class string, status attendance.Status, date core.Date, notes string) string {
	phrase, ok := statusPhrases[status]
	if !ok {
		phrase = string(status)
	}
	msg := fmt.Sprintf("%s %s was marked %s in %s on %s.", greeting(guardian), student, phrase, class, date.Format("Monday, 2 January 2006"))
	if notes = strings.TrimSpace(notes); notes != "" {
		msg += " Note: " + notes + "."
	}
	return msg + " - " + school
}

// FineReminderMessage is the text sent to a guardian about a student's pending fines.
func FineReminderMessage(school, guardian, student, currency string, count int, amount decimal.Decimal) string {
	if count == 0 {
		return fmt.Sprintf("%s %s has no outstanding fines. - %s", greeting(guardian), student, school)
	}
	noun := "fine"
	if count > 1 {
		noun = "fines"
	}
	return fmt.Sprintf(
		"%s %s has %d pending %s totalling %s. Kindly settle at the school office. - %s",
		greeting(guardian), student, count, noun, formatMoney(currency, amount), school,
	)
}
