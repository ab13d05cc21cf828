package notify

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/attendance"
)

func TestAttendanceMessage(t *testing.T) {
	date := core.MustParseDate("2024-01-10")

	got := AttendanceMessage("Darasa", "Mama Amani", "Amani Kamau", "Form 1A", attendance.StatusSick, date, " fever ")
	assert.Equal(t, "Dear Mama Amani, Amani Kamau was marked absent due to sickness in Form 1A on Wednesday, 10 January 2024. Note: fever. - Darasa", got)

	got = AttendanceMessage("Darasa", "", "Amani Kamau", "Form 1A", attendance.StatusLate, date, "")
	assert.Equal(t, "Dear Parent/Guardian, Amani Kamau was marked late in Form 1A on Wednesday, 10 January 2024. - Darasa", got)
}

func TestFineReminderMessage(t *testing.T) {
	tests := []struct {
		name   string
		count  int
		amount decimal.Decimal
		want   string
	}{
		{
			name: "no fines", amount: decimal.Zero,
			want: "Dear Mama Amani, Amani Kamau has no outstanding fines. - Darasa",
		},
		{
			name: "one fine", count: 1, amount: decimal.RequireFromString("5"),
			want: "Dear Mama Amani, Amani Kamau has 1 pending fine totalling KES 5.00. Kindly settle at the school office. - Darasa",
		},
		{
			name: "many fines", count: 2, amount: decimal.RequireFromString("8.5"),
			want: "Dear Mama Amani, Amani Kamau has 2 pending fines totalling KES 8.50. Kindly settle at the school office. - Darasa",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FineReminderMessage("Darasa", "Mama Amani", "Amani Kamau", "KES", tt.count, tt.amount)
			assert.Equal(t, tt.want, got)
		})
	}
}
