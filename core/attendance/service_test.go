package attendance_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/attendance"
	"github.com/trezcool/darasa/tests"
)

func statuses(records []attendance.Record) map[string]attendance.Status {
	got := make(map[string]attendance.Status, len(records))
	for _, r := range records {
		got[r.StudentID] = r.Status
	}
	return got
}

func TestService_SaveAttendance(t *testing.T) {
	s := testutil.NewStack(t)
	ctx := context.Background()

	cls := testutil.CreateClass(t, s.SchoolSvc, "Form 1A")
	s1 := testutil.CreateStudent(t, s.SchoolSvc, cls.ID, "ADM001", "Amani", "Kamau")
	s2 := testutil.CreateStudent(t, s.SchoolSvc, cls.ID, "ADM002", "Baraka", "Otieno")

	save := func(entries ...attendance.Entry) ([]attendance.Record, error) {
		return s.AttendanceSvc.SaveAttendance(ctx, attendance.SaveRequest{
			ClassID: cls.ID,
			Date:    "2024-01-10",
			Entries: entries,
		}, "teacher-1")
	}

	t.Run("save then re-save replaces the day", func(t *testing.T) {
		_, err := save(
			attendance.Entry{StudentID: s1.ID, Status: attendance.StatusPresent},
			attendance.Entry{StudentID: s2.ID, Status: attendance.StatusAbsent},
		)
		require.NoError(t, err)

		got, err := s.AttendanceSvc.GetAttendance(ctx, cls.ID, "2024-01-10")
		require.NoError(t, err)
		assert.Equal(t, map[string]attendance.Status{s1.ID: attendance.StatusPresent, s2.ID: attendance.StatusAbsent}, statuses(got))

		_, err = save(
			attendance.Entry{StudentID: s1.ID, Status: attendance.StatusLate},
			attendance.Entry{StudentID: s2.ID, Status: attendance.StatusPresent},
		)
		require.NoError(t, err)

		got, err = s.AttendanceSvc.GetAttendance(ctx, cls.ID, "2024-01-10")
		require.NoError(t, err)
		assert.Len(t, got, 2)
		assert.Equal(t, map[string]attendance.Status{s1.ID: attendance.StatusLate, s2.ID: attendance.StatusPresent}, statuses(got))
	})

	t.Run("saving twice is idempotent", func(t *testing.T) {
		entries := []attendance.Entry{
			{StudentID: s1.ID, Status: attendance.StatusSick, Notes: "flu"},
			{StudentID: s2.ID, Status: attendance.StatusExcused},
		}
		_, err := save(entries...)
		require.NoError(t, err)
		_, err = save(entries...)
		require.NoError(t, err)

		got, err := s.AttendanceSvc.GetAttendance(ctx, cls.ID, "2024-01-10")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, map[string]attendance.Status{s1.ID: attendance.StatusSick, s2.ID: attendance.StatusExcused}, statuses(got))
		for _, r := range got {
			if r.StudentID == s1.ID {
				assert.Equal(t, "flu", r.Notes.String)
			}
			assert.Equal(t, "teacher-1", r.MarkedBy)
			assert.Equal(t, attendance.SessionRegular, r.SessionType)
		}
	})

	t.Run("unmarked students default to present", func(t *testing.T) {
		got, err := save(attendance.Entry{StudentID: s2.ID, Status: attendance.StatusAbsent})
		require.NoError(t, err)
		assert.Equal(t, map[string]attendance.Status{s1.ID: attendance.StatusPresent, s2.ID: attendance.StatusAbsent}, statuses(got))
	})

	t.Run("other days are left alone", func(t *testing.T) {
		_, err := s.AttendanceSvc.SaveAttendance(ctx, attendance.SaveRequest{
			ClassID: cls.ID,
			Date:    "2024-01-11",
			Entries: []attendance.Entry{{StudentID: s1.ID, Status: attendance.StatusAbsent}},
		}, "teacher-1")
		require.NoError(t, err)

		got, err := s.AttendanceSvc.GetAttendance(ctx, cls.ID, "2024-01-10")
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("storage failure keeps the prior day", func(t *testing.T) {
		before, err := s.AttendanceSvc.GetAttendance(ctx, cls.ID, "2024-01-10")
		require.NoError(t, err)

		s.DB.FailNextWrite(errors.New("connection reset"))
		_, err = save(
			attendance.Entry{StudentID: s1.ID, Status: attendance.StatusLate},
			attendance.Entry{StudentID: s2.ID, Status: attendance.StatusLate},
		)
		require.Error(t, err)
		assert.True(t, core.IsStorage(err))

		after, err := s.AttendanceSvc.GetAttendance(ctx, cls.ID, "2024-01-10")
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})
}

func TestService_SaveAttendance_validation(t *testing.T) {
	s := testutil.NewStack(t)
	ctx := context.Background()

	cls := testutil.CreateClass(t, s.SchoolSvc, "Form 1A")
	other := testutil.CreateClass(t, s.SchoolSvc, "Form 2B")
	s1 := testutil.CreateStudent(t, s.SchoolSvc, cls.ID, "ADM001", "Amani", "Kamau")
	outsider := testutil.CreateStudent(t, s.SchoolSvc, other.ID, "ADM002", "Baraka", "Otieno")

	tests := []struct {
		name      string
		req       attendance.SaveRequest
		wantField string
		notFound  bool
	}{
		{
			name:      "bad date",
			req:       attendance.SaveRequest{ClassID: cls.ID, Date: "10/01/2024"},
			wantField: "date",
		},
		{
			name: "unknown status",
			req: attendance.SaveRequest{ClassID: cls.ID, Date: "2024-01-10", Entries: []attendance.Entry{
				{StudentID: s1.ID, Status: "truant"},
			}},
			wantField: "status",
		},
		{
			name: "duplicate student",
			req: attendance.SaveRequest{ClassID: cls.ID, Date: "2024-01-10", Entries: []attendance.Entry{
				{StudentID: s1.ID, Status: attendance.StatusPresent},
				{StudentID: s1.ID, Status: attendance.StatusAbsent},
			}},
			wantField: "entries[1].student_id",
		},
		{
			name: "student of another class",
			req: attendance.SaveRequest{ClassID: cls.ID, Date: "2024-01-10", Entries: []attendance.Entry{
				{StudentID: outsider.ID, Status: attendance.StatusPresent},
			}},
			wantField: "entries[0].student_id",
		},
		{
			name:     "unknown class",
			req:      attendance.SaveRequest{ClassID: "0a6f3b8e-1c3e-4c55-9a57-3d1c4e2b9f10", Date: "2024-01-10"},
			notFound: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.AttendanceSvc.SaveAttendance(ctx, tt.req, "teacher-1")
			require.Error(t, err)
			if tt.notFound {
				assert.True(t, core.IsNotFound(err), "want NotFoundError, got %v", err)
				return
			}
			assert.Contains(t, fieldNames(err), tt.wantField)
		})
	}

	got, err := s.AttendanceSvc.GetAttendance(ctx, cls.ID, "2024-01-10")
	require.NoError(t, err)
	assert.Empty(t, got, "rejected requests must not save anything")
}

func TestService_StudentSummary(t *testing.T) {
	s := testutil.NewStack(t)
	ctx := context.Background()

	cls := testutil.CreateClass(t, s.SchoolSvc, "Form 1A")
	st := testutil.CreateStudent(t, s.SchoolSvc, cls.ID, "ADM001", "Amani", "Kamau")

	for date, status := range map[string]attendance.Status{
		"2024-01-08": attendance.StatusPresent,
		"2024-01-09": attendance.StatusLate,
		"2024-01-10": attendance.StatusAbsent,
		"2024-02-01": attendance.StatusAbsent,
	} {
		_, err := s.AttendanceSvc.SaveAttendance(ctx, attendance.SaveRequest{
			ClassID: cls.ID,
			Date:    date,
			Entries: []attendance.Entry{{StudentID: st.ID, Status: status}},
		}, "teacher-1")
		require.NoError(t, err)
	}

	sum, err := s.AttendanceSvc.StudentSummary(ctx, st.ID, "2024-01-01", "2024-01-31")
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Total)
	assert.Equal(t, 1, sum.Counts[attendance.StatusPresent])
	assert.Equal(t, 1, sum.Counts[attendance.StatusLate])
	assert.Equal(t, 1, sum.Counts[attendance.StatusAbsent])
	assert.Equal(t, 0, sum.Counts[attendance.StatusSick])
	assert.Equal(t, "66.67", sum.Rate.StringFixed(2))

	_, err = s.AttendanceSvc.StudentSummary(ctx, st.ID, "2024-02-01", "2024-01-01")
	assert.True(t, core.IsValidation(err))

	_, err = s.AttendanceSvc.StudentSummary(ctx, "0a6f3b8e-1c3e-4c55-9a57-3d1c4e2b9f10", "", "")
	assert.True(t, core.IsNotFound(err))
}
