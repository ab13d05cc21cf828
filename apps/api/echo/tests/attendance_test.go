package tests

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/darasa/apps/api/echo"
	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/attendance"
	"github.com/trezcool/darasa/core/fine"
	"github.com/trezcool/darasa/core/notify"
	"github.com/trezcool/darasa/tests"
)

const unknownID = "0a6f3b8e-1c3e-4c55-9a57-3d1c4e2b9f10"

type saveBody struct {
	Entries []attendance.Entry `json:"entries"`
}

func Test_attendanceApi_save(t *testing.T) {
	a := setup(t)
	teacherToken := a.getToken(t, a.createTeacher(t))
	nobody := testutil.CreateUser(t, a.UserRepo, "Parent", "parent@school.test", "", nil, true)

	cls := testutil.CreateClass(t, a.SchoolSvc, "Form 1A")
	other := testutil.CreateClass(t, a.SchoolSvc, "Form 2B")
	s1 := testutil.CreateStudent(t, a.SchoolSvc, cls.ID, "ADM001", "Amani", "Kamau")
	s2 := testutil.CreateStudent(t, a.SchoolSvc, cls.ID, "ADM002", "Baraka", "Otieno")
	outsider := testutil.CreateStudent(t, a.SchoolSvc, other.ID, "ADM003", "Chausiku", "Wanjiru")

	path := "/v1/classes/" + cls.ID + "/attendance/2024-01-10"
	body := func(entries ...attendance.Entry) []byte { return marchallObj(t, saveBody{Entries: entries}) }

	runHTTPTests(t, a, []httpTest{
		{name: "auth required", method: http.MethodPut, path: path, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "staff required", method: http.MethodPut, path: path, token: a.getToken(t, nobody), body: body(),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "unknown class", method: http.MethodPut, path: "/v1/classes/" + unknownID + "/attendance/2024-01-10", token: teacherToken, body: body(),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "class not found"}),
		},
		{
			name: "bad date", method: http.MethodPut, path: "/v1/classes/" + cls.ID + "/attendance/10-01-2024", token: teacherToken, body: body(),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"date": "date must be formatted as YYYY-MM-DD"}),
		},
		{
			name: "unknown status", method: http.MethodPut, path: path, token: teacherToken,
			body:     body(attendance.Entry{StudentID: s1.ID, Status: "truant"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"status": "status must be one of: present, absent, late, excused, sick"}),
		},
		{
			name: "student not on roster", method: http.MethodPut, path: path, token: teacherToken,
			body:     body(attendance.Entry{StudentID: outsider.ID, Status: attendance.StatusLate}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"entries[0].student_id": "student is not on the active roster of this class"}),
		},
	})

	t.Run("saved & fined", func(t *testing.T) {
		rec := a.do(http.MethodPut, path, teacherToken, body(
			attendance.Entry{StudentID: s1.ID, Status: attendance.StatusLate},
			attendance.Entry{StudentID: s2.ID, Status: attendance.StatusAbsent},
		))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp echoapi.SaveAttendanceResponse
		unmarshal(t, rec, &resp)
		assert.Len(t, resp.Records, 2)
		assert.Len(t, resp.Fines.Issued, 2)
		assert.Empty(t, resp.Warning)
	})

	t.Run("re-saved & corrected", func(t *testing.T) {
		rec := a.do(http.MethodPut, path, teacherToken, body(
			attendance.Entry{StudentID: s1.ID, Status: attendance.StatusLate},
			attendance.Entry{StudentID: s2.ID, Status: attendance.StatusPresent},
		))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp echoapi.SaveAttendanceResponse
		unmarshal(t, rec, &resp)
		assert.Empty(t, resp.Fines.Issued)
		require.Len(t, resp.Fines.Cancelled, 1)
		assert.Equal(t, s2.ID, resp.Fines.Cancelled[0].StudentID)
		assert.Equal(t, fine.StatusCancelled, resp.Fines.Cancelled[0].Status)

		records, err := a.AttendanceSvc.GetAttendance(context.Background(), cls.ID, "2024-01-10")
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})

	t.Run("storage failure", func(t *testing.T) {
		a.DB.FailNextWrite(errors.New("connection reset by peer"))
		rec := a.do(http.MethodPut, path, teacherToken, body(attendance.Entry{StudentID: s1.ID, Status: attendance.StatusSick}))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		ok, err := jsonBytesEqual(rec.Body.Bytes(), marchallObj(t, httpErr{Error: "the request could not be saved, please try again"}))
		require.NoError(t, err)
		assert.True(t, ok, rec.Body.String())
	})
}

func Test_attendanceApi_sheet(t *testing.T) {
	a := setup(t)
	teacherToken := a.getToken(t, a.createTeacher(t))

	cls := testutil.CreateClass(t, a.SchoolSvc, "Form 1A")
	s1 := testutil.CreateStudent(t, a.SchoolSvc, cls.ID, "ADM001", "Amani", "Kamau")
	s2 := testutil.CreateStudent(t, a.SchoolSvc, cls.ID, "ADM002", "Baraka", "Otieno")
	testutil.CreateInvoice(t, a.FeeSvc, s2.ID, "Term 1", "1200", core.MustParseDate("2024-01-05"))

	path := "/v1/classes/" + cls.ID + "/attendance/2024-01-10"

	t.Run("unmarked day", func(t *testing.T) {
		rec := a.do(http.MethodGet, path, teacherToken)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var sheet echoapi.AttendanceSheet
		unmarshal(t, rec, &sheet)
		assert.False(t, sheet.Marked)
		require.Len(t, sheet.Rows, 2)
		assert.Nil(t, sheet.Rows[0].Record)
	})

	rec := a.do(http.MethodPut, path, teacherToken, marchallObj(t, saveBody{Entries: []attendance.Entry{
		{StudentID: s1.ID, Status: attendance.StatusLate},
	}}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	t.Run("marked day", func(t *testing.T) {
		rec := a.do(http.MethodGet, path, teacherToken)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var sheet echoapi.AttendanceSheet
		unmarshal(t, rec, &sheet)
		assert.True(t, sheet.Marked)
		assert.Equal(t, "2024-01-10", sheet.Date)
		require.Len(t, sheet.Rows, 2)

		kamau, otieno := sheet.Rows[0], sheet.Rows[1]
		assert.Equal(t, s1.ID, kamau.Student.ID)
		require.NotNil(t, kamau.Record)
		assert.Equal(t, attendance.StatusLate, kamau.Record.Status)
		assert.Equal(t, 1, kamau.Fines.PendingCount)
		assert.Equal(t, "3.50", kamau.Fines.PendingAmount.StringFixed(2))

		assert.Equal(t, s2.ID, otieno.Student.ID)
		require.NotNil(t, otieno.Record)
		assert.Equal(t, attendance.StatusPresent, otieno.Record.Status)
		assert.Equal(t, 0, otieno.Fines.PendingCount)
		assert.Equal(t, 1, otieno.Fees.PendingInvoices)
		assert.Equal(t, 1, otieno.Fees.OverdueInvoices)
		assert.Equal(t, "1200.00", otieno.Fees.OutstandingAmount.StringFixed(2))
	})

	t.Run("student summary", func(t *testing.T) {
		rec := a.do(http.MethodGet, "/v1/students/"+s1.ID+"/attendance/summary?from=2024-01-01&to=2024-01-31", teacherToken)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var sum attendance.Summary
		unmarshal(t, rec, &sum)
		assert.Equal(t, 1, sum.Total)
		assert.Equal(t, 1, sum.Counts[attendance.StatusLate])
		assert.Equal(t, "100", sum.Rate.String())

		rec = a.do(http.MethodGet, "/v1/students/"+s1.ID+"/attendance/summary?from=2024-02-01&to=2024-01-31", teacherToken)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func Test_attendanceApi_alerts(t *testing.T) {
	a := setup(t)
	teacherToken := a.getToken(t, a.createTeacher(t))

	cls := testutil.CreateClass(t, a.SchoolSvc, "Form 1A")
	s1 := testutil.CreateStudent(t, a.SchoolSvc, cls.ID, "ADM001", "Amani", "Kamau")
	s2 := testutil.CreateStudent(t, a.SchoolSvc, cls.ID, "ADM002", "Baraka", "Otieno")
	testutil.CreateStudent(t, a.SchoolSvc, cls.ID, "ADM003", "Chausiku", "Wanjiru")

	path := "/v1/classes/" + cls.ID + "/attendance/2024-01-10"
	rec := a.do(http.MethodPut, path, teacherToken, marchallObj(t, saveBody{Entries: []attendance.Entry{
		{StudentID: s1.ID, Status: attendance.StatusAbsent},
		{StudentID: s2.ID, Status: attendance.StatusSick},
	}}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = a.do(http.MethodGet, path+"/alerts", teacherToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var alerts []notify.Alert
	unmarshal(t, rec, &alerts)
	require.Len(t, alerts, 2)
	for _, alert := range alerts {
		assert.Equal(t, notify.KindAttendance, alert.Kind)
		assert.Contains(t, alert.WhatsAppLink, "https://wa.me/254712345678?text=")
	}

	rec = a.do(http.MethodPost, path+"/alerts/email", teacherToken)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	var resp echoapi.EmailAlertsResponse
	unmarshal(t, rec, &resp)
	assert.Equal(t, 2, resp.Queued)
	assert.Len(t, a.MailSvc.SentMessages(), 2)
}
