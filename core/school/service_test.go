package school_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/school"
	"github.com/trezcool/darasa/tests"
)

func names(students []school.Student) []string {
	got := make([]string, 0, len(students))
	for _, st := range students {
		got = append(got, st.FullName())
	}
	return got
}

func TestService_CreateClass(t *testing.T) {
	s := testutil.NewStack(t)
	ctx := context.Background()

	cls := testutil.CreateClass(t, s.SchoolSvc, "  Form 1A ")
	assert.Equal(t, "Form 1A", cls.Name)

	_, err := s.SchoolSvc.CreateClass(ctx, school.NewClass{Name: "Form 1A"})
	assert.True(t, core.IsValidation(err), "duplicate name: %v", err)

	_, err = s.SchoolSvc.CreateClass(ctx, school.NewClass{Name: "   "})
	assert.Error(t, err)

	got, err := s.SchoolSvc.GetClass(ctx, cls.ID)
	require.NoError(t, err)
	assert.Equal(t, cls, got)

	_, err = s.SchoolSvc.GetClass(ctx, "not-a-uuid")
	assert.True(t, core.IsNotFound(err))
}

func TestService_CreateStudent(t *testing.T) {
	s := testutil.NewStack(t)
	ctx := context.Background()

	cls := testutil.CreateClass(t, s.SchoolSvc, "Form 1A")
	st := testutil.CreateStudent(t, s.SchoolSvc, cls.ID, "ADM001", "Amani", "Kamau")
	assert.Equal(t, school.StudentActive, st.Status)
	assert.Equal(t, "parent.adm001@school.test", st.GuardianEmail)

	_, err := s.SchoolSvc.CreateStudent(ctx, school.NewStudent{AdmissionNo: "ADM001", FirstName: "A", LastName: "B", ClassID: cls.ID})
	assert.True(t, core.IsValidation(err), "duplicate admission no: %v", err)

	_, err = s.SchoolSvc.CreateStudent(ctx, school.NewStudent{
		AdmissionNo: "ADM002", FirstName: "A", LastName: "B", ClassID: "0a6f3b8e-1c3e-4c55-9a57-3d1c4e2b9f10",
	})
	assert.True(t, core.IsValidation(err), "unknown class: %v", err)
}

func TestService_ActiveRoster(t *testing.T) {
	s := testutil.NewStack(t)
	ctx := context.Background()

	cls := testutil.CreateClass(t, s.SchoolSvc, "Form 1A")
	other := testutil.CreateClass(t, s.SchoolSvc, "Form 2B")
	testutil.CreateStudent(t, s.SchoolSvc, cls.ID, "ADM001", "Zawadi", "Otieno")
	testutil.CreateStudent(t, s.SchoolSvc, cls.ID, "ADM002", "Amani", "Otieno")
	testutil.CreateStudent(t, s.SchoolSvc, cls.ID, "ADM003", "Baraka", "Kamau")
	gone := testutil.CreateStudent(t, s.SchoolSvc, cls.ID, "ADM004", "Chausiku", "Achieng")
	testutil.CreateStudent(t, s.SchoolSvc, other.ID, "ADM005", "Dalia", "Mwangi")

	_, err := s.SchoolSvc.SetStudentStatus(ctx, gone.ID, school.StudentStatusUpdate{Status: school.StudentWithdrawn})
	require.NoError(t, err)

	roster, err := s.SchoolSvc.ActiveRoster(ctx, cls.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Baraka Kamau", "Amani Otieno", "Zawadi Otieno"}, names(roster))

	all, err := s.SchoolSvc.QueryStudents(ctx, school.StudentFilter{ClassID: cls.ID})
	require.NoError(t, err)
	assert.Len(t, all, 4)

	found, err := s.SchoolSvc.QueryStudents(ctx, school.StudentFilter{Search: "otie"}, core.DBOrdering{Field: "first_name", Ascending: false})
	require.NoError(t, err)
	assert.Equal(t, []string{"Zawadi Otieno", "Amani Otieno"}, names(found))

	_, err = s.SchoolSvc.SetStudentStatus(ctx, gone.ID, school.StudentStatusUpdate{Status: "expelled"})
	assert.Error(t, err)

	_, err = s.SchoolSvc.ActiveRoster(ctx, "0a6f3b8e-1c3e-4c55-9a57-3d1c4e2b9f10")
	assert.True(t, core.IsNotFound(err))
}
