package user

import "testing"

func Test_passwordPolicyViolation(t *testing.T) {
	name, email := "Jane Doe", "jane@school.test"

	tests := []struct {
		name    string
		pwd     string
		wantTag string
	}{
		{name: "too short", pwd: "Ab1!", wantTag: pwdMinLenTag},
		{name: "whitespace", pwd: "Abc 123!xyz", wantTag: pwdNoSpaceTag},
		{name: "all numeric", pwd: "1234567890", wantTag: pwdNotAllNumTag},
		{name: "no special", pwd: "Abcdefg123", wantTag: pwdComplexityTag},
		{name: "no upper", pwd: "abcdefg1!", wantTag: pwdComplexityTag},
		{name: "similar to name", pwd: "Janedoe#1", wantTag: pwdAttrSimTag},
		{name: "valid", pwd: "Xq7!vbzK"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := passwordPolicyViolation(tt.pwd, name, email); got != tt.wantTag {
				t.Errorf("passwordPolicyViolation() = %q, want %q", got, tt.wantTag)
			}
		})
	}
}

func TestMaxRolePriority(t *testing.T) {
	if got := MaxRolePriority([]string{RoleTeacher, RoleAdmin}); got != RolePriority(RoleAdmin) {
		t.Errorf("MaxRolePriority() = %d, want %d", got, RolePriority(RoleAdmin))
	}
	if got := MaxRolePriority(nil); got != 0 {
		t.Errorf("MaxRolePriority(nil) = %d, want 0", got)
	}
}
