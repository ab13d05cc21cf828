package attendance_test

import (
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

// fieldNames lists the fields reported by a validation error of any kind.
func fieldNames(err error) []string {
	var names []string
	if vErrs, ok := errors.Cause(err).(validator.ValidationErrors); ok {
		for _, fe := range vErrs {
			names = append(names, fe.Field())
		}
		return names
	}
	var vErr *core.ValidationError
	if errors.As(err, &vErr) {
		for _, fe := range vErr.Fields {
			names = append(names, fe.Field)
		}
	}
	return names
}
