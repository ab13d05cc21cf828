package fine_test

import (
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

func errorHasField(err error, field string) bool {
	if vErrs, ok := errors.Cause(err).(validator.ValidationErrors); ok {
		for _, fe := range vErrs {
			if fe.Field() == field {
				return true
			}
		}
		return false
	}
	var vErr *core.ValidationError
	if errors.As(err, &vErr) {
		for _, fe := range vErr.Fields {
			if fe.Field == field {
				return true
			}
		}
	}
	return false
}
