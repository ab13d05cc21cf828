package attendance

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
)

var (
	attendanceStatusTag  = "attendance_status"
	attendanceStatusText = "status must be one of: present, absent, late, excused, sick"
)

// InitValidators registers the attendance validators & their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(attendanceStatusTag, attendanceStatusValidation)
	core.RegisterCustomTranslation(validate, translator, attendanceStatusTag, attendanceStatusText)
}

func attendanceStatusValidation(fl validator.FieldLevel) bool {
	return Status(fl.Field().String()).Valid()
}
