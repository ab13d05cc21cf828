package school

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
)

var (
	studentStatusTag  = "student_status"
	studentStatusText = "status must be one of: active, withdrawn, graduated"
)

// InitValidators registers the school validators & their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(studentStatusTag, studentStatusValidation)
	core.RegisterCustomTranslation(validate, translator, studentStatusTag, studentStatusText)
}

func studentStatusValidation(fl validator.FieldLevel) bool {
	return StudentStatus(fl.Field().String()).Valid()
}
