package fine

import (
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
)

var (
	fineStatusTag  = "fine_status"
	fineStatusText = "status must be one of: pending, paid, waived, cancelled"

	paymentMethodTag  = "payment_method"
	paymentMethodText = "payment method must be one of: " + strings.Join(PaymentMethods, ", ")
)

// InitValidators registers the fine validators & their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(fineStatusTag, fineStatusValidation)
	core.RegisterCustomTranslation(validate, translator, fineStatusTag, fineStatusText)

	_ = validate.RegisterValidation(paymentMethodTag, paymentMethodValidation)
	core.RegisterCustomTranslation(validate, translator, paymentMethodTag, paymentMethodText)

	validate.RegisterStructValidation(filterStructValidation, Filter{})
}

func fineStatusValidation(fl validator.FieldLevel) bool {
	return Status(fl.Field().String()).Valid()
}

func paymentMethodValidation(fl validator.FieldLevel) bool {
	method := fl.Field().String()
	for _, m := range PaymentMethods {
		if m == method {
			return true
		}
	}
	return false
}

func filterStructValidation(sl validator.StructLevel) {
	if f, ok := sl.Current().Interface().(Filter); ok {
		for _, s := range f.Statuses {
			if !s.Valid() {
				sl.ReportError(f.Statuses, "status", "Statuses", fineStatusTag, "")
				return
			}
		}
	}
}
