package validation

import (
	"reflect"
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/jobilist/batch-checkout/internal/batch"
	"github.com/jobilist/batch-checkout/internal/pricing"
)

// New returns a validator configured for batch submissions. Error keys use the
// json field names, currency membership is checked against the price table,
// and the cross-field entry rules are registered as struct-level validations.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("supported_currency", func(fl validatorv10.FieldLevel) bool {
		return pricing.Supported(fl.Field().String())
	})

	v.RegisterStructValidation(postEntryStructValidation, batch.PostEntry{})

	return v
}

// postEntryStructValidation enforces the rules a single-field tag cannot
// express: salary bounds must be ordered, and an entry must be reachable
// through at least one apply method.
func postEntryStructValidation(sl validatorv10.StructLevel) {
	p := sl.Current().Interface().(batch.PostEntry)

	if p.SalaryStart > 0 && p.SalaryEnd > 0 && p.SalaryEnd < p.SalaryStart {
		sl.ReportError(p.SalaryEnd, "salaryEnd", "SalaryEnd", "salary_range", "")
	}
	if p.ApplyLink == "" && p.ApplyEmail == "" {
		sl.ReportError(p.ApplyEmail, "applyEmail", "ApplyEmail", "apply_method", "")
	}
}
