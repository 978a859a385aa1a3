package validation

import (
	"errors"
	"fmt"

	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/jobilist/batch-checkout/internal/batch"
)

// KeyOther carries submission-level errors that are not attributable to a
// specific form field (for example a failed logo upload).
const KeyOther = "other"

// Validate checks the batch record against the batch schema and every entry
// against the entry schema, merging everything into one flat error map.
// Batch-level keys are bare field names; entry keys are namespaced
// posts[{index}].{field}. Every entry is validated even after earlier
// failures, so the caller receives the complete error set in one round trip.
// An empty map is the sole signal to proceed.
func Validate(v *validatorv10.Validate, sub batch.Submission, posts []batch.PostEntry) map[string]string {
	errs := map[string]string{}

	collect(errs, "", v.Struct(sub))
	if sub.PostCount != len(posts) {
		errs["postCount"] = "Declared post count does not match the posts submitted."
	}

	for i, p := range posts {
		collect(errs, fmt.Sprintf("posts[%d].", i), v.Struct(p))
	}

	return errs
}

func collect(out map[string]string, prefix string, err error) {
	if err == nil {
		return
	}
	var ves validatorv10.ValidationErrors
	if !errors.As(err, &ves) {
		out[KeyOther] = "Something went wrong while checking your submission."
		return
	}
	for _, fe := range ves {
		out[prefix+fe.Field()] = message(fe)
	}
}

func message(fe validatorv10.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "url":
		return "Enter a valid URL."
	case "hexcolor":
		return "Enter a valid hex color."
	case "min":
		return fmt.Sprintf("Must be at least %s.", fe.Param())
	case "oneof":
		return "Choose one of the supported options."
	case "supported_currency":
		return "Choose a supported currency."
	case "salary_range":
		return "Salary end must not be below salary start."
	case "apply_method":
		return "Provide an apply link or an apply email."
	default:
		return "This value is invalid."
	}
}
