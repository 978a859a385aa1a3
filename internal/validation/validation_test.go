package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobilist/batch-checkout/internal/batch"
)

func validSubmission(postCount int) batch.Submission {
	return batch.Submission{
		Email:        "hiring@acme.dev",
		Website:      "https://acme.dev",
		Name:         "Acme",
		Description:  "We build infrastructure.",
		LogoURL:      "https://cdn.example.com/acme.png",
		Color:        "#22aa66",
		ExpiresAfter: 30,
		Currency:     "USD",
		PostCount:    postCount,
	}
}

func validEntry(i int) batch.PostEntry {
	return batch.PostEntry{
		Index:       i,
		Title:       "Backend Engineer",
		Type:        batch.TypeFullTime,
		Location:    "Remote",
		SalaryStart: 90000,
		SalaryEnd:   120000,
		ApplyEmail:  "jobs@acme.dev",
		Description: "Build and run our APIs.",
		Tags:        []string{"go", "aws"},
	}
}

func TestValidate_ValidSubmission(t *testing.T) {
	v := New()

	errs := Validate(v, validSubmission(2), []batch.PostEntry{validEntry(0), validEntry(1)})
	assert.Empty(t, errs)
}

func TestValidate_ZeroPostsOnlyBatchApplies(t *testing.T) {
	v := New()

	sub := validSubmission(0)
	errs := Validate(v, sub, nil)

	// postCount is the only failing field; no entry keys can exist.
	require.Len(t, errs, 1)
	assert.Contains(t, errs, "postCount")
}

func TestValidate_ExhaustiveAcrossBatchAndEntries(t *testing.T) {
	v := New()

	sub := validSubmission(3)
	sub.Email = "not-an-email"
	sub.Color = "chartreuse"

	e0 := validEntry(0)
	e0.Title = ""

	e1 := validEntry(1)
	e1.ApplyEmail = ""
	e1.ApplyLink = ""

	e2 := validEntry(2)
	e2.SalaryStart = 120000
	e2.SalaryEnd = 90000

	errs := Validate(v, sub, []batch.PostEntry{e0, e1, e2})

	require.Len(t, errs, 5, "expected 2 batch + 3 entry errors, got %v", errs)
	assert.Contains(t, errs, "email")
	assert.Contains(t, errs, "color")
	assert.Contains(t, errs, "posts[0].title")
	assert.Contains(t, errs, "posts[1].applyEmail")
	assert.Contains(t, errs, "posts[2].salaryEnd")
}

func TestValidate_PostCountMismatch(t *testing.T) {
	v := New()

	errs := Validate(v, validSubmission(3), []batch.PostEntry{validEntry(0), validEntry(1)})

	require.Contains(t, errs, "postCount")
}

func TestValidate_AtLeastOneApplyMethod(t *testing.T) {
	v := New()

	linkOnly := validEntry(0)
	linkOnly.ApplyEmail = ""
	linkOnly.ApplyLink = "https://acme.dev/apply"

	neither := validEntry(1)
	neither.ApplyEmail = ""
	neither.ApplyLink = ""

	errs := Validate(v, validSubmission(2), []batch.PostEntry{linkOnly, neither})

	assert.NotContains(t, errs, "posts[0].applyEmail")
	assert.Contains(t, errs, "posts[1].applyEmail")
}

func TestValidate_SalaryBounds(t *testing.T) {
	v := New()

	// only one bound present is fine
	openEnded := validEntry(0)
	openEnded.SalaryEnd = 0

	inverted := validEntry(1)
	inverted.SalaryStart = 100
	inverted.SalaryEnd = 50

	errs := Validate(v, validSubmission(2), []batch.PostEntry{openEnded, inverted})

	assert.NotContains(t, errs, "posts[0].salaryEnd")
	assert.Contains(t, errs, "posts[1].salaryEnd")
}

func TestValidate_UnsupportedCurrency(t *testing.T) {
	v := New()

	sub := validSubmission(1)
	sub.Currency = "DOGE"

	errs := Validate(v, sub, []batch.PostEntry{validEntry(0)})

	require.Contains(t, errs, "currency")
}

func TestValidate_InvalidJobType(t *testing.T) {
	v := New()

	e := validEntry(0)
	e.Type = "gig"

	errs := Validate(v, validSubmission(1), []batch.PostEntry{e})

	require.Contains(t, errs, "posts[0].type")
}
