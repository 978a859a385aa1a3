package batch

import "strings"

// Job type values accepted for a post entry.
const (
	TypeFullTime   = "full-time"
	TypePartTime   = "part-time"
	TypeContract   = "contract"
	TypeInternship = "internship"
	TypeFreelance  = "freelance"
)

// Submission is the batch-level half of a posting submission: company info
// shared by every post in the batch, plus the declared post count. LogoURL is
// filled in during ingestion with the upload collaborator's public URL, never
// with raw file bytes.
type Submission struct {
	Email        string `json:"email" validate:"required,email"`
	Website      string `json:"website,omitempty" validate:"omitempty,url"`
	Name         string `json:"name" validate:"required"`
	Description  string `json:"description" validate:"required"`
	LogoURL      string `json:"logoURL" validate:"required,url"`
	Color        string `json:"color" validate:"required,hexcolor"`
	ExpiresAfter int    `json:"expiresAfter" validate:"required,min=1"`
	Currency     string `json:"currency" validate:"required,supported_currency"`
	PostCount    int    `json:"postCount" validate:"required,min=1"`
}

// PostEntry is a single job post inside a batch. Index is its 0-based position
// in the submission and is only used for error-key addressing. A zero salary
// bound means the field was left empty. Cross-field rules (salary ordering,
// at least one apply method) are enforced by struct-level validation.
type PostEntry struct {
	Index       int      `json:"-"`
	Title       string   `json:"title" validate:"required"`
	Type        string   `json:"type" validate:"required,oneof=full-time part-time contract internship freelance"`
	Location    string   `json:"location" validate:"required"`
	SalaryStart int      `json:"salaryStart,omitempty" validate:"omitempty,min=0"`
	SalaryEnd   int      `json:"salaryEnd,omitempty" validate:"omitempty,min=0"`
	ApplyLink   string   `json:"applyLink,omitempty" validate:"omitempty,url"`
	ApplyEmail  string   `json:"applyEmail,omitempty" validate:"omitempty,email"`
	Description string   `json:"description" validate:"required"`
	Tags        []string `json:"tags"`
}

// ParseTags splits a comma-separated tag input into trimmed, non-empty tags.
// Empty or blank input yields an empty set, never a set with one empty string.
func ParseTags(raw string) []string {
	tags := make([]string, 0)
	for _, t := range strings.Split(raw, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
