package models

import "time"

// AttemptStatus is the terminal state of one chunk's extraction.
type AttemptStatus string

const (
	AttemptSuccess          AttemptStatus = "success"
	AttemptExhaustedRetries AttemptStatus = "exhausted-retries"
	// AttemptAborted means retries stopped early: the run was cancelled or
	// the provider rejected the credentials.
	AttemptAborted AttemptStatus = "aborted"
)

// ExtractionAttempt is the outcome of dispatching one chunk to a provider.
type ExtractionAttempt struct {
	ChunkIndex int
	Raw        *string // nil unless Status is AttemptSuccess
	Elapsed    time.Duration
	Attempts   int
	Status     AttemptStatus
	Err        error // last error seen, if any
}

// OK reports whether the attempt produced text.
func (a ExtractionAttempt) OK() bool {
	return a.Status == AttemptSuccess && a.Raw != nil
}

// Canonical record keys, in output order.
const (
	FieldCourtName        = "Court_name"
	FieldDateOfArticle    = "Date_of_article"
	FieldCompanyName      = "Company_name"
	FieldRegistrationCode = "Registration_Code"
	FieldRegistrationYear = "Registration_year"
)

// RecordFields lists the canonical keys of an ExtractionRecord.
var RecordFields = []string{
	FieldCourtName,
	FieldDateOfArticle,
	FieldCompanyName,
	FieldRegistrationCode,
	FieldRegistrationYear,
}

// ExtractionRecord is one register notice. Absent values encode as null.
type ExtractionRecord struct {
	CourtName        *string `json:"Court_name"`
	DateOfArticle    *string `json:"Date_of_article"`
	CompanyName      *string `json:"Company_name"`
	RegistrationCode *string `json:"Registration_Code"`
	RegistrationYear *string `json:"Registration_year"`
}

// Field returns the value stored under a canonical key.
func (r ExtractionRecord) Field(key string) *string {
	switch key {
	case FieldCourtName:
		return r.CourtName
	case FieldDateOfArticle:
		return r.DateOfArticle
	case FieldCompanyName:
		return r.CompanyName
	case FieldRegistrationCode:
		return r.RegistrationCode
	case FieldRegistrationYear:
		return r.RegistrationYear
	}
	return nil
}

// SetField stores v under a canonical key. Unknown keys are ignored.
func (r *ExtractionRecord) SetField(key string, v *string) {
	switch key {
	case FieldCourtName:
		r.CourtName = v
	case FieldDateOfArticle:
		r.DateOfArticle = v
	case FieldCompanyName:
		r.CompanyName = v
	case FieldRegistrationCode:
		r.RegistrationCode = v
	case FieldRegistrationYear:
		r.RegistrationYear = v
	}
}
