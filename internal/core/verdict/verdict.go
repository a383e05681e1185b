// Package verdict defines the result type every field validator produces
//
// A Result is assembled during validation and sealed by Finalize; callers
// treat a returned Result as immutable. Heterogeneous per-field output lives
// in Components behind one tagged type instead of ad hoc string maps
package verdict

import (
	"time"

	"cleanse/internal/core/checkid"
	"cleanse/internal/core/confidence"
)

// Status is the top-level verdict
type Status string

// Statuses
const (
	StatusValid   Status = "valid"
	StatusInvalid Status = "invalid"
	StatusUnknown Status = "unknown"
)

// SubStatus refines a Status with the deciding condition
type SubStatus string

// SubStatuses; empty means no refinement
const (
	SubNone                SubStatus = ""
	SubBadFormat           SubStatus = "bad_format"
	SubInvalidDomain       SubStatus = "invalid_domain"
	SubNoMXRecords         SubStatus = "no_mx_records"
	SubSecurityPattern     SubStatus = "security_pattern"
	SubPlaceholderName     SubStatus = "placeholder_name"
	SubUnparseable         SubStatus = "unparseable"
	SubProviderUnavailable SubStatus = "provider_unavailable"
	SubCached              SubStatus = "cached"
)

// ChangeStatus is the audit flag derived from WasCorrected
type ChangeStatus string

// Change statuses
const (
	Changed   ChangeStatus = "Changed"
	Unchanged ChangeStatus = "Unchanged"
)

// Step is one entry in the append-only validation trace
type Step struct {
	Name   string `json:"step"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// Result is the outcome of one validation call
type Result struct {
	OriginalInput   string              `json:"originalInput"`
	NormalizedValue string              `json:"normalizedValue"`
	Valid           bool                `json:"valid"`
	FormatValid     bool                `json:"formatValid"`
	WasCorrected    bool                `json:"wasCorrected"`
	Status          Status              `json:"status"`
	SubStatus       SubStatus           `json:"subStatus,omitempty"`
	Confidence      confidence.Score    `json:"confidence"`
	ConfidenceLevel confidence.Level    `json:"confidenceLevel"`
	Factors         []confidence.Factor `json:"confidenceFactors,omitempty"`
	Components      any                 `json:"componentFields,omitempty"`
	ChangeStatus    ChangeStatus        `json:"changeStatus"`
	Steps           []Step              `json:"validationSteps,omitempty"`
	CheckID         int64               `json:"checkId"`
	Timestamp       time.Time           `json:"timestamp"`
	TimestampEpoch  int64               `json:"timestampEpoch"`
}

// AddStep appends a trace entry; call before Finalize
func (r *Result) AddStep(name string, passed bool, detail string) {
	r.Steps = append(r.Steps, Step{Name: name, Passed: passed, Detail: detail})
}

// SetConfidence applies a tally's score, level and factor trace
func (r *Result) SetConfidence(t *confidence.Tally) {
	r.Confidence = t.Score()
	r.ConfidenceLevel = t.Level()
	r.Factors = t.Factors()
}

// SetScore applies a bare score with no factor trace
func (r *Result) SetScore(s confidence.Score) {
	r.Confidence = s
	r.ConfidenceLevel = confidence.LevelOf(s)
}

// Finalize stamps the bookkeeping fields and derives ChangeStatus
// The result should not be mutated after this returns
func (r *Result) Finalize(clientID int64) {
	now := time.Now().UTC()
	r.Timestamp = now
	r.TimestampEpoch = now.Unix()
	r.CheckID = checkid.At(now, clientID)
	if r.WasCorrected {
		r.ChangeStatus = Changed
	} else {
		r.ChangeStatus = Unchanged
	}
	if r.ConfidenceLevel == "" {
		r.ConfidenceLevel = confidence.LevelOf(r.Confidence)
	}
}

// Terminal builds an invalid result in one call for cheap early exits
func Terminal(original string, sub SubStatus, detail string) *Result {
	r := &Result{
		OriginalInput:   original,
		NormalizedValue: original,
		Status:          StatusInvalid,
		SubStatus:       sub,
	}
	r.AddStep(string(sub), false, detail)
	return r
}
