package model

import (
	"encoding/json"
	"errors"
)

// SubjectKind tells whether a result belongs to a claim or an entity
type SubjectKind string

const (
	SubjectClaim  SubjectKind = "claim"
	SubjectEntity SubjectKind = "entity"
)

// Default texts for failed items
const (
	FailedReasoning = "Analysis failed"
)

// Outcome is the successful branch of a verification
type Outcome struct {
	Verdict        Verdict
	Evidence       []string
	Reasoning      string
	ShortCircuited bool // Low retrieval confidence, the LLM was never called
}

// Failure is the failed branch of a verification
type Failure struct {
	Kind        ErrorKind
	Message     string
	RawResponse string // Raw LLM text, kept for inspection when available
}

// VerificationResult is the terminal artifact of verifying one claim or entity.
// Exactly one of Outcome and Failure is set; build it with Succeeded or Failed.
type VerificationResult struct {
	Subject    string
	Kind       SubjectKind
	Confidence float64
	Outcome    *Outcome
	Failure    *Failure
}

// Succeeded builds a successful result
func Succeeded(kind SubjectKind, subject string, confidence float64, outcome Outcome) VerificationResult {
	return VerificationResult{
		Subject:    subject,
		Kind:       kind,
		Confidence: confidence,
		Outcome:    &outcome,
	}
}

// Failed builds a failed result from an error. raw may be empty.
func Failed(kind SubjectKind, subject string, confidence float64, err error, raw string) VerificationResult {
	if err == nil {
		err = errors.New("unknown failure")
	}
	return VerificationResult{
		Subject:    subject,
		Kind:       kind,
		Confidence: confidence,
		Failure: &Failure{
			Kind:        KindOf(err),
			Message:     err.Error(),
			RawResponse: raw,
		},
	}
}

// OK reports whether the verdict can be trusted
func (r VerificationResult) OK() bool {
	return r.Outcome != nil && r.Failure == nil
}

// Verdict returns the outcome verdict, or VerdictError for a failure
func (r VerificationResult) Verdict() Verdict {
	if r.OK() {
		return r.Outcome.Verdict
	}
	return VerdictError
}

// Reasoning returns the outcome reasoning, or the failure default
func (r VerificationResult) Reasoning() string {
	if r.OK() {
		return r.Outcome.Reasoning
	}
	return FailedReasoning
}

// Evidence returns the evidence texts of a successful result
func (r VerificationResult) Evidence() []string {
	if r.OK() {
		return r.Outcome.Evidence
	}
	return nil
}

// resultJSON is the flat wire form of a result
type resultJSON struct {
	Subject        string      `json:"subject"`
	Kind           SubjectKind `json:"kind"`
	Verdict        Verdict     `json:"verdict"`
	Confidence     float64     `json:"confidence"`
	Evidence       []string    `json:"evidence"`
	Reasoning      string      `json:"reasoning"`
	ShortCircuited bool        `json:"short_circuited,omitempty"`
	Error          string      `json:"error,omitempty"`
	ErrorKind      ErrorKind   `json:"error_kind,omitempty"`
	RawResponse    string      `json:"raw_response,omitempty"`
}

// MarshalJSON renders the result in its flat form
func (r VerificationResult) MarshalJSON() ([]byte, error) {
	out := resultJSON{
		Subject:    r.Subject,
		Kind:       r.Kind,
		Verdict:    r.Verdict(),
		Confidence: r.Confidence,
		Evidence:   r.Evidence(),
		Reasoning:  r.Reasoning(),
	}
	if out.Evidence == nil {
		out.Evidence = []string{}
	}
	if r.OK() {
		out.ShortCircuited = r.Outcome.ShortCircuited
	} else if r.Failure != nil {
		out.Error = r.Failure.Message
		out.ErrorKind = r.Failure.Kind
		out.RawResponse = r.Failure.RawResponse
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores a result from its flat form
func (r *VerificationResult) UnmarshalJSON(data []byte) error {
	var in resultJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	*r = VerificationResult{
		Subject:    in.Subject,
		Kind:       in.Kind,
		Confidence: in.Confidence,
	}
	if in.Error != "" {
		kind := in.ErrorKind
		if kind == KindNone {
			kind = KindAdjudicationTransport
		}
		r.Failure = &Failure{Kind: kind, Message: in.Error, RawResponse: in.RawResponse}
		return nil
	}
	r.Outcome = &Outcome{
		Verdict:        in.Verdict,
		Evidence:       in.Evidence,
		Reasoning:      in.Reasoning,
		ShortCircuited: in.ShortCircuited,
	}
	return nil
}
