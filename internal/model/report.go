package model

import "time"

// Report is the result of verifying one input text
type Report struct {
	Input         string               `json:"input"`
	CheckedAt     time.Time            `json:"checked_at"`
	Threshold     float64              `json:"threshold"`
	EntityResults []VerificationResult `json:"entity_results"`
	ClaimResults  []VerificationResult `json:"claim_results"`
}

// NoClaims reports whether extraction found nothing check-worthy
func (r *Report) NoClaims() bool {
	return len(r.ClaimResults) == 0
}

// Tally counts verdicts across claims and entities
func (r *Report) Tally() map[Verdict]int {
	counts := make(map[Verdict]int)
	for _, res := range r.ClaimResults {
		counts[res.Verdict()]++
	}
	for _, res := range r.EntityResults {
		counts[res.Verdict()]++
	}
	return counts
}

// Failures returns every result that carries an error
func (r *Report) Failures() []VerificationResult {
	var failed []VerificationResult
	for _, res := range r.ClaimResults {
		if !res.OK() {
			failed = append(failed, res)
		}
	}
	for _, res := range r.EntityResults {
		if !res.OK() {
			failed = append(failed, res)
		}
	}
	return failed
}
