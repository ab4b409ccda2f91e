package model

import "strings"

// Verdict is the closed outcome label of one verification
type Verdict string

const (
	// Claim verdicts
	VerdictTrue         Verdict = "True"
	VerdictFalse        Verdict = "False"
	VerdictUnverifiable Verdict = "Unverifiable"

	// Entity verdicts
	VerdictValid      Verdict = "Valid"
	VerdictInvalid    Verdict = "Invalid"
	VerdictUnverified Verdict = "Unverified"

	// VerdictError is what a report shows for a failed item
	VerdictError Verdict = "Error"
)

// ParseClaimVerdict normalizes an LLM verdict label for a claim
func ParseClaimVerdict(raw string) (Verdict, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true":
		return VerdictTrue, true
	case "false":
		return VerdictFalse, true
	case "unverifiable", "unverified":
		return VerdictUnverifiable, true
	default:
		return "", false
	}
}

// ParseEntityVerdict normalizes an LLM verdict label for an entity.
// The entity prompt allows True/Valid and False/Invalid interchangeably.
func ParseEntityVerdict(raw string) (Verdict, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "valid", "true/valid":
		return VerdictValid, true
	case "false", "invalid", "false/invalid":
		return VerdictInvalid, true
	case "unverified", "unverifiable":
		return VerdictUnverified, true
	default:
		return "", false
	}
}
