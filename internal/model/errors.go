package model

import (
	"context"
	"errors"
)

// ErrorKind classifies a verification failure
type ErrorKind string

const (
	KindNone                  ErrorKind = ""
	KindExtraction            ErrorKind = "extraction_failure"
	KindNoEvidence            ErrorKind = "no_evidence_found"
	KindAdjudicationTimeout   ErrorKind = "adjudication_timeout"
	KindAdjudicationTransport ErrorKind = "adjudication_transport_error"
	KindParse                 ErrorKind = "parse_failure"
	KindIndexUnavailable      ErrorKind = "index_unavailable"
	KindConfiguration         ErrorKind = "configuration_error"
)

var (
	// ErrExtraction means the NER or claim-extraction model failed
	ErrExtraction = errors.New("extraction failure")
	// ErrNoEvidence means the index returned zero matches for a query
	ErrNoEvidence = errors.New("no evidence found")
	// ErrAdjudicationTimeout means the LLM call did not finish in time
	ErrAdjudicationTimeout = errors.New("adjudication timeout")
	// ErrAdjudicationTransport means the LLM call failed at the transport or HTTP layer
	ErrAdjudicationTransport = errors.New("adjudication transport error")
	// ErrParse means every response recovery stage was exhausted
	ErrParse = errors.New("parse failure")
	// ErrIndexUnavailable means the evidence index itself cannot be queried
	ErrIndexUnavailable = errors.New("evidence index unavailable")
	// ErrConfiguration means a contract violation that no retry can fix
	ErrConfiguration = errors.New("configuration error")
)

// KindOf maps an error onto its kind. Unknown errors are reported as transport errors.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrExtraction):
		return KindExtraction
	case errors.Is(err, ErrNoEvidence):
		return KindNoEvidence
	case errors.Is(err, ErrAdjudicationTimeout), errors.Is(err, context.DeadlineExceeded):
		return KindAdjudicationTimeout
	case errors.Is(err, ErrParse):
		return KindParse
	case errors.Is(err, ErrIndexUnavailable):
		return KindIndexUnavailable
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	default:
		return KindAdjudicationTransport
	}
}

// IsFatal reports whether the error has no per-item scope and must abort the run
func IsFatal(err error) bool {
	return errors.Is(err, ErrIndexUnavailable) || errors.Is(err, ErrConfiguration)
}
