// Package parse recovers structured fields from free-form LLM responses.
package parse

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// FailedReason is the sentinel reason when no strategy recovers the schema
const FailedReason = "Failed to extract required keys"

// ErrEmptyInput is returned for a blank response
var ErrEmptyInput = errors.New("empty response")

// Failure describes an unparseable response
type Failure struct {
	Reason  string   // Always FailedReason
	Raw     string   // Cleaned response text
	Missing []string // Required fields absent from the best partial attempt
}

// Result is either recovered values or a failure, never both
type Result struct {
	Values  Values
	Failure *Failure
}

// OK reports whether every required field was recovered
func (r Result) OK() bool {
	return r.Failure == nil
}

// Strategy extracts field values from a cleaned response
type Strategy interface {
	Name() string
	Extract(cleaned string, schema Schema) Values
}

// Parser runs strategies in order until one recovers all required fields
type Parser struct {
	schema     Schema
	strategies []Strategy
}

// New creates a parser for schema. Without strategies, the default
// order is FieldPatterns then WholeObject.
func New(schema Schema, strategies ...Strategy) *Parser {
	if len(strategies) == 0 {
		strategies = []Strategy{FieldPatterns{}, WholeObject{}}
	}
	return &Parser{schema: schema, strategies: strategies}
}

// Parse never fails on malformed input, only on empty input
func (p *Parser) Parse(raw string) (Result, error) {
	if strings.TrimSpace(raw) == "" {
		return Result{}, ErrEmptyInput
	}

	cleaned := StripFences(raw)
	required := p.schema.Required()

	var best []string
	for i, s := range p.strategies {
		values := s.Extract(cleaned, p.schema)
		missing := values.Missing(required)
		if len(missing) == 0 {
			return Result{Values: values}, nil
		}
		if i == 0 || len(missing) < len(best) {
			best = missing
		}
	}

	return Result{Failure: &Failure{
		Reason:  FailedReason,
		Raw:     cleaned,
		Missing: best,
	}}, nil
}

var fencePattern = regexp.MustCompile("```[A-Za-z]*")

// StripFences removes markdown code fences and surrounding whitespace
func StripFences(raw string) string {
	return strings.TrimSpace(fencePattern.ReplaceAllString(raw, ""))
}

// FieldPatterns locates each schema field by key and reads its value,
// tolerating text around the object and a truncated tail
type FieldPatterns struct{}

// Name returns the strategy name
func (FieldPatterns) Name() string { return "field_patterns" }

// Extract reads every schema field it can find
func (FieldPatterns) Extract(cleaned string, schema Schema) Values {
	values := Values{}
	for _, f := range schema {
		if v, ok := extractField(cleaned, f); ok {
			values[f.Name] = v
		}
	}
	return values
}

func extractField(text string, f Field) (any, bool) {
	keyRe := regexp.MustCompile(`"` + regexp.QuoteMeta(f.Name) + `"\s*:\s*`)
	loc := keyRe.FindStringIndex(text)
	if loc == nil {
		return nil, false
	}
	rest := text[loc[1]:]

	// A well-formed value decodes directly
	var decoded any
	if err := json.NewDecoder(strings.NewReader(rest)).Decode(&decoded); err == nil {
		if v, ok := coerce(decoded, f.Kind); ok {
			return v, true
		}
	}

	switch f.Kind {
	case KindString:
		if m := stringValue.FindStringSubmatch(rest); m != nil {
			return unescape(m[1]), true
		}
	case KindList:
		if m := listValue.FindStringSubmatch(rest); m != nil {
			return m[1], true
		}
	case KindNumber:
		if m := numberValue.FindStringSubmatch(rest); m != nil {
			return m[1], true
		}
	}
	return nil, false
}

var (
	stringValue = regexp.MustCompile(`^"((?:[^"\\]|\\.)*)"`)
	listValue   = regexp.MustCompile(`(?s)^(\[.*?\])\s*[,}]`)
	numberValue = regexp.MustCompile(`^"?(-?\d+(?:\.\d+)?)`)
)

func coerce(v any, kind FieldKind) (any, bool) {
	switch kind {
	case KindString:
		s, ok := v.(string)
		return s, ok
	case KindList:
		list, ok := v.([]any)
		return list, ok
	case KindNumber:
		switch n := v.(type) {
		case float64:
			return n, true
		case string:
			return n, numberValue.MatchString(n)
		}
	}
	return nil, false
}

func unescape(s string) string {
	var out string
	if err := json.Unmarshal([]byte(`"`+s+`"`), &out); err != nil {
		return s
	}
	return out
}

// WholeObject parses the outermost braces as a single JSON object
type WholeObject struct{}

// Name returns the strategy name
func (WholeObject) Name() string { return "whole_object" }

// Extract returns every key of the object, or nothing if it is invalid
func (WholeObject) Extract(cleaned string, _ Schema) Values {
	obj, ok := outermostObject(cleaned)
	if !ok {
		return Values{}
	}
	var values map[string]any
	if err := json.Unmarshal([]byte(obj), &values); err != nil {
		return Values{}
	}
	return Values(values)
}

func outermostObject(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

// DecodeObject unmarshals the JSON object embedded in an LLM response
func DecodeObject(raw string, v any) error {
	cleaned := StripFences(raw)
	if cleaned == "" {
		return ErrEmptyInput
	}
	if err := json.Unmarshal([]byte(cleaned), v); err == nil {
		return nil
	}
	obj, ok := outermostObject(cleaned)
	if !ok {
		return fmt.Errorf("no JSON object in response")
	}
	if err := json.Unmarshal([]byte(obj), v); err != nil {
		return fmt.Errorf("decode response object: %w", err)
	}
	return nil
}
