package models

import (
	"encoding/json"
	"fmt"
)

// FailureKind classifies an analysis failure for transports that need a status.
type FailureKind string

const (
	FailureInvalidInput FailureKind = "invalid_input"
	FailureNoData       FailureKind = "no_data"
	FailureUpstream     FailureKind = "upstream"
	FailureInternal     FailureKind = "internal"
)

// AnalysisResult is either a payload or an error message, never both. It
// serializes to the payload itself or to {"error": "..."}.
type AnalysisResult struct {
	Payload *ChartPayload
	Error   string
	Kind    FailureKind
}

// Succeeded wraps a payload.
func Succeeded(p *ChartPayload) AnalysisResult {
	return AnalysisResult{Payload: p}
}

// Failed builds an error result.
func Failed(kind FailureKind, format string, args ...any) AnalysisResult {
	return AnalysisResult{Error: fmt.Sprintf(format, args...), Kind: kind}
}

// OK reports whether the result carries a payload.
func (r AnalysisResult) OK() bool { return r.Error == "" && r.Payload != nil }

func (r AnalysisResult) MarshalJSON() ([]byte, error) {
	if !r.OK() {
		msg := r.Error
		if msg == "" {
			msg = "empty analysis result"
		}
		return json.Marshal(map[string]string{"error": msg})
	}
	return json.Marshal(r.Payload)
}
