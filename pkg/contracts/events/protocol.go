// Package events contains the contracts of messages published by taxipulse.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"taxipulse/pkg/contracts/domain"
)

// Protocol version
const (
	ProtocolVersion = "1.0"
	ProtocolName    = "taxipulse-events"
)

// Subjects
const (
	SubjectRunCompleted = "taxipulse.runs.completed"
	SubjectRunFailed    = "taxipulse.runs.failed"
)

// Envelope wraps every published event
type Envelope struct {
	Protocol  string          `json:"protocol"`
	Version   string          `json:"version"`
	Subject   string          `json:"subject"`
	TraceID   string          `json:"trace_id,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// NewRunEnvelope wraps a run summary for its status subject
func NewRunEnvelope(summary domain.RunSummary, traceID string) (Envelope, error) {
	payload, err := json.Marshal(summary)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to marshal run summary: %w", err)
	}

	subject := SubjectRunCompleted
	if summary.Status == domain.RunStatusFailed {
		subject = SubjectRunFailed
	}

	return Envelope{
		Protocol:  ProtocolName,
		Version:   ProtocolVersion,
		Subject:   subject,
		TraceID:   traceID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}, nil
}

// DecodeRun extracts the run summary carried by e
func (e Envelope) DecodeRun() (domain.RunSummary, error) {
	var summary domain.RunSummary
	if err := json.Unmarshal(e.Payload, &summary); err != nil {
		return domain.RunSummary{}, fmt.Errorf("failed to decode run payload: %w", err)
	}
	return summary, nil
}
