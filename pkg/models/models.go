package models

import (
	"encoding/json"
	"time"
)

// FieldProperty names the editable property of a FieldExtractor
type FieldProperty string

const (
	FieldName     FieldProperty = "name"
	FieldSelector FieldProperty = "selector"
)

// Valid reports whether p is one of the known properties
func (p FieldProperty) Valid() bool {
	return p == FieldName || p == FieldSelector
}

// FieldExtractor is one named CSS-selector rule pulled from each matched item
type FieldExtractor struct {
	Name     string `json:"name" yaml:"name"`
	Selector string `json:"selector" yaml:"selector"`
}

// JobConfig describes a scraping job as edited by the operator.
// Fields always holds at least one extractor.
type JobConfig struct {
	URL          string           `json:"url" yaml:"url"`
	RootSelector string           `json:"root_selector" yaml:"root_selector"`
	Fields       []FieldExtractor `json:"fields" yaml:"fields"`
}

// NewJobConfig returns the blank configuration a fresh session starts from
func NewJobConfig() JobConfig {
	return JobConfig{
		Fields: []FieldExtractor{{}},
	}
}

// Clone returns a copy that shares no memory with c
func (c JobConfig) Clone() JobConfig {
	out := c
	out.Fields = make([]FieldExtractor, len(c.Fields))
	copy(out.Fields, c.Fields)
	return out
}

// BackendRequest is the wire-format job description sent to the scraping backend.
// NameSelector holds one single-key map per extractor so duplicate names and order survive.
type BackendRequest struct {
	URL          string              `json:"url"`
	Selector     string              `json:"selector"`
	NameSelector []map[string]string `json:"nameSelector"`
}

// StateKind is the submission lifecycle position
type StateKind int

const (
	StateIdle StateKind = iota
	StatePending
	StateSucceeded
	StateFailed
)

// String returns the string representation of the state kind
func (k StateKind) String() string {
	switch k {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Settled reports whether the kind is a settlement outcome
func (k StateKind) Settled() bool {
	return k == StateSucceeded || k == StateFailed
}

// SubmissionState is a point-in-time view of a submission controller.
// Result is set only for StateSucceeded, Err only for StateFailed.
type SubmissionState struct {
	Kind      StateKind       `json:"state"`
	Result    json.RawMessage `json:"result,omitempty"`
	Err       error           `json:"-"`
	RequestID string          `json:"request_id,omitempty"`
	StartedAt time.Time       `json:"started_at,omitempty"`
	SettledAt time.Time       `json:"settled_at,omitempty"`
}

// Duration returns how long the submission took, or zero while unsettled
func (s SubmissionState) Duration() time.Duration {
	if !s.Kind.Settled() || s.StartedAt.IsZero() {
		return 0
	}
	return s.SettledAt.Sub(s.StartedAt)
}

// JobOutcome pairs a submitted job with its settled state
type JobOutcome struct {
	Source string
	Config JobConfig
	State  SubmissionState
}

// PageData represents a page fetched by the reference extraction engine
type PageData struct {
	URL          string            `json:"url"`
	StatusCode   int               `json:"status_code"`
	Title        string            `json:"title,omitempty"`
	HTML         string            `json:"html,omitempty"`
	Headers      map[string]string `json:"headers,omitempty"`
	FetchedAt    time.Time         `json:"fetched_at"`
	ResponseTime int64             `json:"response_time_ms"`
}

// ExtractResult is the payload returned by the development backend
type ExtractResult struct {
	URL   string              `json:"url"`
	Count int                 `json:"count"`
	Items []map[string]string `json:"items"`
}
