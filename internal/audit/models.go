package audit

import "time"

// Action names the audited operation.
type Action string

const (
	// ActionIdentityConsulted is emitted once per registry consultation.
	ActionIdentityConsulted Action = "identity.consulted"
)

// Outcome is the coarse result of an audited action.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Event captures one identity consultation. Subject is always the masked
// identity number; registry payloads never travel through the audit trail.
type Event struct {
	Timestamp      time.Time     `json:"timestamp"`
	Action         Action        `json:"action"`
	RequestID      string        `json:"request_id,omitempty"`
	Subject        string        `json:"subject"`
	Outcome        Outcome       `json:"outcome"`
	Category       string        `json:"category,omitempty"`
	UpstreamStatus int           `json:"upstream_status,omitempty"`
	Duration       time.Duration `json:"duration_ns"`
	Coalesced      bool          `json:"coalesced,omitempty"`
	ClientIP       string        `json:"client_ip,omitempty"`
	ClientPlatform string        `json:"client_platform,omitempty"`
}
