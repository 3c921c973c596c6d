package event

import "time"

// ErrorOccurredData is published when an error is classified.
type ErrorOccurredData struct {
	Category  string    `json:"category"`
	Severity  string    `json:"severity"`
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	SessionID string    `json:"sessionID,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorMetricsData carries rolling counts per category/severity/code.
type ErrorMetricsData struct {
	Category  string    `json:"category"`
	Severity  string    `json:"severity"`
	Code      string    `json:"code"`
	Count     int       `json:"count"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorPatternData is published when a recurring error pattern is updated.
type ErrorPatternData struct {
	Key       string    `json:"key"`
	Frequency int       `json:"frequency"`
	RiskLevel string    `json:"riskLevel"`
	Timestamp time.Time `json:"timestamp"`
}

// AlertRaisedData is published when monitoring raises an alert.
type AlertRaisedData struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// PermissionDecisionData records a permission check result.
type PermissionDecisionData struct {
	Subject   string `json:"subject"`
	AgentName string `json:"agentName,omitempty"`
	Action    string `json:"action"`
	SessionID string `json:"sessionID,omitempty"`
}

// PermissionRequiredData is published when a check needs user consent.
type PermissionRequiredData struct {
	ID        string   `json:"id"`
	SessionID string   `json:"sessionID"`
	Subject   string   `json:"subject"`
	Patterns  []string `json:"patterns,omitempty"`
	Title     string   `json:"title"`
}

// PermissionResolvedData is published when a pending ask is answered.
type PermissionResolvedData struct {
	ID      string `json:"id"`
	Granted bool   `json:"granted"`
}

// ToolResolvedData records a tool resolution attempt.
type ToolResolvedData struct {
	Requested  string `json:"requested"`
	Resolved   string `json:"resolved,omitempty"`
	Strategy   string `json:"strategy"`
	Confidence int    `json:"confidence"`
	Status     string `json:"status"`
}

// CircuitStateChangeData records a circuit breaker transition.
type CircuitStateChangeData struct {
	Key      string `json:"key"`
	State    string `json:"state"`
	Failures int    `json:"failures"`
}

// ConfigUpdatedData is published when the watched config file changes.
type ConfigUpdatedData struct {
	Path string `json:"path"`
}
