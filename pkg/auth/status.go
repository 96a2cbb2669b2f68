package auth

import "time"

// StatusResponse is the structured authentication state of the tool,
// returned by the status command's JSON output.
type StatusResponse struct {
	// Accounts lists every stored account with its credential state.
	Accounts []AccountStatus `json:"accounts"`

	// PendingFlow is present while an authorization flow awaits its
	// callback.
	PendingFlow *FlowStatus `json:"pending_flow,omitempty"`
}

// AccountStatus describes one stored account's credential state.
type AccountStatus struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`

	// Status is one of "valid", "expired" or "unrefreshable".
	Status string `json:"status"`

	// Expiry is the access token expiry, when known.
	Expiry *time.Time `json:"expiry,omitempty"`

	// PlanType is the provider plan label from the last quota fetch.
	PlanType string `json:"plan_type,omitempty"`
}

// FlowStatus describes an in-flight authorization flow.
type FlowStatus struct {
	// Port is the loopback port the flow's listener is bound to.
	Port int `json:"port"`
}

// Credential state values for AccountStatus.Status.
const (
	StatusValid         = "valid"
	StatusExpired       = "expired"
	StatusUnrefreshable = "unrefreshable"
)
