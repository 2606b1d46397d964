package domain

import (
	"encoding/json"
	"time"
)

// ToolResult is the outcome of one tool execution.
type ToolResult struct {
	Success bool   `json:"success"`
	Detail  string `json:"detail"`
	Data    any    `json:"data,omitempty"`
}

// ActionOutcome is one entry of a turn's actions_executed list.
type ActionOutcome struct {
	Tool   string       `json:"tool"`
	Result ActionResult `json:"result"`
	Detail string       `json:"detail"`
}

// Succeeded reports whether the action completed.
func (o ActionOutcome) Succeeded() bool {
	return o.Result == ActionResultSuccess
}

// ClientAction is a UI-only instruction. It is serialized flat:
// {"type": "navigate", "page": "calendar"}.
type ClientAction struct {
	Type    ClientActionType
	Payload map[string]any
}

// MarshalJSON flattens the payload next to the type.
func (a ClientAction) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(a.Payload)+1)
	for k, v := range a.Payload {
		out[k] = v
	}
	out["type"] = a.Type
	return json.Marshal(out)
}

// UnmarshalJSON splits the type from the rest of the object.
func (a *ClientAction) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if t, ok := raw["type"].(string); ok {
		a.Type = ClientActionType(t)
	}
	delete(raw, "type")
	if len(raw) > 0 {
		a.Payload = raw
	}
	return nil
}

// PendingConfirmation is a deferred, one-shot privileged action.
type PendingConfirmation struct {
	Token       string         `json:"token"`
	Tool        string         `json:"tool"`
	Params      map[string]any `json:"params"`
	TenantID    string         `json:"tenant_id"`
	Description string         `json:"description"`
	CreatedAt   time.Time      `json:"created_at"`
	ExpiresAt   time.Time      `json:"expires_at"`
}

// Expired reports whether the confirmation can no longer be redeemed at now.
func (p *PendingConfirmation) Expired(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}

// PendingDescriptor is the wire form of a pending confirmation.
type PendingDescriptor struct {
	Tool         string         `json:"tool"`
	Params       map[string]any `json:"params"`
	Description  string         `json:"description"`
	ConfirmToken string         `json:"confirm_token"`
}

// ToolInfo describes a catalog entry to clients.
type ToolInfo struct {
	Name                 string   `json:"name"`
	Description          string   `json:"description"`
	Params               string   `json:"params"`
	Kind                 ToolKind `json:"kind"`
	RequiresConfirmation bool     `json:"requires_confirmation"`
}
