package domain

// ChatMessage is one prior conversation message.
type ChatMessage struct {
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
}

// TurnRequest is the assistant turn endpoint request body.
type TurnRequest struct {
	TenantID            string         `json:"tenant_id"`
	Message             string         `json:"message"`
	ConversationHistory []ChatMessage  `json:"conversation_history,omitempty"`
	Context             *TenantContext `json:"context,omitempty"`
}

// TurnResponse is the normalized envelope returned for every turn.
type TurnResponse struct {
	Success             bool               `json:"success"`
	Response            string             `json:"response"`
	ActionsExecuted     []ActionOutcome    `json:"actions_executed"`
	PendingConfirmation *PendingDescriptor `json:"pending_confirmation"`
	ClientActions       []ClientAction     `json:"client_actions"`

	// State is the furthest state the turn reached. Not serialized.
	State TurnState `json:"-"`
}

// ConfirmRequest is the confirmation redemption endpoint request body.
type ConfirmRequest struct {
	TenantID     string `json:"tenant_id"`
	ConfirmToken string `json:"confirm_token"`
	Confirmed    bool   `json:"confirmed"`
}

// ConfirmResponse is the confirmation redemption endpoint response body.
type ConfirmResponse struct {
	Success bool   `json:"success"`
	Detail  string `json:"detail"`
	Tool    string `json:"tool,omitempty"`
}

// ActionEnvelope is the model's structured decision for one turn.
type ActionEnvelope struct {
	Actions             []ProposedAction      `json:"actions"`
	Response            string                `json:"response"`
	ClientActions       []ClientAction        `json:"client_actions"`
	PendingConfirmation *ProposedConfirmation `json:"pending_confirmation"`
}

// ProposedAction is one tool call the model asks to run immediately.
type ProposedAction struct {
	Tool   string         `json:"tool"`
	Params map[string]any `json:"params"`
}

// ProposedConfirmation is a confirmation-gated tool call proposed by the model.
type ProposedConfirmation struct {
	Tool        string         `json:"tool"`
	Params      map[string]any `json:"params"`
	Description string         `json:"description"`
}
