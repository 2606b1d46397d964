// Package domain defines the core domain models for the fixy assistant.
package domain

// TurnState is the furthest state an assistant turn reached.
type TurnState string

const (
	TurnStateRateLimited       TurnState = "RATE_LIMITED"
	TurnStateContextBuilt      TurnState = "CONTEXT_BUILT"
	TurnStateLLMInvoked        TurnState = "LLM_INVOKED"
	TurnStateLLMResponseParsed TurnState = "LLM_RESPONSE_PARSED"
	TurnStateActionsValidated  TurnState = "ACTIONS_VALIDATED"
	TurnStateActionsExecuted   TurnState = "ACTIONS_EXECUTED"
	TurnStateEnvelopeAssembled TurnState = "ENVELOPE_ASSEMBLED"
)

// ToolKind classifies what a tool does to tenant state.
type ToolKind string

const (
	// ToolKindRead only reads tenant data.
	ToolKindRead ToolKind = "read"
	// ToolKindWrite mutates tenant data.
	ToolKindWrite ToolKind = "write"
	// ToolKindNavigation resolves to a client-side navigation.
	ToolKindNavigation ToolKind = "navigation"
	// ToolKindDocument is never executed server-side; it opens a prefilled form.
	ToolKindDocument ToolKind = "document"
)

// ActionResult is the wire value of an executed action outcome.
type ActionResult string

const (
	ActionResultSuccess ActionResult = "success"
	ActionResultError   ActionResult = "error"
)

// ClientActionType represents a UI-only instruction sent back to the front-end.
type ClientActionType string

const (
	ClientActionNavigate        ClientActionType = "navigate"
	ClientActionOpenQuoteForm   ClientActionType = "open_devis_form"
	ClientActionOpenInvoiceForm ClientActionType = "open_facture_form"
	ClientActionRefresh         ClientActionType = "refresh"
)

// KnownClientAction reports whether t is one of the client action types the front-end understands.
func KnownClientAction(t ClientActionType) bool {
	switch t {
	case ClientActionNavigate, ClientActionOpenQuoteForm, ClientActionOpenInvoiceForm, ClientActionRefresh:
		return true
	}
	return false
}

// BookingStatus represents the status of a booking.
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
)

// Valid reports whether s is a known booking status.
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCancelled, BookingStatusCompleted:
		return true
	}
	return false
}

// ChatRole is the author of a conversation message.
type ChatRole string

const (
	ChatRoleSystem    ChatRole = "system"
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)
