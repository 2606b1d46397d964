package tools

import (
	"context"

	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/domain"
)

// DocumentFields are the only fields forwarded to the quote and invoice forms.
var DocumentFields = []string{
	"clientName", "clientEmail", "clientPhone", "clientAddress", "clientSiret", "service", "amount", "description",
}

const documentParams = "{ clientName, clientEmail, clientPhone, clientAddress, clientSiret, service, amount, description }"

// DocumentDraft is the data payload of a document tool: the form to open and its prefilled values.
type DocumentDraft struct {
	Action domain.ClientActionType
	Fields map[string]any
}

func registerDocuments(r *Registry) {
	r.MustRegister(Definition{
		Name:        CreateQuote,
		Description: "Open the quote form prefilled with the given values (client-side action)",
		Params:      documentParams,
		Kind:        domain.ToolKindDocument,
		Execute:     draftDocument(domain.ClientActionOpenQuoteForm, "Opening the quote form"),
	})
	r.MustRegister(Definition{
		Name:        CreateInvoice,
		Description: "Open the invoice form prefilled with the given values (client-side action)",
		Params:      documentParams,
		Kind:        domain.ToolKindDocument,
		Execute:     draftDocument(domain.ClientActionOpenInvoiceForm, "Opening the invoice form"),
	})
}

// draftDocument never touches the store: it only whitelists the drafted values.
func draftDocument(action domain.ClientActionType, detail string) Executor {
	return func(_ context.Context, p Params, _ string) domain.ToolResult {
		return ok(detail, DocumentDraft{Action: action, Fields: WhitelistDocumentFields(p)})
	}
}

// WhitelistDocumentFields keeps the known document fields of p.
func WhitelistDocumentFields(p Params) map[string]any {
	out := make(map[string]any)
	for _, key := range DocumentFields {
		v, present := p[key]
		if !present || v == nil {
			continue
		}
		switch v.(type) {
		case string, float64, bool:
			out[key] = v
		}
	}
	return out
}
