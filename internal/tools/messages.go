package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/domain"
)

const (
	messageListLimit  = 50
	messageMaxChars   = 2000
	messagePreviewLen = 150
)

func (ts *toolset) registerMessages(r *Registry) {
	r.MustRegister(Definition{
		Name:        ListBookingMessages,
		Description: "List the messages of a booking conversation (client and artisan)",
		Params:      "{ booking_id: string }",
		Kind:        domain.ToolKindRead,
		Execute:     ts.listBookingMessages,
	})
	r.MustRegister(Definition{
		Name:        SendBookingMessage,
		Description: "Send a message in a booking conversation",
		Params:      "{ booking_id: string, content: string }",
		Kind:        domain.ToolKindWrite,
		Execute:     ts.sendBookingMessage,
	})
}

func (ts *toolset) listBookingMessages(ctx context.Context, p Params, tenantID string) domain.ToolResult {
	b, res := ts.loadBooking(ctx, ListBookingMessages, p, tenantID)
	if res != nil {
		return *res
	}
	msgs, err := ts.store.ListBookingMessages(ctx, tenantID, b.ID, messageListLimit)
	if err != nil {
		return ts.storeFailure(ListBookingMessages, err, fmt.Sprintf("Booking %s not found.", b.ID))
	}
	if len(msgs) == 0 {
		return ok("No messages for this booking.", []domain.BookingMessage{})
	}
	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		sender := m.SenderName
		if m.SenderRole == "artisan" {
			sender = "You"
		} else if sender == "" {
			sender = "Client"
		}
		lines = append(lines, fmt.Sprintf("[%s] %s", sender, truncate(m.Content, messagePreviewLen)))
	}
	return ok(fmt.Sprintf("%d message(s):\n%s", len(msgs), strings.Join(lines, "\n")), msgs)
}

func (ts *toolset) sendBookingMessage(ctx context.Context, p Params, tenantID string) domain.ToolResult {
	content := truncate(p.String("content"), messageMaxChars)
	if content == "" {
		return fail("content is required.")
	}
	b, res := ts.loadBooking(ctx, SendBookingMessage, p, tenantID)
	if res != nil {
		return *res
	}

	senderID, senderName := tenantID, "Artisan"
	profile, err := ts.store.GetProfile(ctx, tenantID)
	if err != nil {
		return ts.storeFailure(SendBookingMessage, err, "")
	}
	if profile != nil {
		if profile.UserID != "" {
			senderID = profile.UserID
		}
		if profile.CompanyName != "" {
			senderName = profile.CompanyName
		}
	}

	msg := &domain.BookingMessage{
		BookingID:  b.ID,
		SenderID:   senderID,
		SenderRole: "artisan",
		SenderName: senderName,
		Content:    content,
		Type:       "text",
	}
	if err := ts.store.CreateBookingMessage(ctx, tenantID, msg); err != nil {
		return ts.storeFailure(SendBookingMessage, err, fmt.Sprintf("Booking %s not found.", b.ID))
	}

	preview := truncate(content, 80)
	if preview != content {
		preview += "..."
	}
	return ok(fmt.Sprintf("Message sent: %q", preview), msg)
}
