package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/domain"
	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/repository"
)

func (ts *toolset) registerClients(r *Registry) {
	r.MustRegister(Definition{
		Name:        ListClients,
		Description: "List the tenant's clients (name, phone, email, number of bookings, revenue)",
		Params:      "{ search?: string }",
		Kind:        domain.ToolKindRead,
		Execute:     ts.listClients,
	})
	r.MustRegister(Definition{
		Name:        GetClientDetails,
		Description: "Get a client's details and booking history, searched by name or email",
		Params:      "{ client_name: string }",
		Kind:        domain.ToolKindRead,
		Execute:     ts.getClientDetails,
	})
}

func formatClient(c domain.ClientSummary) string {
	phone, email := c.Phone, c.Email
	if phone == "" {
		phone = "-"
	}
	if email == "" {
		email = "-"
	}
	return fmt.Sprintf("%s | %s | %s | %d booking(s) | revenue: %.2f EUR", c.Name, phone, email, c.BookingsCount, round2(c.TotalRevenue))
}

func clientMatches(c domain.ClientSummary, search string) bool {
	search = strings.ToLower(search)
	return strings.Contains(strings.ToLower(c.Name), search) ||
		strings.Contains(strings.ToLower(c.Email), search) ||
		(c.Phone != "" && strings.Contains(c.Phone, search))
}

func (ts *toolset) listClients(ctx context.Context, p Params, tenantID string) domain.ToolResult {
	clients, err := ts.store.ListClients(ctx, tenantID)
	if err != nil {
		return ts.storeFailure(ListClients, err, "")
	}
	if len(clients) == 0 {
		return ok("No clients found.", []domain.ClientSummary{})
	}

	if search := p.String("search"); search != "" {
		var filtered []domain.ClientSummary
		for _, c := range clients {
			if clientMatches(c, search) {
				filtered = append(filtered, c)
			}
		}
		if len(filtered) == 0 {
			return ok(fmt.Sprintf("No clients found for %q.", search), []domain.ClientSummary{})
		}
		clients = filtered
	}

	lines := make([]string, 0, len(clients))
	for _, c := range clients {
		lines = append(lines, formatClient(c))
	}
	return ok(fmt.Sprintf("%d client(s):\n%s", len(clients), strings.Join(lines, "\n")), clients)
}

func (ts *toolset) getClientDetails(ctx context.Context, p Params, tenantID string) domain.ToolResult {
	search := p.String("client_name")
	if search == "" {
		return fail("client_name is required.")
	}
	clients, err := ts.store.ListClients(ctx, tenantID)
	if err != nil {
		return ts.storeFailure(GetClientDetails, err, "")
	}

	var match *domain.ClientSummary
	for i := range clients {
		if clientMatches(clients[i], search) {
			match = &clients[i]
			break
		}
	}
	if match == nil {
		return ok(fmt.Sprintf("No client %q found.", search), nil)
	}

	bookings, err := ts.store.ListBookings(ctx, tenantID, repository.BookingFilter{
		ClientID:   match.ID,
		Descending: true,
		Limit:      10,
	})
	if err != nil {
		return ts.storeFailure(GetClientDetails, err, "")
	}

	orDash := func(s string) string {
		if s == "" {
			return "-"
		}
		return s
	}
	lines := []string{
		"Name: " + match.Name,
		"Email: " + orDash(match.Email),
		"Phone: " + orDash(match.Phone),
		"Address: " + orDash(match.Address),
		fmt.Sprintf("Total bookings: %d | Total revenue: %.2f EUR", match.BookingsCount, round2(match.TotalRevenue)),
		"",
		"Latest bookings:",
	}
	for _, b := range bookings {
		service := b.ServiceName
		if service == "" {
			service = "Intervention"
		}
		lines = append(lines, fmt.Sprintf("  %s %s - %s - %s - %.2f EUR", b.Date, truncate(b.Time, 5), service, b.Status, b.PriceTTC))
	}
	return ok(strings.Join(lines, "\n"), map[string]any{"client": match, "bookings": bookings})
}
