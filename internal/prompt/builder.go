// Package prompt renders a tenant snapshot and the tool catalog into the
// system prompt sent to the model.
package prompt

import (
	"fmt"
	"strings"

	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/domain"
)

// Rendered list bounds. Entries past a bound are counted, never silently dropped.
const (
	MaxBookings = 10
	MaxClients  = 20
)

// Build renders the system prompt. It is a pure function of its inputs.
func Build(tc domain.TenantContext, catalog []domain.ToolInfo) string {
	var b strings.Builder

	company := "the artisan"
	if tc.Profile != nil && tc.Profile.CompanyName != "" {
		company = tc.Profile.CompanyName
	}
	fmt.Fprintf(&b, "You are Fixy, the personal assistant of %s on the Fixit platform.\n", company)
	b.WriteString("You manage the artisan's schedule, services, bookings and paperwork by calling tools. Be brief and friendly.\n\n")

	writeDates(&b, tc)
	writeServices(&b, tc.Services)
	writeWeek(&b, tc)
	writeBookings(&b, tc.RecentBookings)
	writeClients(&b, tc.Clients)
	writeTools(&b, catalog)
	writeOutputContract(&b)
	return b.String()
}

func writeDates(b *strings.Builder, tc domain.TenantContext) {
	now := tc.Now
	fmt.Fprintf(b, "TODAY: %s %s (day_of_week %d).\n", now.Weekday(), now.Format("2006-01-02"), int(now.Weekday()))
	b.WriteString("Next days: ")
	for i := 1; i <= 7; i++ {
		d := now.AddDate(0, 0, i)
		if i > 1 {
			b.WriteString(", ")
		}
		fmt.Fprintf(b, "%s %s", d.Weekday(), d.Format("2006-01-02"))
	}
	b.WriteString(".\n\n")
}

func writeServices(b *strings.Builder, services []domain.Service) {
	b.WriteString("SERVICES:\n")
	if len(services) == 0 {
		b.WriteString("(no services configured)\n\n")
		return
	}
	for _, s := range services {
		state := "active"
		if !s.Active {
			state = "inactive"
		}
		price := "free pricing"
		if s.PriceTTC > 0 {
			price = fmt.Sprintf("%.2f EUR incl. VAT / %.2f EUR excl. VAT", s.PriceTTC, s.PriceHT)
		}
		fmt.Fprintf(b, "- %s [%s] id=%s, %s, %d min\n", s.Name, state, s.ID, price, s.DurationMinutes)
	}
	b.WriteString("\n")
}

func writeWeek(b *strings.Builder, tc domain.TenantContext) {
	names := make(map[string]string, len(tc.Services))
	for _, s := range tc.Services {
		names[s.ID] = s.Name
	}
	byDay := make(map[int]domain.Availability, len(tc.Availability))
	for _, a := range tc.Availability {
		byDay[a.DayOfWeek] = a
	}

	b.WriteString("WEEKLY AVAILABILITY (day_of_week: 0=Sunday .. 6=Saturday):\n")
	for day := 0; day < 7; day++ {
		fmt.Fprintf(b, "- %d %s: ", day, domain.DayName(day))
		a, ok := byDay[day]
		switch {
		case !ok:
			b.WriteString("not configured (closed)")
		case !a.IsAvailable:
			b.WriteString("CLOSED")
		default:
			fmt.Fprintf(b, "open %s-%s", clip(a.StartTime, 5), clip(a.EndTime, 5))
		}
		if ids := tc.DayServices[day]; len(ids) > 0 {
			linked := make([]string, 0, len(ids))
			for _, id := range ids {
				if n, ok := names[id]; ok {
					linked = append(linked, fmt.Sprintf("%s (id=%s)", n, id))
				}
			}
			if len(linked) > 0 {
				b.WriteString("; services: " + strings.Join(linked, ", "))
			}
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func writeBookings(b *strings.Builder, bookings []domain.Booking) {
	fmt.Fprintf(b, "BOOKINGS (upcoming first, then most recent past; at most %d listed, use list_bookings for more):\n", MaxBookings)
	if len(bookings) == 0 {
		b.WriteString("(no bookings)\n\n")
		return
	}
	for i, bk := range bookings {
		if i == MaxBookings {
			fmt.Fprintf(b, "(%d more bookings not listed)\n", len(bookings)-MaxBookings)
			break
		}
		service := bk.ServiceName
		if service == "" {
			service = "Intervention"
		}
		client := bk.ClientName
		if client == "" {
			client = "unknown client"
		}
		fmt.Fprintf(b, "- %s %s, %s with %s (%s) id=%s\n", bk.Date, clip(bk.Time, 5), service, client, bk.Status, bk.ID)
	}
	b.WriteString("\n")
}

func writeClients(b *strings.Builder, clients []domain.ClientSummary) {
	fmt.Fprintf(b, "CLIENTS (most recent first; at most %d listed, use list_clients to search):\n", MaxClients)
	if len(clients) == 0 {
		b.WriteString("(no clients)\n\n")
		return
	}
	for i, c := range clients {
		if i == MaxClients {
			fmt.Fprintf(b, "(%d more clients not listed)\n", len(clients)-MaxClients)
			break
		}
		line := "- " + c.Name
		if c.Phone != "" {
			line += ", phone " + c.Phone
		}
		if c.Email != "" {
			line += ", email " + c.Email
		}
		if c.Address != "" {
			line += ", address " + c.Address
		}
		fmt.Fprintf(b, "%s, %d booking(s)\n", line, c.BookingsCount)
	}
	b.WriteString("\n")
}

func writeTools(b *strings.Builder, catalog []domain.ToolInfo) {
	b.WriteString("TOOLS (the only operations you may request):\n")
	for _, t := range catalog {
		flag := ""
		if t.RequiresConfirmation {
			flag = " [REQUIRES CONFIRMATION]"
		}
		fmt.Fprintf(b, "- %s%s: %s. Params: %s\n", t.Name, flag, t.Description, t.Params)
	}
	b.WriteString("\n")
}

func writeOutputContract(b *strings.Builder) {
	b.WriteString(`ANSWER FORMAT: reply with one JSON object and nothing else:
{
  "actions": [{"tool": "<tool name>", "params": {...}}],
  "response": "<short reply to the artisan>",
  "client_actions": [],
  "pending_confirmation": null | {"tool": "<tool name>", "params": {...}, "description": "<what will happen>"}
}

RULES:
1. Only use tool names from TOOLS and identifiers listed above or returned by a tool. Never invent an id.
2. Tools marked [REQUIRES CONFIRMATION] must go in pending_confirmation, never in actions. At most one per answer.
3. Actions run in order but cannot use each other's results. When a step needs an id created by an earlier step, run the first step now and the rest on the next message.
4. Use "all" for day_of_week or service_id/service_ids when the artisan means every day or every service.
5. Dates are YYYY-MM-DD and times HH:MM. Resolve "tomorrow" or "next Monday" from TODAY.
6. Your response is shown before the results are known: announce what you are doing, never claim it is already done.
7. To draft a quote or invoice use create_quote or create_invoice with the known client details.
8. For questions that need no tool, leave actions empty and answer in response.
`)
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
