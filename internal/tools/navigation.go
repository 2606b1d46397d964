package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/domain"
)

// Pages are the dashboard screens the client can navigate to.
var Pages = []string{
	"home", "calendar", "motifs", "horaires", "messages", "clients", "devis", "factures",
	"comptabilite", "stats", "revenus", "materiaux", "settings", "portfolio", "wallet", "rapports", "help",
}

// NavigationData is the data payload of a successful navigate_to call.
type NavigationData struct {
	Page string `json:"page"`
}

func registerNavigation(r *Registry) {
	r.MustRegister(Definition{
		Name:        NavigateTo,
		Description: "Open a dashboard page. Pages: " + strings.Join(Pages, ", "),
		Params:      "{ page: string }",
		Kind:        domain.ToolKindNavigation,
		Execute:     navigateTo,
	})
}

func navigateTo(_ context.Context, p Params, _ string) domain.ToolResult {
	page := strings.ToLower(p.String("page"))
	if page == "" {
		page = "home"
	}
	for _, known := range Pages {
		if page == known {
			return ok(fmt.Sprintf("Opening %s", page), NavigationData{Page: page})
		}
	}
	return fail("Unknown page %q. Valid pages: %s", page, strings.Join(Pages, ", "))
}
