package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/domain"
	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/repository"
)

// vatRate is the standard French VAT rate used to derive prices excluding tax.
const vatRate = 1.2

func (ts *toolset) registerServices(r *Registry) {
	r.MustRegister(Definition{
		Name:        ListServices,
		Description: "List every service (appointment type) with its state, price and duration",
		Params:      "(none)",
		Kind:        domain.ToolKindRead,
		Execute:     ts.listServices,
	})
	r.MustRegister(Definition{
		Name:        ToggleServiceActive,
		Description: `Activate or deactivate a service. service_id: id or "all"`,
		Params:      `{ service_id: string|"all", active: boolean }`,
		Kind:        domain.ToolKindWrite,
		Execute:     ts.toggleServiceActive,
		Describe:    ts.describeToggleService,
	})
	r.MustRegister(Definition{
		Name:        CreateService,
		Description: "Create a new service",
		Params:      "{ name: string, duration_minutes?: number, price_ht?: number, price_ttc?: number, description?: string }",
		Kind:        domain.ToolKindWrite,
		Execute:     ts.createService,
	})
	r.MustRegister(Definition{
		Name:        UpdateService,
		Description: "Change an existing service (name, prices, duration, description)",
		Params:      "{ service_id: string, name?: string, price_ht?: number, price_ttc?: number, duration_minutes?: number, description?: string }",
		Kind:        domain.ToolKindWrite,
		Execute:     ts.updateService,
	})
	r.MustRegister(Definition{
		Name:                 DeleteService,
		Description:          "Delete a service (irreversible)",
		Params:               "{ service_id: string }",
		Kind:                 domain.ToolKindWrite,
		RequiresConfirmation: true,
		Execute:              ts.deleteService,
		Describe:             ts.describeDeleteService,
	})
	r.MustRegister(Definition{
		Name:        LinkServicesToDays,
		Description: `Link services to open weekdays. day_of_week: 0-6 or "all" (every open day). service_ids: list of ids or "all" (every active service). mode: "add"|"remove"|"set"`,
		Params:      `{ day_of_week: number|"all", service_ids: string[]|"all", mode: "add"|"remove"|"set" }`,
		Kind:        domain.ToolKindWrite,
		Execute:     ts.linkServicesToDays,
	})
}

func formatService(s domain.Service) string {
	state := "[active]"
	if !s.Active {
		state = "[inactive]"
	}
	price := "free pricing"
	if s.PriceTTC > 0 {
		price = fmt.Sprintf("%.2f EUR incl. VAT", s.PriceTTC)
	}
	duration := s.DurationMinutes
	if duration == 0 {
		duration = 60
	}
	return fmt.Sprintf("%s %s (id %s) - %s - %dmin", state, s.Name, s.ID, price, duration)
}

func (ts *toolset) listServices(ctx context.Context, _ Params, tenantID string) domain.ToolResult {
	services, err := ts.store.ListServices(ctx, tenantID)
	if err != nil {
		return ts.storeFailure(ListServices, err, "")
	}
	if len(services) == 0 {
		return ok("No services configured.", []domain.Service{})
	}
	lines := make([]string, 0, len(services))
	for _, s := range services {
		lines = append(lines, formatService(s))
	}
	return ok(strings.Join(lines, "\n"), services)
}

func (ts *toolset) toggleServiceActive(ctx context.Context, p Params, tenantID string) domain.ToolResult {
	active, present, err := p.Bool("active")
	if err != nil {
		return fail("%s", err.Error())
	}
	if !present {
		return fail("active is required.")
	}
	verb := "activated"
	if !active {
		verb = "deactivated"
	}

	if p.IsAll("service_id") {
		n, err := ts.store.SetAllServicesActive(ctx, tenantID, active)
		if err != nil {
			return ts.storeFailure(ToggleServiceActive, err, "")
		}
		return ok(fmt.Sprintf("%d service(s) %s", n, verb), nil)
	}

	id := p.String("service_id")
	if id == "" {
		return fail("service_id is required.")
	}
	svc, err := ts.store.UpdateService(ctx, tenantID, id, repository.ServiceUpdate{Active: &active})
	if err != nil {
		return ts.storeFailure(ToggleServiceActive, err, fmt.Sprintf("Service %s not found.", id))
	}
	return ok(fmt.Sprintf("Service %q %s", svc.Name, verb), svc)
}

func (ts *toolset) describeToggleService(ctx context.Context, p Params, tenantID string) string {
	active, _, _ := p.Bool("active")
	verb := "Activate"
	if !active {
		verb = "Deactivate"
	}
	if p.IsAll("service_id") {
		return verb + " every service"
	}
	if svc, err := ts.store.GetService(ctx, tenantID, p.String("service_id")); err == nil && svc != nil {
		return fmt.Sprintf("%s the service %q", verb, svc.Name)
	}
	return verb + " a service"
}

func (ts *toolset) createService(ctx context.Context, p Params, tenantID string) domain.ToolResult {
	name := p.String("name")
	if name == "" {
		return fail("Service name is required.")
	}

	duration, hasDuration, err := p.Int("duration_minutes")
	if err != nil {
		return fail("%s", err.Error())
	}
	if !hasDuration || duration <= 0 {
		duration = 60
	}
	priceHT, hasHT, err := p.Float("price_ht")
	if err != nil {
		return fail("%s", err.Error())
	}
	priceTTC, _, err := p.Float("price_ttc")
	if err != nil {
		return fail("%s", err.Error())
	}
	if priceHT < 0 || priceTTC < 0 {
		return fail("Prices cannot be negative.")
	}
	if !hasHT && priceTTC > 0 {
		priceHT = round2(priceTTC / vatRate)
	}

	svc := &domain.Service{
		TenantID:        tenantID,
		Name:            name,
		Description:     p.String("description"),
		DurationMinutes: duration,
		PriceHT:         priceHT,
		PriceTTC:        priceTTC,
		Active:          true,
	}
	if err := ts.store.CreateService(ctx, svc); err != nil {
		return ts.storeFailure(CreateService, err, "")
	}
	return ok(fmt.Sprintf("Service %q created (id %s)", svc.Name, svc.ID), svc)
}

func (ts *toolset) updateService(ctx context.Context, p Params, tenantID string) domain.ToolResult {
	id := p.String("service_id")
	if id == "" {
		return fail("service_id is required.")
	}

	var u repository.ServiceUpdate
	var fields []string
	if p.Has("name") {
		name := p.String("name")
		if name == "" {
			return fail("Service name cannot be empty.")
		}
		u.Name = &name
		fields = append(fields, "name")
	}
	if p.Has("description") {
		u.Description = p.OptString("description")
		fields = append(fields, "description")
	}
	for _, f := range []struct {
		key string
		dst **float64
	}{{"price_ht", &u.PriceHT}, {"price_ttc", &u.PriceTTC}} {
		v, present, err := p.Float(f.key)
		if err != nil {
			return fail("%s", err.Error())
		}
		if present {
			if v < 0 {
				return fail("Prices cannot be negative.")
			}
			v := v
			*f.dst = &v
			fields = append(fields, f.key)
		}
	}
	if d, present, err := p.Int("duration_minutes"); err != nil {
		return fail("%s", err.Error())
	} else if present {
		if d <= 0 {
			return fail("duration_minutes must be positive.")
		}
		u.DurationMinutes = &d
		fields = append(fields, "duration_minutes")
	}
	if u.Empty() {
		return fail("Nothing to change.")
	}

	svc, err := ts.store.UpdateService(ctx, tenantID, id, u)
	if err != nil {
		return ts.storeFailure(UpdateService, err, fmt.Sprintf("Service %s not found.", id))
	}
	return ok(fmt.Sprintf("Service %q updated (%s)", svc.Name, strings.Join(fields, ", ")), svc)
}

func (ts *toolset) deleteService(ctx context.Context, p Params, tenantID string) domain.ToolResult {
	id := p.String("service_id")
	if id == "" {
		return fail("service_id is required.")
	}
	svc, err := ts.store.GetService(ctx, tenantID, id)
	if err != nil {
		return ts.storeFailure(DeleteService, err, "")
	}
	if svc == nil {
		return fail("Service %s not found.", id)
	}
	if err := ts.store.DeleteService(ctx, tenantID, id); err != nil {
		return ts.storeFailure(DeleteService, err, fmt.Sprintf("Service %s not found.", id))
	}
	return ok(fmt.Sprintf("Service %q deleted", svc.Name), nil)
}

func (ts *toolset) describeDeleteService(ctx context.Context, p Params, tenantID string) string {
	if svc, err := ts.store.GetService(ctx, tenantID, p.String("service_id")); err == nil && svc != nil {
		return fmt.Sprintf("Delete the service %q permanently", svc.Name)
	}
	return "Delete a service permanently"
}

func (ts *toolset) linkServicesToDays(ctx context.Context, p Params, tenantID string) domain.ToolResult {
	mode := strings.ToLower(p.String("mode"))
	if mode == "" {
		mode = "set"
	}
	if mode != "set" && mode != "add" && mode != "remove" {
		return fail("Invalid mode %q: expected add, remove or set.", mode)
	}

	services, err := ts.store.ListServices(ctx, tenantID)
	if err != nil {
		return ts.storeFailure(LinkServicesToDays, err, "")
	}
	owned := make(map[string]domain.Service, len(services))
	for _, s := range services {
		owned[s.ID] = s
	}

	var serviceIDs []string
	if p.IsAll("service_ids") {
		for _, s := range services {
			if s.Active {
				serviceIDs = append(serviceIDs, s.ID)
			}
		}
	} else {
		serviceIDs = p.Strings("service_ids")
		if len(serviceIDs) == 0 {
			return fail("service_ids is required.")
		}
		for _, id := range serviceIDs {
			if _, ok := owned[id]; !ok {
				return fail("Service %s not found.", id)
			}
		}
	}

	var days []int
	if p.IsAll("day_of_week") {
		windows, err := ts.store.ListAvailability(ctx, tenantID)
		if err != nil {
			return ts.storeFailure(LinkServicesToDays, err, "")
		}
		for _, w := range windows {
			if w.IsAvailable {
				days = append(days, w.DayOfWeek)
			}
		}
		if len(days) == 0 {
			return fail("No open days to link services to.")
		}
	} else {
		day, err := p.Day("day_of_week")
		if err != nil {
			return fail("%s", err.Error())
		}
		days = []int{day}
	}

	ds, err := ts.store.GetDayServices(ctx, tenantID)
	if err != nil {
		return ts.storeFailure(LinkServicesToDays, err, "")
	}
	if ds == nil {
		ds = domain.DayServices{}
	}
	for _, day := range days {
		ds[day] = applyLinkMode(mode, ds[day], serviceIDs)
	}
	if err := ts.store.SaveDayServices(ctx, tenantID, ds); err != nil {
		return ts.storeFailure(LinkServicesToDays, err, "")
	}

	names := make([]string, 0, len(days))
	sort.Ints(days)
	for _, d := range days {
		names = append(names, domain.DayName(d))
	}
	verb := "linked to"
	if mode == "remove" {
		verb = "removed from"
	}
	return ok(fmt.Sprintf("%d service(s) %s %s", len(serviceIDs), verb, strings.Join(names, ", ")), ds)
}

func applyLinkMode(mode string, current, ids []string) []string {
	switch mode {
	case "add":
		seen := make(map[string]bool, len(current)+len(ids))
		out := make([]string, 0, len(current)+len(ids))
		for _, id := range append(append([]string{}, current...), ids...) {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
		return out
	case "remove":
		drop := make(map[string]bool, len(ids))
		for _, id := range ids {
			drop[id] = true
		}
		out := make([]string, 0, len(current))
		for _, id := range current {
			if !drop[id] {
				out = append(out, id)
			}
		}
		return out
	default:
		return append([]string{}, ids...)
	}
}
