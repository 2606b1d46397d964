package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/domain"
	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/repository"
)

const (
	defaultDayStart = "08:00"
	defaultDayEnd   = "17:00"
)

func (ts *toolset) registerAvailability(r *Registry) {
	r.MustRegister(Definition{
		Name:        ListAvailability,
		Description: "Show the current weekly availability (open days and hours)",
		Params:      "(none)",
		Kind:        domain.ToolKindRead,
		Execute:     ts.listAvailability,
	})
	r.MustRegister(Definition{
		Name:        SetDayAvailability,
		Description: `Open or close a weekday, or every weekday. day_of_week: 0=Sunday..6=Saturday or "all"`,
		Params:      `{ day_of_week: number|"all", is_available: boolean }`,
		Kind:        domain.ToolKindWrite,
		Execute:     ts.setDayAvailability,
		Describe:    ts.describeSetDayAvailability,
	})
	r.MustRegister(Definition{
		Name:        UpdateAvailabilityHours,
		Description: `Change the opening hours of a weekday. day_of_week: 0-6 or "all"`,
		Params:      `{ day_of_week: number|"all", start_time?: "HH:MM", end_time?: "HH:MM" }`,
		Kind:        domain.ToolKindWrite,
		Execute:     ts.updateAvailabilityHours,
	})
}

func formatWindow(a domain.Availability) string {
	if !a.IsAvailable {
		return fmt.Sprintf("%s: CLOSED", domain.DayName(a.DayOfWeek))
	}
	return fmt.Sprintf("%s: %s-%s", domain.DayName(a.DayOfWeek), truncate(a.StartTime, 5), truncate(a.EndTime, 5))
}

func (ts *toolset) listAvailability(ctx context.Context, _ Params, tenantID string) domain.ToolResult {
	days, err := ts.store.ListAvailability(ctx, tenantID)
	if err != nil {
		return ts.storeFailure(ListAvailability, err, "")
	}
	if len(days) == 0 {
		return ok("No availability configured.", []domain.Availability{})
	}
	lines := make([]string, 0, len(days))
	for _, a := range days {
		lines = append(lines, formatWindow(a))
	}
	return ok(strings.Join(lines, "\n"), days)
}

func (ts *toolset) setDayAvailability(ctx context.Context, p Params, tenantID string) domain.ToolResult {
	days, err := p.Days("day_of_week")
	if err != nil {
		return fail("%s", err.Error())
	}
	open, present, err := p.Bool("is_available")
	if err != nil {
		return fail("%s", err.Error())
	}
	if !present {
		return fail("is_available is required.")
	}

	var changed []string
	for _, day := range days {
		existing, err := ts.store.GetAvailability(ctx, tenantID, day)
		if err != nil {
			return ts.storeFailure(SetDayAvailability, err, "")
		}
		switch {
		case existing != nil:
			if err := ts.store.UpdateAvailability(ctx, tenantID, existing.ID, repository.AvailabilityUpdate{IsAvailable: &open}); err != nil {
				return ts.storeFailure(SetDayAvailability, err, "")
			}
		case open:
			if err := ts.store.CreateAvailability(ctx, &domain.Availability{
				TenantID: tenantID, DayOfWeek: day,
				StartTime: defaultDayStart, EndTime: defaultDayEnd, IsAvailable: true,
			}); err != nil {
				return ts.storeFailure(SetDayAvailability, err, "")
			}
		default:
			// closing a day that was never configured is already the case
		}
		changed = append(changed, domain.DayName(day))
	}

	verb := "opened"
	if !open {
		verb = "closed"
	}
	return ok(fmt.Sprintf("%d day(s) %s: %s", len(changed), verb, strings.Join(changed, ", ")), nil)
}

func (ts *toolset) describeSetDayAvailability(_ context.Context, p Params, _ string) string {
	open, _, _ := p.Bool("is_available")
	verb := "Open"
	if !open {
		verb = "Close"
	}
	if p.IsAll("day_of_week") {
		return verb + " every day of the week"
	}
	day, err := p.Day("day_of_week")
	if err != nil {
		return verb + " a day"
	}
	return verb + " " + domain.DayName(day)
}

func (ts *toolset) updateAvailabilityHours(ctx context.Context, p Params, tenantID string) domain.ToolResult {
	days, err := p.Days("day_of_week")
	if err != nil {
		return fail("%s", err.Error())
	}

	var update repository.AvailabilityUpdate
	var desc []string
	if raw := p.String("start_time"); raw != "" {
		t, err := Clock(raw)
		if err != nil {
			return fail("Invalid start time: %s", err.Error())
		}
		update.StartTime = &t
		desc = append(desc, "start "+t)
	}
	if raw := p.String("end_time"); raw != "" {
		t, err := Clock(raw)
		if err != nil {
			return fail("Invalid end time: %s", err.Error())
		}
		update.EndTime = &t
		desc = append(desc, "end "+t)
	}
	if update.StartTime == nil && update.EndTime == nil {
		return fail("No hours given: provide start_time and/or end_time.")
	}

	// Validate every window before writing any of them.
	type plan struct {
		day        int
		existing   *domain.Availability
		start, end string
	}
	plans := make([]plan, 0, len(days))
	for _, day := range days {
		existing, err := ts.store.GetAvailability(ctx, tenantID, day)
		if err != nil {
			return ts.storeFailure(UpdateAvailabilityHours, err, "")
		}
		pl := plan{day: day, existing: existing, start: defaultDayStart, end: defaultDayEnd}
		if existing != nil {
			pl.start, pl.end = truncate(existing.StartTime, 5), truncate(existing.EndTime, 5)
		}
		if update.StartTime != nil {
			pl.start = *update.StartTime
		}
		if update.EndTime != nil {
			pl.end = *update.EndTime
		}
		if pl.start >= pl.end {
			return fail("Start time %s must be before end time %s (%s).", pl.start, pl.end, domain.DayName(day))
		}
		plans = append(plans, pl)
	}

	var changed []string
	for _, pl := range plans {
		var err error
		if pl.existing != nil {
			err = ts.store.UpdateAvailability(ctx, tenantID, pl.existing.ID, update)
		} else {
			err = ts.store.CreateAvailability(ctx, &domain.Availability{
				TenantID: tenantID, DayOfWeek: pl.day, StartTime: pl.start, EndTime: pl.end, IsAvailable: true,
			})
		}
		if err != nil {
			return ts.storeFailure(UpdateAvailabilityHours, err, "")
		}
		changed = append(changed, domain.DayName(pl.day))
	}
	return ok(fmt.Sprintf("Hours updated (%s) for: %s", strings.Join(desc, ", "), strings.Join(changed, ", ")), nil)
}
