package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/domain"
	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/repository"
)

func (ts *toolset) registerProfile(r *Registry) {
	r.MustRegister(Definition{
		Name:        UpdateProfile,
		Description: "Change the public profile (company name, bio, service radius in km)",
		Params:      "{ company_name?: string, bio?: string, zone_radius_km?: number }",
		Kind:        domain.ToolKindWrite,
		Execute:     ts.updateProfile,
	})
	r.MustRegister(Definition{
		Name:        UpdateSettings,
		Description: "Change advanced settings (automatic reply message, automatic blocking duration)",
		Params:      "{ auto_reply_message?: string, auto_block_duration_minutes?: number }",
		Kind:        domain.ToolKindWrite,
		Execute:     ts.updateSettings,
	})
	r.MustRegister(Definition{
		Name:        GetCompanyInfo,
		Description: "Get the company's legal information (SIRET, legal form, NAF code, address)",
		Params:      "(none)",
		Kind:        domain.ToolKindRead,
		Execute:     ts.getCompanyInfo,
	})
}

func (ts *toolset) updateProfile(ctx context.Context, p Params, tenantID string) domain.ToolResult {
	var u repository.ProfileUpdate
	var fields []string
	if p.Has("company_name") {
		name := p.String("company_name")
		if name == "" {
			return fail("Company name cannot be empty.")
		}
		u.CompanyName = &name
		fields = append(fields, "company_name")
	}
	if p.Has("bio") {
		u.Bio = p.OptString("bio")
		fields = append(fields, "bio")
	}
	if v, present, err := p.Float("zone_radius_km"); err != nil {
		return fail("%s", err.Error())
	} else if present {
		if v < 0 {
			return fail("zone_radius_km cannot be negative.")
		}
		u.ZoneRadiusKm = &v
		fields = append(fields, "zone_radius_km")
	}
	if u.Empty() {
		return fail("Nothing to change.")
	}
	if err := ts.store.UpdateProfile(ctx, tenantID, u); err != nil {
		return ts.storeFailure(UpdateProfile, err, "Profile not found.")
	}
	return ok(fmt.Sprintf("Profile updated (%s)", strings.Join(fields, ", ")), nil)
}

func (ts *toolset) updateSettings(ctx context.Context, p Params, tenantID string) domain.ToolResult {
	var u repository.ProfileUpdate
	var fields []string
	if p.Has("auto_reply_message") {
		u.AutoReplyMessage = p.OptString("auto_reply_message")
		fields = append(fields, "auto_reply_message")
	}
	if v, present, err := p.Int("auto_block_duration_minutes"); err != nil {
		return fail("%s", err.Error())
	} else if present {
		if v < 0 {
			return fail("auto_block_duration_minutes cannot be negative.")
		}
		u.AutoBlockDurationMinutes = &v
		fields = append(fields, "auto_block_duration_minutes")
	}
	if u.Empty() {
		return fail("No setting to change.")
	}
	if err := ts.store.UpdateProfile(ctx, tenantID, u); err != nil {
		return ts.storeFailure(UpdateSettings, err, "Profile not found.")
	}
	return ok("Settings updated: "+strings.Join(fields, ", "), nil)
}

func (ts *toolset) getCompanyInfo(ctx context.Context, _ Params, tenantID string) domain.ToolResult {
	profile, err := ts.store.GetProfile(ctx, tenantID)
	if err != nil {
		return ts.storeFailure(GetCompanyInfo, err, "")
	}
	if profile == nil {
		return fail("Profile not found.")
	}
	if profile.Siret == "" {
		return ok("No SIRET registered yet. Add it from the settings page.", profile)
	}

	company := profile.CompanyName
	if company == "" {
		company = "-"
	}
	lines := []string{"Company: " + company, "SIRET: " + profile.Siret}
	add := func(label, value string) {
		if value != "" {
			lines = append(lines, label+": "+value)
		}
	}
	add("SIREN", profile.Siren)
	add("Legal form", profile.LegalForm)
	if profile.NafCode != "" {
		lines = append(lines, fmt.Sprintf("NAF code: %s %s", profile.NafCode, profile.NafLabel))
	}
	add("Address", profile.CompanyAddress)
	if profile.CompanyCity != "" {
		lines = append(lines, strings.TrimSpace("City: "+profile.CompanyPostalCode+" "+profile.CompanyCity))
	}
	add("Phone", profile.Phone)
	add("Email", profile.Email)
	return ok(strings.Join(lines, "\n"), profile)
}
