package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/domain"
	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/repository"
)

const (
	// socialContributionRate applies to micro-enterprise service revenue.
	socialContributionRate = 0.212
	microEnterpriseCeiling = 77700.0
)

// RevenueSummary is the data payload of get_revenue_summary.
type RevenueSummary struct {
	Period     string  `json:"period"`
	From       string  `json:"from"`
	Before     string  `json:"before"`
	RevenueTTC float64 `json:"ca_ttc"`
	RevenueHT  float64 `json:"ca_ht"`
	VAT        float64 `json:"tva"`
	Count      int     `json:"count"`
}

// QuarterlyData is the data payload of get_quarterly_data.
type QuarterlyData struct {
	Year          int        `json:"year"`
	QuarterHT     [4]float64 `json:"quarter_ht"`
	AnnualHT      float64    `json:"annual_ht"`
	Contributions float64    `json:"contributions"`
	UnderCeiling  bool       `json:"under_ceiling"`
}

func (ts *toolset) registerAccounting(r *Registry) {
	r.MustRegister(Definition{
		Name:        GetRevenueSummary,
		Description: "Revenue summary (excl. VAT, incl. VAT, VAT, completed bookings) for a month, quarter or year",
		Params:      `{ period?: "month"|"quarter"|"year", year?: number, month?: 1-12, quarter?: 1-4 }`,
		Kind:        domain.ToolKindRead,
		Execute:     ts.getRevenueSummary,
	})
	r.MustRegister(Definition{
		Name:        GetQuarterlyData,
		Description: "Quarterly revenue excl. VAT and social contributions for the URSSAF declaration",
		Params:      "{ year?: number }",
		Kind:        domain.ToolKindRead,
		Execute:     ts.getQuarterlyData,
	})
}

// priceHT falls back to deriving the amount excluding VAT from the TTC price.
func priceHT(b domain.Booking) float64 {
	if b.PriceHT > 0 {
		return b.PriceHT
	}
	return b.PriceTTC / vatRate
}

func (ts *toolset) completedBetween(ctx context.Context, tenantID, from, before string) ([]domain.Booking, error) {
	return ts.store.ListBookings(ctx, tenantID, repository.BookingFilter{
		Status: domain.BookingStatusCompleted,
		From:   from,
		Before: before,
	})
}

func (ts *toolset) yearParam(p Params) (int, error) {
	year, present, err := p.Int("year")
	if err != nil {
		return 0, err
	}
	if !present || year == 0 {
		return ts.today().Year(), nil
	}
	if year < 2000 || year > 2100 {
		return 0, fmt.Errorf("invalid year %d", year)
	}
	return year, nil
}

func (ts *toolset) getRevenueSummary(ctx context.Context, p Params, tenantID string) domain.ToolResult {
	year, err := ts.yearParam(p)
	if err != nil {
		return fail("%s", err.Error())
	}
	now := ts.today()

	var from, before, label string
	period := strings.ToLower(p.String("period"))
	switch period {
	case "", "month":
		period = "month"
		month, present, err := p.Int("month")
		if err != nil {
			return fail("%s", err.Error())
		}
		if !present {
			month = int(now.Month())
		}
		if month < 1 || month > 12 {
			return fail("Invalid month %d: expected 1 to 12.", month)
		}
		from = fmt.Sprintf("%d-%02d-01", year, month)
		if month == 12 {
			before = fmt.Sprintf("%d-01-01", year+1)
		} else {
			before = fmt.Sprintf("%d-%02d-01", year, month+1)
		}
		label = fmt.Sprintf("%d-%02d", year, month)
	case "quarter":
		quarter, present, err := p.Int("quarter")
		if err != nil {
			return fail("%s", err.Error())
		}
		if !present {
			quarter = (int(now.Month())-1)/3 + 1
		}
		if quarter < 1 || quarter > 4 {
			return fail("Invalid quarter %d: expected 1 to 4.", quarter)
		}
		startMonth := (quarter-1)*3 + 1
		from = fmt.Sprintf("%d-%02d-01", year, startMonth)
		if quarter == 4 {
			before = fmt.Sprintf("%d-01-01", year+1)
		} else {
			before = fmt.Sprintf("%d-%02d-01", year, startMonth+3)
		}
		label = fmt.Sprintf("Q%d %d", quarter, year)
	case "year":
		from = fmt.Sprintf("%d-01-01", year)
		before = fmt.Sprintf("%d-01-01", year+1)
		label = fmt.Sprintf("year %d", year)
	default:
		return fail("Invalid period %q: expected month, quarter or year.", period)
	}

	bookings, err := ts.completedBetween(ctx, tenantID, from, before)
	if err != nil {
		return ts.storeFailure(GetRevenueSummary, err, "")
	}

	var ttc, ht float64
	for _, b := range bookings {
		ttc += b.PriceTTC
		ht += priceHT(b)
	}
	summary := RevenueSummary{
		Period:     period,
		From:       from,
		Before:     before,
		RevenueTTC: round2(ttc),
		RevenueHT:  round2(ht),
		VAT:        round2(ttc - ht),
		Count:      len(bookings),
	}
	if summary.Count == 0 {
		return ok(fmt.Sprintf("No completed bookings for %s.", label), summary)
	}

	detail := strings.Join([]string{
		fmt.Sprintf("Revenue incl. VAT (%s): %.2f EUR", label, summary.RevenueTTC),
		fmt.Sprintf("Revenue excl. VAT: %.2f EUR", summary.RevenueHT),
		fmt.Sprintf("VAT collected: %.2f EUR", summary.VAT),
		fmt.Sprintf("%d completed booking(s)", summary.Count),
	}, "\n")
	return ok(detail, summary)
}

func (ts *toolset) getQuarterlyData(ctx context.Context, p Params, tenantID string) domain.ToolResult {
	year, err := ts.yearParam(p)
	if err != nil {
		return fail("%s", err.Error())
	}
	bookings, err := ts.completedBetween(ctx, tenantID, fmt.Sprintf("%d-01-01", year), fmt.Sprintf("%d-01-01", year+1))
	if err != nil {
		return ts.storeFailure(GetQuarterlyData, err, "")
	}

	data := QuarterlyData{Year: year}
	for _, b := range bookings {
		d, err := time.Parse("2006-01-02", b.Date)
		if err != nil {
			continue
		}
		data.QuarterHT[(int(d.Month())-1)/3] += priceHT(b)
	}
	for i := range data.QuarterHT {
		data.QuarterHT[i] = round2(data.QuarterHT[i])
		data.AnnualHT += data.QuarterHT[i]
	}
	data.AnnualHT = round2(data.AnnualHT)
	data.Contributions = round2(data.AnnualHT * socialContributionRate)
	data.UnderCeiling = data.AnnualHT < microEnterpriseCeiling

	labels := [4]string{"Q1 (Jan-Mar)", "Q2 (Apr-Jun)", "Q3 (Jul-Sep)", "Q4 (Oct-Dec)"}
	lines := []string{fmt.Sprintf("URSSAF declaration %d", year)}
	for i, label := range labels {
		lines = append(lines, fmt.Sprintf("%s: %.2f EUR excl. VAT => contribution %.2f EUR",
			label, data.QuarterHT[i], data.QuarterHT[i]*socialContributionRate))
	}
	lines = append(lines,
		"",
		fmt.Sprintf("Annual total excl. VAT: %.2f EUR", data.AnnualHT),
		fmt.Sprintf("Social contributions (21.2%%): %.2f EUR", data.Contributions),
	)
	if data.UnderCeiling {
		lines = append(lines, "Under the micro-enterprise ceiling (77,700 EUR)")
	} else {
		lines = append(lines, "Above the micro-enterprise ceiling!")
	}
	return ok(strings.Join(lines, "\n"), data)
}
