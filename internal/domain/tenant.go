package domain

import "time"

// DayNames indexes weekday names by day_of_week (0 = Sunday).
var DayNames = [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// DayName returns the weekday name for day, or "?" when out of range.
func DayName(day int) string {
	if day < 0 || day > 6 {
		return "?"
	}
	return DayNames[day]
}

// Service is a bookable service ("motif") offered by a tenant.
type Service struct {
	ID              string    `json:"id"`
	TenantID        string    `json:"artisan_id"`
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	DurationMinutes int       `json:"duration_minutes"`
	PriceHT         float64   `json:"price_ht"`
	PriceTTC        float64   `json:"price_ttc"`
	Active          bool      `json:"active"`
	CreatedAt       time.Time `json:"created_at"`
}

// Availability is a tenant's opening window for one weekday.
type Availability struct {
	ID          string `json:"id"`
	TenantID    string `json:"artisan_id"`
	DayOfWeek   int    `json:"day_of_week"`
	StartTime   string `json:"start_time"` // HH:MM
	EndTime     string `json:"end_time"`   // HH:MM
	IsAvailable bool   `json:"is_available"`
}

// DayServices links weekdays to the service ids offered that day.
type DayServices map[int][]string

// Booking is an appointment ("RDV") in a tenant's calendar.
type Booking struct {
	ID              string        `json:"id"`
	TenantID        string        `json:"artisan_id"`
	ServiceID       string        `json:"service_id,omitempty"`
	ServiceName     string        `json:"service_name,omitempty"`
	ClientID        string        `json:"client_id,omitempty"`
	ClientName      string        `json:"client_name,omitempty"`
	Date            string        `json:"booking_date"` // YYYY-MM-DD
	Time            string        `json:"booking_time"` // HH:MM
	DurationMinutes int           `json:"duration_minutes"`
	Address         string        `json:"address,omitempty"`
	Notes           string        `json:"notes,omitempty"`
	Status          BookingStatus `json:"status"`
	PriceHT         float64       `json:"price_ht"`
	PriceTTC        float64       `json:"price_ttc"`
	ConfirmedAt     *time.Time    `json:"confirmed_at,omitempty"`
	CancelledAt     *time.Time    `json:"cancelled_at,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
}

// ClientSummary aggregates a client's history with one tenant.
type ClientSummary struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Email         string  `json:"email,omitempty"`
	Phone         string  `json:"phone,omitempty"`
	Address       string  `json:"address,omitempty"`
	BookingsCount int     `json:"bookings_count"`
	LastBooking   string  `json:"last_booking,omitempty"`
	TotalRevenue  float64 `json:"total_revenue"`
}

// BookingMessage is one message in a booking conversation.
type BookingMessage struct {
	ID         string    `json:"id"`
	BookingID  string    `json:"booking_id"`
	SenderID   string    `json:"sender_id"`
	SenderRole string    `json:"sender_role"`
	SenderName string    `json:"sender_name"`
	Content    string    `json:"content"`
	Type       string    `json:"type"`
	CreatedAt  time.Time `json:"created_at"`
}

// Profile is the tenant's (artisan's) profile and company record.
type Profile struct {
	ID                       string  `json:"id"`
	UserID                   string  `json:"user_id"`
	CompanyName              string  `json:"company_name"`
	Bio                      string  `json:"bio,omitempty"`
	ZoneRadiusKm             float64 `json:"zone_radius_km,omitempty"`
	AutoReplyMessage         string  `json:"auto_reply_message,omitempty"`
	AutoBlockDurationMinutes int     `json:"auto_block_duration_minutes,omitempty"`
	Siret                    string  `json:"siret,omitempty"`
	Siren                    string  `json:"siren,omitempty"`
	LegalForm                string  `json:"legal_form,omitempty"`
	NafCode                  string  `json:"naf_code,omitempty"`
	NafLabel                 string  `json:"naf_label,omitempty"`
	CompanyAddress           string  `json:"company_address,omitempty"`
	CompanyCity              string  `json:"company_city,omitempty"`
	CompanyPostalCode        string  `json:"company_postal_code,omitempty"`
	Phone                    string  `json:"phone,omitempty"`
	Email                    string  `json:"email,omitempty"`
}

// TenantContext is the operational snapshot rendered into the assistant prompt.
type TenantContext struct {
	TenantID       string          `json:"tenant_id"`
	Now            time.Time       `json:"now"`
	Profile        *Profile        `json:"profile,omitempty"`
	Services       []Service       `json:"services"`
	Availability   []Availability  `json:"availability"`
	DayServices    DayServices     `json:"day_services,omitempty"`
	RecentBookings []Booking       `json:"recent_bookings"`
	Clients        []ClientSummary `json:"clients"`
}
