package tools

// Tool names of the builtin catalog.
const (
	ListAvailability        = "list_availability"
	SetDayAvailability      = "set_day_availability"
	UpdateAvailabilityHours = "update_availability_hours"

	ListServices        = "list_services"
	ToggleServiceActive = "toggle_service_active"
	CreateService       = "create_service"
	UpdateService       = "update_service"
	DeleteService       = "delete_service"
	LinkServicesToDays  = "link_services_to_days"

	ListBookings      = "list_bookings"
	GetBookingDetail  = "get_booking_detail"
	ConfirmBooking    = "confirm_booking"
	CancelBooking     = "cancel_booking"
	RescheduleBooking = "reschedule_booking"
	CreateBooking     = "create_booking"

	ListClients      = "list_clients"
	GetClientDetails = "get_client_details"

	ListBookingMessages = "list_booking_messages"
	SendBookingMessage  = "send_booking_message"

	UpdateProfile  = "update_profile"
	UpdateSettings = "update_settings"
	GetCompanyInfo = "get_company_info"

	GetRevenueSummary = "get_revenue_summary"
	GetQuarterlyData  = "get_quarterly_data"

	NavigateTo    = "navigate_to"
	CreateQuote   = "create_quote"
	CreateInvoice = "create_invoice"
)
