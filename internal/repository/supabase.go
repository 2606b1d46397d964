package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/supabase-community/gotrue-go/types"
	"github.com/supabase-community/postgrest-go"
	supabase "github.com/supabase-community/supabase-go"
	"go.uber.org/zap"

	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/domain"
)

// SupabaseStore implements Store against the hosted Postgres schema through PostgREST.
// It authenticates with the service role key, so tenant scoping relies entirely
// on the artisan_id predicates below.
type SupabaseStore struct {
	client     *supabase.Client
	serviceKey string
	logger     *zap.Logger
}

var _ Store = (*SupabaseStore)(nil)

// NewSupabaseStore creates a new Supabase-backed store.
func NewSupabaseStore(url, serviceKey string, logger *zap.Logger) (*SupabaseStore, error) {
	if url == "" || serviceKey == "" {
		return nil, fmt.Errorf("SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY must be set")
	}
	client, err := supabase.NewClient(url, serviceKey, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to create Supabase client: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SupabaseStore{client: client, serviceKey: serviceKey, logger: logger}, nil
}

// Close is a no-op; the PostgREST client holds no connections of its own.
func (s *SupabaseStore) Close() error { return nil }

func (s *SupabaseStore) ListAvailability(ctx context.Context, tenantID string) ([]domain.Availability, error) {
	var rows []domain.Availability
	_, err := s.client.From("availability").
		Select("*", "", false).
		Eq("artisan_id", tenantID).
		Order("day_of_week", &postgrest.OrderOpts{Ascending: true}).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("failed to list availability: %w", err)
	}
	return rows, nil
}

func (s *SupabaseStore) GetAvailability(ctx context.Context, tenantID string, day int) (*domain.Availability, error) {
	var rows []domain.Availability
	_, err := s.client.From("availability").
		Select("*", "", false).
		Eq("artisan_id", tenantID).
		Eq("day_of_week", fmt.Sprint(day)).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("failed to get availability: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (s *SupabaseStore) CreateAvailability(ctx context.Context, a *domain.Availability) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	var result []domain.Availability
	_, err := s.client.From("availability").
		Insert(a, false, "", "", "").
		ExecuteTo(&result)
	return err
}

func (s *SupabaseStore) UpdateAvailability(ctx context.Context, tenantID, id string, u AvailabilityUpdate) error {
	values := map[string]interface{}{}
	if u.StartTime != nil {
		values["start_time"] = *u.StartTime
	}
	if u.EndTime != nil {
		values["end_time"] = *u.EndTime
	}
	if u.IsAvailable != nil {
		values["is_available"] = *u.IsAvailable
	}
	if len(values) == 0 {
		return nil
	}
	return s.updateScoped("availability", tenantID, id, values)
}

// updateScoped updates one row owned by tenantID and maps an empty
// representation to ErrNotFound.
func (s *SupabaseStore) updateScoped(table, tenantID, id string, values map[string]interface{}) error {
	var result []map[string]interface{}
	_, err := s.client.From(table).
		Update(values, "representation", "").
		Eq("id", id).
		Eq("artisan_id", tenantID).
		ExecuteTo(&result)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", table, err)
	}
	if len(result) == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SupabaseStore) ListServices(ctx context.Context, tenantID string) ([]domain.Service, error) {
	var rows []domain.Service
	_, err := s.client.From("services").
		Select("*", "", false).
		Eq("artisan_id", tenantID).
		Order("name", &postgrest.OrderOpts{Ascending: true}).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	return rows, nil
}

func (s *SupabaseStore) GetService(ctx context.Context, tenantID, id string) (*domain.Service, error) {
	var rows []domain.Service
	_, err := s.client.From("services").
		Select("*", "", false).
		Eq("id", id).
		Eq("artisan_id", tenantID).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("failed to get service: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (s *SupabaseStore) CreateService(ctx context.Context, svc *domain.Service) error {
	if svc.ID == "" {
		svc.ID = uuid.NewString()
	}
	if svc.CreatedAt.IsZero() {
		svc.CreatedAt = time.Now()
	}
	var result []domain.Service
	_, err := s.client.From("services").
		Insert(svc, false, "", "", "").
		ExecuteTo(&result)
	return err
}

func (s *SupabaseStore) UpdateService(ctx context.Context, tenantID, id string, u ServiceUpdate) (*domain.Service, error) {
	values := map[string]interface{}{}
	if u.Name != nil {
		values["name"] = *u.Name
	}
	if u.Description != nil {
		values["description"] = *u.Description
	}
	if u.DurationMinutes != nil {
		values["duration_minutes"] = *u.DurationMinutes
	}
	if u.PriceHT != nil {
		values["price_ht"] = *u.PriceHT
	}
	if u.PriceTTC != nil {
		values["price_ttc"] = *u.PriceTTC
	}
	if u.Active != nil {
		values["active"] = *u.Active
	}
	if len(values) > 0 {
		if err := s.updateScoped("services", tenantID, id, values); err != nil {
			return nil, err
		}
	}
	svc, err := s.GetService(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if svc == nil {
		return nil, ErrNotFound
	}
	return svc, nil
}

func (s *SupabaseStore) SetAllServicesActive(ctx context.Context, tenantID string, active bool) (int, error) {
	var result []domain.Service
	_, err := s.client.From("services").
		Update(map[string]interface{}{"active": active}, "representation", "").
		Eq("artisan_id", tenantID).
		ExecuteTo(&result)
	if err != nil {
		return 0, fmt.Errorf("failed to toggle services: %w", err)
	}
	return len(result), nil
}

func (s *SupabaseStore) DeleteService(ctx context.Context, tenantID, id string) error {
	var result []domain.Service
	_, err := s.client.From("services").
		Delete("representation", "").
		Eq("id", id).
		Eq("artisan_id", tenantID).
		ExecuteTo(&result)
	if err != nil {
		return fmt.Errorf("failed to delete service: %w", err)
	}
	if len(result) == 0 {
		return ErrNotFound
	}

	// Drop the deleted id from the day links kept in the bio marker.
	ds, err := s.GetDayServices(ctx, tenantID)
	if err != nil {
		s.logger.Warn("failed to read day services after delete", zap.String("tenant_id", tenantID), zap.Error(err))
		return nil
	}
	changed := false
	for day, ids := range ds {
		kept := ids[:0]
		for _, sid := range ids {
			if sid != id {
				kept = append(kept, sid)
			}
		}
		if len(kept) != len(ids) {
			changed = true
		}
		ds[day] = kept
	}
	if changed {
		if err := s.SaveDayServices(ctx, tenantID, ds); err != nil {
			s.logger.Warn("failed to prune day services after delete", zap.String("tenant_id", tenantID), zap.Error(err))
		}
	}
	return nil
}

func (s *SupabaseStore) rawBio(tenantID string) (string, error) {
	var rows []struct {
		Bio *string `json:"bio"`
	}
	_, err := s.client.From("profiles_artisan").
		Select("bio", "", false).
		Eq("id", tenantID).
		ExecuteTo(&rows)
	if err != nil {
		return "", fmt.Errorf("failed to read profile bio: %w", err)
	}
	if len(rows) == 0 {
		return "", ErrNotFound
	}
	if rows[0].Bio == nil {
		return "", nil
	}
	return *rows[0].Bio, nil
}

func (s *SupabaseStore) writeBio(tenantID, bio string) error {
	var result []map[string]interface{}
	_, err := s.client.From("profiles_artisan").
		Update(map[string]interface{}{"bio": bio}, "representation", "").
		Eq("id", tenantID).
		ExecuteTo(&result)
	if err != nil {
		return fmt.Errorf("failed to write profile bio: %w", err)
	}
	if len(result) == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SupabaseStore) GetDayServices(ctx context.Context, tenantID string) (domain.DayServices, error) {
	bio, err := s.rawBio(tenantID)
	if err != nil {
		return nil, err
	}
	_, ds, err := splitDayMarker(bio)
	if err != nil {
		s.logger.Warn("corrupted day services marker, starting fresh", zap.String("tenant_id", tenantID), zap.Error(err))
	}
	return ds, nil
}

func (s *SupabaseStore) SaveDayServices(ctx context.Context, tenantID string, ds domain.DayServices) error {
	bio, err := s.rawBio(tenantID)
	if err != nil {
		return err
	}
	clean, _, _ := splitDayMarker(bio)
	return s.writeBio(tenantID, joinDayMarker(clean, ds))
}

// bookingRow is a bookings row with the embedded service name.
type bookingRow struct {
	domain.Booking
	Services *struct {
		Name string `json:"name"`
	} `json:"services"`
}

func (r bookingRow) toDomain() domain.Booking {
	b := r.Booking
	if r.Services != nil {
		b.ServiceName = r.Services.Name
	}
	if len(b.Time) > 5 {
		b.Time = b.Time[:5]
	}
	return b
}

func (s *SupabaseStore) ListBookings(ctx context.Context, tenantID string, f BookingFilter) ([]domain.Booking, error) {
	query := s.client.From("bookings").
		Select("*, services(name)", "", false).
		Eq("artisan_id", tenantID)

	if f.Status != "" {
		query = query.Eq("status", string(f.Status))
	}
	if f.ExcludeCancelled {
		query = query.Neq("status", string(domain.BookingStatusCancelled))
	}
	if f.On != "" {
		query = query.Eq("booking_date", f.On)
	}
	if f.From != "" {
		query = query.Gte("booking_date", f.From)
	}
	if f.Before != "" {
		query = query.Lt("booking_date", f.Before)
	}
	if f.ClientID != "" {
		query = query.Eq("client_id", f.ClientID)
	}
	query = query.
		Order("booking_date", &postgrest.OrderOpts{Ascending: !f.Descending}).
		Order("booking_time", &postgrest.OrderOpts{Ascending: !f.Descending})
	if f.Limit > 0 {
		query = query.Limit(f.Limit, "")
	}

	var rows []bookingRow
	if _, err := query.ExecuteTo(&rows); err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	out := make([]domain.Booking, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *SupabaseStore) GetBooking(ctx context.Context, tenantID, id string) (*domain.Booking, error) {
	var rows []bookingRow
	_, err := s.client.From("bookings").
		Select("*, services(name)", "", false).
		Eq("id", id).
		Eq("artisan_id", tenantID).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	b := rows[0].toDomain()
	return &b, nil
}

func (s *SupabaseStore) CreateBooking(ctx context.Context, b *domain.Booking) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.Status == "" {
		b.Status = domain.BookingStatusPending
	}
	values := map[string]interface{}{
		"id":               b.ID,
		"artisan_id":       b.TenantID,
		"booking_date":     b.Date,
		"booking_time":     b.Time,
		"duration_minutes": b.DurationMinutes,
		"address":          b.Address,
		"notes":            b.Notes,
		"status":           string(b.Status),
		"price_ht":         b.PriceHT,
		"price_ttc":        b.PriceTTC,
	}
	if b.ServiceID != "" {
		values["service_id"] = b.ServiceID
	}
	if b.ClientID != "" {
		values["client_id"] = b.ClientID
	}
	if b.ClientName != "" {
		values["client_name"] = b.ClientName
	}
	var result []map[string]interface{}
	_, err := s.client.From("bookings").
		Insert(values, false, "", "", "").
		ExecuteTo(&result)
	return err
}

func (s *SupabaseStore) UpdateBooking(ctx context.Context, tenantID, id string, u BookingUpdate) error {
	values := map[string]interface{}{}
	if u.Status != nil {
		values["status"] = string(*u.Status)
	}
	if u.Date != nil {
		values["booking_date"] = *u.Date
	}
	if u.Time != nil {
		values["booking_time"] = *u.Time
	}
	if u.ConfirmedAt != nil {
		values["confirmed_at"] = u.ConfirmedAt.UTC().Format(time.RFC3339)
	}
	if u.CancelledAt != nil {
		values["cancelled_at"] = u.CancelledAt.UTC().Format(time.RFC3339)
	}
	if len(values) == 0 {
		return nil
	}
	return s.updateScoped("bookings", tenantID, id, values)
}

// ListClients aggregates client bookings and resolves each client through the auth admin API.
func (s *SupabaseStore) ListClients(ctx context.Context, tenantID string) ([]domain.ClientSummary, error) {
	var rows []struct {
		ClientID    string  `json:"client_id"`
		BookingDate string  `json:"booking_date"`
		Status      string  `json:"status"`
		PriceTTC    float64 `json:"price_ttc"`
	}
	_, err := s.client.From("bookings").
		Select("client_id, booking_date, status, price_ttc", "", false).
		Eq("artisan_id", tenantID).
		Not("client_id", "is", "null").
		Order("booking_date", &postgrest.OrderOpts{Ascending: false}).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("failed to list client bookings: %w", err)
	}

	var order []string
	byClient := make(map[string]*domain.ClientSummary)
	for _, r := range rows {
		if r.ClientID == "" {
			continue
		}
		c, ok := byClient[r.ClientID]
		if !ok {
			c = &domain.ClientSummary{ID: r.ClientID, LastBooking: r.BookingDate}
			byClient[r.ClientID] = c
			order = append(order, r.ClientID)
		}
		c.BookingsCount++
		if r.Status == string(domain.BookingStatusCompleted) {
			c.TotalRevenue += r.PriceTTC
		}
	}

	out := make([]domain.ClientSummary, 0, len(order))
	for _, id := range order {
		c := byClient[id]
		if !s.resolveClient(c) {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

// resolveClient fills name and contact fields from the auth user record.
func (s *SupabaseStore) resolveClient(c *domain.ClientSummary) bool {
	uid, err := uuid.Parse(c.ID)
	if err != nil {
		return false
	}
	resp, err := s.client.Auth.WithToken(s.serviceKey).AdminGetUser(types.AdminGetUserRequest{UserID: uid})
	if err != nil {
		s.logger.Debug("failed to resolve client", zap.String("client_id", c.ID), zap.Error(err))
		return false
	}
	meta := resp.User.UserMetadata
	c.Email = resp.User.Email
	c.Name = metaString(meta, "full_name")
	if c.Name == "" {
		c.Name = metaString(meta, "name")
	}
	if c.Name == "" {
		c.Name, _, _ = strings.Cut(c.Email, "@")
	}
	if c.Name == "" {
		c.Name = "Client"
	}
	c.Phone = metaString(meta, "phone")
	c.Address = metaString(meta, "address")
	return true
}

func metaString(meta map[string]interface{}, key string) string {
	if v, ok := meta[key].(string); ok {
		return v
	}
	return ""
}

func (s *SupabaseStore) ListBookingMessages(ctx context.Context, tenantID, bookingID string, limit int) ([]domain.BookingMessage, error) {
	if err := s.requireBooking(ctx, tenantID, bookingID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	var rows []domain.BookingMessage
	_, err := s.client.From("booking_messages").
		Select("*", "", false).
		Eq("booking_id", bookingID).
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		Limit(limit, "").
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("failed to list booking messages: %w", err)
	}
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return rows, nil
}

func (s *SupabaseStore) CountBookingMessages(ctx context.Context, tenantID, bookingID string) (int, error) {
	if err := s.requireBooking(ctx, tenantID, bookingID); err != nil {
		return 0, err
	}
	var rows []struct {
		ID string `json:"id"`
	}
	_, err := s.client.From("booking_messages").
		Select("id", "", false).
		Eq("booking_id", bookingID).
		ExecuteTo(&rows)
	if err != nil {
		return 0, fmt.Errorf("failed to count booking messages: %w", err)
	}
	return len(rows), nil
}

func (s *SupabaseStore) CreateBookingMessage(ctx context.Context, tenantID string, m *domain.BookingMessage) error {
	if err := s.requireBooking(ctx, tenantID, m.BookingID); err != nil {
		return err
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	if m.Type == "" {
		m.Type = "text"
	}
	var result []domain.BookingMessage
	_, err := s.client.From("booking_messages").
		Insert(m, false, "", "", "").
		ExecuteTo(&result)
	return err
}

func (s *SupabaseStore) requireBooking(ctx context.Context, tenantID, bookingID string) error {
	b, err := s.GetBooking(ctx, tenantID, bookingID)
	if err != nil {
		return err
	}
	if b == nil {
		return ErrNotFound
	}
	return nil
}

func (s *SupabaseStore) GetProfile(ctx context.Context, tenantID string) (*domain.Profile, error) {
	var rows []domain.Profile
	_, err := s.client.From("profiles_artisan").
		Select("*", "", false).
		Eq("id", tenantID).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	p := rows[0]
	p.Bio, _, _ = splitDayMarker(p.Bio)
	return &p, nil
}

func (s *SupabaseStore) UpdateProfile(ctx context.Context, tenantID string, u ProfileUpdate) error {
	values := map[string]interface{}{}
	if u.CompanyName != nil {
		values["company_name"] = *u.CompanyName
	}
	if u.ZoneRadiusKm != nil {
		values["zone_radius_km"] = *u.ZoneRadiusKm
	}
	if u.AutoReplyMessage != nil {
		values["auto_reply_message"] = *u.AutoReplyMessage
	}
	if u.AutoBlockDurationMinutes != nil {
		values["auto_block_duration_minutes"] = *u.AutoBlockDurationMinutes
	}
	if u.Bio != nil {
		// Keep the day/service marker attached to the new visible bio.
		current, err := s.rawBio(tenantID)
		if err != nil {
			return err
		}
		_, ds, _ := splitDayMarker(current)
		values["bio"] = joinDayMarker(*u.Bio, ds)
	}
	if len(values) == 0 {
		return nil
	}
	var result []map[string]interface{}
	_, err := s.client.From("profiles_artisan").
		Update(values, "representation", "").
		Eq("id", tenantID).
		ExecuteTo(&result)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if len(result) == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SupabaseStore) TenantOwnedBy(ctx context.Context, tenantID, userID string) (bool, error) {
	var rows []struct {
		ID string `json:"id"`
	}
	_, err := s.client.From("profiles_artisan").
		Select("id", "", false).
		Eq("id", tenantID).
		Eq("user_id", userID).
		ExecuteTo(&rows)
	if err != nil {
		return false, fmt.Errorf("failed to check tenant ownership: %w", err)
	}
	return len(rows) > 0, nil
}
