package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/domain"
)

// SQLiteStore implements Store using SQLite. It backs local development and tests.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLite store.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// For in-memory SQLite, multiple connections create separate databases.
	// Keep a single connection to avoid schema/data disappearing across goroutines.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// migrate runs database migrations.
func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS profiles_artisan (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			company_name TEXT NOT NULL DEFAULT '',
			bio TEXT NOT NULL DEFAULT '',
			zone_radius_km REAL NOT NULL DEFAULT 0,
			auto_reply_message TEXT NOT NULL DEFAULT '',
			auto_block_duration_minutes INTEGER NOT NULL DEFAULT 0,
			siret TEXT NOT NULL DEFAULT '',
			siren TEXT NOT NULL DEFAULT '',
			legal_form TEXT NOT NULL DEFAULT '',
			naf_code TEXT NOT NULL DEFAULT '',
			naf_label TEXT NOT NULL DEFAULT '',
			company_address TEXT NOT NULL DEFAULT '',
			company_city TEXT NOT NULL DEFAULT '',
			company_postal_code TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_profiles_user ON profiles_artisan(user_id)`,
		`CREATE TABLE IF NOT EXISTS services (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			duration_minutes INTEGER NOT NULL DEFAULT 60,
			price_ht REAL NOT NULL DEFAULT 0,
			price_ttc REAL NOT NULL DEFAULT 0,
			active INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (tenant_id) REFERENCES profiles_artisan(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_services_tenant ON services(tenant_id, name)`,
		`CREATE TABLE IF NOT EXISTS availability (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			day_of_week INTEGER NOT NULL,
			start_time TEXT NOT NULL DEFAULT '08:00',
			end_time TEXT NOT NULL DEFAULT '17:00',
			is_available INTEGER NOT NULL DEFAULT 1,
			UNIQUE (tenant_id, day_of_week),
			FOREIGN KEY (tenant_id) REFERENCES profiles_artisan(id)
		)`,
		`CREATE TABLE IF NOT EXISTS day_services (
			tenant_id TEXT NOT NULL,
			day_of_week INTEGER NOT NULL,
			service_id TEXT NOT NULL,
			position INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (tenant_id, day_of_week, service_id),
			FOREIGN KEY (service_id) REFERENCES services(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS clients (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL DEFAULT '',
			address TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS bookings (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			service_id TEXT,
			client_id TEXT,
			client_name TEXT NOT NULL DEFAULT '',
			booking_date TEXT NOT NULL,
			booking_time TEXT NOT NULL,
			duration_minutes INTEGER NOT NULL DEFAULT 60,
			address TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'pending',
			price_ht REAL NOT NULL DEFAULT 0,
			price_ttc REAL NOT NULL DEFAULT 0,
			confirmed_at DATETIME,
			cancelled_at DATETIME,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (tenant_id) REFERENCES profiles_artisan(id),
			FOREIGN KEY (service_id) REFERENCES services(id) ON DELETE SET NULL,
			FOREIGN KEY (client_id) REFERENCES clients(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_tenant_date ON bookings(tenant_id, booking_date)`,
		`CREATE TABLE IF NOT EXISTS booking_messages (
			id TEXT PRIMARY KEY,
			booking_id TEXT NOT NULL,
			sender_id TEXT NOT NULL,
			sender_role TEXT NOT NULL,
			sender_name TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL,
			type TEXT NOT NULL DEFAULT 'text',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (booking_id) REFERENCES bookings(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_booking_messages_booking ON booking_messages(booking_id, created_at)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// setClause accumulates "col = ?" fragments for partial updates.
type setClause struct {
	cols []string
	args []interface{}
}

func (c *setClause) add(col string, v interface{}) {
	c.cols = append(c.cols, col+" = ?")
	c.args = append(c.args, v)
}

func (c *setClause) empty() bool { return len(c.cols) == 0 }

// exec runs "UPDATE table SET ... WHERE id = ? AND tenant_id = ?" and maps
// zero affected rows to ErrNotFound.
func (s *SQLiteStore) updateScoped(ctx context.Context, table, tenantID, id string, c *setClause) error {
	if c.empty() {
		return nil
	}
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ? AND tenant_id = ?", table, strings.Join(c.cols, ", "))
	args := append(c.args, id, tenantID)
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateProfile inserts a tenant profile. Used for seeding.
func (s *SQLiteStore) CreateProfile(ctx context.Context, p *domain.Profile) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO profiles_artisan (id, user_id, company_name, bio, zone_radius_km, auto_reply_message,
			auto_block_duration_minutes, siret, siren, legal_form, naf_code, naf_label, company_address,
			company_city, company_postal_code, phone, email)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.CompanyName, p.Bio, p.ZoneRadiusKm, p.AutoReplyMessage, p.AutoBlockDurationMinutes,
		p.Siret, p.Siren, p.LegalForm, p.NafCode, p.NafLabel, p.CompanyAddress, p.CompanyCity,
		p.CompanyPostalCode, p.Phone, p.Email)
	return err
}

// CreateClient inserts a client record. Used for seeding.
func (s *SQLiteStore) CreateClient(ctx context.Context, c *domain.ClientSummary) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO clients (id, name, email, phone, address) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Email, c.Phone, c.Address)
	return err
}

// ListAvailability lists the tenant's weekday windows ordered by day.
func (s *SQLiteStore) ListAvailability(ctx context.Context, tenantID string) ([]domain.Availability, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, tenant_id, day_of_week, start_time, end_time, is_available
		FROM availability WHERE tenant_id = ? ORDER BY day_of_week`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Availability
	for rows.Next() {
		var a domain.Availability
		if err := rows.Scan(&a.ID, &a.TenantID, &a.DayOfWeek, &a.StartTime, &a.EndTime, &a.IsAvailable); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// GetAvailability returns the window for one weekday, or nil.
func (s *SQLiteStore) GetAvailability(ctx context.Context, tenantID string, day int) (*domain.Availability, error) {
	var a domain.Availability
	err := s.db.QueryRowContext(ctx,
		`SELECT id, tenant_id, day_of_week, start_time, end_time, is_available
		FROM availability WHERE tenant_id = ? AND day_of_week = ?`, tenantID, day).
		Scan(&a.ID, &a.TenantID, &a.DayOfWeek, &a.StartTime, &a.EndTime, &a.IsAvailable)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateAvailability inserts a weekday window.
func (s *SQLiteStore) CreateAvailability(ctx context.Context, a *domain.Availability) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO availability (id, tenant_id, day_of_week, start_time, end_time, is_available)
		VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.TenantID, a.DayOfWeek, a.StartTime, a.EndTime, a.IsAvailable)
	return err
}

// UpdateAvailability changes a weekday window.
func (s *SQLiteStore) UpdateAvailability(ctx context.Context, tenantID, id string, u AvailabilityUpdate) error {
	c := &setClause{}
	if u.StartTime != nil {
		c.add("start_time", *u.StartTime)
	}
	if u.EndTime != nil {
		c.add("end_time", *u.EndTime)
	}
	if u.IsAvailable != nil {
		c.add("is_available", *u.IsAvailable)
	}
	return s.updateScoped(ctx, "availability", tenantID, id, c)
}

const serviceColumns = `id, tenant_id, name, description, duration_minutes, price_ht, price_ttc, active, created_at`

func scanService(sc interface{ Scan(...interface{}) error }) (*domain.Service, error) {
	var svc domain.Service
	if err := sc.Scan(&svc.ID, &svc.TenantID, &svc.Name, &svc.Description, &svc.DurationMinutes,
		&svc.PriceHT, &svc.PriceTTC, &svc.Active, &svc.CreatedAt); err != nil {
		return nil, err
	}
	return &svc, nil
}

// ListServices lists the tenant's services ordered by name.
func (s *SQLiteStore) ListServices(ctx context.Context, tenantID string) ([]domain.Service, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+serviceColumns+` FROM services WHERE tenant_id = ? ORDER BY name`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Service
	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *svc)
	}
	return out, rows.Err()
}

// GetService returns one of the tenant's services, or nil.
func (s *SQLiteStore) GetService(ctx context.Context, tenantID, id string) (*domain.Service, error) {
	svc, err := scanService(s.db.QueryRowContext(ctx,
		`SELECT `+serviceColumns+` FROM services WHERE id = ? AND tenant_id = ?`, id, tenantID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return svc, nil
}

// CreateService inserts a service.
func (s *SQLiteStore) CreateService(ctx context.Context, svc *domain.Service) error {
	if svc.ID == "" {
		svc.ID = uuid.NewString()
	}
	if svc.CreatedAt.IsZero() {
		svc.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO services (`+serviceColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		svc.ID, svc.TenantID, svc.Name, svc.Description, svc.DurationMinutes,
		svc.PriceHT, svc.PriceTTC, svc.Active, svc.CreatedAt)
	return err
}

// UpdateService changes a service and returns its new state.
func (s *SQLiteStore) UpdateService(ctx context.Context, tenantID, id string, u ServiceUpdate) (*domain.Service, error) {
	c := &setClause{}
	if u.Name != nil {
		c.add("name", *u.Name)
	}
	if u.Description != nil {
		c.add("description", *u.Description)
	}
	if u.DurationMinutes != nil {
		c.add("duration_minutes", *u.DurationMinutes)
	}
	if u.PriceHT != nil {
		c.add("price_ht", *u.PriceHT)
	}
	if u.PriceTTC != nil {
		c.add("price_ttc", *u.PriceTTC)
	}
	if u.Active != nil {
		c.add("active", *u.Active)
	}
	if err := s.updateScoped(ctx, "services", tenantID, id, c); err != nil {
		return nil, err
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

// SetAllServicesActive flips every service of the tenant and returns how many changed.
func (s *SQLiteStore) SetAllServicesActive(ctx context.Context, tenantID string, active bool) (int, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE services SET active = ? WHERE tenant_id = ?`, active, tenantID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// DeleteService removes a service. Its day links are removed with it.
func (s *SQLiteStore) DeleteService(ctx context.Context, tenantID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM services WHERE id = ? AND tenant_id = ?`, id, tenantID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetDayServices returns the weekday to service links.
func (s *SQLiteStore) GetDayServices(ctx context.Context, tenantID string) (domain.DayServices, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT day_of_week, service_id FROM day_services WHERE tenant_id = ? ORDER BY day_of_week, position`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ds := domain.DayServices{}
	for rows.Next() {
		var day int
		var serviceID string
		if err := rows.Scan(&day, &serviceID); err != nil {
			return nil, err
		}
		ds[day] = append(ds[day], serviceID)
	}
	return ds, rows.Err()
}

// SaveDayServices replaces the weekday to service links.
func (s *SQLiteStore) SaveDayServices(ctx context.Context, tenantID string, ds domain.DayServices) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM day_services WHERE tenant_id = ?`, tenantID); err != nil {
		return err
	}
	for day, ids := range ds {
		for pos, id := range ids {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO day_services (tenant_id, day_of_week, service_id, position) VALUES (?, ?, ?, ?)`,
				tenantID, day, id, pos); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

const bookingSelect = `SELECT b.id, b.tenant_id, COALESCE(b.service_id, ''), COALESCE(sv.name, ''),
	COALESCE(b.client_id, ''), CASE WHEN b.client_name != '' THEN b.client_name ELSE COALESCE(c.name, '') END,
	b.booking_date, b.booking_time, b.duration_minutes, b.address, b.notes, b.status,
	b.price_ht, b.price_ttc, b.confirmed_at, b.cancelled_at, b.created_at
	FROM bookings b
	LEFT JOIN services sv ON sv.id = b.service_id
	LEFT JOIN clients c ON c.id = b.client_id`

func scanBooking(sc interface{ Scan(...interface{}) error }) (*domain.Booking, error) {
	var b domain.Booking
	var status string
	var confirmedAt, cancelledAt sql.NullTime
	if err := sc.Scan(&b.ID, &b.TenantID, &b.ServiceID, &b.ServiceName, &b.ClientID, &b.ClientName,
		&b.Date, &b.Time, &b.DurationMinutes, &b.Address, &b.Notes, &status,
		&b.PriceHT, &b.PriceTTC, &confirmedAt, &cancelledAt, &b.CreatedAt); err != nil {
		return nil, err
	}
	b.Status = domain.BookingStatus(status)
	if confirmedAt.Valid {
		t := confirmedAt.Time
		b.ConfirmedAt = &t
	}
	if cancelledAt.Valid {
		t := cancelledAt.Time
		b.CancelledAt = &t
	}
	return &b, nil
}

// ListBookings lists the tenant's bookings matching f.
func (s *SQLiteStore) ListBookings(ctx context.Context, tenantID string, f BookingFilter) ([]domain.Booking, error) {
	query := bookingSelect + ` WHERE b.tenant_id = ?`
	args := []interface{}{tenantID}

	if f.Status != "" {
		query += ` AND b.status = ?`
		args = append(args, string(f.Status))
	}
	if f.ExcludeCancelled {
		query += ` AND b.status != 'cancelled'`
	}
	if f.On != "" {
		query += ` AND b.booking_date = ?`
		args = append(args, f.On)
	}
	if f.From != "" {
		query += ` AND b.booking_date >= ?`
		args = append(args, f.From)
	}
	if f.Before != "" {
		query += ` AND b.booking_date < ?`
		args = append(args, f.Before)
	}
	if f.ClientID != "" {
		query += ` AND b.client_id = ?`
		args = append(args, f.ClientID)
	}
	if f.Descending {
		query += ` ORDER BY b.booking_date DESC, b.booking_time DESC`
	} else {
		query += ` ORDER BY b.booking_date ASC, b.booking_time ASC`
	}
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// GetBooking returns one of the tenant's bookings, or nil.
func (s *SQLiteStore) GetBooking(ctx context.Context, tenantID, id string) (*domain.Booking, error) {
	b, err := scanBooking(s.db.QueryRowContext(ctx, bookingSelect+` WHERE b.id = ? AND b.tenant_id = ?`, id, tenantID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// CreateBooking inserts a booking.
func (s *SQLiteStore) CreateBooking(ctx context.Context, b *domain.Booking) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	if b.Status == "" {
		b.Status = domain.BookingStatusPending
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO bookings (id, tenant_id, service_id, client_id, client_name, booking_date, booking_time,
			duration_minutes, address, notes, status, price_ht, price_ttc, confirmed_at, cancelled_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.TenantID, nullString(b.ServiceID), nullString(b.ClientID), b.ClientName, b.Date, b.Time,
		b.DurationMinutes, b.Address, b.Notes, string(b.Status), b.PriceHT, b.PriceTTC,
		nullTime(b.ConfirmedAt), nullTime(b.CancelledAt), b.CreatedAt)
	return err
}

// UpdateBooking changes a booking.
func (s *SQLiteStore) UpdateBooking(ctx context.Context, tenantID, id string, u BookingUpdate) error {
	c := &setClause{}
	if u.Status != nil {
		c.add("status", string(*u.Status))
	}
	if u.Date != nil {
		c.add("booking_date", *u.Date)
	}
	if u.Time != nil {
		c.add("booking_time", *u.Time)
	}
	if u.ConfirmedAt != nil {
		c.add("confirmed_at", *u.ConfirmedAt)
	}
	if u.CancelledAt != nil {
		c.add("cancelled_at", *u.CancelledAt)
	}
	return s.updateScoped(ctx, "bookings", tenantID, id, c)
}

// ListClients aggregates the clients who booked with the tenant, most recent first.
func (s *SQLiteStore) ListClients(ctx context.Context, tenantID string) ([]domain.ClientSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT c.id, c.name, c.email, c.phone, c.address, COUNT(b.id), MAX(b.booking_date),
			COALESCE(SUM(CASE WHEN b.status = 'completed' THEN b.price_ttc ELSE 0 END), 0)
		FROM bookings b JOIN clients c ON c.id = b.client_id
		WHERE b.tenant_id = ?
		GROUP BY c.id, c.name, c.email, c.phone, c.address
		ORDER BY MAX(b.booking_date) DESC`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ClientSummary
	for rows.Next() {
		var c domain.ClientSummary
		var last sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.BookingsCount, &last, &c.TotalRevenue); err != nil {
			return nil, err
		}
		c.LastBooking = last.String
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) requireBooking(ctx context.Context, tenantID, bookingID string) error {
	b, err := s.GetBooking(ctx, tenantID, bookingID)
	if err != nil {
		return err
	}
	if b == nil {
		return ErrNotFound
	}
	return nil
}

// ListBookingMessages returns the latest limit messages of a booking, oldest first.
func (s *SQLiteStore) ListBookingMessages(ctx context.Context, tenantID, bookingID string, limit int) ([]domain.BookingMessage, error) {
	if err := s.requireBooking(ctx, tenantID, bookingID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, booking_id, sender_id, sender_role, sender_name, content, type, created_at
		FROM booking_messages WHERE booking_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`, bookingID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.BookingMessage
	for rows.Next() {
		var m domain.BookingMessage
		if err := rows.Scan(&m.ID, &m.BookingID, &m.SenderID, &m.SenderRole, &m.SenderName, &m.Content, &m.Type, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// CountBookingMessages counts the messages of a booking.
func (s *SQLiteStore) CountBookingMessages(ctx context.Context, tenantID, bookingID string) (int, error) {
	if err := s.requireBooking(ctx, tenantID, bookingID); err != nil {
		return 0, err
	}
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM booking_messages WHERE booking_id = ?`, bookingID).Scan(&n)
	return n, err
}

// CreateBookingMessage appends a message to one of the tenant's bookings.
func (s *SQLiteStore) CreateBookingMessage(ctx context.Context, tenantID string, m *domain.BookingMessage) error {
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
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO booking_messages (id, booking_id, sender_id, sender_role, sender_name, content, type, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.BookingID, m.SenderID, m.SenderRole, m.SenderName, m.Content, m.Type, m.CreatedAt)
	return err
}

// GetProfile returns the tenant profile, or nil.
func (s *SQLiteStore) GetProfile(ctx context.Context, tenantID string) (*domain.Profile, error) {
	var p domain.Profile
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, company_name, bio, zone_radius_km, auto_reply_message, auto_block_duration_minutes,
			siret, siren, legal_form, naf_code, naf_label, company_address, company_city, company_postal_code,
			phone, email
		FROM profiles_artisan WHERE id = ?`, tenantID).
		Scan(&p.ID, &p.UserID, &p.CompanyName, &p.Bio, &p.ZoneRadiusKm, &p.AutoReplyMessage, &p.AutoBlockDurationMinutes,
			&p.Siret, &p.Siren, &p.LegalForm, &p.NafCode, &p.NafLabel, &p.CompanyAddress, &p.CompanyCity,
			&p.CompanyPostalCode, &p.Phone, &p.Email)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProfile changes the tenant profile.
func (s *SQLiteStore) UpdateProfile(ctx context.Context, tenantID string, u ProfileUpdate) error {
	c := &setClause{}
	if u.CompanyName != nil {
		c.add("company_name", *u.CompanyName)
	}
	if u.Bio != nil {
		c.add("bio", *u.Bio)
	}
	if u.ZoneRadiusKm != nil {
		c.add("zone_radius_km", *u.ZoneRadiusKm)
	}
	if u.AutoReplyMessage != nil {
		c.add("auto_reply_message", *u.AutoReplyMessage)
	}
	if u.AutoBlockDurationMinutes != nil {
		c.add("auto_block_duration_minutes", *u.AutoBlockDurationMinutes)
	}
	if c.empty() {
		return nil
	}
	query := fmt.Sprintf("UPDATE profiles_artisan SET %s WHERE id = ?", strings.Join(c.cols, ", "))
	res, err := s.db.ExecContext(ctx, query, append(c.args, tenantID)...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// TenantOwnedBy reports whether userID owns the tenant profile.
func (s *SQLiteStore) TenantOwnedBy(ctx context.Context, tenantID, userID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM profiles_artisan WHERE id = ? AND user_id = ?`, tenantID, userID).Scan(&n)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, err
	}
	return n > 0, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
