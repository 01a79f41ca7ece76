/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements every persistence interface the booking engine consumes
  (booking.Store, booking.RoomDirectory, booking.UserDirectory,
  booking.HolidayCalendar) using SQLite. In production the same patterns
  apply to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  bookings:        Room reservations (never deleted; terminal rows kept)
  booking_history: Append-only audit trail, one row per transition
  rooms:           Room directory
  users:           Identity directory with role snapshots
  holidays:        Blackout dates (soft-deleted via is_active)

APPEND-ONLY ENFORCEMENT:
  booking_history has no UPDATE or DELETE path: the only write is the
  INSERT in appendHistory.

TIME ENCODING:
  Instants are stored as timezone-naive `2006-01-02T15:04:05` strings.
  The layout is lexicographically ordered, so the interval predicates
  (start_time < ? AND end_time > ?) compare correctly as text.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety on top of a WAL-mode database.
  WithTx runs a function against a store view bound to one database
  transaction; the mutex is held for the whole transaction so the
  read-validate-write sequences in the engine are serialized.

USAGE:
  store, err := sqlite.New("./data/roombook.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  engine := booking.NewEngine(store, store, store, store)

SEE ALSO:
  - booking/stores.go: Interface definitions
  - booking/engine.go: The consumer
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/campushub/roombook/booking"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Interface conformance checks.
var (
	_ booking.Store           = (*Store)(nil)
	_ booking.RoomDirectory   = (*Store)(nil)
	_ booking.UserDirectory   = (*Store)(nil)
	_ booking.HolidayCalendar = (*Store)(nil)
)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Users (identity directory with role snapshots)
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		email TEXT UNIQUE,
		first_name TEXT,
		last_name TEXT,
		roles_json TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- Rooms
	CREATE TABLE IF NOT EXISTS rooms (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		room_number TEXT NOT NULL,
		building TEXT,
		capacity INTEGER NOT NULL,
		floor_number INTEGER,
		room_type TEXT NOT NULL,
		is_active BOOLEAN DEFAULT TRUE,
		description TEXT,
		created_at TEXT NOT NULL
	);

	-- Bookings (never deleted; REJECTED/CANCELLED rows kept for history)
	CREATE TABLE IF NOT EXISTS bookings (
		id TEXT PRIMARY KEY,
		room_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		purpose TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'PENDING',
		rejection_reason TEXT,
		approved_by TEXT,
		approved_at TEXT,
		cancelled_by TEXT,
		cancelled_at TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Hot path: overlap checks per room over active statuses
	CREATE INDEX IF NOT EXISTS idx_bookings_room_time
		ON bookings(room_id, start_time, end_time);
	CREATE INDEX IF NOT EXISTS idx_bookings_status
		ON bookings(status);
	CREATE INDEX IF NOT EXISTS idx_bookings_user_start
		ON bookings(user_id, start_time);

	-- Booking history (append-only audit trail)
	CREATE TABLE IF NOT EXISTS booking_history (
		id TEXT PRIMARY KEY,
		booking_id TEXT NOT NULL,
		action TEXT NOT NULL,
		actor_id TEXT NOT NULL,
		old_status TEXT,
		new_status TEXT NOT NULL,
		reason TEXT,
		action_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_history_booking
		ON booking_history(booking_id, action_at DESC);

	-- Holidays (soft-deleted via is_active)
	CREATE TABLE IF NOT EXISTS holidays (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		name TEXT NOT NULL,
		description TEXT,
		recurring BOOLEAN DEFAULT FALSE,
		is_active BOOLEAN DEFAULT TRUE,
		created_by TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_holidays_date
		ON holidays(date) WHERE is_active;
	`

	_, err := s.db.Exec(schema)
	return err
}

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// SCHEDULE STORE (booking.ScheduleStore interface)
// =============================================================================

// SaveBooking inserts a booking or updates its mutable fields.
func (s *Store) SaveBooking(ctx context.Context, b *booking.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.saveBooking(ctx, s.db, b)
}

func (s *Store) saveBooking(ctx context.Context, q dbtx, b *booking.Booking) error {
	query := `
		INSERT INTO bookings
		(id, room_id, user_id, start_time, end_time, purpose, status,
		 rejection_reason, approved_by, approved_at, cancelled_by, cancelled_at,
		 created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			rejection_reason = excluded.rejection_reason,
			approved_by = excluded.approved_by,
			approved_at = excluded.approved_at,
			cancelled_by = excluded.cancelled_by,
			cancelled_at = excluded.cancelled_at,
			updated_at = excluded.updated_at
	`

	_, err := q.ExecContext(ctx, query,
		b.ID,
		b.RoomID,
		b.RequesterID,
		b.Start.Format(booking.TimeLayout),
		b.End.Format(booking.TimeLayout),
		b.Purpose,
		b.Status,
		nullString(b.RejectionReason),
		nullString(string(b.ApprovedBy)),
		nullTime(b.ApprovedAt),
		nullString(string(b.CancelledBy)),
		nullTime(b.CancelledAt),
		b.CreatedAt.Format(booking.TimeLayout),
		b.UpdatedAt.Format(booking.TimeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to save booking: %w", err)
	}
	return nil
}

// GetBooking returns a booking by id, or nil when absent.
func (s *Store) GetBooking(ctx context.Context, id booking.BookingID) (*booking.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getBooking(ctx, s.db, id)
}

func (s *Store) getBooking(ctx context.Context, q dbtx, id booking.BookingID) (*booking.Booking, error) {
	query := selectBooking + ` WHERE id = ?`

	bookings, err := s.queryBookings(ctx, q, query, id)
	if err != nil {
		return nil, err
	}
	if len(bookings) == 0 {
		return nil, nil
	}
	return &bookings[0], nil
}

// ActiveOverlaps returns the room's PENDING/APPROVED bookings that
// intersect [start, end), ordered ascending by start time.
// Overlap test: existing.start < end AND existing.end > start.
func (s *Store) ActiveOverlaps(ctx context.Context, roomID booking.RoomID, start, end time.Time) ([]booking.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.activeOverlaps(ctx, s.db, roomID, start, end)
}

func (s *Store) activeOverlaps(ctx context.Context, q dbtx, roomID booking.RoomID, start, end time.Time) ([]booking.Booking, error) {
	query := selectBooking + `
		WHERE room_id = ?
		  AND status IN ('PENDING', 'APPROVED')
		  AND start_time < ?
		  AND end_time > ?
		ORDER BY start_time ASC
	`

	return s.queryBookings(ctx, q, query, roomID,
		end.Format(booking.TimeLayout), start.Format(booking.TimeLayout))
}

// BookingsByRequester returns a requester's bookings. The full listing
// is newest first; the cancellable listing (activeOnly) is soonest first.
func (s *Store) BookingsByRequester(ctx context.Context, userID booking.UserID, activeOnly bool, after time.Time) ([]booking.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.bookingsByRequester(ctx, s.db, userID, activeOnly, after)
}

func (s *Store) bookingsByRequester(ctx context.Context, q dbtx, userID booking.UserID, activeOnly bool, after time.Time) ([]booking.Booking, error) {
	if activeOnly {
		query := selectBooking + `
			WHERE user_id = ?
			  AND status IN ('PENDING', 'APPROVED')
			  AND start_time > ?
			ORDER BY start_time ASC
		`
		return s.queryBookings(ctx, q, query, userID, after.Format(booking.TimeLayout))
	}

	query := selectBooking + `
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
	`
	return s.queryBookings(ctx, q, query, userID)
}

const selectBooking = `
	SELECT id, room_id, user_id, start_time, end_time, purpose, status,
	       rejection_reason, approved_by, approved_at, cancelled_by, cancelled_at,
	       created_at, updated_at
	FROM bookings`

func (s *Store) queryBookings(ctx context.Context, q dbtx, query string, args ...any) ([]booking.Booking, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	var bookings []booking.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}

	return bookings, rows.Err()
}

func scanBooking(rows *sql.Rows) (booking.Booking, error) {
	var (
		b               booking.Booking
		startTime       string
		endTime         string
		rejectionReason sql.NullString
		approvedBy      sql.NullString
		approvedAt      sql.NullString
		cancelledBy     sql.NullString
		cancelledAt     sql.NullString
		createdAt       string
		updatedAt       string
	)

	err := rows.Scan(
		&b.ID, &b.RoomID, &b.RequesterID, &startTime, &endTime, &b.Purpose, &b.Status,
		&rejectionReason, &approvedBy, &approvedAt, &cancelledBy, &cancelledAt,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return b, fmt.Errorf("failed to scan booking: %w", err)
	}

	b.Start, _ = time.Parse(booking.TimeLayout, startTime)
	b.End, _ = time.Parse(booking.TimeLayout, endTime)
	b.RejectionReason = rejectionReason.String
	b.ApprovedBy = booking.UserID(approvedBy.String)
	b.ApprovedAt = parseNullTime(approvedAt)
	b.CancelledBy = booking.UserID(cancelledBy.String)
	b.CancelledAt = parseNullTime(cancelledAt)
	b.CreatedAt, _ = time.Parse(booking.TimeLayout, createdAt)
	b.UpdatedAt, _ = time.Parse(booking.TimeLayout, updatedAt)

	return b, nil
}

// =============================================================================
// AUDIT TRAIL (booking.AuditTrail interface)
// =============================================================================

// AppendHistory records one lifecycle transition. This is the only write
// to booking_history; there is no update or delete path.
func (s *Store) AppendHistory(ctx context.Context, entry booking.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.appendHistory(ctx, s.db, entry)
}

func (s *Store) appendHistory(ctx context.Context, q dbtx, entry booking.HistoryEntry) error {
	var oldStatus sql.NullString
	if entry.OldStatus != nil {
		oldStatus = sql.NullString{String: string(*entry.OldStatus), Valid: true}
	}

	query := `
		INSERT INTO booking_history
		(id, booking_id, action, actor_id, old_status, new_status, reason, action_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := q.ExecContext(ctx, query,
		entry.ID,
		entry.BookingID,
		entry.Action,
		entry.ActorID,
		oldStatus,
		entry.NewStatus,
		nullString(entry.Reason),
		entry.At.Format(booking.TimeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to append history: %w", err)
	}
	return nil
}

// HistoryByBooking returns all entries for a booking, newest first.
// rowid breaks ties for transitions recorded within the same second.
func (s *Store) HistoryByBooking(ctx context.Context, id booking.BookingID) ([]booking.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.historyByBooking(ctx, s.db, id)
}

func (s *Store) historyByBooking(ctx context.Context, q dbtx, id booking.BookingID) ([]booking.HistoryEntry, error) {
	query := `
		SELECT id, booking_id, action, actor_id, old_status, new_status, reason, action_at
		FROM booking_history
		WHERE booking_id = ?
		ORDER BY action_at DESC, rowid DESC
	`

	rows, err := q.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []booking.HistoryEntry
	for rows.Next() {
		var (
			entry     booking.HistoryEntry
			oldStatus sql.NullString
			reason    sql.NullString
			actionAt  string
		)
		if err := rows.Scan(&entry.ID, &entry.BookingID, &entry.Action, &entry.ActorID,
			&oldStatus, &entry.NewStatus, &reason, &actionAt); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}

		if oldStatus.Valid {
			st := booking.BookingStatus(oldStatus.String)
			entry.OldStatus = &st
		}
		entry.Reason = reason.String
		entry.At, _ = time.Parse(booking.TimeLayout, actionAt)

		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// =============================================================================
// TRANSACTIONAL STORE (booking.Store interface)
// =============================================================================

// WithTx executes fn against a store view bound to a single database
// transaction. The store mutex is held for the duration, so the engine's
// read-validate-write sequences are indivisible with respect to other
// writers.
func (s *Store) WithTx(ctx context.Context, fn func(booking.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	txStore := &txStore{tx: sqlTx, parent: s}
	if err := fn(txStore); err != nil {
		return err
	}

	return sqlTx.Commit()
}

// txStore runs every operation against the wrapped *sql.Tx. The parent's
// mutex is already held by WithTx, so no locking happens here.
type txStore struct {
	tx     *sql.Tx
	parent *Store
}

func (ts *txStore) SaveBooking(ctx context.Context, b *booking.Booking) error {
	return ts.parent.saveBooking(ctx, ts.tx, b)
}

func (ts *txStore) GetBooking(ctx context.Context, id booking.BookingID) (*booking.Booking, error) {
	return ts.parent.getBooking(ctx, ts.tx, id)
}

func (ts *txStore) ActiveOverlaps(ctx context.Context, roomID booking.RoomID, start, end time.Time) ([]booking.Booking, error) {
	return ts.parent.activeOverlaps(ctx, ts.tx, roomID, start, end)
}

func (ts *txStore) BookingsByRequester(ctx context.Context, userID booking.UserID, activeOnly bool, after time.Time) ([]booking.Booking, error) {
	return ts.parent.bookingsByRequester(ctx, ts.tx, userID, activeOnly, after)
}

func (ts *txStore) AppendHistory(ctx context.Context, entry booking.HistoryEntry) error {
	return ts.parent.appendHistory(ctx, ts.tx, entry)
}

func (ts *txStore) HistoryByBooking(ctx context.Context, id booking.BookingID) ([]booking.HistoryEntry, error) {
	return ts.parent.historyByBooking(ctx, ts.tx, id)
}

// Nested transactions are not supported; fn runs in the current one.
func (ts *txStore) WithTx(ctx context.Context, fn func(booking.Store) error) error {
	return fn(ts)
}

// =============================================================================
// USER DIRECTORY
// =============================================================================

// SaveUser saves a user record with its role snapshot.
func (s *Store) SaveUser(ctx context.Context, u booking.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rolesJSON, err := json.Marshal(u.Roles)
	if err != nil {
		return fmt.Errorf("failed to encode roles: %w", err)
	}

	query := `
		INSERT INTO users (id, username, email, first_name, last_name, roles_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			username = excluded.username,
			email = excluded.email,
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			roles_json = excluded.roles_json
	`

	_, err = s.db.ExecContext(ctx, query,
		u.ID, u.Username, nullString(u.Email), u.FirstName, u.LastName,
		string(rolesJSON),
		time.Now().Format(booking.TimeLayout),
	)
	return err
}

// GetUser retrieves a user by id, or nil when absent.
func (s *Store) GetUser(ctx context.Context, id booking.UserID) (*booking.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryUser(ctx,
		"SELECT id, username, email, first_name, last_name, roles_json FROM users WHERE id = ?", id)
}

// GetUserByUsername retrieves a user by username, or nil when absent.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*booking.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryUser(ctx,
		"SELECT id, username, email, first_name, last_name, roles_json FROM users WHERE username = ?", username)
}

func (s *Store) queryUser(ctx context.Context, query string, arg any) (*booking.User, error) {
	var (
		u         booking.User
		email     sql.NullString
		firstName sql.NullString
		lastName  sql.NullString
		rolesJSON string
	)

	err := s.db.QueryRowContext(ctx, query, arg).
		Scan(&u.ID, &u.Username, &email, &firstName, &lastName, &rolesJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	u.Email = email.String
	u.FirstName = firstName.String
	u.LastName = lastName.String
	if err := json.Unmarshal([]byte(rolesJSON), &u.Roles); err != nil {
		return nil, fmt.Errorf("failed to decode roles: %w", err)
	}

	return &u, nil
}

// =============================================================================
// ROOM DIRECTORY
// =============================================================================

const selectRoom = `
	SELECT id, name, room_number, building, capacity, floor_number,
	       room_type, is_active, description
	FROM rooms`

// SaveRoom saves a room record.
func (s *Store) SaveRoom(ctx context.Context, room booking.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO rooms (id, name, room_number, building, capacity, floor_number,
			room_type, is_active, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			room_number = excluded.room_number,
			building = excluded.building,
			capacity = excluded.capacity,
			floor_number = excluded.floor_number,
			room_type = excluded.room_type,
			is_active = excluded.is_active,
			description = excluded.description
	`

	_, err := s.db.ExecContext(ctx, query,
		room.ID, room.Name, room.RoomNumber, room.Building, room.Capacity,
		room.FloorNumber, room.Type, room.Active, nullString(room.Description),
		time.Now().Format(booking.TimeLayout),
	)
	return err
}

// GetRoom retrieves a room by id, or nil when absent.
func (s *Store) GetRoom(ctx context.Context, id booking.RoomID) (*booking.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, selectRoom+" WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	room, err := scanRoom(rows)
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// ListRooms returns all rooms ordered by name.
func (s *Store) ListRooms(ctx context.Context) ([]booking.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, selectRoom+" ORDER BY name ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []booking.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

func scanRoom(rows *sql.Rows) (booking.Room, error) {
	var (
		room        booking.Room
		building    sql.NullString
		floor       sql.NullInt64
		description sql.NullString
	)

	err := rows.Scan(&room.ID, &room.Name, &room.RoomNumber, &building, &room.Capacity,
		&floor, &room.Type, &room.Active, &description)
	if err != nil {
		return room, fmt.Errorf("failed to scan room: %w", err)
	}

	room.Building = building.String
	room.FloorNumber = int(floor.Int64)
	room.Description = description.String
	return room, nil
}

// =============================================================================
// HOLIDAY CALENDAR
// =============================================================================

const selectHoliday = `
	SELECT id, date, name, description, recurring, is_active, created_by
	FROM holidays`

// SaveHoliday saves a holiday record.
func (s *Store) SaveHoliday(ctx context.Context, h booking.Holiday) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO holidays (id, date, name, description, recurring, is_active,
			created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			date = excluded.date,
			name = excluded.name,
			description = excluded.description,
			recurring = excluded.recurring,
			is_active = excluded.is_active,
			updated_at = excluded.updated_at
	`

	now := time.Now().Format(booking.TimeLayout)
	_, err := s.db.ExecContext(ctx, query,
		h.ID, h.Date.Format(booking.DateLayout), h.Name, nullString(h.Description),
		h.Recurring, h.Active, nullString(string(h.CreatedBy)), now, now,
	)
	return err
}

// GetHoliday retrieves a holiday by id, or nil when absent.
func (s *Store) GetHoliday(ctx context.Context, id booking.HolidayID) (*booking.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, selectHoliday+" WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	h, err := scanHoliday(rows)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// ListActiveHolidays returns all active holidays ordered by date.
func (s *Store) ListActiveHolidays(ctx context.Context) ([]booking.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, selectHoliday+" WHERE is_active ORDER BY date ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holidays []booking.Holiday
	for rows.Next() {
		h, err := scanHoliday(rows)
		if err != nil {
			return nil, err
		}
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}

func scanHoliday(rows *sql.Rows) (booking.Holiday, error) {
	var (
		h           booking.Holiday
		dateStr     string
		description sql.NullString
		createdBy   sql.NullString
	)

	err := rows.Scan(&h.ID, &dateStr, &h.Name, &description, &h.Recurring, &h.Active, &createdBy)
	if err != nil {
		return h, fmt.Errorf("failed to scan holiday: %w", err)
	}

	h.Date, _ = time.Parse(booking.DateLayout, dateStr)
	h.Description = description.String
	h.CreatedBy = booking.UserID(createdBy.String)
	return h, nil
}

// DeactivateHoliday soft-deletes a holiday by flipping its active flag.
// Holidays are never hard-deleted.
func (s *Store) DeactivateHoliday(ctx context.Context, id booking.HolidayID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE holidays SET is_active = FALSE, updated_at = ? WHERE id = ?",
		time.Now().Format(booking.TimeLayout), id,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return booking.ErrHolidayNotFound
	}
	return nil
}

// IsHoliday checks whether a single date is an active holiday.
// Recurring holidays match on month-day in any year.
//
// No mutex: holiday data is not booking state, so calendar reads do
// not serialize against WithTx. The connection itself is safe to share.
func (s *Store) IsHoliday(ctx context.Context, date time.Time) (bool, error) {
	query := `
		SELECT COUNT(*) FROM holidays
		WHERE is_active
		  AND (
			(recurring = FALSE AND date = ?)
			OR (recurring = TRUE AND strftime('%m-%d', date) = ?)
		  )
	`

	var count int
	err := s.db.QueryRowContext(ctx, query,
		date.Format(booking.DateLayout), date.Format("01-02"),
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// HasHolidayBetween checks whether any active holiday falls within the
// inclusive date range [from, to]. Non-recurring holidays are answered
// in SQL; recurring ones are materialized per candidate year in Go since
// a month-day comparison cannot express year-wrapping ranges.
// Lock-free for the same reason as IsHoliday.
func (s *Store) HasHolidayBetween(ctx context.Context, from, to time.Time) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM holidays WHERE is_active AND recurring = FALSE AND date >= ? AND date <= ?",
		from.Format(booking.DateLayout), to.Format(booking.DateLayout),
	).Scan(&count)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return true, nil
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT date FROM holidays WHERE is_active AND recurring = TRUE",
	)
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var dateStr string
		if err := rows.Scan(&dateStr); err != nil {
			return false, err
		}
		d, err := time.Parse(booking.DateLayout, dateStr)
		if err != nil {
			continue
		}
		for year := from.Year(); year <= to.Year(); year++ {
			occurrence := time.Date(year, d.Month(), d.Day(), 0, 0, 0, 0, from.Location())
			if !occurrence.Before(from) && !occurrence.After(to) {
				return true, nil
			}
		}
	}

	return false, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"booking_history", "bookings", "holidays", "rooms", "users"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(booking.TimeLayout), Valid: true}
}

func parseNullTime(ns sql.NullString) *time.Time {
	if !ns.Valid {
		return nil
	}
	t, err := time.Parse(booking.TimeLayout, ns.String)
	if err != nil {
		return nil
	}
	return &t
}
