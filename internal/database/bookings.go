package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"avtoprokat/internal/domain"
	"avtoprokat/internal/models"
)

const bookingColumns = `id, reference, car_id, car_name, renter_id, start_at, end_at,
	pickup_location, return_location, total_amount, payment_summary,
	special_requests, status, created_at, updated_at, version`

// CreateBooking persists a new booking. The credential is the bearer token
// of the renter session; the embedded store only records bookings created
// through an authenticated session, so an empty credential is a rejection.
func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking, credential string) error {
	if credential == "" {
		return fmt.Errorf("missing credential: %w", domain.ErrPayloadRejected)
	}
	if booking.CarID == 0 || booking.RenterID == 0 {
		return fmt.Errorf("incomplete booking payload: %w", domain.ErrPayloadRejected)
	}
	if !booking.Interval.End.After(booking.Interval.Start) && !booking.Interval.End.Equal(booking.Interval.Start) {
		return fmt.Errorf("inverted interval: %w", domain.ErrPayloadRejected)
	}

	query := `INSERT INTO bookings (
				reference, car_id, car_name, renter_id, start_at, end_at,
				pickup_location, return_location, total_amount, payment_summary,
				special_requests, status, created_at, updated_at, version
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		booking.Reference,
		booking.CarID,
		booking.CarName,
		booking.RenterID,
		booking.Interval.Start,
		booking.Interval.End,
		booking.PickupLocation,
		booking.ReturnLocation,
		booking.TotalAmount,
		booking.PaymentSummary,
		booking.SpecialRequests,
		booking.Status,
		now,
		now,
		1,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("duplicate reference: %w", domain.ErrPayloadRejected)
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	booking.ID = id
	booking.CreatedAt = now
	booking.UpdatedAt = now
	booking.Version = 1

	return nil
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`

	booking, err := scanBooking(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return booking, nil
}

func (db *DB) GetRenterBookings(ctx context.Context, renterID int64) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE renter_id = ? ORDER BY created_at DESC`

	rows, err := db.QueryContext(ctx, query, renterID)
	if err != nil {
		return nil, fmt.Errorf("failed to get renter bookings: %w", err)
	}
	defer rows.Close()

	return collectBookings(rows)
}

func (db *DB) GetBookingsByStatus(ctx context.Context, statuses ...string) ([]*models.Booking, error) {
	if len(statuses) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(statuses))
	placeholders = placeholders[:len(placeholders)-1]
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE status IN (` + placeholders + `) ORDER BY start_at`

	args := make([]interface{}, len(statuses))
	for i, s := range statuses {
		args[i] = s
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get bookings by status: %w", err)
	}
	defer rows.Close()

	return collectBookings(rows)
}

// SetBookingStatus applies a status change with optimistic versioning.
// Только менеджер жизненного цикла вызывает этот метод.
func (db *DB) SetBookingStatus(ctx context.Context, id int64, version int64, status string) error {
	query := `UPDATE bookings SET status = ?, version = version + 1, updated_at = ? WHERE id = ? AND version = ?`

	result, err := db.ExecContext(ctx, query, status, time.Now(), id, version)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		if _, err := db.GetBooking(ctx, id); err != nil {
			return err
		}
		return domain.ErrConcurrentModification
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	var b models.Booking
	err := row.Scan(
		&b.ID,
		&b.Reference,
		&b.CarID,
		&b.CarName,
		&b.RenterID,
		&b.Interval.Start,
		&b.Interval.End,
		&b.PickupLocation,
		&b.ReturnLocation,
		&b.TotalAmount,
		&b.PaymentSummary,
		&b.SpecialRequests,
		&b.Status,
		&b.CreatedAt,
		&b.UpdatedAt,
		&b.Version,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func collectBookings(rows *sql.Rows) ([]*models.Booking, error) {
	var bookings []*models.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bookings, nil
}
