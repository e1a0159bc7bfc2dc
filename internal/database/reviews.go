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

func (db *DB) CreateReview(ctx context.Context, review *models.Review, credential string) error {
	if credential == "" {
		return fmt.Errorf("missing credential: %w", domain.ErrPayloadRejected)
	}

	query := `INSERT INTO reviews (booking_id, car_id, renter_id, rating, comment, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		review.BookingID,
		review.CarID,
		review.RenterID,
		review.Rating,
		review.Comment,
		now,
	)
	if err != nil {
		// Уникальный индекс по booking_id гарантирует один отзыв на бронь
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return domain.ErrReviewExists
		}
		return fmt.Errorf("failed to create review: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	review.ID = id
	review.CreatedAt = now

	return nil
}

func (db *DB) GetReviewForBooking(ctx context.Context, bookingID int64) (*models.Review, error) {
	query := `SELECT id, booking_id, car_id, renter_id, rating, comment, created_at
			FROM reviews WHERE booking_id = ?`

	var r models.Review
	err := db.QueryRowContext(ctx, query, bookingID).Scan(
		&r.ID,
		&r.BookingID,
		&r.CarID,
		&r.RenterID,
		&r.Rating,
		&r.Comment,
		&r.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get review: %w", err)
	}

	return &r, nil
}

func (db *DB) HasReview(ctx context.Context, bookingID int64) (bool, error) {
	query := `SELECT COUNT(*) FROM reviews WHERE booking_id = ?`

	var count int
	if err := db.QueryRowContext(ctx, query, bookingID).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to count reviews: %w", err)
	}
	return count > 0, nil
}
