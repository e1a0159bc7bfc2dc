package database

import (
	"context"
	"fmt"

	"avtoprokat/internal/models"
)

func (db *DB) GetPaymentMethods(ctx context.Context, renterID int64) ([]*models.PaymentMethod, error) {
	query := `SELECT id, renter_id, kind, label, last_digits FROM payment_methods WHERE renter_id = ? ORDER BY id`

	rows, err := db.QueryContext(ctx, query, renterID)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment methods: %w", err)
	}
	defer rows.Close()

	var methods []*models.PaymentMethod
	for rows.Next() {
		var m models.PaymentMethod
		if err := rows.Scan(&m.ID, &m.RenterID, &m.Kind, &m.Label, &m.LastDigits); err != nil {
			return nil, fmt.Errorf("failed to scan payment method: %w", err)
		}
		methods = append(methods, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return methods, nil
}

// AddPaymentMethod is used by seeding and tests; the service itself only reads.
func (db *DB) AddPaymentMethod(ctx context.Context, m *models.PaymentMethod) error {
	query := `INSERT INTO payment_methods (renter_id, kind, label, last_digits) VALUES (?, ?, ?, ?)`

	result, err := db.ExecContext(ctx, query, m.RenterID, m.Kind, m.Label, m.LastDigits)
	if err != nil {
		return fmt.Errorf("failed to add payment method: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	m.ID = id
	return nil
}
