package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"avtoprokat/internal/models"

	"github.com/rs/zerolog"
	_ "github.com/mattn/go-sqlite3"
)

type DB struct {
	*sql.DB
	logger *zerolog.Logger

	mu         sync.RWMutex
	carsCache  map[int64]*models.Car
	sortedCars []*models.Car
}

func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	// Создаем директорию для БД, если её нет
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("database initialized")
	return &DB{DB: db, logger: logger, carsCache: make(map[int64]*models.Car)}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		// Таблица бронирований
		`CREATE TABLE IF NOT EXISTS bookings (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            reference TEXT NOT NULL UNIQUE,
            car_id INTEGER NOT NULL,
            car_name TEXT NOT NULL,
            renter_id INTEGER NOT NULL,
            start_at DATETIME NOT NULL,
            end_at DATETIME NOT NULL,
            pickup_location TEXT NOT NULL,
            return_location TEXT NOT NULL,
            total_amount REAL NOT NULL,
            payment_summary TEXT,
            special_requests TEXT,
            status TEXT NOT NULL DEFAULT 'upcoming',
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            version INTEGER NOT NULL DEFAULT 1
        )`,
		// Таблица отзывов: не более одного на бронирование
		`CREATE TABLE IF NOT EXISTS reviews (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            booking_id INTEGER NOT NULL UNIQUE,
            car_id INTEGER NOT NULL,
            renter_id INTEGER NOT NULL,
            rating INTEGER NOT NULL,
            comment TEXT NOT NULL,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		// Способы оплаты — справочные данные для шага оплаты
		`CREATE TABLE IF NOT EXISTS payment_methods (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            renter_id INTEGER NOT NULL,
            kind TEXT NOT NULL,
            label TEXT NOT NULL,
            last_digits TEXT
        )`,

		`CREATE INDEX IF NOT EXISTS idx_bookings_renter_id ON bookings(renter_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings(status)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_start_at ON bookings(start_at)`,
		`CREATE INDEX IF NOT EXISTS idx_reviews_car_id ON reviews(car_id)`,
		`CREATE INDEX IF NOT EXISTS idx_payment_methods_renter_id ON payment_methods(renter_id)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

func (db *DB) Close() error {
	return db.DB.Close()
}
