package database

import (
	"context"
	"sort"

	"avtoprokat/internal/domain"
	"avtoprokat/internal/models"
)

// SetCars loads the yaml catalog into the in-memory cache. The catalog is
// configuration, not user data, so it never touches the tables.
func (db *DB) SetCars(cars []*models.Car) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.carsCache = make(map[int64]*models.Car, len(cars))
	for _, car := range cars {
		db.carsCache[car.ID] = car
	}

	sorted := append([]*models.Car(nil), cars...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SortOrder < sorted[j].SortOrder
	})
	db.sortedCars = sorted
}

func (db *DB) GetActiveCars(ctx context.Context) ([]*models.Car, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var active []*models.Car
	for _, car := range db.sortedCars {
		if car.IsActive {
			active = append(active, car)
		}
	}
	return active, nil
}

func (db *DB) GetCarByID(ctx context.Context, id int64) (*models.Car, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	car, ok := db.carsCache[id]
	if !ok {
		return nil, domain.ErrCarNotFound
	}
	return car, nil
}
