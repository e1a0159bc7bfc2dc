package database

import (
	"context"
	"testing"

	"avtoprokat/internal/domain"
	"avtoprokat/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCarCatalog(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	db.SetCars([]*models.Car{
		{ID: 2, Name: "Kia Rio", IsActive: true, SortOrder: 2, Rates: models.RateSchedule{Daily: 1500}},
		{ID: 1, Name: "Lada Vesta", IsActive: true, SortOrder: 1, Rates: models.RateSchedule{Daily: 1000}},
		{ID: 3, Name: "Старый фургон", IsActive: false, SortOrder: 3},
	})

	t.Run("active cars sorted", func(t *testing.T) {
		cars, err := db.GetActiveCars(ctx)
		require.NoError(t, err)
		require.Len(t, cars, 2)
		assert.Equal(t, "Lada Vesta", cars[0].Name)
		assert.Equal(t, "Kia Rio", cars[1].Name)
	})

	t.Run("by id", func(t *testing.T) {
		car, err := db.GetCarByID(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, "Kia Rio", car.Name)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := db.GetCarByID(ctx, 42)
		assert.ErrorIs(t, err, domain.ErrCarNotFound)
	})
}

func TestPaymentMethods(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.AddPaymentMethod(ctx, &models.PaymentMethod{RenterID: 7, Kind: "card", Label: "Visa", LastDigits: "4242"}))
	require.NoError(t, db.AddPaymentMethod(ctx, &models.PaymentMethod{RenterID: 7, Kind: "sbp", Label: "СБП"}))
	require.NoError(t, db.AddPaymentMethod(ctx, &models.PaymentMethod{RenterID: 8, Kind: "cash", Label: "Наличные"}))

	methods, err := db.GetPaymentMethods(ctx, 7)
	require.NoError(t, err)
	require.Len(t, methods, 2)
	assert.Equal(t, "Visa", methods[0].Label)
	assert.Equal(t, "4242", methods[0].LastDigits)
}
