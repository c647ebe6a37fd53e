package service

import (
	"context"
	"math"
	"testing"

	"milkeyway/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mumbai city centre; the fixture farms sit north of it.
const (
	originLat = 19.0760
	originLon = 72.8777
)

func TestFindNearbyFarmersFiltersAndSorts(t *testing.T) {
	env := newTestEnv(t)
	_, near := env.createFarmer(t, "near@example.com", "9000000001", 19.1200, 72.9000, model.FarmerStatusApproved)
	_, mid := env.createFarmer(t, "mid@example.com", "9000000002", 19.2000, 72.9000, model.FarmerStatusApproved)
	env.createFarmer(t, "far@example.com", "9000000003", 19.9000, 73.5000, model.FarmerStatusApproved)
	env.createFarmer(t, "pending@example.com", "9000000004", 19.1000, 72.9000, model.FarmerStatusPending)

	results, err := env.discoveryService().FindNearbyFarmers(context.Background(), DiscoveryQuery{
		Latitude:  originLat,
		Longitude: originLon,
		RadiusKm:  20,
	})
	require.NoError(t, err)

	require.Len(t, results, 2, "far and pending farmers are excluded")
	assert.Equal(t, near.ID.String(), results[0].FarmerID, "nearest first")
	assert.Equal(t, mid.ID.String(), results[1].FarmerID)
	assert.Less(t, results[0].DistanceKm, results[1].DistanceKm)
	assert.LessOrEqual(t, results[1].DistanceKm, 20.0)
}

func TestFindNearbyFarmersRadiusShrinksResults(t *testing.T) {
	env := newTestEnv(t)
	env.createFarmer(t, "near@example.com", "9000000001", 19.1200, 72.9000, model.FarmerStatusApproved)
	env.createFarmer(t, "mid@example.com", "9000000002", 19.2000, 72.9000, model.FarmerStatusApproved)

	svc := env.discoveryService()

	wide, err := svc.FindNearbyFarmers(context.Background(), DiscoveryQuery{Latitude: originLat, Longitude: originLon, RadiusKm: 20})
	require.NoError(t, err)
	assert.Len(t, wide, 2)

	tight, err := svc.FindNearbyFarmers(context.Background(), DiscoveryQuery{Latitude: originLat, Longitude: originLon, RadiusKm: 8})
	require.NoError(t, err)
	require.Len(t, tight, 1)
	assert.Equal(t, "Farm of near@example.com", tight[0].FarmName)
}

func TestFindNearbyFarmersUsesPlatformDefaultRadius(t *testing.T) {
	env := newTestEnv(t)
	env.createFarmer(t, "near@example.com", "9000000001", 19.1200, 72.9000, model.FarmerStatusApproved)
	admin := env.createUser(t, model.RoleSuperAdmin, "admin@example.com", "9999999999", true)

	// shrink the platform default below the ~6km distance of the fixture
	_, err := env.adminService().UpdateSetting(context.Background(), admin.ID, UpdateSettingRequest{
		Key:   model.SettingDefaultSearchRadiusKm,
		Value: "3",
	})
	require.NoError(t, err)

	results, err := env.discoveryService().FindNearbyFarmers(context.Background(), DiscoveryQuery{
		Latitude:  originLat,
		Longitude: originLon,
	})
	require.NoError(t, err)
	assert.Empty(t, results, "zero radius falls back to the configured default")
}

func TestFindNearbyFarmersRejectsBadInput(t *testing.T) {
	env := newTestEnv(t)
	svc := env.discoveryService()

	_, err := svc.FindNearbyFarmers(context.Background(), DiscoveryQuery{Latitude: 95, Longitude: 72.9, RadiusKm: 10})
	assert.ErrorIs(t, err, ErrInvalidCoordinates)

	_, err = svc.FindNearbyFarmers(context.Background(), DiscoveryQuery{Latitude: 19.0, Longitude: 72.9, RadiusKm: -5})
	assert.ErrorIs(t, err, ErrInvalidRadius)
}

func TestFindNearbyFarmersRejectsNonFiniteInput(t *testing.T) {
	env := newTestEnv(t)
	svc := env.discoveryService()

	// ParseFloat accepts "NaN" and "Inf" query strings, so these reach the
	// service as real float values and must not fall through the range checks.
	_, err := svc.FindNearbyFarmers(context.Background(), DiscoveryQuery{Latitude: 19.0, Longitude: 72.9, RadiusKm: math.NaN()})
	assert.ErrorIs(t, err, ErrInvalidRadius)

	_, err = svc.FindNearbyFarmers(context.Background(), DiscoveryQuery{Latitude: 19.0, Longitude: 72.9, RadiusKm: math.Inf(1)})
	assert.ErrorIs(t, err, ErrInvalidRadius)

	_, err = svc.FindNearbyFarmers(context.Background(), DiscoveryQuery{Latitude: math.NaN(), Longitude: 72.9, RadiusKm: 10})
	assert.ErrorIs(t, err, ErrInvalidCoordinates)

	_, err = svc.FindNearbyFarmers(context.Background(), DiscoveryQuery{Latitude: 19.0, Longitude: math.Inf(1), RadiusKm: 10})
	assert.ErrorIs(t, err, ErrInvalidCoordinates)
}

func TestFindNearbyFarmersCountsAvailableProducts(t *testing.T) {
	env := newTestEnv(t)
	_, profile := env.createFarmer(t, "near@example.com", "9000000001", 19.1200, 72.9000, model.FarmerStatusApproved)
	milk := env.categoryByName(t, "Milk")

	require.NoError(t, env.db.Create(&model.Product{
		FarmerID: profile.ID, CategoryID: milk.ID, Name: "Cow Milk",
		Price: decimal.NewFromInt(60), Unit: "litre", IsAvailable: true,
	}).Error)
	require.NoError(t, env.db.Create(&model.Product{
		FarmerID: profile.ID, CategoryID: milk.ID, Name: "Buffalo Milk",
		Price: decimal.NewFromInt(80), Unit: "litre", IsAvailable: false,
	}).Error)

	results, err := env.discoveryService().FindNearbyFarmers(context.Background(), DiscoveryQuery{
		Latitude: originLat, Longitude: originLon, RadiusKm: 20,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.EqualValues(t, 1, results[0].ProductCount, "only available products count")
}

func TestFindFarmersByCategory(t *testing.T) {
	env := newTestEnv(t)
	_, withMilk := env.createFarmer(t, "milk@example.com", "9000000001", 19.1200, 72.9000, model.FarmerStatusApproved)
	_, withGhee := env.createFarmer(t, "ghee@example.com", "9000000002", 19.1300, 72.9000, model.FarmerStatusApproved)
	milk := env.categoryByName(t, "Milk")
	ghee := env.categoryByName(t, "Ghee")

	require.NoError(t, env.db.Create(&model.Product{
		FarmerID: withMilk.ID, CategoryID: milk.ID, Name: "Cow Milk",
		Price: decimal.NewFromInt(60), Unit: "litre", IsAvailable: true,
	}).Error)
	require.NoError(t, env.db.Create(&model.Product{
		FarmerID: withGhee.ID, CategoryID: ghee.ID, Name: "Desi Ghee",
		Price: decimal.NewFromInt(700), Unit: "kg", IsAvailable: true,
	}).Error)

	results, err := env.discoveryService().FindFarmersByCategory(context.Background(), milk.ID, DiscoveryQuery{
		Latitude: originLat, Longitude: originLon, RadiusKm: 20,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, withMilk.ID.String(), results[0].FarmerID)
}

func TestFindFarmersByCategoryStillAppliesRadius(t *testing.T) {
	env := newTestEnv(t)
	_, farAway := env.createFarmer(t, "milk@example.com", "9000000001", 19.9000, 73.5000, model.FarmerStatusApproved)
	milk := env.categoryByName(t, "Milk")

	require.NoError(t, env.db.Create(&model.Product{
		FarmerID: farAway.ID, CategoryID: milk.ID, Name: "Cow Milk",
		Price: decimal.NewFromInt(60), Unit: "litre", IsAvailable: true,
	}).Error)

	results, err := env.discoveryService().FindFarmersByCategory(context.Background(), milk.ID, DiscoveryQuery{
		Latitude: originLat, Longitude: originLon, RadiusKm: 20,
	})
	require.NoError(t, err)
	assert.Empty(t, results, "category matches outside the radius stay hidden")
}

func TestFindFarmersByUnknownCategory(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.discoveryService().FindFarmersByCategory(context.Background(), uuid.New(), DiscoveryQuery{
		Latitude: originLat, Longitude: originLon, RadiusKm: 20,
	})
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}
