package service

import (
	"context"
	"errors"
	"math"
	"sort"

	"milkeyway/internal/model"
	"milkeyway/internal/repository"
	"milkeyway/pkg/geo"

	"github.com/google/uuid"
)

var (
	ErrInvalidCoordinates = errors.New("latitude and longitude must be valid numbers")
	ErrInvalidRadius      = errors.New("radius must be a positive number")
	ErrCategoryNotFound   = errors.New("category not found")
)

const fallbackSearchRadiusKm = 25.0

// --- DTOs ---

type DiscoveryQuery struct {
	Latitude  float64
	Longitude float64
	RadiusKm  float64 // 0 means "use the platform default"
}

type NearbyFarmer struct {
	FarmerID         string  `json:"farmer_id"`
	UserID           string  `json:"user_id"`
	FarmName         string  `json:"farm_name"`
	Address          string  `json:"address"`
	City             string  `json:"city"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	DeliveryRadiusKm float64 `json:"delivery_radius_km"`
	DistanceKm       float64 `json:"distance_km"` // rounded to 1 decimal
	ProductCount     int64   `json:"product_count"`
}

// DiscoveryService finds approved farmers around a consumer's location
type DiscoveryService interface {
	FindNearbyFarmers(ctx context.Context, q DiscoveryQuery) ([]NearbyFarmer, error)
	FindFarmersByCategory(ctx context.Context, categoryID uuid.UUID, q DiscoveryQuery) ([]NearbyFarmer, error)
}

type discoveryService struct {
	farmers  repository.FarmerRepository
	products repository.ProductRepository
	settings repository.SettingRepository
}

func NewDiscoveryService(
	farmers repository.FarmerRepository,
	products repository.ProductRepository,
	settings repository.SettingRepository,
) DiscoveryService {
	return &discoveryService{farmers: farmers, products: products, settings: settings}
}

// FindNearbyFarmers returns approved farmers within the radius, nearest first.
// Candidates are approved profiles with coordinates; distance uses the
// great-circle formula and each hit carries its available-product count.
func (s *discoveryService) FindNearbyFarmers(ctx context.Context, q DiscoveryQuery) ([]NearbyFarmer, error) {
	if err := s.normalize(ctx, &q); err != nil {
		return nil, err
	}

	candidates, err := s.farmers.ListApprovedWithCoords(ctx)
	if err != nil {
		return nil, err
	}
	return s.rank(ctx, candidates, q)
}

// FindFarmersByCategory applies the same distance pipeline restricted to
// farmers with at least one available product in the category.
func (s *discoveryService) FindFarmersByCategory(ctx context.Context, categoryID uuid.UUID, q DiscoveryQuery) ([]NearbyFarmer, error) {
	if err := s.normalize(ctx, &q); err != nil {
		return nil, err
	}

	if _, err := s.products.GetCategoryByID(ctx, categoryID); err != nil {
		return nil, ErrCategoryNotFound
	}

	candidates, err := s.farmers.ListApprovedWithCoordsByCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	return s.rank(ctx, candidates, q)
}

func (s *discoveryService) normalize(ctx context.Context, q *DiscoveryQuery) error {
	if !geo.ValidCoordinates(q.Latitude, q.Longitude) {
		return ErrInvalidCoordinates
	}
	// NaN slips past both the negative and the zero check below, and an
	// infinite radius would match every farmer on the platform.
	if math.IsNaN(q.RadiusKm) || math.IsInf(q.RadiusKm, 0) || q.RadiusKm < 0 {
		return ErrInvalidRadius
	}
	if q.RadiusKm == 0 {
		q.RadiusKm = s.settings.GetFloat(ctx, model.SettingDefaultSearchRadiusKm, fallbackSearchRadiusKm)
	}
	return nil
}

func (s *discoveryService) rank(ctx context.Context, candidates []model.FarmerProfile, q DiscoveryQuery) ([]NearbyFarmer, error) {
	type scored struct {
		profile  model.FarmerProfile
		distance float64
	}

	within := make([]scored, 0, len(candidates))
	ids := make([]uuid.UUID, 0, len(candidates))
	for _, p := range candidates {
		d := geo.Distance(q.Latitude, q.Longitude, *p.Latitude, *p.Longitude)
		if d <= q.RadiusKm {
			within = append(within, scored{profile: p, distance: d})
			ids = append(ids, p.ID)
		}
	}

	sort.Slice(within, func(i, j int) bool { return within[i].distance < within[j].distance })

	counts, err := s.products.CountAvailableByFarmers(ctx, ids)
	if err != nil {
		return nil, err
	}

	results := make([]NearbyFarmer, 0, len(within))
	for _, sc := range within {
		p := sc.profile
		results = append(results, NearbyFarmer{
			FarmerID:         p.ID.String(),
			UserID:           p.UserID.String(),
			FarmName:         p.FarmName,
			Address:          p.Address,
			City:             p.User.City,
			Latitude:         *p.Latitude,
			Longitude:        *p.Longitude,
			DeliveryRadiusKm: p.DeliveryRadiusKm,
			DistanceKm:       math.Round(sc.distance*10) / 10,
			ProductCount:     counts[p.ID],
		})
	}
	return results, nil
}
