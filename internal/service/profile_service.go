package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"mime/multipart"

	"milkeyway/internal/geocode"
	"milkeyway/internal/model"
	"milkeyway/internal/repository"
	"milkeyway/internal/storage"
	ws "milkeyway/internal/websocket"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrWrongRole       = errors.New("operation not allowed for this role")
	ErrBadCoordinates  = errors.New("latitude/longitude out of range")
)

// --- DTOs ---

type FarmerProfileRequest struct {
	FarmName         string   `json:"farm_name" binding:"required"`
	Address          string   `json:"address" binding:"required"`
	Latitude         *float64 `json:"latitude" binding:"required"`
	Longitude        *float64 `json:"longitude" binding:"required"`
	DeliveryRadiusKm float64  `json:"delivery_radius_km" binding:"required,gt=0"`
}

type ConsumerProfileRequest struct {
	Address           string   `json:"address" binding:"required"`
	Latitude          *float64 `json:"latitude" binding:"required"`
	Longitude         *float64 `json:"longitude" binding:"required"`
	PreferredRadiusKm float64  `json:"preferred_radius_km" binding:"required,gt=0"`
}

type FarmerDocsUpload struct {
	FarmImage   *multipart.FileHeader
	FarmerImage *multipart.FileHeader
	ProofDoc    *multipart.FileHeader
}

type FarmerMeResponse struct {
	Profile        *model.FarmerProfile `json:"profile"`
	Docs           *model.FarmerDocs    `json:"docs,omitempty"`
	DisplayAddress string               `json:"display_address,omitempty"`
}

// ProfileService owns profile completion for both roles and document uploads
type ProfileService interface {
	UpsertFarmerProfile(ctx context.Context, userID uuid.UUID, req FarmerProfileRequest) (*model.FarmerProfile, error)
	UploadFarmerDocs(ctx context.Context, userID uuid.UUID, upload FarmerDocsUpload) (*model.FarmerDocs, error)
	GetFarmerMe(ctx context.Context, userID uuid.UUID) (*FarmerMeResponse, error)
	UpsertConsumerProfile(ctx context.Context, userID uuid.UUID, req ConsumerProfileRequest) (*model.ConsumerProfile, error)
	GetConsumerMe(ctx context.Context, userID uuid.UUID) (*model.ConsumerProfile, error)
}

type profileService struct {
	users     repository.UserRepository
	farmers   repository.FarmerRepository
	consumers repository.ConsumerRepository
	txm       repository.TransactionManager
	store     storage.Storage
	geocoder  geocode.Geocoder
	hub       *ws.Hub
}

func NewProfileService(
	users repository.UserRepository,
	farmers repository.FarmerRepository,
	consumers repository.ConsumerRepository,
	txm repository.TransactionManager,
	store storage.Storage,
	geocoder geocode.Geocoder,
	hub *ws.Hub,
) ProfileService {
	return &profileService{
		users:     users,
		farmers:   farmers,
		consumers: consumers,
		txm:       txm,
		store:     store,
		geocoder:  geocoder,
		hub:       hub,
	}
}

// UpsertFarmerProfile creates or updates the farm profile and moves it to
// pending review. The account stays draft until an admin approves.
func (s *profileService) UpsertFarmerProfile(ctx context.Context, userID uuid.UUID, req FarmerProfileRequest) (*model.FarmerProfile, error) {
	if !validCoords(req.Latitude, req.Longitude) {
		return nil, ErrBadCoordinates
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	if user.Role != model.RoleFarmer {
		return nil, ErrWrongRole
	}

	var profile *model.FarmerProfile
	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		existing, lookupErr := s.farmers.GetProfileByUserID(txCtx, userID)
		switch {
		case lookupErr == nil:
			existing.FarmName = req.FarmName
			existing.Address = req.Address
			existing.Latitude = req.Latitude
			existing.Longitude = req.Longitude
			existing.DeliveryRadiusKm = req.DeliveryRadiusKm
			existing.Status = model.FarmerStatusPending
			if err := s.farmers.UpdateProfile(txCtx, existing); err != nil {
				return fmt.Errorf("failed to update farmer profile: %w", err)
			}
			profile = existing
		case errors.Is(lookupErr, gorm.ErrRecordNotFound):
			profile = &model.FarmerProfile{
				UserID:           userID,
				FarmName:         req.FarmName,
				Address:          req.Address,
				Latitude:         req.Latitude,
				Longitude:        req.Longitude,
				DeliveryRadiusKm: req.DeliveryRadiusKm,
				Status:           model.FarmerStatusPending,
			}
			if err := s.farmers.CreateProfile(txCtx, profile); err != nil {
				return fmt.Errorf("failed to create farmer profile: %w", err)
			}
		default:
			return lookupErr
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.hub.BroadcastEvent(ws.EventProfileSubmitted, map[string]string{
		"farmer_id": profile.ID.String(),
		"farm_name": profile.FarmName,
	})
	return profile, nil
}

// UploadFarmerDocs stores the uploaded files and resets doc verification,
// since replacing documents invalidates any earlier review.
func (s *profileService) UploadFarmerDocs(ctx context.Context, userID uuid.UUID, upload FarmerDocsUpload) (*model.FarmerDocs, error) {
	profile, err := s.farmers.GetProfileByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}

	docs := &model.FarmerDocs{FarmerID: profile.ID, IsDocVerified: false}
	if existing, err := s.farmers.GetDocsByFarmerID(ctx, profile.ID); err == nil {
		docs.FarmImageURL = existing.FarmImageURL
		docs.FarmerImageURL = existing.FarmerImageURL
		docs.FarmerProofDoc = existing.FarmerProofDoc
	}

	if upload.FarmImage != nil {
		url, err := s.store.Save(upload.FarmImage, "farm-images")
		if err != nil {
			return nil, fmt.Errorf("failed to store farm image: %w", err)
		}
		docs.FarmImageURL = url
	}
	if upload.FarmerImage != nil {
		url, err := s.store.Save(upload.FarmerImage, "farmer-images")
		if err != nil {
			return nil, fmt.Errorf("failed to store farmer image: %w", err)
		}
		docs.FarmerImageURL = url
	}
	if upload.ProofDoc != nil {
		url, err := s.store.Save(upload.ProofDoc, "proof-docs")
		if err != nil {
			return nil, fmt.Errorf("failed to store proof document: %w", err)
		}
		docs.FarmerProofDoc = url
	}

	if err := s.farmers.UpsertDocs(ctx, docs); err != nil {
		return nil, fmt.Errorf("failed to save documents: %w", err)
	}
	return docs, nil
}

func (s *profileService) GetFarmerMe(ctx context.Context, userID uuid.UUID) (*FarmerMeResponse, error) {
	profile, err := s.farmers.GetProfileByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}

	resp := &FarmerMeResponse{Profile: profile}
	if docs, err := s.farmers.GetDocsByFarmerID(ctx, profile.ID); err == nil {
		resp.Docs = docs
	}

	// Display only; a geocoder outage never fails the request
	if s.geocoder != nil && profile.Latitude != nil && profile.Longitude != nil {
		if place, err := s.geocoder.Reverse(ctx, *profile.Latitude, *profile.Longitude); err == nil {
			resp.DisplayAddress = place.DisplayName
		} else {
			log.Printf("profile: reverse geocode failed for farmer %s: %v", profile.ID, err)
		}
	}
	return resp, nil
}

// UpsertConsumerProfile completes the consumer profile and activates the account.
func (s *profileService) UpsertConsumerProfile(ctx context.Context, userID uuid.UUID, req ConsumerProfileRequest) (*model.ConsumerProfile, error) {
	if !validCoords(req.Latitude, req.Longitude) {
		return nil, ErrBadCoordinates
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	if user.Role != model.RoleConsumer {
		return nil, ErrWrongRole
	}

	var profile *model.ConsumerProfile
	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		existing, lookupErr := s.consumers.GetProfileByUserID(txCtx, userID)
		switch {
		case lookupErr == nil:
			existing.Address = req.Address
			existing.Latitude = req.Latitude
			existing.Longitude = req.Longitude
			existing.PreferredRadiusKm = req.PreferredRadiusKm
			existing.Status = model.ConsumerStatusActive
			if err := s.consumers.UpdateProfile(txCtx, existing); err != nil {
				return fmt.Errorf("failed to update consumer profile: %w", err)
			}
			profile = existing
		case errors.Is(lookupErr, gorm.ErrRecordNotFound):
			profile = &model.ConsumerProfile{
				UserID:            userID,
				Address:           req.Address,
				Latitude:          req.Latitude,
				Longitude:         req.Longitude,
				PreferredRadiusKm: req.PreferredRadiusKm,
				Status:            model.ConsumerStatusActive,
			}
			if err := s.consumers.CreateProfile(txCtx, profile); err != nil {
				return fmt.Errorf("failed to create consumer profile: %w", err)
			}
		default:
			return lookupErr
		}

		// Completing the consumer profile activates the account
		user.Status = model.UserStatusActive
		if err := s.users.Update(txCtx, user); err != nil {
			return fmt.Errorf("failed to activate account: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *profileService) GetConsumerMe(ctx context.Context, userID uuid.UUID) (*model.ConsumerProfile, error) {
	profile, err := s.consumers.GetProfileByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return profile, nil
}

func validCoords(lat, lon *float64) bool {
	if lat == nil || lon == nil {
		return false
	}
	return *lat >= -90 && *lat <= 90 && *lon >= -180 && *lon <= 180
}
