package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FarmerProfile status enum constants
const (
	FarmerStatusDraft    = "draft"
	FarmerStatusPending  = "pending"
	FarmerStatusApproved = "approved"
	FarmerStatusRejected = "rejected"
)

// FarmerProfile is the 1:1 extension of a farmer user: farm identity, location
// and delivery range. Status is mutated only by admin approve/reject actions.
type FarmerProfile struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	User             User      `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	FarmName         string    `gorm:"type:varchar(255);not null" json:"farm_name"`
	Address          string    `gorm:"type:text" json:"address"`
	Latitude         *float64  `json:"latitude"`
	Longitude        *float64  `json:"longitude"`
	DeliveryRadiusKm float64   `gorm:"not null;default:10" json:"delivery_radius_km"`
	Status           string    `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (p *FarmerProfile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// FarmerDocs stores the proof documents backing a farmer profile.
// Keyed by FarmerProfile.ID, not User.ID.
type FarmerDocs struct {
	ID               uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	FarmerID         uuid.UUID     `gorm:"type:uuid;uniqueIndex;not null" json:"farmer_id"`
	Farmer           FarmerProfile `gorm:"foreignKey:FarmerID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	FarmImageURL     string        `gorm:"type:text" json:"farm_image_url"`
	FarmerImageURL   string        `gorm:"type:text" json:"farmer_image_url"`
	FarmerProofDoc   string        `gorm:"type:text;column:farmer_proof_doc_url" json:"farmer_proof_doc_url"`
	IsDocVerified    bool          `gorm:"not null;default:false" json:"is_doc_verified"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

func (d *FarmerDocs) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
