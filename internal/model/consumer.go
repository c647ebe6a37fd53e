package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ConsumerProfile status enum constants
const (
	ConsumerStatusDraft  = "draft"
	ConsumerStatusActive = "active"
)

// ConsumerProfile is the 1:1 extension of a consumer user with the location
// used as the default center for nearby-farmer discovery.
type ConsumerProfile struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID            uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	User              User      `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Address           string    `gorm:"type:text" json:"address"`
	Latitude          *float64  `json:"latitude"`
	Longitude         *float64  `json:"longitude"`
	PreferredRadiusKm float64   `gorm:"not null;default:25" json:"preferred_radius_km"`
	Status            string    `gorm:"type:varchar(20);not null;default:'draft'" json:"status"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (p *ConsumerProfile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
