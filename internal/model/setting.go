package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Well-known platform setting keys
const (
	SettingDefaultSearchRadiusKm = "default_search_radius_km"
	SettingMaxDeliveryRadiusKm   = "max_delivery_radius_km"
	SettingSupportEmail          = "support_email"
)

// PlatformSetting is an admin-managed key/value pair for platform behavior
type PlatformSetting struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Key       string     `gorm:"type:varchar(100);uniqueIndex;not null" json:"key"`
	Value     string     `gorm:"type:text;not null" json:"value"`
	UpdatedBy *uuid.UUID `gorm:"type:uuid" json:"updated_by"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (s *PlatformSetting) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
