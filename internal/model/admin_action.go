package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Moderation action enum constants
const (
	ActionApproveFarmer = "APPROVE"
	ActionRejectFarmer  = "REJECT"
	ActionUpdateSetting = "UPDATE_SETTING"
)

// AdminAction tracks Who, What, and When for moderation decisions.
// Append-only: one row per admin action, never updated.
type AdminAction struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AdminID    uuid.UUID `gorm:"type:uuid;not null;index" json:"admin_id"`
	Admin      User      `gorm:"foreignKey:AdminID" json:"admin,omitempty"`
	TargetID   uuid.UUID `gorm:"type:uuid;not null;index" json:"target_id"`
	ActionType string    `gorm:"type:varchar(30);not null;index" json:"action_type"`
	Reason     *string   `gorm:"type:text" json:"reason"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

func (a *AdminAction) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
