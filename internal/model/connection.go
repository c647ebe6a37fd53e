package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// FarmerRequest status enum constants
const (
	RequestStatusPending  = "pending"
	RequestStatusAccepted = "accepted"
	RequestStatusRejected = "rejected"
)

// FarmerRequest is a consumer-to-farmer connection request. Status transitions
// once, pending -> accepted or pending -> rejected, via the farmer's response.
type FarmerRequest struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	FarmerID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"farmer_id"`
	Farmer          FarmerProfile   `gorm:"foreignKey:FarmerID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	ConsumerID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"consumer_id"`
	Consumer        ConsumerProfile `gorm:"foreignKey:ConsumerID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Status          string          `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	ProductInterest string          `gorm:"type:varchar(255);not null" json:"product_interest"`
	Quantity        decimal.Decimal `gorm:"type:numeric(12,3)" json:"quantity"`
	Message         string          `gorm:"type:text" json:"message"`
	FarmerResponse  string          `gorm:"type:text" json:"farmer_response"`
	ResponseAt      *time.Time      `json:"response_at"`
	CreatedAt       time.Time       `gorm:"index" json:"created_at"`
}

func (r *FarmerRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// Connection is the materialized farmer-consumer link created when a request
// is accepted. At most one per farmer/consumer pair.
type Connection struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	FarmerID          uuid.UUID       `gorm:"type:uuid;not null;index:idx_connection_pair,unique" json:"farmer_id"`
	Farmer            FarmerProfile   `gorm:"foreignKey:FarmerID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	ConsumerID        uuid.UUID       `gorm:"type:uuid;not null;index:idx_connection_pair,unique" json:"consumer_id"`
	Consumer          ConsumerProfile `gorm:"foreignKey:ConsumerID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Notes             string          `gorm:"type:text" json:"notes"`
	LastInteractionAt time.Time       `json:"last_interaction_at"`
	CreatedAt         time.Time       `json:"created_at"`
}

func (c *Connection) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
