package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Share reservation status values.
const (
	ReservationPending   = "pending"
	ReservationConfirmed = "confirmed"
	ReservationExpired   = "expired"
)

// ShareReservation is the first phase of the reserve-then-confirm purchase
// rail: pending reservations count against remaining supply until the payment
// webhook confirms them or they expire.
type ShareReservation struct {
	ReservationID   uuid.UUID `gorm:"column:reservation_id;type:uuid;primaryKey" json:"reservation_id"`
	PropertyID      uint64    `gorm:"column:property_id;not null;index" json:"property_id"`
	Buyer           string    `gorm:"column:buyer;type:varchar(128);not null" json:"buyer"`
	Shares          uint64    `gorm:"column:shares;not null" json:"shares"`
	AmountCents     uint64    `gorm:"column:amount_cents;not null" json:"amount_cents"`
	Status          string    `gorm:"column:status;type:varchar(16);not null;default:pending" json:"status"`
	PaymentIntentID *string   `gorm:"column:payment_intent_id;type:varchar(128);uniqueIndex" json:"payment_intent_id"`
	ExpiresAt       time.Time `gorm:"column:expires_at;not null" json:"expires_at"`
	CreatedAt       time.Time `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt       time.Time `gorm:"column:updatedAt" json:"updatedAt"`
}

func (ShareReservation) TableName() string {
	return "ShareReservations"
}

func (r *ShareReservation) BeforeCreate(tx *gorm.DB) error {
	if r.ReservationID == uuid.Nil {
		r.ReservationID = uuid.New()
	}
	return nil
}
