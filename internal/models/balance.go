package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ShareBalance maps (property_id, holder) to the holder's share count.
// Rows are created on first mint/receive; a missing row reads as zero.
type ShareBalance struct {
	BalanceID  uuid.UUID `gorm:"column:balance_id;type:uuid;primaryKey" json:"balance_id"`
	PropertyID uint64    `gorm:"column:property_id;not null;uniqueIndex:idx_balance_prop_holder" json:"property_id"`
	Holder     string    `gorm:"column:holder;type:varchar(128);not null;uniqueIndex:idx_balance_prop_holder" json:"holder"`
	Shares     uint64    `gorm:"column:shares;not null;default:0" json:"shares"`
	CreatedAt  time.Time `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt  time.Time `gorm:"column:updatedAt" json:"updatedAt"`
}

func (ShareBalance) TableName() string {
	return "ShareBalances"
}

func (b *ShareBalance) BeforeCreate(tx *gorm.DB) error {
	if b.BalanceID == uuid.Nil {
		b.BalanceID = uuid.New()
	}
	return nil
}
