package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PayoutRound is one revenue-distribution event. TotalAmount and
// SharesSnapshot are immutable after creation; the snapshot decouples later
// share issuance from this round's payout math.
type PayoutRound struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	PropertyID     uint64    `gorm:"column:property_id;not null;uniqueIndex:idx_round_prop_round" json:"property_id"`
	RoundID        uint64    `gorm:"column:round_id;not null;uniqueIndex:idx_round_prop_round" json:"round_id"`
	TotalAmount    uint64    `gorm:"column:total_amount;not null" json:"total_amount"`
	SharesSnapshot uint64    `gorm:"column:shares_snapshot;not null" json:"shares_snapshot"`
	DistributedAt  time.Time `gorm:"column:distributed_at;not null" json:"distributed_at"`
	CreatedAt      time.Time `gorm:"column:createdAt" json:"createdAt"`
}

func (PayoutRound) TableName() string {
	return "PayoutRounds"
}

func (r *PayoutRound) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// ClaimRecord marks (property_id, round_id, holder) as claimed. Existence of
// the row is the claimed flag; it is never deleted or reset. Amount is the
// entitlement paid at claim time (may be zero for zero-share holders).
type ClaimRecord struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	PropertyID uint64    `gorm:"column:property_id;not null;uniqueIndex:idx_claim_prop_round_holder" json:"property_id"`
	RoundID    uint64    `gorm:"column:round_id;not null;uniqueIndex:idx_claim_prop_round_holder" json:"round_id"`
	Holder     string    `gorm:"column:holder;type:varchar(128);not null;uniqueIndex:idx_claim_prop_round_holder" json:"holder"`
	Amount     uint64    `gorm:"column:amount;not null" json:"amount"`
	ClaimedAt  time.Time `gorm:"column:claimed_at;not null" json:"claimed_at"`
	CreatedAt  time.Time `gorm:"column:createdAt" json:"createdAt"`
}

func (ClaimRecord) TableName() string {
	return "ClaimRecords"
}

func (cr *ClaimRecord) BeforeCreate(tx *gorm.DB) error {
	if cr.ID == uuid.Nil {
		cr.ID = uuid.New()
	}
	return nil
}
