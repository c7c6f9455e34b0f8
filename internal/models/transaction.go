package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Ledger transaction types.
const (
	TxMint       = "mint"
	TxTransfer   = "transfer"
	TxDistribute = "distribute"
	TxClaim      = "claim"
)

// LedgerTransaction is the append-only audit trail for share and settlement
// movements. Amount is shares for mint/transfer and currency units for
// distribute/claim; EventData carries type-specific context.
type LedgerTransaction struct {
	TxID          uuid.UUID      `gorm:"column:tx_id;type:uuid;primaryKey" json:"tx_id"`
	Type          string         `gorm:"column:type;type:varchar(20);not null" json:"type"`
	PropertyID    uint64         `gorm:"column:property_id;not null;index" json:"property_id"`
	FromPrincipal *string        `gorm:"column:from_principal;type:varchar(128)" json:"from_principal"`
	ToPrincipal   *string        `gorm:"column:to_principal;type:varchar(128)" json:"to_principal"`
	Amount        uint64         `gorm:"column:amount;not null" json:"amount"`
	RoundID       *uint64        `gorm:"column:round_id" json:"round_id"`
	EventData     datatypes.JSON `gorm:"column:event_data" json:"event_data"`
	CreatedAt     time.Time      `gorm:"column:createdAt" json:"createdAt"`
}

func (LedgerTransaction) TableName() string {
	return "LedgerTransactions"
}

func (t *LedgerTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.TxID == uuid.Nil {
		t.TxID = uuid.New()
	}
	return nil
}
