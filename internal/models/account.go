package models

import (
	"fmt"
	"time"
)

// Account holds a principal's settlement-currency balance in smallest units.
// Property escrow accounts use EscrowPrincipal(property_id); payout rounds
// credit escrow on distribute and claims move escrow to the holder, so
// rounding dust stays visible on the escrow row.
type Account struct {
	Principal string    `gorm:"column:principal;type:varchar(128);primaryKey" json:"principal"`
	Balance   uint64    `gorm:"column:balance;not null;default:0" json:"balance"`
	CreatedAt time.Time `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updatedAt" json:"updatedAt"`
}

func (Account) TableName() string {
	return "Accounts"
}

// EscrowPrincipal returns the settlement account id holding a property's
// undistributed payout funds.
func EscrowPrincipal(propertyID uint64) string {
	return fmt.Sprintf("escrow:property:%d", propertyID)
}
