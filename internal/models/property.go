package models

import (
	"time"
)

// Property status values. SoldOut is set automatically when shares_sold hits
// total_shares; Active/Paused are owner-driven.
const (
	PropertyStatusActive  = "active"
	PropertyStatusPaused  = "paused"
	PropertyStatusSoldOut = "sold_out"
)

// Property is one tokenized asset: registry record, sale state and payout
// round counter live on the same row so every state transition is a single
// row update inside one transaction.
type Property struct {
	PropertyID  uint64 `gorm:"column:property_id;primaryKey;autoIncrement" json:"property_id"`
	ContractRef string `gorm:"column:contract_ref;type:varchar(128);uniqueIndex;not null" json:"contract_ref"`
	Owner       string `gorm:"column:owner;type:varchar(128);not null" json:"owner"`
	Name        string `gorm:"column:name;type:varchar(64);not null" json:"name"`
	Symbol      string `gorm:"column:symbol;type:varchar(16);not null" json:"symbol"`
	Location    string `gorm:"column:location;type:varchar(128)" json:"location"`
	MetadataURI string `gorm:"column:metadata_uri;type:varchar(256)" json:"metadata_uri"`
	TotalShares uint64 `gorm:"column:total_shares;not null" json:"total_shares"`
	Status      string `gorm:"column:status;type:varchar(16);not null;default:active" json:"status"`

	// Sale state
	SharePrice  uint64 `gorm:"column:share_price;not null;default:0" json:"share_price"`
	MinPurchase uint64 `gorm:"column:min_purchase;not null;default:1" json:"min_purchase"`
	SaleActive  bool   `gorm:"column:sale_active;not null;default:false" json:"sale_active"`
	SharesSold  uint64 `gorm:"column:shares_sold;not null;default:0" json:"shares_sold"`

	// Payout configuration and round counter
	Oracle       string `gorm:"column:oracle;type:varchar(128)" json:"oracle"`
	CurrentRound uint64 `gorm:"column:current_round;not null;default:0" json:"current_round"`

	// Informational stats cache: owner-writable, never consulted by settlement math.
	TotalRaised    uint64     `gorm:"column:total_raised;not null;default:0" json:"total_raised"`
	TotalInvestors uint64     `gorm:"column:total_investors;not null;default:0" json:"total_investors"`
	LastPayout     *time.Time `gorm:"column:last_payout" json:"last_payout"`

	CreatedAt time.Time `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updatedAt" json:"updatedAt"`
}

func (Property) TableName() string {
	return "Properties"
}

// Paused reports the per-property pause switch (owner-driven status).
func (p *Property) Paused() bool {
	return p.Status == PropertyStatusPaused
}
