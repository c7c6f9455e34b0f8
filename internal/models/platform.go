package models

import "time"

// PlatformFeeBps is the platform fee in basis points (2.5%). Informational:
// no money-movement path deducts it.
const PlatformFeeBps uint64 = 250

// Platform is the single global configuration row. Admin is fixed at genesis
// (seeded from config on first startup) and not rotatable.
type Platform struct {
	ID        uint      `gorm:"column:id;primaryKey" json:"id"`
	Admin     string    `gorm:"column:admin;type:varchar(128);not null" json:"admin"`
	Treasury  string    `gorm:"column:treasury;type:varchar(128)" json:"treasury"`
	Paused    bool      `gorm:"column:paused;not null;default:false" json:"paused"`
	CreatedAt time.Time `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updatedAt" json:"updatedAt"`
}

func (Platform) TableName() string {
	return "Platform"
}
