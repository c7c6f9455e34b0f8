package models

import "time"

// Principal is an authenticated identity (investor, property owner, oracle or
// platform admin). Authorization is never role-based: every check compares the
// caller against the owner/admin/oracle field stored on the relevant record.
type Principal struct {
	PrincipalID  string    `gorm:"column:principal_id;type:varchar(128);primaryKey" json:"principal_id"`
	DisplayName  string    `gorm:"column:display_name;type:varchar(128)" json:"display_name"`
	PasswordHash string    `gorm:"column:password_hash;type:varchar(128)" json:"-"`
	CreatedAt    time.Time `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"column:updatedAt" json:"updatedAt"`
}

func (Principal) TableName() string {
	return "Principals"
}
