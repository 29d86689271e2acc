package models

import "gorm.io/gorm"

// GiftParticipation rows are append-only: withdrawing flips IsActive to
// false and a later re-join inserts a fresh row. The partial unique index
// allows at most one active row per (gift, user) while keeping history.
type GiftParticipation struct {
	gorm.Model

	GiftID   uint `gorm:"not null;index:idx_gift_participation_active,unique,where:is_active"`
	UserID   uint `gorm:"not null;index:idx_gift_participation_active,unique,where:is_active"`
	IsActive bool `gorm:"not null;default:true"`

	// Relationships
	Gift Gift `gorm:"foreignKey:GiftID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	User User `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
