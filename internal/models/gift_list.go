package models

import "gorm.io/gorm"

type GiftList struct {
	gorm.Model

	Name   string `gorm:"not null"`
	UserID uint   `gorm:"not null;uniqueIndex"`

	// Relationships
	User  User   `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Gifts []Gift `gorm:"foreignKey:ListID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
