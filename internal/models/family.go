package models

import "gorm.io/gorm"

type Family struct {
	gorm.Model

	Name string `gorm:"not null"`

	// Relationships
	Users []User `gorm:"foreignKey:FamilyID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
