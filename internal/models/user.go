package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	gorm.Model

	Login     string `gorm:"uniqueIndex;not null"`
	Password  string `gorm:"not null"` // bcrypt, or 32-hex MD5 pending migration
	Email     string `gorm:"index"`
	FirstName string
	Pseudo    string
	Avatar    string `gorm:"default:avatar.png"`

	IsAdmin    bool `gorm:"default:false"`
	IsChildren bool `gorm:"default:false"`
	FamilyID   uint `gorm:"not null;index"`

	NotifyListEdit  bool `gorm:"default:false"`
	NotifyGiftTaken bool `gorm:"default:false"`

	ResetToken  *string `gorm:"index"`
	TokenExpiry *time.Time

	// Relationships
	Family         Family              `gorm:"foreignKey:FamilyID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	List           *GiftList           `gorm:"foreignKey:UserID"`
	TakenGifts     []Gift              `gorm:"foreignKey:TakenBy"`
	Participations []GiftParticipation `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}

// DisplayName is what other family members see next to reservations.
func (u *User) DisplayName() string {
	if u.FirstName != "" {
		return u.FirstName
	}
	return u.Login
}
