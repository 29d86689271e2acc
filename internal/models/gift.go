package models

import "gorm.io/gorm"

// Gift reservation state is carried by three columns that must stay
// mutually consistent: Available, TakenBy and IsGroupGift. An available
// gift has no holder and no active participations. A group gift keeps the
// original reserver in TakenBy; further participants live in
// GiftParticipation rows.
type Gift struct {
	gorm.Model

	ListID      uint   `gorm:"not null;index"`
	Name        string `gorm:"not null"`
	Description string `gorm:"type:text"`
	Link        string
	Image       string
	Cost        *float64
	Currency    string `gorm:"size:3"`
	Year        int    `gorm:"not null;index"`

	Available   bool   `gorm:"not null;default:true"`
	TakenBy     *uint  `gorm:"index"`
	IsGroupGift bool   `gorm:"not null;default:false"`
	Comment     string `gorm:"type:text"`

	// Relationships
	List           GiftList            `gorm:"foreignKey:ListID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	TakenByUser    *User               `gorm:"foreignKey:TakenBy"`
	Participations []GiftParticipation `gorm:"foreignKey:GiftID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
