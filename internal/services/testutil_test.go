package services

import (
	"io"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/nawel-dev/nawel/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}

	// A fresh pool connection would see an empty in-memory database, so the
	// pool is pinned to a single connection.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap test database: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.Family{},
		&models.User{},
		&models.GiftList{},
		&models.Gift{},
		&models.GiftParticipation{},
	)
	if err != nil {
		t.Fatalf("migrate test database: %v", err)
	}

	return db
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func createFamily(t *testing.T, db *gorm.DB, name string) *models.Family {
	t.Helper()

	family := models.Family{Name: name}
	if err := db.Create(&family).Error; err != nil {
		t.Fatalf("create family: %v", err)
	}

	return &family
}

func createUser(t *testing.T, db *gorm.DB, familyID uint, login, password string) *models.User {
	t.Helper()

	user := models.User{
		Login:    login,
		Password: password,
		Email:    login + "@example.com",
		FamilyID: familyID,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user %s: %v", login, err)
	}

	return &user
}

func createList(t *testing.T, db *gorm.DB, userID uint) *models.GiftList {
	t.Helper()

	list := models.GiftList{Name: "list", UserID: userID}
	if err := db.Create(&list).Error; err != nil {
		t.Fatalf("create list: %v", err)
	}

	return &list
}

func createGift(t *testing.T, db *gorm.DB, listID uint, name string, year int) *models.Gift {
	t.Helper()

	gift := models.Gift{
		ListID:    listID,
		Name:      name,
		Year:      year,
		Available: true,
	}
	if err := db.Create(&gift).Error; err != nil {
		t.Fatalf("create gift %s: %v", name, err)
	}

	return &gift
}

func reloadGift(t *testing.T, db *gorm.DB, giftID uint) *models.Gift {
	t.Helper()

	var gift models.Gift
	if err := db.First(&gift, giftID).Error; err != nil {
		t.Fatalf("reload gift: %v", err)
	}

	return &gift
}

func activeParticipants(t *testing.T, db *gorm.DB, giftID uint) []models.GiftParticipation {
	t.Helper()

	var rows []models.GiftParticipation
	err := db.Where("gift_id = ? AND is_active = ?", giftID, true).
		Order("id").
		Find(&rows).Error
	if err != nil {
		t.Fatalf("load participations: %v", err)
	}

	return rows
}

// checkGiftInvariant asserts the availability invariant: a gift is available
// exactly when it has no holder and no active participations.
func checkGiftInvariant(t *testing.T, db *gorm.DB, giftID uint) {
	t.Helper()

	gift := reloadGift(t, db, giftID)
	active := activeParticipants(t, db, giftID)

	if gift.Available {
		if gift.TakenBy != nil {
			t.Fatalf("available gift %d has taken_by = %d", giftID, *gift.TakenBy)
		}
		if gift.IsGroupGift {
			t.Fatalf("available gift %d still flagged as group gift", giftID)
		}
		if len(active) != 0 {
			t.Fatalf("available gift %d has %d active participations", giftID, len(active))
		}
		return
	}

	if gift.TakenBy == nil && len(active) == 0 {
		t.Fatalf("unavailable gift %d has no holder and no active participations", giftID)
	}
}
