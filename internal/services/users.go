package services

import (
	"context"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/nawel-dev/nawel/internal/models"
)

type UserService struct {
	db  *gorm.DB
	log *logrus.Logger
}

func NewUserService(db *gorm.DB, log *logrus.Logger) *UserService {
	return &UserService{db: db, log: log}
}

// FamilyMembers returns the family's users ordered by login, without the
// excluded user.
func (s *UserService) FamilyMembers(ctx context.Context, familyID, excludeUserID uint) ([]models.User, error) {
	var users []models.User

	err := s.db.WithContext(ctx).
		Where("family_id = ? AND id != ?", familyID, excludeUserID).
		Order("login").
		Find(&users).Error

	if err != nil {
		return nil, err
	}

	return users, nil
}
