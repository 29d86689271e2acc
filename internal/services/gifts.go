package services

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/nawel-dev/nawel/internal/models"
	"github.com/nawel-dev/nawel/internal/types"
)

// GiftService owns gift CRUD and the year-to-year import. Writes are
// restricted to the list owner, or to a same-family adult managing a child's
// list (delegated ownership).
type GiftService struct {
	db  *gorm.DB
	log *logrus.Logger
}

func NewGiftService(db *gorm.DB, log *logrus.Logger) *GiftService {
	return &GiftService{db: db, log: log}
}

type GiftInput struct {
	Name        string
	Description string
	URL         string
	ImageURL    string
	Price       *float64
	Currency    string
	IsGroupGift bool
	Year        int
}

type GiftUpdate struct {
	Name        *string
	Description *string
	URL         *string
	ImageURL    *string
	Price       *float64
	Currency    *string
	IsGroupGift *bool
}

// ListYears returns the distinct years present in the user's list, always
// including the current year.
func (s *GiftService) ListYears(ctx context.Context, userID uint) ([]int, error) {
	currentYear := time.Now().Year()

	list, err := s.listForUser(ctx, userID)

	if err != nil {
		if errors.Is(err, ErrListNotFound) {
			return []int{currentYear}, nil
		}
		return nil, err
	}

	var years []int

	err = s.db.WithContext(ctx).Model(&models.Gift{}).
		Distinct("year").
		Where("list_id = ?", list.ID).
		Order("year DESC").
		Pluck("year", &years).Error

	if err != nil {
		return nil, err
	}

	for _, y := range years {
		if y == currentYear {
			return years, nil
		}
	}

	return append([]int{currentYear}, years...), nil
}

// ListGifts returns the projected gifts of ownerID's list for a year, shaped
// for viewerID. The owner's own view comes back redacted.
func (s *GiftService) ListGifts(ctx context.Context, ownerID, viewerID uint, year int) ([]types.GiftResponse, error) {
	list, err := s.listForUser(ctx, ownerID)

	if err != nil {
		return nil, err
	}

	var gifts []models.Gift

	err = s.db.WithContext(ctx).
		Preload("TakenByUser").
		Preload("Participations", "is_active = ?", true).
		Preload("Participations.User").
		Where("list_id = ? AND year = ?", list.ID, year).
		Order("name").
		Find(&gifts).Error

	if err != nil {
		return nil, err
	}

	ownerView := viewerID == ownerID
	responses := make([]types.GiftResponse, 0, len(gifts))

	for i := range gifts {
		responses = append(responses, BuildGiftResponse(&gifts[i], ownerView))
	}

	return responses, nil
}

// GetGift returns the projection of a single gift for viewerID.
func (s *GiftService) GetGift(ctx context.Context, giftID, viewerID uint) (*types.GiftResponse, error) {
	var gift models.Gift

	err := s.db.WithContext(ctx).
		Preload("List").
		Preload("TakenByUser").
		Preload("Participations", "is_active = ?", true).
		Preload("Participations.User").
		First(&gift, giftID).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGiftNotFound
		}
		return nil, err
	}

	resp := BuildGiftResponse(&gift, gift.List.UserID == viewerID)
	return &resp, nil
}

// CreateGift adds a gift to ownerID's list, creating the list on first use.
// actorID must be the owner or a delegated manager.
func (s *GiftService) CreateGift(ctx context.Context, ownerID, actorID uint, input GiftInput) (*types.GiftResponse, error) {
	if input.Name == "" {
		return nil, ErrValidation
	}

	if err := s.checkDelegation(ctx, ownerID, actorID); err != nil {
		return nil, err
	}

	year := input.Year

	if year == 0 {
		year = time.Now().Year()
	}

	var gift models.Gift

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		list, err := s.ensureList(tx, ownerID)

		if err != nil {
			return err
		}

		gift = models.Gift{
			ListID:      list.ID,
			Name:        input.Name,
			Description: input.Description,
			Link:        input.URL,
			Image:       input.ImageURL,
			Cost:        input.Price,
			Currency:    input.Currency,
			Year:        year,
			Available:   true,
			IsGroupGift: input.IsGroupGift,
		}

		return tx.Create(&gift).Error
	})

	if err != nil {
		return nil, err
	}

	resp := BuildGiftResponse(&gift, actorID == ownerID)
	return &resp, nil
}

// UpdateGift patches gift metadata. The group flag only changes while the
// gift is still available; once reserved it belongs to the reservation
// engine.
func (s *GiftService) UpdateGift(ctx context.Context, giftID, actorID uint, update GiftUpdate) (*types.GiftResponse, error) {
	var gift models.Gift

	err := s.db.WithContext(ctx).Preload("List").First(&gift, giftID).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGiftNotFound
		}
		return nil, err
	}

	if err := s.checkDelegation(ctx, gift.List.UserID, actorID); err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})

	if update.Name != nil {
		if *update.Name == "" {
			return nil, ErrValidation
		}
		updates["name"] = *update.Name
	}

	if update.Description != nil {
		updates["description"] = *update.Description
	}

	if update.URL != nil {
		updates["link"] = *update.URL
	}

	if update.ImageURL != nil {
		updates["image"] = *update.ImageURL
	}

	if update.Price != nil {
		updates["cost"] = *update.Price
	}

	if update.Currency != nil {
		updates["currency"] = *update.Currency
	}

	if update.IsGroupGift != nil && gift.Available {
		updates["is_group_gift"] = *update.IsGroupGift
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&gift).Updates(updates).Error; err != nil {
			return nil, err
		}
	}

	return s.GetGift(ctx, giftID, actorID)
}

func (s *GiftService) DeleteGift(ctx context.Context, giftID, actorID uint) error {
	var gift models.Gift

	err := s.db.WithContext(ctx).Preload("List").First(&gift, giftID).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrGiftNotFound
		}
		return err
	}

	if err := s.checkDelegation(ctx, gift.List.UserID, actorID); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Delete(&gift).Error
}

// ImportFromYear copies the user's still-available gifts from sourceYear
// into targetYear as fresh, unreserved rows. The source year is never
// touched. Returns the number of gifts copied.
func (s *GiftService) ImportFromYear(ctx context.Context, userID uint, sourceYear, targetYear int) (int, error) {
	if sourceYear >= targetYear {
		return 0, ErrValidation
	}

	list, err := s.listForUser(ctx, userID)

	if err != nil {
		return 0, err
	}

	var sources []models.Gift

	err = s.db.WithContext(ctx).
		Where("list_id = ? AND year = ? AND available = ?", list.ID, sourceYear, true).
		Find(&sources).Error

	if err != nil {
		return 0, err
	}

	if len(sources) == 0 {
		return 0, nil
	}

	copies := make([]models.Gift, 0, len(sources))

	for _, g := range sources {
		copies = append(copies, models.Gift{
			ListID:      list.ID,
			Name:        g.Name,
			Description: g.Description,
			Link:        g.Link,
			Image:       g.Image,
			Cost:        g.Cost,
			Currency:    g.Currency,
			Year:        targetYear,
			Available:   true,
			IsGroupGift: g.IsGroupGift,
		})
	}

	if err := s.db.WithContext(ctx).Create(&copies).Error; err != nil {
		return 0, err
	}

	s.log.WithFields(logrus.Fields{
		"user_id":     userID,
		"source_year": sourceYear,
		"target_year": targetYear,
		"count":       len(copies),
	}).Info("imported gifts from previous year")

	return len(copies), nil
}

// ListChildGifts returns a child's list for a managing adult. The target
// must be a child account and the caller a same-family adult; the caller is
// not the owner, so the standard unredacted projection applies.
func (s *GiftService) ListChildGifts(ctx context.Context, childID, actorID uint, year int) ([]types.GiftResponse, error) {
	if childID == actorID {
		return nil, ErrForbidden
	}

	var child models.User

	if err := s.db.WithContext(ctx).First(&child, childID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if !child.IsChildren {
		return nil, ErrValidation
	}

	if err := s.checkDelegation(ctx, childID, actorID); err != nil {
		return nil, err
	}

	return s.ListGifts(ctx, childID, actorID, year)
}

// checkDelegation allows the owner, or a same-family adult acting for a
// child's list.
func (s *GiftService) checkDelegation(ctx context.Context, ownerID, actorID uint) error {
	if ownerID == actorID {
		return nil
	}

	var owner, actor models.User

	if err := s.db.WithContext(ctx).First(&owner, ownerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if err := s.db.WithContext(ctx).First(&actor, actorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if owner.IsChildren && !actor.IsChildren && owner.FamilyID == actor.FamilyID {
		return nil
	}

	return ErrForbidden
}

func (s *GiftService) listForUser(ctx context.Context, userID uint) (*models.GiftList, error) {
	var list models.GiftList

	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&list).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListNotFound
		}
		return nil, err
	}

	return &list, nil
}

func (s *GiftService) ensureList(tx *gorm.DB, userID uint) (*models.GiftList, error) {
	var list models.GiftList

	err := tx.Where("user_id = ?", userID).First(&list).Error

	if err == nil {
		return &list, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var owner models.User

	if err := tx.First(&owner, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	list = models.GiftList{Name: owner.DisplayName(), UserID: userID}

	if err := tx.Create(&list).Error; err != nil {
		return nil, err
	}

	return &list, nil
}
