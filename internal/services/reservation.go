package services

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/nawel-dev/nawel/internal/metrics"
	"github.com/nawel-dev/nawel/internal/models"
)

// ReservationService drives the gift reservation state machine. A gift is in
// one of three states: available, reserved solo (TakenBy set, IsGroupGift
// false) or reserved group (IsGroupGift true, TakenBy holding the original
// reserver, further holders in active participation rows). Every transition
// runs in a transaction that claims the gift's row first, so two operations
// on the same gift apply one after the other, never against the same
// observed state.
type ReservationService struct {
	db  *gorm.DB
	log *logrus.Logger
}

func NewReservationService(db *gorm.DB, log *logrus.Logger) *ReservationService {
	return &ReservationService{db: db, log: log}
}

// Reserve claims a gift for the user, or joins an existing reservation.
//
// Available gifts become reserved solo (group-intent gifts keep their flag).
// A gift already reserved solo by someone else converts to a group gift and
// the caller becomes its second holder. Group gifts gain one more active
// participation row. The list owner can never reserve their own gift, and a
// user holding or participating already cannot reserve twice.
func (s *ReservationService) Reserve(ctx context.Context, giftID, userID uint, comment string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		gift, err := lockGift(tx, giftID)

		if err != nil {
			return err
		}

		if err := s.checkReservable(tx, gift, userID); err != nil {
			return err
		}

		switch {
		case gift.Available:
			res := tx.Model(&models.Gift{}).
				Where("id = ? AND available = ?", giftID, true).
				Updates(map[string]interface{}{"available": false, "taken_by": userID})

			if res.Error != nil {
				return res.Error
			}

			if res.RowsAffected == 0 {
				metrics.ReservationConflicts.Inc()
				return ErrReservationConflict
			}

		case gift.IsGroupGift:
			if err := s.addParticipant(tx, giftID, userID); err != nil {
				return err
			}

		case gift.TakenBy != nil:
			// Solo reservation held by someone else: convert to a group gift.
			// The original holder stays in taken_by; only the newcomer gets a
			// participation row.
			res := tx.Model(&models.Gift{}).
				Where("id = ? AND is_group_gift = ? AND taken_by = ?", giftID, false, *gift.TakenBy).
				Update("is_group_gift", true)

			if res.Error != nil {
				return res.Error
			}

			if res.RowsAffected == 0 {
				metrics.ReservationConflicts.Inc()
				return ErrReservationConflict
			}

			if err := s.addParticipant(tx, giftID, userID); err != nil {
				return err
			}

		default:
			// Unavailable with no holder and no group flag cannot be reached
			// under the row lock; treated as a conflict all the same.
			metrics.ReservationConflicts.Inc()
			return ErrReservationConflict
		}

		return s.setComment(tx, giftID, comment)
	})
}

// Unreserve withdraws the user from a gift. The last holder leaving resets
// the gift to available with all reservation fields cleared. A group gift
// with holders remaining stays a group gift, even down to a single holder.
func (s *ReservationService) Unreserve(ctx context.Context, giftID, userID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		gift, err := lockGift(tx, giftID)

		if err != nil {
			return err
		}

		if gift.Available {
			return ErrNotReserved
		}

		isHolder := gift.TakenBy != nil && *gift.TakenBy == userID

		if !gift.IsGroupGift {
			if !isHolder {
				return ErrNotReserved
			}

			res := tx.Model(&models.Gift{}).
				Where("id = ? AND taken_by = ? AND is_group_gift = ?", giftID, userID, false).
				Updates(map[string]interface{}{"available": true, "taken_by": nil, "comment": ""})

			if res.Error != nil {
				return res.Error
			}

			if res.RowsAffected == 0 {
				metrics.ReservationConflicts.Inc()
				return ErrReservationConflict
			}

			return nil
		}

		if isHolder {
			res := tx.Model(&models.Gift{}).
				Where("id = ? AND taken_by = ?", giftID, userID).
				Update("taken_by", nil)

			if res.Error != nil {
				return res.Error
			}

			if res.RowsAffected == 0 {
				metrics.ReservationConflicts.Inc()
				return ErrReservationConflict
			}
		} else {
			res := tx.Model(&models.GiftParticipation{}).
				Where("gift_id = ? AND user_id = ? AND is_active = ?", giftID, userID, true).
				Update("is_active", false)

			if res.Error != nil {
				return res.Error
			}

			if res.RowsAffected == 0 {
				return ErrNotReserved
			}
		}

		return s.resetIfEmpty(tx, giftID)
	})
}

// resetIfEmpty returns a gift to available once it has neither a holder nor
// any active participants. Runs under the gift row lock taken by Unreserve,
// so the count cannot miss a join committing in parallel.
func (s *ReservationService) resetIfEmpty(tx *gorm.DB, giftID uint) error {
	gift, err := loadGift(tx, giftID)

	if err != nil {
		return err
	}

	if gift.TakenBy != nil {
		return nil
	}

	var remaining int64

	err = tx.Model(&models.GiftParticipation{}).
		Where("gift_id = ? AND is_active = ?", giftID, true).
		Count(&remaining).Error

	if err != nil {
		return err
	}

	if remaining > 0 {
		return nil
	}

	return tx.Model(&models.Gift{}).
		Where("id = ? AND taken_by IS NULL", giftID).
		Updates(map[string]interface{}{"available": true, "is_group_gift": false, "comment": ""}).Error
}

// checkReservable rejects self-reservations and repeat reservations.
func (s *ReservationService) checkReservable(tx *gorm.DB, gift *models.Gift, userID uint) error {
	var list models.GiftList

	if err := tx.First(&list, gift.ListID).Error; err != nil {
		return err
	}

	if list.UserID == userID {
		return ErrSelfReservation
	}

	if gift.TakenBy != nil && *gift.TakenBy == userID {
		return ErrAlreadyReserved
	}

	var active int64

	err := tx.Model(&models.GiftParticipation{}).
		Where("gift_id = ? AND user_id = ? AND is_active = ?", gift.ID, userID, true).
		Count(&active).Error

	if err != nil {
		return err
	}

	if active > 0 {
		return ErrAlreadyReserved
	}

	return nil
}

func (s *ReservationService) addParticipant(tx *gorm.DB, giftID, userID uint) error {
	participation := models.GiftParticipation{
		GiftID:   giftID,
		UserID:   userID,
		IsActive: true,
	}

	if err := tx.Create(&participation).Error; err != nil {
		// The partial unique index caught a concurrent join by the same user.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrAlreadyReserved
		}
		return err
	}

	return nil
}

func (s *ReservationService) setComment(tx *gorm.DB, giftID uint, comment string) error {
	if comment == "" {
		return nil
	}

	return tx.Model(&models.Gift{}).Where("id = ?", giftID).Update("comment", comment).Error
}

// lockGift claims the gift's row for the remainder of the transaction and
// returns its current state. Reserve and Unreserve lock before reading, so
// the flags and participation counts they act on hold until commit. The
// lock is taken with a touch update rather than SELECT FOR UPDATE, which
// SQLite does not parse.
func lockGift(tx *gorm.DB, giftID uint) (*models.Gift, error) {
	res := tx.Model(&models.Gift{}).
		Where("id = ?", giftID).
		Update("available", gorm.Expr("available"))

	if res.Error != nil {
		return nil, res.Error
	}

	if res.RowsAffected == 0 {
		return nil, ErrGiftNotFound
	}

	return loadGift(tx, giftID)
}

func loadGift(tx *gorm.DB, giftID uint) (*models.Gift, error) {
	var gift models.Gift

	if err := tx.First(&gift, giftID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGiftNotFound
		}
		return nil, err
	}

	return &gift, nil
}
