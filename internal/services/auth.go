package services

import (
	"context"
	"crypto/md5"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/nawel-dev/nawel/internal/metrics"
	"github.com/nawel-dev/nawel/internal/models"
)

const (
	bcryptPrefix          = "$2"
	legacyHashLength      = 32
	resetTokenLengthBytes = 32
	resetTokenTTL         = time.Hour
)

type AuthService struct {
	db  *gorm.DB
	log *logrus.Logger
}

func NewAuthService(db *gorm.DB, log *logrus.Logger) *AuthService {
	return &AuthService{db: db, log: log}
}

// Authenticate verifies login/password and returns the matching user. A
// password still stored as a legacy MD5 hash is verified against its digest
// and upgraded to bcrypt in place; the caller sees no difference.
func (s *AuthService) Authenticate(ctx context.Context, login, password string) (*models.User, error) {
	var user models.User

	err := s.db.WithContext(ctx).Where("login = ?", login).First(&user).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if isLegacyHash(user.Password) {
		return s.authenticateLegacy(ctx, &user, password)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return &user, nil
}

// isLegacyHash reports whether a stored password is still in the old MD5
// format: exactly 32 hex characters and no bcrypt marker. A bcrypt hash is
// 60 characters, so the two shapes cannot collide.
func isLegacyHash(hash string) bool {
	return len(hash) == legacyHashLength && !strings.HasPrefix(hash, bcryptPrefix)
}

func (s *AuthService) authenticateLegacy(ctx context.Context, user *models.User, password string) (*models.User, error) {
	sum := md5.Sum([]byte(password))
	digest := hex.EncodeToString(sum[:])

	if !strings.EqualFold(digest, user.Password) {
		metrics.LegacyPasswordMismatches.Inc()
		s.log.WithFields(logrus.Fields{
			"login":   user.Login,
			"user_id": user.ID,
		}).Warn("login failed against a legacy password hash")
		return nil, ErrInvalidCredentials
	}

	rehash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

	if err != nil {
		return nil, err
	}

	// Keyed on the old hash: a concurrent login that already upgraded the row
	// matches zero rows here. Both logins derived the new hash from the same
	// plaintext, so losing this write changes nothing.
	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND password = ?", user.ID, user.Password).
		Update("password", string(rehash))

	if res.Error != nil {
		return nil, res.Error
	}

	if res.RowsAffected == 1 {
		metrics.LegacyPasswordMigrations.Inc()
		s.log.WithFields(logrus.Fields{
			"login":   user.Login,
			"user_id": user.ID,
		}).Info("migrated legacy password hash to bcrypt")
	}

	user.Password = string(rehash)
	return user, nil
}

func (s *AuthService) GetUserByID(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User

	err := s.db.WithContext(ctx).Preload("Family").First(&user, userID).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return &user, nil
}

// ChangePassword rewrites the password after checking the current one. Works
// against both hash formats so users with a pending migration are not locked
// out of the profile form.
func (s *AuthService) ChangePassword(ctx context.Context, userID uint, current, newPassword string) error {
	var user models.User

	err := s.db.WithContext(ctx).First(&user, userID).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if isLegacyHash(user.Password) {
		sum := md5.Sum([]byte(current))
		if !strings.EqualFold(hex.EncodeToString(sum[:]), user.Password) {
			return ErrInvalidCredentials
		}
	} else if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(current)) != nil {
		return ErrInvalidCredentials
	}

	rehash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)

	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Model(&user).Update("password", string(rehash)).Error
}

// GenerateResetToken issues a fresh reset token for the user owning the
// email, replacing any outstanding one. The returned token goes out via the
// transport layer; only its SHA-256 digest is stored.
func (s *AuthService) GenerateResetToken(ctx context.Context, email string) (string, error) {
	var user models.User

	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrUserNotFound
		}
		return "", err
	}

	buf := make([]byte, resetTokenLengthBytes)

	if _, err := rand.Read(buf); err != nil {
		return "", err
	}

	token := base64.StdEncoding.EncodeToString(buf)
	hashed := hashResetToken(token)
	expiry := time.Now().UTC().Add(resetTokenTTL)

	err = s.db.WithContext(ctx).Model(&user).Updates(map[string]interface{}{
		"reset_token":  hashed,
		"token_expiry": expiry,
	}).Error

	if err != nil {
		return "", err
	}

	return token, nil
}

// ValidateResetToken reports whether a token matches a user and has not
// expired. Unknown and expired tokens are indistinguishable to the caller.
func (s *AuthService) ValidateResetToken(ctx context.Context, token string) bool {
	_, ok := s.userForResetToken(ctx, token)
	return ok
}

// ResetPassword consumes a valid token: the password is rewritten and the
// token cleared in one update. Returns false on an invalid or expired token.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) (bool, error) {
	user, ok := s.userForResetToken(ctx, token)

	if !ok {
		return false, nil
	}

	rehash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)

	if err != nil {
		return false, err
	}

	err = s.db.WithContext(ctx).Model(user).Updates(map[string]interface{}{
		"password":     string(rehash),
		"reset_token":  nil,
		"token_expiry": nil,
	}).Error

	if err != nil {
		return false, err
	}

	return true, nil
}

func (s *AuthService) userForResetToken(ctx context.Context, token string) (*models.User, bool) {
	var user models.User

	err := s.db.WithContext(ctx).Where("reset_token = ?", hashResetToken(token)).First(&user).Error

	if err != nil {
		return nil, false
	}

	// Strictly after now: a token is dead at exactly its expiry instant.
	if user.TokenExpiry == nil || !user.TokenExpiry.After(time.Now().UTC()) {
		return nil, false
	}

	return &user, true
}

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
