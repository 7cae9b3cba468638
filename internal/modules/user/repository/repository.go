package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"anoa.com/akademika/internal/entity"
	"anoa.com/akademika/pkg/apperror"
	"anoa.com/akademika/pkg/database"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserFilter struct {
	Role   entity.Role
	Search string
	Limit  int
	Offset int
}

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	FindByUsername(ctx context.Context, username string) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByPhone(ctx context.Context, phone string) (*entity.User, error)
	FindByEmailOrPhone(ctx context.Context, identifier string) (*entity.User, error)
	FindAll(ctx context.Context, filter UserFilter) ([]*entity.User, int64, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error

	CreatePasswordReset(ctx context.Context, reset *entity.PasswordReset) error
	InvalidatePasswordResets(ctx context.Context, userID uuid.UUID, at time.Time) error
	FindPasswordResetByHash(ctx context.Context, tokenHash string) (*entity.PasswordReset, error)
	RedeemPasswordReset(ctx context.Context, resetID, userID uuid.UUID, passwordHash string, at time.Time) error
	DeleteExpiredPasswordResets(ctx context.Context, before time.Time) (int64, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return fmt.Errorf("user already exists: %w", apperror.ErrConflict)
		}
		return err
	}
	return nil
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	var user entity.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %s: %w", id, apperror.ErrNotFound)
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	return r.findOne(ctx, "username = ?", username)
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findOne(ctx, "LOWER(email) = ?", strings.ToLower(email))
}

func (r *userRepository) FindByPhone(ctx context.Context, phone string) (*entity.User, error) {
	return r.findOne(ctx, "phone_number = ?", phone)
}

func (r *userRepository) FindByEmailOrPhone(ctx context.Context, identifier string) (*entity.User, error) {
	identifier = strings.TrimSpace(identifier)
	if strings.Contains(identifier, "@") {
		return r.FindByEmail(ctx, identifier)
	}
	return r.FindByPhone(ctx, identifier)
}

// findOne returns (nil, nil) when nothing matches.
func (r *userRepository) findOne(ctx context.Context, query string, args ...any) (*entity.User, error) {
	var user entity.User
	err := r.db.WithContext(ctx).Where(query, args...).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindAll(ctx context.Context, filter UserFilter) ([]*entity.User, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.User{})
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(username) LIKE ? OR LOWER(email) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?", like, like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit).Offset(filter.Offset)
	}

	var users []*entity.User
	if err := query.Order("created_at desc").Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	res := r.db.WithContext(ctx).Model(&entity.User{}).Where("id = ?", id).Update("password_hash", passwordHash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user %s: %w", id, apperror.ErrNotFound)
	}
	return nil
}

func (r *userRepository) CreatePasswordReset(ctx context.Context, reset *entity.PasswordReset) error {
	return r.db.WithContext(ctx).Create(reset).Error
}

func (r *userRepository) InvalidatePasswordResets(ctx context.Context, userID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&entity.PasswordReset{}).
		Where("user_id = ? AND used = ?", userID, false).
		Updates(map[string]any{"used": true, "used_at": at}).Error
}

func (r *userRepository) FindPasswordResetByHash(ctx context.Context, tokenHash string) (*entity.PasswordReset, error) {
	var reset entity.PasswordReset
	err := r.db.WithContext(ctx).Where("token_hash = ?", tokenHash).First(&reset).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &reset, nil
}

// RedeemPasswordReset marks the token used and sets the new password atomically.
// The used flag is flipped conditionally, so of two concurrent redemptions only one succeeds;
// the loser gets apperror.ErrTokenUsed.
func (r *userRepository) RedeemPasswordReset(ctx context.Context, resetID, userID uuid.UUID, passwordHash string, at time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&entity.PasswordReset{}).
			Where("id = ? AND used = ?", resetID, false).
			Updates(map[string]any{"used": true, "used_at": at})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperror.ErrTokenUsed
		}

		res = tx.Model(&entity.User{}).Where("id = ?", userID).Update("password_hash", passwordHash)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("user %s: %w", userID, apperror.ErrNotFound)
		}
		return nil
	})
}

func (r *userRepository) DeleteExpiredPasswordResets(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at < ?", before).Delete(&entity.PasswordReset{})
	return res.RowsAffected, res.Error
}
