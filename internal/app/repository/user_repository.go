package repository

import (
	"context"
	"errors"

	"github.com/linkyoself/linkyoself/internal/app/model"
	"gorm.io/gorm"
)

// UserRepository defines the data access contract for accounts.
// Lookups expect already-normalized usernames and emails.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uint) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context, limit, offset int) ([]model.User, error)
	ListUsernamesSince(ctx context.Context, afterID uint) ([]model.User, error)
	UpdateProfile(ctx context.Context, user *model.User) error
	UpdatePassword(ctx context.Context, id uint, hashedPassword string) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a GORM-backed UserRepository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateUser
		}
		return err
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*model.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.first(ctx, "username = ?", username)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *userRepository) first(ctx context.Context, query string, arg interface{}) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).
		Where(query, arg).
		Where("is_deleted = ?", false).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context, limit, offset int) ([]model.User, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var result []model.User
	if err := r.db.WithContext(ctx).
		Where("is_deleted = ?", false).
		Order("id ASC").
		Limit(limit).
		Offset(offset).
		Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

// ListUsernamesSince returns id and username of every user with an id above
// afterID, in id order. Soft-deleted users are included since their names
// stay reserved.
func (r *userRepository) ListUsernamesSince(ctx context.Context, afterID uint) ([]model.User, error) {
	var result []model.User
	if err := r.db.WithContext(ctx).
		Select("id", "username").
		Where("id > ?", afterID).
		Order("id ASC").
		Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, user *model.User) error {
	result := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ? AND is_deleted = ?", user.ID, false).
		Updates(map[string]interface{}{
			"display_name":         user.DisplayName,
			"bio":                  user.Bio,
			"profile_image_url":    user.ProfileImageURL,
			"page_title":           user.PageTitle,
			"website":              user.Website,
			"twitter_username":     user.TwitterUsername,
			"instagram_username":   user.InstagramUsername,
			"linkedin_username":    user.LinkedinUsername,
			"theme_color":          user.ThemeColor,
			"background_type":      user.BackgroundType,
			"background_value":     user.BackgroundValue,
			"onboarding_completed": user.OnboardingCompleted,
			"profile_completed":    user.ProfileCompleted,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}

	return r.db.WithContext(ctx).Where("id = ?", user.ID).First(user).Error
}

func (r *userRepository) UpdatePassword(ctx context.Context, id uint, hashedPassword string) error {
	result := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Update("hashed_password", hashedPassword)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
