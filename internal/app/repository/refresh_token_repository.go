package repository

import (
	"context"
	"errors"
	"time"

	"github.com/linkyoself/linkyoself/internal/app/model"
	"gorm.io/gorm"
)

// RefreshTokenRepository persists refresh tokens by their hash.
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *model.RefreshToken) error
	// GetValid returns the token only if it is not revoked and expires after now.
	GetValid(ctx context.Context, tokenHash string, now time.Time) (*model.RefreshToken, error)
	// Revoke marks one token revoked. Unknown or already revoked hashes are a no-op.
	Revoke(ctx context.Context, tokenHash string) error
	// RevokeAllForUser revokes every active token of userID and reports how many changed.
	RevokeAllForUser(ctx context.Context, userID uint) (int64, error)
	// PurgeStale deletes tokens expired before cutoff and revoked tokens created before it.
	PurgeStale(ctx context.Context, cutoff time.Time) (int64, error)
}

type refreshTokenRepository struct {
	db *gorm.DB
}

// NewRefreshTokenRepository returns a GORM-backed RefreshTokenRepository.
func NewRefreshTokenRepository(db *gorm.DB) RefreshTokenRepository {
	return &refreshTokenRepository{db: db}
}

func (r *refreshTokenRepository) Create(ctx context.Context, token *model.RefreshToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

func (r *refreshTokenRepository) GetValid(ctx context.Context, tokenHash string, now time.Time) (*model.RefreshToken, error) {
	var token model.RefreshToken
	if err := r.db.WithContext(ctx).
		Where("token_hash = ? AND is_revoked = ? AND expires_at > ?", tokenHash, false, now).
		First(&token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}
	return &token, nil
}

func (r *refreshTokenRepository) Revoke(ctx context.Context, tokenHash string) error {
	return r.db.WithContext(ctx).
		Model(&model.RefreshToken{}).
		Where("token_hash = ? AND is_revoked = ?", tokenHash, false).
		Update("is_revoked", true).Error
}

func (r *refreshTokenRepository) RevokeAllForUser(ctx context.Context, userID uint) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.RefreshToken{}).
		Where("user_id = ? AND is_revoked = ?", userID, false).
		Update("is_revoked", true)
	return result.RowsAffected, result.Error
}

func (r *refreshTokenRepository) PurgeStale(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at < ? OR (is_revoked = ? AND created_at < ?)", cutoff, true, cutoff).
		Delete(&model.RefreshToken{})
	return result.RowsAffected, result.Error
}
