package model

import "time"

// RefreshToken is the server-side record of an opaque refresh token.
// Only the SHA-256 hex digest of the token value is stored.
type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"not null;index:idx_refresh_tokens_user_revoked,priority:1"`
	TokenHash string    `gorm:"size:64;not null;uniqueIndex"`
	ExpiresAt time.Time `gorm:"not null;index"`
	IsRevoked bool      `gorm:"not null;default:false;index:idx_refresh_tokens_user_revoked,priority:2"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// Valid reports whether the token can still mint access tokens at now.
func (t RefreshToken) Valid(now time.Time) bool {
	return !t.IsRevoked && t.ExpiresAt.After(now)
}
