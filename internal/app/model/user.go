package model

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	DefaultThemeColor     = "#1383eb"
	DefaultBackgroundType = "color"
)

// User is an account owning a link-in-bio page.
// Username and Email are stored normalized (lowercased).
type User struct {
	ID                  uint      `json:"id" gorm:"primaryKey"`
	Username            string    `json:"username" gorm:"size:50;not null;uniqueIndex"`
	Email               string    `json:"email" gorm:"size:255;not null;uniqueIndex"`
	HashedPassword      string    `json:"-" gorm:"size:128;not null"`
	Role                string    `json:"role" gorm:"size:16;not null;default:user"`
	DisplayName         *string   `json:"display_name" gorm:"size:100"`
	Bio                 *string   `json:"bio" gorm:"size:500"`
	ProfileImageURL     *string   `json:"profile_image_url" gorm:"size:500"`
	PageTitle           *string   `json:"page_title" gorm:"size:100"`
	Website             *string   `json:"website" gorm:"size:500"`
	TwitterUsername     *string   `json:"twitter_username" gorm:"size:50"`
	InstagramUsername   *string   `json:"instagram_username" gorm:"size:50"`
	LinkedinUsername    *string   `json:"linkedin_username" gorm:"size:100"`
	ThemeColor          string    `json:"theme_color" gorm:"size:20;not null"`
	BackgroundType      string    `json:"background_type" gorm:"size:20;not null"`
	BackgroundValue     *string   `json:"background_value" gorm:"size:500"`
	OnboardingCompleted bool      `json:"onboarding_completed" gorm:"not null;default:false"`
	ProfileCompleted    bool      `json:"profile_completed" gorm:"not null;default:false"`
	IsDeleted           bool      `json:"-" gorm:"not null;default:false"`
	CreatedAt           time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt           time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// IsAdmin reports whether the user carries the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
