package model

import "time"

// DefaultBorderRadius is applied when a link is created without one.
const DefaultBorderRadius = 8

// Link is a user-owned entry on a link-in-bio page.
//
// Non-deleted links of one user carry distinct OrderIndex values; the partial
// unique index below enforces it at the database level.
type Link struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	UserID          uint      `json:"user_id" gorm:"not null;index;uniqueIndex:idx_links_user_order,where:is_deleted = false"`
	Title           string    `json:"title" gorm:"size:255;not null"`
	URL             string    `json:"url" gorm:"size:2048;not null"`
	Description     *string   `json:"description" gorm:"size:500"`
	IconURL         *string   `json:"icon_url" gorm:"size:500"`
	BackgroundColor *string   `json:"background_color" gorm:"size:20"`
	TextColor       *string   `json:"text_color" gorm:"size:20"`
	BorderRadius    int       `json:"border_radius" gorm:"not null"`
	IsActive        bool      `json:"is_active" gorm:"not null"`
	ClickCount      int64     `json:"click_count" gorm:"not null;default:0"`
	OrderIndex      int       `json:"order_index" gorm:"not null;uniqueIndex:idx_links_user_order,where:is_deleted = false"`
	IsDeleted       bool      `json:"-" gorm:"not null;default:false;index"`
	CreatedAt       time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// LinkField names a nullable link column an update may reset to null.
type LinkField string

const (
	FieldDescription     LinkField = "description"
	FieldIconURL         LinkField = "icon_url"
	FieldBackgroundColor LinkField = "background_color"
	FieldTextColor       LinkField = "text_color"
)

// ClearableLinkFields lists every LinkField.
var ClearableLinkFields = []LinkField{FieldDescription, FieldIconURL, FieldBackgroundColor, FieldTextColor}

// LinkPatch carries the explicitly set fields of a link update.
// A nil pointer means "leave unchanged"; fields named in Clear are set to null.
type LinkPatch struct {
	Title           *string
	URL             *string
	Description     *string
	IconURL         *string
	BackgroundColor *string
	TextColor       *string
	BorderRadius    *int
	IsActive        *bool
	Clear           []LinkField
}

// Apply merges the set fields of p into l.
func (p LinkPatch) Apply(l *Link) {
	if p.Title != nil {
		l.Title = *p.Title
	}
	if p.URL != nil {
		l.URL = *p.URL
	}
	if p.Description != nil {
		l.Description = p.Description
	}
	if p.IconURL != nil {
		l.IconURL = p.IconURL
	}
	if p.BackgroundColor != nil {
		l.BackgroundColor = p.BackgroundColor
	}
	if p.TextColor != nil {
		l.TextColor = p.TextColor
	}
	if p.BorderRadius != nil {
		l.BorderRadius = *p.BorderRadius
	}
	if p.IsActive != nil {
		l.IsActive = *p.IsActive
	}
	for _, f := range p.Clear {
		switch f {
		case FieldDescription:
			l.Description = nil
		case FieldIconURL:
			l.IconURL = nil
		case FieldBackgroundColor:
			l.BackgroundColor = nil
		case FieldTextColor:
			l.TextColor = nil
		}
	}
}

// Columns returns the column values p writes, keyed by column name. Cleared
// fields map to nil.
func (p LinkPatch) Columns() map[string]interface{} {
	cols := make(map[string]interface{})
	if p.Title != nil {
		cols["title"] = *p.Title
	}
	if p.URL != nil {
		cols["url"] = *p.URL
	}
	if p.Description != nil {
		cols["description"] = *p.Description
	}
	if p.IconURL != nil {
		cols["icon_url"] = *p.IconURL
	}
	if p.BackgroundColor != nil {
		cols["background_color"] = *p.BackgroundColor
	}
	if p.TextColor != nil {
		cols["text_color"] = *p.TextColor
	}
	if p.BorderRadius != nil {
		cols["border_radius"] = *p.BorderRadius
	}
	if p.IsActive != nil {
		cols["is_active"] = *p.IsActive
	}
	for _, f := range p.Clear {
		switch f {
		case FieldDescription, FieldIconURL, FieldBackgroundColor, FieldTextColor:
			cols[string(f)] = nil
		}
	}
	return cols
}

// Empty reports whether the patch changes nothing.
func (p LinkPatch) Empty() bool {
	return len(p.Columns()) == 0
}
