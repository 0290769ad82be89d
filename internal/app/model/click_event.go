package model

import "time"

// ClickEvent records a single visit through a link's click endpoint.
type ClickEvent struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	LinkID    uint      `json:"link_id" gorm:"not null;index"`
	OwnerID   uint      `json:"owner_id" gorm:"not null;index"`
	IP        string    `json:"ip" gorm:"size:64"`
	UserAgent string    `json:"user_agent" gorm:"size:512"`
	Referer   string    `json:"referer" gorm:"size:2048"`
	Timestamp time.Time `json:"timestamp" gorm:"not null;index"`
}

const (
	ClickStreamName     = "CLICKS"
	ClickStreamSubject  = "clicks.events"
	ClickConsumerName   = "click-logger"
	ClickStreamMaxBytes = 1024 * 1024 * 100 // 100MB
)
