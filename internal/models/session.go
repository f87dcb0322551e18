package models

import "time"

// SessionValue is one key of a server-side visitor session.
type SessionValue struct {
	SessionID string    `json:"session_id" gorm:"primaryKey;size:64"`
	Key       string    `json:"key" gorm:"column:session_key;primaryKey;size:64"`
	Value     string    `json:"value" gorm:"not null"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (SessionValue) TableName() string { return "storefront_sessions" }
