package models

import "time"

type Checkout struct {
	RemoteID    string     `json:"remote_id" gorm:"primaryKey;size:255"`
	CompletedAt *time.Time `json:"completed_at"`
}

func (Checkout) TableName() string { return "storefront_checkouts" }
