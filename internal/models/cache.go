package models

import "time"

type Cache struct {
	Key       string    `json:"key" gorm:"column:cache_key;primaryKey;size:32"`
	Value     string    `json:"value" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Cache) TableName() string { return "storefront_caches" }

type CacheDependency struct {
	RemoteID string `json:"remote_id" gorm:"primaryKey;size:255"`
	CacheKey string `json:"cache_key" gorm:"primaryKey;size:32"`
}

func (CacheDependency) TableName() string { return "storefront_relations_to_caches" }
