package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Element is a locally managed content entity: a product entry, a category
// standing in for a collection, a tag, or a site user.
type Element struct {
	ID        string      `json:"id" gorm:"type:varchar(36);primaryKey"`
	Type      ElementType `json:"type" gorm:"size:32;not null"`
	GroupUID  string      `json:"group_uid" gorm:"size:64"`
	Title     string      `json:"title" gorm:"not null"`
	Slug      string      `json:"slug" gorm:"size:255"`
	Email     string      `json:"email,omitempty" gorm:"size:255"`
	Enabled   bool        `json:"enabled" gorm:"not null;default:false"`
	Fields    JSONB       `json:"fields" gorm:"type:text"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

type ElementType string

const (
	ElementEntry    ElementType = "entry"
	ElementCategory ElementType = "category"
	ElementTag      ElementType = "tag"
	ElementUser     ElementType = "user"
)

func (Element) TableName() string { return "elements" }

func (e *Element) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	return nil
}

// SetField assigns a custom field value, allocating the map on first use.
func (e *Element) SetField(handle string, value any) {
	if e.Fields == nil {
		e.Fields = JSONB{}
	}
	e.Fields[handle] = value
}
