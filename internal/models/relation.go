package models

import "time"

type EntityKind string

const (
	KindProduct    EntityKind = "Product"
	KindCollection EntityKind = "Collection"
	KindCustomer   EntityKind = "Customer"
	KindCheckout   EntityKind = "Checkout"
	KindOrder      EntityKind = "Order"
)

// Relation is the identity row for one remote object. It exists even when no
// local element has been materialized for it (dependency-only tracking).
type Relation struct {
	RemoteID  string     `json:"remote_id" gorm:"primaryKey;size:255"`
	Kind      EntityKind `json:"kind" gorm:"size:64;not null"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (Relation) TableName() string { return "storefront_relations" }

type RelationElement struct {
	RemoteID  string `json:"remote_id" gorm:"primaryKey;size:255"`
	ElementID string `json:"element_id" gorm:"primaryKey;size:64"`
}

func (RelationElement) TableName() string { return "storefront_relations_to_elements" }
