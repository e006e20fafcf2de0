package models

import "time"

// Size is the physical size class of a cart. An item with no size has a nil *Size.
type Size string

const (
	SizeGrand Size = "GRAND"
	SizePetit Size = "PETIT"
)

// Valid reports whether s is one of the known size classes.
func (s Size) Valid() bool {
	return s == SizeGrand || s == SizePetit
}

// Status is the workflow stage of an item.
type Status string

const (
	StatusReceived   Status = "RECEIVED"
	StatusPhoto      Status = "PHOTO"
	StatusInspection Status = "INSPECTION"
	StatusPackaging  Status = "PACKAGING"
	StatusStored     Status = "STORED"
	StatusRejected   Status = "REJECTED"
)

// AllStatuses lists statuses in workflow order.
var AllStatuses = []Status{StatusReceived, StatusPhoto, StatusInspection, StatusPackaging, StatusStored, StatusRejected}

// Item represents a physical piece tracked through the warehouse workflow
type Item struct {
	ID          int64     `json:"id" db:"id"`
	SKU         string    `json:"sku" db:"sku"`
	Size        *Size     `json:"size,omitempty" db:"size"`
	Description *string   `json:"description,omitempty" db:"description"`
	PhotoPath   *string   `json:"photo_path,omitempty" db:"photo_path"`
	Status      Status    `json:"status" db:"status"`
	LocationID  *int64    `json:"location_id,omitempty" db:"location_id"`
	AvisNo      *string   `json:"avis_no,omitempty" db:"avis_no"`
	OrderNo     *string   `json:"order_no,omitempty" db:"order_no"`
	BLNo        *string   `json:"bl_no,omitempty" db:"bl_no"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`

	LocationCode *string `json:"location_code,omitempty"` // Populated by list queries joining locations
}

// ItemRefs groups the free-text correlation identifiers of an item.
type ItemRefs struct {
	AvisNo  *string `json:"avis_no"`
	OrderNo *string `json:"order_no"`
	BLNo    *string `json:"bl_no"`
}

// ItemDetail is the item page: the item, where it is, and its history newest first.
type ItemDetail struct {
	Item      *Item      `json:"item"`
	Location  *Location  `json:"location,omitempty"`
	Movements []Movement `json:"movements"`
}
