package models

import "time"

// Movement actions recorded in the ledger.
const (
	ActionMove       = "MOVE"
	ActionPutStock   = "PUT_STOCK"
	ActionInspectOK  = "INSPECT_OK"
	ActionInspectNOK = "INSPECT_NOK"
	ActionAutoSlot   = "AUTO_SLOT"
)

// Movement is one append-only ledger row describing a change of location
type Movement struct {
	ID             int64     `json:"id" db:"id"`
	ItemID         int64     `json:"item_id" db:"item_id"`
	FromLocationID *int64    `json:"from_location_id,omitempty" db:"from_location_id"`
	ToLocationID   int64     `json:"to_location_id" db:"to_location_id"`
	Action         string    `json:"action" db:"action"`
	Actor          *string   `json:"actor,omitempty" db:"actor"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`

	FromCode *string `json:"from_code,omitempty"`
	ToCode   *string `json:"to_code,omitempty"`
}
