package models

// LocationKind is the physical category of a location.
type LocationKind string

const (
	KindFloor   LocationKind = "FLOOR"
	KindStation LocationKind = "STATION"
	KindShelf   LocationKind = "SHELF"
)

// Valid reports whether k is a known kind.
func (k LocationKind) Valid() bool {
	return k == KindFloor || k == KindStation || k == KindShelf
}

// Location represents a physical slot, shelf position or work station
type Location struct {
	ID       int64        `json:"id" db:"id"`
	Code     string       `json:"code" db:"code"`
	Name     string       `json:"name" db:"name"`
	Kind     LocationKind `json:"kind" db:"kind"`
	Capacity *int         `json:"capacity,omitempty" db:"capacity"` // nil means unbounded
	Size     *Size        `json:"size,omitempty" db:"size"`         // only set on FLOOR slots
	Active   bool         `json:"active" db:"active"`

	Occupants int `json:"occupants"` // Populated by catalog listings
}

// KindOccupancy is a dashboard counter for one location kind.
type KindOccupancy struct {
	Kind     LocationKind `json:"kind"`
	Total    int          `json:"total"`
	Occupied int          `json:"occupied"`
	Free     int          `json:"free"`
}

// StatusCount is the number of items currently in a status.
type StatusCount struct {
	Status Status `json:"status"`
	Count  int    `json:"count"`
}

// Dashboard aggregates the warehouse KPIs.
type Dashboard struct {
	Occupancy []KindOccupancy `json:"occupancy"`
	Statuses  []StatusCount   `json:"statuses"`
}
