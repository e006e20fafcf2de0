// Package movement holds the placement rules of the warehouse workflow.
//
// Every function here is pure: it decides on snapshots handed in by the
// caller and never touches storage. The orchestrator in internal/services is
// responsible for loading snapshots and committing the outcome.
package movement

import (
	"fmt"
	"strings"

	"warehouse_flow_backend/internal/models"
)

// Well-known location codes.
const (
	PhotoStationCode      = "POSTE-PHOTO"
	InspectionStationCode = "POSTE-INSPECTION"
	PackagingStationCode  = "POSTE-EMBALLAGE"

	// RejectShelfPrefix marks the shelf group reserved for rejected items.
	RejectShelfPrefix = "ETAGERE-3-"
)

// IsRejectShelf reports whether the code belongs to the reject shelf group.
func IsRejectShelf(code string) bool {
	return strings.HasPrefix(code, RejectShelfPrefix)
}

// CanPlace decides whether item may be put on loc given the number of items
// already there. The first failing rule wins; reason is empty when allowed.
func CanPlace(item models.Item, loc models.Location, occupiedCount int) (bool, string) {
	if IsRejectShelf(loc.Code) && item.Status != models.StatusRejected {
		return false, "only rejected items may be placed on the reject shelf"
	}

	if loc.Capacity != nil && occupiedCount >= *loc.Capacity {
		return false, fmt.Sprintf("%s is already occupied", loc.Code)
	}

	if loc.Kind == models.KindFloor {
		if item.Size == nil {
			return false, "item size is unknown"
		}
		if loc.Size == nil || *item.Size != *loc.Size {
			return false, fmt.Sprintf("size mismatch: item is %s, location accepts %s", *item.Size, sizeLabel(loc.Size))
		}
	}

	return true, ""
}

// NextStatus maps a target location to the status an item takes on arrival.
// ok is false when arriving there leaves the status unchanged.
//
// Order matters: station codes first, then the reject group, and only then
// the generic FLOOR rule.
func NextStatus(loc models.Location) (status models.Status, ok bool) {
	switch {
	case loc.Code == PhotoStationCode:
		return models.StatusPhoto, true
	case loc.Code == InspectionStationCode:
		return models.StatusInspection, true
	case loc.Code == PackagingStationCode:
		return models.StatusPackaging, true
	case IsRejectShelf(loc.Code):
		return models.StatusRejected, true
	case loc.Kind == models.KindFloor:
		return models.StatusStored, true
	}
	return "", false
}

// ChooseSlot returns the first candidate FLOOR slot whose size matches the
// item. Candidates are expected free, active and sorted by code.
func ChooseSlot(candidates []models.Location, item models.Item) (models.Location, bool) {
	if item.Size == nil {
		return models.Location{}, false
	}
	for _, loc := range candidates {
		if loc.Kind == models.KindFloor && loc.Size != nil && *loc.Size == *item.Size {
			return loc, true
		}
	}
	return models.Location{}, false
}

func sizeLabel(s *models.Size) string {
	if s == nil {
		return "none"
	}
	return string(*s)
}
