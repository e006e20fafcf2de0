package database

import (
	"context"
	"database/sql"
	"fmt"

	"warehouse_flow_backend/internal/models"
	"warehouse_flow_backend/internal/movement"
	"warehouse_flow_backend/internal/repositories"
	"warehouse_flow_backend/pkg/utils"
)

const (
	floorSlotsPerSize = 22
	shelfGroups       = 5
	shelfLevels       = "ABCDEFGHIJ"
)

// DefaultCatalog returns the location layout of a fresh site.
func DefaultCatalog() []models.Location {
	one := 1
	grand, petit := models.SizeGrand, models.SizePetit

	var catalog []models.Location
	for i := 1; i <= floorSlotsPerSize; i++ {
		code := fmt.Sprintf("S-A%02d", i)
		catalog = append(catalog, models.Location{Code: code, Name: "Emplacement " + code, Kind: models.KindFloor, Capacity: &one, Size: &grand, Active: true})
	}
	for i := 1; i <= floorSlotsPerSize; i++ {
		code := fmt.Sprintf("S-B%02d", i)
		catalog = append(catalog, models.Location{Code: code, Name: "Emplacement " + code, Kind: models.KindFloor, Capacity: &one, Size: &petit, Active: true})
	}
	for g := 1; g <= shelfGroups; g++ {
		for _, level := range shelfLevels {
			code := fmt.Sprintf("ETAGERE-%d-%c", g, level)
			catalog = append(catalog, models.Location{Code: code, Name: "Etagère " + code, Kind: models.KindShelf, Capacity: &one, Active: true})
		}
	}
	catalog = append(catalog,
		models.Location{Code: movement.PhotoStationCode, Name: "Poste Photo", Kind: models.KindStation, Active: true},
		models.Location{Code: movement.InspectionStationCode, Name: "Poste Inspection", Kind: models.KindStation, Active: true},
		models.Location{Code: movement.PackagingStationCode, Name: "Poste Emballage", Kind: models.KindStation, Active: true},
	)
	return catalog
}

// SeedLocations inserts the default catalog when the locations table is empty.
func SeedLocations(ctx context.Context, db *sql.DB, repo repositories.LocationRepository) (int, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	count, err := repo.CountLocations(ctx, tx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	catalog := DefaultCatalog()
	for i := range catalog {
		if _, err := repo.CreateLocation(ctx, tx, &catalog[i]); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit location seed: %w", err)
	}
	utils.LogInfo("Location catalog seeded", map[string]interface{}{"locations": len(catalog)})
	return len(catalog), nil
}
