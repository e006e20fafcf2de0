package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"warehouse_flow_backend/internal/models"
	"warehouse_flow_backend/internal/repositories"
)

// --- WorkQueueService Interface ---
// Every view is computed on request from the committed state.
type WorkQueueService interface {
	PhotoQueue(ctx context.Context) ([]models.Item, error)
	InspectionQueue(ctx context.Context) ([]models.Item, error)
	PackagingQueue(ctx context.Context) ([]models.Item, error)
	ListFreeSlots(ctx context.Context, kind models.LocationKind, size *models.Size) ([]models.Location, error)
	ListLocations(ctx context.Context, kind *models.LocationKind, includeInactive bool) ([]models.Location, error)
	Dashboard(ctx context.Context) (*models.Dashboard, error)
}

// --- workQueueService Implementation ---
type workQueueService struct {
	db           *sql.DB
	itemRepo     repositories.ItemRepository
	locationRepo repositories.LocationRepository
}

// NewWorkQueueService creates a new instance of WorkQueueService.
func NewWorkQueueService(db *sql.DB, itemRepo repositories.ItemRepository, locationRepo repositories.LocationRepository) WorkQueueService {
	return &workQueueService{db: db, itemRepo: itemRepo, locationRepo: locationRepo}
}

// PhotoQueue lists items still to be photographed, oldest first.
func (s *workQueueService) PhotoQueue(ctx context.Context) ([]models.Item, error) {
	return s.itemRepo.ListByStatuses(ctx, s.db, []models.Status{models.StatusReceived, models.StatusPhoto})
}

func (s *workQueueService) InspectionQueue(ctx context.Context) ([]models.Item, error) {
	return s.itemRepo.ListByStatuses(ctx, s.db, []models.Status{models.StatusInspection})
}

func (s *workQueueService) PackagingQueue(ctx context.Context) ([]models.Item, error) {
	return s.itemRepo.ListByStatuses(ctx, s.db, []models.Status{models.StatusPackaging})
}

// ListFreeSlots lists active, empty capacity-1 locations of a kind, by code.
func (s *workQueueService) ListFreeSlots(ctx context.Context, kind models.LocationKind, size *models.Size) ([]models.Location, error) {
	kind = models.LocationKind(strings.ToUpper(string(kind)))
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown location kind %q", ErrValidation, kind)
	}
	if size != nil && !size.Valid() {
		return nil, fmt.Errorf("%w: unknown size %q", ErrValidation, *size)
	}
	return s.locationRepo.ListFreeSlots(ctx, s.db, kind, size)
}

func (s *workQueueService) ListLocations(ctx context.Context, kind *models.LocationKind, includeInactive bool) ([]models.Location, error) {
	if kind != nil && !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown location kind %q", ErrValidation, *kind)
	}
	return s.locationRepo.ListLocations(ctx, s.db, kind, includeInactive)
}

// Dashboard reports floor and shelf occupancy and item counts per status.
func (s *workQueueService) Dashboard(ctx context.Context) (*models.Dashboard, error) {
	dash := &models.Dashboard{}
	for _, kind := range []models.LocationKind{models.KindFloor, models.KindShelf} {
		occ, err := s.locationRepo.OccupancyByKind(ctx, s.db, kind)
		if err != nil {
			return nil, err
		}
		dash.Occupancy = append(dash.Occupancy, *occ)
	}

	statuses, err := s.itemRepo.CountByStatus(ctx, s.db)
	if err != nil {
		return nil, err
	}
	dash.Statuses = statuses
	return dash, nil
}
