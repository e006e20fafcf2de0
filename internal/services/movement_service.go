package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"warehouse_flow_backend/internal/amr"
	"warehouse_flow_backend/internal/locking"
	"warehouse_flow_backend/internal/metrics"
	"warehouse_flow_backend/internal/models"
	"warehouse_flow_backend/internal/movement"
	"warehouse_flow_backend/internal/repositories"
	"warehouse_flow_backend/pkg/utils"
)

// Inspection outcomes accepted by RecordInspection.
const (
	InspectionOK  = "OK"
	InspectionNOK = "NOK"
)

// --- Movement DTOs ---

// MoveRequest DTO
type MoveRequest struct {
	LocationID   *int64  `json:"location_id"`
	LocationCode *string `json:"location_code"`
	Action       string  `json:"action"`
}

// PutAwayRequest DTO
type PutAwayRequest struct {
	Kind   models.LocationKind `json:"kind" binding:"required"`
	SlotID *int64              `json:"slot_id"`
}

// InspectionRequest DTO
type InspectionRequest struct {
	Result string `json:"result" binding:"required"`
}

// PlacementResult describes a committed move.
type PlacementResult struct {
	ItemID        int64            `json:"item_id"`
	Status        models.Status    `json:"status"`
	Location      *models.Location `json:"location"`
	MovementID    int64            `json:"movement_id"`
	AMRDispatched bool             `json:"amr_dispatched,omitempty"`
	AMRWarning    string           `json:"amr_warning,omitempty"`
}

// --- MovementService Interface ---
type MovementService interface {
	Move(ctx context.Context, itemID, targetLocationID int64, action string, actor *string) (models.Status, error)
	MoveTo(ctx context.Context, itemID int64, req MoveRequest, actor *string) (*PlacementResult, error)
	ChooseAndMoveToFreeFloorSlot(ctx context.Context, itemID int64, actor *string) (*PlacementResult, error)
	SendToStation(ctx context.Context, itemID int64, stationCode string, actor *string) (*PlacementResult, error)
	RecordInspection(ctx context.Context, itemID int64, result string, actor *string) (*PlacementResult, error)
	PutAway(ctx context.Context, itemID int64, req PutAwayRequest, actor *string) (*PlacementResult, error)
	GetMovementHistory(ctx context.Context, itemID int64) ([]models.Movement, error)
}

// --- movementService Implementation ---
type movementService struct {
	db           *sql.DB
	itemRepo     repositories.ItemRepository
	locationRepo repositories.LocationRepository
	movementRepo repositories.MovementRepository
	locker       locking.Locker
	dispatcher   *amr.Dispatcher
}

// NewMovementService creates a new instance of MovementService. A nil locker
// falls back to locking.NoopLocker; a nil dispatcher disables AMR follow-ups.
func NewMovementService(
	db *sql.DB,
	itemRepo repositories.ItemRepository,
	locationRepo repositories.LocationRepository,
	movementRepo repositories.MovementRepository,
	locker locking.Locker,
	dispatcher *amr.Dispatcher,
) MovementService {
	if locker == nil {
		locker = locking.NoopLocker{}
	}
	return &movementService{
		db:           db,
		itemRepo:     itemRepo,
		locationRepo: locationRepo,
		movementRepo: movementRepo,
		locker:       locker,
		dispatcher:   dispatcher,
	}
}

// committedMove is what a successful move leaves behind.
type committedMove struct {
	item     *models.Item
	target   *models.Location
	movement *models.Movement
	status   models.Status
}

func (m *committedMove) result() *PlacementResult {
	return &PlacementResult{
		ItemID:     m.item.ID,
		Status:     m.status,
		Location:   m.target,
		MovementID: m.movement.ID,
	}
}

// Move places an item on a location and returns the item's resulting status.
func (s *movementService) Move(ctx context.Context, itemID, targetLocationID int64, action string, actor *string) (models.Status, error) {
	committed, err := s.move(ctx, itemID, targetLocationID, action, actor, false)
	if err != nil {
		return "", err
	}
	return committed.status, nil
}

// move runs one placement: capacity check, ledger row and item update in a
// single transaction, with the target location's occupancy guard claimed
// before commit. listedFree marks a target picked from a free-slot listing;
// finding it full means a concurrent move got there first.
func (s *movementService) move(ctx context.Context, itemID, targetLocationID int64, action string, actor *string, listedFree bool) (*committedMove, error) {
	action = strings.TrimSpace(action)
	if action == "" {
		action = models.ActionMove
	}
	label := actionLabel(action)

	release, err := s.locker.Acquire(ctx, locking.LocationKey(targetLocationID))
	if err != nil {
		if errors.Is(err, locking.ErrNotObtained) {
			metrics.MovesTotal.WithLabelValues(label, metrics.OutcomeRace).Inc()
			return nil, fmt.Errorf("%w: %v", ErrOccupancyRace, err)
		}
		metrics.MovesTotal.WithLabelValues(label, metrics.OutcomeError).Inc()
		return nil, fmt.Errorf("failed to lock location %d: %w", targetLocationID, err)
	}
	defer release()

	start := time.Now()
	committed, err := s.moveTx(ctx, itemID, targetLocationID, action, actor, listedFree)
	switch {
	case err == nil:
		metrics.MovesTotal.WithLabelValues(label, metrics.OutcomeCommitted).Inc()
		metrics.MoveDuration.Observe(time.Since(start).Seconds())
	case errors.Is(err, ErrOccupancyRace):
		metrics.MovesTotal.WithLabelValues(label, metrics.OutcomeRace).Inc()
	case errors.Is(err, ErrInvalidPlacement), IsNotFound(err):
		metrics.MovesTotal.WithLabelValues(label, metrics.OutcomeRejected).Inc()
	default:
		metrics.MovesTotal.WithLabelValues(label, metrics.OutcomeError).Inc()
	}
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{
		"item_id":     itemID,
		"to_location": committed.target.Code,
		"action":      action,
		"status":      committed.status,
	}
	if committed.movement.FromLocationID != nil {
		fields["from_location_id"] = *committed.movement.FromLocationID
	}
	if actor != nil {
		fields["actor"] = *actor
	}
	utils.LogInfo("Item moved", fields)
	return committed, nil
}

func (s *movementService) moveTx(ctx context.Context, itemID, targetLocationID int64, action string, actor *string, listedFree bool) (*committedMove, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Rollback if not committed

	item, err := s.itemRepo.GetItemByID(ctx, tx, itemID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to load item %d: %w", itemID, err)
	}
	target, err := s.locationRepo.GetLocationByID(ctx, tx, targetLocationID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrLocationNotFound
		}
		return nil, fmt.Errorf("failed to load location %d: %w", targetLocationID, err)
	}

	occupied, err := s.locationRepo.CountOccupants(ctx, tx, target.ID)
	if err != nil {
		return nil, err
	}
	if listedFree && target.Capacity != nil && occupied >= *target.Capacity {
		return nil, fmt.Errorf("%w: %s", ErrOccupancyRace, target.Code)
	}
	if ok, reason := movement.CanPlace(*item, *target, occupied); !ok {
		return nil, placementError(reason)
	}

	mv := &models.Movement{
		ItemID:         item.ID,
		FromLocationID: item.LocationID,
		ToLocationID:   target.ID,
		Action:         action,
		Actor:          actor,
		CreatedAt:      time.Now().UTC(),
	}
	if _, err := s.movementRepo.CreateMovement(ctx, tx, mv); err != nil {
		return nil, fmt.Errorf("failed to record movement: %w", err)
	}

	status := item.Status
	if next, ok := movement.NextStatus(*target); ok {
		status = next
	}

	if item.LocationID != nil {
		if err := s.locationRepo.ReleaseSlot(ctx, tx, *item.LocationID); err != nil {
			return nil, fmt.Errorf("failed to release previous location: %w", err)
		}
	}
	if err := s.locationRepo.ClaimSlot(ctx, tx, target.ID); err != nil {
		if errors.Is(err, repositories.ErrCapacityReached) {
			return nil, fmt.Errorf("%w: %s", ErrOccupancyRace, target.Code)
		}
		return nil, fmt.Errorf("failed to claim location: %w", err)
	}

	if err := s.itemRepo.UpdatePlacement(ctx, tx, item.ID, target.ID, status); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to update item placement: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit move: %w", err)
	}

	item.LocationID = &target.ID
	item.LocationCode = &target.Code
	item.Status = status
	mv.ToCode = &target.Code
	return &committedMove{item: item, target: target, movement: mv, status: status}, nil
}

// MoveTo resolves the target by id or code and moves the item there.
func (s *movementService) MoveTo(ctx context.Context, itemID int64, req MoveRequest, actor *string) (*PlacementResult, error) {
	targetID, err := s.resolveTarget(ctx, req)
	if err != nil {
		return nil, err
	}
	committed, err := s.move(ctx, itemID, targetID, req.Action, actor, false)
	if err != nil {
		return nil, err
	}
	return committed.result(), nil
}

func (s *movementService) resolveTarget(ctx context.Context, req MoveRequest) (int64, error) {
	if req.LocationID != nil {
		return *req.LocationID, nil
	}
	if req.LocationCode == nil || utils.IsEmpty(*req.LocationCode) {
		return 0, fmt.Errorf("%w: location_id or location_code is required", ErrValidation)
	}
	loc, err := s.locationRepo.GetLocationByCode(ctx, s.db, strings.TrimSpace(*req.LocationCode))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return 0, ErrLocationNotFound
		}
		return 0, err
	}
	return loc.ID, nil
}

// ChooseAndMoveToFreeFloorSlot stores the item on the first free FLOOR slot
// of its size. A slot lost to a concurrent move is retried with the next one.
func (s *movementService) ChooseAndMoveToFreeFloorSlot(ctx context.Context, itemID int64, actor *string) (*PlacementResult, error) {
	return s.autoPlace(ctx, itemID, models.ActionAutoSlot, actor)
}

func (s *movementService) autoPlace(ctx context.Context, itemID int64, action string, actor *string) (*PlacementResult, error) {
	return s.placeOnFreeSlot(ctx, itemID, models.KindFloor, action, actor, movement.ChooseSlot)
}

// slotPicker selects one slot among free candidates sorted by code.
type slotPicker func(candidates []models.Location, item models.Item) (models.Location, bool)

// placeOnFreeSlot lists the free slots of kind, moves the item to the one
// pick selects and, when a concurrent move fills it first, lists again and
// tries a slot not attempted yet. Every attempt consumes a distinct slot, so
// the loop ends once the compatible free slots are exhausted.
func (s *movementService) placeOnFreeSlot(ctx context.Context, itemID int64, kind models.LocationKind, action string, actor *string, pick slotPicker) (*PlacementResult, error) {
	item, err := s.itemRepo.GetItemByID(ctx, s.db, itemID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to load item %d: %w", itemID, err)
	}

	var size *models.Size
	if kind == models.KindFloor {
		size = item.Size
	}

	tried := make(map[int64]bool)
	var lastErr error
	for {
		candidates, err := s.locationRepo.ListFreeSlots(ctx, s.db, kind, size)
		if err != nil {
			return nil, err
		}
		if _, ok := pick(candidates, *item); !ok {
			return nil, noFreeSlotError(kind, item)
		}

		untried := make([]models.Location, 0, len(candidates))
		for _, c := range candidates {
			if !tried[c.ID] {
				untried = append(untried, c)
			}
		}
		slot, ok := pick(untried, *item)
		if !ok {
			// Compatible slots are still listed but each one was lost to a
			// concurrent move during this call.
			return nil, lastErr
		}
		tried[slot.ID] = true

		committed, err := s.move(ctx, itemID, slot.ID, action, actor, true)
		if err == nil {
			return committed.result(), nil
		}
		if !IsRetryable(err) {
			return nil, err
		}
		lastErr = err
	}
}

func noFreeSlotError(kind models.LocationKind, item *models.Item) error {
	if kind == models.KindShelf {
		return fmt.Errorf("%w: no free shelf accepts item %d", ErrNoCompatibleSlot, item.ID)
	}
	return fmt.Errorf("%w: no free %s floor slot", ErrNoCompatibleSlot, sizeText(item.Size))
}

// SendToStation moves the item to a work station, then asks the robot to
// run the station's mission. A failed dispatch is only reported.
func (s *movementService) SendToStation(ctx context.Context, itemID int64, stationCode string, actor *string) (*PlacementResult, error) {
	station, err := s.locationRepo.GetLocationByCode(ctx, s.db, stationCode)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrLocationNotFound
		}
		return nil, err
	}
	if station.Kind != models.KindStation {
		return nil, fmt.Errorf("%w: %s is not a station", ErrValidation, station.Code)
	}

	committed, err := s.move(ctx, itemID, station.ID, stationAction(station.Code), actor, false)
	if err != nil {
		return nil, err
	}

	res := committed.result()
	dispatched, dispatchErr := s.dispatcher.NotifyStationReached(ctx, station.Code)
	res.AMRDispatched = dispatched && dispatchErr == nil
	if dispatchErr != nil {
		res.AMRWarning = dispatchErr.Error()
	}
	return res, nil
}

// RecordInspection sends an approved item on to packaging. A failed
// inspection keeps the item at the inspection station.
func (s *movementService) RecordInspection(ctx context.Context, itemID int64, result string, actor *string) (*PlacementResult, error) {
	var code, action string
	switch strings.ToUpper(strings.TrimSpace(result)) {
	case InspectionOK:
		code, action = movement.PackagingStationCode, models.ActionInspectOK
	case InspectionNOK:
		code, action = movement.InspectionStationCode, models.ActionInspectNOK
	default:
		return nil, fmt.Errorf("%w: inspection result must be OK or NOK", ErrValidation)
	}

	station, err := s.locationRepo.GetLocationByCode(ctx, s.db, code)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrLocationNotFound
		}
		return nil, err
	}
	committed, err := s.move(ctx, itemID, station.ID, action, actor, false)
	if err != nil {
		return nil, err
	}
	return committed.result(), nil
}

// PutAway stores a packaged item on a floor slot or shelf, either the one
// requested or the first one that accepts it.
func (s *movementService) PutAway(ctx context.Context, itemID int64, req PutAwayRequest, actor *string) (*PlacementResult, error) {
	kind := models.LocationKind(strings.ToUpper(string(req.Kind)))
	if kind != models.KindFloor && kind != models.KindShelf {
		return nil, fmt.Errorf("%w: kind must be FLOOR or SHELF", ErrValidation)
	}

	var (
		res *PlacementResult
		err error
	)
	switch {
	case req.SlotID != nil:
		var committed *committedMove
		committed, err = s.move(ctx, itemID, *req.SlotID, models.ActionPutStock, actor, false)
		if err == nil {
			res = committed.result()
		}
	case kind == models.KindFloor:
		res, err = s.autoPlace(ctx, itemID, models.ActionPutStock, actor)
	default:
		res, err = s.firstFreeShelf(ctx, itemID, actor)
	}
	if err != nil {
		return nil, err
	}

	dispatched, dispatchErr := s.dispatcher.NotifyStored(ctx)
	res.AMRDispatched = dispatched && dispatchErr == nil
	if dispatchErr != nil {
		res.AMRWarning = dispatchErr.Error()
	}
	return res, nil
}

// firstFreeShelf takes the first free shelf, in code order, that the
// placement rules admit.
func (s *movementService) firstFreeShelf(ctx context.Context, itemID int64, actor *string) (*PlacementResult, error) {
	return s.placeOnFreeSlot(ctx, itemID, models.KindShelf, models.ActionPutStock, actor, firstAdmittedShelf)
}

func firstAdmittedShelf(shelves []models.Location, item models.Item) (models.Location, bool) {
	for _, shelf := range shelves {
		if ok, _ := movement.CanPlace(item, shelf, 0); ok {
			return shelf, true
		}
	}
	return models.Location{}, false
}

// actionLabel bounds the action label of move metrics to the workflow's own
// actions. Free-form actions from clients are counted as custom.
func actionLabel(action string) string {
	switch action {
	case models.ActionMove, models.ActionPutStock, models.ActionInspectOK, models.ActionInspectNOK, models.ActionAutoSlot,
		stationAction(movement.PhotoStationCode), stationAction(movement.InspectionStationCode), stationAction(movement.PackagingStationCode):
		return action
	}
	return metrics.ActionCustom
}

func stationAction(code string) string {
	return "TO_" + code
}

// GetMovementHistory returns the item's ledger, newest first.
func (s *movementService) GetMovementHistory(ctx context.Context, itemID int64) ([]models.Movement, error) {
	if _, err := s.itemRepo.GetItemByID(ctx, s.db, itemID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	return s.movementRepo.ListByItem(ctx, s.db, itemID)
}

func sizeText(size *models.Size) string {
	if size == nil {
		return "unsized"
	}
	return string(*size)
}
