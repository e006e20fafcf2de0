package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"warehouse_flow_backend/internal/models"
)

// MovementRepository defines the interface for the movement ledger.
// The ledger is append-only: there is no update or delete.
type MovementRepository interface {
	CreateMovement(ctx context.Context, executor SQLExecutor, movement *models.Movement) (int64, error)
	ListByItem(ctx context.Context, executor SQLExecutor, itemID int64) ([]models.Movement, error)
}

type movementRepository struct{}

// NewMovementRepository creates a new instance of MovementRepository.
func NewMovementRepository() MovementRepository {
	return &movementRepository{}
}

func (r *movementRepository) CreateMovement(ctx context.Context, executor SQLExecutor, movement *models.Movement) (int64, error) {
	query := `INSERT INTO movements (item_id, from_location_id, to_location_id, action, actor, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`
	if movement.CreatedAt.IsZero() {
		movement.CreatedAt = time.Now().UTC()
	}

	var fromID sql.NullInt64
	if movement.FromLocationID != nil {
		fromID = sql.NullInt64{Int64: *movement.FromLocationID, Valid: true}
	}

	err := executor.QueryRowContext(ctx, query,
		movement.ItemID, fromID, movement.ToLocationID, movement.Action, movement.Actor, movement.CreatedAt,
	).Scan(&movement.ID)
	if err != nil {
		return 0, wrapDBError(err, "creating movement")
	}
	return movement.ID, nil
}

// ListByItem returns the history of an item, newest first.
func (r *movementRepository) ListByItem(ctx context.Context, executor SQLExecutor, itemID int64) ([]models.Movement, error) {
	query := `SELECT m.id, m.item_id, m.from_location_id, m.to_location_id, m.action, m.actor, m.created_at,
	    lf.code AS from_code, lt.code AS to_code
	  FROM movements m
	  LEFT JOIN locations lf ON m.from_location_id = lf.id
	  LEFT JOIN locations lt ON m.to_location_id = lt.id
	  WHERE m.item_id = $1
	  ORDER BY m.created_at DESC, m.id DESC`

	rows, err := executor.QueryContext(ctx, query, itemID)
	if err != nil {
		return nil, fmt.Errorf("%w: getting movements of item %d: %v", ErrDatabaseError, itemID, err)
	}
	defer rows.Close()

	movements := []models.Movement{}
	for rows.Next() {
		var mv models.Movement
		var fromID sql.NullInt64
		var fromCode, toCode sql.NullString
		if err := rows.Scan(
			&mv.ID, &mv.ItemID, &fromID, &mv.ToLocationID, &mv.Action, &mv.Actor, &mv.CreatedAt,
			&fromCode, &toCode,
		); err != nil {
			return nil, fmt.Errorf("%w: scanning movement: %v", ErrDatabaseError, err)
		}
		if fromID.Valid {
			mv.FromLocationID = &fromID.Int64
		}
		if fromCode.Valid {
			mv.FromCode = &fromCode.String
		}
		if toCode.Valid {
			mv.ToCode = &toCode.String
		}
		movements = append(movements, mv)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating movements: %v", ErrDatabaseError, err)
	}
	return movements, nil
}
