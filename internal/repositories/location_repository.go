package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"warehouse_flow_backend/internal/models"
)

// LocationRepository defines the interface for location catalog database operations.
type LocationRepository interface {
	CreateLocation(ctx context.Context, executor SQLExecutor, loc *models.Location) (int64, error)
	CountLocations(ctx context.Context, executor SQLExecutor) (int, error)
	GetLocationByID(ctx context.Context, executor SQLExecutor, locationID int64) (*models.Location, error)
	GetLocationByCode(ctx context.Context, executor SQLExecutor, code string) (*models.Location, error)
	CountOccupants(ctx context.Context, executor SQLExecutor, locationID int64) (int, error)
	ClaimSlot(ctx context.Context, executor SQLExecutor, locationID int64) error
	ReleaseSlot(ctx context.Context, executor SQLExecutor, locationID int64) error
	ListFreeSlots(ctx context.Context, executor SQLExecutor, kind models.LocationKind, size *models.Size) ([]models.Location, error)
	ListLocations(ctx context.Context, executor SQLExecutor, kind *models.LocationKind, includeInactive bool) ([]models.Location, error)
	OccupancyByKind(ctx context.Context, executor SQLExecutor, kind models.LocationKind) (*models.KindOccupancy, error)
}

type locationRepository struct{}

// NewLocationRepository creates a new instance of LocationRepository.
func NewLocationRepository() LocationRepository {
	return &locationRepository{}
}

const locationColumns = `l.id, l.code, l.name, l.kind, l.capacity, l.size, l.active`

func scanLocation(row scanner, extra ...interface{}) (*models.Location, error) {
	var loc models.Location
	var kind string
	var size sql.NullString
	var capacity sql.NullInt64

	dest := append([]interface{}{&loc.ID, &loc.Code, &loc.Name, &kind, &capacity, &size, &loc.Active}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	loc.Kind = models.LocationKind(kind)
	if capacity.Valid {
		c := int(capacity.Int64)
		loc.Capacity = &c
	}
	if size.Valid && size.String != "" {
		s := models.Size(size.String)
		loc.Size = &s
	}
	return &loc, nil
}

func (r *locationRepository) CreateLocation(ctx context.Context, executor SQLExecutor, loc *models.Location) (int64, error) {
	query := `INSERT INTO locations (code, name, kind, capacity, size, active, occupied)
	          VALUES ($1, $2, $3, $4, $5, $6, 0)
	          RETURNING id`

	var capacity sql.NullInt64
	if loc.Capacity != nil {
		capacity = sql.NullInt64{Int64: int64(*loc.Capacity), Valid: true}
	}
	var size sql.NullString
	if loc.Size != nil {
		size = sql.NullString{String: string(*loc.Size), Valid: true}
	}

	err := executor.QueryRowContext(ctx, query, loc.Code, loc.Name, loc.Kind, capacity, size, loc.Active).Scan(&loc.ID)
	if err != nil {
		return 0, wrapDBError(err, "creating location "+loc.Code)
	}
	return loc.ID, nil
}

func (r *locationRepository) CountLocations(ctx context.Context, executor SQLExecutor) (int, error) {
	var count int
	if err := executor.QueryRowContext(ctx, `SELECT COUNT(*) FROM locations`).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: counting locations: %v", ErrDatabaseError, err)
	}
	return count, nil
}

func (r *locationRepository) GetLocationByID(ctx context.Context, executor SQLExecutor, locationID int64) (*models.Location, error) {
	query := `SELECT ` + locationColumns + ` FROM locations l WHERE l.id = $1`
	loc, err := scanLocation(executor.QueryRowContext(ctx, query, locationID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting location %d: %v", ErrDatabaseError, locationID, err)
	}
	return loc, nil
}

func (r *locationRepository) GetLocationByCode(ctx context.Context, executor SQLExecutor, code string) (*models.Location, error) {
	query := `SELECT ` + locationColumns + ` FROM locations l WHERE l.code = $1`
	loc, err := scanLocation(executor.QueryRowContext(ctx, query, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting location %s: %v", ErrDatabaseError, code, err)
	}
	return loc, nil
}

func (r *locationRepository) CountOccupants(ctx context.Context, executor SQLExecutor, locationID int64) (int, error) {
	var count int
	err := executor.QueryRowContext(ctx, `SELECT COUNT(*) FROM items WHERE location_id = $1`, locationID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%w: counting occupants of location %d: %v", ErrDatabaseError, locationID, err)
	}
	return count, nil
}

// ClaimSlot takes one unit of capacity. The guard is evaluated by the
// database under its write lock, so two concurrent claims on a full slot
// cannot both succeed.
func (r *locationRepository) ClaimSlot(ctx context.Context, executor SQLExecutor, locationID int64) error {
	query := `UPDATE locations SET occupied = occupied + 1
	          WHERE id = $1 AND (capacity IS NULL OR occupied < capacity)`
	res, err := executor.ExecContext(ctx, query, locationID)
	if err != nil {
		return wrapDBError(err, "claiming location")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: claiming location: %v", ErrDatabaseError, err)
	}
	if n == 0 {
		return ErrCapacityReached
	}
	return nil
}

func (r *locationRepository) ReleaseSlot(ctx context.Context, executor SQLExecutor, locationID int64) error {
	query := `UPDATE locations SET occupied = occupied - 1 WHERE id = $1 AND occupied > 0`
	if _, err := executor.ExecContext(ctx, query, locationID); err != nil {
		return wrapDBError(err, "releasing location")
	}
	return nil
}

func (r *locationRepository) ListFreeSlots(ctx context.Context, executor SQLExecutor, kind models.LocationKind, size *models.Size) ([]models.Location, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + locationColumns + `
		FROM locations l
		LEFT JOIN items it ON it.location_id = l.id
		WHERE l.kind = $1 AND l.capacity = 1 AND l.active = $2`)
	args := []interface{}{kind, true}
	if size != nil {
		queryBuilder.WriteString(` AND l.size = $3`)
		args = append(args, *size)
	}
	queryBuilder.WriteString(`
		GROUP BY l.id, l.code, l.name, l.kind, l.capacity, l.size, l.active
		HAVING COUNT(it.id) = 0
		ORDER BY l.code ASC`)

	rows, err := executor.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: listing free slots: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	slots := []models.Location{}
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning free slot: %v", ErrDatabaseError, err)
		}
		slots = append(slots, *loc)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating free slots: %v", ErrDatabaseError, err)
	}
	return slots, nil
}

func (r *locationRepository) ListLocations(ctx context.Context, executor SQLExecutor, kind *models.LocationKind, includeInactive bool) ([]models.Location, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + locationColumns + `,
		(SELECT COUNT(*) FROM items i WHERE i.location_id = l.id) AS occ
		FROM locations l`)

	var conditions []string
	var args []interface{}
	argCount := 1

	if kind != nil {
		conditions = append(conditions, fmt.Sprintf("l.kind = $%d", argCount))
		args = append(args, *kind)
		argCount++
	}
	if !includeInactive {
		conditions = append(conditions, fmt.Sprintf("l.active = $%d", argCount))
		args = append(args, true)
	}
	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY l.kind, l.code")

	rows, err := executor.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: listing locations: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	locations := []models.Location{}
	for rows.Next() {
		var occupants int
		loc, err := scanLocation(rows, &occupants)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning location: %v", ErrDatabaseError, err)
		}
		loc.Occupants = occupants
		locations = append(locations, *loc)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating locations: %v", ErrDatabaseError, err)
	}
	return locations, nil
}

func (r *locationRepository) OccupancyByKind(ctx context.Context, executor SQLExecutor, kind models.LocationKind) (*models.KindOccupancy, error) {
	occ := &models.KindOccupancy{Kind: kind}

	err := executor.QueryRowContext(ctx, `SELECT COUNT(*) FROM locations WHERE kind = $1`, kind).Scan(&occ.Total)
	if err != nil {
		return nil, fmt.Errorf("%w: counting %s locations: %v", ErrDatabaseError, kind, err)
	}

	query := `SELECT COUNT(*) FROM items i JOIN locations l ON i.location_id = l.id WHERE l.kind = $1 AND l.capacity = 1`
	if err := executor.QueryRowContext(ctx, query, kind).Scan(&occ.Occupied); err != nil {
		return nil, fmt.Errorf("%w: counting occupied %s locations: %v", ErrDatabaseError, kind, err)
	}

	occ.Free = occ.Total - occ.Occupied
	return occ, nil
}
