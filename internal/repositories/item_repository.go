package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"warehouse_flow_backend/internal/models"
)

// ItemRepository defines the interface for item-related database operations.
type ItemRepository interface {
	CreateItem(ctx context.Context, executor SQLExecutor, item *models.Item) (int64, error)
	GetItemByID(ctx context.Context, executor SQLExecutor, itemID int64) (*models.Item, error)
	ListSKUsWithPrefix(ctx context.Context, executor SQLExecutor, prefix string) ([]string, error)
	UpdatePlacement(ctx context.Context, executor SQLExecutor, itemID, locationID int64, status models.Status) error
	UpdateRefs(ctx context.Context, executor SQLExecutor, itemID int64, refs models.ItemRefs) error
	SetPhoto(ctx context.Context, executor SQLExecutor, itemID int64, photoPath string, status models.Status) error
	ListByStatuses(ctx context.Context, executor SQLExecutor, statuses []models.Status) ([]models.Item, error)
	Search(ctx context.Context, executor SQLExecutor, q string, limit int) ([]models.Item, error)
	CountByStatus(ctx context.Context, executor SQLExecutor) ([]models.StatusCount, error)
}

type itemRepository struct{}

// NewItemRepository creates a new instance of ItemRepository.
func NewItemRepository() ItemRepository {
	return &itemRepository{}
}

const itemColumns = `i.id, i.sku, i.size, i.description, i.photo_path, i.status, i.location_id,
	i.avis_no, i.order_no, i.bl_no, i.created_at, i.updated_at`

// scanItem reads itemColumns, optionally followed by the joined location code.
func scanItem(row scanner, withCode bool) (*models.Item, error) {
	var item models.Item
	var size, status, code sql.NullString
	var locationID sql.NullInt64

	dest := []interface{}{
		&item.ID, &item.SKU, &size, &item.Description, &item.PhotoPath, &status, &locationID,
		&item.AvisNo, &item.OrderNo, &item.BLNo, &item.CreatedAt, &item.UpdatedAt,
	}
	if withCode {
		dest = append(dest, &code)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	if size.Valid && size.String != "" {
		s := models.Size(size.String)
		item.Size = &s
	}
	item.Status = models.Status(status.String)
	if locationID.Valid {
		item.LocationID = &locationID.Int64
	}
	if code.Valid {
		item.LocationCode = &code.String
	}
	return &item, nil
}

func (r *itemRepository) CreateItem(ctx context.Context, executor SQLExecutor, item *models.Item) (int64, error) {
	query := `INSERT INTO items (sku, size, description, status, location_id, avis_no, order_no, bl_no, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, NULL, $5, $6, $7, $8, $9)
	          RETURNING id`

	currentTime := time.Now().UTC()
	var size sql.NullString
	if item.Size != nil {
		size = sql.NullString{String: string(*item.Size), Valid: true}
	}

	err := executor.QueryRowContext(ctx, query,
		item.SKU, size, item.Description, item.Status, item.AvisNo, item.OrderNo, item.BLNo, currentTime, currentTime,
	).Scan(&item.ID)
	if err != nil {
		return 0, wrapDBError(err, "creating item")
	}
	item.LocationID = nil
	item.CreatedAt = currentTime
	item.UpdatedAt = currentTime
	return item.ID, nil
}

func (r *itemRepository) GetItemByID(ctx context.Context, executor SQLExecutor, itemID int64) (*models.Item, error) {
	query := `SELECT ` + itemColumns + `, l.code
		FROM items i
		LEFT JOIN locations l ON i.location_id = l.id
		WHERE i.id = $1`

	item, err := scanItem(executor.QueryRowContext(ctx, query, itemID), true)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting item %d: %v", ErrDatabaseError, itemID, err)
	}
	return item, nil
}

func (r *itemRepository) ListSKUsWithPrefix(ctx context.Context, executor SQLExecutor, prefix string) ([]string, error) {
	rows, err := executor.QueryContext(ctx, `SELECT sku FROM items WHERE sku LIKE $1`, prefix+"%")
	if err != nil {
		return nil, fmt.Errorf("%w: listing skus: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	skus := []string{}
	for rows.Next() {
		var sku string
		if err := rows.Scan(&sku); err != nil {
			return nil, fmt.Errorf("%w: scanning sku: %v", ErrDatabaseError, err)
		}
		skus = append(skus, sku)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating skus: %v", ErrDatabaseError, err)
	}
	return skus, nil
}

// UpdatePlacement is only called by the movement orchestrator, inside the
// transaction that appends the matching ledger row.
func (r *itemRepository) UpdatePlacement(ctx context.Context, executor SQLExecutor, itemID, locationID int64, status models.Status) error {
	query := `UPDATE items SET location_id = $1, status = $2, updated_at = $3 WHERE id = $4`
	res, err := executor.ExecContext(ctx, query, locationID, status, time.Now().UTC(), itemID)
	if err != nil {
		return wrapDBError(err, "updating item placement")
	}
	return requireOneRow(res, "updating item placement")
}

func (r *itemRepository) UpdateRefs(ctx context.Context, executor SQLExecutor, itemID int64, refs models.ItemRefs) error {
	query := `UPDATE items SET avis_no = $1, order_no = $2, bl_no = $3, updated_at = $4 WHERE id = $5`
	res, err := executor.ExecContext(ctx, query, refs.AvisNo, refs.OrderNo, refs.BLNo, time.Now().UTC(), itemID)
	if err != nil {
		return wrapDBError(err, "updating item refs")
	}
	return requireOneRow(res, "updating item refs")
}

func (r *itemRepository) SetPhoto(ctx context.Context, executor SQLExecutor, itemID int64, photoPath string, status models.Status) error {
	query := `UPDATE items SET photo_path = $1, status = $2, updated_at = $3 WHERE id = $4`
	res, err := executor.ExecContext(ctx, query, photoPath, status, time.Now().UTC(), itemID)
	if err != nil {
		return wrapDBError(err, "setting item photo")
	}
	return requireOneRow(res, "setting item photo")
}

func (r *itemRepository) ListByStatuses(ctx context.Context, executor SQLExecutor, statuses []models.Status) ([]models.Item, error) {
	if len(statuses) == 0 {
		return []models.Item{}, nil
	}

	placeholders := make([]string, len(statuses))
	args := make([]interface{}, len(statuses))
	for i, s := range statuses {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = s
	}

	query := `SELECT ` + itemColumns + `, l.code
		FROM items i
		LEFT JOIN locations l ON i.location_id = l.id
		WHERE i.status IN (` + strings.Join(placeholders, ", ") + `)
		ORDER BY i.created_at ASC, i.id ASC`

	return r.queryItems(ctx, executor, "listing items by status", query, args...)
}

func (r *itemRepository) Search(ctx context.Context, executor SQLExecutor, q string, limit int) ([]models.Item, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		query := `SELECT ` + itemColumns + `, l.code
			FROM items i
			LEFT JOIN locations l ON i.location_id = l.id
			ORDER BY i.created_at DESC, i.id DESC
			LIMIT $1`
		return r.queryItems(ctx, executor, "listing items", query, limit)
	}

	query := `SELECT ` + itemColumns + `, l.code
		FROM items i
		LEFT JOIN locations l ON i.location_id = l.id
		WHERE i.sku LIKE $1 OR i.description LIKE $2 OR i.avis_no LIKE $3 OR i.order_no LIKE $4 OR i.bl_no LIKE $5
		ORDER BY i.created_at DESC, i.id DESC
		LIMIT $6`
	pattern := "%" + q + "%"
	return r.queryItems(ctx, executor, "searching items", query, pattern, pattern, pattern, pattern, pattern, limit)
}

func (r *itemRepository) CountByStatus(ctx context.Context, executor SQLExecutor) ([]models.StatusCount, error) {
	rows, err := executor.QueryContext(ctx, `SELECT status, COUNT(*) FROM items GROUP BY status ORDER BY status`)
	if err != nil {
		return nil, fmt.Errorf("%w: counting items by status: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	counts := []models.StatusCount{}
	for rows.Next() {
		var sc models.StatusCount
		var status string
		if err := rows.Scan(&status, &sc.Count); err != nil {
			return nil, fmt.Errorf("%w: scanning status count: %v", ErrDatabaseError, err)
		}
		sc.Status = models.Status(status)
		counts = append(counts, sc)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating status counts: %v", ErrDatabaseError, err)
	}
	return counts, nil
}

func (r *itemRepository) queryItems(ctx context.Context, executor SQLExecutor, op, query string, args ...interface{}) ([]models.Item, error) {
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDatabaseError, op, err)
	}
	defer rows.Close()

	items := []models.Item{}
	for rows.Next() {
		item, err := scanItem(rows, true)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning item: %v", ErrDatabaseError, err)
		}
		items = append(items, *item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDatabaseError, op, err)
	}
	return items, nil
}

func requireOneRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDatabaseError, op, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
