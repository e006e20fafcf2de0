package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"warehouse_flow_backend/internal/models"
	"warehouse_flow_backend/internal/repositories"
	"warehouse_flow_backend/pkg/utils"
)

const (
	skuPrefix        = "SKU-"
	searchLimit      = 200
	skuInsertRetries = 3
)

var (
	// ErrUnsupportedPhoto is returned for uploads that are not jpg, png or webp.
	ErrUnsupportedPhoto = errors.New("unsupported photo format")
	ErrSKUExists        = errors.New("sku already exists")
)

var allowedPhotoExt = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true}

// --- Item DTOs ---

// CreateItemRequest DTO
type CreateItemRequest struct {
	SKU         *string      `json:"sku"`
	Size        *models.Size `json:"size"`
	Description *string      `json:"description"`
	AvisNo      *string      `json:"avis_no"`
	OrderNo     *string      `json:"order_no"`
	BLNo        *string      `json:"bl_no"`
}

// --- ItemService Interface ---
type ItemService interface {
	CreateItem(ctx context.Context, req CreateItemRequest) (*models.Item, error)
	GetItem(ctx context.Context, itemID int64) (*models.Item, error)
	GetItemDetail(ctx context.Context, itemID int64) (*models.ItemDetail, error)
	SearchItems(ctx context.Context, q string) ([]models.Item, error)
	UpdateRefs(ctx context.Context, itemID int64, refs models.ItemRefs) (*models.Item, error)
	AttachPhoto(ctx context.Context, itemID int64, filename string, src io.Reader) (*models.Item, error)
}

// --- itemService Implementation ---
type itemService struct {
	db           *sql.DB
	itemRepo     repositories.ItemRepository
	locationRepo repositories.LocationRepository
	movementRepo repositories.MovementRepository
	uploadDir    string
}

// NewItemService creates a new instance of ItemService. Photos are written under uploadDir.
func NewItemService(
	db *sql.DB,
	itemRepo repositories.ItemRepository,
	locationRepo repositories.LocationRepository,
	movementRepo repositories.MovementRepository,
	uploadDir string,
) ItemService {
	return &itemService{
		db:           db,
		itemRepo:     itemRepo,
		locationRepo: locationRepo,
		movementRepo: movementRepo,
		uploadDir:    uploadDir,
	}
}

// CreateItem registers a received item with no location. Without a SKU the
// next SKU-##### code is assigned.
func (s *itemService) CreateItem(ctx context.Context, req CreateItemRequest) (*models.Item, error) {
	if req.Size != nil {
		size := models.Size(strings.ToUpper(strings.TrimSpace(string(*req.Size))))
		if size == "" {
			req.Size = nil
		} else if !size.Valid() {
			return nil, fmt.Errorf("%w: size must be GRAND or PETIT", ErrValidation)
		} else {
			req.Size = &size
		}
	}

	item := &models.Item{
		Size:        req.Size,
		Description: models.TrimOptional(req.Description),
		Status:      models.StatusReceived,
		AvisNo:      models.TrimOptional(req.AvisNo),
		OrderNo:     models.TrimOptional(req.OrderNo),
		BLNo:        models.TrimOptional(req.BLNo),
	}

	manualSKU := req.SKU != nil && !utils.IsEmpty(*req.SKU)
	for attempt := 0; ; attempt++ {
		if manualSKU {
			item.SKU = strings.TrimSpace(*req.SKU)
		} else {
			sku, err := s.nextSKU(ctx)
			if err != nil {
				return nil, err
			}
			item.SKU = sku
		}

		_, err := s.itemRepo.CreateItem(ctx, s.db, item)
		if err == nil {
			break
		}
		if errors.Is(err, repositories.ErrDuplicateKey) {
			// Another terminal took the same generated SKU; compute it again.
			if !manualSKU && attempt < skuInsertRetries {
				continue
			}
			return nil, fmt.Errorf("%w: %s", ErrSKUExists, item.SKU)
		}
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	utils.LogInfo("Item created", map[string]interface{}{"item_id": item.ID, "sku": item.SKU})
	return item, nil
}

// nextSKU returns SKU-<max numeric suffix + 1>, or SKU-00001 when none parses.
func (s *itemService) nextSKU(ctx context.Context) (string, error) {
	skus, err := s.itemRepo.ListSKUsWithPrefix(ctx, s.db, skuPrefix)
	if err != nil {
		return "", err
	}
	return NextSKU(skus)
}

// NextSKU computes the next generated SKU from the existing ones. Only
// suffixes made of ASCII digits count; anything else is a manual code.
func NextSKU(existing []string) (string, error) {
	var highest int64
	for _, sku := range existing {
		suffix, ok := strings.CutPrefix(sku, skuPrefix)
		if !ok || !isDigits(suffix) {
			continue
		}
		n, err := strconv.ParseInt(suffix, 10, 64)
		if err != nil {
			// Longer than any int64; cannot be followed.
			return "", fmt.Errorf("%w: SKU counter exhausted by %s", ErrValidation, sku)
		}
		if n > highest {
			highest = n
		}
	}
	if highest == math.MaxInt64 {
		return "", fmt.Errorf("%w: SKU counter exhausted", ErrValidation)
	}
	return fmt.Sprintf("%s%05d", skuPrefix, highest+1), nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (s *itemService) GetItem(ctx context.Context, itemID int64) (*models.Item, error) {
	item, err := s.itemRepo.GetItemByID(ctx, s.db, itemID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	return item, nil
}

// GetItemDetail returns the item with its current location and history.
func (s *itemService) GetItemDetail(ctx context.Context, itemID int64) (*models.ItemDetail, error) {
	item, err := s.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	detail := &models.ItemDetail{Item: item}
	if item.LocationID != nil {
		loc, err := s.locationRepo.GetLocationByID(ctx, s.db, *item.LocationID)
		if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return nil, err
		}
		detail.Location = loc
	}

	detail.Movements, err = s.movementRepo.ListByItem(ctx, s.db, itemID)
	if err != nil {
		return nil, err
	}
	return detail, nil
}

func (s *itemService) SearchItems(ctx context.Context, q string) ([]models.Item, error) {
	return s.itemRepo.Search(ctx, s.db, q, searchLimit)
}

// UpdateRefs replaces the correlation references. Blank values are cleared.
func (s *itemService) UpdateRefs(ctx context.Context, itemID int64, refs models.ItemRefs) (*models.Item, error) {
	refs = models.ItemRefs{
		AvisNo:  models.TrimOptional(refs.AvisNo),
		OrderNo: models.TrimOptional(refs.OrderNo),
		BLNo:    models.TrimOptional(refs.BLNo),
	}
	if err := s.itemRepo.UpdateRefs(ctx, s.db, itemID, refs); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to update refs: %w", err)
	}
	return s.GetItem(ctx, itemID)
}

// AttachPhoto stores the upload and records it on the item. A RECEIVED item
// moves to PHOTO; later stages keep their status.
func (s *itemService) AttachPhoto(ctx context.Context, itemID int64, filename string, src io.Reader) (*models.Item, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedPhotoExt[ext] {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedPhoto, ext)
	}

	item, err := s.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	name := fmt.Sprintf("item_%d_%d%s", itemID, time.Now().Unix(), ext)
	dst, err := os.Create(filepath.Join(s.uploadDir, name))
	if err != nil {
		return nil, fmt.Errorf("failed to create photo file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return nil, fmt.Errorf("failed to write photo: %w", err)
	}
	if err := dst.Close(); err != nil {
		return nil, fmt.Errorf("failed to write photo: %w", err)
	}

	status := item.Status
	if status == models.StatusReceived {
		status = models.StatusPhoto
	}
	photoPath := "uploads/" + name
	if err := s.itemRepo.SetPhoto(ctx, s.db, itemID, photoPath, status); err != nil {
		os.Remove(dst.Name())
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to record photo: %w", err)
	}

	utils.LogInfo("Photo attached", map[string]interface{}{"item_id": itemID, "file": name})
	return s.GetItem(ctx, itemID)
}
