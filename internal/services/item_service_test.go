package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warehouse_flow_backend/internal/models"
)

func TestNextSKU(t *testing.T) {
	tests := []struct {
		name     string
		existing []string
		want     string
	}{
		{"empty", nil, "SKU-00001"},
		{"gap tolerant", []string{"SKU-00001", "SKU-00007", "SKU-00003"}, "SKU-00008"},
		{"ignores non numeric", []string{"SKU-ABC", "SKU-00002", "PAL-00099"}, "SKU-00003"},
		{"only manual codes", []string{"SKU-X1"}, "SKU-00001"},
		{"wider than five digits", []string{"SKU-99999"}, "SKU-100000"},
		{"signed suffixes are manual codes", []string{"SKU-+00007", "SKU--3", "SKU-00002"}, "SKU-00003"},
		{"blank suffix", []string{"SKU-", "SKU- 12"}, "SKU-00001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextSKU(tt.existing)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNextSKUCounterExhausted(t *testing.T) {
	for _, existing := range [][]string{
		{"SKU-00001", "SKU-9223372036854775807"},
		{"SKU-99999999999999999999"},
	} {
		got, err := NextSKU(existing)
		assert.ErrorIs(t, err, ErrValidation, existing)
		assert.Empty(t, got)
	}
}

func TestCreateItem(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	first, err := env.items.CreateItem(ctx, CreateItemRequest{Size: sizePtr("grand"), Description: strPtr("  Chariot  "), AvisNo: strPtr(" ")})
	require.NoError(t, err)
	assert.Equal(t, "SKU-00001", first.SKU)
	assert.Equal(t, models.StatusReceived, first.Status)
	assert.Nil(t, first.LocationID)
	require.NotNil(t, first.Size)
	assert.Equal(t, models.SizeGrand, *first.Size)
	require.NotNil(t, first.Description)
	assert.Equal(t, "Chariot", *first.Description)
	assert.Nil(t, first.AvisNo)

	manual, err := env.items.CreateItem(ctx, CreateItemRequest{SKU: strPtr("SKU-00010")})
	require.NoError(t, err)
	assert.Equal(t, "SKU-00010", manual.SKU)

	next, err := env.items.CreateItem(ctx, CreateItemRequest{})
	require.NoError(t, err)
	assert.Equal(t, "SKU-00011", next.SKU)
	assert.Nil(t, next.Size)

	_, err = env.items.CreateItem(ctx, CreateItemRequest{SKU: strPtr("SKU-00010")})
	assert.ErrorIs(t, err, ErrSKUExists)

	_, err = env.items.CreateItem(ctx, CreateItemRequest{Size: sizePtr("HUGE")})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestGetItemDetail(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	item := env.createItem(t, sizePtr(models.SizePetit))

	detail, err := env.items.GetItemDetail(ctx, item.ID)
	require.NoError(t, err)
	assert.Nil(t, detail.Location)
	assert.Empty(t, detail.Movements)

	_, err = env.moves.SendToStation(ctx, item.ID, "POSTE-PHOTO", nil)
	require.NoError(t, err)

	detail, err = env.items.GetItemDetail(ctx, item.ID)
	require.NoError(t, err)
	require.NotNil(t, detail.Location)
	assert.Equal(t, "POSTE-PHOTO", detail.Location.Code)
	require.NotNil(t, detail.Item.LocationCode)
	assert.Equal(t, "POSTE-PHOTO", *detail.Item.LocationCode)
	assert.Len(t, detail.Movements, 1)

	_, err = env.items.GetItemDetail(ctx, item.ID+1)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestSearchItemsAndUpdateRefs(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	a := env.createItem(t, nil)
	b := env.createItem(t, nil)

	updated, err := env.items.UpdateRefs(ctx, b.ID, models.ItemRefs{AvisNo: strPtr("AV-778"), OrderNo: strPtr(""), BLNo: strPtr(" BL-1 ")})
	require.NoError(t, err)
	require.NotNil(t, updated.AvisNo)
	assert.Equal(t, "AV-778", *updated.AvisNo)
	assert.Nil(t, updated.OrderNo)
	require.NotNil(t, updated.BLNo)
	assert.Equal(t, "BL-1", *updated.BLNo)

	found, err := env.items.SearchItems(ctx, "av-778")
	require.NoError(t, err)
	require.Len(t, found, 1, "LIKE matching is case-insensitive for ASCII in SQLite")
	assert.Equal(t, b.ID, found[0].ID)

	all, err := env.items.SearchItems(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, b.ID, all[0].ID, "newest first")
	assert.Equal(t, a.ID, all[1].ID)

	_, err = env.items.UpdateRefs(ctx, b.ID+10, models.ItemRefs{})
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestAttachPhoto(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	item := env.createItem(t, nil)

	_, err := env.items.AttachPhoto(ctx, item.ID, "scan.gif", strings.NewReader("GIF89a"))
	assert.ErrorIs(t, err, ErrUnsupportedPhoto)

	got, err := env.items.AttachPhoto(ctx, item.ID, "Front.JPG", strings.NewReader("jpeg-bytes"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusPhoto, got.Status)
	require.NotNil(t, got.PhotoPath)
	assert.True(t, strings.HasPrefix(*got.PhotoPath, "uploads/item_"))
	assert.True(t, strings.HasSuffix(*got.PhotoPath, ".jpg"))

	content, err := os.ReadFile(filepath.Join(env.uploadDir, filepath.Base(*got.PhotoPath)))
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(content))
	assert.Equal(t, 0, env.movementCount(t, item.ID), "a photo does not move the item")

	inspected := env.createItem(t, nil)
	_, err = env.moves.SendToStation(ctx, inspected.ID, "POSTE-INSPECTION", nil)
	require.NoError(t, err)
	got, err = env.items.AttachPhoto(ctx, inspected.ID, "late.webp", strings.NewReader("webp"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusInspection, got.Status)

	_, err = env.items.AttachPhoto(ctx, inspected.ID+100, "x.png", strings.NewReader("png"))
	assert.ErrorIs(t, err, ErrItemNotFound)
}
