package services

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"warehouse_flow_backend/internal/amr"
	"warehouse_flow_backend/internal/database"
	"warehouse_flow_backend/internal/locking"
	"warehouse_flow_backend/internal/models"
	"warehouse_flow_backend/internal/repositories"
)

// testEnv wires every service onto a seeded SQLite file.
type testEnv struct {
	db        *sql.DB
	items     ItemService
	moves     MovementService
	queues    WorkQueueService
	auth      AuthService
	robot     *fakeRobot
	uploadDir string
}

type fakeRobot struct {
	mu       sync.Mutex
	missions []string
	err      error
}

func (f *fakeRobot) StartMission(_ context.Context, guid string) (map[string]interface{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.missions = append(f.missions, guid)
	return map[string]interface{}{"id": len(f.missions)}, f.err
}

func (f *fakeRobot) started() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.missions...)
}

func newTestEnv(t *testing.T, locker locking.Locker) *testEnv {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()

	db, err := database.Open(ctx, database.Options{
		Driver:      database.DriverSQLite,
		SQLitePath:  filepath.Join(dir, "warehouse.db"),
		ApplySchema: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	itemRepo := repositories.NewItemRepository()
	locationRepo := repositories.NewLocationRepository()
	movementRepo := repositories.NewMovementRepository()

	seeded, err := database.SeedLocations(ctx, db, locationRepo)
	require.NoError(t, err)
	require.Equal(t, len(database.DefaultCatalog()), seeded)

	robot := &fakeRobot{}
	dispatcher := amr.NewDispatcher(robot, map[string]string{
		"POSTE-PHOTO":     "mission-photo",
		"POSTE-EMBALLAGE": "mission-pack",
	}, "mission-after-stock", 0)

	uploadDir := filepath.Join(dir, "uploads")
	return &testEnv{
		db:        db,
		items:     NewItemService(db, itemRepo, locationRepo, movementRepo, uploadDir),
		moves:     NewMovementService(db, itemRepo, locationRepo, movementRepo, locker, dispatcher),
		queues:    NewWorkQueueService(db, itemRepo, locationRepo),
		auth:      NewAuthService(repositories.NewAuthRepository(), db),
		robot:     robot,
		uploadDir: uploadDir,
	}
}

func (e *testEnv) location(t *testing.T, code string) *models.Location {
	t.Helper()
	loc, err := repositories.NewLocationRepository().GetLocationByCode(context.Background(), e.db, code)
	require.NoError(t, err)
	return loc
}

func (e *testEnv) createItem(t *testing.T, size *models.Size) *models.Item {
	t.Helper()
	item, err := e.items.CreateItem(context.Background(), CreateItemRequest{Size: size})
	require.NoError(t, err)
	return item
}

func (e *testEnv) item(t *testing.T, id int64) *models.Item {
	t.Helper()
	item, err := e.items.GetItem(context.Background(), id)
	require.NoError(t, err)
	return item
}

func (e *testEnv) exec(t *testing.T, query string, args ...interface{}) {
	t.Helper()
	_, err := e.db.ExecContext(context.Background(), query, args...)
	require.NoError(t, err)
}

func (e *testEnv) occupiedGuard(t *testing.T, code string) int {
	t.Helper()
	var n int
	require.NoError(t, e.db.QueryRowContext(context.Background(), `SELECT occupied FROM locations WHERE code = $1`, code).Scan(&n))
	return n
}

func (e *testEnv) movementCount(t *testing.T, itemID int64) int {
	t.Helper()
	var n int
	require.NoError(t, e.db.QueryRowContext(context.Background(), `SELECT COUNT(*) FROM movements WHERE item_id = $1`, itemID).Scan(&n))
	return n
}

func sizePtr(s models.Size) *models.Size { return &s }

func strPtr(s string) *string { return &s }
