package amr

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientRequiresBaseURLOutsideDryRun(t *testing.T) {
	_, err := NewClient(Config{})
	require.Error(t, err)

	_, err = NewClient(Config{BaseURL: "http://robot"})
	require.Error(t, err)

	c, err := NewClient(Config{DryRun: true})
	require.NoError(t, err)
	assert.True(t, c.DryRun())
}

func TestDryRunAnswersLocally(t *testing.T) {
	c, err := NewClient(Config{DryRun: true})
	require.NoError(t, err)
	ctx := context.Background()

	status, err := c.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, true, status["dry_run"])

	missions, err := c.Missions(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, missions)

	res, err := c.StartMission(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"mission_id": "abc"}, res["payload"])
}

func TestClientAgainstServer(t *testing.T) {
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "distributor" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/status":
			_, _ = w.Write([]byte(`{"state_text":"Ready","battery_percentage":87.5}`))
		case r.Method == http.MethodGet && r.URL.Path == "/missions":
			_, _ = w.Write([]byte(`[{"guid":"g-1","name":"POSTE-PHOTO","url":"/v2.0.0/missions/g-1"}]`))
		case r.Method == http.MethodPost && r.URL.Path == "/mission_queue":
			_ = json.NewDecoder(r.Body).Decode(&gotBody)
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":42,"state":"Pending"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c, err := NewClient(Config{BaseURL: srv.URL + "/", User: "distributor", Password: "secret", Timeout: time.Second})
	require.NoError(t, err)
	ctx := context.Background()

	status, err := c.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ready", status["state_text"])

	missions, err := c.Missions(ctx)
	require.NoError(t, err)
	require.Len(t, missions, 1)
	assert.Equal(t, "g-1", missions[0].GUID)

	res, err := c.StartMission(ctx, "g-1")
	require.NoError(t, err)
	assert.Equal(t, float64(42), res["id"])
	assert.Equal(t, "g-1", gotBody["mission_id"])
}

func TestClientSurfacesHTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "robot busy", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, err := NewClient(Config{BaseURL: srv.URL, User: "u", Password: "p"})
	require.NoError(t, err)

	_, err = c.StartMission(context.Background(), "g-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

type fakeStarter struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeStarter) StartMission(ctx context.Context, guid string) (map[string]interface{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, guid)
	if _, ok := ctx.Deadline(); !ok {
		return nil, errors.New("missing deadline")
	}
	return map[string]interface{}{}, f.err
}

func TestDispatcher(t *testing.T) {
	starter := &fakeStarter{}
	d := NewDispatcher(starter, map[string]string{"POSTE-PHOTO": "g-photo", "POSTE-INSPECTION": ""}, "g-after", time.Second)

	dispatched, err := d.NotifyStationReached(context.Background(), "POSTE-PHOTO")
	require.NoError(t, err)
	assert.True(t, dispatched)

	dispatched, err = d.NotifyStationReached(context.Background(), "POSTE-INSPECTION")
	require.NoError(t, err)
	assert.False(t, dispatched, "blank mission ids are not configured")

	dispatched, err = d.NotifyStored(context.Background())
	require.NoError(t, err)
	assert.True(t, dispatched)

	assert.Equal(t, []string{"g-photo", "g-after"}, starter.calls)
}

func TestDispatcherFailureIsReported(t *testing.T) {
	starter := &fakeStarter{err: errors.New("connection refused")}
	d := NewDispatcher(starter, map[string]string{"POSTE-EMBALLAGE": "g-pack"}, "", 0)

	dispatched, err := d.NotifyStationReached(context.Background(), "POSTE-EMBALLAGE")
	assert.True(t, dispatched)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")

	dispatched, err = d.NotifyStored(context.Background())
	assert.False(t, dispatched)
	assert.NoError(t, err)
}

func TestDispatcherSurvivesCanceledCaller(t *testing.T) {
	starter := &fakeStarter{}
	d := NewDispatcher(starter, map[string]string{"POSTE-PHOTO": "g-photo"}, "", time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := d.NotifyStationReached(ctx, "POSTE-PHOTO")
	assert.NoError(t, err)
}
