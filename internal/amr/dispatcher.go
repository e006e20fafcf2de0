package amr

import (
	"context"
	"fmt"
	"time"

	"warehouse_flow_backend/internal/metrics"
	"warehouse_flow_backend/pkg/utils"
)

// MissionStarter is the part of Client the Dispatcher needs.
type MissionStarter interface {
	StartMission(ctx context.Context, missionGUID string) (map[string]interface{}, error)
}

// Dispatcher requests robot missions after items reach stations. It is
// best-effort: its errors are reported, never propagated into item state.
type Dispatcher struct {
	starter    MissionStarter
	missions   map[string]string // station code -> mission GUID
	afterStock string
	timeout    time.Duration
}

// NewDispatcher builds a Dispatcher. Stations without a GUID are skipped.
func NewDispatcher(starter MissionStarter, missions map[string]string, afterStock string, timeout time.Duration) *Dispatcher {
	m := make(map[string]string, len(missions))
	for code, guid := range missions {
		if guid != "" {
			m[code] = guid
		}
	}
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &Dispatcher{starter: starter, missions: m, afterStock: afterStock, timeout: timeout}
}

// MissionFor returns the mission configured for a station, if any.
func (d *Dispatcher) MissionFor(stationCode string) (string, bool) {
	if d == nil {
		return "", false
	}
	guid, ok := d.missions[stationCode]
	return guid, ok
}

// NotifyStationReached starts the station's mission. dispatched is false
// when no mission is configured for the station.
func (d *Dispatcher) NotifyStationReached(ctx context.Context, stationCode string) (dispatched bool, err error) {
	guid, ok := d.MissionFor(stationCode)
	if !ok {
		return false, nil
	}
	return true, d.start(ctx, guid, stationCode)
}

// NotifyStored starts the optional post-storage mission.
func (d *Dispatcher) NotifyStored(ctx context.Context) (dispatched bool, err error) {
	if d == nil || d.afterStock == "" {
		return false, nil
	}
	return true, d.start(ctx, d.afterStock, "after-stock")
}

func (d *Dispatcher) start(ctx context.Context, guid, reason string) error {
	// Detached from the caller so a finished HTTP request does not abort the call.
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	defer cancel()

	if _, err := d.starter.StartMission(callCtx, guid); err != nil {
		metrics.AMRDispatchTotal.WithLabelValues("failed").Inc()
		utils.LogWarn(err, "AMR mission dispatch failed", map[string]interface{}{"mission": guid, "reason": reason})
		return fmt.Errorf("mission %s (%s): %w", guid, reason, err)
	}
	metrics.AMRDispatchTotal.WithLabelValues("sent").Inc()
	utils.LogInfo("AMR mission dispatched", map[string]interface{}{"mission": guid, "reason": reason})
	return nil
}
