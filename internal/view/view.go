// Package view mirrors the registry on the viewer side. It consumes
// protocol events and derives proximity state, arrival notices, route
// summaries and aggregate counts for display.
package view

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	domain "ambulance-tracker/internal/domain/tracking"
	"ambulance-tracker/internal/geo"
	"ambulance-tracker/internal/hub"
	"ambulance-tracker/internal/logger"
	"ambulance-tracker/internal/routing"
)

// Config fixes the destination and the proximity rule for one viewer.
type Config struct {
	Dispensary          geo.Point
	ProximityThresholdM float64
	RouteTimeout        time.Duration
}

// RouteSummary is the displayed road distance/time. Valid is false until
// the routing engine has answered at least once for the device.
type RouteSummary struct {
	DistanceKm  float64
	TimeMinutes float64
	Valid       bool
}

// Ambulance is the viewer's state for one tracked device.
type Ambulance struct {
	ID           string
	Number       int
	Position     geo.Point
	DeviceType   domain.DeviceType
	BatteryLevel string
	SpeedKmh     float64
	AtDispensary bool
	Route        RouteSummary
}

// ArrivalNotice fires on the false-to-true transition of the proximity
// predicate, exactly once per arrival.
type ArrivalNotice struct {
	DeviceID string
	Number   int
}

type ambulanceState struct {
	Ambulance
	previouslyAtDispensary bool
}

// SessionView is one viewer's mirror of the registry. Display numbers are
// assigned sequentially at first sighting and never reused.
type SessionView struct {
	cfg      Config
	provider routing.Provider

	mu         sync.Mutex
	ambulances map[string]*ambulanceState
	nextNumber int

	onArrival func(ArrivalNotice)
}

// New creates an empty view. provider may be nil, in which case route
// summaries stay invalid. onArrival may be nil.
func New(cfg Config, provider routing.Provider, onArrival func(ArrivalNotice)) *SessionView {
	if cfg.RouteTimeout <= 0 {
		cfg.RouteTimeout = 10 * time.Second
	}

	return &SessionView{
		cfg:        cfg,
		provider:   provider,
		ambulances: make(map[string]*ambulanceState),
		onArrival:  onArrival,
	}
}

// Apply dispatches a protocol event to the view. Unknown event types are
// ignored.
func (v *SessionView) Apply(env hub.Envelope) {
	switch env.Type {
	case hub.EventLocationUpdate:
		if env.Device != nil {
			v.ApplyLocationUpdate(*env.Device)
		}
	case hub.EventDeviceRemoved:
		v.ApplyDeviceRemoved(env.DeviceID)
	}
}

// ApplyLocationUpdate creates or refreshes the state for one device and
// recomputes its proximity status.
func (v *SessionView) ApplyLocationUpdate(record domain.DeviceRecord) {
	position := geo.Point{Latitude: record.Latitude, Longitude: record.Longitude}
	atDispensary := geo.Distance(position, v.cfg.Dispensary) <= v.cfg.ProximityThresholdM

	var notice *ArrivalNotice

	v.mu.Lock()
	state, known := v.ambulances[record.ID]
	if !known {
		v.nextNumber++
		state = &ambulanceState{
			Ambulance: Ambulance{
				ID:     record.ID,
				Number: v.nextNumber,
			},
			// No spurious arrival notice on first sight.
			previouslyAtDispensary: atDispensary,
		}
		v.ambulances[record.ID] = state
	}

	if known && !state.previouslyAtDispensary && atDispensary {
		notice = &ArrivalNotice{DeviceID: record.ID, Number: state.Number}
	}

	state.Position = position
	state.DeviceType = record.DeviceType
	state.BatteryLevel = record.BatteryLevel
	state.SpeedKmh = record.SpeedKmh
	state.AtDispensary = atDispensary
	state.previouslyAtDispensary = atDispensary
	v.mu.Unlock()

	if notice != nil && v.onArrival != nil {
		v.onArrival(*notice)
	}

	v.requestRoute(record.ID, position)
}

// ApplyDeviceRemoved drops the device's state. Its display number is
// retired with it.
func (v *SessionView) ApplyDeviceRemoved(deviceID string) {
	v.mu.Lock()
	delete(v.ambulances, deviceID)
	v.mu.Unlock()
}

// Get returns a copy of one device's display state.
func (v *SessionView) Get(deviceID string) (Ambulance, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	state, ok := v.ambulances[deviceID]
	if !ok {
		return Ambulance{}, false
	}

	return state.Ambulance, true
}

// Counts recomputes the aggregate counters from the full view set.
func (v *SessionView) Counts() (online, atDispensary int) {
	v.mu.Lock()
	defer v.mu.Unlock()

	online = len(v.ambulances)
	for _, state := range v.ambulances {
		if state.AtDispensary {
			atDispensary++
		}
	}

	return online, atDispensary
}

// requestRoute asks the routing engine for a fresh summary. A newer report
// supersedes an in-flight request: the answer is discarded unless the
// device still sits at the origin it was computed for.
func (v *SessionView) requestRoute(deviceID string, origin geo.Point) {
	if v.provider == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), v.cfg.RouteTimeout)
		defer cancel()

		summary, err := v.provider.Route(ctx, origin, v.cfg.Dispensary)
		v.resolveRoute(deviceID, origin, summary, err)
	}()
}

func (v *SessionView) resolveRoute(deviceID string, origin geo.Point, summary routing.Summary, err error) {
	if err != nil {
		// Transient: keep whatever summary is currently displayed.
		logger.Warn("Route computation failed",
			zap.String("device_id", deviceID),
			zap.Error(err),
		)
		return
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	state, ok := v.ambulances[deviceID]
	if !ok || state.Position != origin {
		// Stale answer: the device moved (or left) while the request was
		// in flight.
		return
	}

	state.Route = RouteSummary{
		DistanceKm:  summary.TotalDistanceMeters / 1000,
		TimeMinutes: summary.TotalTimeSeconds / 60,
		Valid:       true,
	}
}
