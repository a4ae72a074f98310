// Package engine ties live sensor snapshots to derived field values:
// it holds the latest telemetry, computes any registered field on
// demand, and runs the periodic tick that pushes recomputed values to
// subscribers.
package engine

import (
	"log"
	"sync"
	"time"

	"github.com/lowaak/ride-metrics/internal/events"
	"github.com/lowaak/ride-metrics/internal/fields"
	"github.com/lowaak/ride-metrics/internal/go_func_utils"
	"github.com/lowaak/ride-metrics/internal/stream"
	"github.com/lowaak/ride-metrics/internal/telemetry"
	"github.com/lowaak/ride-metrics/internal/zones"
)

// DefaultTickInterval is how often active fields are recomputed.
const DefaultTickInterval = 100 * time.Millisecond

// FieldUpdate is delivered to subscribers for every active field on
// every tick. Valid is false when the field currently has no value
// (missing input or unmet precondition); consumers show a placeholder.
type FieldUpdate struct {
	FieldID string
	Value   float64
	Valid   bool
}

// Options configures an Engine.
type Options struct {
	TickInterval time.Duration
	// Now overrides the clock, for tests. Nil means time.Now.
	Now func() time.Time
}

type engineCommand int

const (
	cmdStart engineCommand = iota
	cmdStop
)

// Engine is the calculation manager. Construct one per dashboard (or
// per test); there is deliberately no package-level instance.
type Engine struct {
	registry *fields.Registry
	logger   *log.Logger
	now      func() time.Time

	// Live state (protected by mu). Each setter stores a snapshot;
	// computations copy the whole snapshot out before running so a
	// tick always sees one consistent view.
	mu           sync.RWMutex
	measurements telemetry.Measurements
	connections  telemetry.Connections
	workout      telemetry.Workout
	settings     telemetry.Settings
	active       map[string]struct{}
	running      bool

	updateEvent *events.CallbackEvent[FieldUpdate]

	tickInterval time.Duration
	cmdChan      chan engineCommand
	doneChan     chan struct{}
	wg           sync.WaitGroup
	shutdownOnce sync.Once
}

// New creates an Engine over a populated registry.
func New(registry *fields.Registry, logger *log.Logger, opts Options) *Engine {
	if registry == nil {
		panic("Engine: registry cannot be nil")
	}
	if logger == nil {
		panic("Engine: logger cannot be nil")
	}
	interval := opts.TickInterval
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	e := &Engine{
		registry:     registry,
		logger:       logger,
		now:          now,
		connections:  make(telemetry.Connections),
		active:       make(map[string]struct{}),
		updateEvent:  events.NewCallbackEvent[FieldUpdate](false),
		tickInterval: interval,
		cmdChan:      make(chan engineCommand, 1),
		doneChan:     make(chan struct{}),
	}

	e.wg.Add(1)
	go_func_utils.SafeGo(logger, func() { e.runTickLoop() })

	return e
}

// Registry exposes the field catalog the engine computes from.
func (e *Engine) Registry() *fields.Registry {
	return e.registry
}

// SetMeasurements stores the latest per-channel measurement snapshot.
func (e *Engine) SetMeasurements(m telemetry.Measurements) {
	e.mu.Lock()
	e.measurements = m
	e.mu.Unlock()
}

// SetConnections stores the latest sensor connection flags.
func (e *Engine) SetConnections(c telemetry.Connections) {
	e.mu.Lock()
	e.connections = c
	e.mu.Unlock()
}

// SetWorkout stores the latest workout state snapshot.
func (e *Engine) SetWorkout(w telemetry.Workout) {
	e.mu.Lock()
	e.workout = w
	e.mu.Unlock()
}

// SetSettings stores the rider settings snapshot.
func (e *Engine) SetSettings(s telemetry.Settings) {
	e.mu.Lock()
	e.settings = s
	e.mu.Unlock()
}

// Settings returns the current rider settings snapshot.
func (e *Engine) Settings() telemetry.Settings {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.settings
}

// snapshot copies the full calculation context under the read lock.
func (e *Engine) snapshot() telemetry.Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	conns := make(telemetry.Connections, len(e.connections))
	for k, v := range e.connections {
		conns[k] = v
	}
	return telemetry.Snapshot{
		Measurements: e.measurements,
		Connections:  conns,
		Workout:      e.workout,
		Settings:     e.settings,
		NowMS:        e.now().UnixMilli(),
	}
}

// CalculateField computes the current value of a registered field.
// False means "no value": unknown field, disconnected sensor, missing
// GPS, inactive workout, or an empty input window. The formula runs
// synchronously on the caller's goroutine against a frozen snapshot.
func (e *Engine) CalculateField(id string) (float64, bool) {
	def, ok := e.registry.Get(id)
	if !ok {
		return 0, false
	}
	return e.calculate(def, e.snapshot())
}

func (e *Engine) calculate(def fields.Definition, snap telemetry.Snapshot) (float64, bool) {
	// Precondition gate: never invoke the formula when its declared
	// requirements are unmet.
	for _, sensor := range def.RequiresSensor {
		if !snap.Connections[sensor] {
			return 0, false
		}
	}
	if def.RequiresGPS && !snap.Connections[telemetry.SensorSpeed] {
		return 0, false
	}
	if def.RequiresWorkoutActive && !snap.Workout.Running {
		return 0, false
	}
	if def.Compute == nil {
		return 0, false
	}
	return def.Compute(snap)
}

// FormatField computes and formats a field in one step, returning the
// placeholder when there is no value.
func (e *Engine) FormatField(id, placeholder string) string {
	def, ok := e.registry.Get(id)
	if !ok {
		return placeholder
	}
	v, ok := e.calculate(def, e.snapshot())
	if !ok || def.Format == nil {
		return placeholder
	}
	e.mu.RLock()
	settings := e.settings
	e.mu.RUnlock()
	return def.Format(v, settings)
}

// OnUpdate subscribes to per-field updates. The callback fires on
// every tick for every active field, whether or not the value
// changed. Returns the deregistration function.
func (e *Engine) OnUpdate(callback func(FieldUpdate)) func() {
	return e.updateEvent.Listen(callback)
}

// SetActiveFields replaces the set of fields recomputed each tick.
// Unknown IDs are skipped with a warning.
func (e *Engine) SetActiveFields(ids []string) {
	active := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := e.registry.Get(id); !ok {
			e.logger.Printf("Engine: ignoring unknown field %q", id)
			continue
		}
		active[id] = struct{}{}
	}
	e.mu.Lock()
	e.active = active
	e.mu.Unlock()
}

// ActivateField adds one field to the per-tick set.
func (e *Engine) ActivateField(id string) {
	if _, ok := e.registry.Get(id); !ok {
		e.logger.Printf("Engine: ignoring unknown field %q", id)
		return
	}
	e.mu.Lock()
	e.active[id] = struct{}{}
	e.mu.Unlock()
}

// DeactivateField removes one field from the per-tick set.
func (e *Engine) DeactivateField(id string) {
	e.mu.Lock()
	delete(e.active, id)
	e.mu.Unlock()
}

// ActiveFieldIDs returns a copy of the per-tick field set.
func (e *Engine) ActiveFieldIDs() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ids := make([]string, 0, len(e.active))
	for id := range e.active {
		ids = append(ids, id)
	}
	return ids
}

// Start begins the periodic tick.
func (e *Engine) Start() {
	e.cmdChan <- cmdStart
}

// Stop halts the periodic tick. On-demand CalculateField keeps
// working.
func (e *Engine) Stop() {
	e.cmdChan <- cmdStop
}

// Shutdown stops the tick goroutine. Safe to call more than once.
func (e *Engine) Shutdown() {
	e.shutdownOnce.Do(func() {
		e.logger.Printf("Engine: shutting down")
		close(e.doneChan)
		e.wg.Wait()
	})
}

// TimeInZones integrates time per zone over the current snapshot of
// one measurement channel.
func (e *Engine) TimeInZones(c telemetry.Channel, ref float64, table []zones.Config) map[int]int64 {
	e.mu.RLock()
	s := e.measurements.ByChannel(c)
	e.mu.RUnlock()
	return zones.TimeInZones(s, ref, table)
}

// Stream returns the current snapshot of one measurement channel.
func (e *Engine) Stream(c telemetry.Channel) stream.Stream {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.measurements.ByChannel(c)
}

// runTickLoop owns the ticker. Field computations are synchronous and
// run here exclusively, which is what guarantees at most one in-flight
// computation per field: a tick must finish before the next fires,
// and time.Ticker drops ticks the loop wasn't ready for rather than
// queueing them.
func (e *Engine) runTickLoop() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.tickInterval)
	ticker.Stop() // armed by cmdStart

	for {
		select {
		case <-e.doneChan:
			ticker.Stop()
			e.logger.Printf("Engine: tick loop exiting")
			return

		case cmd := <-e.cmdChan:
			switch cmd {
			case cmdStart:
				e.mu.Lock()
				already := e.running
				e.running = true
				e.mu.Unlock()
				if already {
					continue
				}
				ticker.Reset(e.tickInterval)
				e.logger.Printf("Engine: tick started (interval %v)", e.tickInterval)

			case cmdStop:
				e.mu.Lock()
				e.running = false
				e.mu.Unlock()
				ticker.Stop()
				e.logger.Printf("Engine: tick stopped")
			}

		case <-ticker.C:
			e.tick()
		}
	}
}

// tick recomputes every active field against one frozen snapshot and
// notifies subscribers.
func (e *Engine) tick() {
	e.mu.RLock()
	ids := make([]string, 0, len(e.active))
	for id := range e.active {
		ids = append(ids, id)
	}
	e.mu.RUnlock()

	if len(ids) == 0 {
		return
	}

	snap := e.snapshot()
	for _, id := range ids {
		def, ok := e.registry.Get(id)
		if !ok {
			continue
		}
		v, valid := e.calculate(def, snap)
		e.updateEvent.Notify(FieldUpdate{FieldID: id, Value: v, Valid: valid})
	}
}
