// Package sim provides a simulated rider: a 1 Hz sensor feed that
// appends plausible power, heart rate, cadence, and speed samples and
// pushes fresh measurement snapshots into the engine. It stands in
// for the real sensor transport during development and demos, and
// exposes a small HTTP endpoint to poke values at runtime.
package sim

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/lowaak/ride-metrics/internal/engine"
	"github.com/lowaak/ride-metrics/internal/go_func_utils"
	"github.com/lowaak/ride-metrics/internal/stream"
	"github.com/lowaak/ride-metrics/internal/telemetry"
)

// Options configures the simulated rider.
type Options struct {
	BasePowerWatts float64
	BaseCadenceRPM float64
	// ControlPort exposes /api/state and /api/set when > 0.
	ControlPort int
}

// Rider generates the feed. One goroutine owns the streams; external
// access goes through the engine's snapshots.
type Rider struct {
	engine *engine.Engine
	logger *log.Logger

	mu          sync.RWMutex
	basePower   float64
	baseCadence float64

	measurements telemetry.Measurements
	startedAt    time.Time

	server       *http.Server
	doneChan     chan struct{}
	wg           sync.WaitGroup
	shutdownOnce sync.Once
}

// NewRider creates a simulated rider feeding the given engine.
func NewRider(eng *engine.Engine, logger *log.Logger, opts Options) *Rider {
	if eng == nil {
		panic("Rider: engine cannot be nil")
	}
	if logger == nil {
		panic("Rider: logger cannot be nil")
	}
	basePower := opts.BasePowerWatts
	if basePower <= 0 {
		basePower = 150
	}
	baseCadence := opts.BaseCadenceRPM
	if baseCadence <= 0 {
		baseCadence = 90
	}

	r := &Rider{
		engine:      eng,
		logger:      logger,
		basePower:   basePower,
		baseCadence: baseCadence,
		doneChan:    make(chan struct{}),
	}

	if opts.ControlPort > 0 {
		mux := http.NewServeMux()
		mux.HandleFunc("/api/state", r.handleState)
		mux.HandleFunc("/api/set", r.handleSet)
		r.server = &http.Server{Addr: fmt.Sprintf(":%d", opts.ControlPort), Handler: mux}
	}

	return r
}

// Start begins the 1 Hz feed and marks a running workout.
func (r *Rider) Start() {
	r.startedAt = time.Now()
	r.engine.SetConnections(telemetry.Connections{
		telemetry.SensorPower:     true,
		telemetry.SensorHeartRate: true,
		telemetry.SensorCadence:   true,
		telemetry.SensorSpeed:     true,
	})
	r.engine.SetWorkout(telemetry.Workout{Running: true, StartTimeMS: r.startedAt.UnixMilli()})

	r.wg.Add(1)
	go_func_utils.SafeGo(r.logger, func() { r.runFeed() })

	if r.server != nil {
		r.wg.Add(1)
		go_func_utils.SafeGo(r.logger, func() {
			defer r.wg.Done()
			r.logger.Printf("Rider: control endpoint on %s", r.server.Addr)
			if err := r.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				r.logger.Printf("Rider: control endpoint failed: %v", err)
			}
		})
	}
	r.logger.Printf("Rider: feed started (base %.0f W)", r.basePower)
}

// Shutdown stops the feed. Safe to call more than once.
func (r *Rider) Shutdown() {
	r.shutdownOnce.Do(func() {
		close(r.doneChan)
		if r.server != nil {
			_ = r.server.Close()
		}
		r.wg.Wait()
		r.logger.Printf("Rider: feed stopped")
	})
}

// SetBasePower changes the target power the feed hovers around.
func (r *Rider) SetBasePower(watts float64) {
	r.mu.Lock()
	r.basePower = watts
	r.mu.Unlock()
}

func (r *Rider) runFeed() {
	defer r.wg.Done()

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	var distance float64
	for {
		select {
		case <-r.doneChan:
			return
		case now := <-ticker.C:
			r.mu.RLock()
			basePower := r.basePower
			baseCadence := r.baseCadence
			r.mu.RUnlock()

			noise := float64(rand.Intn(13) - 6)
			power := basePower + noise
			if power < 0 {
				power = 0
			}
			cadence := baseCadence + noise/2
			// Heart rate trails power; same coupling the hardware
			// mocks use.
			heartRate := 70 + power/3
			speed := 2.0 + power/40 // m/s
			distance += speed

			ts := now.UnixMilli()
			m := &r.measurements
			m.Power = append(m.Power, stream.Measurement{TimestampMS: ts, Value: power})
			m.HeartRate = append(m.HeartRate, stream.Measurement{TimestampMS: ts, Value: heartRate})
			m.Cadence = append(m.Cadence, stream.Measurement{TimestampMS: ts, Value: cadence})
			m.Speed = append(m.Speed, stream.Measurement{TimestampMS: ts, Value: speed})
			m.Distance = append(m.Distance, stream.Measurement{TimestampMS: ts, Value: distance})
			m.Altitude = append(m.Altitude, stream.Measurement{TimestampMS: ts, Value: 120 + noise/4})

			r.engine.SetMeasurements(*m)
		}
	}
}

type controlState struct {
	BasePowerWatts float64 `json:"basePowerWatts"`
	BaseCadenceRPM float64 `json:"baseCadenceRpm"`
}

func (r *Rider) handleState(w http.ResponseWriter, _ *http.Request) {
	r.mu.RLock()
	state := controlState{BasePowerWatts: r.basePower, BaseCadenceRPM: r.baseCadence}
	r.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(state)
}

func (r *Rider) handleSet(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}
	if v := req.FormValue("power"); v != "" {
		watts, err := strconv.ParseFloat(v, 64)
		if err != nil {
			http.Error(w, "bad power value", http.StatusBadRequest)
			return
		}
		r.SetBasePower(watts)
		r.logger.Printf("Rider: base power set to %.0f W", watts)
	}
	if v := req.FormValue("cadence"); v != "" {
		rpm, err := strconv.ParseFloat(v, 64)
		if err != nil {
			http.Error(w, "bad cadence value", http.StatusBadRequest)
			return
		}
		r.mu.Lock()
		r.baseCadence = rpm
		r.mu.Unlock()
	}
	r.handleState(w, req)
}
