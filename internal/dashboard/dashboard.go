// Package dashboard renders the live field grid in the terminal. It
// subscribes to engine updates through a buffered channel so a slow
// redraw can never stall the tick loop.
package dashboard

import (
	"fmt"
	"log"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/lowaak/ride-metrics/internal/engine"
	"github.com/lowaak/ride-metrics/internal/fields"
	"github.com/lowaak/ride-metrics/internal/go_func_utils"
	"github.com/lowaak/ride-metrics/internal/telemetry"
	"github.com/lowaak/ride-metrics/internal/zones"
)

const placeholder = "--"

// Dashboard is the terminal view over one engine.
type Dashboard struct {
	app      *tview.Application
	engine   *engine.Engine
	logger   *log.Logger
	fieldIDs []string

	table   *tview.Table
	rowByID map[string]int

	mu     sync.Mutex
	latest map[string]engine.FieldUpdate

	updates  chan engine.FieldUpdate
	doneChan chan struct{}
	wg       sync.WaitGroup
}

// New builds a dashboard showing the given fields in order. Unknown
// field IDs are skipped with a warning.
func New(app *tview.Application, eng *engine.Engine, logger *log.Logger, fieldIDs []string) *Dashboard {
	if app == nil {
		panic("Dashboard: app cannot be nil")
	}
	if eng == nil {
		panic("Dashboard: engine cannot be nil")
	}
	if logger == nil {
		panic("Dashboard: logger cannot be nil")
	}

	d := &Dashboard{
		app:      app,
		engine:   eng,
		logger:   logger,
		rowByID:  make(map[string]int),
		latest:   make(map[string]engine.FieldUpdate),
		updates:  make(chan engine.FieldUpdate, 64),
		doneChan: make(chan struct{}),
	}

	d.table = tview.NewTable().SetBorders(false)
	d.table.SetBorder(true).SetTitle(" Ride Metrics ")

	row := 0
	for _, id := range fieldIDs {
		def, ok := eng.Registry().Get(id)
		if !ok {
			logger.Printf("Dashboard: skipping unknown field %q", id)
			continue
		}
		d.fieldIDs = append(d.fieldIDs, id)
		d.rowByID[id] = row
		d.table.SetCell(row, 0, tview.NewTableCell(def.Name).
			SetTextColor(tcell.ColorGray).
			SetExpansion(1))
		d.table.SetCell(row, 1, tview.NewTableCell(placeholder).
			SetAlign(tview.AlignRight).
			SetExpansion(1))
		row++
	}

	return d
}

// Root returns the widget to mount into the application.
func (d *Dashboard) Root() tview.Primitive {
	return d.table
}

// Start activates the dashboard's fields on the engine and begins
// consuming updates.
func (d *Dashboard) Start() func() {
	d.engine.SetActiveFields(d.fieldIDs)
	unsubscribe := d.engine.OnUpdate(func(u engine.FieldUpdate) {
		select {
		case d.updates <- u:
		default:
			// Redraw is behind; dropping is fine, the next tick
			// resends every field anyway.
		}
	})

	d.wg.Add(1)
	go_func_utils.SafeGo(d.logger, func() { d.consumeUpdates() })

	return func() {
		unsubscribe()
		close(d.doneChan)
		d.wg.Wait()
	}
}

func (d *Dashboard) consumeUpdates() {
	defer d.wg.Done()

	for {
		select {
		case <-d.doneChan:
			return
		case u := <-d.updates:
			// Stop draining before queuing more draws once the app is
			// going away; queued updates are never executed after Stop.
			select {
			case <-d.doneChan:
				return
			default:
			}
			d.mu.Lock()
			d.latest[u.FieldID] = u
			d.mu.Unlock()
			d.app.QueueUpdateDraw(func() { d.renderField(u.FieldID) })
		}
	}
}

// renderField repaints one row from the latest update. Runs on the
// tview event loop.
func (d *Dashboard) renderField(id string) {
	row, ok := d.rowByID[id]
	if !ok {
		return
	}
	def, ok := d.engine.Registry().Get(id)
	if !ok {
		return
	}

	d.mu.Lock()
	u, have := d.latest[id]
	d.mu.Unlock()

	cell := d.table.GetCell(row, 1)
	if !have || !u.Valid {
		cell.SetText(placeholder).SetTextColor(tcell.ColorGray)
		return
	}

	text := fmt.Sprintf("%v", u.Value)
	if def.Format != nil {
		text = def.Format(u.Value, d.settings())
	}
	cell.SetText(text).SetTextColor(d.colorFor(def, u.Value))
}

// colorFor picks the cell color: zone-based for power and heart rate,
// default elsewhere.
func (d *Dashboard) colorFor(def fields.Definition, value float64) tcell.Color {
	var zc zones.ZoneColor
	var ok bool
	switch def.ID {
	case "power_current", "power_3s", "power_10s":
		s := d.settings()
		zc, ok = zones.ColorFor(value, s.FTPWatts, s.PowerZones)
	case "hr_current":
		s := d.settings()
		zc, ok = zones.ColorFor(value, s.MaxHeartRate, s.HeartRateZones)
	}
	if !ok {
		return tcell.ColorWhite
	}
	return tcell.GetColor(zc.Border)
}

func (d *Dashboard) settings() telemetry.Settings {
	return d.engine.Settings()
}
