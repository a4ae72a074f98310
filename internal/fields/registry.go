package fields

import (
	"log"
	"sort"
	"strings"
	"sync"
)

// Registry is the catalog of registered field definitions. It is
// populated once at startup and read-mostly afterwards; the mutex
// exists so late register/unregister calls cannot interleave with
// iteration from another goroutine.
type Registry struct {
	mu     sync.RWMutex
	byID   map[string]*Definition
	order  []string // registration order, for stable listings
	logger *log.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *log.Logger) *Registry {
	if logger == nil {
		panic("Registry: logger cannot be nil")
	}
	return &Registry{
		byID:   make(map[string]*Definition),
		logger: logger,
	}
}

// Register adds a definition. Registering an ID that already exists
// keeps the original definition, logs a warning, and returns false;
// duplicate registration is recoverable, not an error.
func (r *Registry) Register(def Definition) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[def.ID]; exists {
		r.logger.Printf("Registry: field %q already registered, keeping original", def.ID)
		return false
	}
	d := def
	r.byID[def.ID] = &d
	r.order = append(r.order, def.ID)
	return true
}

// Unregister removes a field by ID, reporting whether it was present.
func (r *Registry) Unregister(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[id]; !exists {
		return false
	}
	delete(r.byID, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Get returns the definition for an ID.
func (r *Registry) Get(id string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.byID[id]
	if !ok {
		return Definition{}, false
	}
	return *d, true
}

// Len returns the number of registered fields.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// All returns every definition in registration order.
func (r *Registry) All() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collect(func(Definition) bool { return true })
}

// ByCategory returns the definitions in one category, in registration
// order.
func (r *Registry) ByCategory(cat CategoryID) []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collect(func(d Definition) bool { return d.Category == cat })
}

// AllCategories groups every definition by category.
func (r *Registry) AllCategories() map[CategoryID][]Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[CategoryID][]Definition)
	for _, id := range r.order {
		d := r.byID[id]
		result[d.Category] = append(result[d.Category], *d)
	}
	return result
}

// CategoryCount pairs category metadata with its field count.
type CategoryCount struct {
	ID    CategoryID
	Name  string
	Icon  string
	Color string
	Count int
}

// CategoriesWithCounts returns the non-empty categories in catalog
// order, each with its field count.
func (r *Registry) CategoriesWithCounts() []CategoryCount {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[CategoryID]int)
	for _, d := range r.byID {
		counts[d.Category]++
	}
	var result []CategoryCount
	for _, c := range AllCategoryInfo {
		if n := counts[c.ID]; n > 0 {
			result = append(result, CategoryCount{ID: c.ID, Name: c.Name, Icon: c.Icon, Color: c.Color, Count: n})
		}
	}
	return result
}

// Search returns fields whose name or description contains the query,
// case-insensitively. An empty result is returned on no match.
func (r *Registry) Search(query string) []Definition {
	q := strings.ToLower(query)
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collect(func(d Definition) bool {
		return strings.Contains(strings.ToLower(d.Name), q) ||
			strings.Contains(strings.ToLower(d.Description), q)
	})
}

// ByIDs returns the matching definitions in the requested order,
// silently skipping unknown IDs.
func (r *Registry) ByIDs(ids []string) []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Definition, 0, len(ids))
	for _, id := range ids {
		if d, ok := r.byID[id]; ok {
			result = append(result, *d)
		}
	}
	return result
}

// RequiringSensor returns the fields that depend on the given sensor
// type.
func (r *Registry) RequiringSensor(sensor string) []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collect(func(d Definition) bool {
		for _, s := range d.RequiresSensor {
			if string(s) == sensor {
				return true
			}
		}
		return false
	})
}

// RequiringGPS returns the fields that need a GPS fix.
func (r *Registry) RequiringGPS() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collect(func(d Definition) bool { return d.RequiresGPS })
}

// RequiringWorkoutActive returns the fields that only compute during
// an active workout.
func (r *Registry) RequiringWorkoutActive() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collect(func(d Definition) bool { return d.RequiresWorkoutActive })
}

// collect gathers definitions matching the predicate in registration
// order. Caller must hold at least the read lock.
func (r *Registry) collect(match func(Definition) bool) []Definition {
	var result []Definition
	for _, id := range r.order {
		if d := r.byID[id]; match(*d) {
			result = append(result, *d)
		}
	}
	return result
}

// SortedIDs returns every registered ID sorted lexicographically.
func (r *Registry) SortedIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
