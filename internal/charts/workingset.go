package charts

import (
	"errors"
	"strconv"
)

// ErrNotFound is returned when a configuration id is not in the working set.
var ErrNotFound = errors.New("chart not found")

// WorkingSet is the ordered collection of configurations a user is editing.
// Every configuration going in or out is deep-copied, so callers can never
// alias stored state. It is not safe for concurrent use; the dashboard
// workspace serializes access.
type WorkingSet struct {
	items   []Configuration
	created int
	copies  int
}

// NewWorkingSet returns an empty set.
func NewWorkingSet() *WorkingSet { return &WorkingSet{} }

func (ws *WorkingSet) Len() int { return len(ws.items) }

func (ws *WorkingSet) index(id string) int {
	for i, c := range ws.items {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// uniqueID returns id, or id with a numeric suffix when it is taken.
func (ws *WorkingSet) uniqueID(id string) string {
	if ws.index(id) < 0 {
		return id
	}
	for n := 2; ; n++ {
		cand := id + "-" + strconv.Itoa(n)
		if ws.index(cand) < 0 {
			return cand
		}
	}
}

// Create stores a copy of cfg. An empty id becomes "chart-N"; a colliding id
// gets a suffix. The stored configuration is returned.
func (ws *WorkingSet) Create(cfg Configuration) Configuration {
	c := cfg.Clone()
	if c.ID == "" {
		ws.created++
		c.ID = "chart-" + strconv.Itoa(ws.created)
	}
	if c.Filters == nil {
		c.Filters = []Filter{}
	}
	c.ID = ws.uniqueID(c.ID)
	ws.items = append(ws.items, c)
	return c.Clone()
}

// AddAll appends configurations in order, as when a template is applied.
func (ws *WorkingSet) AddAll(cfgs []Configuration) []Configuration {
	out := make([]Configuration, 0, len(cfgs))
	for _, c := range cfgs {
		out = append(out, ws.Create(c))
	}
	return out
}

// Duplicate deep-copies the configuration with the given id and appends the
// copy. Its id is "<id>-copy-<n>" where n is never reused within this set.
func (ws *WorkingSet) Duplicate(id string) (Configuration, error) {
	i := ws.index(id)
	if i < 0 {
		return Configuration{}, ErrNotFound
	}
	c := ws.items[i].Clone()
	for {
		ws.copies++
		c.ID = id + "-copy-" + strconv.Itoa(ws.copies)
		if ws.index(c.ID) < 0 {
			break
		}
	}
	ws.items = append(ws.items, c)
	return c.Clone(), nil
}

// Update replaces the configuration that has cfg.ID.
func (ws *WorkingSet) Update(cfg Configuration) error {
	i := ws.index(cfg.ID)
	if i < 0 {
		return ErrNotFound
	}
	ws.items[i] = cfg.Clone()
	return nil
}

// Remove deletes by id. Unknown ids are ignored.
func (ws *WorkingSet) Remove(id string) {
	i := ws.index(id)
	if i < 0 {
		return
	}
	ws.items = append(ws.items[:i], ws.items[i+1:]...)
}

// Get returns a copy of the configuration with id.
func (ws *WorkingSet) Get(id string) (Configuration, bool) {
	i := ws.index(id)
	if i < 0 {
		return Configuration{}, false
	}
	return ws.items[i].Clone(), true
}

// List returns copies of all configurations in order.
func (ws *WorkingSet) List() []Configuration {
	out := make([]Configuration, len(ws.items))
	for i, c := range ws.items {
		out[i] = c.Clone()
	}
	return out
}

// Reset drops every configuration. Id counters keep running so ids handed out
// earlier in the session are never reissued.
func (ws *WorkingSet) Reset() { ws.items = nil }
