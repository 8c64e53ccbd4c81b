// Package registry owns the set of live palette windows and their stacking
// order. It is not safe for concurrent use; the engine's control loop is the
// only caller.
package registry

import (
	"sort"

	"github.com/1broseidon/palettekit/internal/protocol"
)

// Registry maps window ids to records and keeps a bottom-to-top stack.
type Registry struct {
	windows map[string]*Window
	stack   []string
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{windows: make(map[string]*Window)}
}

// Add inserts w at the top of its level.
func (r *Registry) Add(w *Window) error {
	if w.ID == "" {
		return protocol.MissingID()
	}
	if _, ok := r.windows[w.ID]; ok {
		return protocol.AlreadyExists(w.ID)
	}
	r.windows[w.ID] = w
	r.stack = append(r.stack, w.ID)
	r.normalize()
	return nil
}

// Get returns the record for id.
func (r *Registry) Get(id string) (*Window, bool) {
	w, ok := r.windows[id]
	return w, ok
}

// Lookup is Get with a NOT_FOUND error.
func (r *Registry) Lookup(id string) (*Window, error) {
	if id == "" {
		return nil, protocol.MissingID()
	}
	w, ok := r.windows[id]
	if !ok {
		return nil, protocol.NotFound(id)
	}
	return w, nil
}

// Remove deletes id and returns the removed record.
func (r *Registry) Remove(id string) (*Window, bool) {
	w, ok := r.windows[id]
	if !ok {
		return nil, false
	}
	delete(r.windows, id)
	r.stack = removeID(r.stack, id)
	return w, true
}

// Len returns the number of live windows.
func (r *Registry) Len() int {
	return len(r.windows)
}

// IDs returns live ids sorted lexically.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.windows))
	for id := range r.windows {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Stack returns the windows from bottom to top.
func (r *Registry) Stack() []*Window {
	out := make([]*Window, 0, len(r.stack))
	for _, id := range r.stack {
		out = append(out, r.windows[id])
	}
	return out
}

// Index returns id's position in the stack, or -1.
func (r *Registry) Index(id string) int {
	for i, sid := range r.stack {
		if sid == id {
			return i
		}
	}
	return -1
}

// BringToFront moves id to the top of its level.
func (r *Registry) BringToFront(id string) {
	r.moveTo(id, len(r.stack))
}

// SendToBack moves id to the bottom of its level.
func (r *Registry) SendToBack(id string) {
	r.moveTo(id, 0)
}

// MoveAbove places id directly above other. Level ordering still wins, so
// the final position may differ when the two windows are on different levels.
func (r *Registry) MoveAbove(id, other string) {
	if id == other || r.windows[id] == nil {
		return
	}
	stack := removeID(r.stack, id)
	at := indexOf(stack, other)
	if at < 0 {
		return
	}
	r.stack = insertAt(stack, at+1, id)
	r.normalize()
}

// MoveBelow places id directly below other.
func (r *Registry) MoveBelow(id, other string) {
	if id == other || r.windows[id] == nil {
		return
	}
	stack := removeID(r.stack, id)
	at := indexOf(stack, other)
	if at < 0 {
		return
	}
	r.stack = insertAt(stack, at, id)
	r.normalize()
}

// SetIndex moves id to position i, clamped to the stack bounds.
func (r *Registry) SetIndex(id string, i int) {
	r.moveTo(id, i)
}

// Relevel re-sorts the stack after a window's Level changed.
func (r *Registry) Relevel() {
	r.normalize()
}

func (r *Registry) moveTo(id string, i int) {
	if _, ok := r.windows[id]; !ok {
		return
	}
	stack := removeID(r.stack, id)
	if i < 0 {
		i = 0
	}
	if i > len(stack) {
		i = len(stack)
	}
	r.stack = insertAt(stack, i, id)
	r.normalize()
}

// normalize keeps levels ordered while preserving relative order within a
// level.
func (r *Registry) normalize() {
	sort.SliceStable(r.stack, func(i, j int) bool {
		return r.windows[r.stack[i]].Level < r.windows[r.stack[j]].Level
	})
}

func indexOf(ids []string, id string) int {
	for i, s := range ids {
		if s == id {
			return i
		}
	}
	return -1
}

func removeID(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, s := range ids {
		if s != id {
			out = append(out, s)
		}
	}
	return out
}

func insertAt(ids []string, i int, id string) []string {
	ids = append(ids, "")
	copy(ids[i+1:], ids[i:])
	ids[i] = id
	return ids
}
