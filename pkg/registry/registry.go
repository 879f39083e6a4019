// Package registry implements the generic keyed-entity registry shared by
// every catalog on the server: block types, request packets, response
// packets, and commands.
//
// Entries are keyed by a case-insensitive name and, optionally, by a numeric
// id. Registration follows a strict two-phase lifecycle: a single-threaded
// registration phase driven by the module loader, then a one-way Seal after
// which the registry is read-only. Because mutation and serving never
// overlap, reads after Seal take no locks.
package registry

import (
	"log/slog"
	"strings"
)

// Entry is the minimal surface every registrable entity exposes.
type Entry interface {
	// Name is the case-insensitive primary key within one registry.
	Name() string

	// NumericID returns the optional secondary key. Entries without a
	// numeric id (commands, for example) return ok == false.
	NumericID() (id int32, ok bool)
}

// Registry is a keyed collection of entries owned by modules.
//
// The zero value is not usable; construct with New.
type Registry[T Entry] struct {
	kind   string
	logger *slog.Logger

	byName map[string]T // folded name → entry
	byID   map[int32]T
	owners map[string]string // folded name → owning module
	order  []string          // folded names in registration order
	sealed bool
}

// New creates an empty registry. kind names the entry class ("block",
// "request packet", ...) and appears in error messages and logs.
func New[T Entry](kind string, logger *slog.Logger) *Registry[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry[T]{
		kind:   kind,
		logger: logger.With("registry", kind),
		byName: make(map[string]T),
		byID:   make(map[int32]T),
		owners: make(map[string]string),
	}
}

// Kind returns the entry class this registry holds.
func (r *Registry[T]) Kind() string {
	return r.kind
}

// Register adds entry to the registry on behalf of the named owning module.
//
// Without override, a name or numeric id that is already taken fails with a
// *ConflictError identifying both owners. With override, the new entry
// evicts every entry it collides with: both the name index and the id index
// of an evicted entry are removed, so a partial collision can never leave a
// stale key pointing at a replaced entry. An override that collides with
// nothing succeeds but logs a warning.
func (r *Registry[T]) Register(entry T, owner string, override bool) error {
	if r.sealed {
		return &ConflictError{Kind: r.kind, Name: entry.Name(), NewOwner: owner, Reason: ReasonSealed}
	}

	name := entry.Name()
	folded := Fold(name)
	if strings.ContainsAny(name, " \t") {
		r.logger.Warn("entry name contains whitespace", "name", name, "module", owner)
	}

	id, hasID := entry.NumericID()
	existing, nameTaken := r.byName[folded]
	var idHolder T
	idTaken := false
	if hasID {
		idHolder, idTaken = r.byID[id]
	}

	if !override {
		if nameTaken {
			return &ConflictError{
				Kind:     r.kind,
				Name:     name,
				NewOwner: owner,
				OldOwner: r.owners[folded],
				Reason:   ReasonNameTaken,
			}
		}
		if idTaken {
			return &ConflictError{
				Kind:     r.kind,
				Name:     name,
				ID:       id,
				HasID:    true,
				NewOwner: owner,
				OldOwner: r.owners[Fold(idHolder.Name())],
				OldName:  idHolder.Name(),
				Reason:   ReasonIDTaken,
			}
		}
	} else if !nameTaken && !idTaken {
		r.logger.Warn("override had no effect; no existing entry collides",
			"name", name, "module", owner)
	}

	// Evict everything the new entry collides with, clearing both indexes
	// of each victim so the two maps never disagree.
	if nameTaken {
		r.evict(existing)
	}
	if idTaken {
		// The id holder may already be gone if it was also the name holder.
		if cur, ok := r.byID[id]; ok {
			r.evict(cur)
		}
	}

	r.byName[folded] = entry
	r.owners[folded] = owner
	if hasID {
		r.byID[id] = entry
	}
	r.order = append(r.order, folded)
	r.logger.Debug("registered", "name", name, "module", owner, "override", override)
	return nil
}

// evict removes e from every index.
func (r *Registry[T]) evict(e T) {
	folded := Fold(e.Name())
	old := r.byName[folded]
	delete(r.byName, folded)
	delete(r.owners, folded)
	if id, ok := old.NumericID(); ok {
		// Only drop the id index if it still points at the evicted entry.
		if cur, taken := r.byID[id]; taken && Fold(cur.Name()) == folded {
			delete(r.byID, id)
		}
	}
	for i, n := range r.order {
		if n == folded {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.logger.Debug("evicted by override", "name", e.Name())
}

// ByName looks up an entry by its case-insensitive name.
func (r *Registry[T]) ByName(name string) (T, error) {
	e, ok := r.byName[Fold(name)]
	if !ok {
		var zero T
		return zero, &NotFoundError{Kind: r.kind, Key: name}
	}
	return e, nil
}

// ByID looks up an entry by its numeric id.
func (r *Registry[T]) ByID(id int32) (T, error) {
	e, ok := r.byID[id]
	if !ok {
		var zero T
		return zero, &NotFoundError{Kind: r.kind, ID: id, HasID: true}
	}
	return e, nil
}

// Contains reports whether an entry with the given name is registered.
func (r *Registry[T]) Contains(name string) bool {
	_, ok := r.byName[Fold(name)]
	return ok
}

// Owner returns the module that registered the named entry.
func (r *Registry[T]) Owner(name string) (string, bool) {
	owner, ok := r.owners[Fold(name)]
	return owner, ok
}

// Len returns the number of registered entries.
func (r *Registry[T]) Len() int {
	return len(r.byName)
}

// All returns the entries in registration order. An overriding entry takes
// the position of its own registration, not the entry it replaced.
func (r *Registry[T]) All() []T {
	out := make([]T, 0, len(r.order))
	for _, folded := range r.order {
		if e, ok := r.byName[folded]; ok {
			out = append(out, e)
		}
	}
	return out
}

// Seal transitions the registry to its read-only serving phase. Sealing is
// one-way; any later Register fails.
func (r *Registry[T]) Seal() {
	if r.sealed {
		return
	}
	r.sealed = true
	r.logger.Debug("sealed", "entries", len(r.byName))
}

// Sealed reports whether the registry has been sealed.
func (r *Registry[T]) Sealed() bool {
	return r.sealed
}

// Fold normalizes a name for case-insensitive comparison.
func Fold(name string) string {
	return strings.ToLower(name)
}
