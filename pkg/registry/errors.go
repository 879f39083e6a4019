package registry

import (
	"errors"
	"fmt"
)

// Conflict reasons reported by Register.
const (
	ReasonNameTaken = "name already registered"
	ReasonIDTaken   = "id already registered"
	ReasonSealed    = "registry sealed"
)

// ConflictError is returned when a registration collides with an existing
// entry without the override flag, or arrives after the registry sealed.
// Conflicts are startup-time fatal: the loader aborts boot on one.
type ConflictError struct {
	Kind     string // entry class, e.g. "block"
	Name     string // name of the entry being registered
	ID       int32  // colliding numeric id, when HasID
	HasID    bool
	NewOwner string // module attempting the registration
	OldOwner string // module owning the colliding entry, if any
	OldName  string // name of the colliding entry on id conflicts
	Reason   string
}

// Error identifies both colliding owners so a startup failure names the two
// modules that need untangling.
func (e *ConflictError) Error() string {
	switch e.Reason {
	case ReasonSealed:
		return fmt.Sprintf("registry: cannot register %s %q from module %q: %s",
			e.Kind, e.Name, e.NewOwner, ReasonSealed)
	case ReasonIDTaken:
		return fmt.Sprintf("registry: %s id %d already registered: conflicting entries are %q (module %q) and %q (module %q); set override to replace",
			e.Kind, e.ID, e.OldName, e.OldOwner, e.Name, e.NewOwner)
	default:
		return fmt.Sprintf("registry: %s %q already registered by module %q (re-registered by %q); set override to replace",
			e.Kind, e.Name, e.OldOwner, e.NewOwner)
	}
}

// NotFoundError is returned by lookups for unknown names or ids. Unlike a
// ConflictError it is recoverable and surfaced to the caller.
type NotFoundError struct {
	Kind  string
	Key   string // name used for the lookup, when looked up by name
	ID    int32  // id used for the lookup, when HasID
	HasID bool
}

func (e *NotFoundError) Error() string {
	if e.HasID {
		return fmt.Sprintf("registry: %s with id %d not found", e.Kind, e.ID)
	}
	return fmt.Sprintf("registry: %s %q not found", e.Kind, e.Key)
}

// IsNotFound reports whether err is a lookup miss.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
