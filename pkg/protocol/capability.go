package protocol

import "fmt"

// Capability identifies an optional, versioned protocol behavior. Two
// capabilities match only on exact name and version equality; there is no
// version-range negotiation.
type Capability struct {
	Name    string
	Version int32
}

// String implements fmt.Stringer.
func (c Capability) String() string {
	return fmt.Sprintf("%s/%d", c.Name, c.Version)
}

// CapabilitySet is an immutable set of capabilities. A connection holds the
// effective set negotiated during its handshake and queries it read-only for
// the rest of its life.
type CapabilitySet struct {
	caps  map[Capability]struct{}
	order []Capability
}

// NewCapabilitySet builds a set from the given capabilities, preserving
// declaration order for the wire exchange. Duplicates are dropped.
func NewCapabilitySet(caps ...Capability) *CapabilitySet {
	s := &CapabilitySet{caps: make(map[Capability]struct{}, len(caps))}
	for _, c := range caps {
		if _, dup := s.caps[c]; dup {
			continue
		}
		s.caps[c] = struct{}{}
		s.order = append(s.order, c)
	}
	return s
}

// Supports reports whether the set holds the capability at exactly the given
// version. It is a pure read with no side effects.
func (s *CapabilitySet) Supports(name string, version int32) bool {
	if s == nil {
		return false
	}
	_, ok := s.caps[Capability{Name: name, Version: version}]
	return ok
}

// Contains reports whether the set holds the capability.
func (s *CapabilitySet) Contains(c Capability) bool {
	if s == nil {
		return false
	}
	_, ok := s.caps[c]
	return ok
}

// Intersect returns the capabilities present in both sets, which is the
// effective set of a connection after both sides declared theirs. A peer not
// listing something we offered is expected, never an error.
func (s *CapabilitySet) Intersect(other *CapabilitySet) *CapabilitySet {
	if s == nil || other == nil {
		return NewCapabilitySet()
	}
	var shared []Capability
	for _, c := range s.order {
		if other.Contains(c) {
			shared = append(shared, c)
		}
	}
	return NewCapabilitySet(shared...)
}

// List returns the capabilities in declaration order.
func (s *CapabilitySet) List() []Capability {
	if s == nil {
		return nil
	}
	out := make([]Capability, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the number of capabilities in the set.
func (s *CapabilitySet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}
