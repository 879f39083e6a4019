package protocol

import (
	"fmt"
	"log/slog"

	"github.com/codingwatching/ProjectObsidian/pkg/registry"
)

// PacketRegistry holds the two directional packet registries plus the
// inbound opcode fast-path cache.
//
// Registration happens single-threaded during the loader phase; Seal builds
// the hot-path cache and freezes both directions for lock-free reads.
type PacketRegistry struct {
	inbound  *registry.Registry[*Packet]
	outbound *registry.Registry[*Packet]
	hotPath  map[byte]*Packet
	logger   *slog.Logger
}

// NewPacketRegistry creates empty inbound and outbound registries.
func NewPacketRegistry(logger *slog.Logger) *PacketRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &PacketRegistry{
		inbound:  registry.New[*Packet]("inbound packet", logger),
		outbound: registry.New[*Packet]("outbound packet", logger),
		logger:   logger,
	}
}

// Register validates the definition and adds it to the registry of its
// direction. Name and opcode uniqueness follow the entity-registry rules,
// with the opcode as the secondary key, enforced per direction.
func (r *PacketRegistry) Register(p *Packet, owner string, override bool) error {
	if err := p.validate(); err != nil {
		return err
	}
	p.size = 1 + p.Layout.Size()
	return r.direction(p.Direction).Register(p, owner, override)
}

// Inbound returns the registry of client→server packets.
func (r *PacketRegistry) Inbound() *registry.Registry[*Packet] {
	return r.inbound
}

// Outbound returns the registry of server→client packets.
func (r *PacketRegistry) Outbound() *registry.Registry[*Packet] {
	return r.outbound
}

func (r *PacketRegistry) direction(d Direction) *registry.Registry[*Packet] {
	if d == Outbound {
		return r.outbound
	}
	return r.inbound
}

// Lookup resolves a packet by name in the given direction.
func (r *PacketRegistry) Lookup(d Direction, name string) (*Packet, error) {
	return r.direction(d).ByName(name)
}

// LookupOpcode resolves a packet by opcode in the given direction.
func (r *PacketRegistry) LookupOpcode(d Direction, opcode byte) (*Packet, error) {
	return r.direction(d).ByID(int32(opcode))
}

// Seal freezes both directions and builds the hot-path cache. The cache maps
// opcode → definition for every inbound packet flagged HotPath and nothing
// else; after Seal it always agrees with the inbound registry.
func (r *PacketRegistry) Seal() {
	r.inbound.Seal()
	r.outbound.Seal()

	r.hotPath = make(map[byte]*Packet)
	for _, p := range r.inbound.All() {
		if p.HotPath {
			r.hotPath[p.Opcode] = p
		}
	}
	r.logger.Debug("packet registries sealed",
		"inbound", r.inbound.Len(), "outbound", r.outbound.Len(), "hot_path", len(r.hotPath))
}

// HotPath resolves an inbound opcode through the fast-path cache built at
// seal time. Only definitions flagged HotPath are present.
func (r *PacketRegistry) HotPath(opcode byte) (*Packet, bool) {
	p, ok := r.hotPath[opcode]
	return p, ok
}

// Len returns the total number of packets across both directions.
func (r *PacketRegistry) Len() int {
	return r.inbound.Len() + r.outbound.Len()
}

// Contains reports whether a packet with the given name exists in the
// given direction.
func (r *PacketRegistry) Contains(d Direction, name string) bool {
	return r.direction(d).Contains(name)
}

// Dump writes every registered definition to the logger, one line per
// packet, in registration order. Used at startup after seal.
func (r *PacketRegistry) Dump() {
	for _, p := range r.inbound.All() {
		owner, _ := r.inbound.Owner(p.PacketName)
		r.logger.Info("packet",
			"direction", p.Direction.String(),
			"name", p.PacketName,
			"opcode", fmt.Sprintf("0x%02x", p.Opcode),
			"size", p.Size(),
			"hot_path", p.HotPath,
			"module", owner)
	}
	for _, p := range r.outbound.All() {
		owner, _ := r.outbound.Owner(p.PacketName)
		r.logger.Info("packet",
			"direction", p.Direction.String(),
			"name", p.PacketName,
			"opcode", fmt.Sprintf("0x%02x", p.Opcode),
			"size", p.Size(),
			"module", owner)
	}
}
