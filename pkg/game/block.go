// Package game holds the domain catalogs built on the entity registry:
// block types and chat commands. World simulation itself lives with the
// (external) world collaborator; these catalogs only define what exists.
package game

import (
	"log/slog"

	"github.com/codingwatching/ProjectObsidian/pkg/registry"
)

// Block is one placeable block type. The id is the byte sent on the wire in
// block-update packets.
type Block struct {
	BlockName string
	ID        byte
	Solid     bool
}

// Name returns the registry primary key.
func (b *Block) Name() string {
	return b.BlockName
}

// NumericID returns the wire block id as the registry secondary key.
func (b *Block) NumericID() (int32, bool) {
	return int32(b.ID), true
}

// Blocks is the block-type catalog.
type Blocks struct {
	*registry.Registry[*Block]
}

// NewBlocks creates an empty block catalog.
func NewBlocks(logger *slog.Logger) *Blocks {
	return &Blocks{Registry: registry.New[*Block]("block", logger)}
}

// ByBlockID resolves a block by its wire id.
func (b *Blocks) ByBlockID(id byte) (*Block, error) {
	return b.ByID(int32(id))
}
