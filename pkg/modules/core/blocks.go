package core

import (
	"github.com/codingwatching/ProjectObsidian/pkg/game"
	"github.com/codingwatching/ProjectObsidian/pkg/server"
)

// classicBlocks is the base block table, ids 0 through 49 as clients
// expect them on the wire.
var classicBlocks = []*game.Block{
	{BlockName: "Air", ID: 0, Solid: false},
	{BlockName: "Stone", ID: 1, Solid: true},
	{BlockName: "GrassBlock", ID: 2, Solid: true},
	{BlockName: "Dirt", ID: 3, Solid: true},
	{BlockName: "Cobblestone", ID: 4, Solid: true},
	{BlockName: "Planks", ID: 5, Solid: true},
	{BlockName: "Sapling", ID: 6, Solid: false},
	{BlockName: "Bedrock", ID: 7, Solid: true},
	{BlockName: "FlowingWater", ID: 8, Solid: false},
	{BlockName: "StationaryWater", ID: 9, Solid: false},
	{BlockName: "FlowingLava", ID: 10, Solid: false},
	{BlockName: "StationaryLava", ID: 11, Solid: false},
	{BlockName: "Sand", ID: 12, Solid: true},
	{BlockName: "Gravel", ID: 13, Solid: true},
	{BlockName: "GoldOre", ID: 14, Solid: true},
	{BlockName: "IronOre", ID: 15, Solid: true},
	{BlockName: "CoalOre", ID: 16, Solid: true},
	{BlockName: "Wood", ID: 17, Solid: true},
	{BlockName: "Leaves", ID: 18, Solid: true},
	{BlockName: "Sponge", ID: 19, Solid: true},
	{BlockName: "Glass", ID: 20, Solid: true},
	{BlockName: "RedCloth", ID: 21, Solid: true},
	{BlockName: "OrangeCloth", ID: 22, Solid: true},
	{BlockName: "YellowCloth", ID: 23, Solid: true},
	{BlockName: "ChartreuseCloth", ID: 24, Solid: true},
	{BlockName: "GreenCloth", ID: 25, Solid: true},
	{BlockName: "SpringGreenCloth", ID: 26, Solid: true},
	{BlockName: "CyanCloth", ID: 27, Solid: true},
	{BlockName: "CapriCloth", ID: 28, Solid: true},
	{BlockName: "UltramarineCloth", ID: 29, Solid: true},
	{BlockName: "VioletCloth", ID: 30, Solid: true},
	{BlockName: "PurpleCloth", ID: 31, Solid: true},
	{BlockName: "MagentaCloth", ID: 32, Solid: true},
	{BlockName: "RoseCloth", ID: 33, Solid: true},
	{BlockName: "DarkGrayCloth", ID: 34, Solid: true},
	{BlockName: "LightGrayCloth", ID: 35, Solid: true},
	{BlockName: "WhiteCloth", ID: 36, Solid: true},
	{BlockName: "Dandelion", ID: 37, Solid: false},
	{BlockName: "Rose", ID: 38, Solid: false},
	{BlockName: "BrownMushroom", ID: 39, Solid: false},
	{BlockName: "RedMushroom", ID: 40, Solid: false},
	{BlockName: "BlockOfGold", ID: 41, Solid: true},
	{BlockName: "BlockOfIron", ID: 42, Solid: true},
	{BlockName: "DoubleSlab", ID: 43, Solid: true},
	{BlockName: "Slab", ID: 44, Solid: true},
	{BlockName: "Bricks", ID: 45, Solid: true},
	{BlockName: "TNT", ID: 46, Solid: true},
	{BlockName: "Bookshelf", ID: 47, Solid: true},
	{BlockName: "MossyCobblestone", ID: 48, Solid: true},
	{BlockName: "Obsidian", ID: 49, Solid: true},
}

func (m *Module) registerBlocks(r *server.Registrar) error {
	for _, b := range classicBlocks {
		if err := r.RegisterBlock(b, false); err != nil {
			return err
		}
	}
	return nil
}
