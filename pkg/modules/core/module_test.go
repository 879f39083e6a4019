package core

import (
	"testing"
)

func TestClassicBlockTable(t *testing.T) {
	if len(classicBlocks) != 50 {
		t.Fatalf("block table has %d entries, want 50", len(classicBlocks))
	}
	seen := make(map[byte]string, len(classicBlocks))
	for i, b := range classicBlocks {
		if int(b.ID) != i {
			t.Errorf("block %q has id %d at table position %d", b.BlockName, b.ID, i)
		}
		if prev, dup := seen[b.ID]; dup {
			t.Errorf("id %d used by both %q and %q", b.ID, prev, b.BlockName)
		}
		seen[b.ID] = b.BlockName
	}
	if classicBlocks[0].BlockName != "Air" || classicBlocks[0].Solid {
		t.Error("block 0 must be non-solid Air")
	}
	if classicBlocks[49].BlockName != "Obsidian" {
		t.Errorf("block 49 = %q, want Obsidian", classicBlocks[49].BlockName)
	}
}
