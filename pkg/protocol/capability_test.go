package protocol

import "testing"

func TestCapabilitySetSupports(t *testing.T) {
	set := NewCapabilitySet(
		Capability{Name: "ClickDistance", Version: 1},
		Capability{Name: "HeldBlock", Version: 1},
	)

	tests := []struct {
		name    string
		cap     string
		version int32
		want    bool
	}{
		{"exact_match", "ClickDistance", 1, true},
		{"wrong_version", "ClickDistance", 2, false},
		{"unknown_name", "LongerMessages", 1, false},
		{"name_is_case_sensitive", "clickdistance", 1, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := set.Supports(tc.cap, tc.version); got != tc.want {
				t.Errorf("Supports(%s, %d) = %v, want %v", tc.cap, tc.version, got, tc.want)
			}
		})
	}
}

func TestCapabilitySetIntersect(t *testing.T) {
	server := NewCapabilitySet(
		Capability{Name: "ClickDistance", Version: 1},
		Capability{Name: "HeldBlock", Version: 1},
		Capability{Name: "EnvColors", Version: 1},
	)
	client := NewCapabilitySet(
		Capability{Name: "HeldBlock", Version: 1},
		Capability{Name: "ClickDistance", Version: 2}, // version mismatch
		Capability{Name: "TextHotKey", Version: 1},    // server does not offer
	)

	got := server.Intersect(client)

	if got.Len() != 1 {
		t.Fatalf("Intersect().Len() = %d, want 1", got.Len())
	}
	if !got.Supports("HeldBlock", 1) {
		t.Error("intersection missing HeldBlock/1")
	}
	if got.Supports("ClickDistance", 1) || got.Supports("ClickDistance", 2) {
		t.Error("version mismatch survived intersection")
	}
}

func TestCapabilitySetIntersectPreservesOrder(t *testing.T) {
	server := NewCapabilitySet(
		Capability{Name: "A", Version: 1},
		Capability{Name: "B", Version: 1},
		Capability{Name: "C", Version: 1},
	)
	client := NewCapabilitySet(
		Capability{Name: "C", Version: 1},
		Capability{Name: "A", Version: 1},
	)

	list := server.Intersect(client).List()
	if len(list) != 2 || list[0].Name != "A" || list[1].Name != "C" {
		t.Errorf("Intersect().List() = %v, want receiver order [A C]", list)
	}
}

func TestCapabilitySetNilSafe(t *testing.T) {
	var set *CapabilitySet
	if set.Supports("ClickDistance", 1) {
		t.Error("nil set Supports() = true, want false")
	}
	if set.Len() != 0 {
		t.Errorf("nil set Len() = %d, want 0", set.Len())
	}
}

func TestCapabilitySetDeduplicates(t *testing.T) {
	set := NewCapabilitySet(
		Capability{Name: "HeldBlock", Version: 1},
		Capability{Name: "HeldBlock", Version: 1},
	)
	if set.Len() != 1 {
		t.Errorf("Len() = %d, want 1", set.Len())
	}
}

func TestCapabilityString(t *testing.T) {
	c := Capability{Name: "ClickDistance", Version: 1}
	if c.String() != "ClickDistance/1" {
		t.Errorf("String() = %q, want ClickDistance/1", c.String())
	}
}
