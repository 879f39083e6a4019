package clickdistance

import (
	"testing"
)

func TestExtensionIdentity(t *testing.T) {
	m := New(nil)
	ext := m.Extension()
	if ext.Name != "ClickDistance" || ext.Version != 1 {
		t.Errorf("Extension() = %v, want ClickDistance/1", ext)
	}
	if !m.CPEOnly() {
		t.Error("CPEOnly() = false, want true")
	}
}

func TestConfiguredDistance(t *testing.T) {
	tests := []struct {
		name   string
		config *Config
		want   int16
	}{
		{"nil_config", nil, 160},
		{"zero_distance", &Config{}, 160},
		{"custom", &Config{Distance: 96}, 96},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := New(tc.config)
			if m.distance != tc.want {
				t.Errorf("distance = %d, want %d", m.distance, tc.want)
			}
		})
	}
}
