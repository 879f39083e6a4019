package store

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestDirStorePut(t *testing.T) {
	root := t.TempDir()
	s, err := NewDirStore(root)
	if err != nil {
		t.Fatalf("NewDirStore() error = %v", err)
	}

	payload := []byte{0x00, 0x07, 'N', 'o', 't', 'c', 'h'}
	if err := s.Put(context.Background(), "captures/notch-1.bin", bytes.NewReader(payload)); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := os.ReadFile(filepath.Join(root, "captures/notch-1.bin"))
	if err != nil {
		t.Fatalf("reading stored file: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("stored bytes = %v, want %v", got, payload)
	}
}

func TestDirStoreCreatesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "archive")
	if _, err := NewDirStore(root); err != nil {
		t.Fatalf("NewDirStore() error = %v", err)
	}
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		t.Errorf("root not created: %v, %v", info, err)
	}
}
