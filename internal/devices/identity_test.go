package devices

import (
	"path/filepath"
	"testing"
)

func TestInstallationID(t *testing.T) {
	t.Run("LoadCreatesAndPersists", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "device_id")
		install, err := NewInstallationID(path)
		if err != nil {
			t.Fatalf("failed to create installation id: %v", err)
		}

		first, err := install.Load()
		if err != nil {
			t.Fatalf("first load failed: %v", err)
		}
		if first == "" {
			t.Fatal("expected a generated id")
		}

		second, err := install.Load()
		if err != nil {
			t.Fatalf("second load failed: %v", err)
		}
		if second != first {
			t.Errorf("expected stable id across loads, got %q then %q", first, second)
		}
	})

	t.Run("RegenerateReplacesID", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "device_id")
		install, err := NewInstallationID(path)
		if err != nil {
			t.Fatalf("failed to create installation id: %v", err)
		}

		first, err := install.Load()
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}

		fresh, err := install.Regenerate()
		if err != nil {
			t.Fatalf("regenerate failed: %v", err)
		}
		if fresh == first {
			t.Error("expected a different id after regeneration")
		}

		loaded, err := install.Load()
		if err != nil {
			t.Fatalf("load after regenerate failed: %v", err)
		}
		if loaded != fresh {
			t.Errorf("expected regenerated id to persist, got %q want %q", loaded, fresh)
		}
	})

	t.Run("CreatesParentDirectories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "deeper", "device_id")
		install, err := NewInstallationID(path)
		if err != nil {
			t.Fatalf("failed to create installation id: %v", err)
		}

		if _, err := install.Load(); err != nil {
			t.Fatalf("load should create parent directories: %v", err)
		}
	})
}
