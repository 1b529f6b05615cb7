package devices

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chorusfm/chorus/internal/shared"
)

// InstallationID is the persisted opaque device id: created once per
// installation, reused across restarts, regenerated only after an
// identity conflict with the row store.
type InstallationID struct {
	path string
}

// NewInstallationID manages the id persisted at path. An empty path
// defaults to chorus_device_id in the user config directory.
func NewInstallationID(path string) (*InstallationID, error) {
	if path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("failed to locate config dir: %w", err)
		}
		path = filepath.Join(dir, "chorus", "device_id")
	}
	return &InstallationID{path: path}, nil
}

// Load returns the persisted id, creating a fresh one on first use.
func (i *InstallationID) Load() (string, error) {
	data, err := os.ReadFile(i.path)
	if err == nil {
		if id := strings.TrimSpace(string(data)); id != "" {
			return id, nil
		}
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to read device id: %w", err)
	}
	return i.Regenerate()
}

// Regenerate discards the current id and persists a fresh one. Used on
// identity conflict, when a previous id collided with another user's
// cleaned-up row.
func (i *InstallationID) Regenerate() (string, error) {
	id := shared.GenerateID()
	if err := os.MkdirAll(filepath.Dir(i.path), 0755); err != nil {
		return "", fmt.Errorf("failed to create id directory: %w", err)
	}
	if err := os.WriteFile(i.path, []byte(id+"\n"), 0600); err != nil {
		return "", fmt.Errorf("failed to persist device id: %w", err)
	}
	return id, nil
}
