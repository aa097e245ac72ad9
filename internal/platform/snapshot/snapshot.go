// Package snapshot implements the platform capabilities over a JSON device
// descriptor, so the engine can run outside a host app against a captured
// device state. Permission and tracking requests mutate the in-memory copy
// according to the descriptor's scripted answers.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/deviceid/internal/identity"
)

// Descriptor is the on-disk document. Only the section matching Platform
// is used.
type Descriptor struct {
	Platform string             `json:"platform"`
	Android  *AndroidDescriptor `json:"android,omitempty"`
	IOS      *IOSDescriptor     `json:"ios,omitempty"`
}

// Load reads the descriptor at path. Relative storage directories in it
// are resolved against root, or against the descriptor's directory when
// root is empty.
func Load(path, root string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read device descriptor: %w", err)
	}

	var d Descriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse device descriptor %s: %w", path, err)
	}

	p, err := identity.ParsePlatform(d.Platform)
	if err != nil {
		return nil, err
	}
	switch {
	case p == identity.Android && d.Android == nil:
		return nil, fmt.Errorf("device descriptor %s: missing android section", path)
	case p == identity.IOS && d.IOS == nil:
		return nil, fmt.Errorf("device descriptor %s: missing ios section", path)
	}

	if root == "" {
		root = filepath.Dir(path)
	}
	if d.Android != nil {
		d.Android.AppFilesDir = resolve(root, d.Android.AppFilesDir)
		d.Android.ExternalStorageRoot = resolve(root, d.Android.ExternalStorageRoot)
	}
	return &d, nil
}

func resolve(root, dir string) string {
	if dir == "" || filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(root, dir)
}
