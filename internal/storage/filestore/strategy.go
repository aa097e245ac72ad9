// Package filestore keeps the file-backed identifier in the most durable
// storage tier the device allows. Tiers are tried in a fixed order; each
// attempt is isolated so one failing tier never hides the next.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/deviceid/internal/common"
	"github.com/dmitrijs2005/deviceid/internal/filex"
)

// Strategy names, in the order the Android store tries them.
const (
	AppPrivate = "app-private"
	AllFiles   = "all-files"
	Legacy     = "legacy"
	MediaStore = "media-store"
)

var (
	ErrNotPersisted    = errors.New("identifier not persisted in any storage tier")
	ErrInvalidLocation = errors.New("invalid file location")
	ErrUnavailable     = errors.New("storage tier unavailable")
)

// Location names the identifier file inside a tier.
type Location struct {
	Folder string
	File   string
}

// Validate rejects names that would escape the tier root. Empty parts
// are allowed; they are filled with defaults later.
func (l Location) Validate() error {
	for _, part := range []string{l.Folder, l.File} {
		if part == "." || part == ".." || strings.ContainsAny(part, `/\`) {
			return fmt.Errorf("%w: %q", ErrInvalidLocation, part)
		}
	}
	return nil
}

// Normalize fills empty parts from def, then from the package defaults,
// and validates the result.
func (l Location) Normalize(def ...Location) (Location, error) {
	for _, d := range def {
		if l.Folder == "" {
			l.Folder = d.Folder
		}
		if l.File == "" {
			l.File = d.File
		}
	}
	if l.Folder == "" {
		l.Folder = common.DefaultFolderName
	}
	if l.File == "" {
		l.File = common.DefaultFileName
	}
	return l, l.Validate()
}

// Strategy is one storage tier.
type Strategy interface {
	Name() string
	Available() bool
	Read(ctx context.Context, loc Location) (string, error)
	// Write stores value unless a non-empty value is already there, and
	// returns whatever the tier holds afterwards.
	Write(ctx context.Context, loc Location, value string) (string, error)
	Delete(ctx context.Context, loc Location) (bool, error)
}

// dirStrategy is a tier backed by a directory on the local filesystem.
type dirStrategy struct {
	name      string
	root      func() (string, error)
	available func() bool
}

// NewDirStrategy returns a filesystem tier rooted at whatever root yields
// when it is used.
func NewDirStrategy(name string, root func() (string, error), available func() bool) Strategy {
	return &dirStrategy{name: name, root: root, available: available}
}

func (s *dirStrategy) Name() string    { return s.name }
func (s *dirStrategy) Available() bool { return s.available() }

func (s *dirStrategy) path(loc Location) (string, error) {
	root, err := s.root()
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrUnavailable, s.name, err)
	}
	return filepath.Join(root, loc.Folder, loc.File), nil
}

func (s *dirStrategy) Read(_ context.Context, loc Location) (string, error) {
	p, err := s.path(loc)
	if err != nil {
		return "", err
	}
	return filex.ReadValue(p)
}

func (s *dirStrategy) Write(_ context.Context, loc Location, value string) (string, error) {
	p, err := s.path(loc)
	if err != nil {
		return "", err
	}
	return filex.WriteValueOnce(p, value)
}

func (s *dirStrategy) Delete(_ context.Context, loc Location) (bool, error) {
	p, err := s.path(loc)
	if err != nil {
		return false, err
	}
	return filex.RemoveValue(p)
}
