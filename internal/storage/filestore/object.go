package filestore

import (
	"context"
	"errors"
	"path"
	"strings"

	"github.com/dmitrijs2005/deviceid/internal/common"
)

// ObjectStore is a flat key/value blob store. Get returns
// common.ErrNotFound for a missing key.
type ObjectStore interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

type objectStrategy struct {
	name      string
	objects   ObjectStore
	available func() bool
}

// NewObjectStrategy returns a tier over an ObjectStore. It is unavailable
// whenever objects is nil.
func NewObjectStrategy(name string, objects ObjectStore, available func() bool) Strategy {
	return &objectStrategy{name: name, objects: objects, available: available}
}

func objectKey(loc Location) string {
	return path.Join(loc.Folder, loc.File)
}

func (s *objectStrategy) Name() string { return s.name }

func (s *objectStrategy) Available() bool {
	return s.objects != nil && s.available()
}

func (s *objectStrategy) Read(ctx context.Context, loc Location) (string, error) {
	v, err := s.objects.Get(ctx, objectKey(loc))
	if errors.Is(err, common.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(v), nil
}

func (s *objectStrategy) Write(ctx context.Context, loc Location, value string) (string, error) {
	existing, err := s.Read(ctx, loc)
	if err != nil {
		return "", err
	}
	if existing != "" {
		return existing, nil
	}
	if err := s.objects.Put(ctx, objectKey(loc), value); err != nil {
		return "", err
	}
	return value, nil
}

func (s *objectStrategy) Delete(ctx context.Context, loc Location) (bool, error) {
	existing, err := s.Read(ctx, loc)
	if err != nil {
		return false, err
	}
	if existing == "" {
		return false, nil
	}
	if err := s.objects.Delete(ctx, objectKey(loc)); err != nil {
		return false, err
	}
	return true, nil
}
