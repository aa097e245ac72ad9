package filestore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/deviceid/internal/logging"
	"github.com/dmitrijs2005/deviceid/internal/platform"
	"github.com/google/uuid"
)

// Result describes a Generate outcome. When Persisted is false ID is a
// fresh value that no tier holds.
type Result struct {
	ID        string
	Persisted bool
	Strategy  string
}

type Store struct {
	strategies []Strategy
	defaults   Location
	log        logging.Logger
	mu         sync.Mutex
}

// New returns a store trying strategies in the given order.
func New(strategies []Strategy, log logging.Logger) *Store {
	if log == nil {
		log = logging.Nop()
	}
	return &Store{strategies: strategies, log: log.With("module", "filestore")}
}

// NewAndroid wires the four Android tiers over sys. objects may be nil, in
// which case the media-store tier is never available.
func NewAndroid(sys platform.AndroidSystem, objects ObjectStore, log logging.Logger) *Store {
	sdk := func() int {
		b, err := sys.Build()
		if err != nil {
			return 0
		}
		return b.SDK
	}

	return New([]Strategy{
		NewDirStrategy(AppPrivate, sys.AppFilesDir, func() bool { return true }),
		NewDirStrategy(AllFiles, sys.ExternalStorageRoot, func() bool {
			return sdk() >= platform.SDKR && sys.IsExternalStorageManager()
		}),
		NewDirStrategy(Legacy, sys.ExternalStorageRoot, func() bool {
			return sdk() < platform.SDKQ &&
				sys.HasPermission(platform.PermissionReadExternalStorage) &&
				sys.HasPermission(platform.PermissionWriteExternalStorage)
		}),
		NewObjectStrategy(MediaStore, objects, func() bool { return sdk() >= platform.SDKQ }),
	}, log)
}

// attempt runs fn against one strategy and turns a panic into an error.
func attempt[T any](s Strategy, fn func() (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			v, err = zero, fmt.Errorf("%s: panic: %v", s.Name(), r)
		}
	}()
	v, err = fn()
	if err != nil {
		err = fmt.Errorf("%s: %w", s.Name(), err)
	}
	return v, err
}

// WithDefaults sets the location used for empty Location parts.
func (s *Store) WithDefaults(loc Location) *Store {
	s.defaults = loc
	return s
}

func (s *Store) available() []Strategy {
	out := make([]Strategy, 0, len(s.strategies))
	for _, st := range s.strategies {
		ok, err := attempt(st, func() (bool, error) { return st.Available(), nil })
		if err == nil && ok {
			out = append(out, st)
		}
	}
	return out
}

// Read returns the first non-empty value and the strategy holding it.
func (s *Store) Read(ctx context.Context, loc Location) (string, string, error) {
	loc, err := loc.Normalize(s.defaults)
	if err != nil {
		return "", "", err
	}
	for _, st := range s.available() {
		v, err := attempt(st, func() (string, error) { return st.Read(ctx, loc) })
		if err != nil {
			s.log.Warn(ctx, "file read failed", "strategy", st.Name(), "error", err)
			continue
		}
		if v != "" {
			return v, st.Name(), nil
		}
	}
	return "", "", nil
}

func (s *Store) Has(ctx context.Context, loc Location) (bool, error) {
	v, _, err := s.Read(ctx, loc)
	return v != "", err
}

// Generate returns the stored identifier, creating and persisting one if
// none exists. Existing files are never overwritten.
func (s *Store) Generate(ctx context.Context, loc Location) (Result, error) {
	loc, err := loc.Normalize(s.defaults)
	if err != nil {
		return Result{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	strategies := s.available()

	if v, name, _ := s.Read(ctx, loc); v != "" {
		if name == AppPrivate {
			s.backup(ctx, loc, v, after(strategies, AppPrivate))
		}
		return Result{ID: v, Persisted: true, Strategy: name}, nil
	}

	id := uuid.NewString()

	var errs []error
	for i, st := range strategies {
		stored, err := attempt(st, func() (string, error) { return st.Write(ctx, loc, id) })
		if err != nil {
			s.log.Warn(ctx, "file write failed", "strategy", st.Name(), "error", err)
			errs = append(errs, err)
			continue
		}

		if st.Name() == AppPrivate {
			s.backup(ctx, loc, stored, strategies[i+1:])
		}
		s.log.Info(ctx, "file identifier persisted", "strategy", st.Name())
		return Result{ID: stored, Persisted: true, Strategy: st.Name()}, nil
	}

	s.log.Error(ctx, "file identifier not persisted", "tiers", len(strategies))
	return Result{ID: id, Persisted: false}, errors.Join(append([]error{ErrNotPersisted}, errs...)...)
}

// after returns the strategies following the named one.
func after(strategies []Strategy, name string) []Strategy {
	for i, st := range strategies {
		if st.Name() == name {
			return strategies[i+1:]
		}
	}
	return nil
}

// backup copies value into the first of rest that accepts it.
func (s *Store) backup(ctx context.Context, loc Location, value string, rest []Strategy) {
	for _, st := range rest {
		_, err := attempt(st, func() (string, error) { return st.Write(ctx, loc, value) })
		if err == nil {
			s.log.Debug(ctx, "file identifier backed up", "strategy", st.Name())
			return
		}
		s.log.Warn(ctx, "file backup failed", "strategy", st.Name(), "error", err)
	}
}

// Delete removes the identifier from every available tier. It reports
// whether at least one copy was removed.
func (s *Store) Delete(ctx context.Context, loc Location) (bool, error) {
	loc, err := loc.Normalize(s.defaults)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := false
	var errs []error
	for _, st := range s.available() {
		ok, err := attempt(st, func() (bool, error) { return st.Delete(ctx, loc) })
		if err != nil {
			errs = append(errs, err)
			continue
		}
		removed = removed || ok
	}
	if removed {
		return true, nil
	}
	return false, errors.Join(errs...)
}
