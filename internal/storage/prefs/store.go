package prefs

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/deviceid/internal/common"
	"github.com/google/uuid"
)

const (
	keyInstallID   = "install_id"
	keyFingerprint = "fingerprint"
	keySalt        = "keychain_salt"
	keyVerifier    = "keychain_verifier"
)

const saltSize = 16

// Store exposes the typed preferences the engine needs on top of a
// Repository. Get-or-create operations are serialized within the process;
// across processes the last writer wins.
type Store struct {
	repo Repository
	mu   sync.Mutex
}

func NewStore(repo Repository) *Store {
	return &Store{repo: repo}
}

// InstallID returns the install-scoped random identifier, creating and
// persisting it on first use.
func (s *Store) InstallID(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, err := s.repo.Get(ctx, keyInstallID)
	if err != nil {
		return "", err
	}
	if len(v) > 0 {
		return string(v), nil
	}

	id := uuid.NewString()
	if err := s.repo.Set(ctx, keyInstallID, []byte(id)); err != nil {
		return "", err
	}
	return id, nil
}

// CachedFingerprint returns the stored fingerprint or common.ErrNotFound.
func (s *Store) CachedFingerprint(ctx context.Context) (string, error) {
	v, err := s.repo.Get(ctx, keyFingerprint)
	if err != nil {
		return "", err
	}
	if len(v) == 0 {
		return "", common.ErrNotFound
	}
	return string(v), nil
}

func (s *Store) CacheFingerprint(ctx context.Context, fp string) error {
	return s.repo.Set(ctx, keyFingerprint, []byte(fp))
}

// Salt returns the per-database salt for key derivation, creating it on
// first use.
func (s *Store) Salt(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, err := s.repo.Get(ctx, keySalt)
	if err != nil {
		return nil, err
	}
	if len(v) > 0 {
		return v, nil
	}

	salt := common.GenerateRandByteArray(saltSize)
	if err := s.repo.Set(ctx, keySalt, salt); err != nil {
		return nil, err
	}
	return salt, nil
}

// Verifier returns the stored key verifier, or nil if none was saved yet.
func (s *Store) Verifier(ctx context.Context) ([]byte, error) {
	return s.repo.Get(ctx, keyVerifier)
}

func (s *Store) SetVerifier(ctx context.Context, v []byte) error {
	return s.repo.Set(ctx, keyVerifier, v)
}

// Clear wipes the preferences like an app-data wipe would. The keychain
// salt and verifier are kept since keychain entries outlive app data.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.repo.List(ctx)
	if err != nil {
		return err
	}
	for key := range all {
		if key == keySalt || key == keyVerifier {
			continue
		}
		if err := s.repo.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}
