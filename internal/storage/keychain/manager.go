package keychain

import (
	"context"
	"errors"
	"sync"

	"github.com/dmitrijs2005/deviceid/internal/common"
	"github.com/dmitrijs2005/deviceid/internal/logging"
	"github.com/google/uuid"
)

// Namespace addresses the two keychain entries the engine owns.
type Namespace struct {
	Service         string
	KeyAccount      string
	DeviceIDAccount string
}

// DefaultNamespace returns the namespace used until SetNamespace is called.
func DefaultNamespace() Namespace {
	return Namespace{
		Service:         common.DefaultKeychainService,
		KeyAccount:      common.DefaultKeychainKeyAccount,
		DeviceIDAccount: common.DefaultKeychainDeviceIDAccount,
	}
}

// Manager owns the keychain UUID and the stored device ID.
type Manager struct {
	store Store
	log   logging.Logger

	mu sync.RWMutex
	ns Namespace

	genMu sync.Mutex
}

func NewManager(store Store, ns Namespace, log logging.Logger) *Manager {
	if log == nil {
		log = logging.Nop()
	}
	return &Manager{store: store, ns: ns, log: log.With("module", "keychain")}
}

// SetNamespace replaces the namespace. Empty fields keep their current
// value. Entries written under the previous namespace are not migrated.
func (m *Manager) SetNamespace(ns Namespace) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ns.Service != "" {
		m.ns.Service = ns.Service
	}
	if ns.KeyAccount != "" {
		m.ns.KeyAccount = ns.KeyAccount
	}
	if ns.DeviceIDAccount != "" {
		m.ns.DeviceIDAccount = ns.DeviceIDAccount
	}
}

func (m *Manager) Namespace() Namespace {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ns
}

// UUID returns the stored keychain UUID, or "" when there is none. Read
// failures are logged and reported as absent.
func (m *Manager) UUID(ctx context.Context) string {
	ns := m.Namespace()
	return m.read(ctx, ns.Service, ns.KeyAccount)
}

func (m *Manager) HasUUID(ctx context.Context) bool {
	return m.UUID(ctx) != ""
}

// GenerateUUID returns the existing keychain UUID or creates and stores a
// new one. When the write fails the fresh value is still returned along
// with the error.
func (m *Manager) GenerateUUID(ctx context.Context) (string, error) {
	m.genMu.Lock()
	defer m.genMu.Unlock()

	if v := m.UUID(ctx); v != "" {
		return v, nil
	}

	ns := m.Namespace()
	id := uuid.NewString()
	if err := m.store.Set(ctx, ns.Service, ns.KeyAccount, id); err != nil {
		m.log.Error(ctx, "keychain uuid write failed", "service", ns.Service, "error", err)
		return id, err
	}
	return id, nil
}

func (m *Manager) DeleteUUID(ctx context.Context) error {
	ns := m.Namespace()
	return m.store.Delete(ctx, ns.Service, ns.KeyAccount)
}

// DeviceID returns the stored device ID, or "" when there is none.
func (m *Manager) DeviceID(ctx context.Context) string {
	ns := m.Namespace()
	return m.read(ctx, ns.Service, ns.DeviceIDAccount)
}

func (m *Manager) SaveDeviceID(ctx context.Context, id string) error {
	ns := m.Namespace()
	if err := m.store.Set(ctx, ns.Service, ns.DeviceIDAccount, id); err != nil {
		m.log.Error(ctx, "device id write failed", "service", ns.Service, "error", err)
		return err
	}
	return nil
}

func (m *Manager) read(ctx context.Context, service, account string) string {
	v, err := m.store.Get(ctx, service, account)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			m.log.Warn(ctx, "keychain read failed", "service", service, "account", account, "error", err)
		}
		return ""
	}
	return v
}
