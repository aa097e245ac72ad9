// Package keychain persists small secrets under a (service, account) pair,
// the way the platform keychain does. Values written here survive app
// reinstalls on hosts whose keychain outlives the app.
package keychain

import "context"

// Store is the raw keychain capability. Get returns common.ErrNotFound for
// a missing entry; any other error is a read failure.
type Store interface {
	Get(ctx context.Context, service, account string) (string, error)
	Set(ctx context.Context, service, account, value string) error
	Delete(ctx context.Context, service, account string) error
}
