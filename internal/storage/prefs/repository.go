// Package prefs is the app-private preferences store: values that live for
// the app data lifetime (install ID, cached fingerprint) and disappear with
// an app-data wipe. The keychain salt and verifier live here too but
// survive a wipe.
package prefs

import (
	"context"
)

type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error
}
