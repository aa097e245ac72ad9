// Package resolver assembles identifier records and picks the best device
// identifier for the current platform. Provider and store failures are
// logged and treated as absent values; only caller mistakes surface as
// errors.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/deviceid/internal/common"
	"github.com/dmitrijs2005/deviceid/internal/emulator"
	"github.com/dmitrijs2005/deviceid/internal/identity"
	"github.com/dmitrijs2005/deviceid/internal/logging"
	"github.com/dmitrijs2005/deviceid/internal/platform"
	"github.com/dmitrijs2005/deviceid/internal/storage/filestore"
	"github.com/dmitrijs2005/deviceid/internal/storage/keychain"
	"github.com/dmitrijs2005/deviceid/internal/storage/prefs"
)

// Resolver is implemented by AndroidResolver and IOSResolver.
type Resolver interface {
	Platform() identity.Platform
	SupportedIdentifiers(ctx context.Context) (identity.Record, error)
	BestDeviceIdentifier(ctx context.Context) (string, error)
	IsEmulator(ctx context.Context) bool
	DeviceInfo(ctx context.Context) identity.DeviceInfo
	Fingerprint(ctx context.Context) string
}

// Deps are the collaborators of a resolver. Only the fields for the
// selected platform are required; Emulator defaults to the platform rules
// and Files to the Android tiers without a media store.
type Deps struct {
	Platform identity.Platform

	Android platform.AndroidSystem
	IOS     platform.IOSSystem

	Prefs    *prefs.Store
	Keychain *keychain.Manager
	Files    *filestore.Store
	Emulator *emulator.Detector

	Log logging.Logger
}

// New returns the resolver for d.Platform. Any other platform is a
// configuration error.
func New(d Deps) (Resolver, error) {
	switch d.Platform {
	case identity.Android:
		return NewAndroid(d)
	case identity.IOS:
		return NewIOS(d)
	default:
		return nil, fmt.Errorf("%w: %q", common.ErrUnsupportedPlatform, d.Platform)
	}
}

var errMissingDep = errors.New("missing resolver dependency")

// base holds what both platforms share: preferences, the emulator rules
// and the fingerprint cache.
type base struct {
	prefs    *prefs.Store
	detector *emulator.Detector
	log      logging.Logger

	fpMu sync.Mutex
	fp   string
}

func newBase(d Deps) (*base, error) {
	if d.Prefs == nil {
		return nil, fmt.Errorf("%w: prefs", errMissingDep)
	}
	log := d.Log
	if log == nil {
		log = logging.Nop()
	}
	detector := d.Emulator
	if detector == nil {
		var err error
		if detector, err = emulator.New(d.Platform); err != nil {
			return nil, err
		}
	}
	return &base{
		prefs:    d.Prefs,
		detector: detector,
		log:      log.With("module", "resolver", "platform", string(d.Platform)),
	}, nil
}

// fingerprint serves the in-process cache, then the preferences cache,
// then computes. compute reports whether its inputs were complete; an
// incomplete result is returned but not cached.
func (b *base) fingerprint(ctx context.Context, compute func(ctx context.Context) (string, bool)) string {
	b.fpMu.Lock()
	defer b.fpMu.Unlock()

	if b.fp != "" {
		return b.fp
	}

	fp, err := b.prefs.CachedFingerprint(ctx)
	switch {
	case err == nil:
		b.fp = fp
		return fp
	case !errors.Is(err, common.ErrNotFound):
		b.log.Warn(ctx, "fingerprint cache read failed", "error", err)
	}

	fp, complete := compute(ctx)
	if !complete {
		return fp
	}
	if err := b.prefs.CacheFingerprint(ctx, fp); err != nil {
		b.log.Warn(ctx, "fingerprint cache write failed", "error", err)
	}
	b.fp = fp
	return fp
}

func (b *base) installID(ctx context.Context) string {
	id, err := b.prefs.InstallID(ctx)
	if err != nil {
		b.log.Warn(ctx, "install id unavailable", "error", err)
		return ""
	}
	return id
}
