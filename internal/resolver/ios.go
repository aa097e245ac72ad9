package resolver

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/deviceid/internal/emulator"
	"github.com/dmitrijs2005/deviceid/internal/fingerprint"
	"github.com/dmitrijs2005/deviceid/internal/identity"
	"github.com/dmitrijs2005/deviceid/internal/permission"
	"github.com/dmitrijs2005/deviceid/internal/signals"
	"github.com/dmitrijs2005/deviceid/internal/storage/keychain"
)

// IOSResolver resolves identifiers from vendor, advertising and keychain
// signals.
type IOSResolver struct {
	*base
	signals  *signals.IOSProvider
	gate     *permission.IOSGate
	keychain *keychain.Manager
}

// NewIOS builds an iOS resolver. Without Deps.Keychain an in-memory
// keychain is used.
func NewIOS(d Deps) (*IOSResolver, error) {
	if d.IOS == nil {
		return nil, fmt.Errorf("%w: ios system", errMissingDep)
	}
	d.Platform = identity.IOS
	b, err := newBase(d)
	if err != nil {
		return nil, err
	}
	kc := d.Keychain
	if kc == nil {
		kc = keychain.NewManager(keychain.NewMemoryStore(), keychain.DefaultNamespace(), b.log)
	}
	return &IOSResolver{
		base:     b,
		signals:  signals.NewIOSProvider(d.IOS, b.log),
		gate:     permission.NewIOSGate(d.IOS),
		keychain: kc,
	}, nil
}

func (r *IOSResolver) Platform() identity.Platform { return identity.IOS }

func (r *IOSResolver) SupportedIdentifiers(ctx context.Context) (identity.Record, error) {
	if err := ctx.Err(); err != nil {
		return identity.Record{}, err
	}

	status := r.gate.TrackingStatus()
	keychainID, err := r.keychain.GenerateUUID(ctx)
	if err != nil {
		keychainID = ""
	}

	rec := identity.Record{
		KeychainID:             keychainID,
		VendorID:               r.signals.VendorID(ctx).OrAbsent(),
		AdvertisingID:          r.signals.AdvertisingID(ctx, status).OrAbsent(),
		LimitAdTrackingEnabled: status != identity.TrackingAuthorized,
		InstallID:              r.installID(ctx),
		Fingerprint:            r.Fingerprint(ctx),
		DeviceInfo:             r.DeviceInfo(ctx),
	}

	rec.PrimaryID = r.keychain.DeviceID(ctx)
	if rec.PrimaryID == "" {
		rec.PrimaryID = r.deriveDeviceID(ctx, rec.VendorID, rec.Fingerprint, rec.AdvertisingID)
		// A failed save is logged by the manager; the derived value is still reported.
		_ = r.keychain.SaveDeviceID(ctx, rec.PrimaryID)
	}

	rec.CombinedID = fingerprint.Combined(rec.KeychainID, rec.VendorID, rec.Fingerprint, rec.AdvertisingID)
	return rec, nil
}

// BestDeviceIdentifier walks: the stored device ID, a newly derived and
// persisted one, the authorized advertising ID, the derived value even
// though it could not be stored.
func (r *IOSResolver) BestDeviceIdentifier(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if id := r.keychain.DeviceID(ctx); id != "" {
		return id, nil
	}

	status := r.gate.TrackingStatus()
	vendor := r.signals.VendorID(ctx).OrAbsent()
	ad := r.signals.AdvertisingID(ctx, status).OrAbsent()
	derived := r.deriveDeviceID(ctx, vendor, r.Fingerprint(ctx), ad)

	if err := r.keychain.SaveDeviceID(ctx, derived); err == nil {
		return derived, nil
	}
	if ad != "" {
		return ad, nil
	}
	return derived, nil
}

func (r *IOSResolver) deriveDeviceID(ctx context.Context, vendor, fp, ad string) string {
	d, _ := r.signals.Device(ctx)
	model := d.Machine
	if model == "" {
		model = d.Model
	}
	return fingerprint.DeriveDeviceID(vendor, fp, ad, model)
}

func (r *IOSResolver) Fingerprint(ctx context.Context) string {
	return r.fingerprint(ctx, func(ctx context.Context) (string, bool) {
		in, err := r.signals.FingerprintInputs(ctx)
		return fingerprint.IOS(in), err == nil
	})
}

func (r *IOSResolver) IsEmulator(ctx context.Context) bool {
	d, err := r.signals.Device(ctx)
	if err != nil {
		return false
	}
	return r.detector.IsEmulator(emulator.Env{Model: d.Model, Device: d.Machine, Simulator: d.Simulator})
}

func (r *IOSResolver) DeviceInfo(ctx context.Context) identity.DeviceInfo {
	info := r.signals.DeviceInfo(ctx)
	info.Add("isEmulator", strconv.FormatBool(r.IsEmulator(ctx)))
	return info
}

// iOS-only operations.

func (r *IOSResolver) VendorID(ctx context.Context) string {
	return r.signals.VendorID(ctx).OrAbsent()
}

func (r *IOSResolver) AdvertisingID(ctx context.Context) string {
	return r.signals.AdvertisingID(ctx, r.gate.TrackingStatus()).OrAbsent()
}

func (r *IOSResolver) TrackingStatus() identity.TrackingStatus {
	return r.gate.TrackingStatus()
}

func (r *IOSResolver) RequestTracking(ctx context.Context) identity.TrackingStatus {
	return r.gate.RequestTracking(ctx)
}

func (r *IOSResolver) Keychain() *keychain.Manager {
	return r.keychain
}
