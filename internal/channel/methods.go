package channel

import (
	"context"

	"github.com/dmitrijs2005/deviceid/internal/storage/keychain"
)

func (d *Dispatcher) supportedIdentifiers(ctx context.Context, _ Args) (any, error) {
	rec, err := d.r.SupportedIdentifiers(ctx)
	if err != nil {
		return nil, err
	}
	return rec.Map(d.r.Platform()), nil
}

func (d *Dispatcher) bestDeviceIdentifier(ctx context.Context, _ Args) (any, error) {
	return d.r.BestDeviceIdentifier(ctx)
}

func (d *Dispatcher) isEmulator(ctx context.Context, _ Args) (any, error) {
	return d.r.IsEmulator(ctx), nil
}

func (d *Dispatcher) deviceInfo(ctx context.Context, _ Args) (any, error) {
	info := d.r.DeviceInfo(ctx).Map()
	out := make(map[string]any, len(info))
	for k, v := range info {
		out[k] = v
	}
	return out, nil
}

func (d *Dispatcher) androidID(ctx context.Context, _ Args) (any, error) {
	ops, err := d.android(MethodAndroidID)
	if err != nil {
		return nil, err
	}
	return optional(ops.AndroidID(ctx)), nil
}

func (d *Dispatcher) advertisingIDForAndroid(ctx context.Context, _ Args) (any, error) {
	ops, err := d.android(MethodAdvertisingIDForAndroid)
	if err != nil {
		return nil, err
	}
	return optional(ops.AdvertisingID(ctx)), nil
}

func (d *Dispatcher) advertisingIDForIOS(ctx context.Context, _ Args) (any, error) {
	ops, err := d.ios(MethodAdvertisingIDForIOS)
	if err != nil {
		return nil, err
	}
	return optional(ops.AdvertisingID(ctx)), nil
}

func (d *Dispatcher) appleIDFV(ctx context.Context, _ Args) (any, error) {
	ops, err := d.ios(MethodAppleIDFV)
	if err != nil {
		return nil, err
	}
	return optional(ops.VendorID(ctx)), nil
}

func (d *Dispatcher) requestTracking(ctx context.Context, _ Args) (any, error) {
	ops, err := d.ios(MethodRequestTracking)
	if err != nil {
		return nil, err
	}
	return ops.RequestTracking(ctx).String(), nil
}

func (d *Dispatcher) keychainUUID(ctx context.Context, _ Args) (any, error) {
	ops, err := d.ios(MethodKeychainUUID)
	if err != nil {
		return nil, err
	}
	return optional(ops.Keychain().UUID(ctx)), nil
}

func (d *Dispatcher) hasKeychainUUID(ctx context.Context, _ Args) (any, error) {
	ops, err := d.ios(MethodHasKeychainUUID)
	if err != nil {
		return nil, err
	}
	return ops.Keychain().HasUUID(ctx), nil
}

// generateKeychainUUID yields nil when the new value could not be stored.
func (d *Dispatcher) generateKeychainUUID(ctx context.Context, _ Args) (any, error) {
	ops, err := d.ios(MethodGenerateKeychainUUID)
	if err != nil {
		return nil, err
	}
	id, err := ops.Keychain().GenerateUUID(ctx)
	if err != nil {
		return nil, nil
	}
	return optional(id), nil
}

// setKeychainNamespace is accepted on Android too, where no keychain is
// used and the call has no effect.
func (d *Dispatcher) setKeychainNamespace(_ context.Context, args Args) (any, error) {
	var ns keychain.Namespace
	var err error
	if ns.Service, err = stringArg(args, "service"); err != nil {
		return nil, err
	}
	if ns.KeyAccount, err = stringArg(args, "keyAccount"); err != nil {
		return nil, err
	}
	if ns.DeviceIDAccount, err = stringArg(args, "deviceIdAccount"); err != nil {
		return nil, err
	}

	if ops, err := d.ios(MethodSetKeychainNamespace); err == nil {
		ops.Keychain().SetNamespace(ns)
	}
	return nil, nil
}

func (d *Dispatcher) fileDeviceIdentifier(ctx context.Context, args Args) (any, error) {
	ops, err := d.android(MethodFileDeviceIdentifier)
	if err != nil {
		return nil, err
	}
	loc, err := location(args)
	if err != nil {
		return nil, err
	}
	id, err := ops.FileID(ctx, loc)
	if err != nil {
		return nil, err
	}
	return optional(id), nil
}

// generateFileDeviceIdentifier returns the identifier even when no tier
// could persist it; the failure is only logged.
func (d *Dispatcher) generateFileDeviceIdentifier(ctx context.Context, args Args) (any, error) {
	ops, err := d.android(MethodGenerateFileDeviceID)
	if err != nil {
		return nil, err
	}
	loc, err := location(args)
	if err != nil {
		return nil, err
	}
	res, err := ops.GenerateFileID(ctx, loc)
	if err != nil {
		d.log.Warn(ctx, "file identifier not persisted", "error", err)
	}
	return optional(res.ID), nil
}

func (d *Dispatcher) hasFileDeviceIdentifier(ctx context.Context, args Args) (any, error) {
	ops, err := d.android(MethodHasFileDeviceIdentifier)
	if err != nil {
		return nil, err
	}
	loc, err := location(args)
	if err != nil {
		return nil, err
	}
	return ops.HasFileID(ctx, loc)
}

// deleteFileDeviceIdentifier reports a tier failure as false.
func (d *Dispatcher) deleteFileDeviceIdentifier(ctx context.Context, args Args) (any, error) {
	ops, err := d.android(MethodDeleteFileDeviceIdentifier)
	if err != nil {
		return nil, err
	}
	loc, err := location(args)
	if err != nil {
		return nil, err
	}
	removed, err := ops.DeleteFileID(ctx, loc)
	if err != nil {
		d.log.Warn(ctx, "file identifier not deleted", "error", err)
		return false, nil
	}
	return removed, nil
}

func (d *Dispatcher) requestStoragePermission(ctx context.Context, _ Args) (any, error) {
	ops, err := d.android(MethodRequestStoragePermission)
	if err != nil {
		return nil, err
	}
	ops.RequestStoragePermission(ctx)
	return nil, nil
}

func (d *Dispatcher) hasStoragePermission(_ context.Context, _ Args) (any, error) {
	ops, err := d.android(MethodHasStoragePermission)
	if err != nil {
		return nil, err
	}
	return ops.HasStoragePermission(), nil
}
