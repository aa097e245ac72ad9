// Package channel dispatches method-channel calls (method name plus an
// argument map) to a resolver and shapes the results as plain values:
// strings, bools, nil for absent and nested maps.
package channel

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/dmitrijs2005/deviceid/internal/identity"
	"github.com/dmitrijs2005/deviceid/internal/logging"
	"github.com/dmitrijs2005/deviceid/internal/resolver"
	"github.com/dmitrijs2005/deviceid/internal/storage/filestore"
	"github.com/dmitrijs2005/deviceid/internal/storage/keychain"
)

var (
	ErrWrongPlatform   = errors.New("method not available on this platform")
	ErrNotImplemented  = errors.New("method not implemented")
	ErrInvalidArgument = errors.New("invalid argument")
)

// Method names.
const (
	MethodSupportedIdentifiers       = "getSupportedIdentifiers"
	MethodBestDeviceIdentifier       = "getBestDeviceIdentifier"
	MethodIsEmulator                 = "isEmulator"
	MethodDeviceInfo                 = "getDeviceInfo"
	MethodAndroidID                  = "getAndroidId"
	MethodAdvertisingIDForAndroid    = "getAdvertisingIdForAndroid"
	MethodAdvertisingIDForIOS        = "getAdvertisingIdForiOS"
	MethodAppleIDFV                  = "getAppleIDFV"
	MethodRequestTracking            = "requestTrackingAuthorization"
	MethodKeychainUUID               = "getKeychainUUID"
	MethodHasKeychainUUID            = "hasKeychainUUID"
	MethodGenerateKeychainUUID       = "generateKeychainUUID"
	MethodSetKeychainNamespace       = "setKeychainServiceAndAccount"
	MethodFileDeviceIdentifier       = "getFileDeviceIdentifier"
	MethodGenerateFileDeviceID       = "generateFileDeviceIdentifier"
	MethodHasFileDeviceIdentifier    = "hasFileDeviceIdentifier"
	MethodDeleteFileDeviceIdentifier = "deleteFileDeviceIdentifier"
	MethodRequestStoragePermission   = "requestExternalStoragePermission"
	MethodHasStoragePermission       = "hasExternalStoragePermission"
)

// Args is the argument map of a call.
type Args map[string]any

type handler func(ctx context.Context, args Args) (any, error)

// androidOps and iosOps are the platform-exclusive operations the
// dispatcher needs from a resolver.
type androidOps interface {
	AndroidID(ctx context.Context) string
	AdvertisingID(ctx context.Context) string
	HasStoragePermission() bool
	RequestStoragePermission(ctx context.Context)
	FileID(ctx context.Context, loc filestore.Location) (string, error)
	GenerateFileID(ctx context.Context, loc filestore.Location) (filestore.Result, error)
	HasFileID(ctx context.Context, loc filestore.Location) (bool, error)
	DeleteFileID(ctx context.Context, loc filestore.Location) (bool, error)
}

type iosOps interface {
	VendorID(ctx context.Context) string
	AdvertisingID(ctx context.Context) string
	RequestTracking(ctx context.Context) identity.TrackingStatus
	Keychain() *keychain.Manager
}

type Dispatcher struct {
	r       resolver.Resolver
	log     logging.Logger
	methods map[string]handler
}

func NewDispatcher(r resolver.Resolver, log logging.Logger) *Dispatcher {
	if log == nil {
		log = logging.Nop()
	}
	d := &Dispatcher{r: r, log: log.With("module", "channel")}
	d.methods = map[string]handler{
		MethodSupportedIdentifiers:       d.supportedIdentifiers,
		MethodBestDeviceIdentifier:       d.bestDeviceIdentifier,
		MethodIsEmulator:                 d.isEmulator,
		MethodDeviceInfo:                 d.deviceInfo,
		MethodAndroidID:                  d.androidID,
		MethodAdvertisingIDForAndroid:    d.advertisingIDForAndroid,
		MethodAdvertisingIDForIOS:        d.advertisingIDForIOS,
		MethodAppleIDFV:                  d.appleIDFV,
		MethodRequestTracking:            d.requestTracking,
		MethodKeychainUUID:               d.keychainUUID,
		MethodHasKeychainUUID:            d.hasKeychainUUID,
		MethodGenerateKeychainUUID:       d.generateKeychainUUID,
		MethodSetKeychainNamespace:       d.setKeychainNamespace,
		MethodFileDeviceIdentifier:       d.fileDeviceIdentifier,
		MethodGenerateFileDeviceID:       d.generateFileDeviceIdentifier,
		MethodHasFileDeviceIdentifier:    d.hasFileDeviceIdentifier,
		MethodDeleteFileDeviceIdentifier: d.deleteFileDeviceIdentifier,
		MethodRequestStoragePermission:   d.requestStoragePermission,
		MethodHasStoragePermission:       d.hasStoragePermission,
	}
	return d
}

// Methods lists the supported method names in sorted order.
func (d *Dispatcher) Methods() []string {
	names := make([]string, 0, len(d.methods))
	for name := range d.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (d *Dispatcher) Platform() identity.Platform { return d.r.Platform() }

// Invoke runs method synchronously.
func (d *Dispatcher) Invoke(ctx context.Context, method string, args Args) (any, error) {
	h, ok := d.methods[method]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotImplemented, method)
	}
	d.log.Debug(ctx, "invoke", "method", method)

	res, err := h(ctx, args)
	if err != nil {
		d.log.Warn(ctx, "invoke failed", "method", method, "error", err)
	}
	return res, err
}

// Reply is the outcome of an asynchronous call.
type Reply struct {
	Method string
	Result any
	Err    error
}

// Go runs method on its own goroutine. The returned channel receives
// exactly one Reply and is then closed.
func (d *Dispatcher) Go(ctx context.Context, method string, args Args) <-chan Reply {
	out := make(chan Reply, 1)
	go func() {
		defer close(out)
		res, err := d.Invoke(ctx, method, args)
		out <- Reply{Method: method, Result: res, Err: err}
	}()
	return out
}

func (d *Dispatcher) android(method string) (androidOps, error) {
	ops, ok := d.r.(androidOps)
	if !ok || d.r.Platform() != identity.Android {
		return nil, fmt.Errorf("%w: %s is android only", ErrWrongPlatform, method)
	}
	return ops, nil
}

func (d *Dispatcher) ios(method string) (iosOps, error) {
	ops, ok := d.r.(iosOps)
	if !ok || d.r.Platform() != identity.IOS {
		return nil, fmt.Errorf("%w: %s is ios only", ErrWrongPlatform, method)
	}
	return ops, nil
}

// optional maps "" to nil.
func optional(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// stringArg returns the named argument. Missing and null arguments yield
// "", anything other than a string is rejected.
func stringArg(args Args, name string) (string, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string, got %T", ErrInvalidArgument, name, v)
	}
	return s, nil
}

func location(args Args) (filestore.Location, error) {
	file, err := stringArg(args, "fileName")
	if err != nil {
		return filestore.Location{}, err
	}
	folder, err := stringArg(args, "folderName")
	if err != nil {
		return filestore.Location{}, err
	}
	loc := filestore.Location{Folder: folder, File: file}
	if err := loc.Validate(); err != nil {
		return loc, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	return loc, nil
}
