// Package permission answers and requests the storage and tracking grants
// the resolver depends on. Requests start the platform flow and never
// imply a grant; callers must check again.
package permission

import (
	"context"

	"github.com/dmitrijs2005/deviceid/internal/identity"
	"github.com/dmitrijs2005/deviceid/internal/platform"
)

// trackingSinceMajor is the first iOS release with tracking authorization.
const trackingSinceMajor = 14

type AndroidGate struct {
	sys platform.AndroidSystem
}

func NewAndroidGate(sys platform.AndroidSystem) *AndroidGate {
	return &AndroidGate{sys: sys}
}

func (g *AndroidGate) sdk() int {
	b, err := g.sys.Build()
	if err != nil {
		return 0
	}
	return b.SDK
}

// HasStoragePermission reports the manage-all-files grant on SDK 30+ and
// both classic storage grants below.
func (g *AndroidGate) HasStoragePermission() bool {
	if g.sdk() >= platform.SDKR {
		return g.sys.IsExternalStorageManager()
	}
	return g.sys.HasPermission(platform.PermissionReadExternalStorage) &&
		g.sys.HasPermission(platform.PermissionWriteExternalStorage)
}

// RequestStoragePermission opens the settings screen on SDK 30+ and shows
// the runtime prompt below.
func (g *AndroidGate) RequestStoragePermission(ctx context.Context) {
	if g.sdk() >= platform.SDKR {
		g.sys.OpenManageStorageSettings(ctx)
		return
	}
	g.sys.RequestPermissions(ctx,
		platform.PermissionReadExternalStorage,
		platform.PermissionWriteExternalStorage)
}

type IOSGate struct {
	sys platform.IOSSystem
}

func NewIOSGate(sys platform.IOSSystem) *IOSGate {
	return &IOSGate{sys: sys}
}

func (g *IOSGate) trackingSupported() bool {
	d, err := g.sys.Device()
	if err != nil {
		return true
	}
	return platform.MajorVersion(d.SystemVersion) >= trackingSinceMajor
}

// TrackingStatus is authorized on releases without tracking authorization.
func (g *IOSGate) TrackingStatus() identity.TrackingStatus {
	if !g.trackingSupported() {
		return identity.TrackingAuthorized
	}
	return g.sys.TrackingStatus()
}

// RequestTracking blocks until the user answers the prompt.
func (g *IOSGate) RequestTracking(ctx context.Context) identity.TrackingStatus {
	if !g.trackingSupported() {
		return identity.TrackingAuthorized
	}
	return g.sys.RequestTracking(ctx)
}
