// Package platform declares the raw capabilities a host binding supplies to
// the identifier engine. Implementations return errors instead of panicking
// where they can; the signal layer guards against the ones that don't.
package platform

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/deviceid/internal/identity"
)

var (
	// ErrPermissionDenied means the capability exists but the app lacks the
	// grant to use it.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrServiceUnavailable means a backing service (e.g. Play services) is
	// missing on this device.
	ErrServiceUnavailable = errors.New("service unavailable")
)

// Android runtime permissions referenced by the engine.
const (
	PermissionReadExternalStorage  = "android.permission.READ_EXTERNAL_STORAGE"
	PermissionWriteExternalStorage = "android.permission.WRITE_EXTERNAL_STORAGE"
	PermissionReadPhoneState       = "android.permission.READ_PHONE_STATE"
)

// Android SDK levels the storage rules branch on.
const (
	SDKQ = 29
	SDKR = 30
)

// AndroidBuild carries the android.os.Build descriptors.
type AndroidBuild struct {
	Board        string   `json:"board"`
	Brand        string   `json:"brand"`
	Device       string   `json:"device"`
	Hardware     string   `json:"hardware"`
	Manufacturer string   `json:"manufacturer"`
	Model        string   `json:"model"`
	Product      string   `json:"product"`
	Fingerprint  string   `json:"fingerprint"`
	OSRelease    string   `json:"osRelease"`
	SDK          int      `json:"sdk"`
	ABIs         []string `json:"abis"`
}

type Screen struct {
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	DensityDPI int     `json:"densityDpi"`
	Scale      float64 `json:"scale"`
}

type Locale struct {
	Language string `json:"language"`
	Region   string `json:"region"`
	Timezone string `json:"timezone"`
}

// AdvertisingInfo is what the advertising-ID service reports.
type AdvertisingInfo struct {
	ID              string `json:"id"`
	LimitAdTracking bool   `json:"limitAdTracking"`
}

// AndroidSystem is the set of Android capabilities the engine consumes.
type AndroidSystem interface {
	AndroidID() (string, error)
	// BuildSerial returns ErrPermissionDenied without READ_PHONE_STATE or
	// privileged access.
	BuildSerial() (string, error)
	// Advertising returns ErrServiceUnavailable when Play services are
	// missing.
	Advertising(ctx context.Context) (AdvertisingInfo, error)
	Build() (AndroidBuild, error)
	Screen() (Screen, error)
	Locale() (Locale, error)

	HasPermission(name string) bool
	IsExternalStorageManager() bool
	// RequestPermissions and OpenManageStorageSettings start the platform
	// flow and return; the outcome is observed through HasPermission.
	RequestPermissions(ctx context.Context, names ...string)
	OpenManageStorageSettings(ctx context.Context)

	// AppFilesDir is the app-specific external files directory.
	AppFilesDir() (string, error)
	// ExternalStorageRoot is the shared external storage root.
	ExternalStorageRoot() (string, error)
}

// IOSDevice carries the UIDevice/utsname descriptors.
type IOSDevice struct {
	Machine       string `json:"machine"`
	Model         string `json:"model"`
	Name          string `json:"name"`
	SystemName    string `json:"systemName"`
	SystemVersion string `json:"systemVersion"`
	Simulator     bool   `json:"simulator"`
}

// IOSSystem is the set of iOS capabilities the engine consumes.
type IOSSystem interface {
	VendorID() (string, error)
	AdvertisingID() (string, error)
	Device() (IOSDevice, error)
	Screen() (Screen, error)
	Locale() (Locale, error)

	TrackingStatus() identity.TrackingStatus
	// RequestTracking blocks until the user answers the prompt.
	RequestTracking(ctx context.Context) identity.TrackingStatus
}
