package snapshot

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/dmitrijs2005/deviceid/internal/platform"
)

type AndroidDescriptor struct {
	AndroidID    string                   `json:"androidId"`
	BuildSerial  string                   `json:"buildSerial"`
	Privileged   bool                     `json:"privileged"`
	PlayServices bool                     `json:"playServices"`
	Advertising  platform.AdvertisingInfo `json:"advertising"`
	Build        platform.AndroidBuild    `json:"build"`
	Screen       platform.Screen          `json:"screen"`
	Locale       platform.Locale          `json:"locale"`

	Permissions            []string `json:"permissions"`
	ExternalStorageManager bool     `json:"externalStorageManager"`
	// GrantOnRequest makes permission and settings requests succeed.
	GrantOnRequest bool `json:"grantOnRequest"`

	AppFilesDir         string `json:"appFilesDir"`
	ExternalStorageRoot string `json:"externalStorageRoot"`
}

// Android serves platform.AndroidSystem from a descriptor.
type Android struct {
	d AndroidDescriptor

	mu       sync.Mutex
	granted  map[string]bool
	manager  bool
	requests []string
}

func NewAndroid(d AndroidDescriptor) *Android {
	granted := make(map[string]bool, len(d.Permissions))
	for _, p := range d.Permissions {
		granted[p] = true
	}
	return &Android{d: d, granted: granted, manager: d.ExternalStorageManager}
}

func (a *Android) AndroidID() (string, error) { return a.d.AndroidID, nil }

func (a *Android) BuildSerial() (string, error) {
	if !a.d.Privileged && !a.HasPermission(platform.PermissionReadPhoneState) {
		return "", platform.ErrPermissionDenied
	}
	return a.d.BuildSerial, nil
}

func (a *Android) Advertising(context.Context) (platform.AdvertisingInfo, error) {
	if !a.d.PlayServices {
		return platform.AdvertisingInfo{}, platform.ErrServiceUnavailable
	}
	return a.d.Advertising, nil
}

func (a *Android) Build() (platform.AndroidBuild, error) {
	b := a.d.Build
	b.ABIs = slices.Clone(b.ABIs)
	return b, nil
}

func (a *Android) Screen() (platform.Screen, error) { return a.d.Screen, nil }
func (a *Android) Locale() (platform.Locale, error) { return a.d.Locale, nil }

func (a *Android) HasPermission(name string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.granted[name]
}

func (a *Android) IsExternalStorageManager() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.manager
}

func (a *Android) RequestPermissions(_ context.Context, names ...string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.requests = append(a.requests, names...)
	if a.d.GrantOnRequest {
		for _, n := range names {
			a.granted[n] = true
		}
	}
}

func (a *Android) OpenManageStorageSettings(context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.requests = append(a.requests, "manage-all-files-settings")
	if a.d.GrantOnRequest {
		a.manager = true
	}
}

// Requests lists every permission or settings request made so far.
func (a *Android) Requests() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.requests)
}

func (a *Android) AppFilesDir() (string, error) {
	if a.d.AppFilesDir == "" {
		return "", errors.New("app files dir not available")
	}
	return a.d.AppFilesDir, nil
}

func (a *Android) ExternalStorageRoot() (string, error) {
	if a.d.ExternalStorageRoot == "" {
		return "", errors.New("external storage not mounted")
	}
	return a.d.ExternalStorageRoot, nil
}
