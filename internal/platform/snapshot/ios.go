package snapshot

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/deviceid/internal/identity"
	"github.com/dmitrijs2005/deviceid/internal/platform"
)

type IOSDescriptor struct {
	VendorID      string             `json:"vendorId"`
	AdvertisingID string             `json:"advertisingId"`
	Device        platform.IOSDevice `json:"device"`
	Screen        platform.Screen    `json:"screen"`
	Locale        platform.Locale    `json:"locale"`

	TrackingStatus string `json:"trackingStatus"`
	// TrackingAnswer is what the user picks when prompted while the status
	// is still notDetermined.
	TrackingAnswer string `json:"trackingAnswer"`
}

// IOS serves platform.IOSSystem from a descriptor.
type IOS struct {
	d IOSDescriptor

	mu     sync.Mutex
	status identity.TrackingStatus
	answer identity.TrackingStatus
}

func NewIOS(d IOSDescriptor) (*IOS, error) {
	status, err := identity.ParseTrackingStatus(d.TrackingStatus)
	if err != nil {
		return nil, err
	}
	answer := identity.TrackingDenied
	if d.TrackingAnswer != "" {
		if answer, err = identity.ParseTrackingStatus(d.TrackingAnswer); err != nil {
			return nil, err
		}
	}
	return &IOS{d: d, status: status, answer: answer}, nil
}

func (i *IOS) VendorID() (string, error)           { return i.d.VendorID, nil }
func (i *IOS) AdvertisingID() (string, error)      { return i.d.AdvertisingID, nil }
func (i *IOS) Device() (platform.IOSDevice, error) { return i.d.Device, nil }
func (i *IOS) Screen() (platform.Screen, error)    { return i.d.Screen, nil }
func (i *IOS) Locale() (platform.Locale, error)    { return i.d.Locale, nil }

func (i *IOS) TrackingStatus() identity.TrackingStatus {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.status
}

// RequestTracking answers a pending prompt with the scripted answer. A
// decided status is returned unchanged, as the system does.
func (i *IOS) RequestTracking(context.Context) identity.TrackingStatus {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.status == identity.TrackingNotDetermined {
		i.status = i.answer
	}
	return i.status
}
