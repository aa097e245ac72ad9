package signals

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/deviceid/internal/common"
	"github.com/dmitrijs2005/deviceid/internal/fingerprint"
	"github.com/dmitrijs2005/deviceid/internal/identity"
	"github.com/dmitrijs2005/deviceid/internal/logging"
	"github.com/dmitrijs2005/deviceid/internal/platform"
)

type IOSProvider struct {
	sys platform.IOSSystem
	log logging.Logger
}

func NewIOSProvider(sys platform.IOSSystem, log logging.Logger) *IOSProvider {
	return &IOSProvider{sys: sys, log: log.With("module", "signals", "platform", "ios")}
}

func (p *IOSProvider) VendorID(ctx context.Context) Signal {
	return capture(ctx, p.log, "vendorId", p.sys.VendorID)
}

// AdvertisingID is absent unless status is authorized, and the all-zero
// sentinel is always absent.
func (p *IOSProvider) AdvertisingID(ctx context.Context, status identity.TrackingStatus) Signal {
	if status != identity.TrackingAuthorized {
		return Absent()
	}
	sig := capture(ctx, p.log, "advertisingId", p.sys.AdvertisingID)
	if v, ok := sig.Value(); ok && v == common.ZeroAdvertisingID {
		return Absent()
	}
	return sig
}

func (p *IOSProvider) Device(ctx context.Context) (platform.IOSDevice, error) {
	d, err := guard(p.sys.Device)
	if err != nil {
		p.log.Warn(ctx, "device descriptors unavailable", "error", err)
	}
	return d, err
}

func (p *IOSProvider) screen(ctx context.Context) platform.Screen {
	s, err := guard(p.sys.Screen)
	if err != nil {
		p.log.Warn(ctx, "screen metrics unavailable", "error", err)
	}
	return s
}

func (p *IOSProvider) locale(ctx context.Context) platform.Locale {
	l, err := guard(p.sys.Locale)
	if err != nil {
		p.log.Warn(ctx, "locale unavailable", "error", err)
	}
	return l
}

func (p *IOSProvider) FingerprintInputs(ctx context.Context) (fingerprint.IOSInputs, error) {
	d, err := p.Device(ctx)
	if err != nil {
		return fingerprint.IOSInputs{}, err
	}
	s := p.screen(ctx)
	l := p.locale(ctx)
	return fingerprint.IOSInputs{
		Machine:      d.Machine,
		OSVersion:    d.SystemVersion,
		ScreenWidth:  s.Width,
		ScreenHeight: s.Height,
		ScreenScale:  s.Scale,
		Timezone:     l.Timezone,
		Language:     l.Language,
	}, nil
}

func (p *IOSProvider) DeviceInfo(ctx context.Context) identity.DeviceInfo {
	dev, _ := p.Device(ctx)
	s := p.screen(ctx)
	l := p.locale(ctx)

	var d identity.DeviceInfo
	d.Add("platform", string(identity.IOS))
	d.Add("name", dev.Name)
	d.Add("model", dev.Model)
	d.Add("machine", dev.Machine)
	d.Add("systemName", dev.SystemName)
	d.Add("osVersion", dev.SystemVersion)
	d.Add("screenSize", fmt.Sprintf("%dx%d", s.Width, s.Height))
	d.Add("screenScale", strconv.FormatFloat(s.Scale, 'f', -1, 64))
	d.Add("locale", localeTag(l))
	d.Add("timezone", l.Timezone)
	return d
}
