package signals

import (
	"context"
	"strconv"

	"github.com/dmitrijs2005/deviceid/internal/common"
	"github.com/dmitrijs2005/deviceid/internal/fingerprint"
	"github.com/dmitrijs2005/deviceid/internal/identity"
	"github.com/dmitrijs2005/deviceid/internal/logging"
	"github.com/dmitrijs2005/deviceid/internal/platform"
)

type AndroidProvider struct {
	sys platform.AndroidSystem
	log logging.Logger
}

func NewAndroidProvider(sys platform.AndroidSystem, log logging.Logger) *AndroidProvider {
	return &AndroidProvider{sys: sys, log: log.With("module", "signals", "platform", "android")}
}

func (p *AndroidProvider) AndroidID(ctx context.Context) Signal {
	return capture(ctx, p.log, "androidId", p.sys.AndroidID)
}

func (p *AndroidProvider) BuildSerial(ctx context.Context) Signal {
	return capture(ctx, p.log, "buildSerial", p.sys.BuildSerial)
}

// Advertising returns the advertising ID and the limit-ad-tracking flag.
// Without the advertising service the ID is absent and the flag is true.
func (p *AndroidProvider) Advertising(ctx context.Context) (Signal, bool) {
	limit := true
	sig := capture(ctx, p.log, "advertisingId", func() (string, error) {
		info, err := p.sys.Advertising(ctx)
		if err != nil {
			return "", err
		}
		limit = info.LimitAdTracking
		return info.ID, nil
	})
	if v, ok := sig.Value(); ok && v == common.ZeroAdvertisingID {
		return Absent(), limit
	}
	return sig, limit
}

func (p *AndroidProvider) Build(ctx context.Context) (platform.AndroidBuild, error) {
	b, err := guard(p.sys.Build)
	if err != nil {
		p.log.Warn(ctx, "build descriptors unavailable", "error", err)
	}
	return b, err
}

func (p *AndroidProvider) screen(ctx context.Context) platform.Screen {
	s, err := guard(p.sys.Screen)
	if err != nil {
		p.log.Warn(ctx, "screen metrics unavailable", "error", err)
	}
	return s
}

func (p *AndroidProvider) locale(ctx context.Context) platform.Locale {
	l, err := guard(p.sys.Locale)
	if err != nil {
		p.log.Warn(ctx, "locale unavailable", "error", err)
	}
	return l
}

// FingerprintInputs collects the fingerprint descriptors. Missing screen
// metrics leave zeros in place; missing build descriptors are an error.
func (p *AndroidProvider) FingerprintInputs(ctx context.Context) (fingerprint.AndroidInputs, error) {
	b, err := p.Build(ctx)
	if err != nil {
		return fingerprint.AndroidInputs{}, err
	}
	s := p.screen(ctx)
	return fingerprint.AndroidInputs{
		Board:        b.Board,
		Brand:        b.Brand,
		Device:       b.Device,
		Hardware:     b.Hardware,
		Manufacturer: b.Manufacturer,
		Model:        b.Model,
		Product:      b.Product,
		OSRelease:    b.OSRelease,
		SDK:          b.SDK,
		ScreenWidth:  s.Width,
		ScreenHeight: s.Height,
		DensityDPI:   s.DensityDPI,
		ABIs:         b.ABIs,
	}, nil
}

func (p *AndroidProvider) DeviceInfo(ctx context.Context) identity.DeviceInfo {
	b, _ := p.Build(ctx)
	s := p.screen(ctx)
	l := p.locale(ctx)

	var d identity.DeviceInfo
	d.Add("platform", string(identity.Android))
	d.Add("brand", b.Brand)
	d.Add("manufacturer", b.Manufacturer)
	d.Add("model", b.Model)
	d.Add("device", b.Device)
	d.Add("product", b.Product)
	d.Add("hardware", b.Hardware)
	d.Add("osVersion", b.OSRelease)
	d.Add("sdkInt", strconv.Itoa(b.SDK))
	d.Add("screenWidth", strconv.Itoa(s.Width))
	d.Add("screenHeight", strconv.Itoa(s.Height))
	d.Add("densityDpi", strconv.Itoa(s.DensityDPI))
	d.Add("locale", localeTag(l))
	d.Add("timezone", l.Timezone)
	return d
}

func localeTag(l platform.Locale) string {
	if l.Region == "" {
		return l.Language
	}
	return l.Language + "-" + l.Region
}
