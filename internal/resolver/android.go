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
	"github.com/dmitrijs2005/deviceid/internal/storage/filestore"
)

// AndroidResolver resolves identifiers from Android signals and the
// tiered file store.
type AndroidResolver struct {
	*base
	signals *signals.AndroidProvider
	gate    *permission.AndroidGate
	files   *filestore.Store
}

// NewAndroid builds an Android resolver. Without Deps.Files the four
// standard tiers are used, with no media-store backend.
func NewAndroid(d Deps) (*AndroidResolver, error) {
	if d.Android == nil {
		return nil, fmt.Errorf("%w: android system", errMissingDep)
	}
	d.Platform = identity.Android
	b, err := newBase(d)
	if err != nil {
		return nil, err
	}
	files := d.Files
	if files == nil {
		files = filestore.NewAndroid(d.Android, nil, b.log)
	}
	return &AndroidResolver{
		base:    b,
		signals: signals.NewAndroidProvider(d.Android, b.log),
		gate:    permission.NewAndroidGate(d.Android),
		files:   files,
	}, nil
}

func (r *AndroidResolver) Platform() identity.Platform { return identity.Android }

func (r *AndroidResolver) SupportedIdentifiers(ctx context.Context) (identity.Record, error) {
	if err := ctx.Err(); err != nil {
		return identity.Record{}, err
	}

	ad, limit := r.signals.Advertising(ctx)
	rec := identity.Record{
		PrimaryID:              r.signals.AndroidID(ctx).OrAbsent(),
		BuildSerial:            r.signals.BuildSerial(ctx).OrAbsent(),
		AdvertisingID:          ad.OrAbsent(),
		LimitAdTrackingEnabled: limit,
		InstallID:              r.installID(ctx),
		Fingerprint:            r.Fingerprint(ctx),
		DeviceInfo:             r.DeviceInfo(ctx),
	}

	if r.gate.HasStoragePermission() {
		rec.FileBackedID = r.persistedFileID(ctx, filestore.Location{})
	}

	adForCombined := rec.AdvertisingID
	if limit {
		adForCombined = ""
	}
	rec.CombinedID = fingerprint.Combined(rec.FileBackedID, rec.PrimaryID, rec.Fingerprint, adForCombined)
	return rec, nil
}

// BestDeviceIdentifier walks: Android ID, the persisted file ID (with
// storage permission), the advertising ID, the fingerprint.
func (r *AndroidResolver) BestDeviceIdentifier(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if id := r.signals.AndroidID(ctx).OrAbsent(); id != "" {
		return id, nil
	}
	if r.gate.HasStoragePermission() {
		if id := r.persistedFileID(ctx, filestore.Location{}); id != "" {
			return id, nil
		}
	}
	if ad, _ := r.signals.Advertising(ctx); ad.IsPresent() {
		return ad.OrAbsent(), nil
	}
	return r.Fingerprint(ctx), nil
}

// persistedFileID reads or creates the file ID and returns "" unless it is
// actually persisted.
func (r *AndroidResolver) persistedFileID(ctx context.Context, loc filestore.Location) string {
	res, err := r.files.Generate(ctx, loc)
	if err != nil || !res.Persisted {
		r.log.Warn(ctx, "file identifier unavailable", "error", err)
		return ""
	}
	return res.ID
}

func (r *AndroidResolver) Fingerprint(ctx context.Context) string {
	return r.fingerprint(ctx, func(ctx context.Context) (string, bool) {
		in, err := r.signals.FingerprintInputs(ctx)
		return fingerprint.Android(in), err == nil
	})
}

func (r *AndroidResolver) IsEmulator(ctx context.Context) bool {
	b, err := r.signals.Build(ctx)
	if err != nil {
		return false
	}
	env := emulator.Env{
		Brand:        b.Brand,
		Device:       b.Device,
		Fingerprint:  b.Fingerprint,
		Hardware:     b.Hardware,
		Manufacturer: b.Manufacturer,
		Model:        b.Model,
		Product:      b.Product,
	}
	rule, ok := r.detector.Match(env)
	if ok {
		r.log.Debug(ctx, "emulator rule matched", "rule", rule)
	}
	return ok
}

func (r *AndroidResolver) DeviceInfo(ctx context.Context) identity.DeviceInfo {
	info := r.signals.DeviceInfo(ctx)
	info.Add("isEmulator", strconv.FormatBool(r.IsEmulator(ctx)))
	return info
}

// Android-only operations.

func (r *AndroidResolver) AndroidID(ctx context.Context) string {
	return r.signals.AndroidID(ctx).OrAbsent()
}

func (r *AndroidResolver) AdvertisingID(ctx context.Context) string {
	ad, _ := r.signals.Advertising(ctx)
	return ad.OrAbsent()
}

func (r *AndroidResolver) HasStoragePermission() bool {
	return r.gate.HasStoragePermission()
}

func (r *AndroidResolver) RequestStoragePermission(ctx context.Context) {
	r.gate.RequestStoragePermission(ctx)
}

// FileID returns the stored file ID, or "" when no tier holds one.
func (r *AndroidResolver) FileID(ctx context.Context, loc filestore.Location) (string, error) {
	v, _, err := r.files.Read(ctx, loc)
	return v, err
}

// GenerateFileID returns the stored file ID or creates one. If no tier
// accepts it the returned ID is fresh and unpersisted, and the error says
// why.
func (r *AndroidResolver) GenerateFileID(ctx context.Context, loc filestore.Location) (filestore.Result, error) {
	return r.files.Generate(ctx, loc)
}

func (r *AndroidResolver) HasFileID(ctx context.Context, loc filestore.Location) (bool, error) {
	return r.files.Has(ctx, loc)
}

func (r *AndroidResolver) DeleteFileID(ctx context.Context, loc filestore.Location) (bool, error) {
	return r.files.Delete(ctx, loc)
}
