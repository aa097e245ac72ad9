package identity

// Record is the full set of identifiers resolved for one device. An empty
// string means the identifier is absent.
type Record struct {
	PrimaryID     string
	AdvertisingID string
	VendorID      string
	InstallID     string
	Fingerprint   string
	FileBackedID  string
	KeychainID    string
	BuildSerial   string
	CombinedID    string

	LimitAdTrackingEnabled bool

	DeviceInfo DeviceInfo
}

// Map renders the record the way it crosses the method channel: only
// present identifiers appear, the primary ID is also exposed under its
// platform-specific alias, and deviceInfo is a nested map.
func (r Record) Map(p Platform) map[string]any {
	m := make(map[string]any, 12)
	put := func(k, v string) {
		if v != "" {
			m[k] = v
		}
	}

	put("primaryId", r.PrimaryID)
	switch p {
	case Android:
		put("androidId", r.PrimaryID)
		put("fileBackedId", r.FileBackedID)
		put("buildSerial", r.BuildSerial)
	case IOS:
		put("deviceId", r.PrimaryID)
		put("keychainId", r.KeychainID)
		put("vendorId", r.VendorID)
	}
	put("advertisingId", r.AdvertisingID)
	put("installId", r.InstallID)
	put("fingerprint", r.Fingerprint)
	put("combinedId", r.CombinedID)

	m["limitAdTrackingEnabled"] = r.LimitAdTrackingEnabled
	if r.DeviceInfo != nil {
		info := make(map[string]any, len(r.DeviceInfo))
		for k, v := range r.DeviceInfo.Map() {
			info[k] = v
		}
		m["deviceInfo"] = info
	}
	return m
}
