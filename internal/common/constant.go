package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the channel
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// Default keychain namespace. Callers override it through
// setKeychainServiceAndAccount before any other keychain call.
const (
	DefaultKeychainService         = "com.deviceid.keychain"
	DefaultKeychainKeyAccount      = "keychain_uuid"
	DefaultKeychainDeviceIDAccount = "device_id"
)

// Default location of the file-backed identifier, relative to the storage
// root chosen by the tiered file store.
const (
	DefaultFolderName = ".deviceid"
	DefaultFileName   = "device_id.txt"
)

// ZeroAdvertisingID is returned by both platforms when ad tracking is
// restricted. It is never a usable identifier.
const ZeroAdvertisingID = "00000000-0000-0000-0000-000000000000"
