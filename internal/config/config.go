package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/deviceid/internal/common"
)

// Config holds runtime settings for the identifier engine.
//
// Storage: StoreDriver selects the database/sql driver behind the keychain
// and preferences stores ("sqlite" or "pgx"); StoreSecret is the passphrase
// the at-rest encryption key is derived from.
//
// Media store: the fourth file-store tier is enabled only when MediaBucket
// is set; the remaining Media* fields address an S3-compatible endpoint.
//
// Channel: ChannelSecret enables JWT checks on the gRPC carrier when
// non-empty; TokenValidityDuration bounds tokens issued by the CLI.
type Config struct {
	Platform   string
	DevicePath string
	DataDir    string

	StoreDriver string
	StoreDSN    string
	StoreSecret string

	KeychainService         string
	KeychainKeyAccount      string
	KeychainDeviceIDAccount string

	FolderName string
	FileName   string

	MediaBucket    string
	MediaRegion    string
	MediaEndpoint  string
	MediaAccessKey string
	MediaSecretKey string

	EndpointAddrGRPC      string
	ChannelSecret         string
	TokenValidityDuration time.Duration

	LogLevel  string
	LogFormat string

	// WipeAppData clears app-private preferences at startup, as after a
	// reinstall. Keychain entries are kept.
	WipeAppData bool

	EmulatorRules []string
}

// LoadDefaults populates c with development defaults.
// NOTE: StoreSecret must be overridden outside of development.
func (c *Config) LoadDefaults() {
	c.Platform = "android"
	c.DevicePath = "device.json"
	c.DataDir = "data"
	c.StoreDriver = "sqlite"
	c.StoreDSN = ""
	c.StoreSecret = "change-me"
	c.KeychainService = common.DefaultKeychainService
	c.KeychainKeyAccount = common.DefaultKeychainKeyAccount
	c.KeychainDeviceIDAccount = common.DefaultKeychainDeviceIDAccount
	c.FolderName = common.DefaultFolderName
	c.FileName = common.DefaultFileName
	c.MediaRegion = "us-east-1"
	c.EndpointAddrGRPC = "127.0.0.1:50051"
	c.TokenValidityDuration = 15 * time.Minute
	c.LogLevel = "info"
	c.LogFormat = "text"
}

// DSN returns the effective database DSN. For sqlite an empty StoreDSN
// means a file inside DataDir.
func (c *Config) DSN() string {
	if c.StoreDSN != "" || c.StoreDriver != "sqlite" {
		return c.StoreDSN
	}
	return filepath.Join(c.DataDir, "deviceid.db")
}

// LoadConfig constructs a Config from defaults, the environment, an optional
// JSON file and the process command line. Later sources take precedence.
// It panics on unreadable or malformed input.
func LoadConfig() *Config {
	return load(os.Args[1:])
}

func load(args []string) *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg, args)
	parseFlags(cfg, args)
	return cfg
}
