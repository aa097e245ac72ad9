package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/deviceid/internal/flagx"
	"github.com/dmitrijs2005/deviceid/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Fields left
// out of the file keep the value they had before parseJson ran.
type JsonConfig struct {
	Platform                string          `json:"platform"`
	DevicePath              string          `json:"device_path"`
	DataDir                 string          `json:"data_dir"`
	StoreDriver             string          `json:"store_driver"`
	StoreDSN                string          `json:"store_dsn"`
	StoreSecret             string          `json:"store_secret"`
	KeychainService         string          `json:"keychain_service"`
	KeychainKeyAccount      string          `json:"keychain_key_account"`
	KeychainDeviceIDAccount string          `json:"keychain_device_id_account"`
	FolderName              string          `json:"folder_name"`
	FileName                string          `json:"file_name"`
	MediaBucket             string          `json:"media_bucket"`
	MediaRegion             string          `json:"media_region"`
	MediaEndpoint           string          `json:"media_endpoint"`
	MediaAccessKey          string          `json:"media_access_key"`
	MediaSecretKey          string          `json:"media_secret_key"`
	EndpointAddrGRPC        string          `json:"endpoint_addr_grpc"`
	ChannelSecret           string          `json:"channel_secret"`
	TokenValidityDuration   *timex.Duration `json:"token_validity_duration"`
	LogLevel                string          `json:"log_level"`
	LogFormat               string          `json:"log_format"`
	EmulatorRules           []string        `json:"emulator_rules"`
	WipeAppData             *bool           `json:"wipe_app_data"`
}

// parseJson overlays Config with values from the JSON file named by -c or
// -config in args. Without such a flag nothing is loaded. It panics on read
// or unmarshal errors.
func parseJson(cfg *Config, args []string) {
	path := flagx.ConfigPath(args)
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	overlay := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}

	overlay(&cfg.Platform, jc.Platform)
	overlay(&cfg.DevicePath, jc.DevicePath)
	overlay(&cfg.DataDir, jc.DataDir)
	overlay(&cfg.StoreDriver, jc.StoreDriver)
	overlay(&cfg.StoreDSN, jc.StoreDSN)
	overlay(&cfg.StoreSecret, jc.StoreSecret)
	overlay(&cfg.KeychainService, jc.KeychainService)
	overlay(&cfg.KeychainKeyAccount, jc.KeychainKeyAccount)
	overlay(&cfg.KeychainDeviceIDAccount, jc.KeychainDeviceIDAccount)
	overlay(&cfg.FolderName, jc.FolderName)
	overlay(&cfg.FileName, jc.FileName)
	overlay(&cfg.MediaBucket, jc.MediaBucket)
	overlay(&cfg.MediaRegion, jc.MediaRegion)
	overlay(&cfg.MediaEndpoint, jc.MediaEndpoint)
	overlay(&cfg.MediaAccessKey, jc.MediaAccessKey)
	overlay(&cfg.MediaSecretKey, jc.MediaSecretKey)
	overlay(&cfg.EndpointAddrGRPC, jc.EndpointAddrGRPC)
	overlay(&cfg.ChannelSecret, jc.ChannelSecret)
	overlay(&cfg.LogLevel, jc.LogLevel)
	overlay(&cfg.LogFormat, jc.LogFormat)

	if jc.TokenValidityDuration != nil {
		cfg.TokenValidityDuration = jc.TokenValidityDuration.Duration
	}
	if jc.WipeAppData != nil {
		cfg.WipeAppData = *jc.WipeAppData
	}
	if len(jc.EmulatorRules) > 0 {
		cfg.EmulatorRules = jc.EmulatorRules
	}
}
