package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "DEVICEID_"

// parseEnv overlays Config with DEVICEID_* environment variables. A .env
// file in the working directory is loaded first when present; variables
// already set in the process environment win over the file.
func parseEnv(cfg *Config) {
	_ = godotenv.Load()

	setString := func(name string, dst *string) {
		if v, ok := os.LookupEnv(envPrefix + name); ok && v != "" {
			*dst = v
		}
	}

	setString("PLATFORM", &cfg.Platform)
	setString("DEVICE_PATH", &cfg.DevicePath)
	setString("DATA_DIR", &cfg.DataDir)
	setString("STORE_DRIVER", &cfg.StoreDriver)
	setString("STORE_DSN", &cfg.StoreDSN)
	setString("STORE_SECRET", &cfg.StoreSecret)
	setString("KEYCHAIN_SERVICE", &cfg.KeychainService)
	setString("KEYCHAIN_KEY_ACCOUNT", &cfg.KeychainKeyAccount)
	setString("KEYCHAIN_DEVICE_ID_ACCOUNT", &cfg.KeychainDeviceIDAccount)
	setString("FOLDER_NAME", &cfg.FolderName)
	setString("FILE_NAME", &cfg.FileName)
	setString("MEDIA_BUCKET", &cfg.MediaBucket)
	setString("MEDIA_REGION", &cfg.MediaRegion)
	setString("MEDIA_ENDPOINT", &cfg.MediaEndpoint)
	setString("MEDIA_ACCESS_KEY", &cfg.MediaAccessKey)
	setString("MEDIA_SECRET_KEY", &cfg.MediaSecretKey)
	setString("ENDPOINT_ADDR_GRPC", &cfg.EndpointAddrGRPC)
	setString("CHANNEL_SECRET", &cfg.ChannelSecret)
	setString("LOG_LEVEL", &cfg.LogLevel)
	setString("LOG_FORMAT", &cfg.LogFormat)

	if v := os.Getenv(envPrefix + "WIPE_APP_DATA"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			panic(fmt.Errorf("%sWIPE_APP_DATA: %w", envPrefix, err))
		}
		cfg.WipeAppData = b
	}

	if v := os.Getenv(envPrefix + "TOKEN_VALIDITY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			panic(fmt.Errorf("%sTOKEN_VALIDITY: %w", envPrefix, err))
		}
		cfg.TokenValidityDuration = d
	}

	if v := os.Getenv(envPrefix + "EMULATOR_RULES"); v != "" {
		cfg.EmulatorRules = nil
		for _, rule := range strings.Split(v, ";") {
			if rule = strings.TrimSpace(rule); rule != "" {
				cfg.EmulatorRules = append(cfg.EmulatorRules, rule)
			}
		}
	}
}
