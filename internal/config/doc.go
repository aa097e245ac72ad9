// Package config loads runtime configuration for the identifier engine
// binaries.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Environment variables prefixed DEVICEID_, optionally from a .env file
//     in the working directory (see parseEnv).
//  3. Optional JSON file selected via -c or -config (see parseJson).
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-platform string      android or ios
//	-device string        path to the JSON device descriptor
//	-data string          data directory (database, app-private files)
//	-store-driver string  sqlite or pgx
//	-store-dsn string     database DSN (defaults to <data>/deviceid.db for sqlite)
//	-a string             gRPC listen / dial address
//	-log-level string     debug, info, warn, error
//
// # JSON schema
//
// Durations use timex.Duration, so "15m" and integer nanoseconds both work:
//
//	{
//	  "platform": "ios",
//	  "device_path": "device.json",
//	  "keychain_service": "com.example.app",
//	  "token_validity_duration": "15m"
//	}
package config
