package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/deviceid/internal/flagx"
)

var knownFlags = []string{"-platform", "-device", "-data", "-store-driver", "-store-dsn", "-a",
	"-log-level", "-log-format", "-folder", "-file", "-token-validity", "-wipe-app-data"}

// parseFlags populates Config fields from the flags it knows about. Other
// flags in args are filtered out with flagx.FilterArgs so binaries can add
// their own. It panics on malformed values.
func parseFlags(cfg *Config, args []string) {
	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.Platform, "platform", cfg.Platform, "target platform: android or ios")
	fs.StringVar(&cfg.DevicePath, "device", cfg.DevicePath, "path to the JSON device descriptor")
	fs.StringVar(&cfg.DataDir, "data", cfg.DataDir, "data directory")
	fs.StringVar(&cfg.StoreDriver, "store-driver", cfg.StoreDriver, "database driver: sqlite or pgx")
	fs.StringVar(&cfg.StoreDSN, "store-dsn", cfg.StoreDSN, "database DSN")
	fs.StringVar(&cfg.EndpointAddrGRPC, "a", cfg.EndpointAddrGRPC, "gRPC address")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format: text or json")
	fs.StringVar(&cfg.FolderName, "folder", cfg.FolderName, "default folder for the file-backed identifier")
	fs.StringVar(&cfg.FileName, "file", cfg.FileName, "default file name for the file-backed identifier")
	fs.BoolVar(&cfg.WipeAppData, "wipe-app-data", cfg.WipeAppData, "clear app-private preferences at startup")
	fs.DurationVar(&cfg.TokenValidityDuration, "token-validity", cfg.TokenValidityDuration, "validity of issued channel tokens")

	if err := fs.Parse(flagx.FilterArgs(args, knownFlags)); err != nil {
		panic(err)
	}
}
