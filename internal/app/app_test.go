package app

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/deviceid/internal/channel"
	"github.com/dmitrijs2005/deviceid/internal/config"
	"github.com/dmitrijs2005/deviceid/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDescriptor(t *testing.T, v map[string]any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "device.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func testConfig(t *testing.T, platform, descriptor string) *config.Config {
	t.Helper()
	var c config.Config
	c.LoadDefaults()
	c.Platform = platform
	c.DevicePath = descriptor
	c.DataDir = t.TempDir()
	c.StoreDSN = ":memory:"
	c.StoreSecret = "test-secret"
	c.EndpointAddrGRPC = "127.0.0.1:0"
	return &c
}

func androidDescriptor(t *testing.T) string {
	return writeDescriptor(t, map[string]any{
		"platform": "android",
		"android": map[string]any{
			"build":                  map[string]any{"sdk": 34, "model": "Pixel 8", "brand": "google"},
			"externalStorageManager": true,
			"appFilesDir":            "files",
			"externalStorageRoot":    "sdcard",
		},
	})
}

func TestNewApp_AndroidWiresFileStoreDefaults(t *testing.T) {
	ctx := context.Background()
	c := testConfig(t, "android", androidDescriptor(t))
	c.FolderName = "acme"
	c.FileName = "device.id"

	a, err := newApp(ctx, c, logging.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	id, err := a.dispatcher.Invoke(ctx, channel.MethodGenerateFileDeviceID, nil)
	require.NoError(t, err)
	require.NotNil(t, id)

	raw, err := os.ReadFile(filepath.Join(c.DataDir, "files", "acme", "device.id"))
	require.NoError(t, err)
	assert.Equal(t, id, string(raw))

	best, err := a.dispatcher.Invoke(ctx, channel.MethodBestDeviceIdentifier, nil)
	require.NoError(t, err)
	assert.Equal(t, id, best)
}

func TestNewApp_IOSUsesSealedKeychain(t *testing.T) {
	ctx := context.Background()
	path := writeDescriptor(t, map[string]any{
		"platform": "ios",
		"ios": map[string]any{
			"vendorId": "0B3A55C2-6E4B-4B8F-9C61-2F1A1F0C6C11",
			"device":   map[string]any{"machine": "iPhone15,2", "systemVersion": "17.4"},
		},
	})
	c := testConfig(t, "ios", path)

	a, err := newApp(ctx, c, logging.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	has, err := a.dispatcher.Invoke(ctx, channel.MethodHasKeychainUUID, nil)
	require.NoError(t, err)
	assert.Equal(t, false, has)

	id, err := a.dispatcher.Invoke(ctx, channel.MethodGenerateKeychainUUID, nil)
	require.NoError(t, err)
	require.NotNil(t, id)

	again, err := a.dispatcher.Invoke(ctx, channel.MethodKeychainUUID, nil)
	require.NoError(t, err)
	assert.Equal(t, id, again)
}

func TestNewApp_WipeAppDataKeepsKeychain(t *testing.T) {
	ctx := context.Background()
	path := writeDescriptor(t, map[string]any{
		"platform": "ios",
		"ios": map[string]any{
			"vendorId": "0B3A55C2-6E4B-4B8F-9C61-2F1A1F0C6C11",
			"device":   map[string]any{"machine": "iPhone15,2", "systemVersion": "17.4"},
		},
	})
	c := testConfig(t, "ios", path)
	c.StoreDSN = filepath.Join(c.DataDir, "deviceid.db")

	first, err := newApp(ctx, c, logging.Nop())
	require.NoError(t, err)
	keychainID, err := first.dispatcher.Invoke(ctx, channel.MethodGenerateKeychainUUID, nil)
	require.NoError(t, err)
	before, err := first.dispatcher.Invoke(ctx, channel.MethodSupportedIdentifiers, nil)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	c.WipeAppData = true
	second, err := newApp(ctx, c, logging.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.Close() })

	after, err := second.dispatcher.Invoke(ctx, channel.MethodSupportedIdentifiers, nil)
	require.NoError(t, err)

	assert.NotEqual(t, before.(map[string]any)["installId"], after.(map[string]any)["installId"])
	assert.Equal(t, keychainID, after.(map[string]any)["keychainId"])
}

func TestNewApp_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("platform mismatch", func(t *testing.T) {
		c := testConfig(t, "ios", androidDescriptor(t))
		_, err := newApp(ctx, c, logging.Nop())
		assert.ErrorContains(t, err, "configured platform is ios")
	})

	t.Run("unknown platform", func(t *testing.T) {
		c := testConfig(t, "windows", androidDescriptor(t))
		_, err := newApp(ctx, c, logging.Nop())
		assert.Error(t, err)
	})

	t.Run("missing descriptor", func(t *testing.T) {
		c := testConfig(t, "android", filepath.Join(t.TempDir(), "nope.json"))
		_, err := newApp(ctx, c, logging.Nop())
		assert.ErrorContains(t, err, "read device descriptor")
	})

	t.Run("bad emulator rule", func(t *testing.T) {
		c := testConfig(t, "android", androidDescriptor(t))
		c.EmulatorRules = []string{"model =="}
		_, err := newApp(ctx, c, logging.Nop())
		assert.ErrorContains(t, err, "compile emulator rule")
	})
}

func TestRun_StopsOnCancelAndClosesDB(t *testing.T) {
	c := testConfig(t, "android", androidDescriptor(t))
	a, err := newApp(context.Background(), c, logging.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		a.Run(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Error(t, a.db.Conn.Ping())
}
