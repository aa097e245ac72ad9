package rpc

import (
	"context"
	"errors"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/deviceid/internal/auth"
	"github.com/dmitrijs2005/deviceid/internal/channel"
	"github.com/dmitrijs2005/deviceid/internal/common"
	"github.com/dmitrijs2005/deviceid/internal/logging"
	"github.com/dmitrijs2005/deviceid/internal/platform"
	"github.com/dmitrijs2005/deviceid/internal/platform/snapshot"
	"github.com/dmitrijs2005/deviceid/internal/resolver"
	"github.com/dmitrijs2005/deviceid/internal/storage/prefs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

func newDispatcher(t *testing.T) *channel.Dispatcher {
	t.Helper()
	base := t.TempDir()
	sys := snapshot.NewAndroid(snapshot.AndroidDescriptor{
		AndroidID:   "aid",
		Build:       platform.AndroidBuild{Brand: "google", Model: "Pixel 6", SDK: 34},
		AppFilesDir: filepath.Join(base, "app"),
	})
	r, err := resolver.NewAndroid(resolver.Deps{Android: sys, Prefs: prefs.NewStore(prefs.NewMemoryRepository())})
	require.NoError(t, err)
	return channel.NewDispatcher(r, logging.Nop())
}

// startServer serves over an in-memory listener and returns a connected
// client.
func startServer(t *testing.T, secret, token string) *GRPCClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := NewGRPCServer("bufnet", logging.Nop(), newDispatcher(t), secret).NewServer()
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	c, err := NewGRPCClient("passthrough:///bufnet", token,
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestInvoke_RoundTrip(t *testing.T) {
	c := startServer(t, "", "")
	ctx := context.Background()

	v, err := c.Invoke(ctx, channel.MethodBestDeviceIdentifier, nil)
	require.NoError(t, err)
	assert.Equal(t, "aid", v)

	v, err = c.Invoke(ctx, channel.MethodSupportedIdentifiers, nil)
	require.NoError(t, err)
	m, ok := v.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "aid", m["androidId"])
	assert.Equal(t, true, m["limitAdTrackingEnabled"])

	v, err = c.Invoke(ctx, channel.MethodAdvertisingIDForAndroid, nil)
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = c.Invoke(ctx, channel.MethodGenerateFileDeviceID, map[string]any{"fileName": "id.txt"})
	require.NoError(t, err)
	assert.NotEmpty(t, v)
}

func TestInvoke_ErrorCodesMapBack(t *testing.T) {
	c := startServer(t, "", "")
	ctx := context.Background()

	_, err := c.Invoke(ctx, channel.MethodAppleIDFV, nil)
	assert.ErrorIs(t, err, channel.ErrWrongPlatform)

	_, err = c.Invoke(ctx, "nope", nil)
	assert.ErrorIs(t, err, channel.ErrNotImplemented)

	_, err = c.Invoke(ctx, channel.MethodFileDeviceIdentifier, map[string]any{"fileName": 7})
	assert.ErrorIs(t, err, channel.ErrInvalidArgument)

	_, err = c.Invoke(ctx, "", nil)
	assert.ErrorIs(t, err, channel.ErrInvalidArgument)
}

func TestInvoke_TokenRequiredWhenSecretSet(t *testing.T) {
	ctx := context.Background()

	_, err := startServer(t, "s3cret", "").Invoke(ctx, channel.MethodIsEmulator, nil)
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	tok, err := auth.GenerateToken("cli", []byte("s3cret"), time.Minute)
	require.NoError(t, err)
	v, err := startServer(t, "s3cret", tok).Invoke(ctx, channel.MethodIsEmulator, nil)
	require.NoError(t, err)
	assert.Equal(t, false, v)

	expired, err := auth.GenerateToken("cli", []byte("s3cret"), -time.Second)
	require.NoError(t, err)
	_, err = startServer(t, "s3cret", expired).Invoke(ctx, channel.MethodIsEmulator, nil)
	assert.ErrorIs(t, err, common.ErrTokenExpired)
}

func TestAccessTokenInterceptor_PutsClientInContext(t *testing.T) {
	s := NewGRPCServer("", logging.Nop(), newDispatcher(t), "secret")
	tok, err := auth.GenerateToken("cli-7", []byte("secret"), time.Minute)
	require.NoError(t, err)

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(common.AccessTokenHeaderName, tok))
	var got string
	_, err = s.accessTokenInterceptor(ctx, nil, &grpc.UnaryServerInfo{FullMethod: InvokeMethod},
		func(ctx context.Context, _ any) (any, error) {
			got, _ = ClientFromContext(ctx)
			return nil, nil
		})
	require.NoError(t, err)
	assert.Equal(t, "cli-7", got)
}

type debugRecorder struct {
	logging.Logger
	msgs []string
	args [][]any
}

func (r *debugRecorder) Debug(_ context.Context, msg string, args ...any) {
	r.msgs = append(r.msgs, msg)
	r.args = append(r.args, args)
}

func (r *debugRecorder) With(...any) logging.Logger { return r }

func TestServerInvoke_LogsAuthenticatedClient(t *testing.T) {
	rec := &debugRecorder{Logger: logging.Nop()}
	s := NewGRPCServer("", rec, newDispatcher(t), "secret")
	req, err := structpb.NewStruct(map[string]any{"method": channel.MethodIsEmulator})
	require.NoError(t, err)

	_, err = s.Invoke(context.WithValue(context.Background(), clientKey, "cli-7"), req)
	require.NoError(t, err)

	require.Equal(t, []string{"channel call"}, rec.msgs)
	assert.Equal(t, []any{"method", channel.MethodIsEmulator, "client", "cli-7"}, rec.args[0])

	_, err = s.Invoke(context.Background(), req)
	require.NoError(t, err)
	assert.Len(t, rec.msgs, 1, "anonymous calls carry no client")
}

func TestServerInvoke_ArgumentsMustBeObject(t *testing.T) {
	s := NewGRPCServer("", logging.Nop(), newDispatcher(t), "")
	req, err := structpb.NewStruct(map[string]any{"method": channel.MethodIsEmulator, "arguments": "oops"})
	require.NoError(t, err)

	_, err = s.Invoke(context.Background(), req)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	req, err = structpb.NewStruct(map[string]any{"method": channel.MethodIsEmulator, "arguments": nil})
	require.NoError(t, err)
	v, err := s.Invoke(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, v.GetBoolValue())
}

func TestToStatus(t *testing.T) {
	tests := []struct {
		err  error
		want codes.Code
	}{
		{err: channel.ErrWrongPlatform, want: codes.FailedPrecondition},
		{err: channel.ErrNotImplemented, want: codes.Unimplemented},
		{err: channel.ErrInvalidArgument, want: codes.InvalidArgument},
		{err: context.Canceled, want: codes.Canceled},
		{err: errors.New("disk"), want: codes.Internal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, status.Code(toStatus(tt.err)), tt.err.Error())
	}
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	srv := NewGRPCServer("127.0.0.1:0", logging.Nop(), newDispatcher(t), "")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	select {
	case err := <-done:
		t.Fatalf("server exited too early: %v", err)
	case <-time.After(150 * time.Millisecond):
	}

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop within timeout after context cancel")
	}
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	srv := NewGRPCServer("127.0.0.1:99999", logging.Nop(), newDispatcher(t), "")
	require.Error(t, srv.Run(context.Background()))
}
