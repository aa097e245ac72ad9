package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/deviceid/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	method string
	args   map[string]any
	result any
	err    error
	closed bool
}

func (f *fakeClient) Invoke(_ context.Context, method string, args map[string]any) (any, error) {
	f.method, f.args = method, args
	return f.result, f.err
}

func (f *fakeClient) Close() error {
	f.closed = true
	return nil
}

func newTestApp(f *fakeClient) (*App, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return &App{config: &config.Config{}, client: f, in: strings.NewReader(""), out: out}, out
}

func TestRun_CallsMethodWithArgs(t *testing.T) {
	f := &fakeClient{result: map[string]any{"androidId": "a1"}}
	a, out := newTestApp(f)

	err := a.Run(context.Background(), []string{"-platform", "android", "-m", "getSupportedIdentifiers",
		"-args", `{"fileName":"id.txt"}`})
	require.NoError(t, err)

	assert.Equal(t, "getSupportedIdentifiers", f.method)
	assert.Equal(t, map[string]any{"fileName": "id.txt"}, f.args)
	assert.Equal(t, "{\"androidId\":\"a1\"}\n", out.String())
	assert.True(t, f.closed)
}

func TestRun_NullResult(t *testing.T) {
	a, out := newTestApp(&fakeClient{})
	require.NoError(t, a.Run(context.Background(), []string{"--method=getKeychainUUID"}))
	assert.Equal(t, "null\n", out.String())
}

func TestRun_Errors(t *testing.T) {
	t.Run("missing method without terminal", func(t *testing.T) {
		a, _ := newTestApp(&fakeClient{})
		assert.ErrorIs(t, a.Run(context.Background(), nil), ErrUsage)
	})

	t.Run("args not an object", func(t *testing.T) {
		a, _ := newTestApp(&fakeClient{})
		err := a.Run(context.Background(), []string{"-m", "isEmulator", "-args", "[1]"})
		assert.ErrorIs(t, err, ErrUsage)
	})

	t.Run("call failure is wrapped", func(t *testing.T) {
		boom := errors.New("boom")
		a, _ := newTestApp(&fakeClient{err: boom})
		err := a.Run(context.Background(), []string{"-m", "isEmulator"})
		assert.ErrorIs(t, err, boom)
		assert.ErrorContains(t, err, "isEmulator")
	})
}

func TestNewApp_IssuesTokenWhenSecretSet(t *testing.T) {
	c := &config.Config{EndpointAddrGRPC: "127.0.0.1:1", ChannelSecret: "s3cret", TokenValidityDuration: time.Minute}
	a, err := NewApp(c)
	require.NoError(t, err)
	assert.NoError(t, a.client.Close())
}
