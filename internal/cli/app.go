package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/deviceid/internal/auth"
	"github.com/dmitrijs2005/deviceid/internal/config"
	"github.com/dmitrijs2005/deviceid/internal/flagx"
	"github.com/dmitrijs2005/deviceid/internal/rpc"
	"golang.org/x/term"
)

// clientName is the subject of tokens issued by the CLI.
const clientName = "deviceid-cli"

var ErrUsage = errors.New("usage error")

// isTerminal is a test seam for term.IsTerminal.
var isTerminal = term.IsTerminal

type invoker interface {
	Invoke(ctx context.Context, method string, args map[string]any) (any, error)
	Close() error
}

type App struct {
	config *config.Config
	client invoker
	in     io.Reader
	out    io.Writer
}

// NewApp dials the configured endpoint. When a channel secret is
// configured, a short-lived token is minted from it.
func NewApp(c *config.Config) (*App, error) {
	var token string
	if c.ChannelSecret != "" {
		t, err := auth.GenerateToken(clientName, []byte(c.ChannelSecret), c.TokenValidityDuration)
		if err != nil {
			return nil, fmt.Errorf("issue channel token: %w", err)
		}
		token = t
	}

	client, err := rpc.NewGRPCClient(c.EndpointAddrGRPC, token)
	if err != nil {
		return nil, err
	}

	return &App{config: c, client: client, in: os.Stdin, out: os.Stdout}, nil
}

type request struct {
	method string
	args   map[string]any
}

var cliFlags = []string{"-m", "-method", "-args"}

func parseRequest(argv []string) (request, error) {
	var r request
	var raw string

	fs := flag.NewFlagSet("cli", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&r.method, "method", "", "method channel operation")
	fs.StringVar(&r.method, "m", "", "method channel operation (short)")
	fs.StringVar(&raw, "args", "", "JSON object with the call arguments")

	if err := fs.Parse(flagx.FilterArgs(argv, cliFlags)); err != nil {
		return r, fmt.Errorf("%w: %w", ErrUsage, err)
	}

	args, err := parseArgs(raw)
	if err != nil {
		return r, err
	}
	r.args = args
	return r, nil
}

func parseArgs(raw string) (map[string]any, error) {
	if raw == "" {
		return nil, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("%w: -args must be a JSON object: %w", ErrUsage, err)
	}
	return args, nil
}

// Run executes the call described by argv and prints its result. Without a
// method it starts the REPL if stdin is a terminal.
func (a *App) Run(ctx context.Context, argv []string) error {
	defer a.client.Close()

	req, err := parseRequest(argv)
	if err != nil {
		return err
	}

	if req.method == "" {
		if f, ok := a.in.(*os.File); ok && isTerminal(int(f.Fd())) {
			runREPL(ctx, a, bufio.NewScanner(a.in), a.out)
			return nil
		}
		return fmt.Errorf("%w: -m is required", ErrUsage)
	}

	return a.call(ctx, req.method, req.args)
}

func (a *App) call(ctx context.Context, method string, args map[string]any) error {
	v, err := a.client.Invoke(ctx, method, args)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	return a.print(v)
}

// print writes v as JSON, indented when stdout is a terminal.
func (a *App) print(v any) error {
	var (
		data []byte
		err  error
	)
	if f, ok := a.out.(*os.File); ok && isTerminal(int(f.Fd())) {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.out, string(data))
	return err
}
