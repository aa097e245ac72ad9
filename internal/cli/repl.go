package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

type caller interface {
	call(ctx context.Context, method string, args map[string]any) error
}

// runREPL reads "method [json-args]" lines and calls each method. It exits
// on EOF, "exit" or "quit". Call errors are printed and the loop goes on.
func runREPL(ctx context.Context, c caller, scanner *bufio.Scanner, w io.Writer) {
	for {
		fmt.Fprint(w, "deviceid> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		method, raw, _ := strings.Cut(line, " ")
		switch method {
		case "exit", "quit":
			return
		case "help":
			fmt.Fprintln(w, "Usage: <method> [json-args], e.g. getFileDeviceIdentifier {\"fileName\":\"id\"}")
			continue
		}

		args, err := parseArgs(strings.TrimSpace(raw))
		if err == nil {
			err = c.call(ctx, method, args)
		}
		if err != nil {
			fmt.Fprintln(w, "error:", err)
		}
		if ctx.Err() != nil {
			return
		}
	}
}
