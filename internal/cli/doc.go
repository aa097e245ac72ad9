// Package cli implements the deviceid command-line client. It calls one
// method channel operation per invocation, or runs a small REPL when no
// method is given and stdin is a terminal.
package cli
