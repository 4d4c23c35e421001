package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

const helpText = "Available commands: show, activate, deactivate, repair, resend, reset-password, help, exit"

// execIface is the command surface the REPL dispatches to.
type execIface interface {
	Show(ctx context.Context, args []string) error
	Activate(ctx context.Context, args []string) error
	Deactivate(ctx context.Context, args []string) error
	Repair(ctx context.Context, args []string) error
	Resend(ctx context.Context, args []string) error
	ResetPassword(ctx context.Context, args []string) error
}

var errUnknownCommand = errors.New("unknown command")

// dispatch runs one command. quit reports whether the caller should stop.
func dispatch(ctx context.Context, a execIface, cmd string, args []string) (quit bool, err error) {
	switch cmd {
	case "help":
		printlnFn(helpText)
	case "show":
		err = a.Show(ctx, args)
	case "activate":
		err = a.Activate(ctx, args)
	case "deactivate":
		err = a.Deactivate(ctx, args)
	case "repair":
		err = a.Repair(ctx, args)
	case "resend":
		err = a.Resend(ctx, args)
	case "reset-password":
		err = a.ResetPassword(ctx, args)
	case "exit", "quit":
		printlnFn("Bye!")
		return true, nil
	default:
		err = fmt.Errorf("%w: %s", errUnknownCommand, cmd)
	}
	return false, err
}

// runREPL reads commands line by line and dispatches them until EOF, "exit"
// or "quit". Command errors are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, reader *bufio.Reader) {
	for {
		printlnFn("accountctl> ")
		line, err := reader.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		quit, cmdErr := dispatch(ctx, a, parts[0], parts[1:])
		if cmdErr != nil {
			printlnFn("Error:", describe(cmdErr))
		}
		if quit || ctx.Err() != nil {
			return
		}
	}
}
