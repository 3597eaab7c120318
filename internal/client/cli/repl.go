package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
)

// access says in which state a command is offered.
type access int

const (
	anonymous access = iota // signed out only
	signedIn                // signed in, locked or not
	unlocked                // signed in with an open session
	always
)

type command struct {
	name    string
	aliases []string
	usage   string
	access  access
	run     func(ctx context.Context, args []string) error
}

// execIface is the surface the REPL drives. App satisfies it; tests use a
// stub.
type execIface interface {
	isLoggedIn() bool
	isUnlocked() bool
	checkIdle(ctx context.Context)
	commands() []command
	reportError(err error)
}

var errUsage = errors.New("usage")

// runREPL reads commands line by line from reader until EOF, "exit" or
// "quit". Before each command the idle check runs, which may lock the user.
// Handler errors are reported and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("vk %s> ", statusFn()))

		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || strings.TrimSpace(line) == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		name, args := parts[0], parts[1:]

		if name == "exit" || name == "quit" {
			printlnFn("Bye!")
			return
		}

		a.checkIdle(ctx)

		if name == "help" {
			printlnFn(helpText(a))
			continue
		}

		cmd, ok := lookup(a.commands(), name)
		if !ok {
			printlnFn("Unknown command:", name)
			continue
		}
		if !allowed(a, cmd.access) {
			printlnFn(deniedText(a, cmd))
			continue
		}
		if err := cmd.run(ctx, args); err != nil {
			if errors.Is(err, errUsage) {
				printlnFn("Usage:", cmd.usage)
				continue
			}
			a.reportError(err)
		}
	}
}

// printlnFn is a test seam for REPL output.
var printlnFn = fmt.Println

func lookup(cmds []command, name string) (command, bool) {
	for _, c := range cmds {
		if c.name == name {
			return c, true
		}
		for _, al := range c.aliases {
			if al == name {
				return c, true
			}
		}
	}
	return command{}, false
}

func allowed(a execIface, acc access) bool {
	switch acc {
	case anonymous:
		return !a.isLoggedIn()
	case signedIn:
		return a.isLoggedIn()
	case unlocked:
		return a.isLoggedIn() && a.isUnlocked()
	default:
		return true
	}
}

func deniedText(a execIface, c command) string {
	switch {
	case c.access == anonymous:
		return "Already signed in; 'logout' first."
	case !a.isLoggedIn():
		return "Please 'login' or 'register' first."
	default:
		return "Vaults are locked; 'unlock' first."
	}
}

func helpText(a execIface) string {
	var names []string
	for _, c := range a.commands() {
		if allowed(a, c.access) {
			names = append(names, c.name)
		}
	}
	sort.Strings(names)
	names = append(names, "help", "exit")
	return "Available commands: " + strings.Join(names, ", ")
}
