package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Follow(ctx context.Context, username string) error
	Unfollow(ctx context.Context, username string) error
	Profile(ctx context.Context, username string) error
	Followers(ctx context.Context, username string) error
	Following(ctx context.Context, username string) error
}

// runREPL starts a simple read–eval–print loop for the socialgraph CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Not logged in:
//	  - help                 — show available commands
//	  - register             — create an account
//	  - login                — authenticate
//	  - profile <user>       — show a user's profile
//	  - followers <user>     — list who follows a user
//	  - following <user>     — list who a user follows
//	  - exit | quit          — leave the program
//
//	Logged in, additionally:
//	  - follow <user>        — start following a user
//	  - unfollow <user>      — stop following a user
//	  - logout               — log out
//
// Any errors returned by command handlers are ignored here; handlers should
// report their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("sg> %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: follow <user>, unfollow <user>, profile <user>, followers <user>, following <user>, logout, exit")
			} else {
				printlnFn("Available commands: register, login, profile <user>, followers <user>, following <user>, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "follow":
			if len(args) == 0 {
				printlnFn("Usage: follow <user>")
				continue
			}
			_ = a.Follow(ctx, args[0])

		case "unfollow":
			if len(args) == 0 {
				printlnFn("Usage: unfollow <user>")
				continue
			}
			_ = a.Unfollow(ctx, args[0])

		case "profile":
			if len(args) == 0 {
				printlnFn("Usage: profile <user>")
				continue
			}
			_ = a.Profile(ctx, args[0])

		case "followers":
			if len(args) == 0 {
				printlnFn("Usage: followers <user>")
				continue
			}
			_ = a.Followers(ctx, args[0])

		case "following":
			if len(args) == 0 {
				printlnFn("Usage: following <user>")
				continue
			}
			_ = a.Following(ctx, args[0])

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
