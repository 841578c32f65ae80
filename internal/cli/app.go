// Package cli implements coopctl, the terminal client. It drives the same
// session manager, route policy and cooperative board as the web UI, with
// the token kept in a file instead of a cookie.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dalemusser/coophub/internal/app/system/guard"
	"github.com/dalemusser/coophub/internal/app/system/session"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// Gate errors.
var (
	ErrNotSignedIn = errors.New("not signed in; run 'coopctl login <email>' first")
	ErrForbidden   = errors.New("your role is not allowed to do that")
)

// App holds what every command needs. One App, and so one session
// manager, serves the whole process.
type App struct {
	Session *session.Manager
	Policy  *guard.Policy
	Log     *zap.Logger

	In  io.Reader // password source when it is not a terminal
	Out io.Writer // command results
	Err io.Writer // prompts and help; notifications are wired separately

	stdin *bufio.Reader
}

// Run executes one coopctl invocation.
func (a *App) Run(ctx context.Context, args []string) error {
	return a.Root().Execute(ctx, args, a.Err)
}

// Root builds the command tree.
func (a *App) Root() *Command {
	return &Command{
		Name:    "coopctl",
		Summary: "Cooperative registration from the terminal",
		Subcommands: []*Command{
			a.loginCommand(),
			a.registerCommand(),
			a.logoutCommand(),
			a.whoamiCommand(),
			a.coopsCommand(),
		},
	}
}

// gate applies the route policy the web guard uses. An empty action checks
// access to the screen itself.
func (a *App) gate(screen, action string) error {
	s, ok := a.Policy.Screen(screen)
	if !ok {
		return fmt.Errorf("unknown screen %q", screen)
	}
	snap := a.Session.Snapshot()
	switch {
	case s.Open:
		return nil
	case s.Public:
		if snap.IsAuthenticated() {
			return fmt.Errorf("already signed in as %s; run 'coopctl logout' first", snap.User.Email)
		}
		return nil
	case !snap.IsAuthenticated():
		return ErrNotSignedIn
	case !a.Policy.Allows(snap.Role(), screen, action):
		return ErrForbidden
	}
	return nil
}

// readSecret reads a password from file, the terminal (echo off) or a line
// of In, in that order of preference.
func (a *App) readSecret(prompt, file string) (string, error) {
	if file != "" && file != "-" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", file, err)
		}
		s := strings.TrimRight(string(data), "\r\n")
		if s == "" {
			return "", fmt.Errorf("file %s is empty", file)
		}
		return s, nil
	}

	if f, ok := a.In.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(a.Err, prompt)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(a.Err)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}

	if a.stdin == nil {
		a.stdin = bufio.NewReader(a.In)
	}
	line, err := a.stdin.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password from stdin: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
