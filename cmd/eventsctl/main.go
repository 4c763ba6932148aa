// Command eventsctl is a terminal front end for the events API.
//
// Usage:
//
//	eventsctl <command> [flags]
//
// Run "eventsctl help" for the command list. Configuration comes from the
// environment, an optional .env file and CONFIG_FILE.
package main

import (
	"bufio"
	"context"
	stderrors "errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"events-client/internal/app"
	"events-client/internal/common/errors"
	"events-client/internal/session"
)

// Exit codes
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
	exitSession = 3
)

var errNotSignedIn = stderrors.New("not signed in, run 'eventsctl login' first")

type command struct {
	name    string
	summary string
	run     func(c *cli, ctx context.Context, args []string) error
}

var commands = []command{
	{"login", "Sign in and store the session", (*cli).login},
	{"logout", "Sign out and forget the stored session", (*cli).logout},
	{"whoami", "Show the signed-in user and a short dashboard", (*cli).whoami},
	{"events", "List events, paginated and filtered", (*cli).events},
	{"mine", "List the events you organise", (*cli).mine},
	{"reservations", "List your reservations", (*cli).reservations},
	{"calendar", "Show a month grid with event days marked", (*cli).calendar},
	{"export-ics", "Write a month of events as an iCalendar file", (*cli).exportICS},
	{"watch", "Re-fetch an event list on a cron schedule", (*cli).watch},
	{"notifications", "Show your notifications", (*cli).notifications},
}

func lookup(name string) (command, bool) {
	for _, cmd := range commands {
		if cmd.name == name {
			return cmd, true
		}
	}
	return command{}, false
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		usage(os.Stderr)
		return exitUsage
	}
	switch args[0] {
	case "help", "-h", "-help", "--help":
		usage(os.Stdout)
		return exitOK
	}

	cmd, ok := lookup(args[0])
	if !ok {
		fmt.Fprintf(os.Stderr, "eventsctl: unknown command %q\n\n", args[0])
		usage(os.Stderr)
		return exitUsage
	}

	err := app.Run(func(ctx context.Context, a *app.App) error {
		c := newCLI(a, os.Stdout, os.Stdin)
		return cmd.run(c, ctx, args[1:])
	})
	return report(os.Stderr, err)
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: eventsctl <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %-14s %s\n", cmd.name, cmd.summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'eventsctl <command> -h' for the flags of a command.")
}

// report prints err for a person and returns the exit code
func report(w io.Writer, err error) int {
	switch {
	case err == nil:
		return exitOK
	case stderrors.Is(err, flag.ErrHelp):
		return exitOK
	case stderrors.Is(err, errUsage):
		return exitUsage
	case errors.IsCanceled(err):
		return exitFailure
	case stderrors.Is(err, errNotSignedIn):
		fmt.Fprintln(w, "eventsctl:", err)
		return exitSession
	case errors.IsType(err, errors.ErrTypeSessionExpired):
		fmt.Fprintln(w, "eventsctl:", errors.MsgSessionExpired)
		return exitSession
	case errors.IsType(err, errors.ErrTypeValidation):
		fmt.Fprintln(w, "eventsctl:", errors.UserMessage(err))
		return exitUsage
	}
	if _, ok := errors.As(err); ok {
		fmt.Fprintln(w, "eventsctl:", errors.UserMessage(err))
	} else {
		fmt.Fprintln(w, "eventsctl:", err)
	}
	return exitFailure
}

// cli carries what every command needs
type cli struct {
	app *app.App
	out io.Writer
	err io.Writer
	in  *bufio.Reader
}

func newCLI(a *app.App, out io.Writer, in io.Reader) *cli {
	return &cli{app: a, out: out, err: os.Stderr, in: bufio.NewReader(in)}
}

// errUsage marks a flag error the FlagSet has already printed
var errUsage = stderrors.New("usage error")

func (c *cli) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet("eventsctl "+name, flag.ContinueOnError)
	fs.SetOutput(c.err)
	return fs
}

func (c *cli) parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if stderrors.Is(err, flag.ErrHelp) {
			return err
		}
		return errUsage
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(c.err, "unexpected argument %q\n", fs.Arg(0))
		fs.Usage()
		return errUsage
	}
	return nil
}

// readLine prompts on the error stream and reads one line of input
func (c *cli) readLine(prompt string) (string, error) {
	fmt.Fprint(c.err, prompt)
	line, err := c.in.ReadString('\n')
	if err != nil && !(stderrors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// requireSession restores the stored session and fails unless it is signed in
func (c *cli) requireSession(ctx context.Context) error {
	if err := c.app.Session.Init(ctx); err != nil {
		return err
	}
	if c.app.Session.State() == session.StateAuthenticated {
		return nil
	}
	if c.app.Session.Message() == errors.MsgSessionExpired {
		return errors.SessionExpiredError(nil)
	}
	return errNotSignedIn
}
