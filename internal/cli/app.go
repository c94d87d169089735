// Package cli implements the registration command line: init, add, auth and list.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"
)

var (
	ErrUsage      = errors.New("usage error")
	ErrUserExists = errors.New("user already exists")
	ErrAuthFailed = errors.New("authentication failed")
)

// readPassword and isTerminal are test seams for golang.org/x/term.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

const usage = `Usage: registration [flags] <command> [args]

Commands:
  init                               create the users table
  add <username> <email> [password]  register a user
  auth <username> [password]         check credentials
  list                               print all users

Flags:
  -d <file>   database file (default users.db)
  -c <file>   JSON config file
  -l <level>  log level (default info)
  -f <format> log format, text or json (default text)
`

// UserStore is the subset of the store used by the CLI.
type UserStore interface {
	Initialize(ctx context.Context) error
	AddUser(ctx context.Context, username, email, password string) (bool, error)
	Authenticate(ctx context.Context, username, password string) (bool, error)
	DisplayUsers(ctx context.Context, w io.Writer) error
}

type App struct {
	store  UserStore
	in     io.Reader
	reader *bufio.Reader
	out    io.Writer
	log    logrus.FieldLogger
}

func NewApp(store UserStore, in io.Reader, out io.Writer, log logrus.FieldLogger) *App {
	return &App{
		store:  store,
		in:     in,
		reader: bufio.NewReader(in),
		out:    out,
		log:    log,
	}
}

// Run executes the command named by args[0].
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return a.usageError("missing command")
	}

	cmd, rest := args[0], args[1:]
	var handler func(context.Context, []string) error
	switch cmd {
	case "init":
		handler = a.initialize
	case "add":
		handler = a.add
	case "auth":
		handler = a.auth
	case "list":
		handler = a.list
	case "help", "-h", "--help":
		fmt.Fprint(a.out, usage)
		return nil
	default:
		return a.usageError(fmt.Sprintf("unknown command %q", cmd))
	}

	if err := a.store.Initialize(ctx); err != nil {
		return err
	}

	a.log.WithField("command", cmd).Debug("running command")
	return handler(ctx, rest)
}

func (a *App) initialize(_ context.Context, args []string) error {
	if len(args) != 0 {
		return a.usageError("init takes no arguments")
	}
	fmt.Fprintln(a.out, "Database initialized.")
	return nil
}

func (a *App) add(ctx context.Context, args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return a.usageError("add needs <username> <email> [password]")
	}
	username, email := args[0], args[1]
	if username == "" {
		return a.usageError("username must not be empty")
	}

	password, err := a.passwordArg(args, 2)
	if err != nil {
		return err
	}

	ok, err := a.store.AddUser(ctx, username, email, password)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintf(a.out, "User %s already exists.\n", username)
		return ErrUserExists
	}

	fmt.Fprintf(a.out, "User %s added.\n", username)
	return nil
}

func (a *App) auth(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return a.usageError("auth needs <username> [password]")
	}

	password, err := a.passwordArg(args, 1)
	if err != nil {
		return err
	}

	ok, err := a.store.Authenticate(ctx, args[0], password)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(a.out, "Authentication failed.")
		return ErrAuthFailed
	}

	fmt.Fprintln(a.out, "Authentication succeeded.")
	return nil
}

func (a *App) list(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return a.usageError("list takes no arguments")
	}
	return a.store.DisplayUsers(ctx, a.out)
}

// passwordArg returns args[i] when present and prompts for it otherwise.
func (a *App) passwordArg(args []string, i int) (string, error) {
	if len(args) > i {
		return args[i], nil
	}
	return a.getPassword()
}

// getPassword reads a password without echo when stdin is a terminal, and
// reads a plain line otherwise.
func (a *App) getPassword() (string, error) {
	fmt.Fprint(a.out, "Enter password: ")

	if f, ok := a.in.(*os.File); ok && isTerminal(int(f.Fd())) {
		pw, err := readPassword(int(f.Fd()))
		fmt.Fprintln(a.out)
		if err != nil {
			return "", errors.Wrap(err, "read password")
		}
		return string(pw), nil
	}

	line, err := a.reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && len(line) > 0) {
		return "", errors.Wrap(err, "read password")
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (a *App) usageError(msg string) error {
	fmt.Fprintf(a.out, "%s\n\n%s", msg, usage)
	return errors.Wrap(ErrUsage, msg)
}

// ExitCode maps a Run error to a process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrUsage):
		return 2
	default:
		return 1
	}
}
