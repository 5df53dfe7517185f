package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/vitalmed/staff-registry/pkg/registry"
)

type commandFn func(cc *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

type commandContext struct {
	ctx     context.Context
	manager *registry.Manager
	client  *registry.Client
	out     io.Writer
}

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}
	name := os.Args[1]
	cmd, ok := commands()[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", name)
		printUsage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cc, err := newCommandContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	if err := cmd.run(cc, os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func commands() map[string]command {
	return map[string]command{
		"login": {
			name:        "login",
			description: "Sign in and persist the session token",
			run:         runLogin,
		},
		"logout": {
			name:        "logout",
			description: "End the session and erase the stored token",
			run:         runLogout,
		},
		"whoami": {
			name:        "whoami",
			description: "Show the account behind the current session",
			run:         runWhoami,
		},
		"register": {
			name:        "register",
			description: "Create an account and sign in",
			run:         runRegister,
		},
		"status": {
			name:        "status",
			description: "Show local and server-side session state",
			run:         runStatus,
		},
		"users": {
			name:        "users",
			description: "Administer accounts: list, activate, deactivate",
			run:         runUsers,
		},
		"doctors": {
			name:        "doctors",
			description: "Manage the doctor directory: list, get, create, update, delete, counts",
			run:         runDoctors,
		},
	}
}

func printUsage() {
	fmt.Fprint(os.Stdout, "Usage: registryctl <command> [flags]\n\n")
	fmt.Fprintln(os.Stdout, "Available commands:")
	names := make([]string, 0, len(commands()))
	for name := range commands() {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(os.Stdout, "  %-12s %s\n", name, commands()[name].description)
	}
	fmt.Fprintln(os.Stdout, "\nEnvironment: REGISTRY_URL (default http://localhost:8080), REGISTRY_TOKEN_FILE")
}

func newCommandContext(ctx context.Context) (*commandContext, error) {
	baseURL := os.Getenv("REGISTRY_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	storePath := os.Getenv("REGISTRY_TOKEN_FILE")
	if storePath == "" {
		var err error
		storePath, err = registry.DefaultStorePath()
		if err != nil {
			return nil, err
		}
	}
	store := registry.NewFileStore(storePath)

	log := zerolog.New(os.Stderr).Level(zerolog.WarnLevel).With().Timestamp().Logger()

	client, err := registry.NewClient(registry.Config{
		BaseURL: baseURL,
		Store:   store,
		Logger:  &log,
		OnUnauthorized: func() {
			fmt.Fprintln(os.Stderr, "session expired, sign in again with 'registryctl login'")
		},
	})
	if err != nil {
		return nil, err
	}

	manager, err := registry.NewManager(registry.Options{Verifier: client, Store: store, Logger: &log})
	if err != nil {
		return nil, err
	}

	// Every command starts from whatever session the previous run left
	// behind. A stale or missing token simply means signed out.
	if err := manager.Restore(ctx); err != nil {
		return nil, err
	}

	return &commandContext{ctx: ctx, manager: manager, client: client, out: os.Stdout}, nil
}

func runLogin(cc *commandContext, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	email := fs.String("email", "", "account email (required)")
	password := fs.String("password", "", "account password (prompted when omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		fs.Usage()
		return errors.New("-email is required")
	}

	pw := *password
	if pw == "" {
		var err error
		pw, err = promptLine("password: ")
		if err != nil {
			return err
		}
	}

	if err := cc.manager.Login(cc.ctx, *email, pw); err != nil {
		return sessionError(cc, err)
	}
	s := cc.manager.Current()
	fmt.Fprintf(cc.out, "signed in as %s (%s)\n", s.User.Email, s.User.Role)
	return nil
}

func runLogout(cc *commandContext, _ []string) error {
	cc.manager.Logout()
	fmt.Fprintln(cc.out, "signed out")
	return nil
}

func runWhoami(cc *commandContext, _ []string) error {
	s := cc.manager.Current()
	if !s.Authenticated() {
		return errors.New("not signed in")
	}

	if err := cc.manager.RefreshUser(cc.ctx); err != nil {
		fmt.Fprintln(os.Stderr, "warning: could not refresh the account, showing the stored record")
	}
	s = cc.manager.Current()
	if !s.Authenticated() {
		return errors.New("not signed in")
	}
	return printUser(cc.out, s.User)
}

func runRegister(cc *commandContext, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	name := fs.String("name", "", "display name (required)")
	email := fs.String("email", "", "account email (required)")
	password := fs.String("password", "", "account password (prompted when omitted)")
	role := fs.String("role", "user", "account role: admin, doctor, nurse, user")
	license := fs.String("license", "", "license number (doctor role)")
	specialty := fs.String("specialty", "", "specialty (doctor role)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" || *email == "" {
		fs.Usage()
		return errors.New("-name and -email are required")
	}

	pw := *password
	if pw == "" {
		var err error
		pw, err = promptLine("password: ")
		if err != nil {
			return err
		}
	}

	// The role policy drives the form: doctor profiles need the license
	// fields, so ask for whatever was not given as a flag.
	if registry.RequiresDoctorFields(*role) {
		var err error
		if *license == "" {
			if *license, err = promptLine("license number: "); err != nil {
				return err
			}
		}
		if *specialty == "" {
			if *specialty, err = promptLine("specialty: "); err != nil {
				return err
			}
		}
	}

	err := cc.manager.Register(cc.ctx, registry.Profile{
		Name:          *name,
		Email:         *email,
		Password:      pw,
		Role:          *role,
		LicenseNumber: *license,
		Specialty:     *specialty,
	})
	var ve *registry.ValidationError
	switch {
	case errors.As(err, &ve):
		fields := make([]string, 0, len(ve.Fields))
		for field := range ve.Fields {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		for _, field := range fields {
			fmt.Fprintf(os.Stderr, "  %s: %s\n", field, ve.Fields[field])
		}
		return errors.New("profile is incomplete")
	case errors.Is(err, registry.ErrAutoLoginFailed):
		return fmt.Errorf("account created but sign-in failed, sign in manually: %w", err)
	case err != nil:
		return sessionError(cc, err)
	}

	s := cc.manager.Current()
	fmt.Fprintf(cc.out, "registered and signed in as %s (%s)\n", s.User.Email, s.User.Role)
	return nil
}

func runStatus(cc *commandContext, _ []string) error {
	s := cc.manager.Current()
	fmt.Fprintf(cc.out, "local state:\t%s\n", s.State)
	if s.Err != "" {
		fmt.Fprintf(cc.out, "last error:\t%s\n", s.Err)
	}
	if !s.Authenticated() {
		return nil
	}

	st, err := cc.client.Status(cc.ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cc.out, "server sees:\tauthenticated=%t\n", st.Authenticated)
	if st.User != nil {
		fmt.Fprintf(cc.out, "account:\t%s (%s)\n", st.User.Email, st.User.Role)
	}
	if len(st.Permissions) > 0 {
		fmt.Fprintf(cc.out, "permissions:\t%s\n", strings.Join(st.Permissions, ", "))
	}
	return nil
}

// sessionError prefers the user-facing message the session recorded over the
// raw error.
func sessionError(cc *commandContext, err error) error {
	if msg := cc.manager.Current().Err; msg != "" {
		return errors.New(msg)
	}
	return err
}

func promptLine(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func printUser(w io.Writer, u *registry.User) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tROLE\tLICENSE\tSPECIALTY\tACTIVE")
	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%t\n",
		u.ID, u.Name, u.Email, u.Role, orDash(u.LicenseNumber), orDash(u.Specialty), u.Active)
	return tw.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
