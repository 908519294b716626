package comicserver

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/mmcdole/longbox/internal/domain"
)

// AuthFlow implements username/password login against the library server
type AuthFlow struct {
	logger *slog.Logger
	in     io.Reader
	out    io.Writer

	// readPassword reads a line without echo; replaced in tests
	readPassword func(r *bufio.Reader) (string, error)
}

// NewAuthFlow creates a login flow that prompts on the terminal
func NewAuthFlow(logger *slog.Logger) *AuthFlow {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthFlow{
		logger:       logger,
		in:           os.Stdin,
		out:          os.Stdout,
		readPassword: readTerminalPassword,
	}
}

// Run prompts for credentials and exchanges them for a token.
func (f *AuthFlow) Run(ctx context.Context, serverURL string) (*domain.AuthResult, error) {
	serverURL = strings.TrimRight(serverURL, "/")

	fmt.Fprintln(f.out)
	fmt.Fprintln(f.out, "Library Login")
	fmt.Fprintln(f.out, "━━━━━━━━━━━━━")

	reader := bufio.NewReader(f.in)
	fmt.Fprint(f.out, "Username: ")
	username, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read username: %w", err)
	}
	username = strings.TrimSpace(username)

	fmt.Fprint(f.out, "Password: ")
	password, err := f.readPassword(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Fprintln(f.out)

	fmt.Fprintln(f.out, "Authenticating...")
	result, err := Login(ctx, serverURL, username, password, f.logger)
	if err != nil {
		return nil, err
	}

	fmt.Fprintln(f.out, "Authentication successful!")
	return result, nil
}

// Login exchanges a username and password for a bearer token
func Login(ctx context.Context, serverURL, username, password string, logger *slog.Logger) (*domain.AuthResult, error) {
	c := NewClient(serverURL, "", logger)

	var resp LoginResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", nil, LoginRequest{Username: username, Password: password}, &resp)
	if err != nil {
		if errors.Is(err, domain.ErrAuthFailed) {
			return nil, domain.ErrAuthFailed
		}
		return nil, err
	}
	if resp.Token == "" {
		return nil, fmt.Errorf("login response has no token")
	}

	name := resp.Username
	if name == "" {
		name = username
	}
	return &domain.AuthResult{Token: resp.Token, Username: name}, nil
}

// readTerminalPassword disables echo when stdin is a terminal and falls back
// to a plain line read for piped input.
func readTerminalPassword(r *bufio.Reader) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := r.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		return strings.TrimSpace(line), nil
	}
	b, err := term.ReadPassword(fd)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
