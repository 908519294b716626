package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/mmcdole/longbox/internal/comicserver"
	"github.com/mmcdole/longbox/internal/config"
	"github.com/mmcdole/longbox/internal/library"
	"github.com/mmcdole/longbox/internal/log"
	"github.com/mmcdole/longbox/internal/metrics"
	"github.com/mmcdole/longbox/internal/poller"
	"github.com/mmcdole/longbox/internal/session"
	"github.com/mmcdole/longbox/internal/store"
	"github.com/mmcdole/longbox/internal/tui"
)

// Version is set at build time via -ldflags
var Version = "dev"

type options struct {
	configPath string
	once       bool
	headless   bool
	logout     bool
}

func main() {
	var (
		showVersion bool
		opts        options
	)
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.BoolVar(&opts.once, "once", false, "sync until caught up, print a summary and exit")
	flag.BoolVar(&opts.headless, "headless", false, "keep polling without the terminal UI")
	flag.BoolVar(&opts.logout, "logout", false, "forget the server credentials and cached library")
	flag.StringVar(&opts.configPath, "config", "", "path to config file")
	flag.Parse()

	if showVersion {
		fmt.Printf("longbox %s\n", Version)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// runLogout clears server configuration and cached data
func runLogout(cfg *config.Config, w io.Writer) error {
	if err := cfg.ClearServerConfig(); err != nil {
		return fmt.Errorf("failed to clear server config: %w", err)
	}
	if err := cfg.ClearCache(); err != nil {
		return err
	}
	fmt.Fprintln(w, "Logged out. Run longbox again to connect to a server.")
	return nil
}

func run(ctx context.Context, opts options) error {
	// Load configuration
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if opts.logout {
		return runLogout(cfg, os.Stdout)
	}

	interactive := !opts.once && !opts.headless && term.IsTerminal(int(os.Stdout.Fd()))

	// The TUI owns the terminal, so it logs to a file; other modes log to stderr
	var logger *slog.Logger
	if interactive {
		fileLogger, closer, err := log.SetupLogger(cfg.Logging)
		if err != nil {
			// Fall back to null logger if file logging fails
			fileLogger = log.NullLogger()
		} else {
			defer closer.Close()
		}
		logger = fileLogger
	} else {
		logger = log.NewConsoleLogger(os.Stderr, cfg.Logging.Level)
	}
	slog.SetDefault(logger)

	logger.Info("starting longbox", "version", Version)

	// Check if configured
	if !cfg.IsConfigured() {
		return runSetupFlow(ctx, cfg, logger)
	}

	libStore, err := store.NewLibraryStore(cfg.Cache.Dir, cfg.Server.URL)
	if err != nil {
		return fmt.Errorf("failed to open library cache: %w", err)
	}
	defer libStore.Close()

	sess := session.New(session.Config{
		BatchSize:      cfg.Sync.BatchSize,
		TimeoutSeconds: cfg.Sync.TimeoutSeconds,
	}, libStore, logger)
	defer sess.Close()

	recorder := metrics.Recorder{}
	sess.AddListener(recorder)

	if err := sess.Restore(); err != nil {
		// A damaged cache only costs a full resync
		logger.Warn("starting from an empty library", "error", err)
		if _, err := sess.Dispatch(ctx, session.ResetLibrary{}); err != nil {
			logger.Error("library cache could not be cleared", "error", err)
		}
	}

	if cfg.Metrics.Listen != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Listen, logger); err != nil {
				logger.Error("metrics listener stopped", "error", err)
			}
		}()
	}

	client := comicserver.NewClient(cfg.Server.URL, cfg.Server.Token, logger)
	schedule := poller.NewSchedule(cfg.Sync.PollInterval, cfg.Sync.PollJitter, cfg.Sync.MaxBackoff)

	switch {
	case opts.once:
		return runOnce(ctx, sess, poller.New(sess, client, schedule, recorder, logger), os.Stdout)
	case !interactive:
		logger.Info("polling for library updates", "server", cfg.Server.URL, "interval", cfg.Sync.PollInterval)
		return poller.New(sess, client, schedule, recorder, logger).Run(ctx)
	}

	index, err := library.ParseAttribute(cfg.UI.DefaultIndex)
	if err != nil {
		logger.Warn("unknown default index, using series", "index", cfg.UI.DefaultIndex)
		index = library.AttributeSeries
	}

	model := tui.NewModel(ctx, sess, tui.Options{
		Client:    client,
		Schedule:  schedule,
		Observer:  recorder,
		Index:     index,
		ServerURL: cfg.Server.URL,
		Logger:    logger,
	})

	// Run the TUI
	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	logger.Info("starting TUI")

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	logger.Info("shutting down")
	return nil
}

// runOnce syncs until the server has nothing pending and prints a summary
func runOnce(ctx context.Context, sess *session.Session, p *poller.Poller, out io.Writer) error {
	start := time.Now()
	err := p.SyncUntilExhausted(ctx)

	coll := sess.Collection()
	fmt.Fprintf(out, "Received:  %d comics in %s\n", sess.Received(), time.Since(start).Round(time.Millisecond))
	fmt.Fprintf(out, "Library:   %d comics (%d deleted)\n", coll.Len(), coll.Len()-coll.ActiveCount())
	fmt.Fprintf(out, "Watermark: %s\n", sess.Watermark())
	for _, attr := range library.Attributes {
		fmt.Fprintf(out, "  %-11s %d\n", attr.String(), len(sess.Indexes().Groups(attr)))
	}

	var syncErr *poller.SyncError
	if errors.As(err, &syncErr) {
		return fmt.Errorf("sync stopped: %w", syncErr)
	}
	return err
}

// runSetupFlow handles the initial setup when not configured
func runSetupFlow(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	fmt.Println()
	fmt.Println("Welcome to Longbox!")
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)

	// Loop until we reach a server
	var serverURL string
	for {
		fmt.Print("Enter your library server URL (e.g., http://192.168.1.100:7171): ")
		input, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
		serverURL = strings.TrimRight(strings.TrimSpace(input), "/")

		if serverURL == "" {
			fmt.Println("Server URL cannot be empty. Please try again.")
			continue
		}

		pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		version, err := comicserver.NewClient(serverURL, "", logger).Ping(pingCtx)
		cancel()
		if err != nil {
			fmt.Printf("\n✗ Could not reach server: %v\n", err)
			fmt.Println("Please check the URL and try again.")
			fmt.Println()
			continue
		}

		fmt.Printf("✓ Found library server %s\n", version)
		break
	}

	result, err := comicserver.NewAuthFlow(logger).Run(ctx, serverURL)
	if err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	// Save credentials
	cfg.Server.URL = serverURL
	cfg.Server.Token = result.Token
	cfg.Server.Username = result.Username

	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Println()
	fmt.Println("✓ Configuration saved to", cfg.Path())
	fmt.Println()
	fmt.Println("Run longbox again to start syncing.")

	return nil
}
