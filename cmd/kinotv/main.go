package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/mmcdole/kinotv/internal/catalog"
	"github.com/mmcdole/kinotv/internal/config"
	"github.com/mmcdole/kinotv/internal/credential"
	"github.com/mmcdole/kinotv/internal/gateway"
	"github.com/mmcdole/kinotv/internal/log"
	"github.com/mmcdole/kinotv/internal/progress"
	"github.com/mmcdole/kinotv/internal/store"
	"golang.org/x/term"
)

// Version is set at build time via -ldflags
var Version = "dev"

const usage = `usage: kinotv [flags] <command> [args]

commands:
  browse    list movies, shows or channels
  search    search the catalog
  continue  list partially watched content
  play      track progress for a content id in real time
  login     store a token in the config file
`

func main() {
	var (
		showVersion bool
		configDir   string
	)
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.StringVar(&configDir, "config", "", "config directory (default: OS config dir)")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if showVersion {
		fmt.Printf("kinotv %s\n", Version)
		return
	}
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, configDir, flag.Arg(0), flag.Args()[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app holds everything the commands share
type app struct {
	cfg       *config.Config
	configDir string
	logger    *slog.Logger
	creds     *credential.Session
	catalog   *catalog.Service
	out       *printer
}

func run(ctx context.Context, configDir, command string, args []string) error {
	cfg, err := config.Load(configDir)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, closer, err := log.SetupLogger(cfg.Logging)
	if err != nil {
		logger = log.NullLogger()
	} else {
		defer closer.Close()
	}
	slog.SetDefault(logger)
	logger.Info("starting kinotv", "version", Version, "command", command)

	creds := credential.FromConfig(cfg.Server, configDir, log.Component(logger, "credential"))
	client := gateway.NewClient(gateway.Config{
		BaseURL:           cfg.Server.URL,
		Timeout:           cfg.Server.Timeout,
		MaxRetries:        cfg.Server.MaxRetries,
		RetryDelay:        cfg.Server.RetryDelay,
		RequestsPerSecond: cfg.Server.RequestsPerSecond,
		Burst:             cfg.Server.Burst,
		ListTTL:           cfg.Cache.ListTTL,
	}, log.Component(logger, "gateway"))
	svc := catalog.NewService(client, creds, catalog.Config{
		PageSize: cfg.Paging.PageSize,
		Grace:    cfg.Paging.Grace,
	}, log.Component(logger, "catalog"))
	defer svc.Close()

	a := &app{
		cfg:       cfg,
		configDir: configDir,
		logger:    logger,
		creds:     creds,
		catalog:   svc,
		out:       newPrinter(os.Stdout),
	}

	switch command {
	case "browse":
		return a.browse(ctx, args)
	case "search":
		return a.search(ctx, args)
	case "continue":
		return a.continueWatching(ctx)
	case "play":
		return a.play(ctx, args)
	case "login":
		return a.login()
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

// login reads a token without echo and stores it
func (a *app) login() error {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		token, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read token: %w", err)
		}
		return a.creds.Set(strings.TrimSpace(string(token)))
	}

	fmt.Print("Token: ")
	token, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return fmt.Errorf("failed to read token: %w", err)
	}
	if len(token) == 0 {
		return errors.New("token cannot be empty")
	}
	if err := a.creds.Set(strings.TrimSpace(string(token))); err != nil {
		return err
	}
	fmt.Println("✓ Token saved")
	return nil
}

func (a *app) openStore() (*store.ProgressStore, error) {
	s, err := store.NewProgressStore(a.cfg.Cache.Dir, a.cfg.Server.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open progress store: %w", err)
	}
	return s, nil
}

func (a *app) continueWatching(ctx context.Context) error {
	s, err := a.openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	records, err := s.ContinueWatching(ctx, a.cfg.Server.UserID)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("Nothing in progress")
		return nil
	}
	for _, r := range records {
		a.out.row(r.ContentID, string(r.ContentType), fmt.Sprintf("%s / %s", r.Position(), progressDuration(r.DurationMs)))
	}
	return nil
}

func (a *app) tracker(s *store.ProgressStore) *progress.Tracker {
	return progress.NewTracker(s, progress.Config{
		Interval:    a.cfg.Progress.Interval,
		MinWatch:    a.cfg.Progress.MinWatch,
		SaveTimeout: a.cfg.Progress.SaveTimeout,
	}, log.Component(a.logger, "progress"))
}
