// Package main is the entry point for extsim, which runs Lua scenario
// scripts against a simulated editor extension host.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/tools/txtar"

	"github.com/dshills/extsim/internal/config"
	"github.com/dshills/extsim/internal/logging"
	"github.com/dshills/extsim/internal/lsp"
	"github.com/dshills/extsim/internal/plugin/lua"
	"github.com/dshills/extsim/internal/project"
	"github.com/dshills/extsim/internal/project/vfs"
	"github.com/dshills/extsim/internal/uri"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// options holds the parsed command line.
type options struct {
	ConfigPath string
	Fixtures   []string
	Folders    []string
	Remote     string
	LogLevel   string
	Dump       string
	LSP        bool
	Script     string
}

// listFlag collects a repeatable string flag.
type listFlag []string

func (l *listFlag) String() string     { return strings.Join(*l, ",") }
func (l *listFlag) Set(s string) error { *l = append(*l, s); return nil }

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	// Handle signals by cancelling the running script
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := execute(ctx, opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func execute(ctx context.Context, opts options, out io.Writer) error {
	cfg := config.Default()
	if opts.ConfigPath != "" {
		var err error
		if cfg, err = config.Load(opts.ConfigPath); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
	}

	// The environment threshold stands unless the config or flag sets one.
	level := logging.CurrentLevel()
	switch {
	case opts.LogLevel != "":
		level = logging.ParseLevel(opts.LogLevel)
	case opts.ConfigPath != "":
		level = logging.ParseLevel(cfg.LogLevel)
	}
	if cfg.LogFile != "" {
		logging.ToFile(level, cfg.LogFile)
	} else {
		logging.SetLevel(level)
	}

	hostOpts := []project.Option{project.WithConfig(cfg)}
	if opts.Remote != "" {
		hostOpts = append(hostOpts, project.WithRemoteName(opts.Remote))
	}
	h := project.New(hostOpts...)

	var sync *lsp.Sync
	if opts.LSP {
		sync = lsp.NewSync(h.Bus())
		defer sync.Dispose()
	}

	for _, f := range opts.Fixtures {
		if err := vfs.LoadArchiveFile(h.FS(), uri.File("/"), f); err != nil {
			return err
		}
	}
	for _, f := range opts.Folders {
		if !h.Workspace().AddFolder(uri.File(f), "") {
			return fmt.Errorf("cannot open folder %s", f)
		}
	}

	if opts.Script != "" {
		state, err := lua.NewState(h, lua.WithOutput(out))
		if err != nil {
			return err
		}
		defer state.Close()

		if err := state.DoFile(ctx, opts.Script); err != nil {
			return err
		}
	}

	if sync != nil {
		if err := writeNotifications(out, sync.Notifications()); err != nil {
			return err
		}
	}

	if opts.Dump != "" {
		ar, err := vfs.Snapshot(ctx, h.FS(), uri.File(opts.Dump))
		if err != nil {
			return fmt.Errorf("dump: %w", err)
		}
		if _, err := out.Write(txtar.Format(ar)); err != nil {
			return err
		}
	}
	return nil
}

// writeNotifications prints one line per notification: the method and its
// params as compact JSON.
func writeNotifications(w io.Writer, ns []lsp.Notification) error {
	for _, n := range ns {
		params, err := json.Marshal(n.Params)
		if err != nil {
			return fmt.Errorf("encode %s: %w", n.Method, err)
		}
		if _, err := fmt.Fprintf(w, "%s %s\n", n.Method, params); err != nil {
			return err
		}
	}
	return nil
}

func parseFlags() options {
	var opts options
	var fixtures, folders listFlag
	var showVersion bool
	var showHelp bool

	flag.StringVar(&opts.ConfigPath, "config", "", "Path to configuration file (.toml, .yaml)")
	flag.StringVar(&opts.ConfigPath, "c", "", "Path to configuration file (shorthand)")
	flag.Var(&fixtures, "fixture", "txtar archive loaded at / before the script runs (repeatable)")
	flag.Var(&folders, "folder", "Workspace folder to open, e.g. /w (repeatable)")
	flag.StringVar(&opts.Remote, "remote", "", "Run as a remote window with this name")
	flag.StringVar(&opts.LogLevel, "log-level", "", "Log level (trace, debug, info, warn, error, off)")
	flag.StringVar(&opts.Dump, "dump", "", "Print the files beneath this path as txtar after the script")
	flag.BoolVar(&opts.LSP, "lsp", false, "Print the language server notifications the run produced")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "extsim - simulated editor extension host\n\n")
		fmt.Fprintf(os.Stderr, "Usage: extsim [options] [script.lua]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  extsim -fixture repo.txtar -folder /w test.lua\n")
		fmt.Fprintf(os.Stderr, "  extsim -fixture repo.txtar -folder /w -dump /w edit.lua\n")
		fmt.Fprintf(os.Stderr, "  extsim -lsp -fixture repo.txtar open.lua\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("extsim %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	if flag.NArg() > 1 {
		fmt.Fprintf(os.Stderr, "Error: at most one script may be given\n")
		os.Exit(2)
	}
	opts.Script = flag.Arg(0)
	opts.Fixtures = fixtures
	opts.Folders = folders

	return opts
}
