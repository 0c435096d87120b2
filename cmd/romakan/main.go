// romakan is a terminal Japanese input method.
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
	"path/filepath"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jwulff/romakan/internal/app"
	"github.com/jwulff/romakan/internal/config"
	"github.com/jwulff/romakan/internal/daemon"
	"github.com/jwulff/romakan/internal/db"
	"github.com/jwulff/romakan/internal/dict"
	"github.com/jwulff/romakan/internal/dictload"
	"github.com/jwulff/romakan/internal/kanji"
	"github.com/jwulff/romakan/internal/logging"
	"github.com/jwulff/romakan/internal/mcptools"
	"github.com/jwulff/romakan/internal/skk"
)

const version = "0.1.0"

var (
	configPath = flag.String("config", "", "path to config file")
)

func main() {
	flag.Usage = usage
	flag.Parse()

	cmd := "tui"
	if flag.NArg() > 0 {
		cmd = flag.Arg(0)
	}
	args := flag.Args()
	if len(args) > 0 {
		args = args[1:]
	}

	var err error
	switch cmd {
	case "tui":
		err = cmdTUI()
	case "import":
		err = cmdImport(args)
	case "serve":
		err = cmdServe()
	case "type":
		err = cmdType(args)
	case "mcp":
		err = cmdMCP()
	case "info":
		err = cmdInfo()
	case "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		usage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `romakan - Japanese input method for the terminal

Usage: romakan [options] [command] [args]

Commands:
  tui                     Run the interactive input method (default)
  import [flags] <file>   Convert an SKK-JISYO dictionary
      -db <path>          Write a SQLite store (default: configured database)
      -tsv <path>         Write a TSV dictionary
      -utf8               Input is UTF-8 rather than EUC-JP
  serve                   Serve IME sessions on the configured Unix socket
  type [-socket <path>] <romaji>...
                          Type through a running server and print the result
  mcp                     Serve conversion tools over MCP on stdio
  info                    Show configuration and dictionary status
  help                    Show this help message

Options:
  -config <path>  Path to config file (default: `+config.ConfigPath()+`)`)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// loadDictionary returns nil with a warning when no dictionary is usable, so
// the caller still works for kana.
func loadDictionary(cfg *config.Config, log *slog.Logger) *dict.Dictionary {
	d, err := dictload.Load(context.Background(), cfg.Dictionary)
	if err != nil {
		log.Warn("dictionary unavailable, kanji conversion disabled", "error", err)
		return nil
	}
	log.Info("dictionary loaded", "source", dictload.Resolve(cfg.Dictionary), "entries", d.Len())
	return d
}

func cmdTUI() error {
	loader := config.NewLoader(*configPath)
	defer loader.Close()

	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// The TUI owns the terminal, so logs go to a file.
	logWriter := io.Discard
	if cfg.Log.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Log.File), 0o755); err == nil {
			f, err := tea.LogToFile(cfg.Log.File, "romakan")
			if err == nil {
				defer f.Close()
				logWriter = f
			}
		}
	}
	level := new(slog.LevelVar)
	if err := logging.SetLevel(level, cfg.Log.Level); err != nil {
		return err
	}
	log := logging.NewLeveled(logWriter, level, "tui")

	if err := loader.Watch(); err != nil {
		log.Warn("config hot reload disabled", "error", err)
	}

	kc := kanji.NewWithLoader(dictload.Loader(cfg.Dictionary), kanji.WithLogger(log))
	m := app.New(kc, cfg, log).WithConfigSource(loader).WithLogLevel(level)

	p := tea.NewProgram(m, tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("run tui: %w", err)
	}

	// Leave the session's text on the terminal after the alt screen closes.
	if fm, ok := final.(app.Model); ok && fm.Output() != "" {
		fmt.Println(fm.Output())
	}
	return nil
}

func cmdImport(args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	dbPath := fs.String("db", "", "write a SQLite store")
	tsvPath := fs.String("tsv", "", "write a TSV dictionary")
	utf8 := fs.Bool("utf8", false, "input is UTF-8")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return errors.New("usage: romakan import [-db path] [-tsv path] [-utf8] <SKK-JISYO file>")
	}
	src := fs.Arg(0)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if *dbPath == "" && *tsvPath == "" {
		*dbPath = cfg.Dictionary.Database
	}

	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open skk dictionary: %w", err)
	}
	defer f.Close()

	var entries []dict.Entry
	if *utf8 {
		entries, err = skk.ParseUTF8(f)
	} else {
		entries, err = skk.Parse(f)
	}
	if err != nil {
		return err
	}
	fmt.Printf("Parsed %d readings from %s\n", len(entries), src)

	if *tsvPath != "" {
		if err := os.MkdirAll(filepath.Dir(*tsvPath), 0o755); err != nil {
			return fmt.Errorf("create tsv dir: %w", err)
		}
		out, err := os.Create(*tsvPath)
		if err != nil {
			return fmt.Errorf("create tsv: %w", err)
		}
		n, err := skk.WriteTSV(out, entries)
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
		fmt.Printf("Wrote %d lines to %s\n", n, *tsvPath)
	}

	if *dbPath != "" {
		store, err := db.Create(*dbPath)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.Import(context.Background(), entries, filepath.Base(src)); err != nil {
			return err
		}
		n, err := store.Count(context.Background())
		if err != nil {
			return err
		}
		fmt.Printf("Stored %d readings in %s\n", n, *dbPath)
	}
	return nil
}

func cmdServe() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logging.New(os.Stderr, cfg.Log.Level, "server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(filepath.Dir(cfg.Server.Socket), 0o755); err != nil {
		return fmt.Errorf("create socket dir: %w", err)
	}

	srv := daemon.NewServer(loadDictionary(cfg, log), log)
	srv.StartEnabled = cfg.IME.StartEnabled
	return srv.ListenAndServe(ctx, cfg.Server.Socket)
}

func cmdType(args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("type", flag.ExitOnError)
	socket := fs.String("socket", cfg.Server.Socket, "server socket path")
	fs.Parse(args)
	if fs.NArg() == 0 {
		return errors.New("usage: romakan type [-socket path] <romaji>...")
	}

	client, err := daemon.Connect(*socket)
	if err != nil {
		return err
	}
	defer client.Close()

	committed, err := client.Type(strings.Join(fs.Args(), " "))
	if err != nil {
		return err
	}
	fmt.Println(strings.Join(committed, ""))
	return nil
}

func cmdMCP() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// stdout carries the protocol.
	log := logging.New(os.Stderr, cfg.Log.Level, "mcp")

	s := mcptools.NewServer(loadDictionary(cfg, log), version, log)
	if err := mcptools.ServeStdio(s); err != nil {
		return fmt.Errorf("serve mcp: %w", err)
	}
	return nil
}

func cmdInfo() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	path := *configPath
	if path == "" {
		path = config.ConfigPath()
	}
	fmt.Println("=== romakan ===")
	fmt.Printf("Config:     %s\n", path)
	fmt.Printf("Socket:     %s\n", cfg.Server.Socket)
	fmt.Println()

	source := dictload.Resolve(cfg.Dictionary)
	fmt.Println("Dictionary:")
	switch source {
	case config.SourceSQLite:
		fmt.Printf("  SQLite store: %s\n", cfg.Dictionary.Database)
		store, err := db.Open(cfg.Dictionary.Database)
		if err != nil {
			fmt.Printf("  Error opening store: %v\n", err)
			return nil
		}
		defer store.Close()
		info, err := store.Info(context.Background())
		if err != nil {
			fmt.Printf("  Error reading store: %v\n", err)
			return nil
		}
		fmt.Printf("  Imported from: %s\n", info.Source)
		if !info.ImportedAt.IsZero() {
			fmt.Printf("  Imported at:   %s\n", info.ImportedAt.Local().Format("2006-01-02 15:04:05"))
		}
		fmt.Printf("  Entries:       %d\n", info.Entries)
	case config.SourceTSV:
		fmt.Printf("  TSV file: %s\n", cfg.Dictionary.Path)
		d, err := dictload.FromTSV(cfg.Dictionary.Path)
		if err != nil {
			fmt.Printf("  Error reading file: %v\n", err)
			return nil
		}
		fmt.Printf("  Entries: %d (skipped %d malformed lines)\n", d.Len(), d.Skipped())
	default:
		fmt.Println("  No dictionary found. Import one with:")
		fmt.Println("    romakan import SKK-JISYO.L")
	}
	return nil
}
