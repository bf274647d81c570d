package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/metcalfc/kobo-highlights/internal/config"
	"github.com/metcalfc/kobo-highlights/internal/export"
	"github.com/metcalfc/kobo-highlights/internal/kobo"
	"github.com/metcalfc/kobo-highlights/internal/logger"
)

// Version info (injected via ldflags)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Globals are flags shared by every command.
type Globals struct {
	LogLevel string `name:"log-level" help:"Logging level: debug, info, warn, error (default: info, or log_level from the config file)"`
	Config   string `name:"config" help:"Config file (default: $XDG_CONFIG_HOME/kobo-highlights/config.toml)" type:"path"`
}

// CLI defines the command-line interface.
type CLI struct {
	Globals

	Export  ExportCmd  `cmd:"" default:"withargs" help:"Export highlights and notes (default command)"`
	Detect  DetectCmd  `cmd:"" help:"List Kobo databases on mounted devices, best match first"`
	Browse  BrowseCmd  `cmd:"" help:"Browse highlights interactively"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// setup loads the config file and builds the logger.
func (g *Globals) setup() (config.Config, *logger.Logger, error) {
	cfg, err := config.Load(g.Config)
	level := g.LogLevel
	if level == "" {
		level = cfg.LogLevel
	}
	log := logger.New(logger.Config{Level: level, Pretty: true})
	if err != nil {
		return cfg, log, err
	}
	for _, key := range cfg.Unknown {
		log.Warn().Str("key", key).Msg("unknown config key ignored")
	}
	return cfg, log, nil
}

// expandHome expands a leading "~/" in paths taken from the config file.
func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

// DetectCmd lists candidate device databases.
type DetectCmd struct{}

func (c *DetectCmd) Run(g *Globals) error {
	_, log, err := g.setup()
	if err != nil {
		return err
	}
	roots := kobo.CandidateRoots()
	log.Debug().Strs("roots", roots).Msg("searching mount points")

	found := kobo.RankDatabases(kobo.FindDatabases(roots))
	if len(found) == 0 {
		return kobo.ErrNoDevice
	}
	for i, p := range found {
		marker := " "
		if i == 0 {
			marker = "*"
		}
		fmt.Printf("%s %s\n", marker, p)
	}
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("kobo-highlights %s (commit: %s, built: %s)\n", version, commit, date)
	fmt.Printf("driver: %s\n", kobo.DriverName())
	fmt.Printf("formats: %s\n", strings.Join(export.SupportedFormats(), ", "))
	return nil
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("kobo-highlights"),
		kong.Description("Export Kobo highlights and notes to CSV, Markdown and HTML with book and chapter metadata."),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	err := ctx.Run(&cli.Globals)
	if errors.Is(err, kobo.ErrDatabaseNotFound) {
		ctx.Errorf("%v. Specify a valid path with --db.", err)
		ctx.Exit(2)
		return
	}
	ctx.FatalIfErrorf(err)
}
