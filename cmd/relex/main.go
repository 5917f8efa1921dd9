package main

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/relex/internal/config"
	"github.com/standardbeagle/relex/internal/debug"
	"github.com/standardbeagle/relex/internal/languages"
	"github.com/standardbeagle/relex/internal/lexer"
	"github.com/standardbeagle/relex/internal/version"
)

// app carries what every command needs once the Before hook ran
type app struct {
	out      io.Writer
	cfg      *config.Config
	registry *languages.Registry
	cleanup  []func()
}

// loadConfigWithOverrides loads configuration and applies CLI flag overrides
func (a *app) loadConfigWithOverrides(c *cli.Context) error {
	dir := c.String("config")
	cfg, err := config.Load(dir)
	if err != nil {
		return fmt.Errorf("failed to load config from %s: %w", dir, err)
	}

	if lang := c.String("language"); lang != "" {
		cfg.Language = lang
	}

	if err := config.ValidateConfig(cfg); err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

// language resolves the configured language
func (a *app) language() (lexer.Language, error) {
	return a.registry.Lookup(a.cfg.Language)
}

func newApp(out io.Writer) *cli.App {
	a := &app{out: out, registry: languages.Default()}

	return &cli.App{
		Name:                      "relex",
		Usage:                     "Incremental lexing with a randomized differential checker",
		Version:                   version.Version,
		Writer:                    out,
		UseShortOptionHandling:    true,
		DisableSliceFlagSeparator: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Directory holding .relex.kdl or .relex.toml",
				Value:   ".",
			},
			&cli.StringFlag{
				Name:    "language",
				Aliases: []string{"l"},
				Usage:   "Language to lex with (overrides config)",
			},
			&cli.BoolFlag{
				Name:  "debug-log",
				Usage: "Write debug output to a log file in the temp directory",
			},
		},
		Commands: []*cli.Command{
			tokensCommand(a),
			editCommand(a),
			fuzzCommand(a),
			watchCommand(a),
			serveCommand(a),
			mcpCommand(a),
			languagesCommand(a),
			versionCommand(a),
		},
		Before: func(c *cli.Context) error {
			if c.Bool("debug-log") {
				path, err := debug.InitDebugLogFile()
				if err != nil {
					return err
				}
				a.cleanup = append(a.cleanup, func() { _ = debug.CloseDebugLog() })
				debug.Printf("debug log at %s\n", path)
			}

			// Skip initialization for help
			if c.NArg() == 0 || c.Args().Get(0) == "help" || c.Bool("help") || c.Bool("version") {
				return nil
			}
			return a.loadConfigWithOverrides(c)
		},
		After: func(c *cli.Context) error {
			for _, cleanup := range a.cleanup {
				cleanup()
			}
			return nil
		},
	}
}

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}
