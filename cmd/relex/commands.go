package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/relex/internal/config"
	"github.com/standardbeagle/relex/internal/debug"
	"github.com/standardbeagle/relex/internal/document"
	"github.com/standardbeagle/relex/internal/lexer"
	"github.com/standardbeagle/relex/internal/mcp"
	"github.com/standardbeagle/relex/internal/randomtest"
	"github.com/standardbeagle/relex/internal/version"
	"github.com/standardbeagle/relex/internal/watch"
	"github.com/standardbeagle/relex/internal/web"
)

// readInput returns --text, or the file named by the first argument, or stdin for "-"
func readInput(c *cli.Context) (string, error) {
	if c.IsSet("text") {
		return c.String("text"), nil
	}
	switch path := c.Args().First(); path {
	case "":
		return "", fmt.Errorf("provide a file, - for stdin, or --text")
	case "-":
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func textFlag() cli.Flag {
	return &cli.StringFlag{Name: "text", Aliases: []string{"t"}, Usage: "Text to lex instead of a file"}
}

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{Name: "json", Aliases: []string{"j"}, Usage: "Output as JSON"}
}

func tokensCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:      "tokens",
		Aliases:   []string{"t"},
		Usage:     "Lex a file in one pass and print its tokens",
		ArgsUsage: "[file|-]",
		Flags:     []cli.Flag{textFlag(), jsonFlag()},
		Action: func(c *cli.Context) error {
			text, err := readInput(c)
			if err != nil {
				return err
			}
			lang, err := a.language()
			if err != nil {
				return err
			}
			list, err := lexer.Lex(lexer.NewRuneText(text), lang, lexer.NewSampleCache())
			if err != nil {
				return err
			}
			if c.Bool("json") {
				return writeJSON(a.out, list.Views())
			}
			return list.WriteDump(a.out)
		},
	}
}

// editOp is one parsed --op value
type editOp struct {
	kind   byte // 'i', 'r' or 's'
	offset int
	length int
	text   string
}

// parseOp parses i:OFFSET:TEXT, r:OFFSET:LENGTH or s:TEXT. TEXT takes Go
// string escapes.
func parseOp(s string) (editOp, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) < 2 || len(parts[0]) != 1 {
		return editOp{}, fmt.Errorf("bad op %q (want i:OFFSET:TEXT, r:OFFSET:LENGTH or s:TEXT)", s)
	}
	op := editOp{kind: parts[0][0]}
	switch op.kind {
	case 's':
		op.text = unescape(strings.TrimPrefix(s, "s:"))
		return op, nil
	case 'i', 'r':
		if len(parts) != 3 {
			return editOp{}, fmt.Errorf("bad op %q: missing field", s)
		}
		offset, err := strconv.Atoi(parts[1])
		if err != nil {
			return editOp{}, fmt.Errorf("bad op %q: offset: %w", s, err)
		}
		op.offset = offset
		if op.kind == 'i' {
			op.text = unescape(parts[2])
			return op, nil
		}
		if op.length, err = strconv.Atoi(parts[2]); err != nil {
			return editOp{}, fmt.Errorf("bad op %q: length: %w", s, err)
		}
		return op, nil
	default:
		return editOp{}, fmt.Errorf("bad op %q: unknown kind %q", s, parts[0])
	}
}

func unescape(s string) string {
	if u, err := strconv.Unquote(`"` + s + `"`); err == nil {
		return u
	}
	return s
}

func (op editOp) apply(doc *document.Document) ([]*lexer.EditResult, error) {
	switch op.kind {
	case 'i':
		res, err := doc.Insert(op.offset, op.text)
		return []*lexer.EditResult{res}, err
	case 'r':
		res, err := doc.Remove(op.offset, op.length)
		return []*lexer.EditResult{res}, err
	default:
		return doc.Replace(op.text)
	}
}

func editCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:      "edit",
		Aliases:   []string{"e"},
		Usage:     "Apply edits incrementally and print what each one relexed",
		ArgsUsage: "[file|-]",
		Flags: []cli.Flag{
			textFlag(),
			&cli.StringSliceFlag{
				Name:    "op",
				Aliases: []string{"o"},
				Usage:   "Edit to apply, in order: i:OFFSET:TEXT, r:OFFSET:LENGTH or s:NEWTEXT",
			},
			&cli.BoolFlag{Name: "verify", Usage: "Check against a batch lex after every edit", Value: true},
			jsonFlag(),
		},
		Action: func(c *cli.Context) error {
			text, err := readInput(c)
			if err != nil {
				return err
			}
			lang, err := a.language()
			if err != nil {
				return err
			}
			var ops []editOp
			for _, s := range c.StringSlice("op") {
				op, err := parseOp(s)
				if err != nil {
					return err
				}
				ops = append(ops, op)
			}

			doc, err := document.New(text, lang)
			if err != nil {
				return err
			}
			var all []*lexer.EditResult
			for i, op := range ops {
				results, err := op.apply(doc)
				if err != nil {
					return fmt.Errorf("op %d: %w", i, err)
				}
				if c.Bool("verify") {
					if err := randomtest.Verify(doc); err != nil {
						return fmt.Errorf("op %d: %w", i, err)
					}
				}
				all = append(all, results...)
				if !c.Bool("json") {
					for _, res := range results {
						fmt.Fprintf(a.out, "op %d: relex from token %d (offset %d): -%d +%d tokens, %d chars, early stop %v\n",
							i, res.RelexStart, res.RelexOffset, res.Removed, res.Added, res.RelexedChars, res.EarlyStop)
					}
				}
			}

			if c.Bool("json") {
				return writeJSON(a.out, map[string]interface{}{
					"text":   doc.String(),
					"edits":  all,
					"tokens": doc.Views(),
				})
			}
			_, err = io.WriteString(a.out, doc.Dump())
			return err
		},
	}
}

func fuzzCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:    "fuzz",
		Aliases: []string{"f"},
		Usage:   "Run random edits against a batch lex over several seeds",
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "seed", Usage: "First seed (overrides config)"},
			&cli.IntFlag{Name: "seeds", Aliases: []string{"n"}, Usage: "Number of seeds (overrides config)"},
			&cli.IntFlag{Name: "rounds", Usage: "Rounds per seed (overrides config)"},
			&cli.IntFlag{Name: "ops", Usage: "Edits per round (overrides config)"},
			&cli.IntFlag{Name: "workers", Aliases: []string{"w"}, Usage: "Seeds run in parallel (overrides config)"},
			jsonFlag(),
		},
		Action: func(c *cli.Context) error {
			lang, err := a.language()
			if err != nil {
				return err
			}
			rc := a.cfg.Random
			if c.IsSet("seed") {
				rc.Seed = c.Int64("seed")
			}
			if c.IsSet("seeds") {
				rc.Seeds = c.Int("seeds")
			}
			if c.IsSet("rounds") {
				rc.Rounds = c.Int("rounds")
			}
			if c.IsSet("ops") {
				rc.OpsPerRound = c.Int("ops")
			}
			if c.IsSet("workers") {
				rc.Workers = c.Int("workers")
			}
			if err := config.ValidateRandom(&rc); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			start := time.Now()
			stats, err := randomtest.RunSeeds(ctx, lang, randomtest.FromConfig(rc), randomtest.Seeds(rc.Seed, rc.Seeds), rc.Workers)
			if err != nil {
				return err
			}

			if c.Bool("json") {
				return writeJSON(a.out, stats)
			}
			for _, s := range stats {
				fmt.Fprintf(a.out, "seed %d: %d ops (%d inserts, %d removes), max length %d, early stops %d, locality %.4f\n",
					s.Seed, s.Ops, s.Inserts, s.Removes, s.MaxLength, s.EarlyStops, s.Locality())
			}
			fmt.Fprintf(a.out, "%d seeds passed in %v\n", len(stats), time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
}

func watchCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Aliases:   []string{"w"},
		Usage:     "Keep tokens of every matching file up to date as files change",
		ArgsUsage: "[dir]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "verify", Usage: "Check against a batch lex after every change (overrides config)"},
		},
		Action: func(c *cli.Context) error {
			lang, err := a.language()
			if err != nil {
				return err
			}
			root := c.Args().First()
			if root == "" {
				root = a.cfg.Root
			}
			wcfg := a.cfg.Watch
			if c.IsSet("verify") {
				wcfg.Verify = c.Bool("verify")
			}

			w, err := watch.New(root, wcfg, lang)
			if err != nil {
				return err
			}
			w.SetCallbacks(func(u watch.Update) {
				fmt.Fprintf(a.out, "%s %s: %d edits, %d tokens, %d chars\n", u.Event, u.Path, len(u.Edits), u.Tokens, u.Length)
			}, func(path string, err error) {
				fmt.Fprintf(a.out, "error %s: %v\n", path, err)
			})
			if err := w.Start(); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "watching %d files under %s\n", len(w.Paths()), root)

			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()

			stats := w.Stats()
			log.Printf("Processed %d events, %d errors", stats.EventsProcessed, stats.ErrorCount)
			return w.Stop()
		},
	}
}

func serveCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve documents over a WebSocket JSON-RPC endpoint at /ws",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "Listen address (overrides config)"},
		},
		Action: func(c *cli.Context) error {
			addr := a.cfg.Server.Addr
			if c.IsSet("addr") {
				addr = c.String("addr")
			}

			srv := &http.Server{
				Addr:              addr,
				Handler:           web.NewServer(a.registry),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errChan := make(chan error, 1)
			go func() {
				log.Printf("Serving on http://%s (websocket at /ws)", addr)
				errChan <- srv.ListenAndServe()
			}()

			select {
			case err := <-errChan:
				return err
			case <-ctx.Done():
				debug.LogServer("shutting down\n")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					return err
				}
				if err := <-errChan; !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			}
		},
	}
}

func mcpCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Run the MCP tool server over stdio",
		Action: func(c *cli.Context) error {
			// stdout belongs to the protocol
			debug.SetMCPMode(true)

			server := mcp.NewServer(a.cfg, a.registry)
			defer server.Close()

			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			debug.LogMCP("Starting MCP server with stdio transport...\n")
			if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return debug.Fatal("MCP server error: %v\n", err)
			}
			return nil
		},
	}
}

func languagesCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:  "languages",
		Usage: "List registered languages and their token kinds",
		Action: func(c *cli.Context) error {
			for _, name := range a.registry.Names() {
				lang, err := a.registry.Lookup(name)
				if err != nil {
					return err
				}
				kinds := make([]string, 0, len(lang.TokenIDs()))
				for _, id := range lang.TokenIDs() {
					kinds = append(kinds, id.Name)
				}
				marker := " "
				if name == a.cfg.Language {
					marker = "*"
				}
				fmt.Fprintf(a.out, "%s %-8s %s\n", marker, name, strings.Join(kinds, " "))
			}
			return nil
		},
	}
}

func versionCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print version and build information",
		Action: func(c *cli.Context) error {
			fmt.Fprintln(a.out, version.FullInfo())
			fmt.Fprintf(a.out, "build %s\n", version.BuildID())
			return nil
		},
	}
}
