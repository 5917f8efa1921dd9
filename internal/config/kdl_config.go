package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"
)

// LoadKDL loads configuration from a .relex.kdl file in dir.
// Returns nil when there is no such file.
func LoadKDL(dir string) (*Config, error) {
	kdlPath := filepath.Join(dir, ".relex.kdl")

	if _, err := os.Stat(kdlPath); os.IsNotExist(err) {
		return nil, nil
	}

	content, err := os.ReadFile(kdlPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read .relex.kdl: %v", err)
	}

	return parseKDL(string(content))
}

// parseKDL reads a KDL document over the defaults:
//
//	language "demo"
//	random { seed 7; rounds 10; insert_char 0.5; literals "<<=" "+-+" }
//	watch { debounce_ms 50; exclude { "**/tmp/**" } }
//	server { addr ":7411" }
func parseKDL(content string) (*Config, error) {
	cfg := Default()

	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse KDL config: %w", err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "version":
			if v, ok := firstIntArg(n); ok {
				cfg.Version = v
			}
		case "language":
			assignSimpleString(n, "language", func(v string) { cfg.Language = v })
		case "random":
			for _, cn := range n.Children {
				parseRandomNode(&cfg.Random, cn)
			}
		case "watch":
			for _, cn := range n.Children {
				parseWatchNode(&cfg.Watch, cn)
			}
		case "server":
			for _, cn := range n.Children {
				assignSimpleString(cn, "addr", func(v string) { cfg.Server.Addr = v })
			}
		default:
			log.Printf("WARNING: unknown node '%s' in KDL config", nodeName(n))
		}
	}

	return cfg, nil
}

func parseRandomNode(r *RandomConfig, n *document.Node) {
	intFields := map[string]*int{
		"rounds":            &r.Rounds,
		"ops_per_round":     &r.OpsPerRound,
		"max_length":        &r.MaxLength,
		"max_insert_length": &r.MaxInsertLength,
		"max_remove_length": &r.MaxRemoveLength,
		"seeds":             &r.Seeds,
		"workers":           &r.Workers,
	}
	floatFields := map[string]*float64{
		"insert_char":    &r.InsertChar,
		"insert_text":    &r.InsertText,
		"insert_literal": &r.InsertLiteral,
		"remove_char":    &r.RemoveChar,
		"remove_text":    &r.RemoveText,
	}

	name := nodeName(n)
	if target, ok := intFields[name]; ok {
		if v, ok := firstIntArg(n); ok {
			*target = v
		}
		return
	}
	if target, ok := floatFields[name]; ok {
		if v, ok := firstFloatArg(n); ok {
			*target = v
		}
		return
	}
	switch name {
	case "seed":
		if v, ok := firstIntArg(n); ok {
			r.Seed = int64(v)
		}
	case "alphabet":
		assignSimpleString(n, "alphabet", func(v string) { r.Alphabet = v })
	case "literals":
		r.Literals = collectStringArgs(n)
	}
}

func parseWatchNode(w *Watch, n *document.Node) {
	switch nodeName(n) {
	case "debounce_ms":
		if v, ok := firstIntArg(n); ok {
			w.DebounceMs = v
		}
	case "max_file_kb":
		if v, ok := firstIntArg(n); ok {
			w.MaxFileKB = int64(v)
		}
	case "include":
		w.Include = collectStringArgs(n)
	case "exclude":
		w.Exclude = collectStringArgs(n)
	case "verify":
		if b, ok := firstBoolArg(n); ok {
			w.Verify = b
		}
	case "respect_gitignore":
		if b, ok := firstBoolArg(n); ok {
			w.RespectGitignore = b
		}
	}
}

// Helpers over the kdl-go document model
func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}
func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}
func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	if b, ok := n.Arguments[0].Value.(bool); ok {
		return b, true
	}
	return false, false
}
func firstFloatArg(n *document.Node) (float64, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	default:
		nodeName := nodeName(n)
		log.Printf("WARNING: invalid float value for '%s' in KDL config, expected number but got %T", nodeName, n.Arguments[0].Value)
		return 0, false
	}
}
func collectStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	// First try to collect from arguments (for inline format)
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}

	// If no arguments, collect from children (for block format like exclude { "pattern" })
	// In KDL block format, strings are child nodes where the node name is the string value
	if len(out) == 0 && len(n.Children) > 0 {
		out = make([]string, 0, len(n.Children))
		for _, child := range n.Children {
			// Try to get string from arguments first
			if s, ok := firstStringArg(child); ok {
				out = append(out, s)
			} else if child.Name != nil {
				// If no arguments, the node name itself is the string value
				if s, ok := child.Name.Value.(string); ok {
					out = append(out, s)
				}
			}
		}
	}

	return out
}
func assignSimpleString(n *document.Node, target string, set func(string)) {
	if nodeName(n) == target {
		if s, ok := firstStringArg(n); ok {
			set(s)
		}
	}
}
