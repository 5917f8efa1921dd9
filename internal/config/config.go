package config

import (
	"os"
)

// Config is the relex configuration, read from .relex.kdl or .relex.toml
type Config struct {
	Version  int          `toml:"version"`
	Language string       `toml:"language"`
	Random   RandomConfig `toml:"random"`
	Watch    Watch        `toml:"watch"`
	Server   Server       `toml:"server"`

	// Root is the directory the configuration was loaded for
	Root string `toml:"-"`
}

// RandomConfig drives the randomized differential harness
type RandomConfig struct {
	Seed        int64 `toml:"seed"`
	Rounds      int   `toml:"rounds"`
	OpsPerRound int   `toml:"ops_per_round"`
	MaxLength   int   `toml:"max_length"` // Removals are forced once the document reaches it

	// Relative weights of the edit operations
	InsertChar    float64 `toml:"insert_char"`
	InsertText    float64 `toml:"insert_text"`
	InsertLiteral float64 `toml:"insert_literal"`
	RemoveChar    float64 `toml:"remove_char"`
	RemoveText    float64 `toml:"remove_text"`

	MaxInsertLength int      `toml:"max_insert_length"`
	MaxRemoveLength int      `toml:"max_remove_length"`
	Alphabet        string   `toml:"alphabet"`
	Literals        []string `toml:"literals"` // Inserted one character per operation

	Seeds   int `toml:"seeds"`   // Number of seeds the fuzz command runs
	Workers int `toml:"workers"` // 0 = auto-detect (NumCPU-1)
}

// Watch configures the file watcher
type Watch struct {
	DebounceMs       int      `toml:"debounce_ms"`
	MaxFileKB        int64    `toml:"max_file_kb"` // Larger files are skipped
	Include          []string `toml:"include"`
	Exclude          []string `toml:"exclude"`
	Verify           bool     `toml:"verify"` // Compare against a batch lex after every change
	RespectGitignore bool     `toml:"respect_gitignore"`
}

// Server configures the websocket session server
type Server struct {
	Addr string `toml:"addr"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Version:  1,
		Language: "demo",
		Random: RandomConfig{
			Seed:            1,
			Rounds:          20,
			OpsPerRound:     50,
			MaxLength:       400,
			InsertChar:      0.4,
			InsertText:      0.2,
			InsertLiteral:   0.1,
			RemoveChar:      0.2,
			RemoveText:      0.1,
			MaxInsertLength: 8,
			MaxRemoveLength: 6,
			Alphabet:        "ab x1 +-<=/*\"\\\n",
			Literals:        []string{"/* note */", "\"text\"", "<<=", "+-+", "while"},
			Seeds:           8,
			Workers:         0,
		},
		Watch: Watch{
			DebounceMs:       100,
			MaxFileKB:        1024,
			Include:          []string{"**/*"},
			Exclude:          []string{"**/.git/**"},
			Verify:           false,
			RespectGitignore: true,
		},
		Server: Server{
			Addr: "127.0.0.1:7411",
		},
	}
}

// Load reads the configuration for dir. A ~/.relex.kdl acts as the base the
// project file overrides.
func Load(dir string) (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return loadFrom(dir, home)
}

func loadFrom(dir, home string) (*Config, error) {
	if dir == "" {
		dir = "."
	}

	var base *Config
	if home != "" && home != dir {
		if globalCfg, err := LoadKDL(home); err == nil && globalCfg != nil {
			base = globalCfg
		}
	}

	project, err := LoadKDL(dir)
	if err != nil {
		return nil, err
	}
	if project == nil {
		if project, err = LoadTOML(dir); err != nil {
			return nil, err
		}
	}

	var cfg *Config
	switch {
	case base != nil && project != nil:
		cfg = mergeConfigs(base, project)
	case project != nil:
		cfg = project
	case base != nil:
		cfg = base
	default:
		cfg = Default()
	}
	cfg.Root = dir

	if cfg.Watch.RespectGitignore {
		patterns, err := GitignorePatterns(dir)
		if err != nil {
			return nil, err
		}
		cfg.Watch.Exclude = DeduplicatePatterns(append(cfg.Watch.Exclude, patterns...))
	}
	return cfg, nil
}

// mergeConfigs merges a base config with a project config.
// Project settings win; base watch exclusions are preserved.
func mergeConfigs(base, project *Config) *Config {
	merged := *project

	if len(base.Watch.Exclude) > 0 {
		merged.Watch.Exclude = DeduplicatePatterns(append(append([]string(nil), base.Watch.Exclude...), project.Watch.Exclude...))
	}
	if len(project.Watch.Include) == 0 && len(base.Watch.Include) > 0 {
		merged.Watch.Include = base.Watch.Include
	}
	if len(project.Random.Literals) == 0 && len(base.Random.Literals) > 0 {
		merged.Random.Literals = base.Random.Literals
	}

	return &merged
}
