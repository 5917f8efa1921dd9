package languages

import (
	"sort"
	"strings"

	"github.com/hbollon/go-edlib"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/standardbeagle/relex/internal/errors"
	"github.com/standardbeagle/relex/internal/lexer"
)

// maxSuggestionDistance bounds the edit distance of "did you mean" hints
const maxSuggestionDistance = 2

// Registry maps language names to definitions
type Registry struct {
	langs map[string]lexer.Language
	names []string
}

// NewRegistry creates a registry holding langs
func NewRegistry(langs ...lexer.Language) *Registry {
	r := &Registry{langs: make(map[string]lexer.Language, len(langs))}
	for _, lang := range langs {
		r.Register(lang)
	}
	return r
}

// Default returns a registry with every built-in language
func Default() *Registry {
	return NewRegistry(Demo(), Runs(), Words())
}

// Register adds or replaces a language
func (r *Registry) Register(lang lexer.Language) {
	name := strings.ToLower(lang.Name())
	if _, exists := r.langs[name]; !exists {
		r.names = append(r.names, name)
		sort.Strings(r.names)
	}
	r.langs[name] = lang
}

// Names returns the registered names in sorted order
func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}

// Lookup returns the language called name. Unknown names produce a
// LanguageError listing close matches.
func (r *Registry) Lookup(name string) (lexer.Language, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if lang, ok := r.langs[key]; ok {
		return lang, nil
	}
	return nil, errors.NewLanguageError(name, r.suggest(key))
}

// suggest ranks registered names that contain key as a subsequence or are
// within a small edit distance of it
func (r *Registry) suggest(key string) []string {
	type candidate struct {
		name     string
		distance int
	}
	var candidates []candidate
	for _, name := range r.names {
		distance := edlib.LevenshteinDistance(key, name)
		if key != "" && fuzzy.RankMatchNormalizedFold(key, name) >= 0 {
			candidates = append(candidates, candidate{name, distance})
			continue
		}
		if distance <= maxSuggestionDistance {
			candidates = append(candidates, candidate{name, distance})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].distance < candidates[j].distance
	})

	suggestions := make([]string, 0, len(candidates))
	for _, c := range candidates {
		suggestions = append(suggestions, c.name)
	}
	return suggestions
}
