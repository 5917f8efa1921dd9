package lexer

import "reflect"

// State is the opaque value a lexer needs to resume after a token. It must be
// comparable with reflect.DeepEqual; nil is the initial state.
type State any

// Lexer scans tokens from an Input.
type Lexer interface {
	// Restart positions the lexer on in, resuming with state saved by State().
	Restart(in *Input, state State)
	// NextToken creates exactly one token through the input, or returns nil
	// when no further token can be formed.
	NextToken() *Token
	// State returns the state after the most recent token.
	State() State
}

// Language supplies lexers for one token grammar.
type Language interface {
	Name() string
	TokenIDs() []*TokenID
	NewLexer() Lexer
}

// StatesEqual compares two lexer states
func StatesEqual(a, b State) bool {
	return reflect.DeepEqual(a, b)
}
