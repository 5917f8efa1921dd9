package lexer

// Text is the character source tokens are lexed from. The buffer is owned by
// the caller; the token model only queries it on demand.
type Text interface {
	Length() int
	CharAt(i int) rune
}

// RuneText is an immutable Text over a rune slice.
type RuneText []rune

// NewRuneText converts s into a RuneText
func NewRuneText(s string) RuneText {
	return RuneText([]rune(s))
}

// Length returns the number of characters
func (t RuneText) Length() int {
	return len(t)
}

// CharAt returns the character at index i
func (t RuneText) CharAt(i int) rune {
	return t[i]
}

// String returns the text as a string
func (t RuneText) String() string {
	return string(t)
}

// Substring copies the characters in [start, end) out of text
func Substring(text Text, start, end int) string {
	runes := make([]rune, 0, end-start)
	for i := start; i < end; i++ {
		runes = append(runes, text.CharAt(i))
	}
	return string(runes)
}
