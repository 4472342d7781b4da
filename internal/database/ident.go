package database

import "strings"

// SplitQualified splits "schema.table" into its parts. Names without a dot
// have an empty schema.
func SplitQualified(name string) (schema, table string) {
	name = strings.TrimSpace(name)
	if i := strings.LastIndex(name, "."); i > 0 && i < len(name)-1 {
		return name[:i], name[i+1:]
	}
	return "", name
}

// quoteWith wraps ident in open/close, doubling any embedded close
// character.
func quoteWith(ident string, open, close rune) string {
	var b strings.Builder
	b.Grow(len(ident) + 2)
	b.WriteRune(open)
	for _, r := range ident {
		if r == close {
			b.WriteRune(close)
		}
		b.WriteRune(r)
	}
	b.WriteRune(close)
	return b.String()
}

func quoteANSI(ident string) string {
	return quoteWith(ident, '"', '"')
}

func quoteBracket(ident string) string {
	return quoteWith(ident, '[', ']')
}

func quoteBacktick(ident string) string {
	return quoteWith(ident, '`', '`')
}

func questionMark(int) string {
	return "?"
}
