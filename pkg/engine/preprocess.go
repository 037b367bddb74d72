package engine

import (
	"strconv"
	"strings"
)

// kwPrefix marks keyword names after preprocessing.
const kwPrefix = "__kw_"

// preprocessSource rewrites detector script syntax into plain zygomys.
//
// A :keyword becomes the string literal "__kw_keyword", so keywords never
// collide with user variables. A hyphen inside an identifier becomes an
// underscore (bank-row is bank_row) since zygomys reads it as minus. A ;
// comment becomes a // comment. String literals are copied unchanged.
func preprocessSource(source string) string {
	var out strings.Builder
	out.Grow(len(source) + len(source)/4)

	n := len(source)
	for i := 0; i < n; {
		c := source[i]
		switch {
		case c == '"' || c == '`':
			end := literalEnd(source, i)
			out.WriteString(source[i:end])
			i = end

		case c == ';':
			for i < n && source[i] == ';' {
				i++
			}
			end := strings.IndexByte(source[i:], '\n')
			if end < 0 {
				end = n - i
			}
			out.WriteString("//")
			out.WriteString(source[i : i+end])
			i += end

		case c == ':' && i+1 < n && isLetter(source[i+1]):
			end := i + 1
			for end < n && isKWChar(source[end]) {
				end++
			}
			out.WriteString(strconv.Quote(kwPrefix + source[i+1:end]))
			i = end

		case c == '-' && i > 0 && i+1 < n && isIdentChar(source[i-1]) && isLetter(source[i+1]):
			out.WriteByte('_')
			i++

		default:
			out.WriteByte(c)
			i++
		}
	}
	return out.String()
}

// literalEnd returns the index just past the string literal opening at
// start. Double-quoted literals honour backslash escapes; backtick
// literals are raw. An unterminated literal runs to the end.
func literalEnd(s string, start int) int {
	quote := s[start]
	for j := start + 1; j < len(s); j++ {
		switch {
		case quote == '"' && s[j] == '\\':
			j++
		case s[j] == quote:
			return j + 1
		}
	}
	return len(s)
}

func isLetter(c byte) bool { return (c|0x20) >= 'a' && (c|0x20) <= 'z' }
func isDigit(c byte) bool  { return c >= '0' && c <= '9' }

func isIdentChar(c byte) bool { return isLetter(c) || isDigit(c) || c == '_' }
func isKWChar(c byte) bool    { return isIdentChar(c) || c == '-' }
