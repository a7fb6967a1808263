package query

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

var ErrNotReadOnly = errors.New("only a single read-only SELECT statement is allowed")

var mutatingKeywords = map[string]struct{}{
	"INSERT":   {},
	"UPDATE":   {},
	"DELETE":   {},
	"DROP":     {},
	"ALTER":    {},
	"CREATE":   {},
	"ATTACH":   {},
	"DETACH":   {},
	"PRAGMA":   {},
	"VACUUM":   {},
	"REINDEX":  {},
	"TRUNCATE": {},
	"GRANT":    {},
	"COPY":     {},
	"INSTALL":  {},
	"LOAD":     {},
}

// CheckReadOnly rejects anything other than one SELECT or WITH statement.
// Keywords inside string literals, quoted identifiers and comments are ignored.
func CheckReadOnly(sqlText string) error {
	words, statements, err := scanSQL(StripTrailingSemicolons(sqlText))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotReadOnly, err)
	}
	if len(words) == 0 {
		return fmt.Errorf("%w: empty statement", ErrNotReadOnly)
	}
	if statements > 1 {
		return fmt.Errorf("%w: multiple statements", ErrNotReadOnly)
	}
	if words[0] != "SELECT" && words[0] != "WITH" {
		return fmt.Errorf("%w: statement starts with %s", ErrNotReadOnly, words[0])
	}
	for i, word := range words {
		if _, ok := mutatingKeywords[word]; ok {
			return fmt.Errorf("%w: %s is not allowed", ErrNotReadOnly, word)
		}
		// replace() is a scalar function; only REPLACE INTO writes.
		if word == "REPLACE" && i+1 < len(words) && words[i+1] == "INTO" {
			return fmt.Errorf("%w: REPLACE INTO is not allowed", ErrNotReadOnly)
		}
	}
	return nil
}

// scanSQL returns the upper-cased bare words of sqlText and the number of
// statements separated by semicolons.
func scanSQL(sqlText string) ([]string, int, error) {
	var words []string
	statements := 0
	sawToken := false
	runes := []rune(sqlText)

	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case r == '\'' || r == '"' || r == '`':
			end, err := skipQuoted(runes, i, r)
			if err != nil {
				return nil, 0, err
			}
			i = end
			sawToken = true
		case r == '[':
			end := indexRune(runes, i+1, ']')
			if end < 0 {
				return nil, 0, fmt.Errorf("unterminated identifier")
			}
			i = end + 1
			sawToken = true
		case r == '-' && i+1 < len(runes) && runes[i+1] == '-':
			end := indexRune(runes, i, '\n')
			if end < 0 {
				end = len(runes)
			}
			i = end
		case r == '/' && i+1 < len(runes) && runes[i+1] == '*':
			end := i + 2
			for end+1 < len(runes) && !(runes[end] == '*' && runes[end+1] == '/') {
				end++
			}
			if end+1 >= len(runes) {
				return nil, 0, fmt.Errorf("unterminated comment")
			}
			i = end + 2
		case r == ';':
			if sawToken {
				statements++
			}
			sawToken = false
			i++
		case unicode.IsLetter(r) || r == '_':
			start := i
			for i < len(runes) && (unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i]) || runes[i] == '_' || runes[i] == '$') {
				i++
			}
			words = append(words, strings.ToUpper(string(runes[start:i])))
			sawToken = true
		case unicode.IsSpace(r):
			i++
		default:
			sawToken = true
			i++
		}
	}
	if sawToken {
		statements++
	}
	return words, statements, nil
}

func skipQuoted(runes []rune, start int, quote rune) (int, error) {
	for i := start + 1; i < len(runes); i++ {
		if runes[i] != quote {
			continue
		}
		if i+1 < len(runes) && runes[i+1] == quote {
			i++
			continue
		}
		return i + 1, nil
	}
	return 0, fmt.Errorf("unterminated quoted text")
}

func indexRune(runes []rune, from int, target rune) int {
	for i := from; i < len(runes); i++ {
		if runes[i] == target {
			return i
		}
	}
	return -1
}
