package config

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// speechPlaceholders are the substitutions a speech command may use.
var speechPlaceholders = map[string]bool{
	"{wpm}":     true,
	"{percent}": true,
	"{rate}":    true,
	"{text}":    true,
}

var placeholderPattern = regexp.MustCompile(`\{[a-z]+\}`)

// argvLexer splits a command line following POSIX shell quoting: single
// quotes are fully literal, double quotes honor \" \\ \$ and \`, and a bare
// backslash escapes the next rune.
type argvLexer struct {
	runes []rune
	pos   int
}

// ParseArgv splits a command line into argv.
func ParseArgv(input string) ([]string, error) {
	lx := &argvLexer{runes: []rune(strings.TrimSpace(input))}
	var argv []string
	for {
		lx.skipSpace()
		if lx.done() {
			return argv, nil
		}
		word, err := lx.word()
		if err != nil {
			return nil, fmt.Errorf("%w in command: %q", err, input)
		}
		argv = append(argv, word)
	}
}

func (lx *argvLexer) done() bool { return lx.pos >= len(lx.runes) }

func (lx *argvLexer) skipSpace() {
	for !lx.done() && unicode.IsSpace(lx.runes[lx.pos]) {
		lx.pos++
	}
}

// word consumes one argument, which may mix quoted and bare segments.
func (lx *argvLexer) word() (string, error) {
	var sb strings.Builder
	for !lx.done() {
		r := lx.runes[lx.pos]
		switch {
		case unicode.IsSpace(r):
			return sb.String(), nil
		case r == '\'':
			end := lx.find('\'', lx.pos+1)
			if end < 0 {
				return "", fmt.Errorf("unterminated single quote")
			}
			sb.WriteString(string(lx.runes[lx.pos+1 : end]))
			lx.pos = end + 1
		case r == '"':
			if err := lx.doubleQuoted(&sb); err != nil {
				return "", err
			}
		case r == '\\':
			if lx.pos+1 >= len(lx.runes) {
				return "", fmt.Errorf("unterminated escape sequence")
			}
			sb.WriteRune(lx.runes[lx.pos+1])
			lx.pos += 2
		default:
			sb.WriteRune(r)
			lx.pos++
		}
	}
	return sb.String(), nil
}

func (lx *argvLexer) doubleQuoted(sb *strings.Builder) error {
	for i := lx.pos + 1; i < len(lx.runes); i++ {
		switch r := lx.runes[i]; r {
		case '"':
			lx.pos = i + 1
			return nil
		case '\\':
			if i+1 < len(lx.runes) && strings.ContainsRune("\"\\$`", lx.runes[i+1]) {
				i++
				sb.WriteRune(lx.runes[i])
				continue
			}
			sb.WriteRune(r)
		default:
			sb.WriteRune(r)
		}
	}
	return fmt.Errorf("unterminated double quote")
}

func (lx *argvLexer) find(target rune, from int) int {
	for i := from; i < len(lx.runes); i++ {
		if lx.runes[i] == target {
			return i
		}
	}
	return -1
}

// checkPlaceholders rejects {name} tokens the speech command does not expand.
func checkPlaceholders(argv []string) error {
	for _, a := range argv {
		for _, p := range placeholderPattern.FindAllString(a, -1) {
			if !speechPlaceholders[p] {
				return fmt.Errorf("unknown placeholder %s (supported: {wpm} {percent} {rate} {text})", p)
			}
		}
	}
	return nil
}
