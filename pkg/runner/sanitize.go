package runner

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxLineBytes bounds one command line.
const DefaultMaxLineBytes = 4096

var (
	ErrLineTooLong = errors.New("command line too long")
	ErrInvalidUTF8 = errors.New("command line is not valid UTF-8")
)

// cleanLine validates a typed command line and drops control characters.
func cleanLine(line string, max int) (string, error) {
	if len(line) > max {
		return "", fmt.Errorf("%w (%d bytes, max %d)", ErrLineTooLong, len(line), max)
	}
	if !utf8.ValidString(line) {
		return "", ErrInvalidUTF8
	}
	return stripControl(line), nil
}

// SanitizeText makes program text safe to print on a terminal: invalid
// UTF-8 is replaced and escape sequences are defused.
func SanitizeText(s string) string {
	return stripControl(strings.ToValidUTF8(s, "�"))
}

// stripControl drops control characters other than tab, newline and
// carriage return.
func stripControl(s string) string {
	if strings.IndexFunc(s, unsafeControl) < 0 {
		return s
	}
	return strings.Map(func(r rune) rune {
		if unsafeControl(r) {
			return -1
		}
		return r
	}, s)
}

func unsafeControl(r rune) bool {
	return unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r'
}
