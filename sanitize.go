package facet

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// DefaultMaxLineSize bounds one console command line.
	DefaultMaxLineSize = 4096
	// EnvMaxLineSize overrides DefaultMaxLineSize.
	EnvMaxLineSize = "FACET_MAX_INPUT_SIZE"
)

var (
	ErrLineTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8  = errors.New("input contains invalid UTF-8 sequences")
)

// SanitizeLine rejects oversized or invalid UTF-8 input and strips control
// characters other than tab, so ANSI sequences never reach attribute values
// or the terminal.
func SanitizeLine(line string) (string, error) {
	if limit := maxLineSize(); len(line) > limit {
		// Rejected rather than truncated: a cut value would still be assigned.
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrLineTooLarge, len(line), limit)
	}
	if !utf8.ValidString(line) {
		return "", ErrInvalidUTF8
	}
	line = strings.TrimRight(line, "\r\n")
	if strings.IndexFunc(line, unsafeControl) < 0 {
		return line, nil
	}
	return strings.Map(func(r rune) rune {
		if unsafeControl(r) {
			return -1
		}
		return r
	}, line), nil
}

func unsafeControl(r rune) bool {
	return unicode.IsControl(r) && r != '\t'
}

func maxLineSize() int {
	if val := os.Getenv(EnvMaxLineSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxLineSize
}
