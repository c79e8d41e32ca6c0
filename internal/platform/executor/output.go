package executor

import (
	"regexp"
	"strconv"
	"strings"
)

// NormalizeOutput converts CRLF to LF, drops trailing whitespace on every line and trims the result.
func NormalizeOutput(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// OutputsMatch compares program output with the expected answer after normalisation.
func OutputsMatch(actual, expected string) bool {
	return NormalizeOutput(actual) == NormalizeOutput(expected)
}

var (
	lineWordRe  = regexp.MustCompile(`(?i)line (\d+)`)
	lineColonRe = regexp.MustCompile(`:(\d+):`)
)

// ExtractLineNumber finds the first source line referenced by a compiler or runtime message.
func ExtractLineNumber(message string) *int {
	for _, re := range []*regexp.Regexp{lineWordRe, lineColonRe} {
		if m := re.FindStringSubmatch(message); len(m) == 2 {
			if n, err := strconv.Atoi(m[1]); err == nil {
				return &n
			}
		}
	}
	return nil
}
