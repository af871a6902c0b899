package testutil

import (
	"bytes"
	"path/filepath"
	"regexp"
)

// ansiPattern matches SGR escape sequences emitted by colored output.
var ansiPattern = regexp.MustCompile("\x1b\\[[0-9;]*m")

// NormalizeText makes rendered output comparable across machines:
// CRLF becomes LF, color escapes are stripped, the absolute fixture root
// (when given) is replaced by <fixture>, and the result ends in one newline.
func NormalizeText(data []byte, fixtureRoot string) []byte {
	out := bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	out = ansiPattern.ReplaceAll(out, nil)

	if fixtureRoot != "" {
		out = bytes.ReplaceAll(out, []byte(filepath.ToSlash(fixtureRoot)), []byte("<fixture>"))
		out = bytes.ReplaceAll(out, []byte(fixtureRoot), []byte("<fixture>"))
	}

	out = bytes.TrimRight(out, "\n")
	return append(out, '\n')
}

// StripANSI removes color escape sequences.
func StripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}
