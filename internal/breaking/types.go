package breaking

import (
	"fmt"
	"strings"
)

// Severity indicates the semantic-versioning impact of a change
type Severity string

const (
	SeverityMajor Severity = "MAJOR" // Breaks consumers of the definition
	SeverityMinor Severity = "MINOR" // Additive, compatible change
	SeverityPatch Severity = "PATCH" // Non-structural change
)

// Severities lists every severity from most to least severe.
var Severities = []Severity{SeverityMajor, SeverityMinor, SeverityPatch}

// Valid reports whether s is one of the three severities.
func (s Severity) Valid() bool {
	return severityOrder(s) < 3
}

// AtLeast reports whether s is as severe as or more severe than other.
func (s Severity) AtLeast(other Severity) bool {
	return severityOrder(s) <= severityOrder(other)
}

// ParseSeverity parses a severity name, case-insensitively.
func ParseSeverity(s string) (Severity, error) {
	sev := Severity(strings.ToUpper(strings.TrimSpace(s)))
	if !sev.Valid() {
		return "", fmt.Errorf("unknown severity %q (want major, minor or patch)", s)
	}
	return sev, nil
}

func severityOrder(s Severity) int {
	switch s {
	case SeverityMajor:
		return 0
	case SeverityMinor:
		return 1
	case SeverityPatch:
		return 2
	default:
		return 3
	}
}

// CompareOptions configures a comparison run
type CompareOptions struct {
	Kinds    []string // Limit to these entity kinds; empty means all
	Parallel bool     // Run one worker per analyzer
}

// DefaultCompareOptions returns sensible defaults
func DefaultCompareOptions() CompareOptions {
	return CompareOptions{
		Parallel: true,
	}
}

// Summary provides an overview of the changes
type Summary struct {
	TotalChanges int            `json:"totalChanges"`
	Major        int            `json:"major"`
	Minor        int            `json:"minor"`
	Patch        int            `json:"patch"`
	ByCode       map[string]int `json:"byCode"`
	ByModule     map[string]int `json:"byModule,omitempty"`
}

// SemverAdvice suggests the version bump the changes call for
func (s *Summary) SemverAdvice() string {
	switch {
	case s == nil:
		return "patch"
	case s.Major > 0:
		return "major"
	case s.Minor > 0:
		return "minor"
	default:
		return "patch"
	}
}

// HasBreakingChanges returns true if there are any MAJOR changes
func (s *Summary) HasBreakingChanges() bool {
	return s != nil && s.Major > 0
}
