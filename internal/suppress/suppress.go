// Package suppress filters acknowledged operations out of a report.
//
// Suppressions live in a TOML file:
//
//	[[suppress]]
//	code = "M301"
//	target = "Magento_Catalog/Page/*"
//	reason = "page moved to Magento_CatalogUi"
//
// code and target are both optional but at least one must be set. target is a
// path.Match pattern over the operation target; "**" as the final segment
// matches any remaining segments.
package suppress

import (
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"mftfcheck/internal/breaking"
	ckerrors "mftfcheck/internal/errors"
)

// Rule is one suppression entry
type Rule struct {
	Code    string    `toml:"code,omitempty"`
	Target  string    `toml:"target,omitempty"`
	Reason  string    `toml:"reason,omitempty"`
	Expires time.Time `toml:"expires,omitempty"`
}

// File is the root structure of a suppression file
type File struct {
	Rules []Rule `toml:"suppress"`
}

// List is a validated set of rules
type List struct {
	rules []Rule
}

// Result describes the outcome of applying a list to a report
type Result struct {
	Report     *breaking.Report
	Suppressed int
	// PerRule counts how many operations each rule suppressed, indexed like the list.
	PerRule []int
}

// Load reads a suppression file. A missing file yields an empty list.
func Load(filePath string) (*List, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &List{}, nil
		}
		return nil, ckerrors.New(ckerrors.ConfigInvalid, fmt.Sprintf("cannot read suppressions %s", filePath), err)
	}
	return Parse(string(data))
}

// Parse decodes and validates suppression TOML.
func Parse(data string) (*List, error) {
	var f File
	if _, err := toml.Decode(data, &f); err != nil {
		return nil, ckerrors.New(ckerrors.ConfigInvalid, "invalid suppression file", err)
	}
	return New(f.Rules)
}

// New validates rules and builds a list.
func New(rules []Rule) (*List, error) {
	for i, r := range rules {
		if r.Code == "" && r.Target == "" {
			return nil, ckerrors.Newf(ckerrors.ConfigInvalid, "suppression %d needs a code or a target", i+1)
		}
		if r.Code != "" {
			if _, ok := breaking.KindByCode(r.Code); !ok {
				return nil, ckerrors.Newf(ckerrors.ConfigInvalid, "suppression %d: unknown code %q", i+1, r.Code)
			}
		}
		if r.Target != "" {
			if _, err := path.Match(r.Target, ""); err != nil {
				return nil, ckerrors.Newf(ckerrors.ConfigInvalid, "suppression %d: bad target pattern %q", i+1, r.Target)
			}
		}
	}
	return &List{rules: append([]Rule(nil), rules...)}, nil
}

// Len returns the number of rules.
func (l *List) Len() int {
	return len(l.rules)
}

// Rules returns a copy of the rules.
func (l *List) Rules() []Rule {
	return append([]Rule(nil), l.rules...)
}

// Match returns the index of the first active rule matching op, or -1.
func (l *List) Match(op breaking.Operation, now time.Time) int {
	for i, r := range l.rules {
		if !r.Expires.IsZero() && now.After(r.Expires) {
			continue
		}
		if r.Code != "" && r.Code != op.Code {
			continue
		}
		if r.Target != "" && !matchTarget(r.Target, op.Target) {
			continue
		}
		return i
	}
	return -1
}

// Apply returns a copy of report without suppressed operations.
func (l *List) Apply(report *breaking.Report, now time.Time) Result {
	res := Result{PerRule: make([]int, len(l.rules))}
	res.Report = report.Filter(func(op breaking.Operation) bool {
		i := l.Match(op, now)
		if i < 0 {
			return true
		}
		res.PerRule[i]++
		res.Suppressed++
		return false
	})
	return res
}

func matchTarget(pattern, target string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "/**"); ok {
		if ok, _ := path.Match(prefix, target); ok {
			return true
		}
		depth := strings.Count(prefix, "/") + 1
		segs := strings.SplitN(target, "/", depth+1)
		if len(segs) <= depth {
			return false
		}
		ok, _ := path.Match(prefix, strings.Join(segs[:depth], "/"))
		return ok
	}
	ok, _ := path.Match(pattern, target)
	return ok
}
