// Package scanner loads a registry from an MFTF definition corpus on disk.
//
// A module is any directory containing Test/Mftf. Its name is built from the
// two directories above Test, e.g. app/code/Magento/Catalog -> Magento_Catalog.
// Every *.xml file below Test/Mftf is parsed; entities declared more than once
// within a module are merged in file order.
package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	ckerrors "mftfcheck/internal/errors"
	"mftfcheck/internal/registry"
	"mftfcheck/internal/slogutil"
)

// DefaultIgnoreDirs are never descended into. Entries match a directory's base
// name or its slash-separated path relative to the corpus root.
var DefaultIgnoreDirs = []string{".git", "node_modules", "vendor/bin", "generated", "var", "pub"}

// Options configures a Scanner
type Options struct {
	IgnoreDirs []string
	Logger     *slog.Logger
}

// Module is one discovered MFTF module
type Module struct {
	Name string // Vendor_Module
	Root string // directory holding Test/Mftf, relative to the corpus root
}

// Stats describes the last scan
type Stats struct {
	Modules  int
	Files    int
	Entities int
	Merged   int
	Skipped  int
}

// Scanner walks a corpus and builds a registry
type Scanner struct {
	ignore map[string]bool
	logger *slog.Logger
	stats  Stats
}

// NewScanner creates a scanner. Zero options use DefaultIgnoreDirs and discard logs.
func NewScanner(opts Options) *Scanner {
	if opts.IgnoreDirs == nil {
		opts.IgnoreDirs = DefaultIgnoreDirs
	}
	if opts.Logger == nil {
		opts.Logger = slogutil.NewDiscardLogger()
	}
	ignore := make(map[string]bool, len(opts.IgnoreDirs))
	for _, d := range opts.IgnoreDirs {
		ignore[filepath.ToSlash(d)] = true
	}
	return &Scanner{ignore: ignore, logger: opts.Logger}
}

// Stats returns counters for the most recent Scan.
func (s *Scanner) Stats() Stats {
	return s.stats
}

// DiscoverModules returns every module below root, sorted by name.
func (s *Scanner) DiscoverModules(root string) ([]Module, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, ckerrors.New(ckerrors.CorpusUnreadable, fmt.Sprintf("cannot read corpus %s", root), err)
	}
	if !info.IsDir() {
		return nil, ckerrors.Newf(ckerrors.CorpusUnreadable, "corpus %s is not a directory", root)
	}

	var modules []Module
	seen := make(map[string]string)

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			s.logger.Warn("Skipping unreadable directory", "path", path, "error", walkErr)
			return nil
		}
		if !d.IsDir() {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil //nolint:nilerr // skip paths we can't process
		}
		rel = filepath.ToSlash(rel)
		if rel != "." && (s.ignore[rel] || s.ignore[d.Name()] || strings.HasPrefix(d.Name(), ".")) {
			return filepath.SkipDir
		}

		if d.Name() != "Mftf" || filepath.Base(filepath.Dir(path)) != "Test" {
			return nil
		}

		moduleRoot := filepath.Dir(filepath.Dir(path))
		name := moduleName(moduleRoot)
		relRoot, _ := filepath.Rel(root, moduleRoot)
		relRoot = filepath.ToSlash(relRoot)
		if prev, dup := seen[name]; dup {
			s.logger.Warn("Module declared in two places, merging",
				"module", name, "first", prev, "second", relRoot)
		} else {
			seen[name] = relRoot
		}
		modules = append(modules, Module{Name: name, Root: relRoot})
		return filepath.SkipDir
	})
	if err != nil {
		return nil, ckerrors.New(ckerrors.CorpusUnreadable, "walking corpus failed", err)
	}

	sort.SliceStable(modules, func(i, j int) bool {
		if modules[i].Name != modules[j].Name {
			return modules[i].Name < modules[j].Name
		}
		return modules[i].Root < modules[j].Root
	})
	return modules, nil
}

func moduleName(moduleRoot string) string {
	module := filepath.Base(moduleRoot)
	vendor := filepath.Base(filepath.Dir(moduleRoot))
	if vendor == "." || vendor == string(filepath.Separator) {
		return module
	}
	return vendor + "_" + module
}

// Scan builds a registry from the corpus at root. Source locations are paths
// relative to root with forward slashes.
func (s *Scanner) Scan(ctx context.Context, root string) (*registry.Registry, error) {
	s.stats = Stats{}

	modules, err := s.DiscoverModules(root)
	if err != nil {
		return nil, err
	}
	s.stats.Modules = len(modules)

	merged := make(map[string]map[string]registry.Entity)
	for _, m := range modules {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entities := merged[m.Name]
		if entities == nil {
			entities = make(map[string]registry.Entity)
			merged[m.Name] = entities
		}
		if err := s.scanModule(root, m, entities); err != nil {
			return nil, err
		}
	}

	reg, err := registry.New(merged)
	if err != nil {
		return nil, err
	}
	s.stats.Entities = reg.Len()

	s.logger.Debug("Corpus scanned",
		"root", root,
		"modules", s.stats.Modules,
		"files", s.stats.Files,
		"entities", s.stats.Entities,
		"merged", s.stats.Merged,
	)
	return reg, nil
}

func (s *Scanner) scanModule(root string, m Module, entities map[string]registry.Entity) error {
	mftfDir := filepath.Join(root, filepath.FromSlash(m.Root), "Test", "Mftf")

	var files []string
	err := filepath.WalkDir(mftfDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".xml") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return ckerrors.New(ckerrors.CorpusUnreadable, fmt.Sprintf("cannot read module %s", m.Name), err)
	}
	sort.Strings(files)

	for _, path := range files {
		rel, _ := filepath.Rel(root, path)
		source := filepath.ToSlash(rel)

		parsed, skipped, err := s.parsePath(path, source)
		if err != nil {
			return ckerrors.New(ckerrors.CorpusUnreadable, fmt.Sprintf("cannot parse %s", source), err).
				WithDetails(map[string]interface{}{"module": m.Name, "file": source})
		}
		s.stats.Files++

		for _, tag := range skipped {
			s.stats.Skipped++
			s.logger.Warn("Skipping unnamed declaration", "file", source, "tag", tag)
		}
		for _, e := range parsed {
			prev, exists := entities[e.Name]
			if !exists {
				entities[e.Name] = e
				continue
			}
			if prev.Kind != e.Kind {
				s.logger.Warn("Entity redeclared with a different kind, keeping the later one",
					"module", m.Name, "name", e.Name, "kind", prev.Kind, "newKind", e.Kind, "file", source)
				entities[e.Name] = e
				continue
			}
			s.stats.Merged++
			entities[e.Name] = mergeEntity(prev, e)
		}
	}
	return nil
}

func (s *Scanner) parsePath(path, source string) ([]registry.Entity, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	return ParseFile(f, source)
}

// mergeEntity folds a later declaration into an earlier one: sources and
// children are appended, later attribute values win.
func mergeEntity(base, ext registry.Entity) registry.Entity {
	out := registry.Entity{
		Name:            base.Name,
		Kind:            base.Kind,
		SourceLocations: append(append([]string{}, base.SourceLocations...), ext.SourceLocations...),
		Children:        append(append([]registry.Element{}, base.Children...), ext.Children...),
	}
	if len(base.Attributes)+len(ext.Attributes) > 0 {
		out.Attributes = make(map[string]string, len(base.Attributes)+len(ext.Attributes))
		for k, v := range base.Attributes {
			out.Attributes[k] = v
		}
		for k, v := range ext.Attributes {
			out.Attributes[k] = v
		}
	}
	return out
}
