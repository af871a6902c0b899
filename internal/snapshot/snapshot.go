// Package snapshot persists registries so a corpus can be compared without
// checking it out again.
//
// The format is chosen by file extension: .json, .yaml/.yml or .toml, each
// optionally followed by .zst for zstd compression.
package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	ckerrors "mftfcheck/internal/errors"
	"mftfcheck/internal/registry"
)

// FormatVersion is written to every snapshot; Decode rejects other versions.
const FormatVersion = 1

// Format is a snapshot encoding
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

const compressedExt = ".zst"

// Document is the on-disk shape of a snapshot. Entities are listed per module
// sorted by name so encoded snapshots are stable.
type Document struct {
	Version   int                           `json:"version" yaml:"version" toml:"version"`
	Source    string                        `json:"source,omitempty" yaml:"source,omitempty" toml:"source,omitempty"`
	CreatedAt time.Time                     `json:"createdAt" yaml:"createdAt" toml:"createdAt"`
	Modules   map[string][]registry.Entity `json:"modules" yaml:"modules" toml:"modules"`
}

// NewDocument captures reg. source describes where the registry came from.
func NewDocument(reg *registry.Registry, source string) *Document {
	doc := &Document{
		Version:   FormatVersion,
		Source:    source,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
		Modules:   make(map[string][]registry.Entity),
	}
	for _, module := range reg.Modules() {
		names := reg.Names(module)
		entities := make([]registry.Entity, 0, len(names))
		for _, name := range names {
			e, _ := reg.Lookup(module, name)
			entities = append(entities, e)
		}
		doc.Modules[module] = entities
	}
	return doc
}

// Registry validates the document and builds a registry from it.
func (d *Document) Registry() (*registry.Registry, error) {
	if d.Version != FormatVersion {
		return nil, ckerrors.Newf(ckerrors.SnapshotUnreadable,
			"unsupported snapshot version %d (want %d)", d.Version, FormatVersion)
	}
	b := registry.NewBuilder()
	modules := make([]string, 0, len(d.Modules))
	for m := range d.Modules {
		modules = append(modules, m)
	}
	sort.Strings(modules)
	for _, module := range modules {
		for _, e := range d.Modules[module] {
			if err := b.Add(module, e); err != nil {
				return nil, err
			}
		}
	}
	return b.Build(), nil
}

// ParsePath returns the format and compression implied by path's extension.
func ParsePath(path string) (Format, bool, error) {
	name := strings.ToLower(filepath.Base(path))
	compressed := strings.HasSuffix(name, compressedExt)
	name = strings.TrimSuffix(name, compressedExt)

	switch filepath.Ext(name) {
	case ".json":
		return FormatJSON, compressed, nil
	case ".yaml", ".yml":
		return FormatYAML, compressed, nil
	case ".toml":
		return FormatTOML, compressed, nil
	}
	return "", false, ckerrors.Newf(ckerrors.UnsupportedFormat,
		"cannot infer snapshot format from %q (want .json, .yaml, .yml or .toml, optionally .zst)", path)
}

// IsSnapshotPath reports whether path names a snapshot file rather than a corpus.
func IsSnapshotPath(path string) bool {
	_, _, err := ParsePath(path)
	return err == nil
}

// Encode writes doc to w in format.
func Encode(w io.Writer, doc *Document, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	case FormatTOML:
		enc := toml.NewEncoder(w)
		enc.SetIndentTables(true)
		return enc.Encode(doc)
	}
	return ckerrors.Newf(ckerrors.UnsupportedFormat, "unsupported snapshot format %q", format)
}

// Decode reads a document in format from r.
func Decode(r io.Reader, format Format) (*Document, error) {
	var doc Document
	var err error
	switch format {
	case FormatJSON:
		err = json.NewDecoder(r).Decode(&doc)
	case FormatYAML:
		err = yaml.NewDecoder(r).Decode(&doc)
	case FormatTOML:
		err = toml.NewDecoder(r).Decode(&doc)
	default:
		return nil, ckerrors.Newf(ckerrors.UnsupportedFormat, "unsupported snapshot format %q", format)
	}
	if err != nil {
		return nil, ckerrors.New(ckerrors.SnapshotUnreadable, fmt.Sprintf("decoding %s snapshot", format), err)
	}
	return &doc, nil
}

// Save writes reg to path, creating parent directories.
func Save(path string, reg *registry.Registry, source string) error {
	format, compressed, err := ParsePath(path)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := Encode(&buf, NewDocument(reg, source), format); err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	data := buf.Bytes()
	if compressed {
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return err
		}
		data = enc.EncodeAll(data, nil)
		_ = enc.Close()
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}

// Load reads the snapshot at path.
func Load(path string) (*Document, error) {
	format, compressed, err := ParsePath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, ckerrors.New(ckerrors.SnapshotUnreadable, fmt.Sprintf("cannot open snapshot %s", path), err)
	}
	defer f.Close()

	var r io.Reader = f
	if compressed {
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, ckerrors.New(ckerrors.SnapshotUnreadable, fmt.Sprintf("cannot decompress %s", path), err)
		}
		defer dec.Close()
		r = dec
	}

	return Decode(r, format)
}

// LoadRegistry reads the snapshot at path and builds its registry.
func LoadRegistry(path string) (*registry.Registry, error) {
	doc, err := Load(path)
	if err != nil {
		return nil, err
	}
	return doc.Registry()
}
