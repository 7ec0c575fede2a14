package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nikromen/pyclean/pkg/dupes"
	"github.com/nikromen/pyclean/pkg/errors"
)

// Supported output formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Formats lists the supported output formats.
func Formats() []string {
	return []string{FormatJSON, FormatYAML}
}

type report struct {
	Packages []pkg `json:"packages" yaml:"packages"`
}

type pkg struct {
	Name          string         `json:"name" yaml:"name"`
	Installations []installation `json:"installations" yaml:"installations"`
}

type installation struct {
	Manager  string   `json:"manager" yaml:"manager"`
	Package  string   `json:"package" yaml:"package"`
	Version  string   `json:"version" yaml:"version"`
	Location string   `json:"location,omitempty" yaml:"location,omitempty"`
	Files    []string `json:"files,omitempty" yaml:"files,omitempty"`
}

func newReport(d dupes.Duplicates, withFiles bool) report {
	out := report{Packages: make([]pkg, 0, d.Len())}
	for _, g := range d.Groups() {
		p := pkg{Name: g.Name, Installations: make([]installation, len(g.Records))}
		for i, r := range g.Records {
			inst := installation{
				Manager:  r.Kind.String(),
				Package:  r.PackageName,
				Version:  r.Version,
				Location: r.Location,
			}
			if withFiles {
				inst.Files = r.Files
			}
			p.Installations[i] = inst
		}
		out.Packages = append(out.Packages, p)
	}
	return out
}

// WriteJSON encodes the duplicate report as indented JSON and writes it to w.
func WriteJSON(d dupes.Duplicates, w io.Writer, withFiles bool) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(newReport(d, withFiles)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteYAML encodes the duplicate report as YAML and writes it to w.
func WriteYAML(d dupes.Duplicates, w io.Writer, withFiles bool) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(newReport(d, withFiles)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return enc.Close()
}

// ParseFormat validates an output format name, case-insensitively.
func ParseFormat(s string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(s)); f {
	case FormatJSON, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	}
	return "", errors.New(errors.ErrCodeInvalidInput, "unsupported output format %q (valid: %s)", s, strings.Join(Formats(), ", "))
}

// Write encodes the report in format, one of [Formats].
func Write(d dupes.Duplicates, w io.Writer, format string, withFiles bool) error {
	f, err := ParseFormat(format)
	if err != nil {
		return err
	}
	if f == FormatYAML {
		return WriteYAML(d, w, withFiles)
	}
	return WriteJSON(d, w, withFiles)
}

// Export writes the report to a file at path. The format is chosen by the
// file extension; anything but .yaml or .yml is written as JSON.
func Export(d dupes.Duplicates, path string, withFiles bool) error {
	format := FormatJSON
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = FormatYAML
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Write(d, f, format, withFiles); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
