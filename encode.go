package xsdtree

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	j "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Format selects how a listing is encoded.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown output format %q (expected text, json or yaml)", s)
}

// Listing is the encodable form of a flattening.
type Listing struct {
	Path        string        `json:"path" yaml:"path"`
	Elements    []ElementInfo `json:"elements" yaml:"elements"`
	Diagnostics []Diagnostic  `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}

// NewListing projects a flattening into a Listing.
func NewListing(f *Flattening) *Listing {
	return &Listing{
		Path:        f.Path,
		Elements:    f.Elements(),
		Diagnostics: f.Diagnostics,
	}
}

// Encode writes the listing in the given format.
func (l *Listing) Encode(w io.Writer, format Format) error {
	switch format {
	case FormatJSON:
		enc := j.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(l)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(l); err != nil {
			return err
		}
		return enc.Close()
	case FormatText, "":
		return l.writeText(w)
	}
	return fmt.Errorf("unknown output format %q", format)
}

// writeText writes one tab-separated line per element: path, type, occurs,
// group, required attributes and restrictions.
func (l *Listing) writeText(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for i := range l.Elements {
		e := &l.Elements[i]
		group := string(e.Group.Kind)
		if group == "" {
			group = "-"
		}
		fmt.Fprintf(bw, "%s\t%s\t%d..%s\t%s", e.Path, e.Type, e.MinOccurs, formatMax(e.MaxOccurs), group)
		if attrs := e.RequiredAttributes(); len(attrs) > 0 {
			fmt.Fprintf(bw, "\t@%s", strings.Join(attrs, ",@"))
		}
		if !e.Restrictions.IsZero() {
			fmt.Fprintf(bw, "\t%s", strings.TrimRight(e.Restrictions.String(), "\t"))
		}
		bw.WriteString("\n")
	}
	return bw.Flush()
}
