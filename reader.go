package xsdtree

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// Reader answers listing and template queries against one schema.
type Reader struct {
	schema   *Schema
	log      *logrus.Entry
	template []TemplateOption
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithLogger sets the entry diagnostics are logged to.
func WithLogger(log *logrus.Entry) ReaderOption {
	return func(r *Reader) {
		r.log = log
	}
}

// WithTemplateOptions sets options applied to every Template call.
func WithTemplateOptions(opts ...TemplateOption) ReaderOption {
	return func(r *Reader) {
		r.template = append(r.template, opts...)
	}
}

// NewReader wraps a parsed schema.
func NewReader(schema *Schema, opts ...ReaderOption) *Reader {
	r := &Reader{
		schema: schema,
		log:    logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// OpenReader loads the schema at location through cache.
func OpenReader(cache *SchemaCache, location string, opts ...ReaderOption) (*Reader, error) {
	schema, err := cache.Get(location)
	if err != nil {
		return nil, err
	}
	return NewReader(schema, opts...), nil
}

// Schema returns the underlying schema.
func (r *Reader) Schema() *Schema { return r.schema }

// ElementNames returns the names of the schema's global elements.
func (r *Reader) ElementNames() []string {
	return r.schema.ElementNames()
}

// Elements flattens the subtree at path and logs its diagnostics.
func (r *Reader) Elements(path string) (*Flattening, error) {
	f, err := r.schema.Flatten(path)
	if err != nil {
		return nil, err
	}
	r.logDiagnostics(f.Diagnostics)
	return f, nil
}

// Template synthesizes an instance skeleton of the element at path. The
// parent of path is flattened so that the element keeps the group context it
// has within its parent.
func (r *Reader) Template(path string, mode Mode) (string, error) {
	if _, err := ParseMode(string(mode)); err != nil {
		return "", err
	}

	path = strings.Trim(path, "/")
	listed := path
	if i := strings.LastIndexByte(path, '/'); i > 0 {
		listed = path[:i]
	}

	f, err := r.Elements(listed)
	if err != nil {
		return "", err
	}

	out, err := Synthesize(f.Elements(), path, mode, r.template...)
	if err != nil {
		return "", err
	}
	r.log.WithFields(logrus.Fields{
		"path": path,
		"mode": mode,
	}).Debug("template synthesized")
	return out, nil
}

func (r *Reader) logDiagnostics(diags []Diagnostic) {
	for _, d := range diags {
		entry := r.log.WithFields(logrus.Fields{
			"code": d.Code,
			"path": d.Path,
		})
		switch d.Severity {
		case SeverityError:
			entry.Error(d.Message)
		case SeverityWarning:
			entry.Warn(d.Message)
		default:
			entry.Debug(d.Message)
		}
	}
}
