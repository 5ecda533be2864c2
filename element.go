package xsdtree

import (
	"sort"
	"strings"

	"github.com/samber/lo"
)

// AttributeInfo describes one attribute use of a listed element. Empty
// Fixed and Default mean the schema declares none.
type AttributeInfo struct {
	Type    string       `json:"type" yaml:"type"`
	Use     AttributeUse `json:"use" yaml:"use"`
	Fixed   string       `json:"fixed,omitempty" yaml:"fixed,omitempty"`
	Default string       `json:"default,omitempty" yaml:"default,omitempty"`
}

// Required reports whether the attribute must appear.
func (a AttributeInfo) Required() bool { return a.Use == RequiredUse }

// Value is what a template writes for the attribute: the fixed value, else
// the default, else nothing.
func (a AttributeInfo) Value() string {
	if a.Fixed != "" {
		return a.Fixed
	}
	return a.Default
}

// GroupInfo identifies the model group directly enclosing an element. ID is
// unique per group occurrence within one flattening; elements of the same
// choice share it. Choice is the ID of the choice the group itself is an
// alternative of, or 0.
type GroupInfo struct {
	Kind      ModelGroupKind `json:"kind,omitempty" yaml:"kind,omitempty"`
	MinOccurs int            `json:"minOccurs,omitempty" yaml:"minOccurs,omitempty"`
	MaxOccurs int            `json:"maxOccurs,omitempty" yaml:"maxOccurs,omitempty"`
	ID        int            `json:"id,omitempty" yaml:"id,omitempty"`
	Choice    int            `json:"choice,omitempty" yaml:"choice,omitempty"`
}

// ElementInfo is one element of a flattened schema subtree.
type ElementInfo struct {
	Name         string                   `json:"name" yaml:"name"`
	Type         string                   `json:"type" yaml:"type"`
	Path         string                   `json:"path" yaml:"path"`
	MinOccurs    int                      `json:"minOccurs" yaml:"minOccurs"`
	MaxOccurs    int                      `json:"maxOccurs" yaml:"maxOccurs"`
	Attributes   map[string]AttributeInfo `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	Restrictions Restriction              `json:"restrictions" yaml:"restrictions,omitempty"`
	Group        GroupInfo                `json:"group" yaml:"group,omitempty"`
}

// Depth is the number of ancestors between the element and the traversal
// root; the root itself has depth 0.
func (e *ElementInfo) Depth() int {
	return strings.Count(e.Path, "/")
}

// IsOptional reports whether the element may be omitted, either because its
// own minOccurs is 0 or because its enclosing group's is.
func (e *ElementInfo) IsOptional() bool {
	return e.MinOccurs == 0 || (e.Group.Kind != NoGroup && e.Group.MinOccurs == 0)
}

// HasAttribute reports whether the element declares the named attribute.
func (e *ElementInfo) HasAttribute(name string) bool {
	_, ok := e.Attributes[name]
	return ok
}

// RequiredAttributes returns the names of required attributes, sorted.
func (e *ElementInfo) RequiredAttributes() []string {
	return lo.Filter(sortedKeys(e.Attributes), func(name string, _ int) bool {
		return e.Attributes[name].Required()
	})
}

func sortedKeys(attrs map[string]AttributeInfo) []string {
	keys := lo.Keys(attrs)
	sort.Strings(keys)
	return keys
}

var attrEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"'", "&apos;",
)

// OpenTag renders the element's start tag with its required attributes.
func (e *ElementInfo) OpenTag() string {
	var b strings.Builder
	b.WriteString("<")
	b.WriteString(e.Name)
	for _, name := range e.RequiredAttributes() {
		b.WriteString(" ")
		b.WriteString(name)
		b.WriteString("='")
		b.WriteString(attrEscaper.Replace(e.Attributes[name].Value()))
		b.WriteString("'")
	}
	b.WriteString(">")
	return b.String()
}

// CloseTag renders the element's end tag.
func (e *ElementInfo) CloseTag() string {
	return "</" + e.Name + ">"
}

// String renders the element as an empty start/end tag pair.
func (e *ElementInfo) String() string {
	return e.OpenTag() + e.CloseTag()
}
