package xsdtree

import (
	"math/big"
	"strings"
)

// FacetKind names a constraining facet.
type FacetKind string

const (
	FacetEnumeration    FacetKind = "enumeration"
	FacetPattern        FacetKind = "pattern"
	FacetMaxInclusive   FacetKind = "maxInclusive"
	FacetMinInclusive   FacetKind = "minInclusive"
	FacetMaxExclusive   FacetKind = "maxExclusive"
	FacetMinExclusive   FacetKind = "minExclusive"
	FacetLength         FacetKind = "length"
	FacetMinLength      FacetKind = "minLength"
	FacetMaxLength      FacetKind = "maxLength"
	FacetTotalDigits    FacetKind = "totalDigits"
	FacetFractionDigits FacetKind = "fractionDigits"
	FacetWhiteSpace     FacetKind = "whiteSpace"
)

var facetKinds = map[string]FacetKind{
	"enumeration":    FacetEnumeration,
	"pattern":        FacetPattern,
	"maxInclusive":   FacetMaxInclusive,
	"minInclusive":   FacetMinInclusive,
	"maxExclusive":   FacetMaxExclusive,
	"minExclusive":   FacetMinExclusive,
	"length":         FacetLength,
	"minLength":      FacetMinLength,
	"maxLength":      FacetMaxLength,
	"totalDigits":    FacetTotalDigits,
	"fractionDigits": FacetFractionDigits,
	"whiteSpace":     FacetWhiteSpace,
}

func parseFacetKind(name string) (FacetKind, bool) {
	kind, ok := facetKinds[name]
	return kind, ok
}

// Facet is a facet declared on a simple type restriction.
type Facet struct {
	Kind  FacetKind
	Value string
}

// RestrictionDelimiter joins enumeration and pattern values in Restriction.Map.
const RestrictionDelimiter = "###___###"

// Restriction summarizes the value constraints of a simple type. Bounds are
// inclusive; exclusive bounds are shifted by one when extracted. Empty fields
// are absent.
type Restriction struct {
	MaxValue    string   `json:"maxValue,omitempty" yaml:"maxValue,omitempty"`
	MinValue    string   `json:"minValue,omitempty" yaml:"minValue,omitempty"`
	Length      string   `json:"length,omitempty" yaml:"length,omitempty"`
	MaxLength   string   `json:"maxLength,omitempty" yaml:"maxLength,omitempty"`
	MinLength   string   `json:"minLength,omitempty" yaml:"minLength,omitempty"`
	TotalDigits string   `json:"totalDigits,omitempty" yaml:"totalDigits,omitempty"`
	Enumeration []string `json:"enumeration,omitempty" yaml:"enumeration,omitempty"`
	Pattern     []string `json:"pattern,omitempty" yaml:"pattern,omitempty"`
}

// ExtractRestriction collects the facets declared directly on st. Facets
// inherited from the base type are not consulted. Types that are not
// restrictions (lists, unions, placeholders) yield an empty Restriction.
func ExtractRestriction(st *SimpleType) (Restriction, error) {
	var r Restriction
	if st == nil || st.Restriction == nil {
		return r, nil
	}

	for _, facet := range st.Restriction.Facets {
		switch facet.Kind {
		case FacetEnumeration:
			r.Enumeration = append(r.Enumeration, facet.Value)
		case FacetPattern:
			r.Pattern = append(r.Pattern, facet.Value)
		case FacetMaxInclusive:
			r.MaxValue = facet.Value
		case FacetMinInclusive:
			r.MinValue = facet.Value
		case FacetMaxExclusive:
			v, err := shiftBound(facet, -1)
			if err != nil {
				return Restriction{}, err
			}
			r.MaxValue = v
		case FacetMinExclusive:
			v, err := shiftBound(facet, 1)
			if err != nil {
				return Restriction{}, err
			}
			r.MinValue = v
		case FacetLength:
			r.Length = facet.Value
		case FacetMaxLength:
			r.MaxLength = facet.Value
		case FacetMinLength:
			r.MinLength = facet.Value
		case FacetTotalDigits:
			r.TotalDigits = facet.Value
		}
	}
	return r, nil
}

// shiftBound turns an exclusive integer bound into the inclusive one.
func shiftBound(facet Facet, delta int64) (string, error) {
	n, ok := new(big.Int).SetString(strings.TrimSpace(facet.Value), 10)
	if !ok {
		return "", &FacetCoercionError{Facet: string(facet.Kind), Value: facet.Value}
	}
	return n.Add(n, big.NewInt(delta)).String(), nil
}

// IsZero reports whether no facet was recorded.
func (r Restriction) IsZero() bool {
	return r.MaxValue == "" && r.MinValue == "" && r.Length == "" &&
		r.MaxLength == "" && r.MinLength == "" && r.TotalDigits == "" &&
		len(r.Enumeration) == 0 && len(r.Pattern) == 0
}

// Map renders the restriction as a flat key/value map. Enumeration and
// pattern lists are joined with RestrictionDelimiter under the keys
// "enumerations" and "patterns".
func (r Restriction) Map() map[string]string {
	m := make(map[string]string)
	set := func(key, value string) {
		if value != "" {
			m[key] = value
		}
	}
	set("maxValue", r.MaxValue)
	set("minValue", r.MinValue)
	set("length", r.Length)
	set("maxLength", r.MaxLength)
	set("minLength", r.MinLength)
	set("totalDigits", r.TotalDigits)
	if len(r.Enumeration) > 0 {
		m["enumerations"] = strings.Join(r.Enumeration, RestrictionDelimiter)
	}
	if len(r.Pattern) > 0 {
		m["patterns"] = strings.Join(r.Pattern, RestrictionDelimiter)
	}
	return m
}

// String renders the restriction as bracketed, tab-separated fields, e.g.
// "[MaxValue  = 9]\t[Values = a, b]\t".
func (r Restriction) String() string {
	var b strings.Builder
	field := func(label, value string) {
		if value != "" {
			b.WriteString("[" + label + " = " + value + "]\t")
		}
	}
	field("MaxValue ", r.MaxValue)
	field("MinValue ", r.MinValue)
	field("MaxLength", r.MaxLength)
	field("MinLength", r.MinLength)
	if len(r.Pattern) > 0 {
		field("Pattern(s)", "("+strings.Join(r.Pattern, ")|(")+")")
	}
	field("TotalDigits", r.TotalDigits)
	field("Length", r.Length)
	if len(r.Enumeration) > 0 {
		field("Values", strings.Join(r.Enumeration, ", "))
	}
	return b.String()
}
