package xsdtree

import (
	"errors"
	"reflect"
	"testing"
)

func restrictionOf(facets ...Facet) *SimpleType {
	return &SimpleType{Restriction: &RestrictionDecl{
		Base:   QName{Namespace: XSDNamespace, Local: "int"},
		Facets: facets,
	}}
}

func TestExtractRestriction(t *testing.T) {
	tests := []struct {
		name string
		st   *SimpleType
		want Restriction
	}{
		{
			name: "inclusive and exclusive bounds",
			st: restrictionOf(
				Facet{FacetMinInclusive, "1"},
				Facet{FacetMaxExclusive, "10"},
			),
			want: Restriction{MinValue: "1", MaxValue: "9"},
		},
		{
			name: "min exclusive",
			st:   restrictionOf(Facet{FacetMinExclusive, "-1"}),
			want: Restriction{MinValue: "0"},
		},
		{
			name: "exclusive bound beyond int64",
			st:   restrictionOf(Facet{FacetMaxExclusive, "100000000000000000000"}),
			want: Restriction{MaxValue: "99999999999999999999"},
		},
		{
			name: "enumerations and patterns keep declared order",
			st: restrictionOf(
				Facet{FacetEnumeration, "red"},
				Facet{FacetPattern, "[a-z]+"},
				Facet{FacetEnumeration, "green"},
				Facet{FacetEnumeration, "blue"},
				Facet{FacetPattern, "\\d"},
			),
			want: Restriction{
				Enumeration: []string{"red", "green", "blue"},
				Pattern:     []string{"[a-z]+", "\\d"},
			},
		},
		{
			name: "length facets copied verbatim",
			st: restrictionOf(
				Facet{FacetLength, "8"},
				Facet{FacetMinLength, "2"},
				Facet{FacetMaxLength, "16"},
				Facet{FacetTotalDigits, "5"},
				Facet{FacetWhiteSpace, "collapse"},
			),
			want: Restriction{Length: "8", MinLength: "2", MaxLength: "16", TotalDigits: "5"},
		},
		{
			name: "later bound wins",
			st: restrictionOf(
				Facet{FacetMaxInclusive, "50"},
				Facet{FacetMaxExclusive, "20"},
			),
			want: Restriction{MaxValue: "19"},
		},
		{
			name: "list type has no restriction",
			st:   &SimpleType{List: &List{ItemType: QName{Namespace: XSDNamespace, Local: "int"}}},
			want: Restriction{},
		},
		{
			name: "nil type",
			st:   nil,
			want: Restriction{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractRestriction(tt.st)
			if err != nil {
				t.Fatalf("ExtractRestriction() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractRestriction() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestExtractRestrictionCoercionError(t *testing.T) {
	tests := []struct {
		name  string
		facet Facet
	}{
		{"decimal max exclusive", Facet{FacetMaxExclusive, "10.5"}},
		{"date min exclusive", Facet{FacetMinExclusive, "2024-01-01"}},
		{"empty max exclusive", Facet{FacetMaxExclusive, ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExtractRestriction(restrictionOf(tt.facet))
			if !errors.Is(err, ErrFacetCoercion) {
				t.Fatalf("error = %v, want ErrFacetCoercion", err)
			}
			var fe *FacetCoercionError
			if !errors.As(err, &fe) || fe.Facet != string(tt.facet.Kind) || fe.Value != tt.facet.Value {
				t.Errorf("error = %#v", err)
			}
		})
	}
}

func TestRestrictionRendering(t *testing.T) {
	r := Restriction{
		MaxValue:    "9",
		MinValue:    "1",
		Pattern:     []string{"[0-9]", "x"},
		Enumeration: []string{"1", "5"},
	}

	wantString := "[MaxValue  = 9]\t[MinValue  = 1]\t[Pattern(s) = ([0-9])|(x)]\t[Values = 1, 5]\t"
	if got := r.String(); got != wantString {
		t.Errorf("String() = %q, want %q", got, wantString)
	}

	wantMap := map[string]string{
		"maxValue":     "9",
		"minValue":     "1",
		"patterns":     "[0-9]" + RestrictionDelimiter + "x",
		"enumerations": "1" + RestrictionDelimiter + "5",
	}
	if got := r.Map(); !reflect.DeepEqual(got, wantMap) {
		t.Errorf("Map() = %v, want %v", got, wantMap)
	}

	if !(Restriction{}).IsZero() {
		t.Error("zero Restriction is not IsZero")
	}
	if r.IsZero() {
		t.Error("populated Restriction is IsZero")
	}
}
