package xsdtree

import (
	"fmt"
)

// Name returns the declared name, zero for anonymous types.
func (st *SimpleType) Name() QName { return st.QName }

// BaseName returns the restriction base, or anySimpleType for lists and unions.
func (st *SimpleType) BaseName() QName {
	switch {
	case st.Restriction != nil:
		return st.Restriction.Base
	case st.List != nil, st.Union != nil:
		return QName{Namespace: XSDNamespace, Local: "anySimpleType"}
	}
	return QName{}
}

func (st *SimpleType) IsComplex() bool          { return false }
func (st *SimpleType) AsComplex() *ComplexType  { return nil }
func (st *SimpleType) AsSimple() *SimpleType    { return st }
func (ct *ComplexType) IsComplex() bool         { return true }
func (ct *ComplexType) AsComplex() *ComplexType { return ct }
func (ct *ComplexType) AsSimple() *SimpleType   { return nil }

// Name returns the declared name, zero for anonymous types.
func (ct *ComplexType) Name() QName { return ct.QName }

// BaseName returns the derivation base; types without one derive from anyType.
func (ct *ComplexType) BaseName() QName {
	if !ct.Base.IsZero() {
		return ct.Base
	}
	if ct == anyType {
		return QName{}
	}
	return anyType.QName
}

// ContentParticle returns the effective content model, including content
// inherited by extension. It is nil for empty and simple content.
func (ct *ComplexType) ContentParticle() *Particle { return ct.content }

// AttributeUses returns the effective attributes: declared ones, those pulled
// in through attribute groups and those inherited from the base type.
// Prohibited attributes are omitted.
func (ct *ComplexType) AttributeUses() []*AttributeDecl { return ct.attrUses }

// SimpleBase returns the simple type a simpleContent type ultimately derives
// its value space from, or nil.
func (ct *ComplexType) SimpleBase() *SimpleType { return ct.simpleBase }

// typeLabel names a type the way listings report it: the declared name, or
// the base type name for anonymous types.
func typeLabel(t Type) string {
	if t == nil {
		return anyType.QName.Local
	}
	if name := t.Name(); !name.IsZero() {
		return name.Local
	}
	if base := t.BaseName(); !base.IsZero() {
		return base.Local
	}
	if t.IsComplex() {
		return anyType.QName.Local
	}
	return "anySimpleType"
}

// resolveReferences links type names, element and group refs, and computes
// the effective content of every complex type.
func (s *Schema) resolveReferences() error {
	for _, decl := range s.elementDecls {
		if decl.Type != nil {
			continue
		}
		if decl.TypeName.IsZero() {
			decl.Type = anyType
			continue
		}
		t, err := s.lookupType(decl.TypeName)
		if err != nil {
			return fmt.Errorf("element %s: %w", decl.Name.Local, err)
		}
		decl.Type = t
	}

	// declarations before references so a ref can copy the resolved type
	for _, attr := range s.attributes {
		if attr.Ref.IsZero() {
			if err := s.resolveAttributeType(attr); err != nil {
				return err
			}
		}
	}
	for _, attr := range s.attributes {
		if !attr.Ref.IsZero() {
			if err := s.resolveAttributeRef(attr); err != nil {
				return err
			}
		}
	}

	for _, mg := range s.modelGroups {
		for i := range mg.Particles {
			if err := s.resolveParticle(&mg.Particles[i]); err != nil {
				return err
			}
		}
	}
	for _, ct := range s.complexTypes {
		if ct.Content != nil {
			if err := s.resolveParticle(ct.Content); err != nil {
				return err
			}
		}
	}
	for _, ct := range s.complexTypes {
		if err := s.deriveComplexType(ct); err != nil {
			return err
		}
	}
	return nil
}

func (s *Schema) lookupType(name QName) (Type, error) {
	if name.Namespace == XSDNamespace {
		if t := GetBuiltinType(name.Local); t != nil {
			return t, nil
		}
		return nil, fmt.Errorf("%w: unknown built-in type %s", ErrUnresolvedReference, name.Local)
	}
	if t, ok := s.TypeDefs[name]; ok {
		return t, nil
	}
	if name.Namespace != s.TargetNamespace {
		return &SimpleType{QName: name, Placeholder: true}, nil
	}
	return nil, fmt.Errorf("%w: type %s", ErrUnresolvedReference, name)
}

func (s *Schema) resolveAttributeType(attr *AttributeDecl) error {
	if attr.Type != nil {
		return nil
	}
	if attr.TypeName.IsZero() {
		attr.Type = builtinTypes["anySimpleType"]
		return nil
	}
	t, err := s.lookupType(attr.TypeName)
	if err != nil {
		return fmt.Errorf("attribute %s: %w", attr.Name.Local, err)
	}
	attr.Type = t
	return nil
}

func (s *Schema) resolveAttributeRef(attr *AttributeDecl) error {
	global, ok := s.AttributeDecls[attr.Ref]
	if !ok {
		if attr.Ref.Namespace == s.TargetNamespace {
			return fmt.Errorf("%w: attribute %s", ErrUnresolvedReference, attr.Ref)
		}
		// xml:lang and friends
		attr.Type = builtinTypes["anySimpleType"]
		return nil
	}
	attr.TypeName = global.TypeName
	attr.Type = global.Type
	if attr.Fixed == "" {
		attr.Fixed = global.Fixed
	}
	if attr.Default == "" {
		attr.Default = global.Default
	}
	return nil
}

func (s *Schema) resolveParticle(p *Particle) error {
	switch p.Kind {
	case TermElementRef:
		if decl, ok := s.ElementDecls[p.Ref]; ok {
			p.Element = decl
			return nil
		}
		if p.Ref.Namespace == s.TargetNamespace {
			return fmt.Errorf("%w: element %s", ErrUnresolvedReference, p.Ref)
		}
		p.Element = &ElementDecl{Name: p.Ref, Type: anyType}
	case TermGroupRef:
		if mg, ok := s.Groups[p.Ref]; ok {
			p.Group = mg
			return nil
		}
		if p.Ref.Namespace == s.TargetNamespace {
			return fmt.Errorf("%w: group %s", ErrUnresolvedReference, p.Ref)
		}
		p.Group = &ModelGroup{Kind: SequenceGroup}
	}
	return nil
}

func (s *Schema) deriveComplexType(ct *ComplexType) error {
	switch ct.state {
	case resolved:
		return nil
	case resolving:
		return &ShapeError{
			Location: fmt.Sprintf("<complexType name='%s'>", ct.QName.Local),
			Message:  "circular type derivation",
		}
	}
	ct.state = resolving

	own, err := s.expandAttributeGroups(ct.Attributes, ct.AttributeGroups, map[QName]bool{})
	if err != nil {
		return err
	}

	var baseContent *Particle
	var baseAttrs []*AttributeDecl
	if !ct.Base.IsZero() {
		base, err := s.lookupType(ct.Base)
		if err != nil {
			return fmt.Errorf("complexType %s: %w", ct.QName.Local, err)
		}
		switch b := base.(type) {
		case *ComplexType:
			if err := s.deriveComplexType(b); err != nil {
				return err
			}
			baseContent = b.content
			baseAttrs = b.attrUses
			ct.simpleBase = b.simpleBase
		case *SimpleType:
			ct.simpleBase = b
		}
	}

	switch ct.Derivation {
	case DeriveExtension:
		ct.content = concatContent(baseContent, ct.Content)
	default:
		ct.content = ct.Content
	}
	if ct.SimpleContent {
		ct.content = nil
	}

	merged := mergeAttributes(baseAttrs, own)
	ct.attrUses = ct.attrUses[:0]
	for _, attr := range merged {
		if attr.Use != ProhibitedUse {
			ct.attrUses = append(ct.attrUses, attr)
		}
	}

	ct.state = resolved
	return nil
}

// concatContent appends an extension's content to its base content.
func concatContent(base, ext *Particle) *Particle {
	switch {
	case base == nil:
		return ext
	case ext == nil:
		return base
	}
	return &Particle{
		Kind:      TermGroup,
		MinOccurs: 1,
		MaxOccurs: 1,
		Group:     &ModelGroup{Kind: SequenceGroup, Particles: []Particle{*base, *ext}},
	}
}

func (s *Schema) expandAttributeGroups(attrs []*AttributeDecl, groups []QName, seen map[QName]bool) ([]*AttributeDecl, error) {
	out := append([]*AttributeDecl(nil), attrs...)
	for _, name := range groups {
		if seen[name] {
			continue
		}
		seen[name] = true
		ag, ok := s.AttributeGroups[name]
		if !ok {
			if name.Namespace == s.TargetNamespace {
				return nil, fmt.Errorf("%w: attributeGroup %s", ErrUnresolvedReference, name)
			}
			continue
		}
		nested, err := s.expandAttributeGroups(ag.Attributes, ag.Groups, seen)
		if err != nil {
			return nil, err
		}
		out = append(out, nested...)
	}
	return out, nil
}

// mergeAttributes overlays derived attributes on inherited ones by name.
func mergeAttributes(base, derived []*AttributeDecl) []*AttributeDecl {
	out := make([]*AttributeDecl, 0, len(base)+len(derived))
	index := make(map[QName]int, len(base)+len(derived))
	for _, list := range [][]*AttributeDecl{base, derived} {
		for _, attr := range list {
			if i, ok := index[attr.Name]; ok {
				out[i] = attr
				continue
			}
			index[attr.Name] = len(out)
			out = append(out, attr)
		}
	}
	return out
}
