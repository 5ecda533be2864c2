package xsdtree

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/agentflare-ai/go-xmldom"
)

// XSDNamespace is the XML Schema namespace
const XSDNamespace = "http://www.w3.org/2001/XMLSchema"

// XMLNamespace is the namespace bound to the xml prefix.
const XMLNamespace = "http://www.w3.org/XML/1998/namespace"

// Unbounded is the MaxOccurs value of maxOccurs="unbounded".
const Unbounded = -1

// Schema is a parsed XSD schema. It is immutable once Parse returns and may be
// shared by concurrent Flatten and Template calls.
type Schema struct {
	TargetNamespace string
	ElementDecls    map[QName]*ElementDecl
	TypeDefs        map[QName]Type
	AttributeDecls  map[QName]*AttributeDecl
	AttributeGroups map[QName]*AttributeGroup
	Groups          map[QName]*ModelGroup
	Imports         []*Import

	// xmlns declarations of the schema element; "" keys the default namespace
	bindings map[string]string

	// collected during the first pass, linked in resolveReferences
	elementDecls []*ElementDecl
	complexTypes []*ComplexType
	simpleTypes  []*SimpleType
	attributes   []*AttributeDecl
	modelGroups  []*ModelGroup
}

// QName represents a qualified XML name
type QName struct {
	Namespace string
	Local     string
}

// String returns the string representation of a QName
func (q QName) String() string {
	if q.Namespace == "" {
		return q.Local
	}
	return fmt.Sprintf("{%s}%s", q.Namespace, q.Local)
}

// IsZero reports whether q names nothing.
func (q QName) IsZero() bool { return q.Local == "" }

// ElementDecl represents an element declaration, global or local.
type ElementDecl struct {
	Name     QName
	TypeName QName // value of the type attribute, zero for inline or absent types
	Type     Type
	Nillable bool
	Abstract bool
	Default  string
	Fixed    string
}

// Type is implemented by *SimpleType and *ComplexType.
type Type interface {
	// Name is the declared name; zero for anonymous types.
	Name() QName
	// BaseName is the name of the type this one derives from, if any.
	BaseName() QName
	IsComplex() bool
	AsComplex() *ComplexType
	AsSimple() *SimpleType
}

// SimpleType represents an XSD simple type
type SimpleType struct {
	QName       QName
	Restriction *RestrictionDecl
	List        *List
	Union       *Union
	Builtin     bool
	// Placeholder is set for types referenced from a namespace this schema
	// does not define (imports are not followed).
	Placeholder bool
}

// RestrictionDecl is an xs:restriction of a simple type: a base and the
// facets declared directly on it.
type RestrictionDecl struct {
	Base   QName
	Facets []Facet
}

// List represents a list type
type List struct {
	ItemType QName
}

// Union represents a union type
type Union struct {
	MemberTypes []QName
}

// DerivationMethod is how a complex type derives from its base.
type DerivationMethod string

const (
	NoDerivation      DerivationMethod = ""
	DeriveExtension   DerivationMethod = "extension"
	DeriveRestriction DerivationMethod = "restriction"
)

// ComplexType represents an XSD complex type. Content and Attributes hold what
// the declaration itself states; ContentParticle and AttributeUses give the
// effective model after derivation and attribute groups are applied.
type ComplexType struct {
	QName           QName
	Base            QName
	Derivation      DerivationMethod
	SimpleContent   bool
	Content         *Particle
	Attributes      []*AttributeDecl
	AttributeGroups []QName
	Mixed           bool
	Abstract        bool

	content    *Particle
	attrUses   []*AttributeDecl
	simpleBase *SimpleType
	state      resolveState
}

type resolveState uint8

const (
	unresolved resolveState = iota
	resolving
	resolved
)

// ModelGroupKind represents the kind of model group. The zero value marks an
// element that is not enclosed by any group.
type ModelGroupKind string

const (
	NoGroup       ModelGroupKind = ""
	SequenceGroup ModelGroupKind = "sequence"
	ChoiceGroup   ModelGroupKind = "choice"
	AllGroup      ModelGroupKind = "all"
)

// ModelGroup represents a sequence, choice or all compositor.
type ModelGroup struct {
	Kind      ModelGroupKind
	Particles []Particle
}

// TermKind tags the variant held by a Particle.
type TermKind uint8

const (
	TermElement TermKind = iota + 1
	TermElementRef
	TermGroup
	TermGroupRef
	TermWildcard
)

func (k TermKind) String() string {
	switch k {
	case TermElement:
		return "element"
	case TermElementRef:
		return "element-ref"
	case TermGroup:
		return "group"
	case TermGroupRef:
		return "group-ref"
	case TermWildcard:
		return "any"
	}
	return "term(" + strconv.Itoa(int(k)) + ")"
}

// Particle is a content-model node with occurrence bounds. Which of Element,
// Group and Wildcard is set depends on Kind; references are linked to their
// targets when the schema is parsed.
type Particle struct {
	Kind      TermKind
	MinOccurs int
	MaxOccurs int
	Ref       QName
	Element   *ElementDecl
	Group     *ModelGroup
	Wildcard  *Wildcard
}

// Wildcard represents xs:any
type Wildcard struct {
	Namespace       string
	ProcessContents string
}

// AttributeDecl represents an attribute declaration or use
type AttributeDecl struct {
	Name     QName
	Ref      QName
	TypeName QName
	Type     Type
	Use      AttributeUse
	Default  string
	Fixed    string
}

// AttributeUse represents attribute use
type AttributeUse string

const (
	OptionalUse   AttributeUse = "optional"
	RequiredUse   AttributeUse = "required"
	ProhibitedUse AttributeUse = "prohibited"
)

// AttributeGroup represents a group of attributes
type AttributeGroup struct {
	Name       QName
	Attributes []*AttributeDecl
	Groups     []QName
}

// Import represents an xs:import
type Import struct {
	Namespace      string
	SchemaLocation string
}

// LoadSchema loads and parses an XSD schema from a file
func LoadSchema(filename string) (*Schema, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	doc, err := xmldom.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse XML file: %w", err)
	}

	if err := CheckSchema(doc); err != nil {
		return nil, fmt.Errorf("invalid XSD schema %s: %w", filename, err)
	}

	return Parse(doc)
}

// ParseBytes decodes and parses an XSD schema held in memory.
func ParseBytes(data []byte) (*Schema, error) {
	doc, err := xmldom.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse XML: %w", err)
	}
	return Parse(doc)
}

// Parse parses an XSD schema from an XML document
func Parse(doc xmldom.Document) (*Schema, error) {
	if doc == nil {
		return nil, fmt.Errorf("nil document")
	}

	root := doc.DocumentElement()
	if root == nil {
		return nil, fmt.Errorf("no root element")
	}

	if string(root.NamespaceURI()) != XSDNamespace || string(root.LocalName()) != "schema" {
		return nil, fmt.Errorf("not an XSD schema document")
	}

	schema := &Schema{
		TargetNamespace: string(root.GetAttribute("targetNamespace")),
		ElementDecls:    make(map[QName]*ElementDecl),
		TypeDefs:        make(map[QName]Type),
		AttributeDecls:  make(map[QName]*AttributeDecl),
		AttributeGroups: make(map[QName]*AttributeGroup),
		Groups:          make(map[QName]*ModelGroup),
		bindings:        namespaceBindings(root),
	}

	for _, child := range xsdChildren(root) {
		var err error
		switch string(child.LocalName()) {
		case "element":
			var decl *ElementDecl
			if decl, err = schema.parseElementDecl(child); err == nil {
				schema.ElementDecls[decl.Name] = decl
			}
		case "simpleType":
			var st *SimpleType
			if st, err = schema.parseSimpleType(child); err == nil {
				schema.TypeDefs[st.QName] = st
			}
		case "complexType":
			var ct *ComplexType
			if ct, err = schema.parseComplexType(child); err == nil {
				schema.TypeDefs[ct.QName] = ct
			}
		case "attribute":
			attr := schema.parseAttribute(child)
			schema.AttributeDecls[attr.Name] = attr
		case "attributeGroup":
			ag := schema.parseAttributeGroup(child)
			schema.AttributeGroups[ag.Name] = ag
		case "group":
			err = schema.parseGroup(child)
		case "import":
			schema.Imports = append(schema.Imports, &Import{
				Namespace:      string(child.GetAttribute("namespace")),
				SchemaLocation: string(child.GetAttribute("schemaLocation")),
			})
		}
		if err != nil {
			return nil, err
		}
	}

	if err := schema.resolveReferences(); err != nil {
		return nil, err
	}
	return schema, nil
}

// ElementNames returns the local names of all global element declarations,
// sorted.
func (s *Schema) ElementNames() []string {
	names := make([]string, 0, len(s.ElementDecls))
	for name := range s.ElementDecls {
		names = append(names, name.Local)
	}
	sort.Strings(names)
	return names
}

// LookupElement finds a global element by local name, preferring the target
// namespace.
func (s *Schema) LookupElement(local string) (*ElementDecl, bool) {
	if decl, ok := s.ElementDecls[QName{Namespace: s.TargetNamespace, Local: local}]; ok {
		return decl, true
	}
	for name, decl := range s.ElementDecls {
		if name.Local == local {
			return decl, true
		}
	}
	return nil, false
}

// xsdChildren returns the child elements of elem in the XSD namespace,
// skipping annotations.
func xsdChildren(elem xmldom.Element) []xmldom.Element {
	var out []xmldom.Element
	children := elem.Children()
	for i := uint(0); i < children.Length(); i++ {
		child := children.Item(i)
		if child == nil || string(child.NamespaceURI()) != XSDNamespace {
			continue
		}
		if string(child.LocalName()) == "annotation" {
			continue
		}
		out = append(out, child)
	}
	return out
}

func (s *Schema) parseElementDecl(elem xmldom.Element) (*ElementDecl, error) {
	decl := &ElementDecl{
		Name: QName{
			Namespace: s.TargetNamespace,
			Local:     string(elem.GetAttribute("name")),
		},
		Nillable: string(elem.GetAttribute("nillable")) == "true",
		Abstract: string(elem.GetAttribute("abstract")) == "true",
		Default:  string(elem.GetAttribute("default")),
		Fixed:    string(elem.GetAttribute("fixed")),
	}

	if typeName := string(elem.GetAttribute("type")); typeName != "" {
		decl.TypeName = s.parseQName(typeName)
	}

	for _, child := range xsdChildren(elem) {
		switch string(child.LocalName()) {
		case "simpleType":
			st, err := s.parseSimpleType(child)
			if err != nil {
				return nil, err
			}
			decl.Type = st
		case "complexType":
			ct, err := s.parseComplexType(child)
			if err != nil {
				return nil, err
			}
			decl.Type = ct
		}
	}

	s.elementDecls = append(s.elementDecls, decl)
	return decl, nil
}

func (s *Schema) parseSimpleType(elem xmldom.Element) (*SimpleType, error) {
	st := &SimpleType{}
	if name := string(elem.GetAttribute("name")); name != "" {
		st.QName = QName{Namespace: s.TargetNamespace, Local: name}
	}

	for _, child := range xsdChildren(elem) {
		switch string(child.LocalName()) {
		case "restriction":
			r, err := s.parseSimpleRestriction(child)
			if err != nil {
				return nil, err
			}
			st.Restriction = r
		case "list":
			st.List = &List{ItemType: s.parseQName(string(child.GetAttribute("itemType")))}
		case "union":
			u := &Union{}
			for _, t := range strings.Fields(string(child.GetAttribute("memberTypes"))) {
				u.MemberTypes = append(u.MemberTypes, s.parseQName(t))
			}
			st.Union = u
		}
	}

	s.simpleTypes = append(s.simpleTypes, st)
	return st, nil
}

func (s *Schema) parseSimpleRestriction(elem xmldom.Element) (*RestrictionDecl, error) {
	r := &RestrictionDecl{}
	if base := string(elem.GetAttribute("base")); base != "" {
		r.Base = s.parseQName(base)
	}

	for _, child := range xsdChildren(elem) {
		name := string(child.LocalName())
		if name == "simpleType" {
			// anonymous base: keep its base name so the derived type still has one
			st, err := s.parseSimpleType(child)
			if err != nil {
				return nil, err
			}
			if r.Base.IsZero() && st.Restriction != nil {
				r.Base = st.Restriction.Base
			}
			continue
		}
		if kind, ok := parseFacetKind(name); ok {
			r.Facets = append(r.Facets, Facet{Kind: kind, Value: string(child.GetAttribute("value"))})
		}
	}
	return r, nil
}

func (s *Schema) parseComplexType(elem xmldom.Element) (*ComplexType, error) {
	ct := &ComplexType{
		Mixed:    string(elem.GetAttribute("mixed")) == "true",
		Abstract: string(elem.GetAttribute("abstract")) == "true",
	}
	if name := string(elem.GetAttribute("name")); name != "" {
		ct.QName = QName{Namespace: s.TargetNamespace, Local: name}
	}

	if err := s.parseComplexBody(elem, ct); err != nil {
		return nil, err
	}

	s.complexTypes = append(s.complexTypes, ct)
	return ct, nil
}

// parseComplexBody reads content, attributes and derivation shared by
// xs:complexType and the extension/restriction inside its content children.
func (s *Schema) parseComplexBody(elem xmldom.Element, ct *ComplexType) error {
	for _, child := range xsdChildren(elem) {
		switch name := string(child.LocalName()); name {
		case "simpleContent", "complexContent":
			ct.SimpleContent = name == "simpleContent"
			if string(child.GetAttribute("mixed")) == "true" {
				ct.Mixed = true
			}
			for _, deriv := range xsdChildren(child) {
				switch method := string(deriv.LocalName()); method {
				case "extension", "restriction":
					ct.Base = s.parseQName(string(deriv.GetAttribute("base")))
					ct.Derivation = DerivationMethod(method)
					if err := s.parseComplexBody(deriv, ct); err != nil {
						return err
					}
				default:
					return &ShapeError{Location: location(child), Message: fmt.Sprintf("unexpected %s in %s", method, name)}
				}
			}
		case "sequence", "choice", "all":
			mg, err := s.parseModelGroup(child)
			if err != nil {
				return err
			}
			ct.Content = &Particle{
				Kind:      TermGroup,
				MinOccurs: s.parseOccurs(child, "minOccurs", 1),
				MaxOccurs: s.parseOccurs(child, "maxOccurs", 1),
				Group:     mg,
			}
		case "group":
			ct.Content = &Particle{
				Kind:      TermGroupRef,
				MinOccurs: s.parseOccurs(child, "minOccurs", 1),
				MaxOccurs: s.parseOccurs(child, "maxOccurs", 1),
				Ref:       s.parseQName(string(child.GetAttribute("ref"))),
			}
		case "attribute":
			ct.Attributes = append(ct.Attributes, s.parseAttribute(child))
		case "attributeGroup":
			if ref := string(child.GetAttribute("ref")); ref != "" {
				ct.AttributeGroups = append(ct.AttributeGroups, s.parseQName(ref))
			}
		}
	}
	return nil
}

func (s *Schema) parseModelGroup(elem xmldom.Element) (*ModelGroup, error) {
	mg := &ModelGroup{}

	switch string(elem.LocalName()) {
	case "sequence":
		mg.Kind = SequenceGroup
	case "choice":
		mg.Kind = ChoiceGroup
	case "all":
		mg.Kind = AllGroup
	default:
		return nil, &ShapeError{Location: location(elem), Message: "unknown compositor"}
	}

	for _, child := range xsdChildren(elem) {
		minOcc := s.parseOccurs(child, "minOccurs", 1)
		maxOcc := s.parseOccurs(child, "maxOccurs", 1)

		switch name := string(child.LocalName()); name {
		case "element":
			if ref := string(child.GetAttribute("ref")); ref != "" {
				mg.Particles = append(mg.Particles, Particle{
					Kind:      TermElementRef,
					MinOccurs: minOcc,
					MaxOccurs: maxOcc,
					Ref:       s.parseQName(ref),
				})
				continue
			}
			decl, err := s.parseElementDecl(child)
			if err != nil {
				return nil, err
			}
			mg.Particles = append(mg.Particles, Particle{
				Kind:      TermElement,
				MinOccurs: minOcc,
				MaxOccurs: maxOcc,
				Element:   decl,
			})
		case "group":
			mg.Particles = append(mg.Particles, Particle{
				Kind:      TermGroupRef,
				MinOccurs: minOcc,
				MaxOccurs: maxOcc,
				Ref:       s.parseQName(string(child.GetAttribute("ref"))),
			})
		case "sequence", "choice", "all":
			nested, err := s.parseModelGroup(child)
			if err != nil {
				return nil, err
			}
			mg.Particles = append(mg.Particles, Particle{
				Kind:      TermGroup,
				MinOccurs: minOcc,
				MaxOccurs: maxOcc,
				Group:     nested,
			})
		case "any":
			mg.Particles = append(mg.Particles, Particle{
				Kind:      TermWildcard,
				MinOccurs: minOcc,
				MaxOccurs: maxOcc,
				Wildcard: &Wildcard{
					Namespace:       string(child.GetAttribute("namespace")),
					ProcessContents: string(child.GetAttribute("processContents")),
				},
			})
		default:
			return nil, &ShapeError{
				Location: location(child),
				Message:  fmt.Sprintf("%s is not allowed inside %s", name, mg.Kind),
			}
		}
	}

	s.modelGroups = append(s.modelGroups, mg)
	return mg, nil
}

// parseOccurs parses minOccurs/maxOccurs attributes
func (s *Schema) parseOccurs(elem xmldom.Element, attr string, defaultValue int) int {
	value := string(elem.GetAttribute(xmldom.DOMString(attr)))
	if value == "" {
		return defaultValue
	}
	if value == "unbounded" {
		return Unbounded
	}
	if n, err := strconv.Atoi(value); err == nil {
		return n
	}
	return defaultValue
}

func (s *Schema) parseAttribute(elem xmldom.Element) *AttributeDecl {
	attr := &AttributeDecl{
		Use:     OptionalUse,
		Default: string(elem.GetAttribute("default")),
		Fixed:   string(elem.GetAttribute("fixed")),
	}
	if name := string(elem.GetAttribute("name")); name != "" {
		attr.Name = QName{Namespace: s.TargetNamespace, Local: name}
	}
	if ref := string(elem.GetAttribute("ref")); ref != "" {
		attr.Ref = s.parseQName(ref)
		attr.Name = attr.Ref
	}
	if use := string(elem.GetAttribute("use")); use != "" {
		attr.Use = AttributeUse(use)
	}
	if typeName := string(elem.GetAttribute("type")); typeName != "" {
		attr.TypeName = s.parseQName(typeName)
	}
	for _, child := range xsdChildren(elem) {
		if string(child.LocalName()) == "simpleType" {
			if st, err := s.parseSimpleType(child); err == nil {
				attr.Type = st
			}
		}
	}

	s.attributes = append(s.attributes, attr)
	return attr
}

func (s *Schema) parseAttributeGroup(elem xmldom.Element) *AttributeGroup {
	ag := &AttributeGroup{
		Name: QName{
			Namespace: s.TargetNamespace,
			Local:     string(elem.GetAttribute("name")),
		},
	}

	for _, child := range xsdChildren(elem) {
		switch string(child.LocalName()) {
		case "attribute":
			ag.Attributes = append(ag.Attributes, s.parseAttribute(child))
		case "attributeGroup":
			if ref := string(child.GetAttribute("ref")); ref != "" {
				ag.Groups = append(ag.Groups, s.parseQName(ref))
			}
		}
	}
	return ag
}

func (s *Schema) parseGroup(elem xmldom.Element) error {
	name := string(elem.GetAttribute("name"))
	if name == "" {
		return nil
	}

	for _, child := range xsdChildren(elem) {
		switch string(child.LocalName()) {
		case "sequence", "choice", "all":
			mg, err := s.parseModelGroup(child)
			if err != nil {
				return err
			}
			s.Groups[QName{Namespace: s.TargetNamespace, Local: name}] = mg
			return nil
		}
	}
	return nil
}

// parseQName resolves a QName attribute value against the namespace
// declarations of the schema element. Unprefixed names take the default
// namespace, or the target namespace when none is declared.
func (s *Schema) parseQName(name string) QName {
	if name == "" {
		return QName{}
	}

	prefix, local, ok := strings.Cut(name, ":")
	if !ok {
		prefix, local = "", name
	}
	if prefix == "xml" {
		return QName{Namespace: XMLNamespace, Local: local}
	}
	if ns, ok := s.bindings[prefix]; ok {
		return QName{Namespace: ns, Local: local}
	}
	if prefix == "xs" || prefix == "xsd" {
		return QName{Namespace: XSDNamespace, Local: local}
	}

	// undeclared prefix: assume the target namespace
	return QName{Namespace: s.TargetNamespace, Local: local}
}

// namespaceBindings collects the xmlns declarations on elem by prefix.
func namespaceBindings(elem xmldom.Element) map[string]string {
	bindings := make(map[string]string)
	attrs := elem.Attributes()
	for i := uint(0); i < attrs.Length(); i++ {
		attr := attrs.Item(i)
		if attr == nil {
			continue
		}
		name := string(attr.NodeName())
		switch {
		case name == "xmlns":
			bindings[""] = string(attr.NodeValue())
		case string(attr.NamespaceURI()) == "xmlns":
			bindings[string(attr.LocalName())] = string(attr.NodeValue())
		case strings.HasPrefix(name, "xmlns:"):
			bindings[strings.TrimPrefix(name, "xmlns:")] = string(attr.NodeValue())
		}
	}
	return bindings
}

// location renders an XSD element for error messages, e.g. <element name='a'>.
func location(elem xmldom.Element) string {
	name := elem.GetAttribute("name")
	if name == "" {
		name = elem.GetAttribute("ref")
	}
	loc := fmt.Sprintf("<%s", elem.LocalName())
	if name != "" {
		loc += fmt.Sprintf(" name='%s'", name)
	}
	return loc + ">"
}
