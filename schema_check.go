package xsdtree

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/agentflare-ai/go-xmldom"
)

// shapeChecker collects structural problems of an XSD document.
type shapeChecker struct {
	errs []error
}

// CheckSchema reports structural problems in an XSD document that Parse would
// misread: unknown XSD elements, bad occurrence bounds, missing names and
// bases, and conflicting attributes. All problems are returned joined; each
// is a *ShapeError.
func CheckSchema(doc xmldom.Document) error {
	if doc == nil {
		return &ShapeError{Message: "nil document"}
	}
	root := doc.DocumentElement()
	if root == nil {
		return &ShapeError{Message: "no root element"}
	}

	sc := &shapeChecker{}
	if string(root.NamespaceURI()) != XSDNamespace || string(root.LocalName()) != "schema" {
		sc.addErrorAt(root, "document root must be xs:schema element")
		return errors.Join(sc.errs...)
	}
	sc.checkElement(root)
	return errors.Join(sc.errs...)
}

// CheckSchemaFile decodes and checks an XSD file.
func CheckSchemaFile(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	doc, err := xmldom.Decode(file)
	if err != nil {
		return fmt.Errorf("failed to parse schema file: %w", err)
	}
	return CheckSchema(doc)
}

func (sc *shapeChecker) checkElement(elem xmldom.Element) {
	if string(elem.NamespaceURI()) == XSDNamespace {
		switch name := string(elem.LocalName()); name {
		case "schema", "annotation", "documentation", "appinfo",
			"import", "include", "redefine", "notation", "anyAttribute",
			"unique", "key", "keyref", "selector", "field", "union":
		case "simpleType":
			sc.checkSimpleType(elem)
		case "complexType":
			sc.checkComplexType(elem)
		case "element":
			sc.checkElementDecl(elem)
		case "attribute":
			sc.checkAttributeDecl(elem)
		case "restriction", "extension":
			if elem.GetAttribute("base") == "" && !hasXSDChild(elem, "simpleType") {
				sc.addErrorAt(elem, fmt.Sprintf("%s must have either 'base' attribute or inline simpleType", name))
			}
		case "sequence", "choice", "all":
			sc.checkModelGroup(elem)
		case "group":
			sc.checkNameOrRef(elem)
			sc.checkOccurrences(elem)
		case "attributeGroup":
			sc.checkNameOrRef(elem)
		case "any":
			sc.checkOccurrences(elem)
		case "list":
			if elem.GetAttribute("itemType") == "" && !hasXSDChild(elem, "simpleType") {
				sc.addErrorAt(elem, "list must have either 'itemType' attribute or inline simpleType element")
			}
		case "simpleContent", "complexContent":
			if hasXSDChild(elem, "restriction") == hasXSDChild(elem, "extension") {
				sc.addErrorAt(elem, fmt.Sprintf("%s must have exactly one restriction or extension child", name))
			}
		default:
			if _, ok := parseFacetKind(name); ok {
				if !elem.HasAttribute("value") {
					sc.addErrorAt(elem, fmt.Sprintf("%s facet must have 'value' attribute", name))
				}
				break
			}
			sc.addErrorAt(elem, fmt.Sprintf("unknown XSD element: %s", name))
		}
	}

	children := elem.Children()
	for i := uint(0); i < children.Length(); i++ {
		if child := children.Item(i); child != nil {
			sc.checkElement(child)
		}
	}
}

func (sc *shapeChecker) checkSimpleType(elem xmldom.Element) {
	if isGlobal(elem) && elem.GetAttribute("name") == "" {
		sc.addErrorAt(elem, "global simpleType must have 'name' attribute")
	}
	derivations := 0
	for _, child := range xsdChildren(elem) {
		switch string(child.LocalName()) {
		case "restriction", "list", "union":
			derivations++
		}
	}
	if derivations != 1 {
		sc.addErrorAt(elem, "simpleType must have exactly one of restriction, list or union")
	}
}

func (sc *shapeChecker) checkComplexType(elem xmldom.Element) {
	if isGlobal(elem) && elem.GetAttribute("name") == "" {
		sc.addErrorAt(elem, "global complexType must have 'name' attribute")
	}
	content, groups := 0, 0
	for _, child := range xsdChildren(elem) {
		switch string(child.LocalName()) {
		case "simpleContent", "complexContent":
			content++
		case "sequence", "choice", "all", "group":
			groups++
		}
	}
	if content > 1 || (content == 1 && groups > 0) || groups > 1 {
		sc.addErrorAt(elem, "complexType has more than one content model")
	}
}

func (sc *shapeChecker) checkElementDecl(elem xmldom.Element) {
	name := elem.GetAttribute("name")
	ref := elem.GetAttribute("ref")

	switch {
	case name == "" && ref == "":
		sc.addErrorAt(elem, "element must have either 'name' or 'ref' attribute")
	case name != "" && ref != "":
		sc.addErrorAt(elem, "element cannot have both 'name' and 'ref' attributes")
	}
	if isGlobal(elem) {
		if ref != "" {
			sc.addErrorAt(elem, "global element cannot use 'ref'")
		}
		if elem.HasAttribute("minOccurs") || elem.HasAttribute("maxOccurs") {
			sc.addErrorAt(elem, "global element cannot have occurrence bounds")
		}
	} else {
		sc.checkOccurrences(elem)
	}

	if elem.GetAttribute("type") != "" && (hasXSDChild(elem, "simpleType") || hasXSDChild(elem, "complexType")) {
		sc.addErrorAt(elem, "element cannot have both 'type' attribute and inline type definition")
	}
	if elem.GetAttribute("default") != "" && elem.GetAttribute("fixed") != "" {
		sc.addErrorAt(elem, "element cannot have both 'default' and 'fixed' attributes")
	}
}

func (sc *shapeChecker) checkAttributeDecl(elem xmldom.Element) {
	sc.checkNameOrRef(elem)

	switch use := string(elem.GetAttribute("use")); use {
	case "", string(OptionalUse), string(RequiredUse), string(ProhibitedUse):
	default:
		sc.addErrorAt(elem, fmt.Sprintf("invalid use value '%s': must be optional, required, or prohibited", use))
	}
	if elem.GetAttribute("default") != "" && elem.GetAttribute("fixed") != "" {
		sc.addErrorAt(elem, "attribute cannot have both 'default' and 'fixed' attributes")
	}
}

func (sc *shapeChecker) checkModelGroup(elem xmldom.Element) {
	sc.checkOccurrences(elem)

	if string(elem.LocalName()) != "all" {
		return
	}
	if v := string(elem.GetAttribute("minOccurs")); v != "" && v != "0" && v != "1" {
		sc.addErrorAt(elem, "xs:all minOccurs must be 0 or 1")
	}
	if v := string(elem.GetAttribute("maxOccurs")); v != "" && v != "1" {
		sc.addErrorAt(elem, "xs:all maxOccurs must be 1")
	}
	for _, child := range xsdChildren(elem) {
		if string(child.LocalName()) != "element" {
			sc.addErrorAt(child, "xs:all may only contain elements")
			continue
		}
		if v := string(child.GetAttribute("maxOccurs")); v != "" && v != "0" && v != "1" {
			sc.addErrorAt(child, "elements within xs:all must have maxOccurs of 0 or 1")
		}
	}
}

func (sc *shapeChecker) checkNameOrRef(elem xmldom.Element) {
	name := elem.GetAttribute("name")
	ref := elem.GetAttribute("ref")
	if name != "" && ref != "" {
		sc.addErrorAt(elem, fmt.Sprintf("%s cannot have both 'name' and 'ref' attributes", elem.LocalName()))
	}
	if isGlobal(elem) && name == "" {
		sc.addErrorAt(elem, fmt.Sprintf("global %s must have 'name' attribute", elem.LocalName()))
	}
	if !isGlobal(elem) && name == "" && ref == "" {
		sc.addErrorAt(elem, fmt.Sprintf("%s must have either 'name' or 'ref' attribute", elem.LocalName()))
	}
}

// checkOccurrences validates minOccurs and maxOccurs attributes
func (sc *shapeChecker) checkOccurrences(elem xmldom.Element) {
	minVal, maxVal := 1, 1

	if v := string(elem.GetAttribute("minOccurs")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			sc.addErrorAt(elem, fmt.Sprintf("invalid minOccurs value '%s': must be non-negative integer", v))
			return
		}
		minVal = n
	}

	if v := string(elem.GetAttribute("maxOccurs")); v != "" {
		if v == "unbounded" {
			return
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			sc.addErrorAt(elem, fmt.Sprintf("invalid maxOccurs value '%s': must be non-negative integer or 'unbounded'", v))
			return
		}
		maxVal = n
	}

	if minVal > maxVal {
		sc.addErrorAt(elem, fmt.Sprintf("minOccurs (%d) cannot be greater than maxOccurs (%d)", minVal, maxVal))
	}
}

func (sc *shapeChecker) addErrorAt(elem xmldom.Element, msg string) {
	sc.errs = append(sc.errs, &ShapeError{Location: location(elem), Message: msg})
}

func isGlobal(elem xmldom.Element) bool {
	parent := elem.ParentNode()
	if parent == nil {
		return false
	}
	return string(parent.LocalName()) == "schema"
}

func hasXSDChild(elem xmldom.Element, localName string) bool {
	for _, child := range xsdChildren(elem) {
		if string(child.LocalName()) == localName {
			return true
		}
	}
	return false
}
