package xsdtree

// builtinBases maps each built-in simple type to the type it is derived from.
// Primitive types derive from anySimpleType.
var builtinBases = map[string]string{
	"anySimpleType": "anyType",

	// Primitive types
	"string":       "anySimpleType",
	"boolean":      "anySimpleType",
	"decimal":      "anySimpleType",
	"float":        "anySimpleType",
	"double":       "anySimpleType",
	"duration":     "anySimpleType",
	"dateTime":     "anySimpleType",
	"time":         "anySimpleType",
	"date":         "anySimpleType",
	"gYearMonth":   "anySimpleType",
	"gYear":        "anySimpleType",
	"gMonthDay":    "anySimpleType",
	"gDay":         "anySimpleType",
	"gMonth":       "anySimpleType",
	"hexBinary":    "anySimpleType",
	"base64Binary": "anySimpleType",
	"anyURI":       "anySimpleType",
	"QName":        "anySimpleType",
	"NOTATION":     "anySimpleType",

	// Derived types - strings
	"normalizedString": "string",
	"token":            "normalizedString",
	"language":         "token",
	"Name":             "token",
	"NMTOKEN":          "token",
	"NCName":           "Name",
	"ID":               "NCName",
	"IDREF":            "NCName",
	"ENTITY":           "NCName",
	"IDREFS":           "anySimpleType",
	"ENTITIES":         "anySimpleType",
	"NMTOKENS":         "anySimpleType",

	// Derived types - numeric
	"integer":            "decimal",
	"nonPositiveInteger": "integer",
	"negativeInteger":    "nonPositiveInteger",
	"long":               "integer",
	"int":                "long",
	"short":              "int",
	"byte":               "short",
	"nonNegativeInteger": "integer",
	"unsignedLong":       "nonNegativeInteger",
	"unsignedInt":        "unsignedLong",
	"unsignedShort":      "unsignedInt",
	"unsignedByte":       "unsignedShort",
	"positiveInteger":    "nonNegativeInteger",
}

var builtinTypes = map[string]*SimpleType{}

// anyType is the ur-type: the type of elements declared without one.
var anyType = &ComplexType{
	QName: QName{Namespace: XSDNamespace, Local: "anyType"},
	Mixed: true,
	state: resolved,
}

func init() {
	for name, base := range builtinBases {
		builtinTypes[name] = &SimpleType{
			QName:       QName{Namespace: XSDNamespace, Local: name},
			Restriction: &RestrictionDecl{Base: QName{Namespace: XSDNamespace, Local: base}},
			Builtin:     true,
		}
	}
}

// GetBuiltinType returns the built-in type with the given local name, or nil.
func GetBuiltinType(name string) Type {
	if name == "anyType" {
		return anyType
	}
	if st, ok := builtinTypes[name]; ok {
		return st
	}
	return nil
}

// IsBuiltinType checks if a type name is a built-in XSD type
func IsBuiltinType(name string) bool {
	return GetBuiltinType(name) != nil
}
