package xsdtree

import (
	"errors"
	"strings"

	"github.com/samber/lo"
)

// ItemKind tags the variant held by an Item.
type ItemKind uint8

const (
	ItemMarker ItemKind = iota + 1
	ItemElement
)

// GroupMarker announces a model group whose direct element children follow.
// Count is the number of those children; Path is the owning element. Choice
// is the ID of the choice the group is an alternative of, or 0.
type GroupMarker struct {
	Kind      ModelGroupKind
	Count     int
	MinOccurs int
	MaxOccurs int
	ID        int
	Choice    int
	Path      string
}

// Item is one entry of a flattened schema: a group marker or an element.
type Item struct {
	Kind    ItemKind
	Marker  GroupMarker
	Element *ElementInfo
}

// Flattening is the ordered result of Flatten.
type Flattening struct {
	// Path is the requested subtree path, normalized.
	Path        string
	Items       []Item
	Diagnostics []Diagnostic
}

// Elements projects the flattening onto its elements, each tagged with its
// enclosing group.
func (f *Flattening) Elements() []ElementInfo {
	return Project(f.Items)
}

type typePair struct {
	name string
	typ  Type
}

// flattener holds the state of one Flatten call.
type flattener struct {
	query   string
	items   []Item
	diags   []Diagnostic
	lineage map[typePair]int
	groups  map[*ModelGroup]int
	nextID  int
	reached int
}

// Flatten walks the content model below a global element and lists every
// element reachable from it in document order, interleaved with group
// markers. path is either a global element name or a slash-separated path
// such as "A/B/C", in which case only C and its descendants are listed while
// A and B are walked for context.
//
// Self-referential content is truncated: an element that re-enters a type
// already open in its own ancestry is listed as a leaf and reported in
// Diagnostics.
func (s *Schema) Flatten(path string) (*Flattening, error) {
	query := strings.Trim(path, "/")
	if query == "" {
		return nil, &ResolutionError{Path: path}
	}
	segments := strings.Split(query, "/")

	root, ok := s.LookupElement(segments[0])
	if !ok {
		return nil, &ResolutionError{Path: path, Segment: segments[0]}
	}

	f := &flattener{
		query:   query,
		lineage: make(map[typePair]int),
		groups:  make(map[*ModelGroup]int),
	}
	if err := f.visitElement(root, root.Name.Local, 1, 1); err != nil {
		return nil, err
	}
	if f.reached < len(segments) {
		return nil, &ResolutionError{Path: path, Segment: segments[f.reached]}
	}

	return &Flattening{Path: query, Items: f.items, Diagnostics: f.diags}, nil
}

// within reports whether path is prefix or lies below it.
func within(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// hasAncestor reports whether name is one of the segments above the last one.
func hasAncestor(path, name string) bool {
	i := strings.LastIndexByte(path, '/')
	if i < 0 {
		return false
	}
	return lo.Contains(strings.Split(path[:i], "/"), name)
}

func (f *flattener) visitElement(decl *ElementDecl, path string, minOccurs, maxOccurs int) error {
	if within(f.query, path) {
		if depth := strings.Count(path, "/") + 1; depth > f.reached {
			f.reached = depth
		}
	}

	var info *ElementInfo
	if within(path, f.query) {
		info = &ElementInfo{
			Name:      decl.Name.Local,
			Type:      typeLabel(decl.Type),
			Path:      path,
			MinOccurs: minOccurs,
			MaxOccurs: maxOccurs,
		}
		f.items = append(f.items, Item{Kind: ItemElement, Element: info})
	}

	if !decl.Type.IsComplex() {
		if info == nil {
			return nil
		}
		r, err := ExtractRestriction(decl.Type.AsSimple())
		if err != nil {
			return withPath(err, path)
		}
		info.Restrictions = r
		return nil
	}

	ct := decl.Type.AsComplex()
	if info != nil {
		info.Attributes = attributeInfos(ct)
		r, err := ExtractRestriction(ct.SimpleBase())
		if err != nil {
			return withPath(err, path)
		}
		info.Restrictions = r
	}

	content := ct.ContentParticle()
	if content == nil {
		return nil
	}

	pair := typePair{name: decl.Name.Local, typ: decl.Type}
	if f.lineage[pair] > 0 && hasAncestor(path, pair.name) {
		if info != nil {
			f.diags = append(f.diags, recursionDiagnostic(path, info.Type))
		}
		return nil
	}

	f.lineage[pair]++
	groups := f.groups
	f.groups = make(map[*ModelGroup]int)
	err := f.visitParticle(content, path, 0)
	f.groups = groups
	f.lineage[pair]--
	return err
}

// visitParticle walks p below owner. choice is the ID of the choice p is a
// direct alternative of, or 0.
func (f *flattener) visitParticle(p *Particle, owner string, choice int) error {
	switch p.Kind {
	case TermElement, TermElementRef:
		return f.visitElement(p.Element, owner+"/"+p.Element.Name.Local, p.MinOccurs, p.MaxOccurs)
	case TermGroup:
		return f.visitGroup(p.Group, owner, p.MinOccurs, p.MaxOccurs, choice)
	case TermGroupRef:
		if f.groups[p.Group] > 0 {
			if within(owner, f.query) {
				f.diags = append(f.diags, groupRecursionDiagnostic(owner, p.Ref))
			}
			return nil
		}
		f.groups[p.Group]++
		err := f.visitGroup(p.Group, owner, p.MinOccurs, p.MaxOccurs, choice)
		f.groups[p.Group]--
		return err
	case TermWildcard:
		if within(owner, f.query) {
			f.diags = append(f.diags, wildcardDiagnostic(owner, p.Wildcard))
		}
	}
	return nil
}

// visitGroup announces mg with a marker and walks its particles. A group
// without element children emits no marker and passes choice on to its
// nested groups; a choice still takes an ID so its group alternatives can
// be told apart.
func (f *flattener) visitGroup(mg *ModelGroup, owner string, minOccurs, maxOccurs, choice int) error {
	inner := choice
	if within(owner, f.query) {
		count := lo.CountBy(mg.Particles, func(p Particle) bool {
			return p.Kind == TermElement || p.Kind == TermElementRef
		})
		switch {
		case count > 0:
			f.nextID++
			f.items = append(f.items, Item{
				Kind: ItemMarker,
				Marker: GroupMarker{
					Kind:      mg.Kind,
					Count:     count,
					MinOccurs: minOccurs,
					MaxOccurs: maxOccurs,
					ID:        f.nextID,
					Choice:    choice,
					Path:      owner,
				},
			})
			inner = 0
			if mg.Kind == ChoiceGroup {
				inner = f.nextID
			}
		case mg.Kind == ChoiceGroup:
			f.nextID++
			inner = f.nextID
		}
	}

	for i := range mg.Particles {
		if err := f.visitParticle(&mg.Particles[i], owner, inner); err != nil {
			return err
		}
	}
	return nil
}

func attributeInfos(ct *ComplexType) map[string]AttributeInfo {
	uses := ct.AttributeUses()
	if len(uses) == 0 {
		return nil
	}
	attrs := make(map[string]AttributeInfo, len(uses))
	for _, attr := range uses {
		info := AttributeInfo{
			Type:    typeLabel(attr.Type),
			Use:     OptionalUse,
			Fixed:   attr.Fixed,
			Default: attr.Default,
		}
		if !attr.TypeName.IsZero() {
			info.Type = attr.TypeName.Local
		}
		if attr.Use == RequiredUse {
			info.Use = RequiredUse
		}
		attrs[attr.Name.Local] = info
	}
	return attrs
}

func withPath(err error, path string) error {
	var fe *FacetCoercionError
	if errors.As(err, &fe) {
		fe.Path = path
	}
	return err
}
