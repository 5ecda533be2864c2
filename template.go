package xsdtree

import (
	"strings"

	"github.com/samber/lo"
)

// Mode is a fullness policy for template synthesis.
type Mode string

const (
	// ModeMinimum drops every optional element below the template root.
	ModeMinimum Mode = "minimum"
	// ModeMedium drops optional elements nested under a prune trigger.
	ModeMedium Mode = "medium"
	// ModeMaximum keeps every element.
	ModeMaximum Mode = "maximum"
)

// DefaultPruneTrigger is the path segment that enables pruning in medium mode.
const DefaultPruneTrigger = "admin"

// ParseMode validates a mode literal. Matching is exact.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeMinimum, ModeMedium, ModeMaximum:
		return m, nil
	}
	return "", &ModeError{Mode: s}
}

// TemplateOption configures Synthesize.
type TemplateOption func(*templateOptions)

type templateOptions struct {
	triggers []string
}

// WithPruneTriggers replaces the path segments below which medium mode drops
// optional elements.
func WithPruneTriggers(names ...string) TemplateOption {
	return func(o *templateOptions) {
		o.triggers = names
	}
}

func (o *templateOptions) prune(mode Mode, e *ElementInfo) bool {
	if !e.IsOptional() {
		return false
	}
	switch mode {
	case ModeMinimum:
		return true
	case ModeMedium:
		if lo.Contains(o.triggers, e.Name) {
			return false
		}
		segments := strings.Split(e.Path, "/")
		return lo.SomeBy(segments[:len(segments)-1], func(segment string) bool {
			return lo.Contains(o.triggers, segment)
		})
	}
	return false
}

// Synthesize renders one instance skeleton of the subtree rooted at root.
// elements is a listing as returned by Flattening.Elements; only root and its
// descendants are used, and the first of them is the template root, which
// is never dropped. An empty root uses the whole listing.
//
// Besides the mode policy, only the first kept alternative of each choice
// is written. Every element is rendered as an open tag carrying its required
// attributes followed by its matching close tag.
func Synthesize(elements []ElementInfo, root string, mode Mode, opts ...TemplateOption) (string, error) {
	if _, err := ParseMode(string(mode)); err != nil {
		return "", err
	}

	o := &templateOptions{triggers: []string{DefaultPruneTrigger}}
	for _, opt := range opts {
		opt(o)
	}

	if root = strings.Trim(root, "/"); root != "" {
		elements = lo.Filter(elements, func(e ElementInfo, _ int) bool {
			return within(e.Path, root)
		})
	}
	if len(elements) == 0 {
		return "", &ResolutionError{Path: root}
	}

	kept := make([]*ElementInfo, 0, len(elements))
	chosen := make(map[int]int)
	suppress := ""
	for i := range elements {
		e := &elements[i]
		if suppress != "" {
			if within(e.Path, suppress) {
				continue
			}
			suppress = ""
		}
		if i > 0 {
			if o.prune(mode, e) {
				suppress = e.Path
				continue
			}
			if !chooseAlternative(chosen, e) {
				suppress = e.Path
				continue
			}
		}
		kept = append(kept, e)
	}

	return nest(kept), nil
}

// chooseAlternative reports whether e lies in the first kept alternative of
// each choice it takes part in, and records that alternative. chosen maps a
// choice ID to the group ID of its kept group alternative, or 0 when an
// element alternative was kept.
func chooseAlternative(chosen map[int]int, e *ElementInfo) bool {
	if c := e.Group.Choice; c != 0 {
		if alt, ok := chosen[c]; ok && alt != e.Group.ID {
			return false
		}
		chosen[c] = e.Group.ID
	}
	if e.Group.Kind == ChoiceGroup {
		if _, ok := chosen[e.Group.ID]; ok {
			return false
		}
		chosen[e.Group.ID] = 0
	}
	return true
}

// nest writes the kept elements as balanced tags, using path depth to decide
// when to close.
func nest(kept []*ElementInfo) string {
	var b strings.Builder
	var closing []string
	var prev *ElementInfo
	prevDepth := 0

	for _, e := range kept {
		depth := e.Depth()
		switch {
		case prev == nil:
		case depth > prevDepth:
			closing = append(closing, prev.CloseTag())
		case depth < prevDepth:
			b.WriteString(prev.CloseTag())
			for k := prevDepth - depth; k > 0 && len(closing) > 0; k-- {
				b.WriteString(closing[len(closing)-1])
				closing = closing[:len(closing)-1]
			}
		default:
			b.WriteString(prev.CloseTag())
		}
		b.WriteString(e.OpenTag())
		prev, prevDepth = e, depth
	}

	if prev != nil {
		b.WriteString(prev.CloseTag())
	}
	for i := len(closing) - 1; i >= 0; i-- {
		b.WriteString(closing[i])
	}
	return b.String()
}
