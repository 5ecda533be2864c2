package xsdtree

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// WriteOutline prints a flattening as an indented, human-readable outline:
// one line per group and element, followed by the element's attributes and
// value restrictions.
//
//	[Start of sequence  MinOccurs = 1, MaxOccurs = 1]
//	  [Element /order/id   MinOccurs = 1, MaxOccurs = 1] of type [int]
func WriteOutline(w io.Writer, f *Flattening) error {
	bw := bufio.NewWriter(w)

	for _, item := range f.Items {
		switch item.Kind {
		case ItemMarker:
			m := item.Marker
			indent := strings.Repeat("  ", strings.Count(m.Path, "/")+1)
			fmt.Fprintf(bw, "%s[Start of %s  %s]\n", indent[1:], m.Kind, occurs(m.MinOccurs, m.MaxOccurs))
		case ItemElement:
			e := item.Element
			indent := strings.Repeat("  ", e.Depth()+1)
			fmt.Fprintf(bw, "%s[Element /%s   %s] of type [%s]\n",
				indent, e.Path, occurs(e.MinOccurs, e.MaxOccurs), e.Type)
			for _, name := range sortedKeys(e.Attributes) {
				use := "Optional"
				if e.Attributes[name].Required() {
					use = "Required"
				}
				fmt.Fprintf(bw, "%s  [Attribute %s   Use %s]\n", indent, name, use)
			}
			if !e.Restrictions.IsZero() {
				fmt.Fprintf(bw, "%s  %s\n", indent, strings.TrimRight(e.Restrictions.String(), "\t"))
			}
		}
	}
	return bw.Flush()
}

func occurs(minOccurs, maxOccurs int) string {
	return "MinOccurs = " + strconv.Itoa(minOccurs) + ", MaxOccurs = " + formatMax(maxOccurs)
}

func formatMax(n int) string {
	if n == Unbounded {
		return "unbounded"
	}
	return strconv.Itoa(n)
}
