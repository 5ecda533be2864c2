package xsdtree

// Project turns a flattened item sequence into its elements. Each element is
// tagged with the most recently announced group that still has children
// outstanding; a marker is dropped once all of its children have been seen.
// Elements with no pending marker get no group.
func Project(items []Item) []ElementInfo {
	var pending []GroupMarker
	out := make([]ElementInfo, 0, len(items))

	for _, item := range items {
		switch item.Kind {
		case ItemMarker:
			pending = append(pending, item.Marker)
		case ItemElement:
			e := *item.Element
			if n := len(pending); n > 0 {
				top := &pending[n-1]
				e.Group = GroupInfo{
					Kind:      top.Kind,
					MinOccurs: top.MinOccurs,
					MaxOccurs: top.MaxOccurs,
					ID:        top.ID,
					Choice:    top.Choice,
				}
				if top.Count--; top.Count <= 0 {
					pending = pending[:n-1]
				}
			}
			out = append(out, e)
		}
	}
	return out
}
