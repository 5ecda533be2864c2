package xsdtree

import "testing"

func markerItem(kind ModelGroupKind, count, id int) Item {
	return Item{Kind: ItemMarker, Marker: GroupMarker{Kind: kind, Count: count, MinOccurs: 1, MaxOccurs: 1, ID: id}}
}

func elementItem(path string) Item {
	return Item{Kind: ItemElement, Element: &ElementInfo{Path: path, MinOccurs: 1, MaxOccurs: 1}}
}

func TestProject(t *testing.T) {
	items := []Item{
		elementItem("order"),
		markerItem(SequenceGroup, 3, 1),
		elementItem("order/id"),
		elementItem("order/customer"),
		markerItem(SequenceGroup, 2, 2),
		elementItem("order/customer/name"),
		elementItem("order/customer/email"),
		elementItem("order/item"),
		markerItem(ChoiceGroup, 2, 3),
		elementItem("order/item/sku"),
		elementItem("order/item/ean"),
	}

	want := []struct {
		path string
		kind ModelGroupKind
		id   int
	}{
		{"order", NoGroup, 0},
		{"order/id", SequenceGroup, 1},
		{"order/customer", SequenceGroup, 1},
		{"order/customer/name", SequenceGroup, 2},
		{"order/customer/email", SequenceGroup, 2},
		{"order/item", SequenceGroup, 1},
		{"order/item/sku", ChoiceGroup, 3},
		{"order/item/ean", ChoiceGroup, 3},
	}

	got := Project(items)
	if len(got) != len(want) {
		t.Fatalf("Project() returned %d elements, want %d", len(got), len(want))
	}
	for i, w := range want {
		e := got[i]
		if e.Path != w.path || e.Group.Kind != w.kind || e.Group.ID != w.id {
			t.Errorf("element %d = %s %q #%d, want %s %q #%d", i, e.Path, e.Group.Kind, e.Group.ID, w.path, w.kind, w.id)
		}
	}
}

func TestProjectDoesNotModifyItems(t *testing.T) {
	items := []Item{markerItem(SequenceGroup, 1, 1), elementItem("a")}

	got := Project(items)
	if got[0].Group.Kind != SequenceGroup {
		t.Fatalf("Group = %+v", got[0].Group)
	}
	if items[1].Element.Group.Kind != NoGroup {
		t.Error("Project() modified the flattened element")
	}
	if items[0].Marker.Count != 1 {
		t.Error("Project() modified the marker")
	}
}

func TestProjectEmpty(t *testing.T) {
	if got := Project(nil); len(got) != 0 {
		t.Errorf("Project(nil) = %v", got)
	}
}
