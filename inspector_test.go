package simview

import (
	"testing"
)

func mustValue(t *testing.T, s string) Value {
	t.Helper()
	v, err := ParseValue([]byte(s))
	if err != nil {
		t.Fatalf("ParseValue(%s): %v", s, err)
	}
	return v
}

func lineTexts(in *Inspector) []string {
	var out []string
	for _, l := range in.Lines() {
		out = append(out, l.Text)
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestInspectorFirstReconcileMaterializes(t *testing.T) {
	in := NewInspector()
	stats := in.Reconcile(mustValue(t, `{"tick": 1, "world": {"w": 2, "h": 3, "d": 4}}`), "Entities", "entities")

	if stats.Added != 5 {
		t.Errorf("Added = %d, want 5", stats.Added)
	}
	want := []string{"tick: 1", "- world", "w: 2", "h: 3", "d: 4"}
	if got := lineTexts(in); !equalStrings(got, want) {
		t.Errorf("lines = %q, want %q", got, want)
	}
	if n := in.Find("entities.world.h"); n == nil || n.Text != "h: 3" {
		t.Errorf("Find(entities.world.h) = %+v", n)
	}
}

func TestInspectorDefaultOpenState(t *testing.T) {
	in := NewInspector()
	in.Reconcile(mustValue(t, `{"small": {"a": 1, "b": 2}, "big": {"a": 1, "b": 2, "c": 3}}`), "Entities", "entities")

	if in.Find("entities.small").Open {
		t.Error("group with two children open by default")
	}
	if !in.Find("entities.big").Open {
		t.Error("group with three children closed by default")
	}
}

func TestInspectorReconcileIdempotent(t *testing.T) {
	doc := `{"a": 1, "b": {"c": [1, 2, 3], "d": "x"}}`
	in := NewInspector()
	in.Reconcile(mustValue(t, doc), "Entities", "entities")
	before := lineTexts(in)

	stats := in.Reconcile(mustValue(t, doc), "Entities", "entities")
	if stats.Total() != 0 {
		t.Errorf("second reconcile of same value = %+v, want no mutations", stats)
	}
	if got := lineTexts(in); !equalStrings(got, before) {
		t.Errorf("lines changed: %q vs %q", got, before)
	}
}

// Items whose key survives keep their node identity, so expanded state and
// any per-node UI state are preserved.
func TestInspectorPreservesNodeIdentity(t *testing.T) {
	in := NewInspector()
	in.Reconcile(mustValue(t, `{"droid": {"name": "R2", "location": {"x": 1, "y": 2}}}`), "Entities", "entities")
	droid := in.Find("entities.droid")
	loc := in.Find("entities.droid.location")

	stats := in.Reconcile(mustValue(t, `{"droid": {"name": "R2", "location": {"x": 2, "y": 2}}}`), "Entities", "entities")

	if in.Find("entities.droid") != droid || in.Find("entities.droid.location") != loc {
		t.Error("group nodes were replaced")
	}
	if stats.Changed != 1 || stats.Added != 0 || stats.Removed != 0 {
		t.Errorf("stats = %+v, want one change", stats)
	}
	if n := in.Find("entities.droid.location.x"); n.Text != "x: 2" {
		t.Errorf("x = %q, want %q", n.Text, "x: 2")
	}
}

func TestInspectorTogglePreservedAcrossUpdates(t *testing.T) {
	in := NewInspector()
	in.Reconcile(mustValue(t, `{"g": {"a": 1}}`), "Entities", "entities")
	if !in.Toggle("entities.g") {
		t.Fatal("Toggle(entities.g) = false")
	}
	in.Reconcile(mustValue(t, `{"g": {"a": 2}}`), "Entities", "entities")
	if !in.Find("entities.g").Open {
		t.Error("expanded group collapsed by reconcile")
	}
	if in.Toggle("entities.g.a") {
		t.Error("Toggle on a leaf reported success")
	}
	if in.Toggle("entities.nope") {
		t.Error("Toggle on a missing id reported success")
	}
}

func TestInspectorRemovesMissingKeys(t *testing.T) {
	in := NewInspector()
	in.Reconcile(mustValue(t, `{"a": 1, "b": 2, "c": 3}`), "Entities", "entities")
	stats := in.Reconcile(mustValue(t, `{"a": 1, "c": 3}`), "Entities", "entities")

	if stats.Removed != 1 {
		t.Errorf("Removed = %d, want 1", stats.Removed)
	}
	if got, want := lineTexts(in), []string{"a: 1", "c: 3"}; !equalStrings(got, want) {
		t.Errorf("lines = %q, want %q", got, want)
	}
	if in.Find("entities.b") != nil {
		t.Error("removed item still findable")
	}
}

func TestInspectorAppendsNewKeys(t *testing.T) {
	in := NewInspector()
	in.Reconcile(mustValue(t, `{"a": 1}`), "Entities", "entities")
	stats := in.Reconcile(mustValue(t, `{"z": 0, "a": 1}`), "Entities", "entities")
	if stats.Added != 1 {
		t.Errorf("Added = %d, want 1", stats.Added)
	}
	if got, want := lineTexts(in), []string{"a: 1", "z: 0"}; !equalStrings(got, want) {
		t.Errorf("lines = %q, want %q", got, want)
	}
}

func TestInspectorKindChangeReplacesItem(t *testing.T) {
	in := NewInspector()
	in.Reconcile(mustValue(t, `{"slot": null}`), "Entities", "entities")
	stats := in.Reconcile(mustValue(t, `{"slot": {"charge": 5, "charge_max": 10, "x": 1}}`), "Entities", "entities")

	if stats.Changed != 1 {
		t.Errorf("Changed = %d, want 1", stats.Changed)
	}
	n := in.Find("entities.slot")
	if n == nil || n.Kind != NodeGroup {
		t.Fatalf("slot = %+v, want group", n)
	}
	if n.Parent() != in.Root() {
		t.Error("replacement not attached to the root list")
	}

	stats = in.Reconcile(mustValue(t, `{"slot": null}`), "Entities", "entities")
	if n := in.Find("entities.slot"); n.Kind != NodeLeaf || n.Text != "slot: null" {
		t.Errorf("slot = %+v, want leaf", n)
	}
	if stats.Changed != 1 {
		t.Errorf("Changed = %d, want 1", stats.Changed)
	}
}

func TestInspectorArrays(t *testing.T) {
	in := NewInspector()
	in.Reconcile(mustValue(t, `{"row": [0, 1, 2]}`), "Entities", "entities")
	stats := in.Reconcile(mustValue(t, `{"row": [0, 2]}`), "Entities", "entities")

	if stats.Changed != 1 || stats.Removed != 1 {
		t.Errorf("stats = %+v, want one change and one removal", stats)
	}
	if n := in.Find("entities.row.1"); n == nil || n.Text != "1: 2" {
		t.Errorf("row.1 = %+v", n)
	}
}

func TestInspectorCollapsedHidesChildren(t *testing.T) {
	in := NewInspector()
	in.Reconcile(mustValue(t, `{"g": {"a": 1, "b": 2, "c": 3}}`), "Entities", "entities")
	in.Toggle("entities.g")
	if got, want := lineTexts(in), []string{"+ g"}; !equalStrings(got, want) {
		t.Errorf("lines = %q, want %q", got, want)
	}
}

func TestInspectorTopLevelLeafUsesTitle(t *testing.T) {
	in := NewInspector()
	in.Reconcile(mustValue(t, `42`), "Entities", "entities")
	if got, want := lineTexts(in), []string{"Entities: 42"}; !equalStrings(got, want) {
		t.Errorf("lines = %q, want %q", got, want)
	}
}

func TestInspectorNilSafe(t *testing.T) {
	var in *Inspector
	if stats := in.Reconcile(Leaf{Text: "x"}, "t", "k"); stats.Total() != 0 {
		t.Errorf("nil inspector stats = %+v", stats)
	}
	if in.Find("k") != nil || in.Lines() != nil || in.Root() != nil {
		t.Error("nil inspector returned data")
	}
}

func TestInspectorReset(t *testing.T) {
	in := NewInspector()
	in.Reconcile(mustValue(t, `{"a": 1}`), "Entities", "entities")
	in.Reset()
	if in.Root() != nil || in.Stats().Total() != 0 {
		t.Error("Reset kept state")
	}
	if stats := in.Reconcile(mustValue(t, `{"a": 1}`), "Entities", "entities"); stats.Added != 1 {
		t.Errorf("Added after Reset = %d, want 1", stats.Added)
	}
}

func TestInspectorDottedKeysHaveDistinctIDs(t *testing.T) {
	in := NewInspector()
	in.Reconcile(mustValue(t, `{"a.b": {"x": 1}, "a": {"b": {"p": 1, "q": 2, "r": 3}}}`), "Entities", "entities")

	dotted := in.Root().Child("a.b")
	nested := in.Root().Child("a").List.Child("b")
	if dotted.ID == nested.ID {
		t.Fatalf("ids collide: %q", dotted.ID)
	}
	if dotted.ID != `entities.a\.b` || nested.ID != "entities.a.b" {
		t.Errorf("ids = %q, %q", dotted.ID, nested.ID)
	}

	dottedOpen := dotted.Open
	if !in.Toggle(nested.ID) {
		t.Fatal("Toggle(nested) = false")
	}
	if nested.Open {
		t.Error("nested group did not collapse")
	}
	if dotted.Open != dottedOpen {
		t.Error("toggling the nested group flipped the dotted key")
	}
	if in.Find(dotted.ID) != dotted {
		t.Error("Find(dotted id) returned another node")
	}
}

func TestChildID(t *testing.T) {
	tests := []struct {
		parent, key, want string
	}{
		{"entities", "world", "entities.world"},
		{"entities", "a.b", `entities.a\.b`},
		{"entities", `a\`, `entities.a\\`},
	}
	for _, tt := range tests {
		if got := ChildID(tt.parent, tt.key); got != tt.want {
			t.Errorf("ChildID(%q, %q) = %q, want %q", tt.parent, tt.key, got, tt.want)
		}
	}
	// A trailing backslash must not swallow the separator.
	if ChildID(ChildID("e", `a\`), "b") == ChildID("e", `a\.b`) {
		t.Error("backslash keys collide")
	}
}

func TestInspectorExpandAll(t *testing.T) {
	in := NewInspector()
	in.Reconcile(mustValue(t, `{"g": {"a": 1, "h": {"b": 2}}}`), "Entities", "entities")

	if n := in.ExpandAll(); n != 2 {
		t.Errorf("ExpandAll = %d, want 2", n)
	}
	for _, l := range in.Lines() {
		if l.Group && !l.Open {
			t.Errorf("%s still closed", l.ID)
		}
	}
	if n := in.ExpandAll(); n != 0 {
		t.Errorf("second ExpandAll = %d, want 0", n)
	}
}
