package simview

import "strings"

// NodeKind distinguishes inspector tree nodes.
type NodeKind uint8

const (
	NodeList  NodeKind = iota // ordered list of keyed items
	NodeLeaf                  // "key: value" item
	NodeGroup                 // collapsible item with a summary and a nested list
)

// TreeNode is one node of the inspector tree. Items inside a list are keyed
// by their property name, which is what reconciliation matches on.
type TreeNode struct {
	Kind NodeKind
	Key  string
	ID   string

	// Text is the leaf label ("key: value").
	Text string
	// Summary is the group label; Open is its expanded state.
	Summary string
	Open    bool
	// List is the nested list of a group.
	List *TreeNode

	children []*TreeNode
	parent   *TreeNode
}

// Children returns the items of a list node. The returned slice MUST NOT be mutated.
func (n *TreeNode) Children() []*TreeNode {
	return n.children
}

// NumChildren returns the number of items in a list node.
func (n *TreeNode) NumChildren() int {
	return len(n.children)
}

// Parent returns the enclosing node, or nil for the root list.
func (n *TreeNode) Parent() *TreeNode {
	return n.parent
}

// Child returns the item with the given key, or nil.
func (n *TreeNode) Child(key string) *TreeNode {
	for _, c := range n.children {
		if c.Key == key {
			return c
		}
	}
	return nil
}

// appendChild adds an item at the end of a list.
func (n *TreeNode) appendChild(child *TreeNode) {
	child.parent = n
	n.children = append(n.children, child)
}

// DiffStats counts the mutations applied by one reconciliation.
type DiffStats struct {
	Added   int
	Removed int
	Changed int
}

// Total returns the number of mutations.
func (d DiffStats) Total() int {
	return d.Added + d.Removed + d.Changed
}

func (d *DiffStats) merge(o DiffStats) {
	d.Added += o.Added
	d.Removed += o.Removed
	d.Changed += o.Changed
}

// Inspector is the container for a collapsible tree view of a JSON value. The
// first Reconcile builds the tree; later calls patch it in place, so expanded
// state set by the user survives updates.
type Inspector struct {
	root  *TreeNode
	total DiffStats
}

// NewInspector returns an empty, uninitialized inspector.
func NewInspector() *Inspector {
	return &Inspector{}
}

// Root returns the root list, or nil before the first Reconcile.
func (in *Inspector) Root() *TreeNode {
	if in == nil {
		return nil
	}
	return in.root
}

// Stats returns the mutations applied over the inspector's lifetime.
func (in *Inspector) Stats() DiffStats {
	return in.total
}

// Reset drops the tree; the next Reconcile materializes from scratch.
func (in *Inspector) Reset() {
	in.root = nil
	in.total = DiffStats{}
}

// Reconcile brings the tree in line with value. A nil inspector is a no-op,
// since a detached view is simply retried on the next snapshot.
func (in *Inspector) Reconcile(value Value, title, keyPath string) DiffStats {
	var stats DiffStats
	if in == nil || value == nil {
		return stats
	}
	if in.root == nil {
		in.root = Materialize(value, title, keyPath, 0)
		stats.Added = countItems(in.root)
		in.total.merge(stats)
		return stats
	}
	reconcileList(in.root, asGroup(value, title), keyPath, &stats)
	in.total.merge(stats)
	return stats
}

// asGroup wraps a top-level leaf so the root is always a list.
func asGroup(v Value, title string) *Group {
	if g, ok := v.(*Group); ok {
		return g
	}
	g := newGroup(1)
	g.add(title, v)
	return g
}

var idEscaper = strings.NewReplacer(`\`, `\\`, ".", `\.`)

// ChildID returns the id of the item key under parent. Dots and backslashes
// in key are escaped, so "a.b" as one key never collides with a -> b.
func ChildID(parent, key string) string {
	return parent + "." + idEscaper.Replace(key)
}

// reconcileList patches the items of list against g.
func reconcileList(list *TreeNode, g *Group, keyPath string, stats *DiffStats) {
	existing := make(map[string]*TreeNode, len(list.children))
	for _, c := range list.children {
		existing[c.Key] = c
	}
	seen := make(map[string]struct{}, len(g.Keys))

	for _, key := range g.Keys {
		seen[key] = struct{}{}
		value := g.Items[key]
		id := ChildID(keyPath, key)
		item := existing[key]

		switch v := value.(type) {
		case *Group:
			if item != nil && item.Kind != NodeGroup {
				replaceItem(list, item, newGroupItem(key, id, v))
				stats.Changed++
				item = list.Child(key)
			} else if item == nil {
				item = newGroupItem(key, id, v)
				list.appendChild(item)
				stats.Added++
			}
			reconcileList(item.List, v, id, stats)
		case Leaf:
			text := key + ": " + v.Text
			switch {
			case item == nil:
				list.appendChild(&TreeNode{Kind: NodeLeaf, Key: key, ID: id, Text: text})
				stats.Added++
			case item.Kind != NodeLeaf:
				replaceItem(list, item, &TreeNode{Kind: NodeLeaf, Key: key, ID: id, Text: text})
				stats.Changed++
			case item.Text != text:
				item.Text = text
				stats.Changed++
			}
		}
	}

	if len(seen) == len(list.children) {
		return
	}
	kept := list.children[:0]
	for _, c := range list.children {
		if _, ok := seen[c.Key]; ok {
			kept = append(kept, c)
			continue
		}
		c.parent = nil
		stats.Removed++
	}
	for i := len(kept); i < len(list.children); i++ {
		list.children[i] = nil
	}
	list.children = kept
}

// newGroupItem creates an empty collapsible item; its list is filled by the
// recursive reconcile that follows.
func newGroupItem(key, id string, g *Group) *TreeNode {
	item := &TreeNode{Kind: NodeGroup, Key: key, ID: id, Summary: key, Open: g.Len() > 2}
	item.List = &TreeNode{Kind: NodeList, ID: id, parent: item}
	return item
}

func replaceItem(list, old, repl *TreeNode) {
	for i, c := range list.children {
		if c == old {
			repl.parent = list
			list.children[i] = repl
			old.parent = nil
			return
		}
	}
}

// Materialize builds a complete tree for value from scratch. At depth 0 it
// returns the root list; deeper groups become collapsible items, expanded by
// default when they hold more than two children.
func Materialize(value Value, title, keyPath string, depth int) *TreeNode {
	if depth == 0 {
		list := &TreeNode{Kind: NodeList, ID: keyPath}
		fillList(list, asGroup(value, title), keyPath, depth)
		return list
	}
	switch v := value.(type) {
	case *Group:
		item := &TreeNode{Kind: NodeGroup, Key: title, ID: keyPath, Summary: title, Open: v.Len() > 2}
		item.List = &TreeNode{Kind: NodeList, ID: keyPath, parent: item}
		fillList(item.List, v, keyPath, depth)
		return item
	case Leaf:
		return &TreeNode{Kind: NodeLeaf, Key: title, ID: keyPath, Text: title + ": " + v.Text}
	}
	return nil
}

func fillList(list *TreeNode, g *Group, keyPath string, depth int) {
	for _, key := range g.Keys {
		if child := Materialize(g.Items[key], key, ChildID(keyPath, key), depth+1); child != nil {
			list.appendChild(child)
		}
	}
}

func countItems(list *TreeNode) int {
	n := 0
	for _, c := range list.children {
		n++
		if c.List != nil {
			n += countItems(c.List)
		}
	}
	return n
}

// Find returns the node with the given id, or nil.
func (in *Inspector) Find(id string) *TreeNode {
	if in == nil || in.root == nil {
		return nil
	}
	return findNode(in.root, id)
}

func findNode(list *TreeNode, id string) *TreeNode {
	for _, c := range list.children {
		if c.ID == id {
			return c
		}
		if c.List != nil {
			if hit := findNode(c.List, id); hit != nil {
				return hit
			}
		}
	}
	return nil
}

// Toggle flips the expanded state of the group with the given id and reports
// whether such a group exists.
func (in *Inspector) Toggle(id string) bool {
	n := in.Find(id)
	if n == nil || n.Kind != NodeGroup {
		return false
	}
	n.Open = !n.Open
	return true
}

// ExpandAll opens every group and returns how many were closed.
func (in *Inspector) ExpandAll() int {
	if in == nil || in.root == nil {
		return 0
	}
	return expandList(in.root)
}

func expandList(list *TreeNode) int {
	n := 0
	for _, c := range list.children {
		if c.Kind != NodeGroup {
			continue
		}
		if !c.Open {
			c.Open = true
			n++
		}
		n += expandList(c.List)
	}
	return n
}

// TreeLine is one visible row of the rendered tree.
type TreeLine struct {
	Depth int
	ID    string
	Text  string
	Group bool
	Open  bool
}

// Lines flattens the visible part of the tree; collapsed groups hide their
// contents.
func (in *Inspector) Lines() []TreeLine {
	if in == nil || in.root == nil {
		return nil
	}
	return appendLines(nil, in.root, 0)
}

func appendLines(out []TreeLine, list *TreeNode, depth int) []TreeLine {
	for _, c := range list.children {
		switch c.Kind {
		case NodeLeaf:
			out = append(out, TreeLine{Depth: depth, ID: c.ID, Text: c.Text})
		case NodeGroup:
			marker := "+ "
			if c.Open {
				marker = "- "
			}
			out = append(out, TreeLine{Depth: depth, ID: c.ID, Text: marker + c.Summary, Group: true, Open: c.Open})
			if c.Open {
				out = appendLines(out, c.List, depth+1)
			}
		}
	}
	return out
}
