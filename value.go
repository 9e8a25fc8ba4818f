package simview

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/iancoleman/orderedmap"
)

// Value is a classified JSON value: either a Leaf or a Group.
type Value interface {
	isValue()
}

// Leaf is a primitive rendered as text.
type Leaf struct {
	Text string
}

// Group is an ordered mapping of keys to values. Objects keep their source
// key order; arrays are keyed by decimal index.
type Group struct {
	Keys  []string
	Items map[string]Value
}

func (Leaf) isValue()   {}
func (*Group) isValue() {}

// Len returns the number of immediate children.
func (g *Group) Len() int { return len(g.Keys) }

// Get returns the child stored under key.
func (g *Group) Get(key string) (Value, bool) {
	v, ok := g.Items[key]
	return v, ok
}

func newGroup(n int) *Group {
	return &Group{Keys: make([]string, 0, n), Items: make(map[string]Value, n)}
}

func (g *Group) add(key string, v Value) {
	if _, dup := g.Items[key]; !dup {
		g.Keys = append(g.Keys, key)
	}
	g.Items[key] = v
}

// ParseValue decodes a JSON document preserving object key order and
// classifies it. A top-level primitive yields a Leaf.
func ParseValue(data []byte) (Value, error) {
	var probe json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("simview: parse value: %w", err)
	}
	if len(probe) > 0 && probe[0] == '{' {
		om := orderedmap.New()
		if err := json.Unmarshal(data, om); err != nil {
			return nil, fmt.Errorf("simview: parse value: %w", err)
		}
		return Classify(om), nil
	}
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("simview: parse value: %w", err)
	}
	return Classify(raw), nil
}

// Classify converts decoded JSON into a Value. Objects must come from
// orderedmap to keep key order; plain maps are accepted with sorted keys.
func Classify(raw any) Value {
	switch v := raw.(type) {
	case *orderedmap.OrderedMap:
		return classifyOrdered(v)
	case orderedmap.OrderedMap:
		return classifyOrdered(&v)
	case map[string]any:
		om := orderedmap.New()
		for k, item := range v {
			om.Set(k, item)
		}
		om.SortKeys(sort.Strings)
		return classifyOrdered(om)
	case []any:
		g := newGroup(len(v))
		for i, item := range v {
			g.add(strconv.Itoa(i), Classify(item))
		}
		return g
	default:
		return Leaf{Text: FormatScalar(v)}
	}
}

func classifyOrdered(om *orderedmap.OrderedMap) *Group {
	keys := om.Keys()
	g := newGroup(len(keys))
	for _, k := range keys {
		item, _ := om.Get(k)
		g.add(k, Classify(item))
	}
	return g
}

// FormatScalar renders a JSON primitive the way a browser would stringify it.
func FormatScalar(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return fmt.Sprint(t)
	}
}
