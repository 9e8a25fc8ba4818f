package simview

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestParseValueKeepsKeyOrder(t *testing.T) {
	v, err := ParseValue([]byte(`{"zeta": 1, "alpha": {"b": 2, "a": 3}, "mid": "x"}`))
	if err != nil {
		t.Fatalf("ParseValue: %v", err)
	}
	g, ok := v.(*Group)
	if !ok {
		t.Fatalf("value = %T, want *Group", v)
	}
	if want := []string{"zeta", "alpha", "mid"}; !reflect.DeepEqual(g.Keys, want) {
		t.Errorf("Keys = %v, want %v", g.Keys, want)
	}
	inner, _ := g.Get("alpha")
	if want := []string{"b", "a"}; !reflect.DeepEqual(inner.(*Group).Keys, want) {
		t.Errorf("nested Keys = %v, want %v", inner.(*Group).Keys, want)
	}
}

func TestParseValueArraysAreIndexed(t *testing.T) {
	v, err := ParseValue([]byte(`[10, "b", null]`))
	if err != nil {
		t.Fatalf("ParseValue: %v", err)
	}
	g := v.(*Group)
	if want := []string{"0", "1", "2"}; !reflect.DeepEqual(g.Keys, want) {
		t.Fatalf("Keys = %v, want %v", g.Keys, want)
	}
	for key, want := range map[string]string{"0": "10", "1": "b", "2": "null"} {
		got, _ := g.Get(key)
		if got != (Leaf{Text: want}) {
			t.Errorf("item %s = %#v, want %q", key, got, want)
		}
	}
}

func TestParseValuePrimitive(t *testing.T) {
	v, err := ParseValue([]byte(`true`))
	if err != nil {
		t.Fatalf("ParseValue: %v", err)
	}
	if v != (Leaf{Text: "true"}) {
		t.Errorf("value = %#v", v)
	}
}

func TestParseValueInvalid(t *testing.T) {
	if _, err := ParseValue([]byte(`{"a":`)); err == nil {
		t.Error("ParseValue of truncated JSON succeeded")
	}
}

func TestClassifyPlainMapSortsKeys(t *testing.T) {
	g := Classify(map[string]any{"b": 1.0, "a": 2.0, "c": 3.0}).(*Group)
	if want := []string{"a", "b", "c"}; !reflect.DeepEqual(g.Keys, want) {
		t.Errorf("Keys = %v, want %v", g.Keys, want)
	}
}

func TestFormatScalar(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, "null"},
		{"text", "text"},
		{true, "true"},
		{false, "false"},
		{3.0, "3"},
		{0.25, "0.25"},
		{-1.5, "-1.5"},
		{1e21, "1000000000000000000000"},
		{json.Number("42"), "42"},
		{7, "7"},
		{int64(-9), "-9"},
	}
	for _, tt := range tests {
		if got := FormatScalar(tt.in); got != tt.want {
			t.Errorf("FormatScalar(%#v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
