package simview

import "testing"

func TestDefaultLabelFont(t *testing.T) {
	f, err := DefaultLabelFont()
	if err != nil {
		t.Fatalf("DefaultLabelFont: %v", err)
	}
	if f.LineHeight() <= 0 {
		t.Errorf("LineHeight = %v", f.LineHeight())
	}
	w1, h := f.Measure("R2")
	w2, _ := f.Measure("R2-D2 unit")
	if w1 <= 0 || h <= 0 || w2 <= w1 {
		t.Errorf("Measure: %v x %v, longer = %v", w1, h, w2)
	}
}

func TestLoadLabelFontInvalid(t *testing.T) {
	if _, err := LoadLabelFont([]byte("not a font"), 10); err == nil {
		t.Error("LoadLabelFont accepted garbage")
	}
}
