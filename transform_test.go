package simview

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func approxEqual(a, b, eps float64) bool {
	return math.Abs(a-b) < eps
}

func assertNear(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > epsilon {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func assertMatrix(t *testing.T, name string, got, want [6]float64) {
	t.Helper()
	for i := range got {
		if math.Abs(got[i]-want[i]) > epsilon {
			t.Errorf("%s[%d] = %v, want %v (full: %v vs %v)", name, i, got[i], want[i], got, want)
		}
	}
}

// --- translateScale ---

func TestTranslateScale(t *testing.T) {
	m := translateScale(10, 20, 0.5)
	assertMatrix(t, "translateScale", m, [6]float64{0.5, 0, 0, 0.5, 10, 20})

	x, y := transformPoint(m, 64, 32)
	assertNear(t, "x", x, 42)
	assertNear(t, "y", y, 36)
}

func TestTranslateScaleIdentity(t *testing.T) {
	assertMatrix(t, "identity", translateScale(0, 0, 1), identityTransform)
}

// --- multiplyAffine ---

func TestMultiplyAffineIdentity(t *testing.T) {
	id := identityTransform
	m := [6]float64{2, 1, 3, 4, 5, 6}
	assertMatrix(t, "id*m", multiplyAffine(id, m), m)
	assertMatrix(t, "m*id", multiplyAffine(m, id), m)
}

func TestMultiplyAffineTranslations(t *testing.T) {
	a := [6]float64{1, 0, 0, 1, 10, 20}
	b := [6]float64{1, 0, 0, 1, 5, 3}
	got := multiplyAffine(a, b)
	assertMatrix(t, "translations", got, [6]float64{1, 0, 0, 1, 15, 23})
}

func TestMultiplyAffineScaleThenTranslate(t *testing.T) {
	// Translate(100, 50) * Scale(2): scale applies first.
	got := multiplyAffine([6]float64{1, 0, 0, 1, 100, 50}, [6]float64{2, 0, 0, 2, 0, 0})
	assertMatrix(t, "T*S", got, translateScale(100, 50, 2))
}

// --- invertAffine ---

func TestInvertAffine(t *testing.T) {
	m := [6]float64{2, 0, 0, 3, 10, 20}
	inv := invertAffine(m)
	assertMatrix(t, "m*inv=id", multiplyAffine(m, inv), identityTransform)
}

func TestInvertAffineRoundTripsPoints(t *testing.T) {
	m := translateScale(-37.5, 12.25, 0.37)
	inv := invertAffine(m)
	for _, p := range [][2]float64{{0, 0}, {100, 200}, {-50, 3.5}} {
		sx, sy := transformPoint(m, p[0], p[1])
		wx, wy := transformPoint(inv, sx, sy)
		if !approxEqual(wx, p[0], 1e-9) || !approxEqual(wy, p[1], 1e-9) {
			t.Errorf("round trip of %v = (%v, %v)", p, wx, wy)
		}
	}
}

func TestInvertAffineSingularReturnsIdentity(t *testing.T) {
	m := [6]float64{0, 0, 0, 1, 10, 20}
	assertMatrix(t, "singular", invertAffine(m), identityTransform)
}

func TestInvertAffineBothZeroScales(t *testing.T) {
	m := [6]float64{0, 0, 0, 0, 50, 100}
	assertMatrix(t, "zero-scale", invertAffine(m), identityTransform)
}

// --- geoM ---

func TestGeoMMatchesMatrix(t *testing.T) {
	m := translateScale(7, -3, 1.5)
	g := geoM(m)
	x, y := g.Apply(10, 20)
	wx, wy := transformPoint(m, 10, 20)
	assertNear(t, "x", x, wx)
	assertNear(t, "y", y, wy)
}
