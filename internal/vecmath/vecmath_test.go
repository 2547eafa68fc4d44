package vecmath

import (
	"math"
	"testing"
)

func equal(t *testing.T, name string, got, want []float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s: len = %d, want %d", name, len(got), len(want))
	}
	for i := range got {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Fatalf("%s[%d] = %v, want %v", name, i, got[i], want[i])
		}
	}
}

func TestAddScaledInPlace(t *testing.T) {
	tests := []struct {
		name  string
		scale float64
		want  []float64
	}{
		{"zero", 0, []float64{1, 2, 3, 4, 5}},
		{"unity", 1, []float64{2, 4, 6, 8, 10}},
		{"half", 0.5, []float64{1.5, 3, 4.5, 6, 7.5}},
		{"negative", -1, []float64{0, 0, 0, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := []float64{1, 2, 3, 4, 5}
			AddScaledInPlace(dst, []float64{1, 2, 3, 4, 5}, tt.scale)
			equal(t, "dst", dst, tt.want)
		})
	}
}

func TestAddBlockInPlace(t *testing.T) {
	dst := []float64{1, -1, 0.5}
	AddBlockInPlace(dst, []float64{1, 1, 1})
	equal(t, "dst", dst, []float64{2, 0, 1.5})
}

func TestScaleBlockAliases(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9}
	ScaleBlock(x, x, 2)
	equal(t, "x", x, []float64{2, 4, 6, 8, 10, 12, 14, 16, 18})
}

func TestMulBlockInPlace(t *testing.T) {
	x := []float64{1, 2, 3, 4}
	MulBlockInPlace(x, []float64{0, 0.5, 1, 2})
	equal(t, "x", x, []float64{0, 1, 3, 8})
}

func TestPower(t *testing.T) {
	dst := make([]float64, 3)
	Power(dst, []float64{3, 0, 1}, []float64{4, 2, 1})
	equal(t, "dst", dst, []float64{25, 4, 2})
}

func TestReductions(t *testing.T) {
	x := []float64{0.5, -2, 1, 0.5}
	if got := Sum(x); got != 0 {
		t.Fatalf("Sum() = %v, want 0", got)
	}
	if got := MaxAbs(x); got != 2 {
		t.Fatalf("MaxAbs() = %v, want 2", got)
	}
	if got, want := RMS([]float64{1, -1, 1, -1}), 1.0; math.Abs(got-want) > 1e-12 {
		t.Fatalf("RMS() = %v, want %v", got, want)
	}
	if Sum(nil) != 0 || MaxAbs(nil) != 0 || RMS(nil) != 0 {
		t.Fatal("empty reductions should be 0")
	}
}
