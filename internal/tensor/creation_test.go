package tensor

import (
	"math"
	"testing"
)

// stubBackend satisfies Backend for creation tests, which only touch Device().
type stubBackend struct{}

func (stubBackend) UnaryOp(UnaryKind, *RawTensor) *RawTensor           { panic("not implemented") }
func (stubBackend) BinaryOp(BinaryKind, *RawTensor, *RawTensor) *RawTensor {
	panic("not implemented")
}
func (stubBackend) ReduceOp(ReduceKind, *RawTensor, []int) *RawTensor { panic("not implemented") }
func (stubBackend) PermAxis(*RawTensor, []int) *RawTensor             { panic("not implemented") }
func (stubBackend) InnerSlice(*RawTensor, [][2]int) *RawTensor        { panic("not implemented") }
func (stubBackend) Reshape(*RawTensor, Shape) *RawTensor              { panic("not implemented") }
func (stubBackend) MatMul(_, _ *RawTensor, _, _ bool) *RawTensor      { panic("not implemented") }
func (stubBackend) Conv(_, _ *RawTensor, _ ConvArgs) *RawTensor       { panic("not implemented") }
func (stubBackend) ConvDX(_, _ *RawTensor, _ ConvArgs) *RawTensor     { panic("not implemented") }
func (stubBackend) ConvDW(_, _ *RawTensor, _ ConvArgs) *RawTensor     { panic("not implemented") }
func (stubBackend) Name() string                                      { return "stub" }
func (stubBackend) Device() Device                                    { return CPU }

func TestZeros(t *testing.T) {
	x := Zeros[float32](Shape{2, 3}, stubBackend{})
	if !x.Shape().Equal(Shape{2, 3}) {
		t.Errorf("shape = %v, want [2 3]", x.Shape())
	}
	for i, v := range x.Data() {
		if v != 0 {
			t.Fatalf("element %d = %v, want 0", i, v)
		}
	}
}

func TestOnesAndFull(t *testing.T) {
	x := Ones[float64](Shape{4}, stubBackend{})
	for _, v := range x.Data() {
		if v != 1 {
			t.Fatalf("Ones element = %v, want 1", v)
		}
	}

	y := Full[int32](Shape{3}, 7, stubBackend{})
	for _, v := range y.Data() {
		if v != 7 {
			t.Fatalf("Full element = %v, want 7", v)
		}
	}
}

func TestFromSlice(t *testing.T) {
	x, err := FromSlice([]float32{1, 2, 3, 4, 5, 6}, Shape{2, 3}, stubBackend{})
	if err != nil {
		t.Fatalf("FromSlice error: %v", err)
	}
	if x.DType() != Float32 {
		t.Errorf("dtype = %s, want float32", x.DType())
	}
	if x.Data()[4] != 5 {
		t.Errorf("element 4 = %v, want 5", x.Data()[4])
	}

	if _, err := FromSlice([]float32{1, 2, 3}, Shape{2, 3}, stubBackend{}); err == nil {
		t.Error("FromSlice with mismatched length should fail")
	}
}

func TestArange(t *testing.T) {
	x := Arange[float32](2, 7, stubBackend{})
	want := []float32{2, 3, 4, 5, 6}
	data := x.Data()
	if len(data) != len(want) {
		t.Fatalf("Arange length = %d, want %d", len(data), len(want))
	}
	for i := range want {
		if data[i] != want[i] {
			t.Errorf("Arange[%d] = %v, want %v", i, data[i], want[i])
		}
	}
}

func TestRandn(t *testing.T) {
	x := Randn[float32](Shape{100, 50}, stubBackend{})
	data := x.Data()

	nonZero := 0
	var sum float64
	for _, v := range data {
		if v != 0 {
			nonZero++
		}
		sum += float64(v)
	}
	if nonZero < len(data)/2 {
		t.Errorf("Randn produced %d non-zero values out of %d", nonZero, len(data))
	}

	mean := sum / float64(len(data))
	if math.Abs(mean) > 0.2 {
		t.Logf("Randn mean = %v, expected close to 0 (can happen randomly)", mean)
	}
}

func TestRand(t *testing.T) {
	x := Rand[float64](Shape{1000}, stubBackend{})
	for _, v := range x.Data() {
		if v < 0 || v >= 1 {
			t.Fatalf("Rand value %v outside [0, 1)", v)
		}
	}
}

func TestRandnIntPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Randn[int32] should panic")
		}
	}()
	Randn[int32](Shape{4}, stubBackend{})
}
