package tensor

import (
	"testing"
)

func TestShapeNumElements(t *testing.T) {
	tests := []struct {
		shape Shape
		want  int
	}{
		{Shape{}, 1}, // scalar
		{Shape{5}, 5},
		{Shape{2, 3}, 6},
		{Shape{2, 3, 4}, 24},
	}
	for _, tt := range tests {
		if got := tt.shape.NumElements(); got != tt.want {
			t.Errorf("NumElements(%v) = %d, want %d", tt.shape, got, tt.want)
		}
	}
}

func TestShapeValidate(t *testing.T) {
	if err := (Shape{2, 3}).Validate(); err != nil {
		t.Errorf("Validate({2,3}) = %v, want nil", err)
	}
	if err := (Shape{2, 0}).Validate(); err == nil {
		t.Error("Validate({2,0}) should fail")
	}
	if err := (Shape{-1, 3}).Validate(); err == nil {
		t.Error("Validate({-1,3}) should fail")
	}
}

func TestShapeEqualClone(t *testing.T) {
	s := Shape{2, 3, 4}
	c := s.Clone()
	if !s.Equal(c) {
		t.Errorf("Clone %v not equal to original %v", c, s)
	}
	c[0] = 9
	if s[0] != 2 {
		t.Error("Clone should not share memory with original")
	}
	if s.Equal(Shape{2, 3}) {
		t.Error("shapes of different rank should not be equal")
	}
}

func TestShapeComputeStrides(t *testing.T) {
	strides := Shape{2, 3, 4}.ComputeStrides()
	want := []int{12, 4, 1}
	for i := range want {
		if strides[i] != want[i] {
			t.Fatalf("ComputeStrides({2,3,4}) = %v, want %v", strides, want)
		}
	}
	if got := (Shape{}).ComputeStrides(); len(got) != 0 {
		t.Errorf("ComputeStrides({}) = %v, want empty", got)
	}
}

func TestBroadcastShapes(t *testing.T) {
	tests := []struct {
		a, b  Shape
		want  Shape
		needs bool
	}{
		{Shape{3, 5}, Shape{3, 5}, Shape{3, 5}, false},
		{Shape{3, 1}, Shape{3, 5}, Shape{3, 5}, true},
		{Shape{1, 5}, Shape{3, 5}, Shape{3, 5}, true},
		{Shape{2, 3}, Shape{3}, Shape{2, 3}, true},
		{Shape{3}, Shape{2, 3}, Shape{2, 3}, true},
		{Shape{1}, Shape{4, 2}, Shape{4, 2}, true},
		{Shape{4, 1, 3}, Shape{2, 3}, Shape{4, 2, 3}, true},
	}
	for _, tt := range tests {
		got, needs, err := BroadcastShapes(tt.a, tt.b)
		if err != nil {
			t.Errorf("BroadcastShapes(%v, %v) error: %v", tt.a, tt.b, err)
			continue
		}
		if !got.Equal(tt.want) || needs != tt.needs {
			t.Errorf("BroadcastShapes(%v, %v) = %v, %v; want %v, %v",
				tt.a, tt.b, got, needs, tt.want, tt.needs)
		}
	}

	if _, _, err := BroadcastShapes(Shape{3, 4}, Shape{3, 5}); err == nil {
		t.Error("BroadcastShapes({3,4}, {3,5}) should fail")
	}
}

func TestReduceShape(t *testing.T) {
	got, err := ReduceShape(Shape{2, 3, 4}, []int{1})
	if err != nil || !got.Equal(Shape{2, 1, 4}) {
		t.Errorf("ReduceShape({2,3,4}, [1]) = %v, %v", got, err)
	}

	// Negative axis indexes from the end.
	got, err = ReduceShape(Shape{2, 3, 4}, []int{-1})
	if err != nil || !got.Equal(Shape{2, 3, 1}) {
		t.Errorf("ReduceShape({2,3,4}, [-1]) = %v, %v", got, err)
	}

	// Empty axes reduce everything.
	got, err = ReduceShape(Shape{2, 3}, nil)
	if err != nil || !got.Equal(Shape{1, 1}) {
		t.Errorf("ReduceShape({2,3}, nil) = %v, %v", got, err)
	}

	if _, err := ReduceShape(Shape{2, 3}, []int{2}); err == nil {
		t.Error("ReduceShape with out-of-range axis should fail")
	}
}

func TestNormalizeAxes(t *testing.T) {
	got, err := NormalizeAxes(Shape{2, 3, 4}, []int{-1, 0})
	if err != nil {
		t.Fatalf("NormalizeAxes error: %v", err)
	}
	if len(got) != 2 || got[0] != 2 || got[1] != 0 {
		t.Errorf("NormalizeAxes({2,3,4}, [-1,0]) = %v, want [2 0]", got)
	}

	got, err = NormalizeAxes(Shape{2, 3}, nil)
	if err != nil || len(got) != 2 || got[0] != 0 || got[1] != 1 {
		t.Errorf("NormalizeAxes({2,3}, nil) = %v, %v, want [0 1]", got, err)
	}

	if _, err := NormalizeAxes(Shape{2, 3}, []int{1, 1}); err == nil {
		t.Error("NormalizeAxes with duplicate axis should fail")
	}
	if _, err := NormalizeAxes(Shape{2, 3}, []int{-3}); err == nil {
		t.Error("NormalizeAxes with out-of-range axis should fail")
	}
}

func TestInferReshape(t *testing.T) {
	got, err := InferReshape(12, Shape{3, -1})
	if err != nil || !got.Equal(Shape{3, 4}) {
		t.Errorf("InferReshape(12, {3,-1}) = %v, %v", got, err)
	}

	got, err = InferReshape(6, Shape{2, 3})
	if err != nil || !got.Equal(Shape{2, 3}) {
		t.Errorf("InferReshape(6, {2,3}) = %v, %v", got, err)
	}

	if _, err := InferReshape(12, Shape{-1, -1}); err == nil {
		t.Error("InferReshape with two -1 dimensions should fail")
	}
	if _, err := InferReshape(10, Shape{3, -1}); err == nil {
		t.Error("InferReshape(10, {3,-1}) should fail, 10 not divisible by 3")
	}
	if _, err := InferReshape(12, Shape{5, 2}); err == nil {
		t.Error("InferReshape with mismatched element count should fail")
	}
}
