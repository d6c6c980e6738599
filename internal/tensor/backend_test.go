package tensor

import (
	"testing"
)

func TestKindStrings(t *testing.T) {
	if UnaryReLU.String() != "relu" {
		t.Errorf("UnaryReLU.String() = %q", UnaryReLU.String())
	}
	if BinaryPowGradA.String() != "powgrada" {
		t.Errorf("BinaryPowGradA.String() = %q", BinaryPowGradA.String())
	}
	if ReduceMax.String() != "max" {
		t.Errorf("ReduceMax.String() = %q", ReduceMax.String())
	}
}

func TestPackConvArgs(t *testing.T) {
	args, err := PackConvArgs(Shape{2, 3, 8, 8}, Shape{6, 3, 3, 3}, [2]int{1, 1}, 1)
	if err != nil {
		t.Fatalf("PackConvArgs error: %v", err)
	}
	if args.OY != 6 || args.OX != 6 {
		t.Errorf("output dims = %dx%d, want 6x6", args.OY, args.OX)
	}
	if args.Cout() != 6 {
		t.Errorf("Cout() = %d, want 6", args.Cout())
	}
	if !args.OutShape().Equal(Shape{2, 6, 6, 6}) {
		t.Errorf("OutShape() = %v", args.OutShape())
	}
	if !args.InShape().Equal(Shape{2, 3, 8, 8}) {
		t.Errorf("InShape() = %v", args.InShape())
	}
	if !args.WeightShape().Equal(Shape{6, 3, 3, 3}) {
		t.Errorf("WeightShape() = %v", args.WeightShape())
	}
}

func TestPackConvArgsStrided(t *testing.T) {
	// oy = (iy - (h - ys)) / ys = (9 - 1) / 2 = 4
	args, err := PackConvArgs(Shape{1, 1, 9, 9}, Shape{1, 1, 3, 3}, [2]int{2, 2}, 1)
	if err != nil {
		t.Fatalf("PackConvArgs error: %v", err)
	}
	if args.OY != 4 || args.OX != 4 {
		t.Errorf("strided output dims = %dx%d, want 4x4", args.OY, args.OX)
	}
}

func TestPackConvArgsGrouped(t *testing.T) {
	args, err := PackConvArgs(Shape{1, 4, 5, 5}, Shape{8, 2, 3, 3}, [2]int{1, 1}, 2)
	if err != nil {
		t.Fatalf("PackConvArgs error: %v", err)
	}
	if args.Groups != 2 || args.RCout != 4 || args.Cin != 2 {
		t.Errorf("groups/rcout/cin = %d/%d/%d, want 2/4/2", args.Groups, args.RCout, args.Cin)
	}
}

func TestPackConvArgsErrors(t *testing.T) {
	tests := []struct {
		name   string
		x, w   Shape
		stride [2]int
		groups int
	}{
		{"input not 4D", Shape{3, 8, 8}, Shape{6, 3, 3, 3}, [2]int{1, 1}, 1},
		{"weight not 4D", Shape{2, 3, 8, 8}, Shape{3, 3, 3}, [2]int{1, 1}, 1},
		{"zero groups", Shape{2, 3, 8, 8}, Shape{6, 3, 3, 3}, [2]int{1, 1}, 0},
		{"zero stride", Shape{2, 3, 8, 8}, Shape{6, 3, 3, 3}, [2]int{0, 1}, 1},
		{"channel mismatch", Shape{2, 4, 8, 8}, Shape{6, 3, 3, 3}, [2]int{1, 1}, 1},
		{"cout not divisible", Shape{2, 4, 8, 8}, Shape{5, 2, 3, 3}, [2]int{1, 1}, 2},
		{"kernel larger than input", Shape{1, 1, 2, 2}, Shape{1, 1, 3, 3}, [2]int{1, 1}, 1},
	}
	for _, tt := range tests {
		if _, err := PackConvArgs(tt.x, tt.w, tt.stride, tt.groups); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}
