package tensor

import "fmt"

// Shape represents the dimensions of a tensor.
type Shape []int

// NumElements returns the total number of elements in the tensor.
func (s Shape) NumElements() int {
	if len(s) == 0 {
		return 1 // Scalar has 1 element
	}
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Validate checks if the shape is valid (all dimensions > 0).
func (s Shape) Validate() error {
	for i, dim := range s {
		if dim <= 0 {
			return fmt.Errorf("invalid dimension at index %d: %d (must be > 0)", i, dim)
		}
	}
	return nil
}

// Equal checks if two shapes are equal.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	clone := make(Shape, len(s))
	copy(clone, s)
	return clone
}

// ComputeStrides calculates row-major strides for the shape.
// Strides define memory layout: stride[i] = product of all dimensions after i.
func (s Shape) ComputeStrides() []int {
	strides := make([]int, len(s))
	if len(s) == 0 {
		return strides
	}

	strides[len(s)-1] = 1
	for i := len(s) - 2; i >= 0; i-- {
		strides[i] = strides[i+1] * s[i+1]
	}
	return strides
}

// BroadcastShapes implements NumPy-style broadcasting rules.
//
// Rules:
// 1. Compare shapes element-wise from right to left
// 2. Dimensions are compatible if:
//   - They are equal, OR
//   - One of them is 1
//
// 3. Missing dimensions are treated as 1
//
// Returns the broadcasted shape, a flag indicating if broadcasting is needed,
// and an error if the shapes are incompatible.
//
// Examples:
//
//	(3, 1) + (3, 5) → (3, 5), true, nil
//	(1, 5) + (3, 5) → (3, 5), true, nil
//	(3, 5) + (3, 5) → (3, 5), false, nil
//	(3, 4) + (3, 5) → nil, false, Error
func BroadcastShapes(a, b Shape) (Shape, bool, error) {
	maxLen := max(len(a), len(b))
	result := make(Shape, maxLen)
	needsBroadcast := false

	for i := 0; i < maxLen; i++ {
		aIdx := len(a) - 1 - i
		bIdx := len(b) - 1 - i

		aDim := 1
		if aIdx >= 0 {
			aDim = a[aIdx]
		}

		bDim := 1
		if bIdx >= 0 {
			bDim = b[bIdx]
		}

		switch {
		case aDim == bDim:
			result[maxLen-1-i] = aDim
		case aDim == 1:
			result[maxLen-1-i] = bDim
			needsBroadcast = true
		case bDim == 1:
			result[maxLen-1-i] = aDim
			needsBroadcast = true
		default:
			return nil, false, fmt.Errorf("shapes not compatible for broadcasting: %v vs %v (dimension %d: %d vs %d)",
				a, b, maxLen-1-i, aDim, bDim)
		}
	}

	return result, needsBroadcast, nil
}

// ReduceShape returns the shape produced by reducing the given axes: a copy of
// the input shape with every reduced axis set to 1. Empty axes means reduce
// every axis. Negative axes index from the end.
func ReduceShape(s Shape, axes []int) (Shape, error) {
	out := s.Clone()
	if len(axes) == 0 {
		for i := range out {
			out[i] = 1
		}
		return out, nil
	}
	for _, ax := range axes {
		if ax < 0 {
			ax += len(s)
		}
		if ax < 0 || ax >= len(s) {
			return nil, fmt.Errorf("reduce axis %d out of range for %dD shape %v", ax, len(s), s)
		}
		out[ax] = 1
	}
	return out, nil
}

// NormalizeAxes resolves negative axes, validates bounds, and rejects
// duplicates. Empty input expands to every axis of the shape.
func NormalizeAxes(s Shape, axes []int) ([]int, error) {
	if len(axes) == 0 {
		all := make([]int, len(s))
		for i := range all {
			all[i] = i
		}
		return all, nil
	}
	out := make([]int, 0, len(axes))
	seen := make(map[int]bool, len(axes))
	for _, ax := range axes {
		if ax < 0 {
			ax += len(s)
		}
		if ax < 0 || ax >= len(s) {
			return nil, fmt.Errorf("axis %d out of range for %dD shape %v", ax, len(s), s)
		}
		if seen[ax] {
			return nil, fmt.Errorf("duplicate axis %d", ax)
		}
		seen[ax] = true
		out = append(out, ax)
	}
	return out, nil
}

// InferReshape resolves a target shape that may contain a single -1 dimension
// against a known element count. Returns an error if more than one dimension
// is -1 or if the counts do not divide evenly.
func InferReshape(numElements int, shape Shape) (Shape, error) {
	out := shape.Clone()
	infer := -1
	known := 1
	for i, dim := range out {
		switch {
		case dim == -1:
			if infer >= 0 {
				return nil, fmt.Errorf("reshape: more than one -1 dimension in %v", shape)
			}
			infer = i
		case dim <= 0:
			return nil, fmt.Errorf("reshape: invalid dimension %d in %v", dim, shape)
		default:
			known *= dim
		}
	}
	if infer >= 0 {
		if known == 0 || numElements%known != 0 {
			return nil, fmt.Errorf("reshape: cannot infer dimension for %v from %d elements", shape, numElements)
		}
		out[infer] = numElements / known
	}
	if out.NumElements() != numElements {
		return nil, fmt.Errorf("reshape: %v has %d elements, want %d", out, out.NumElements(), numElements)
	}
	return out, nil
}
