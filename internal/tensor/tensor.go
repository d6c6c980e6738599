package tensor

import (
	"fmt"
	"unsafe"
)

// Tensor is a generic tensor with type T and backend B.
// It provides type-safe operations over multi-dimensional arrays; every
// method delegates to the backend's device primitives.
//
// Example:
//
//	backend := cpu.New()
//	t := tensor.Zeros[float32](Shape{3, 4}, backend)
//	result := t.Add(t)
type Tensor[T DType, B Backend] struct {
	raw     *RawTensor
	backend B
}

// New creates a Tensor from a RawTensor and backend.
func New[T DType, B Backend](raw *RawTensor, b B) *Tensor[T, B] {
	return &Tensor[T, B]{
		raw:     raw,
		backend: b,
	}
}

// FromSlice creates a tensor from a Go slice.
// The slice is copied into the tensor's memory.
func FromSlice[T DType, B Backend](data []T, shape Shape, b B) (*Tensor[T, B], error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}

	var dummy T
	dtype := inferDataType(dummy)

	raw, err := NewRaw(shape, dtype, b.Device())
	if err != nil {
		return nil, err
	}

	t := New[T, B](raw, b)
	copy(t.Data(), data)

	return t, nil
}

// Shape returns the tensor's shape.
func (t *Tensor[T, B]) Shape() Shape {
	return t.raw.Shape()
}

// DType returns the tensor's data type.
func (t *Tensor[T, B]) DType() DataType {
	return t.raw.DType()
}

// Device returns the tensor's compute device.
func (t *Tensor[T, B]) Device() Device {
	return t.raw.Device()
}

// NumElements returns the total number of elements.
func (t *Tensor[T, B]) NumElements() int {
	return t.raw.NumElements()
}

// Raw returns the underlying RawTensor.
// Used by backend implementations for low-level operations.
func (t *Tensor[T, B]) Raw() *RawTensor {
	return t.raw
}

// Backend returns the computation backend.
func (t *Tensor[T, B]) Backend() B {
	return t.backend
}

// Data returns a typed view of the tensor's memory.
func (t *Tensor[T, B]) Data() []T {
	data := t.raw.Data()
	if len(data) == 0 {
		return nil
	}
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds checked by NumElements()
	return unsafe.Slice((*T)(unsafe.Pointer(&data[0])), t.raw.NumElements())
}

// wrap lifts a backend result into this tensor's type.
func (t *Tensor[T, B]) wrap(raw *RawTensor) *Tensor[T, B] {
	return New[T, B](raw, t.backend)
}

// Elementwise binary operations (broadcasting).

// Add returns t + other.
func (t *Tensor[T, B]) Add(other *Tensor[T, B]) *Tensor[T, B] {
	return t.wrap(t.backend.BinaryOp(BinaryAdd, t.raw, other.raw))
}

// Sub returns t - other.
func (t *Tensor[T, B]) Sub(other *Tensor[T, B]) *Tensor[T, B] {
	return t.wrap(t.backend.BinaryOp(BinarySub, t.raw, other.raw))
}

// Mul returns t * other.
func (t *Tensor[T, B]) Mul(other *Tensor[T, B]) *Tensor[T, B] {
	return t.wrap(t.backend.BinaryOp(BinaryMul, t.raw, other.raw))
}

// Div returns t / other.
func (t *Tensor[T, B]) Div(other *Tensor[T, B]) *Tensor[T, B] {
	return t.wrap(t.backend.BinaryOp(BinaryDiv, t.raw, other.raw))
}

// Pow returns t ** other. Defined for non-negative bases.
func (t *Tensor[T, B]) Pow(other *Tensor[T, B]) *Tensor[T, B] {
	return t.wrap(t.backend.BinaryOp(BinaryPow, t.raw, other.raw))
}

// Elementwise unary operations.

// Neg returns -t.
func (t *Tensor[T, B]) Neg() *Tensor[T, B] {
	return t.wrap(t.backend.UnaryOp(UnaryNeg, t.raw))
}

// Log returns the natural logarithm of t.
func (t *Tensor[T, B]) Log() *Tensor[T, B] {
	return t.wrap(t.backend.UnaryOp(UnaryLog, t.raw))
}

// Exp returns e**t.
func (t *Tensor[T, B]) Exp() *Tensor[T, B] {
	return t.wrap(t.backend.UnaryOp(UnaryExp, t.raw))
}

// ReLU returns max(t, 0).
func (t *Tensor[T, B]) ReLU() *Tensor[T, B] {
	return t.wrap(t.backend.UnaryOp(UnaryReLU, t.raw))
}

// Reductions. The reduced axes are kept with size 1; no axes reduces
// everything to an all-ones shape.

// Sum reduces by summation along the given axes.
func (t *Tensor[T, B]) Sum(axes ...int) *Tensor[T, B] {
	return t.wrap(t.backend.ReduceOp(ReduceSum, t.raw, axes))
}

// Max reduces by maximum along the given axes.
func (t *Tensor[T, B]) Max(axes ...int) *Tensor[T, B] {
	return t.wrap(t.backend.ReduceOp(ReduceMax, t.raw, axes))
}

// Movement operations.

// Reshape returns a view of t under a new shape. One dimension may be -1 and
// is inferred from the element count.
func (t *Tensor[T, B]) Reshape(shape Shape) *Tensor[T, B] {
	resolved, err := InferReshape(t.NumElements(), shape)
	if err != nil {
		panic(err.Error())
	}
	return t.wrap(t.backend.Reshape(t.raw, resolved))
}

// Transpose permutes the tensor's axes. With no arguments the axes are
// reversed.
func (t *Tensor[T, B]) Transpose(order ...int) *Tensor[T, B] {
	ndim := len(t.Shape())
	if len(order) == 0 {
		order = make([]int, ndim)
		for i := range order {
			order[i] = ndim - 1 - i
		}
	}
	return t.wrap(t.backend.PermAxis(t.raw, order))
}

// Slice extracts arg[i] = [begin, end) per axis. Ranges past either end of
// the source read as zero, so Slice doubles as padding.
func (t *Tensor[T, B]) Slice(arg [][2]int) *Tensor[T, B] {
	return t.wrap(t.backend.InnerSlice(t.raw, arg))
}

// Processing operations.

// MatMul multiplies t by other: [..., K] @ [K, N] -> [..., N].
func (t *Tensor[T, B]) MatMul(other *Tensor[T, B]) *Tensor[T, B] {
	return t.wrap(t.backend.MatMul(t.raw, other.raw, false, false))
}

// Conv2D convolves t [N, Cin*groups, H, W] with weight [Cout, Cin, KH, KW]
// using the given stride and channel groups (valid padding).
func (t *Tensor[T, B]) Conv2D(weight *Tensor[T, B], stride [2]int, groups int) *Tensor[T, B] {
	args, err := PackConvArgs(t.Shape(), weight.Shape(), stride, groups)
	if err != nil {
		panic(err.Error())
	}
	return t.wrap(t.backend.Conv(t.raw, weight.raw, args))
}
