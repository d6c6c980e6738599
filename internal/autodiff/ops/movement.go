package ops

import "github.com/stencil-ml/stencil/internal/tensor"

// TransposeOp records an axis permutation.
//
// Backward:
//
//	∂L/∂input = permute(grad, argsort(order))
type TransposeOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
	order  []int
	needs  bool
}

// NewTransposeOp creates a transpose record.
func NewTransposeOp(input, output *tensor.RawTensor, order []int, needs bool) *TransposeOp {
	return &TransposeOp{input: input, output: output, order: order, needs: needs}
}

// Backward permutes the gradient with the inverse order.
func (op *TransposeOp) Backward(outputGrad *tensor.RawTensor, dev tensor.Backend) []*tensor.RawTensor {
	if !op.needs {
		return []*tensor.RawTensor{nil}
	}
	inverse := make([]int, len(op.order))
	for i, ax := range op.order {
		inverse[ax] = i
	}
	return []*tensor.RawTensor{dev.PermAxis(outputGrad, inverse)}
}

// Inputs returns the input tensors.
func (op *TransposeOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the output tensor.
func (op *TransposeOp) Output() *tensor.RawTensor {
	return op.output
}

// ReshapeOp records a shape change. The forward pass is a zero-copy view, so
// the backward pass is just the gradient viewed under the input shape.
type ReshapeOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
	needs  bool
}

// NewReshapeOp creates a reshape record.
func NewReshapeOp(input, output *tensor.RawTensor, needs bool) *ReshapeOp {
	return &ReshapeOp{input: input, output: output, needs: needs}
}

// Backward reshapes the gradient back to the input shape.
func (op *ReshapeOp) Backward(outputGrad *tensor.RawTensor, dev tensor.Backend) []*tensor.RawTensor {
	if !op.needs {
		return []*tensor.RawTensor{nil}
	}
	return []*tensor.RawTensor{dev.Reshape(outputGrad, op.input.Shape())}
}

// Inputs returns the input tensors.
func (op *ReshapeOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the output tensor.
func (op *ReshapeOp) Output() *tensor.RawTensor {
	return op.output
}

// SliceOp records an inner slice.
//
// Backward uses the complementary ranges: slicing the gradient with
//
//	narg[i] = [-begin, gradShape[i] + (srcShape[i] - end))
//
// places it back at its original position, with the out-of-range reads
// filling the rest of the input shape with zeros.
type SliceOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
	arg    [][2]int
	needs  bool
}

// NewSliceOp creates a slice record.
func NewSliceOp(input, output *tensor.RawTensor, arg [][2]int, needs bool) *SliceOp {
	return &SliceOp{input: input, output: output, arg: arg, needs: needs}
}

// Backward scatters the gradient back into the input shape.
func (op *SliceOp) Backward(outputGrad *tensor.RawTensor, dev tensor.Backend) []*tensor.RawTensor {
	if !op.needs {
		return []*tensor.RawTensor{nil}
	}
	srcShape := op.input.Shape()
	gradShape := outputGrad.Shape()
	narg := make([][2]int, len(op.arg))
	for i, r := range op.arg {
		narg[i] = [2]int{-r[0], gradShape[i] + (srcShape[i] - r[1])}
	}
	return []*tensor.RawTensor{dev.InnerSlice(outputGrad, narg)}
}

// Inputs returns the input tensors.
func (op *SliceOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the output tensor.
func (op *SliceOp) Output() *tensor.RawTensor {
	return op.output
}
