package ops

import "github.com/stencil-ml/stencil/internal/tensor"

// SumOp records a sum reduction.
//
// Forward:
//
//	output = sum(input, axes)   (reduced axes keep size 1)
//
// Backward:
//
//	∂L/∂input = grad broadcast back to the input shape
type SumOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
	needs  bool
}

// NewSumOp creates a sum reduction record.
func NewSumOp(input, output *tensor.RawTensor, needs bool) *SumOp {
	return &SumOp{input: input, output: output, needs: needs}
}

// Backward broadcasts the output gradient back to the input shape.
func (op *SumOp) Backward(outputGrad *tensor.RawTensor, dev tensor.Backend) []*tensor.RawTensor {
	if !op.needs {
		return []*tensor.RawTensor{nil}
	}
	return []*tensor.RawTensor{broadcastTo(outputGrad, op.input.Shape(), dev)}
}

// Inputs returns the input tensors.
func (op *SumOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the output tensor.
func (op *SumOp) Output() *tensor.RawTensor {
	return op.output
}

// MaxOp records a max reduction.
//
// Forward:
//
//	output = max(input, axes)
//
// Backward:
//
//	mask    = 1.0 where input == output (broadcast compare)
//	counts  = sum(mask, axes)
//	∂L/∂input = (mask / counts) * grad
//
// Ties split the gradient evenly between the tied positions, which keeps the
// total gradient mass per reduced slice equal to the incoming gradient.
type MaxOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
	axes   []int // normalized reduction axes
	needs  bool
}

// NewMaxOp creates a max reduction record. axes must already be normalized.
func NewMaxOp(input, output *tensor.RawTensor, axes []int, needs bool) *MaxOp {
	return &MaxOp{input: input, output: output, axes: axes, needs: needs}
}

// Backward routes the gradient to the positions that held the maximum.
func (op *MaxOp) Backward(outputGrad *tensor.RawTensor, dev tensor.Backend) []*tensor.RawTensor {
	if !op.needs {
		return []*tensor.RawTensor{nil}
	}

	mask := dev.BinaryOp(tensor.BinaryCmpEq, op.input, op.output)
	counts := dev.ReduceOp(tensor.ReduceSum, mask, op.axes)
	mask = dev.BinaryOp(tensor.BinaryDiv, mask, counts)
	return []*tensor.RawTensor{dev.BinaryOp(tensor.BinaryMul, mask, outputGrad)}
}

// Inputs returns the input tensors.
func (op *MaxOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the output tensor.
func (op *MaxOp) Output() *tensor.RawTensor {
	return op.output
}
