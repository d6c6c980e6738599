package ops

import (
	"fmt"

	"github.com/stencil-ml/stencil/internal/tensor"
)

// UnaryOp records an elementwise unary operation. One type covers all kinds;
// the backward rule is selected by the same kind that selected the forward
// kernel.
//
// Backward rules:
//   - Neg:  ∂L/∂a = -grad
//   - Log:  ∂L/∂a = grad / a
//   - Exp:  ∂L/∂a = grad * exp(a), reusing the saved output
//   - ReLU: ∂L/∂a = grad where a >= 0, else 0
type UnaryOp struct {
	kind   tensor.UnaryKind
	input  *tensor.RawTensor
	output *tensor.RawTensor
	needs  bool
}

// NewUnaryOp creates a unary operation record.
func NewUnaryOp(kind tensor.UnaryKind, input, output *tensor.RawTensor, needs bool) *UnaryOp {
	return &UnaryOp{kind: kind, input: input, output: output, needs: needs}
}

// Backward computes the input gradient for the recorded kind.
func (op *UnaryOp) Backward(outputGrad *tensor.RawTensor, dev tensor.Backend) []*tensor.RawTensor {
	if !op.needs {
		return []*tensor.RawTensor{nil}
	}

	var grad *tensor.RawTensor
	switch op.kind {
	case tensor.UnaryNeg:
		grad = dev.UnaryOp(tensor.UnaryNeg, outputGrad)
	case tensor.UnaryLog:
		grad = dev.BinaryOp(tensor.BinaryDiv, outputGrad, op.input)
	case tensor.UnaryExp:
		grad = dev.BinaryOp(tensor.BinaryMul, outputGrad, op.output)
	case tensor.UnaryReLU:
		grad = dev.BinaryOp(tensor.BinaryReLUGrad, op.input, outputGrad)
	default:
		panic(fmt.Sprintf("unary backward: unknown kind %d", op.kind))
	}
	return []*tensor.RawTensor{grad}
}

// Inputs returns the input tensors.
func (op *UnaryOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the output tensor.
func (op *UnaryOp) Output() *tensor.RawTensor {
	return op.output
}
