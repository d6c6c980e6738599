package ops

import (
	"fmt"

	"github.com/stencil-ml/stencil/internal/tensor"
)

// BinaryOp records a broadcasting elementwise binary operation.
//
// Backward rules (before unbroadcast to each operand's shape):
//   - Add: ∂L/∂a = grad,            ∂L/∂b = grad
//   - Sub: ∂L/∂a = grad,            ∂L/∂b = -grad
//   - Mul: ∂L/∂a = grad * b,        ∂L/∂b = grad * a
//   - Div: ∂L/∂a = grad / b,        ∂L/∂b = -grad * (a/b) / b
//   - Pow: ∂L/∂a = grad * b*a^(b-1), ∂L/∂b = grad * ln(a)*a^b
//
// When an operand was broadcast, its gradient is summed back down to the
// operand's shape.
type BinaryOp struct {
	kind   tensor.BinaryKind
	a, b   *tensor.RawTensor
	output *tensor.RawTensor
	needs  [2]bool
}

// NewBinaryOp creates a binary operation record.
func NewBinaryOp(kind tensor.BinaryKind, a, b, output *tensor.RawTensor, needs [2]bool) *BinaryOp {
	return &BinaryOp{kind: kind, a: a, b: b, output: output, needs: needs}
}

// Backward computes the operand gradients for the recorded kind.
func (op *BinaryOp) Backward(outputGrad *tensor.RawTensor, dev tensor.Backend) []*tensor.RawTensor {
	var ga, gb *tensor.RawTensor

	switch op.kind {
	case tensor.BinaryAdd:
		if op.needs[0] {
			ga = outputGrad
		}
		if op.needs[1] {
			gb = outputGrad
		}
	case tensor.BinarySub:
		if op.needs[0] {
			ga = outputGrad
		}
		if op.needs[1] {
			gb = dev.UnaryOp(tensor.UnaryNeg, outputGrad)
		}
	case tensor.BinaryMul:
		if op.needs[0] {
			ga = dev.BinaryOp(tensor.BinaryMul, outputGrad, op.b)
		}
		if op.needs[1] {
			gb = dev.BinaryOp(tensor.BinaryMul, outputGrad, op.a)
		}
	case tensor.BinaryDiv:
		if op.needs[0] {
			ga = dev.BinaryOp(tensor.BinaryDiv, outputGrad, op.b)
		}
		if op.needs[1] {
			// -grad * output / b, reusing output = a/b.
			ratio := dev.BinaryOp(tensor.BinaryDiv, op.output, op.b)
			gb = dev.BinaryOp(tensor.BinaryMul, outputGrad, dev.UnaryOp(tensor.UnaryNeg, ratio))
		}
	case tensor.BinaryPow:
		if op.needs[0] {
			ga = dev.BinaryOp(tensor.BinaryMul, outputGrad, dev.BinaryOp(tensor.BinaryPowGradA, op.a, op.b))
		}
		if op.needs[1] {
			gb = dev.BinaryOp(tensor.BinaryMul, outputGrad, dev.BinaryOp(tensor.BinaryPowGradB, op.a, op.b))
		}
	default:
		panic(fmt.Sprintf("binary backward: kind %s is not differentiable", op.kind))
	}

	if ga != nil {
		ga = unbroadcast(ga, op.a.Shape(), dev)
	}
	if gb != nil {
		gb = unbroadcast(gb, op.b.Shape(), dev)
	}
	return []*tensor.RawTensor{ga, gb}
}

// Inputs returns the input tensors.
func (op *BinaryOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.a, op.b}
}

// Output returns the output tensor.
func (op *BinaryOp) Output() *tensor.RawTensor {
	return op.output
}
