package ops

import "github.com/stencil-ml/stencil/internal/tensor"

// MatMulOp records a matrix multiplication a @ b where b is 2D and a may
// carry leading batch dimensions.
//
// Backward:
//
//	∂L/∂a = grad @ b^T
//	∂L/∂b = a^T @ grad
//
// The transposes use the device's transposed-read flags instead of
// materializing permuted tensors.
type MatMulOp struct {
	a, b   *tensor.RawTensor
	output *tensor.RawTensor
	needs  [2]bool
}

// NewMatMulOp creates a matmul record.
func NewMatMulOp(a, b, output *tensor.RawTensor, needs [2]bool) *MatMulOp {
	return &MatMulOp{a: a, b: b, output: output, needs: needs}
}

// Backward computes the operand gradients.
func (op *MatMulOp) Backward(outputGrad *tensor.RawTensor, dev tensor.Backend) []*tensor.RawTensor {
	var ga, gb *tensor.RawTensor

	if op.needs[0] {
		// grad [..., N] @ b^T [N, K] keeps a's leading dims.
		ga = dev.MatMul(outputGrad, op.b, false, true)
	}
	if op.needs[1] {
		// Fold a and grad to 2D for the transposed-read product.
		aShape := op.a.Shape()
		k := aShape[len(aShape)-1]
		m := op.a.NumElements() / k
		n := op.b.Shape()[1]

		a2 := dev.Reshape(op.a, tensor.Shape{m, k})
		g2 := dev.Reshape(outputGrad, tensor.Shape{m, n})
		gb = dev.MatMul(a2, g2, true, false)
	}
	return []*tensor.RawTensor{ga, gb}
}

// Inputs returns the input tensors.
func (op *MatMulOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.a, op.b}
}

// Output returns the output tensor.
func (op *MatMulOp) Output() *tensor.RawTensor {
	return op.output
}
