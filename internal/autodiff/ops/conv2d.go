package ops

import "github.com/stencil-ml/stencil/internal/tensor"

// Conv2DOp records a grouped strided 2D convolution.
//
// Forward: output = Conv(input, weight, args)
//
// Backward delegates both gradients to the device's dedicated kernels:
//
//	∂L/∂input  = ConvDX(weight, grad, args)
//	∂L/∂weight = ConvDW(input, grad, args)
type Conv2DOp struct {
	input  *tensor.RawTensor
	weight *tensor.RawTensor
	output *tensor.RawTensor
	args   tensor.ConvArgs
	needs  [2]bool
}

// NewConv2DOp creates a convolution record.
func NewConv2DOp(input, weight, output *tensor.RawTensor, args tensor.ConvArgs, needs [2]bool) *Conv2DOp {
	return &Conv2DOp{input: input, weight: weight, output: output, args: args, needs: needs}
}

// Backward computes the input and weight gradients.
func (op *Conv2DOp) Backward(outputGrad *tensor.RawTensor, dev tensor.Backend) []*tensor.RawTensor {
	var dx, dw *tensor.RawTensor
	if op.needs[0] {
		dx = dev.ConvDX(op.weight, outputGrad, op.args)
	}
	if op.needs[1] {
		dw = dev.ConvDW(op.input, outputGrad, op.args)
	}
	return []*tensor.RawTensor{dx, dw}
}

// Inputs returns the input tensors.
func (op *Conv2DOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input, op.weight}
}

// Output returns the output tensor.
func (op *Conv2DOp) Output() *tensor.RawTensor {
	return op.output
}
