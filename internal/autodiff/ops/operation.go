// Package ops defines the differentiable operations recorded by the gradient
// tape.
//
// Each operation saves the tensors its backward pass needs, plus a mask of
// which inputs require gradients. Backward returns one gradient per input,
// nil for inputs that do not require one, and expresses every gradient
// through the same device primitives the forward pass uses.
package ops

import "github.com/stencil-ml/stencil/internal/tensor"

// Operation represents a differentiable operation in the computation graph.
// Each operation records its inputs and output during the forward pass,
// and computes input gradients during the backward pass.
type Operation interface {
	// Backward computes gradients for inputs given the output gradient.
	// The returned slice is parallel to Inputs(); entries for inputs that
	// do not require gradients are nil.
	Backward(outputGrad *tensor.RawTensor, dev tensor.Backend) []*tensor.RawTensor

	// Inputs returns the input tensors for this operation.
	Inputs() []*tensor.RawTensor

	// Output returns the output tensor produced by this operation.
	Output() *tensor.RawTensor
}
