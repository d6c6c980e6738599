// Copyright 2025 Stencil ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides automatic differentiation capabilities.
//
// This package implements reverse-mode automatic differentiation
// (backpropagation) using a gradient tape. It wraps any backend to add
// autodiff capabilities.
//
// Example:
//
//	import (
//	    "github.com/stencil-ml/stencil/autodiff"
//	    "github.com/stencil-ml/stencil/backend/cpu"
//	    "github.com/stencil-ml/stencil/tensor"
//	)
//
//	func main() {
//	    // Wrap CPU backend with autodiff
//	    dev := autodiff.New(cpu.New())
//	    dev.Tape().StartRecording()
//
//	    x, _ := tensor.FromSlice([]float32{2, 3}, tensor.Shape{2}, dev)
//	    y := x.Mul(x).Sum() // Operations recorded on tape
//
//	    // Compute gradients: dy/dx = 2x
//	    grads := autodiff.Backward(y, dev)
//	    _ = grads[x.Raw()]
//	}
package autodiff

import (
	"github.com/stencil-ml/stencil/internal/autodiff"
	"github.com/stencil-ml/stencil/internal/tensor"
)

// Backend is the autodiff-enabled backend. It decorates any tensor.Backend,
// executing every primitive on the wrapped backend and recording the
// differentiable ones on a tape.
type Backend[B tensor.Backend] = autodiff.AutodiffBackend[B]

// New creates a new autodiff backend wrapping the given backend.
//
// Example:
//
//	base := cpu.New()
//	dev := autodiff.New(base)
func New[B tensor.Backend](backend B) *Backend[B] {
	return autodiff.New(backend)
}

// GradientTape records operations for automatic differentiation.
type GradientTape = autodiff.GradientTape

// NewGradientTape creates a new gradient tape.
func NewGradientTape() *GradientTape {
	return autodiff.NewGradientTape()
}

// BackwardCapable interface for backends that support backpropagation.
type BackwardCapable = autodiff.BackwardCapable

// Backward computes gradients via backpropagation. The output gradient is
// seeded with ones of t's shape, so for a scalar loss the returned map holds
// dL/dx for every tensor x on the tape.
func Backward[T tensor.DType, B BackwardCapable](t *tensor.Tensor[T, B], dev B) map[*tensor.RawTensor]*tensor.RawTensor {
	return autodiff.Backward(t, dev)
}
