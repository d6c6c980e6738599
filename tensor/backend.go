// Copyright 2025 Stencil ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import "github.com/stencil-ml/stencil/internal/tensor"

// Backend is the device primitive surface every tensor operation compiles
// down to: buffer-to-buffer kernels parameterized by kernel kind.
//
// Implementations:
//   - backend/cpu: pure Go kernels with parallel dispatch
//   - backend/webgpu: WGSL compute kernels with pipeline caching
//
// Decorator backends for additional functionality:
//   - autodiff: records operations for backpropagation (wraps any backend)
//
// Example:
//
//	import (
//	    "github.com/stencil-ml/stencil/tensor"
//	    "github.com/stencil-ml/stencil/backend/cpu"
//	)
//
//	backend := cpu.New()
//	x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
//	z := x.Add(y)  // Uses backend.BinaryOp under the hood
type Backend = tensor.Backend

// UnaryKind selects the scalar kernel for an elementwise unary operation.
type UnaryKind = tensor.UnaryKind

// Unary kernel kinds.
const (
	UnaryNeg  UnaryKind = tensor.UnaryNeg
	UnaryLog  UnaryKind = tensor.UnaryLog
	UnaryExp  UnaryKind = tensor.UnaryExp
	UnaryReLU UnaryKind = tensor.UnaryReLU
	UnarySign UnaryKind = tensor.UnarySign
)

// BinaryKind selects the scalar kernel for an elementwise binary operation.
type BinaryKind = tensor.BinaryKind

// Binary kernel kinds. The first five are the differentiable arithmetic
// kernels; the remainder are gradient helpers used by backward passes.
const (
	BinaryAdd      BinaryKind = tensor.BinaryAdd
	BinarySub      BinaryKind = tensor.BinarySub
	BinaryMul      BinaryKind = tensor.BinaryMul
	BinaryDiv      BinaryKind = tensor.BinaryDiv
	BinaryPow      BinaryKind = tensor.BinaryPow
	BinaryFirst    BinaryKind = tensor.BinaryFirst
	BinaryCmpEq    BinaryKind = tensor.BinaryCmpEq
	BinaryReLUGrad BinaryKind = tensor.BinaryReLUGrad
	BinaryPowGradA BinaryKind = tensor.BinaryPowGradA
	BinaryPowGradB BinaryKind = tensor.BinaryPowGradB
)

// ReduceKind selects the fold kernel for a reduction.
type ReduceKind = tensor.ReduceKind

// Reduce kernel kinds.
const (
	ReduceSum ReduceKind = tensor.ReduceSum
	ReduceMax ReduceKind = tensor.ReduceMax
)

// ConvArgs is the packed argument block shared by the three convolution
// kernels (forward, input gradient, weight gradient).
type ConvArgs = tensor.ConvArgs

// PackConvArgs validates a grouped, strided, valid-padding 2D convolution and
// packs its kernel arguments. x is [N, Cin*groups, H, W], w is
// [Cout, Cin, KH, KW].
func PackConvArgs(x, w Shape, stride [2]int, groups int) (ConvArgs, error) {
	return tensor.PackConvArgs(x, w, stride, groups)
}
