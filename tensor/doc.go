// Copyright 2025 Stencil ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides type-safe tensor operations for the Stencil ML
// framework.
//
// # Overview
//
// Tensors are the fundamental data structure in Stencil. This package
// provides:
//   - Generic type-safe tensors (Tensor[T, B])
//   - NumPy-style broadcasting
//   - Zero-copy reshape views
//   - Device abstraction (CPU, WebGPU)
//
// # Basic Usage
//
//	import (
//	    "github.com/stencil-ml/stencil/tensor"
//	    "github.com/stencil-ml/stencil/backend/cpu"
//	)
//
//	func main() {
//	    dev := cpu.New()
//
//	    // Create tensors
//	    x := tensor.Randn[float32](tensor.Shape{2, 3}, dev)
//	    w := tensor.Randn[float32](tensor.Shape{3, 4}, dev)
//
//	    // Tensor operations
//	    y := x.MatMul(w).ReLU()
//	    s := y.Sum()
//	}
//
// # Supported Data Types
//
// The DType constraint covers float32, float64 and int32. Compute kernels
// run on the float types; int32 is carried for index data and movement
// operations.
package tensor
