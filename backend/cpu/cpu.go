// Copyright 2025 Stencil ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the CPU compute backend.
package cpu

import (
	internalcpu "github.com/stencil-ml/stencil/internal/backend/cpu"
	"github.com/stencil-ml/stencil/internal/parallel"
	"github.com/stencil-ml/stencil/tensor"
)

// Backend represents the CPU backend implementation.
//
// The CPU backend provides pure Go implementations of every device primitive
// with chunked parallel dispatch across goroutines.
type Backend = internalcpu.CPUBackend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// ParallelConfig tunes the chunked dispatch of CPU kernels.
type ParallelConfig = parallel.Config

// New creates a new CPU backend with default parallel dispatch.
//
// Example:
//
//	import (
//	    "github.com/stencil-ml/stencil/backend/cpu"
//	    "github.com/stencil-ml/stencil/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	}
func New() *Backend {
	return internalcpu.New()
}

// NewWithParallel creates a CPU backend with explicit dispatch tuning.
func NewWithParallel(cfg ParallelConfig) *Backend {
	return internalcpu.NewWithParallel(cfg)
}
