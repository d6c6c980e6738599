//go:build windows

// Copyright 2025 Stencil ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu provides the WebGPU backend for GPU-accelerated tensor
// operations.
//
// The backend compiles every device primitive to a WGSL compute kernel and
// caches the shader modules and pipelines across calls. Tensors are float32
// on this device.
//
// Example:
//
//	import (
//	    "github.com/stencil-ml/stencil/autodiff"
//	    "github.com/stencil-ml/stencil/backend/webgpu"
//	    "github.com/stencil-ml/stencil/tensor"
//	)
//
//	func main() {
//	    gpu, err := webgpu.New()
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer gpu.Release()
//
//	    backend := autodiff.New(gpu)
//	    x := tensor.Randn[float32](tensor.Shape{1024, 1024}, backend)
//	}
package webgpu

import (
	internalwebgpu "github.com/stencil-ml/stencil/internal/backend/webgpu"
	"github.com/stencil-ml/stencil/tensor"
)

// Backend represents the WebGPU backend implementation for GPU-accelerated
// tensor operations.
type Backend = internalwebgpu.Backend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// PoolStats holds the GPU buffer pool counters.
type PoolStats = internalwebgpu.PoolStats

// New creates a new WebGPU backend.
//
// This function initializes the WebGPU device and returns a backend ready
// for tensor operations. Call Release() when done to free GPU resources.
//
// Returns an error if WebGPU initialization fails (e.g., no compatible GPU).
func New() (*Backend, error) {
	return internalwebgpu.New()
}

// NewWithPoolCap creates a WebGPU backend whose result-buffer pool keeps at
// most poolCap idle buffers per size category. Zero or negative means the
// library default.
func NewWithPoolCap(poolCap int) (*Backend, error) {
	return internalwebgpu.NewWithPoolCap(poolCap)
}

// IsAvailable checks if WebGPU is available on the current system.
//
// It attempts to initialize a WebGPU adapter to verify that a compatible GPU
// and drivers are present, which allows graceful fallback to the CPU backend.
//
// Example:
//
//	if webgpu.IsAvailable() {
//	    gpu, _ := webgpu.New()
//	    backend = autodiff.New(gpu)
//	} else {
//	    backend = autodiff.New(cpu.New())
//	}
func IsAvailable() bool {
	return internalwebgpu.IsAvailable()
}
