// Package cpu implements the reference CPU device: pure Go kernels with
// chunked parallel dispatch.
package cpu

import (
	"github.com/stencil-ml/stencil/internal/parallel"
	"github.com/stencil-ml/stencil/internal/tensor"
)

// number constrains the dtypes the compute kernels operate on.
type number interface {
	~float32 | ~float64
}

// element constrains the dtypes the movement kernels operate on.
type element interface {
	~float32 | ~float64 | ~int32
}

// CPUBackend implements the device primitive surface on the host CPU.
type CPUBackend struct {
	device tensor.Device
	par    parallel.Config
}

// New creates a CPU backend with default parallel dispatch.
func New() *CPUBackend {
	return NewWithParallel(parallel.DefaultConfig())
}

// NewWithParallel creates a CPU backend with explicit dispatch tuning.
func NewWithParallel(cfg parallel.Config) *CPUBackend {
	return &CPUBackend{
		device: tensor.CPU,
		par:    cfg,
	}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// newResult allocates an output tensor, panicking on invalid shapes the way
// all kernel-level misuse is reported.
func (cpu *CPUBackend) newResult(op string, shape tensor.Shape, dtype tensor.DataType) *tensor.RawTensor {
	out, err := tensor.NewRaw(shape, dtype, cpu.device)
	if err != nil {
		panic(op + ": " + err.Error())
	}
	return out
}
