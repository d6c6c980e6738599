package cpu

import (
	"fmt"
	"math"

	"github.com/stencil-ml/stencil/internal/tensor"
)

// ReduceOp folds the named axes down to size 1. Empty axes reduces every
// axis. The fold is a single sequential pass over the input; the index
// arithmetic maps each source element to its output slot.
func (cpu *CPUBackend) ReduceOp(k tensor.ReduceKind, a *tensor.RawTensor, axes []int) *tensor.RawTensor {
	norm, err := tensor.NormalizeAxes(a.Shape(), axes)
	if err != nil {
		panic(fmt.Sprintf("reduce %s: %v", k, err))
	}
	outShape, err := tensor.ReduceShape(a.Shape(), norm)
	if err != nil {
		panic(fmt.Sprintf("reduce %s: %v", k, err))
	}

	reduced := make([]bool, len(a.Shape()))
	for _, ax := range norm {
		reduced[ax] = true
	}

	out := cpu.newResult("reduce "+k.String(), outShape, a.DType())

	switch a.DType() {
	case tensor.Float32:
		reduceKernel(out.AsFloat32(), a.AsFloat32(), a.Shape(), outShape, reduced, k)
	case tensor.Float64:
		reduceKernel(out.AsFloat64(), a.AsFloat64(), a.Shape(), outShape, reduced, k)
	default:
		panic(fmt.Sprintf("reduce %s: unsupported dtype %s", k, a.DType()))
	}
	return out
}

func reduceKernel[T number](dst, src []T, shape, outShape tensor.Shape, reduced []bool, k tensor.ReduceKind) {
	var start T
	switch k {
	case tensor.ReduceSum:
		start = 0
	case tensor.ReduceMax:
		start = T(math.Inf(-1))
	default:
		panic(fmt.Sprintf("reduce: unknown kind %d", k))
	}
	for i := range dst {
		dst[i] = start
	}

	inStrides := shape.ComputeStrides()
	outStrides := outShape.ComputeStrides()
	ndim := len(shape)

	for i, v := range src {
		rem := i
		oi := 0
		for d := 0; d < ndim; d++ {
			c := rem / inStrides[d]
			rem %= inStrides[d]
			if !reduced[d] {
				oi += c * outStrides[d]
			}
		}
		switch k {
		case tensor.ReduceSum:
			dst[oi] += v
		case tensor.ReduceMax:
			if v > dst[oi] {
				dst[oi] = v
			}
		}
	}
}
