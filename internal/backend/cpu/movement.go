package cpu

import (
	"fmt"

	"github.com/stencil-ml/stencil/internal/parallel"
	"github.com/stencil-ml/stencil/internal/tensor"
)

// PermAxis permutes the tensor's axes by the given order.
func (cpu *CPUBackend) PermAxis(a *tensor.RawTensor, order []int) *tensor.RawTensor {
	shape := a.Shape()
	ndim := len(shape)

	if len(order) != ndim {
		panic(fmt.Sprintf("permaxis: order length %d != ndim %d", len(order), ndim))
	}
	seen := make([]bool, ndim)
	for _, ax := range order {
		if ax < 0 || ax >= ndim {
			panic(fmt.Sprintf("permaxis: invalid axis %d for %dD tensor", ax, ndim))
		}
		if seen[ax] {
			panic(fmt.Sprintf("permaxis: duplicate axis %d", ax))
		}
		seen[ax] = true
	}

	newShape := make(tensor.Shape, ndim)
	for i, ax := range order {
		newShape[i] = shape[ax]
	}

	out := cpu.newResult("permaxis", newShape, a.DType())

	switch a.DType() {
	case tensor.Float32:
		permKernel(out.AsFloat32(), a.AsFloat32(), shape, newShape, order, cpu.par)
	case tensor.Float64:
		permKernel(out.AsFloat64(), a.AsFloat64(), shape, newShape, order, cpu.par)
	case tensor.Int32:
		permKernel(out.AsInt32(), a.AsInt32(), shape, newShape, order, cpu.par)
	default:
		panic(fmt.Sprintf("permaxis: unsupported dtype %s", a.DType()))
	}
	return out
}

func permKernel[T element](dst, src []T, srcShape, dstShape tensor.Shape, order []int, cfg parallel.Config) {
	srcStrides := srcShape.ComputeStrides()
	dstStrides := dstShape.ComputeStrides()
	ndim := len(dstShape)

	parallel.For(len(dst), func(i int) {
		rem := i
		si := 0
		for d := 0; d < ndim; d++ {
			c := rem / dstStrides[d]
			rem %= dstStrides[d]
			si += c * srcStrides[order[d]]
		}
		dst[i] = src[si]
	}, cfg)
}

// InnerSlice extracts arg[i] = [begin, end) per axis. Ranges past either end
// of the source read as zero, which is how the movement layer expresses
// padding.
func (cpu *CPUBackend) InnerSlice(a *tensor.RawTensor, arg [][2]int) *tensor.RawTensor {
	shape := a.Shape()
	ndim := len(shape)

	if len(arg) != ndim {
		panic(fmt.Sprintf("innerslice: got %d ranges for %dD tensor", len(arg), ndim))
	}

	outShape := make(tensor.Shape, ndim)
	for d, r := range arg {
		if r[1] <= r[0] {
			panic(fmt.Sprintf("innerslice: empty range [%d, %d) on axis %d", r[0], r[1], d))
		}
		outShape[d] = r[1] - r[0]
	}

	out := cpu.newResult("innerslice", outShape, a.DType())

	switch a.DType() {
	case tensor.Float32:
		sliceKernel(out.AsFloat32(), a.AsFloat32(), shape, outShape, arg, cpu.par)
	case tensor.Float64:
		sliceKernel(out.AsFloat64(), a.AsFloat64(), shape, outShape, arg, cpu.par)
	case tensor.Int32:
		sliceKernel(out.AsInt32(), a.AsInt32(), shape, outShape, arg, cpu.par)
	default:
		panic(fmt.Sprintf("innerslice: unsupported dtype %s", a.DType()))
	}
	return out
}

func sliceKernel[T element](dst, src []T, srcShape, dstShape tensor.Shape, arg [][2]int, cfg parallel.Config) {
	srcStrides := srcShape.ComputeStrides()
	dstStrides := dstShape.ComputeStrides()
	ndim := len(dstShape)

	parallel.For(len(dst), func(i int) {
		rem := i
		si := 0
		inBounds := true
		for d := 0; d < ndim; d++ {
			c := rem / dstStrides[d]
			rem %= dstStrides[d]
			sc := c + arg[d][0]
			if sc < 0 || sc >= srcShape[d] {
				inBounds = false
				break
			}
			si += sc * srcStrides[d]
		}
		if inBounds {
			dst[i] = src[si]
		} else {
			dst[i] = 0
		}
	}, cfg)
}

// Reshape returns a zero-copy view of the tensor under a new shape.
func (cpu *CPUBackend) Reshape(a *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	out, err := a.View(shape)
	if err != nil {
		panic("reshape: " + err.Error())
	}
	return out
}
