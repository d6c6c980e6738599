package cpu

import (
	"fmt"
	"math"

	"github.com/stencil-ml/stencil/internal/parallel"
	"github.com/stencil-ml/stencil/internal/tensor"
)

// unaryScalar returns the scalar kernel for a unary kind. The float64
// signature is shared by both float dtypes; float32 kernels convert through
// float64 like the rest of the backend.
func unaryScalar(k tensor.UnaryKind) func(float64) float64 {
	switch k {
	case tensor.UnaryNeg:
		return func(v float64) float64 { return -v }
	case tensor.UnaryLog:
		return math.Log
	case tensor.UnaryExp:
		return math.Exp
	case tensor.UnaryReLU:
		return func(v float64) float64 { return math.Max(v, 0) }
	case tensor.UnarySign:
		return func(v float64) float64 {
			switch {
			case v > 0:
				return 1
			case v < 0:
				return -1
			default:
				return 0
			}
		}
	default:
		panic(fmt.Sprintf("unary: unknown kind %d", k))
	}
}

// binaryScalar returns the scalar kernel for a binary kind.
func binaryScalar(k tensor.BinaryKind) func(a, b float64) float64 {
	switch k {
	case tensor.BinaryAdd:
		return func(a, b float64) float64 { return a + b }
	case tensor.BinarySub:
		return func(a, b float64) float64 { return a - b }
	case tensor.BinaryMul:
		return func(a, b float64) float64 { return a * b }
	case tensor.BinaryDiv:
		return func(a, b float64) float64 { return a / b }
	case tensor.BinaryPow:
		return math.Pow
	case tensor.BinaryFirst:
		return func(a, _ float64) float64 { return a }
	case tensor.BinaryCmpEq:
		return func(a, b float64) float64 {
			if a == b {
				return 1
			}
			return 0
		}
	case tensor.BinaryReLUGrad:
		return func(a, b float64) float64 {
			if a >= 0 {
				return b
			}
			return 0
		}
	case tensor.BinaryPowGradA:
		return func(a, b float64) float64 { return b * math.Pow(a, b-1) }
	case tensor.BinaryPowGradB:
		return func(a, b float64) float64 { return math.Log(a) * math.Pow(a, b) }
	default:
		panic(fmt.Sprintf("binary: unknown kind %d", k))
	}
}

// UnaryOp applies an elementwise kernel, producing a tensor of the same shape.
func (cpu *CPUBackend) UnaryOp(k tensor.UnaryKind, a *tensor.RawTensor) *tensor.RawTensor {
	out := cpu.newResult("unary "+k.String(), a.Shape(), a.DType())
	f := unaryScalar(k)

	switch a.DType() {
	case tensor.Float32:
		applyUnary(out.AsFloat32(), a.AsFloat32(), f, cpu.par)
	case tensor.Float64:
		applyUnary(out.AsFloat64(), a.AsFloat64(), f, cpu.par)
	default:
		panic(fmt.Sprintf("unary %s: unsupported dtype %s", k, a.DType()))
	}
	return out
}

func applyUnary[T number](dst, src []T, f func(float64) float64, cfg parallel.Config) {
	parallel.For(len(src), func(i int) {
		dst[i] = T(f(float64(src[i])))
	}, cfg)
}

// BinaryOp applies an elementwise kernel with NumPy-style broadcasting.
func (cpu *CPUBackend) BinaryOp(k tensor.BinaryKind, a, b *tensor.RawTensor) *tensor.RawTensor {
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("binary %s: dtype mismatch %s vs %s", k, a.DType(), b.DType()))
	}

	outShape, needsBroadcast, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("binary %s: %v", k, err))
	}

	out := cpu.newResult("binary "+k.String(), outShape, a.DType())
	f := binaryScalar(k)

	switch a.DType() {
	case tensor.Float32:
		if needsBroadcast {
			applyBinaryBroadcast(out.AsFloat32(), a.AsFloat32(), b.AsFloat32(), a.Shape(), b.Shape(), outShape, f, cpu.par)
		} else {
			applyBinary(out.AsFloat32(), a.AsFloat32(), b.AsFloat32(), f, cpu.par)
		}
	case tensor.Float64:
		if needsBroadcast {
			applyBinaryBroadcast(out.AsFloat64(), a.AsFloat64(), b.AsFloat64(), a.Shape(), b.Shape(), outShape, f, cpu.par)
		} else {
			applyBinary(out.AsFloat64(), a.AsFloat64(), b.AsFloat64(), f, cpu.par)
		}
	default:
		panic(fmt.Sprintf("binary %s: unsupported dtype %s", k, a.DType()))
	}
	return out
}

func applyBinary[T number](dst, a, b []T, f func(x, y float64) float64, cfg parallel.Config) {
	parallel.For(len(dst), func(i int) {
		dst[i] = T(f(float64(a[i]), float64(b[i])))
	}, cfg)
}

// broadcastStrides returns, for each output dimension, the source stride to
// advance by (0 where the source dimension is missing or broadcast).
// Dimensions are right-aligned per the broadcasting rules.
func broadcastStrides(src, out tensor.Shape) []int {
	srcStrides := src.ComputeStrides()
	res := make([]int, len(out))
	offset := len(out) - len(src)
	for d := range out {
		sd := d - offset
		if sd >= 0 && src[sd] != 1 {
			res[d] = srcStrides[sd]
		}
	}
	return res
}

func applyBinaryBroadcast[T number](dst, a, b []T, aShape, bShape, outShape tensor.Shape, f func(x, y float64) float64, cfg parallel.Config) {
	outStrides := outShape.ComputeStrides()
	sa := broadcastStrides(aShape, outShape)
	sb := broadcastStrides(bShape, outShape)
	ndim := len(outShape)

	parallel.For(len(dst), func(i int) {
		rem := i
		ia, ib := 0, 0
		for d := 0; d < ndim; d++ {
			c := rem / outStrides[d]
			rem %= outStrides[d]
			ia += c * sa[d]
			ib += c * sb[d]
		}
		dst[i] = T(f(float64(a[ia]), float64(b[ib])))
	}, cfg)
}
