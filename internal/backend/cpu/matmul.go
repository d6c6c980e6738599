package cpu

import (
	"fmt"

	"github.com/stencil-ml/stencil/internal/parallel"
	"github.com/stencil-ml/stencil/internal/tensor"
)

// MatMul multiplies the last two dimensions of a by the 2D matrix b. Leading
// dimensions of a are folded into the row count and restored on the output.
// The transpose flags require 2D operands.
func (cpu *CPUBackend) MatMul(a, b *tensor.RawTensor, transA, transB bool) *tensor.RawTensor {
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("matmul: dtype mismatch %s vs %s", a.DType(), b.DType()))
	}
	aShape, bShape := a.Shape(), b.Shape()
	if len(aShape) < 2 || len(bShape) != 2 {
		panic(fmt.Sprintf("matmul: need >=2D x 2D operands, got %v x %v", aShape, bShape))
	}
	if transA && len(aShape) != 2 {
		panic(fmt.Sprintf("matmul: transA requires a 2D left operand, got %v", aShape))
	}

	// Fold leading dims into M.
	m := 1
	for _, d := range aShape[:len(aShape)-1] {
		m *= d
	}
	ka := aShape[len(aShape)-1]
	if transA {
		m, ka = ka, m
	}
	kb, n := bShape[0], bShape[1]
	if transB {
		kb, n = n, kb
	}
	if ka != kb {
		panic(fmt.Sprintf("matmul: inner dimensions %d and %d do not match", ka, kb))
	}

	outShape := make(tensor.Shape, 0, len(aShape))
	if transA {
		outShape = append(outShape, m, n)
	} else {
		outShape = append(outShape, aShape[:len(aShape)-1]...)
		outShape = append(outShape, n)
	}

	out := cpu.newResult("matmul", outShape, a.DType())

	switch a.DType() {
	case tensor.Float32:
		matmulKernel(out.AsFloat32(), a.AsFloat32(), b.AsFloat32(), m, ka, n, transA, transB, cpu.par)
	case tensor.Float64:
		matmulKernel(out.AsFloat64(), a.AsFloat64(), b.AsFloat64(), m, ka, n, transA, transB, cpu.par)
	default:
		panic(fmt.Sprintf("matmul: unsupported dtype %s", a.DType()))
	}
	return out
}

func matmulKernel[T number](dst, a, b []T, m, k, n int, transA, transB bool, cfg parallel.Config) {
	parallel.For(m, func(i int) {
		for j := 0; j < n; j++ {
			var sum T
			for p := 0; p < k; p++ {
				var av, bv T
				if transA {
					av = a[p*m+i]
				} else {
					av = a[i*k+p]
				}
				if transB {
					bv = b[j*k+p]
				} else {
					bv = b[p*n+j]
				}
				sum += av * bv
			}
			dst[i*n+j] = sum
		}
	}, cfg)
}
