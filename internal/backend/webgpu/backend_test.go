//go:build windows

package webgpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stencil-ml/stencil/internal/backend/cpu"
	"github.com/stencil-ml/stencil/internal/tensor"
)

// gpuBackend skips the test when no adapter is available.
func gpuBackend(t *testing.T) *Backend {
	t.Helper()
	b, err := New()
	if err != nil {
		t.Skipf("webgpu not available: %v", err)
	}
	t.Cleanup(b.Release)
	return b
}

func rawF32(t *testing.T, shape tensor.Shape, data []float32) *tensor.RawTensor {
	t.Helper()
	r, err := tensor.NewRaw(shape, tensor.Float32, tensor.WebGPU)
	require.NoError(t, err)
	copy(r.AsFloat32(), data)
	return r
}

// assertMatchesCPU runs the same kernel on the CPU device and compares.
func assertMatchesCPU(t *testing.T, gpu, ref *tensor.RawTensor) {
	t.Helper()
	require.True(t, gpu.Shape().Equal(ref.Shape()),
		"shape %v, want %v", gpu.Shape(), ref.Shape())
	assert.InDeltaSlice(t, ref.AsFloat32(), gpu.AsFloat32(), 1e-5)
}

func TestGPU_UnaryOps(t *testing.T) {
	gpu := gpuBackend(t)
	ref := cpu.New()
	a := rawF32(t, tensor.Shape{5}, []float32{-2, -0.5, 0, 1, 3})

	for _, k := range []tensor.UnaryKind{tensor.UnaryNeg, tensor.UnaryExp, tensor.UnaryReLU, tensor.UnarySign} {
		assertMatchesCPU(t, gpu.UnaryOp(k, a), ref.UnaryOp(k, a))
	}

	pos := rawF32(t, tensor.Shape{3}, []float32{0.5, 1, 2})
	assertMatchesCPU(t, gpu.UnaryOp(tensor.UnaryLog, pos), ref.UnaryOp(tensor.UnaryLog, pos))
}

func TestGPU_BinaryOps(t *testing.T) {
	gpu := gpuBackend(t)
	ref := cpu.New()
	a := rawF32(t, tensor.Shape{4}, []float32{1, 2, 3, 4})
	b := rawF32(t, tensor.Shape{4}, []float32{0.5, 2, -1, 4})

	for _, k := range []tensor.BinaryKind{
		tensor.BinaryAdd, tensor.BinarySub, tensor.BinaryMul, tensor.BinaryDiv,
		tensor.BinaryFirst, tensor.BinaryCmpEq, tensor.BinaryReLUGrad,
	} {
		assertMatchesCPU(t, gpu.BinaryOp(k, a, b), ref.BinaryOp(k, a, b))
	}
}

func TestGPU_BinaryBroadcast(t *testing.T) {
	gpu := gpuBackend(t)
	ref := cpu.New()
	a := rawF32(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})
	b := rawF32(t, tensor.Shape{3}, []float32{10, 20, 30})

	assertMatchesCPU(t, gpu.BinaryOp(tensor.BinaryAdd, a, b), ref.BinaryOp(tensor.BinaryAdd, a, b))
	assertMatchesCPU(t, gpu.BinaryOp(tensor.BinaryMul, b, a), ref.BinaryOp(tensor.BinaryMul, b, a))
}

func TestGPU_Reduce(t *testing.T) {
	gpu := gpuBackend(t)
	ref := cpu.New()
	a := rawF32(t, tensor.Shape{2, 3}, []float32{1, -5, 3, -4, 8, 6})

	for _, axes := range [][]int{{0}, {1}, nil} {
		assertMatchesCPU(t, gpu.ReduceOp(tensor.ReduceSum, a, axes), ref.ReduceOp(tensor.ReduceSum, a, axes))
		assertMatchesCPU(t, gpu.ReduceOp(tensor.ReduceMax, a, axes), ref.ReduceOp(tensor.ReduceMax, a, axes))
	}
}

func TestGPU_Movement(t *testing.T) {
	gpu := gpuBackend(t)
	ref := cpu.New()
	a := rawF32(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})

	assertMatchesCPU(t, gpu.PermAxis(a, []int{1, 0}), ref.PermAxis(a, []int{1, 0}))

	arg := [][2]int{{-1, 3}, {1, 4}}
	assertMatchesCPU(t, gpu.InnerSlice(a, arg), ref.InnerSlice(a, arg))

	out := gpu.Reshape(a, tensor.Shape{3, 2})
	assert.Equal(t, tensor.Shape{3, 2}, out.Shape())
}

func TestGPU_MatMul(t *testing.T) {
	gpu := gpuBackend(t)
	ref := cpu.New()
	a := rawF32(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})
	b := rawF32(t, tensor.Shape{3, 2}, []float32{7, 8, 9, 10, 11, 12})

	assertMatchesCPU(t, gpu.MatMul(a, b, false, false), ref.MatMul(a, b, false, false))

	bt := rawF32(t, tensor.Shape{2, 3}, []float32{7, 9, 11, 8, 10, 12})
	assertMatchesCPU(t, gpu.MatMul(a, bt, false, true), ref.MatMul(a, bt, false, true))
}

func TestGPU_Conv(t *testing.T) {
	gpu := gpuBackend(t)
	ref := cpu.New()

	x := rawF32(t, tensor.Shape{1, 2, 4, 4}, make([]float32, 32))
	for i := range x.AsFloat32() {
		x.AsFloat32()[i] = float32(i%7) - 3
	}
	w := rawF32(t, tensor.Shape{2, 2, 2, 2}, []float32{
		1, -1, 0.5, 2, -0.5, 1, 2, -2,
		0.25, 1, -1, 0.5, 2, -0.25, 1, -1,
	})
	args, err := tensor.PackConvArgs(x.Shape(), w.Shape(), [2]int{1, 1}, 1)
	require.NoError(t, err)

	out := gpu.Conv(x, w, args)
	refOut := ref.Conv(x, w, args)
	assertMatchesCPU(t, out, refOut)

	grad := rawF32(t, args.OutShape(), make([]float32, args.OutShape().NumElements()))
	for i := range grad.AsFloat32() {
		grad.AsFloat32()[i] = 1
	}
	assertMatchesCPU(t, gpu.ConvDX(w, grad, args), ref.ConvDX(w, grad, args))
	assertMatchesCPU(t, gpu.ConvDW(x, grad, args), ref.ConvDW(x, grad, args))
}

func TestGPU_PoolReuse(t *testing.T) {
	gpu := gpuBackend(t)
	a := rawF32(t, tensor.Shape{8}, []float32{1, 2, 3, 4, 5, 6, 7, 8})

	gpu.UnaryOp(tensor.UnaryNeg, a)
	gpu.UnaryOp(tensor.UnaryExp, a)

	stats := gpu.PoolStats()
	assert.GreaterOrEqual(t, stats.Hits, uint64(1))
}
