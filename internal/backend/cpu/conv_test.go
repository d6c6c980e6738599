package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stencil-ml/stencil/internal/tensor"
)

func convArgs(t *testing.T, x, w tensor.Shape, stride [2]int, groups int) tensor.ConvArgs {
	t.Helper()
	args, err := tensor.PackConvArgs(x, w, stride, groups)
	require.NoError(t, err)
	return args
}

func TestConv(t *testing.T) {
	cpu := New()
	x := rawF32(t, tensor.Shape{1, 1, 3, 3}, []float32{1, 2, 3, 4, 5, 6, 7, 8, 9})
	w := rawF32(t, tensor.Shape{1, 1, 2, 2}, []float32{1, 1, 1, 1})
	args := convArgs(t, x.Shape(), w.Shape(), [2]int{1, 1}, 1)

	out := cpu.Conv(x, w, args)
	assert.Equal(t, tensor.Shape{1, 1, 2, 2}, out.Shape())
	assert.Equal(t, []float32{12, 16, 24, 28}, out.AsFloat32())
}

func TestConv_Strided(t *testing.T) {
	cpu := New()
	x := rawF32(t, tensor.Shape{1, 1, 4, 4}, []float32{
		1, 2, 3, 4,
		5, 6, 7, 8,
		9, 10, 11, 12,
		13, 14, 15, 16,
	})
	w := rawF32(t, tensor.Shape{1, 1, 2, 2}, []float32{1, 1, 1, 1})
	args := convArgs(t, x.Shape(), w.Shape(), [2]int{2, 2}, 1)

	out := cpu.Conv(x, w, args)
	assert.Equal(t, tensor.Shape{1, 1, 2, 2}, out.Shape())
	assert.Equal(t, []float32{14, 22, 46, 54}, out.AsFloat32())
}

func TestConv_Grouped(t *testing.T) {
	cpu := New()
	// Two groups of one channel each with 1x1 kernels: per-channel scaling.
	x := rawF32(t, tensor.Shape{1, 2, 2, 2}, []float32{1, 2, 3, 4, 5, 6, 7, 8})
	w := rawF32(t, tensor.Shape{2, 1, 1, 1}, []float32{2, 3})
	args := convArgs(t, x.Shape(), w.Shape(), [2]int{1, 1}, 2)

	out := cpu.Conv(x, w, args)
	assert.Equal(t, tensor.Shape{1, 2, 2, 2}, out.Shape())
	assert.Equal(t, []float32{2, 4, 6, 8, 15, 18, 21, 24}, out.AsFloat32())
}

func TestConv_MultiChannel(t *testing.T) {
	cpu := New()
	// Two input channels summed by a single 1x1 output channel.
	x := rawF32(t, tensor.Shape{1, 2, 2, 2}, []float32{1, 2, 3, 4, 10, 20, 30, 40})
	w := rawF32(t, tensor.Shape{1, 2, 1, 1}, []float32{1, 1})
	args := convArgs(t, x.Shape(), w.Shape(), [2]int{1, 1}, 1)

	out := cpu.Conv(x, w, args)
	assert.Equal(t, []float32{11, 22, 33, 44}, out.AsFloat32())
}

func TestConvDX(t *testing.T) {
	cpu := New()
	x := rawF32(t, tensor.Shape{1, 1, 3, 3}, make([]float32, 9))
	w := rawF32(t, tensor.Shape{1, 1, 2, 2}, []float32{1, 1, 1, 1})
	args := convArgs(t, x.Shape(), w.Shape(), [2]int{1, 1}, 1)

	grad := rawF32(t, tensor.Shape{1, 1, 2, 2}, []float32{1, 1, 1, 1})
	dx := cpu.ConvDX(w, grad, args)
	assert.Equal(t, tensor.Shape{1, 1, 3, 3}, dx.Shape())
	// Each input pixel receives one contribution per window covering it.
	assert.Equal(t, []float32{
		1, 2, 1,
		2, 4, 2,
		1, 2, 1,
	}, dx.AsFloat32())
}

func TestConvDW(t *testing.T) {
	cpu := New()
	x := rawF32(t, tensor.Shape{1, 1, 3, 3}, []float32{1, 2, 3, 4, 5, 6, 7, 8, 9})
	w := rawF32(t, tensor.Shape{1, 1, 2, 2}, make([]float32, 4))
	args := convArgs(t, x.Shape(), w.Shape(), [2]int{1, 1}, 1)

	grad := rawF32(t, tensor.Shape{1, 1, 2, 2}, []float32{1, 1, 1, 1})
	dw := cpu.ConvDW(x, grad, args)
	assert.Equal(t, tensor.Shape{1, 1, 2, 2}, dw.Shape())
	// With an all-ones gradient each weight sums the window of inputs it saw.
	assert.Equal(t, []float32{12, 16, 24, 28}, dw.AsFloat32())
}

func TestConvDX_Strided(t *testing.T) {
	cpu := New()
	x := rawF32(t, tensor.Shape{1, 1, 4, 4}, make([]float32, 16))
	w := rawF32(t, tensor.Shape{1, 1, 2, 2}, []float32{1, 2, 3, 4})
	args := convArgs(t, x.Shape(), w.Shape(), [2]int{2, 2}, 1)

	grad := rawF32(t, tensor.Shape{1, 1, 2, 2}, []float32{1, 1, 1, 1})
	dx := cpu.ConvDX(w, grad, args)
	// Non-overlapping stride-2 windows tile the weight over the input.
	assert.Equal(t, []float32{
		1, 2, 1, 2,
		3, 4, 3, 4,
		1, 2, 1, 2,
		3, 4, 3, 4,
	}, dx.AsFloat32())
}

func TestConv_ShapeMismatchPanics(t *testing.T) {
	cpu := New()
	x := rawF32(t, tensor.Shape{1, 1, 3, 3}, make([]float32, 9))
	w := rawF32(t, tensor.Shape{1, 1, 2, 2}, make([]float32, 4))
	args := convArgs(t, tensor.Shape{1, 1, 4, 4}, w.Shape(), [2]int{1, 1}, 1)

	assert.Panics(t, func() {
		cpu.Conv(x, w, args)
	})
}
