package autodiff_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stencil-ml/stencil/internal/autodiff"
	"github.com/stencil-ml/stencil/internal/backend/cpu"
	"github.com/stencil-ml/stencil/internal/tensor"
)

// gradInput is one differentiable input to a checked function.
type gradInput struct {
	shape tensor.Shape
	data  []float64
}

// checkGradients compares tape gradients against central finite differences
// for the implicit loss L = sum(f(inputs)).
func checkGradients(t *testing.T, inputs []gradInput, f func(dev tensor.Backend, xs []*tensor.RawTensor) *tensor.RawTensor) {
	t.Helper()

	build := func(dev tensor.Backend) []*tensor.RawTensor {
		xs := make([]*tensor.RawTensor, len(inputs))
		for i, in := range inputs {
			r, err := tensor.NewRaw(in.shape, tensor.Float64, dev.Device())
			require.NoError(t, err)
			copy(r.AsFloat64(), in.data)
			xs[i] = r
		}
		return xs
	}

	// Tape gradients.
	adev := autodiff.New(cpu.New())
	adev.Tape().StartRecording()
	xs := build(adev)
	out := f(adev, xs)

	seed, err := tensor.NewRaw(out.Shape(), tensor.Float64, adev.Device())
	require.NoError(t, err)
	for i := range seed.AsFloat64() {
		seed.AsFloat64()[i] = 1
	}
	grads := adev.Tape().Backward(seed, adev)

	// Finite differences on the plain backend.
	cdev := cpu.New()
	loss := func(ys []*tensor.RawTensor) float64 {
		var sum float64
		for _, v := range f(cdev, ys).AsFloat64() {
			sum += v
		}
		return sum
	}

	const eps = 1e-6
	for i, in := range inputs {
		got, ok := grads[xs[i]]
		require.True(t, ok, "input %d has no gradient", i)
		require.True(t, got.Shape().Equal(in.shape),
			"input %d gradient shape %v, want %v", i, got.Shape(), in.shape)

		for j := range in.data {
			ys := build(cdev)
			ys[i].AsFloat64()[j] = in.data[j] + eps
			plus := loss(ys)
			ys = build(cdev)
			ys[i].AsFloat64()[j] = in.data[j] - eps
			minus := loss(ys)

			numeric := (plus - minus) / (2 * eps)
			analytic := got.AsFloat64()[j]
			require.InDelta(t, numeric, analytic, 1e-4,
				"input %d element %d: analytic %g vs numeric %g", i, j, analytic, numeric)
		}
	}
}

func TestGradCheck_Unary(t *testing.T) {
	// Points away from the ReLU kink and inside log's domain.
	x := gradInput{tensor.Shape{2, 2}, []float64{0.5, -1.5, 2.0, 0.25}}
	pos := gradInput{tensor.Shape{2, 2}, []float64{0.5, 1.5, 2.0, 0.25}}

	t.Run("neg", func(t *testing.T) {
		checkGradients(t, []gradInput{x}, func(dev tensor.Backend, xs []*tensor.RawTensor) *tensor.RawTensor {
			return dev.UnaryOp(tensor.UnaryNeg, xs[0])
		})
	})
	t.Run("relu", func(t *testing.T) {
		checkGradients(t, []gradInput{x}, func(dev tensor.Backend, xs []*tensor.RawTensor) *tensor.RawTensor {
			return dev.UnaryOp(tensor.UnaryReLU, xs[0])
		})
	})
	t.Run("log", func(t *testing.T) {
		checkGradients(t, []gradInput{pos}, func(dev tensor.Backend, xs []*tensor.RawTensor) *tensor.RawTensor {
			return dev.UnaryOp(tensor.UnaryLog, xs[0])
		})
	})
	t.Run("exp", func(t *testing.T) {
		checkGradients(t, []gradInput{x}, func(dev tensor.Backend, xs []*tensor.RawTensor) *tensor.RawTensor {
			return dev.UnaryOp(tensor.UnaryExp, xs[0])
		})
	})
}

func TestGradCheck_Binary(t *testing.T) {
	a := gradInput{tensor.Shape{2, 3}, []float64{1.5, -0.5, 2.0, 0.75, -1.25, 0.5}}
	b := gradInput{tensor.Shape{3}, []float64{0.5, 1.25, 2.5}}

	for _, kind := range []tensor.BinaryKind{tensor.BinaryAdd, tensor.BinarySub, tensor.BinaryMul, tensor.BinaryDiv} {
		t.Run(kind.String(), func(t *testing.T) {
			checkGradients(t, []gradInput{a, b}, func(dev tensor.Backend, xs []*tensor.RawTensor) *tensor.RawTensor {
				return dev.BinaryOp(kind, xs[0], xs[1])
			})
		})
	}

	// Pow wants positive bases.
	base := gradInput{tensor.Shape{3}, []float64{0.5, 1.5, 2.0}}
	exp := gradInput{tensor.Shape{3}, []float64{2.0, -1.0, 0.5}}
	t.Run("pow", func(t *testing.T) {
		checkGradients(t, []gradInput{base, exp}, func(dev tensor.Backend, xs []*tensor.RawTensor) *tensor.RawTensor {
			return dev.BinaryOp(tensor.BinaryPow, xs[0], xs[1])
		})
	})
}

func TestGradCheck_Reduce(t *testing.T) {
	// Distinct values keep the max differentiable.
	x := gradInput{tensor.Shape{2, 3}, []float64{0.3, 1.7, -0.4, 2.2, 0.1, -1.1}}

	t.Run("sum_axis", func(t *testing.T) {
		checkGradients(t, []gradInput{x}, func(dev tensor.Backend, xs []*tensor.RawTensor) *tensor.RawTensor {
			return dev.ReduceOp(tensor.ReduceSum, xs[0], []int{1})
		})
	})
	t.Run("sum_all", func(t *testing.T) {
		checkGradients(t, []gradInput{x}, func(dev tensor.Backend, xs []*tensor.RawTensor) *tensor.RawTensor {
			return dev.ReduceOp(tensor.ReduceSum, xs[0], nil)
		})
	})
	t.Run("max_axis", func(t *testing.T) {
		checkGradients(t, []gradInput{x}, func(dev tensor.Backend, xs []*tensor.RawTensor) *tensor.RawTensor {
			return dev.ReduceOp(tensor.ReduceMax, xs[0], []int{0})
		})
	})
}

func TestGradCheck_Movement(t *testing.T) {
	x := gradInput{tensor.Shape{2, 3}, []float64{0.3, 1.7, -0.4, 2.2, 0.1, -1.1}}

	t.Run("transpose", func(t *testing.T) {
		checkGradients(t, []gradInput{x}, func(dev tensor.Backend, xs []*tensor.RawTensor) *tensor.RawTensor {
			return dev.PermAxis(xs[0], []int{1, 0})
		})
	})
	t.Run("reshape", func(t *testing.T) {
		checkGradients(t, []gradInput{x}, func(dev tensor.Backend, xs []*tensor.RawTensor) *tensor.RawTensor {
			return dev.Reshape(xs[0], tensor.Shape{3, 2})
		})
	})
	t.Run("slice", func(t *testing.T) {
		checkGradients(t, []gradInput{x}, func(dev tensor.Backend, xs []*tensor.RawTensor) *tensor.RawTensor {
			return dev.InnerSlice(xs[0], [][2]int{{0, 2}, {1, 3}})
		})
	})
	t.Run("slice_pad", func(t *testing.T) {
		checkGradients(t, []gradInput{x}, func(dev tensor.Backend, xs []*tensor.RawTensor) *tensor.RawTensor {
			return dev.InnerSlice(xs[0], [][2]int{{-1, 3}, {-1, 4}})
		})
	})
}

func TestGradCheck_MatMul(t *testing.T) {
	a := gradInput{tensor.Shape{2, 3}, []float64{0.3, 1.7, -0.4, 2.2, 0.1, -1.1}}
	b := gradInput{tensor.Shape{3, 2}, []float64{0.5, -0.25, 1.5, 0.75, -0.5, 1.0}}

	checkGradients(t, []gradInput{a, b}, func(dev tensor.Backend, xs []*tensor.RawTensor) *tensor.RawTensor {
		return dev.MatMul(xs[0], xs[1], false, false)
	})
}

func TestGradCheck_MatMulBatched(t *testing.T) {
	a := gradInput{tensor.Shape{2, 2, 2}, []float64{0.3, 1.7, -0.4, 2.2, 0.1, -1.1, 0.8, -0.6}}
	b := gradInput{tensor.Shape{2, 3}, []float64{0.5, -0.25, 1.5, 0.75, -0.5, 1.0}}

	checkGradients(t, []gradInput{a, b}, func(dev tensor.Backend, xs []*tensor.RawTensor) *tensor.RawTensor {
		return dev.MatMul(xs[0], xs[1], false, false)
	})
}

func TestGradCheck_Conv2D(t *testing.T) {
	x := gradInput{tensor.Shape{1, 1, 4, 4}, []float64{
		0.3, 1.7, -0.4, 2.2,
		0.1, -1.1, 0.8, -0.6,
		1.2, 0.4, -0.9, 0.7,
		-0.2, 0.6, 1.3, -0.5,
	}}
	w := gradInput{tensor.Shape{1, 1, 2, 2}, []float64{0.5, -0.25, 1.5, 0.75}}

	t.Run("stride1", func(t *testing.T) {
		checkGradients(t, []gradInput{x, w}, func(dev tensor.Backend, xs []*tensor.RawTensor) *tensor.RawTensor {
			args, err := tensor.PackConvArgs(xs[0].Shape(), xs[1].Shape(), [2]int{1, 1}, 1)
			require.NoError(t, err)
			return dev.Conv(xs[0], xs[1], args)
		})
	})
	t.Run("stride2", func(t *testing.T) {
		checkGradients(t, []gradInput{x, w}, func(dev tensor.Backend, xs []*tensor.RawTensor) *tensor.RawTensor {
			args, err := tensor.PackConvArgs(xs[0].Shape(), xs[1].Shape(), [2]int{2, 2}, 1)
			require.NoError(t, err)
			return dev.Conv(xs[0], xs[1], args)
		})
	})
}

func TestGradCheck_Conv2DGrouped(t *testing.T) {
	x := gradInput{tensor.Shape{1, 2, 3, 3}, []float64{
		0.3, 1.7, -0.4,
		2.2, 0.1, -1.1,
		0.8, -0.6, 1.2,
		0.4, -0.9, 0.7,
		-0.2, 0.6, 1.3,
		-0.5, 0.9, -0.3,
	}}
	w := gradInput{tensor.Shape{2, 1, 2, 2}, []float64{0.5, -0.25, 1.5, 0.75, -0.5, 1.0, 0.25, -0.75}}

	checkGradients(t, []gradInput{x, w}, func(dev tensor.Backend, xs []*tensor.RawTensor) *tensor.RawTensor {
		args, err := tensor.PackConvArgs(xs[0].Shape(), xs[1].Shape(), [2]int{1, 1}, 2)
		require.NoError(t, err)
		return dev.Conv(xs[0], xs[1], args)
	})
}

func TestGradCheck_Composite(t *testing.T) {
	// relu(x @ w) summed: the smallest useful network.
	x := gradInput{tensor.Shape{2, 3}, []float64{0.3, 1.7, -0.4, 2.2, 0.1, -1.1}}
	w := gradInput{tensor.Shape{3, 2}, []float64{0.5, -0.25, 1.5, 0.75, -0.5, 1.0}}

	checkGradients(t, []gradInput{x, w}, func(dev tensor.Backend, xs []*tensor.RawTensor) *tensor.RawTensor {
		h := dev.MatMul(xs[0], xs[1], false, false)
		return dev.UnaryOp(tensor.UnaryReLU, h)
	})
}
