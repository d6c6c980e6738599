package autodiff

import (
	"fmt"

	"github.com/stencil-ml/stencil/internal/tensor"
)

// BackwardCapable is an interface for backends that support backward pass.
// AutodiffBackend implements this interface.
type BackwardCapable interface {
	tensor.Backend
	// GetTape returns the gradient tape for backward computation.
	GetTape() *GradientTape
}

// GetTape returns the gradient tape (implements BackwardCapable).
func (b *AutodiffBackend[B]) GetTape() *GradientTape {
	return b.tape
}

// Backward computes gradients for a tensor using the backend's tape.
//
// The output gradient is seeded with ones of the output's shape, so for a
// scalar loss the returned map holds dL/dx for every tensor x on the tape.
// The tape seeds at its last recorded operation, so t must be that
// operation's output; anything else panics.
//
// Example:
//
//	dev := autodiff.New(cpu.New())
//	dev.Tape().StartRecording()
//	x := tensor.Ones[float32](tensor.Shape{2}, dev)
//	y := x.Mul(x)
//	grads := autodiff.Backward(y, dev)
//	grad := grads[x.Raw()]
func Backward[T tensor.DType, B BackwardCapable](t *tensor.Tensor[T, B], dev B) map[*tensor.RawTensor]*tensor.RawTensor {
	tape := dev.GetTape()

	if tape.NumOps() == 0 {
		panic("backward: no operations recorded (did you forget to call Tape().StartRecording()?)")
	}
	if last := tape.operations[len(tape.operations)-1].Output(); last != t.Raw() {
		panic("backward: tensor is not the output of the last recorded operation")
	}

	outputGrad, err := tensor.NewRaw(t.Shape(), t.DType(), dev.Device())
	if err != nil {
		panic(fmt.Sprintf("backward: failed to create output gradient: %v", err))
	}

	switch t.DType() {
	case tensor.Float32:
		data := outputGrad.AsFloat32()
		for i := range data {
			data[i] = 1.0
		}
	case tensor.Float64:
		data := outputGrad.AsFloat64()
		for i := range data {
			data[i] = 1.0
		}
	default:
		panic(fmt.Sprintf("backward: unsupported dtype %s (only float32/float64 supported)", t.DType()))
	}

	return tape.Backward(outputGrad, dev)
}
