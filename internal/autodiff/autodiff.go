// Package autodiff implements automatic differentiation using the decorator
// pattern.
//
// AutodiffBackend wraps any Backend implementation (CPU, GPU, etc.) and adds
// gradient tracking through a GradientTape.
//
// Architecture:
//   - Decorator pattern: AutodiffBackend[B] wraps any Backend implementation
//   - GradientTape: records operations during the forward pass
//   - Operation interface: each op computes its own backward pass
//   - Reverse-mode AD: gradients by chain rule over the reversed tape
//
// Usage:
//
//	dev := autodiff.New(cpu.New())
//	dev.Tape().StartRecording()
//	x := tensor.FromSlice([]float32{2.0}, tensor.Shape{1}, dev)
//	y := x.Mul(x)
//	grads := autodiff.Backward(y, dev)
//	_ = grads[x.Raw()] // dy/dx = 2x = 4.0
package autodiff

import (
	"fmt"

	"github.com/stencil-ml/stencil/internal/autodiff/ops"
	"github.com/stencil-ml/stencil/internal/tensor"
)

// AutodiffBackend wraps a Backend and adds automatic differentiation.
// It implements the tensor.Backend interface, executing every primitive on
// the wrapped backend and recording the differentiable ones on a tape.
//
// Type parameter B must satisfy the tensor.Backend interface.
type AutodiffBackend[B tensor.Backend] struct {
	inner B             // Wrapped backend (CPU, GPU, etc.)
	tape  *GradientTape // Records operations for backpropagation

	// watched marks tensors explicitly requiring gradients. When empty,
	// every leaf requires gradients. produced marks tape outputs, which
	// always carry gradients back to their inputs.
	watched  map[*tensor.RawTensor]bool
	produced map[*tensor.RawTensor]bool
}

// New creates a new AutodiffBackend wrapping the given backend.
func New[B tensor.Backend](dev B) *AutodiffBackend[B] {
	return &AutodiffBackend[B]{
		inner:    dev,
		tape:     NewGradientTape(),
		watched:  make(map[*tensor.RawTensor]bool),
		produced: make(map[*tensor.RawTensor]bool),
	}
}

// Tape returns the gradient tape for manual control: starting and stopping
// recording, clearing between iterations, inspecting recorded operations.
func (b *AutodiffBackend[B]) Tape() *GradientTape {
	return b.tape
}

// Inner returns the wrapped backend for direct access.
func (b *AutodiffBackend[B]) Inner() B {
	return b.inner
}

// Watch marks a tensor as requiring gradients. If no tensor is ever watched,
// all leaves require gradients.
func (b *AutodiffBackend[B]) Watch(t *tensor.RawTensor) {
	b.watched[t] = true
}

// Reset clears the tape and the recorded graph state. Watched tensors are
// kept.
func (b *AutodiffBackend[B]) Reset() {
	b.tape.Clear()
	b.produced = make(map[*tensor.RawTensor]bool)
}

// Name returns the backend name.
func (b *AutodiffBackend[B]) Name() string {
	return "Autodiff(" + b.inner.Name() + ")"
}

// Device returns the compute device.
func (b *AutodiffBackend[B]) Device() tensor.Device {
	return b.inner.Device()
}

func (b *AutodiffBackend[B]) requiresGrad(t *tensor.RawTensor) bool {
	if b.produced[t] {
		return true
	}
	if len(b.watched) == 0 {
		return true
	}
	return b.watched[t]
}

func (b *AutodiffBackend[B]) markProduced(t *tensor.RawTensor, needs bool) {
	if needs {
		b.produced[t] = true
	}
}

// UnaryOp applies an elementwise kernel and records the operation when the
// kind is differentiable. Sign passes through unrecorded; its gradient is zero
// almost everywhere.
func (b *AutodiffBackend[B]) UnaryOp(k tensor.UnaryKind, a *tensor.RawTensor) *tensor.RawTensor {
	// Prevent inplace modification that would corrupt the recorded graph.
	defer a.ForceNonUnique()()

	result := b.inner.UnaryOp(k, a)

	if b.tape.IsRecording() && differentiableUnary(k) {
		needs := b.requiresGrad(a)
		b.tape.Record(ops.NewUnaryOp(k, a, result, needs))
		b.markProduced(result, needs)
	}
	return result
}

func differentiableUnary(k tensor.UnaryKind) bool {
	switch k {
	case tensor.UnaryNeg, tensor.UnaryLog, tensor.UnaryExp, tensor.UnaryReLU:
		return true
	default:
		return false
	}
}

// BinaryOp applies an elementwise kernel and records the operation when the
// kind is differentiable. The gradient-helper kinds pass through unrecorded;
// they only appear inside backward passes.
func (b *AutodiffBackend[B]) BinaryOp(k tensor.BinaryKind, a, c *tensor.RawTensor) *tensor.RawTensor {
	defer a.ForceNonUnique()()
	defer c.ForceNonUnique()()

	result := b.inner.BinaryOp(k, a, c)

	if b.tape.IsRecording() && differentiableBinary(k) {
		needs := [2]bool{b.requiresGrad(a), b.requiresGrad(c)}
		b.tape.Record(ops.NewBinaryOp(k, a, c, result, needs))
		b.markProduced(result, needs[0] || needs[1])
	}
	return result
}

func differentiableBinary(k tensor.BinaryKind) bool {
	switch k {
	case tensor.BinaryAdd, tensor.BinarySub, tensor.BinaryMul, tensor.BinaryDiv, tensor.BinaryPow:
		return true
	default:
		return false
	}
}

// ReduceOp folds the named axes and records the operation.
func (b *AutodiffBackend[B]) ReduceOp(k tensor.ReduceKind, a *tensor.RawTensor, axes []int) *tensor.RawTensor {
	defer a.ForceNonUnique()()

	norm, err := tensor.NormalizeAxes(a.Shape(), axes)
	if err != nil {
		panic(fmt.Sprintf("reduce %s: %v", k, err))
	}

	result := b.inner.ReduceOp(k, a, norm)

	if b.tape.IsRecording() {
		needs := b.requiresGrad(a)
		switch k {
		case tensor.ReduceSum:
			b.tape.Record(ops.NewSumOp(a, result, needs))
		case tensor.ReduceMax:
			b.tape.Record(ops.NewMaxOp(a, result, norm, needs))
		default:
			panic(fmt.Sprintf("reduce: unknown kind %d", k))
		}
		b.markProduced(result, needs)
	}
	return result
}

// PermAxis permutes axes and records the operation.
func (b *AutodiffBackend[B]) PermAxis(a *tensor.RawTensor, order []int) *tensor.RawTensor {
	defer a.ForceNonUnique()()

	result := b.inner.PermAxis(a, order)

	if b.tape.IsRecording() {
		needs := b.requiresGrad(a)
		b.tape.Record(ops.NewTransposeOp(a, result, append([]int(nil), order...), needs))
		b.markProduced(result, needs)
	}
	return result
}

// InnerSlice slices the tensor and records the operation.
func (b *AutodiffBackend[B]) InnerSlice(a *tensor.RawTensor, arg [][2]int) *tensor.RawTensor {
	defer a.ForceNonUnique()()

	result := b.inner.InnerSlice(a, arg)

	if b.tape.IsRecording() {
		needs := b.requiresGrad(a)
		b.tape.Record(ops.NewSliceOp(a, result, append([][2]int(nil), arg...), needs))
		b.markProduced(result, needs)
	}
	return result
}

// Reshape reshapes the tensor and records the operation.
//
// Even though the forward pass is a zero-copy view, the view is a distinct
// tensor: without recording, gradients computed for the view would never
// reach the original.
func (b *AutodiffBackend[B]) Reshape(a *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	defer a.ForceNonUnique()()

	result := b.inner.Reshape(a, shape)

	if b.tape.IsRecording() {
		needs := b.requiresGrad(a)
		b.tape.Record(ops.NewReshapeOp(a, result, needs))
		b.markProduced(result, needs)
	}
	return result
}

// MatMul multiplies matrices and records the operation. Transposed-read
// calls are not recorded: they only occur inside backward passes.
func (b *AutodiffBackend[B]) MatMul(a, c *tensor.RawTensor, transA, transB bool) *tensor.RawTensor {
	defer a.ForceNonUnique()()
	defer c.ForceNonUnique()()

	result := b.inner.MatMul(a, c, transA, transB)

	if b.tape.IsRecording() && !transA && !transB {
		needs := [2]bool{b.requiresGrad(a), b.requiresGrad(c)}
		b.tape.Record(ops.NewMatMulOp(a, c, result, needs))
		b.markProduced(result, needs[0] || needs[1])
	}
	return result
}

// Conv computes a 2D convolution and records the operation.
func (b *AutodiffBackend[B]) Conv(x, w *tensor.RawTensor, args tensor.ConvArgs) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	defer w.ForceNonUnique()()

	result := b.inner.Conv(x, w, args)

	if b.tape.IsRecording() {
		needs := [2]bool{b.requiresGrad(x), b.requiresGrad(w)}
		b.tape.Record(ops.NewConv2DOp(x, w, result, args, needs))
		b.markProduced(result, needs[0] || needs[1])
	}
	return result
}

// ConvDX computes the convolution input gradient. Not recorded: it is itself
// a backward kernel.
func (b *AutodiffBackend[B]) ConvDX(w, gradOut *tensor.RawTensor, args tensor.ConvArgs) *tensor.RawTensor {
	return b.inner.ConvDX(w, gradOut, args)
}

// ConvDW computes the convolution weight gradient. Not recorded.
func (b *AutodiffBackend[B]) ConvDW(x, gradOut *tensor.RawTensor, args tensor.ConvArgs) *tensor.RawTensor {
	return b.inner.ConvDW(x, gradOut, args)
}
