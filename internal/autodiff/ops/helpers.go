package ops

import (
	"fmt"

	"github.com/stencil-ml/stencil/internal/tensor"
)

// unbroadcast reduces a gradient back down to the shape of the operand it
// belongs to. Broadcasting expands an operand along size-1 or missing leading
// dimensions during the forward pass; the matching gradient rule is a sum
// over exactly those dimensions.
func unbroadcast(grad *tensor.RawTensor, target tensor.Shape, dev tensor.Backend) *tensor.RawTensor {
	gs := grad.Shape()
	if gs.Equal(target) {
		return grad
	}

	offset := len(gs) - len(target)
	if offset < 0 {
		panic(fmt.Sprintf("unbroadcast: gradient shape %v narrower than target %v", gs, target))
	}

	var axes []int
	for d := range gs {
		td := d - offset
		if td < 0 || (target[td] == 1 && gs[d] != 1) {
			axes = append(axes, d)
		}
	}

	if len(axes) > 0 {
		grad = dev.ReduceOp(tensor.ReduceSum, grad, axes)
	}
	return dev.Reshape(grad, target)
}

// broadcastTo expands a gradient to the given shape by the broadcast-copy
// kernel: the first operand copied against a zero buffer of the target shape.
func broadcastTo(grad *tensor.RawTensor, shape tensor.Shape, dev tensor.Backend) *tensor.RawTensor {
	if grad.Shape().Equal(shape) {
		return grad
	}
	zeros, err := tensor.NewRaw(shape, grad.DType(), dev.Device())
	if err != nil {
		panic(fmt.Sprintf("broadcast: %v", err))
	}
	return dev.BinaryOp(tensor.BinaryFirst, grad, zeros)
}
