//go:build windows

package webgpu

import (
	"fmt"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/stencil-ml/stencil/internal/tensor"
)

// unaryExpr returns the WGSL expression for a unary kind. v is the input
// value.
func unaryExpr(k tensor.UnaryKind) string {
	switch k {
	case tensor.UnaryNeg:
		return "-v"
	case tensor.UnaryLog:
		return "log(v)"
	case tensor.UnaryExp:
		return "exp(v)"
	case tensor.UnarySign:
		return "sign(v)"
	case tensor.UnaryReLU:
		return "max(v, 0.0)"
	default:
		panic(fmt.Sprintf("unary: unknown kind %d", k))
	}
}

// binaryExpr returns the WGSL expression for a binary kind. x and y are the
// operand values.
func binaryExpr(k tensor.BinaryKind) string {
	switch k {
	case tensor.BinaryAdd:
		return "x + y"
	case tensor.BinarySub:
		return "x - y"
	case tensor.BinaryMul:
		return "x * y"
	case tensor.BinaryDiv:
		return "x / y"
	case tensor.BinaryPow:
		return "pow(x, y)"
	case tensor.BinaryFirst:
		return "x"
	case tensor.BinaryCmpEq:
		return "select(0.0, 1.0, x == y)"
	case tensor.BinaryReLUGrad:
		return "select(0.0, y, x >= 0.0)"
	case tensor.BinaryPowGradA:
		return "y * pow(x, y - 1.0)"
	case tensor.BinaryPowGradB:
		return "log(x) * pow(x, y)"
	default:
		panic(fmt.Sprintf("binary: unknown kind %d", k))
	}
}

// UnaryOp applies an elementwise kernel, producing a tensor of the same shape.
func (b *Backend) UnaryOp(k tensor.UnaryKind, a *tensor.RawTensor) *tensor.RawTensor {
	op := "unary " + k.String()
	checkFloat32(op, a)

	pipeline := b.pipelineFor("unary_"+k.String(), spliceExpr(unaryShaderTemplate, unaryExpr(k)))

	bufs, sizes, release := b.uploadStorage(a)
	defer release()

	//nolint:gosec // element counts are non-negative
	params := b.createUniformBuffer(paramsU32(uint32(a.NumElements())))
	defer params.Release()

	extras := []wgpu.BindGroupEntry{wgpu.BufferBindingEntry(0, params, 0, 16)}
	return b.runToResult(op, pipeline, bufs, sizes, extras, a.Shape(), workgroups1D(a.NumElements()), 1, 1)
}

// BinaryOp applies an elementwise kernel with NumPy-style broadcasting.
// Same-shape operands take the flat fast path; broadcasting goes through the
// stride-walking kernel.
func (b *Backend) BinaryOp(k tensor.BinaryKind, a, c *tensor.RawTensor) *tensor.RawTensor {
	op := "binary " + k.String()
	checkFloat32(op, a, c)

	outShape, needsBroadcast, err := tensor.BroadcastShapes(a.Shape(), c.Shape())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", op, err))
	}
	n := outShape.NumElements()

	bufs, sizes, release := b.uploadStorage(a, c)
	defer release()

	//nolint:gosec // element counts are non-negative
	params := b.createUniformBuffer(paramsU32(uint32(n)))
	defer params.Release()

	if !needsBroadcast {
		pipeline := b.pipelineFor("binary_"+k.String(), spliceExpr(binaryShaderTemplate, binaryExpr(k)))
		extras := []wgpu.BindGroupEntry{wgpu.BufferBindingEntry(0, params, 0, 16)}
		return b.runToResult(op, pipeline, bufs, sizes, extras, outShape, workgroups1D(n), 1, 1)
	}

	pipeline := b.pipelineFor("binaryb_"+k.String(), spliceExpr(binaryBroadcastShaderTemplate, binaryExpr(k)))

	ndim := len(outShape)
	meta := make([]uint32, 0, 1+3*ndim)
	//nolint:gosec // dims are non-negative
	meta = append(meta, uint32(ndim))
	meta = appendU32(meta, outShape.ComputeStrides())
	meta = appendU32(meta, expandStrides(a.Shape(), outShape))
	meta = appendU32(meta, expandStrides(c.Shape(), outShape))

	metaBuf := b.createMetaU32(meta)
	defer metaBuf.Release()

	extras := []wgpu.BindGroupEntry{
		wgpu.BufferBindingEntry(0, metaBuf, 0, uint64(len(meta)*4)),
		wgpu.BufferBindingEntry(1, params, 0, 16),
	}
	return b.runToResult(op, pipeline, bufs, sizes, extras, outShape, workgroups1D(n), 1, 1)
}

// ReduceOp folds the named axes down to size 1. Empty axes reduces every
// axis.
func (b *Backend) ReduceOp(k tensor.ReduceKind, a *tensor.RawTensor, axes []int) *tensor.RawTensor {
	op := "reduce " + k.String()
	checkFloat32(op, a)

	norm, err := tensor.NormalizeAxes(a.Shape(), axes)
	if err != nil {
		panic(fmt.Sprintf("%s: %v", op, err))
	}
	outShape, err := tensor.ReduceShape(a.Shape(), norm)
	if err != nil {
		panic(fmt.Sprintf("%s: %v", op, err))
	}

	var pipeline *wgpu.ComputePipeline
	switch k {
	case tensor.ReduceSum:
		pipeline = b.pipelineFor("reduce_sum", spliceReduce("0.0", "acc = acc + v"))
	case tensor.ReduceMax:
		pipeline = b.pipelineFor("reduce_max", spliceReduce("-3.4028235e38", "acc = max(acc, v)"))
	default:
		panic(fmt.Sprintf("reduce: unknown kind %d", k))
	}

	srcStrides := a.Shape().ComputeStrides()
	ndim := len(a.Shape())

	reduceCount := 1
	redStrides := make([]int, 0, len(norm))
	redSizes := make([]int, 0, len(norm))
	for _, ax := range norm {
		reduceCount *= a.Shape()[ax]
		redStrides = append(redStrides, srcStrides[ax])
		redSizes = append(redSizes, a.Shape()[ax])
	}

	meta := make([]uint32, 0, 3+2*ndim+2*len(norm))
	//nolint:gosec // dims and counts are non-negative
	meta = append(meta, uint32(ndim), uint32(len(norm)), uint32(reduceCount))
	meta = appendU32(meta, outShape.ComputeStrides())
	meta = appendU32(meta, srcStrides)
	meta = appendU32(meta, redStrides)
	meta = appendU32(meta, redSizes)

	bufs, sizes, release := b.uploadStorage(a)
	defer release()

	metaBuf := b.createMetaU32(meta)
	defer metaBuf.Release()

	n := outShape.NumElements()
	//nolint:gosec // element counts are non-negative
	params := b.createUniformBuffer(paramsU32(uint32(n)))
	defer params.Release()

	extras := []wgpu.BindGroupEntry{
		wgpu.BufferBindingEntry(0, metaBuf, 0, uint64(len(meta)*4)),
		wgpu.BufferBindingEntry(1, params, 0, 16),
	}
	return b.runToResult(op, pipeline, bufs, sizes, extras, outShape, workgroups1D(n), 1, 1)
}

// PermAxis permutes the tensor's axes by the given order.
func (b *Backend) PermAxis(a *tensor.RawTensor, order []int) *tensor.RawTensor {
	checkFloat32("permaxis", a)

	shape := a.Shape()
	ndim := len(shape)
	if len(order) != ndim {
		panic(fmt.Sprintf("permaxis: order length %d != ndim %d", len(order), ndim))
	}
	seen := make([]bool, ndim)
	newShape := make(tensor.Shape, ndim)
	for i, ax := range order {
		if ax < 0 || ax >= ndim {
			panic(fmt.Sprintf("permaxis: invalid axis %d for %dD tensor", ax, ndim))
		}
		if seen[ax] {
			panic(fmt.Sprintf("permaxis: duplicate axis %d", ax))
		}
		seen[ax] = true
		newShape[i] = shape[ax]
	}

	pipeline := b.pipelineFor("permaxis", permShader)

	srcStrides := shape.ComputeStrides()
	gather := make([]int, ndim)
	for d, ax := range order {
		gather[d] = srcStrides[ax]
	}

	meta := make([]uint32, 0, 1+2*ndim)
	//nolint:gosec // dims are non-negative
	meta = append(meta, uint32(ndim))
	meta = appendU32(meta, newShape.ComputeStrides())
	meta = appendU32(meta, gather)

	bufs, sizes, release := b.uploadStorage(a)
	defer release()

	metaBuf := b.createMetaU32(meta)
	defer metaBuf.Release()

	n := newShape.NumElements()
	//nolint:gosec // element counts are non-negative
	params := b.createUniformBuffer(paramsU32(uint32(n)))
	defer params.Release()

	extras := []wgpu.BindGroupEntry{
		wgpu.BufferBindingEntry(0, metaBuf, 0, uint64(len(meta)*4)),
		wgpu.BufferBindingEntry(1, params, 0, 16),
	}
	return b.runToResult("permaxis", pipeline, bufs, sizes, extras, newShape, workgroups1D(n), 1, 1)
}

// InnerSlice extracts arg[i] = [begin, end) per axis; out-of-range reads are
// zero.
func (b *Backend) InnerSlice(a *tensor.RawTensor, arg [][2]int) *tensor.RawTensor {
	checkFloat32("innerslice", a)

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

	pipeline := b.pipelineFor("innerslice", sliceShader)

	srcStrides := shape.ComputeStrides()
	dstStrides := outShape.ComputeStrides()

	meta := make([]int32, 0, 1+4*ndim)
	//nolint:gosec // dims fit in int32
	meta = append(meta, int32(ndim))
	meta = appendI32(meta, dstStrides)
	meta = appendI32(meta, srcStrides)
	meta = appendI32(meta, shape)
	for _, r := range arg {
		//nolint:gosec // slice bounds fit in int32
		meta = append(meta, int32(r[0]))
	}

	bufs, sizes, release := b.uploadStorage(a)
	defer release()

	metaBuf := b.createMetaI32(meta)
	defer metaBuf.Release()

	n := outShape.NumElements()
	//nolint:gosec // element counts are non-negative
	params := b.createUniformBuffer(paramsU32(uint32(n)))
	defer params.Release()

	extras := []wgpu.BindGroupEntry{
		wgpu.BufferBindingEntry(0, metaBuf, 0, uint64(len(meta)*4)),
		wgpu.BufferBindingEntry(1, params, 0, 16),
	}
	return b.runToResult("innerslice", pipeline, bufs, sizes, extras, outShape, workgroups1D(n), 1, 1)
}

// Reshape returns a zero-copy view of the tensor under a new shape. No GPU
// work is involved.
func (b *Backend) Reshape(a *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	out, err := a.View(shape)
	if err != nil {
		panic("reshape: " + err.Error())
	}
	return out
}

// MatMul multiplies the last two dimensions of a by the 2D matrix c, with
// the same folding and transpose rules as the CPU device.
func (b *Backend) MatMul(a, c *tensor.RawTensor, transA, transB bool) *tensor.RawTensor {
	checkFloat32("matmul", a, c)

	aShape, cShape := a.Shape(), c.Shape()
	if len(aShape) < 2 || len(cShape) != 2 {
		panic(fmt.Sprintf("matmul: need >=2D x 2D operands, got %v x %v", aShape, cShape))
	}
	if transA && len(aShape) != 2 {
		panic(fmt.Sprintf("matmul: transA requires a 2D left operand, got %v", aShape))
	}

	m := 1
	for _, d := range aShape[:len(aShape)-1] {
		m *= d
	}
	ka := aShape[len(aShape)-1]
	if transA {
		m, ka = ka, m
	}
	kb, n := cShape[0], cShape[1]
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

	pipeline := b.pipelineFor("matmul", matmulShader)

	bufs, sizes, release := b.uploadStorage(a, c)
	defer release()

	flag := func(v bool) uint32 {
		if v {
			return 1
		}
		return 0
	}
	//nolint:gosec // dims are non-negative
	params := b.createUniformBuffer(paramsU32(uint32(m), uint32(ka), uint32(n), flag(transA), flag(transB)))
	defer params.Release()

	extras := []wgpu.BindGroupEntry{wgpu.BufferBindingEntry(0, params, 0, 32)}
	wx := uint32((n + 15) / 16) //nolint:gosec // non-negative
	wy := uint32((m + 15) / 16) //nolint:gosec // non-negative
	return b.runToResult("matmul", pipeline, bufs, sizes, extras, outShape, wx, wy, 1)
}

// Conv computes the grouped strided 2D convolution described by args.
func (b *Backend) Conv(x, w *tensor.RawTensor, args tensor.ConvArgs) *tensor.RawTensor {
	checkFloat32("conv", x, w)
	checkShape("conv", "input", x, args.InShape())
	checkShape("conv", "weight", w, args.WeightShape())

	return b.runConv("conv", convShader, x, w, args, args.OutShape())
}

// ConvDX computes the convolution input gradient.
func (b *Backend) ConvDX(w, gradOut *tensor.RawTensor, args tensor.ConvArgs) *tensor.RawTensor {
	checkFloat32("convdx", w, gradOut)
	checkShape("convdx", "weight", w, args.WeightShape())
	checkShape("convdx", "grad", gradOut, args.OutShape())

	return b.runConv("convdx", convDXShader, w, gradOut, args, args.InShape())
}

// ConvDW computes the convolution weight gradient.
func (b *Backend) ConvDW(x, gradOut *tensor.RawTensor, args tensor.ConvArgs) *tensor.RawTensor {
	checkFloat32("convdw", x, gradOut)
	checkShape("convdw", "input", x, args.InShape())
	checkShape("convdw", "grad", gradOut, args.OutShape())

	return b.runConv("convdw", convDWShader, x, gradOut, args, args.WeightShape())
}

func (b *Backend) runConv(name, shader string, a, c *tensor.RawTensor, args tensor.ConvArgs, outShape tensor.Shape) *tensor.RawTensor {
	pipeline := b.pipelineFor(name, shader)

	bufs, sizes, release := b.uploadStorage(a, c)
	defer release()

	params := b.createUniformBuffer(convUniform(args))
	defer params.Release()

	extras := []wgpu.BindGroupEntry{wgpu.BufferBindingEntry(0, params, 0, 48)}
	n := outShape.NumElements()
	return b.runToResult(name, pipeline, bufs, sizes, extras, outShape, workgroups1D(n), 1, 1)
}

// convUniform packs ConvArgs into the kernels' uniform block, field for
// field.
func convUniform(a tensor.ConvArgs) []byte {
	//nolint:gosec // conv dims are non-negative
	return paramsU32(
		uint32(a.H), uint32(a.W), uint32(a.Groups), uint32(a.RCout),
		uint32(a.Cin), uint32(a.OY), uint32(a.OX), uint32(a.IY),
		uint32(a.IX), uint32(a.YS), uint32(a.XS), uint32(a.BS),
	)
}

func checkShape(op, name string, t *tensor.RawTensor, want tensor.Shape) {
	if !t.Shape().Equal(want) {
		panic(fmt.Sprintf("%s: %s shape %v does not match expected %v", op, name, t.Shape(), want))
	}
}

// expandStrides right-aligns src against out, zeroing strides on missing or
// broadcast dimensions.
func expandStrides(src, out tensor.Shape) []int {
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

func appendU32(dst []uint32, vals []int) []uint32 {
	for _, v := range vals {
		//nolint:gosec // strides and sizes are non-negative
		dst = append(dst, uint32(v))
	}
	return dst
}

func appendI32(dst []int32, vals []int) []int32 {
	for _, v := range vals {
		//nolint:gosec // strides and sizes fit in int32
		dst = append(dst, int32(v))
	}
	return dst
}
