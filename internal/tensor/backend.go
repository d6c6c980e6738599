package tensor

import "fmt"

// UnaryKind selects the scalar kernel for an elementwise unary operation.
// Each kind maps to a kernel expression on the device: a Go function on the
// CPU, a WGSL expression snippet on the GPU.
type UnaryKind int

// Unary kernel kinds.
const (
	UnaryNeg  UnaryKind = iota // -a
	UnaryLog                   // log(a)
	UnaryExp                   // exp(a)
	UnaryReLU                  // max(a, 0)
	UnarySign                  // -1, 0 or 1 by sign of a
)

// String returns the kernel name, used as the shader cache key on GPU devices.
func (k UnaryKind) String() string {
	switch k {
	case UnaryNeg:
		return "neg"
	case UnaryLog:
		return "log"
	case UnaryExp:
		return "exp"
	case UnaryReLU:
		return "relu"
	case UnarySign:
		return "sign"
	default:
		return "unknown"
	}
}

// BinaryKind selects the scalar kernel for an elementwise binary operation.
// The first five are the differentiable arithmetic kernels; the remainder are
// gradient helpers that only appear in backward passes.
type BinaryKind int

// Binary kernel kinds.
const (
	BinaryAdd      BinaryKind = iota // a + b
	BinarySub                        // a - b
	BinaryMul                        // a * b
	BinaryDiv                        // a / b
	BinaryPow                        // pow(a, b)
	BinaryFirst                      // a (broadcast copy against b's shape)
	BinaryCmpEq                      // 1.0 if a == b else 0.0
	BinaryReLUGrad                   // b * (a >= 0)
	BinaryPowGradA                   // b * pow(a, b-1)
	BinaryPowGradB                   // log(a) * pow(a, b)
)

// String returns the kernel name, used as the shader cache key on GPU devices.
func (k BinaryKind) String() string {
	switch k {
	case BinaryAdd:
		return "add"
	case BinarySub:
		return "sub"
	case BinaryMul:
		return "mul"
	case BinaryDiv:
		return "div"
	case BinaryPow:
		return "pow"
	case BinaryFirst:
		return "first"
	case BinaryCmpEq:
		return "cmpeq"
	case BinaryReLUGrad:
		return "relugrad"
	case BinaryPowGradA:
		return "powgrada"
	case BinaryPowGradB:
		return "powgradb"
	default:
		return "unknown"
	}
}

// ReduceKind selects the fold kernel for a reduction.
type ReduceKind int

// Reduce kernel kinds with their fold expression and start value.
const (
	ReduceSum ReduceKind = iota // out += a, start 0
	ReduceMax                   // out = max(a, out), start -inf
)

// String returns the kernel name, used as the shader cache key on GPU devices.
func (k ReduceKind) String() string {
	switch k {
	case ReduceSum:
		return "sum"
	case ReduceMax:
		return "max"
	default:
		return "unknown"
	}
}

// ConvArgs is the packed argument block shared by the three convolution
// kernels (forward, input gradient, weight gradient). On the GPU it maps
// directly onto the kernel's uniform parameter struct.
type ConvArgs struct {
	H, W   int // kernel height, width
	Groups int // channel groups
	RCout  int // output channels per group
	Cin    int // input channels per group
	OY, OX int // output height, width
	IY, IX int // input height, width
	YS, XS int // stride along y, x
	BS     int // batch size
}

// Cout returns the total number of output channels.
func (a ConvArgs) Cout() int {
	return a.Groups * a.RCout
}

// OutShape returns the forward output shape [BS, Cout, OY, OX].
func (a ConvArgs) OutShape() Shape {
	return Shape{a.BS, a.Cout(), a.OY, a.OX}
}

// InShape returns the forward input shape [BS, Groups*Cin, IY, IX].
func (a ConvArgs) InShape() Shape {
	return Shape{a.BS, a.Groups * a.Cin, a.IY, a.IX}
}

// WeightShape returns the kernel shape [Cout, Cin, H, W].
func (a ConvArgs) WeightShape() Shape {
	return Shape{a.Cout(), a.Cin, a.H, a.W}
}

// PackConvArgs validates a grouped, strided, valid-padding 2D convolution and
// packs its kernel arguments.
//
// x is [BS, Cin*Groups, IY, IX], w is [Cout, Cin, H, W]. The output spatial
// dims follow the original stride arithmetic:
//
//	oy = (iy - (H - ys)) / ys
//	ox = (ix - (W - xs)) / xs
func PackConvArgs(x, w Shape, stride [2]int, groups int) (ConvArgs, error) {
	if len(x) != 4 {
		return ConvArgs{}, fmt.Errorf("conv: input must be 4D [N,C,H,W], got %v", x)
	}
	if len(w) != 4 {
		return ConvArgs{}, fmt.Errorf("conv: weight must be 4D [Cout,Cin,KH,KW], got %v", w)
	}
	if groups < 1 {
		return ConvArgs{}, fmt.Errorf("conv: groups must be >= 1, got %d", groups)
	}
	ys, xs := stride[0], stride[1]
	if ys < 1 || xs < 1 {
		return ConvArgs{}, fmt.Errorf("conv: stride must be >= 1, got (%d, %d)", ys, xs)
	}

	cout, cin, h, kw := w[0], w[1], w[2], w[3]
	bs, cinTotal, iy, ix := x[0], x[1], x[2], x[3]

	if cin*groups != cinTotal {
		return ConvArgs{}, fmt.Errorf("conv: input shape %v does not match weight shape %v (%d vs %d input channels)",
			x, w, cin*groups, cinTotal)
	}
	if cout%groups != 0 {
		return ConvArgs{}, fmt.Errorf("conv: output channels %d not divisible by groups %d", cout, groups)
	}

	oy := (iy - (h - ys)) / ys
	ox := (ix - (kw - xs)) / xs
	if oy <= 0 || ox <= 0 {
		return ConvArgs{}, fmt.Errorf("conv: kernel %dx%d with stride (%d, %d) does not fit input %dx%d",
			h, kw, ys, xs, iy, ix)
	}

	return ConvArgs{
		H: h, W: kw,
		Groups: groups,
		RCout:  cout / groups,
		Cin:    cin,
		OY:     oy, OX: ox,
		IY: iy, IX: ix,
		YS: ys, XS: xs,
		BS: bs,
	}, nil
}

// Backend is the device-level primitive surface every operator compiles down
// to: buffer-to-buffer kernels parameterized by kernel kind. Implementations
// panic with formatted context on shape or dtype misuse; only construction
// and device initialization return errors.
//
// Implementations:
//   - internal/backend/cpu: pure Go kernels with parallel dispatch
//   - internal/backend/webgpu: WGSL compute kernels with pipeline caching
//   - internal/autodiff: decorator that records operations for backprop
type Backend interface {
	// UnaryOp applies an elementwise kernel, producing a tensor of the same shape.
	UnaryOp(k UnaryKind, a *RawTensor) *RawTensor

	// BinaryOp applies an elementwise kernel with NumPy-style broadcasting.
	// The output shape is the broadcast of the operand shapes.
	BinaryOp(k BinaryKind, a, b *RawTensor) *RawTensor

	// ReduceOp folds the named axes down to size 1. Empty axes reduces every
	// axis, producing an all-ones shape.
	ReduceOp(k ReduceKind, a *RawTensor, axes []int) *RawTensor

	// PermAxis permutes the tensor's axes by the given order.
	PermAxis(a *RawTensor, order []int) *RawTensor

	// InnerSlice extracts arg[i] = [begin, end) per axis in source
	// coordinates. Ranges may extend past either end of the source;
	// out-of-range elements read as zero, which is how padding is expressed.
	InnerSlice(a *RawTensor, arg [][2]int) *RawTensor

	// Reshape returns a zero-copy view of the tensor under a new shape.
	Reshape(a *RawTensor, shape Shape) *RawTensor

	// MatMul multiplies two matrices. Operands are read as 2D: a tensor with
	// more than two dimensions has its leading dimensions flattened, and the
	// output keeps them. transA and transB read the operand transposed
	// without materializing it; a transposed operand must be 2D.
	MatMul(a, b *RawTensor, transA, transB bool) *RawTensor

	// Conv computes the grouped strided 2D convolution described by args.
	Conv(x, w *RawTensor, args ConvArgs) *RawTensor

	// ConvDX computes the convolution input gradient.
	ConvDX(w, gradOut *RawTensor, args ConvArgs) *RawTensor

	// ConvDW computes the convolution weight gradient.
	ConvDW(x, gradOut *RawTensor, args ConvArgs) *RawTensor

	// Name returns the backend name (e.g. "CPU", "WebGPU").
	Name() string

	// Device returns the device tensors produced by this backend live on.
	Device() Device
}
