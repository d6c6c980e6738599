package cpu

import (
	"fmt"

	"github.com/stencil-ml/stencil/internal/parallel"
	"github.com/stencil-ml/stencil/internal/tensor"
)

// Conv computes the grouped strided 2D convolution described by args.
// x is [BS, Groups*Cin, IY, IX], w is [Cout, Cin, H, W], output is
// [BS, Cout, OY, OX].
func (cpu *CPUBackend) Conv(x, w *tensor.RawTensor, args tensor.ConvArgs) *tensor.RawTensor {
	checkConvOperand("conv", "input", x, args.InShape())
	checkConvOperand("conv", "weight", w, args.WeightShape())
	if x.DType() != w.DType() {
		panic(fmt.Sprintf("conv: dtype mismatch %s vs %s", x.DType(), w.DType()))
	}

	out := cpu.newResult("conv", args.OutShape(), x.DType())

	switch x.DType() {
	case tensor.Float32:
		convForward(out.AsFloat32(), x.AsFloat32(), w.AsFloat32(), args, cpu.par)
	case tensor.Float64:
		convForward(out.AsFloat64(), x.AsFloat64(), w.AsFloat64(), args, cpu.par)
	default:
		panic(fmt.Sprintf("conv: unsupported dtype %s", x.DType()))
	}
	return out
}

func convForward[T number](dst, x, w []T, a tensor.ConvArgs, cfg parallel.Config) {
	cout := a.Cout()
	cinTotal := a.Groups * a.Cin

	parallel.ForBatch(a.BS, cout, func(b, co int) {
		g := co / a.RCout
		for oy := 0; oy < a.OY; oy++ {
			for ox := 0; ox < a.OX; ox++ {
				var sum T
				for ci := 0; ci < a.Cin; ci++ {
					xc := g*a.Cin + ci
					for i := 0; i < a.H; i++ {
						iy := oy*a.YS + i
						for j := 0; j < a.W; j++ {
							ix := ox*a.XS + j
							xv := x[((b*cinTotal+xc)*a.IY+iy)*a.IX+ix]
							wv := w[((co*a.Cin+ci)*a.H+i)*a.W+j]
							sum += xv * wv
						}
					}
				}
				dst[((b*cout+co)*a.OY+oy)*a.OX+ox] = sum
			}
		}
	}, cfg)
}

// ConvDX computes the convolution input gradient. Each input element gathers
// the output gradients it contributed to, so the kernel is race free under
// parallel dispatch.
func (cpu *CPUBackend) ConvDX(w, gradOut *tensor.RawTensor, args tensor.ConvArgs) *tensor.RawTensor {
	checkConvOperand("convdx", "weight", w, args.WeightShape())
	checkConvOperand("convdx", "grad", gradOut, args.OutShape())
	if w.DType() != gradOut.DType() {
		panic(fmt.Sprintf("convdx: dtype mismatch %s vs %s", w.DType(), gradOut.DType()))
	}

	out := cpu.newResult("convdx", args.InShape(), w.DType())

	switch w.DType() {
	case tensor.Float32:
		convDXKernel(out.AsFloat32(), w.AsFloat32(), gradOut.AsFloat32(), args, cpu.par)
	case tensor.Float64:
		convDXKernel(out.AsFloat64(), w.AsFloat64(), gradOut.AsFloat64(), args, cpu.par)
	default:
		panic(fmt.Sprintf("convdx: unsupported dtype %s", w.DType()))
	}
	return out
}

func convDXKernel[T number](dst, w, grad []T, a tensor.ConvArgs, cfg parallel.Config) {
	cout := a.Cout()
	cinTotal := a.Groups * a.Cin

	parallel.ForBatch(a.BS, cinTotal, func(b, xc int) {
		g := xc / a.Cin
		ci := xc % a.Cin
		for iy := 0; iy < a.IY; iy++ {
			for ix := 0; ix < a.IX; ix++ {
				var sum T
				for i := 0; i < a.H; i++ {
					y := iy - i
					if y < 0 || y%a.YS != 0 {
						continue
					}
					oy := y / a.YS
					if oy >= a.OY {
						continue
					}
					for j := 0; j < a.W; j++ {
						xo := ix - j
						if xo < 0 || xo%a.XS != 0 {
							continue
						}
						ox := xo / a.XS
						if ox >= a.OX {
							continue
						}
						for rc := 0; rc < a.RCout; rc++ {
							co := g*a.RCout + rc
							gv := grad[((b*cout+co)*a.OY+oy)*a.OX+ox]
							wv := w[((co*a.Cin+ci)*a.H+i)*a.W+j]
							sum += gv * wv
						}
					}
				}
				dst[((b*cinTotal+xc)*a.IY+iy)*a.IX+ix] = sum
			}
		}
	}, cfg)
}

// ConvDW computes the convolution weight gradient. Each weight element sums
// its contributions over the batch and output positions.
func (cpu *CPUBackend) ConvDW(x, gradOut *tensor.RawTensor, args tensor.ConvArgs) *tensor.RawTensor {
	checkConvOperand("convdw", "input", x, args.InShape())
	checkConvOperand("convdw", "grad", gradOut, args.OutShape())
	if x.DType() != gradOut.DType() {
		panic(fmt.Sprintf("convdw: dtype mismatch %s vs %s", x.DType(), gradOut.DType()))
	}

	out := cpu.newResult("convdw", args.WeightShape(), x.DType())

	switch x.DType() {
	case tensor.Float32:
		convDWKernel(out.AsFloat32(), x.AsFloat32(), gradOut.AsFloat32(), args, cpu.par)
	case tensor.Float64:
		convDWKernel(out.AsFloat64(), x.AsFloat64(), gradOut.AsFloat64(), args, cpu.par)
	default:
		panic(fmt.Sprintf("convdw: unsupported dtype %s", x.DType()))
	}
	return out
}

func convDWKernel[T number](dst, x, grad []T, a tensor.ConvArgs, cfg parallel.Config) {
	cout := a.Cout()
	cinTotal := a.Groups * a.Cin

	parallel.ForBatch(cout, a.Cin, func(co, ci int) {
		g := co / a.RCout
		xc := g*a.Cin + ci
		for i := 0; i < a.H; i++ {
			for j := 0; j < a.W; j++ {
				var sum T
				for b := 0; b < a.BS; b++ {
					for oy := 0; oy < a.OY; oy++ {
						iy := oy*a.YS + i
						for ox := 0; ox < a.OX; ox++ {
							ix := ox*a.XS + j
							gv := grad[((b*cout+co)*a.OY+oy)*a.OX+ox]
							xv := x[((b*cinTotal+xc)*a.IY+iy)*a.IX+ix]
							sum += gv * xv
						}
					}
				}
				dst[((co*a.Cin+ci)*a.H+i)*a.W+j] = sum
			}
		}
	}, cfg)
}

func checkConvOperand(op, name string, t *tensor.RawTensor, want tensor.Shape) {
	if !t.Shape().Equal(want) {
		panic(fmt.Sprintf("%s: %s shape %v does not match expected %v", op, name, t.Shape(), want))
	}
}
