//go:build windows

// Package webgpu implements the GPU device on WebGPU compute shaders.
// Uses go-webgpu (github.com/go-webgpu/webgpu) for zero-CGO WebGPU bindings.
//
// Kernels are WGSL templates: each kernel kind splices its scalar expression
// into a shared template, and the compiled module is cached under the kernel
// name. Index arithmetic (broadcast, reduce, gather, slice) travels in small
// storage buffers of precomputed strides.
package webgpu

import "strings"

// workgroupSize is the default number of threads per workgroup.
const workgroupSize = 256

// unaryShaderTemplate applies EXPR to every element. EXPR sees the input
// value as v.
const unaryShaderTemplate = `
@group(0) @binding(0) var<storage, read> a: array<f32>;
@group(0) @binding(1) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < params.size) {
        let v = a[idx];
        result[idx] = EXPR;
    }
}
`

// binaryShaderTemplate applies EXPR pairwise over two same-shape operands.
// EXPR sees the operands as x and y.
const binaryShaderTemplate = `
@group(0) @binding(0) var<storage, read> a: array<f32>;
@group(0) @binding(1) var<storage, read> b: array<f32>;
@group(0) @binding(2) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < params.size) {
        let x = a[idx];
        let y = b[idx];
        result[idx] = EXPR;
    }
}
`

// binaryBroadcastShaderTemplate applies EXPR with NumPy-style broadcasting.
// meta holds [ndim, outStrides..., aStrides..., bStrides...] where the
// operand strides are 0 along broadcast dimensions.
const binaryBroadcastShaderTemplate = `
@group(0) @binding(0) var<storage, read> a: array<f32>;
@group(0) @binding(1) var<storage, read> b: array<f32>;
@group(0) @binding(2) var<storage, read_write> result: array<f32>;
@group(0) @binding(3) var<storage, read> meta: array<u32>;

struct Params {
    size: u32,
}
@group(0) @binding(4) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx >= params.size) {
        return;
    }
    let ndim = meta[0];
    var rem = idx;
    var ia = 0u;
    var ib = 0u;
    for (var d = 0u; d < ndim; d = d + 1u) {
        let stride = meta[1u + d];
        let c = rem / stride;
        rem = rem % stride;
        ia = ia + c * meta[1u + ndim + d];
        ib = ib + c * meta[1u + 2u * ndim + d];
    }
    let x = a[ia];
    let y = b[ib];
    result[idx] = EXPR;
}
`

// reduceShaderTemplate folds the reduced dimensions of src into each output
// element. INIT is the fold's start value; FOLD updates acc from v.
//
// meta layout: [ndim, nred, reduceCount,
//
//	outStrides[ndim], srcStrides[ndim],
//	redStrides[nred], redSizes[nred]]
//
// outStrides describe the output shape (reduced dims kept with size 1), and
// srcStrides are the source's plain strides: the output coordinate is always 0
// on a reduced dim, so it contributes nothing to the base index and the
// redStrides/redSizes loop walks that dim instead.
const reduceShaderTemplate = `
@group(0) @binding(0) var<storage, read> src: array<f32>;
@group(0) @binding(1) var<storage, read_write> result: array<f32>;
@group(0) @binding(2) var<storage, read> meta: array<u32>;

struct Params {
    size: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx >= params.size) {
        return;
    }
    let ndim = meta[0];
    let nred = meta[1];
    let reduce_count = meta[2];

    var rem = idx;
    var base = 0u;
    for (var d = 0u; d < ndim; d = d + 1u) {
        let c = rem / meta[3u + d];
        rem = rem % meta[3u + d];
        base = base + c * meta[3u + ndim + d];
    }

    var acc: f32 = INIT;
    for (var r = 0u; r < reduce_count; r = r + 1u) {
        var rr = r;
        var off = 0u;
        for (var j = 0u; j < nred; j = j + 1u) {
            let size = meta[3u + 2u * ndim + nred + j];
            let coord = rr % size;
            rr = rr / size;
            off = off + coord * meta[3u + 2u * ndim + j];
        }
        let v = src[base + off];
        FOLD;
    }
    result[idx] = acc;
}
`

// permShader gathers elements through permuted strides.
// meta layout: [ndim, dstStrides[ndim], gatherStrides[ndim]] where
// gatherStrides[d] is the source stride of the axis moved to position d.
const permShader = `
@group(0) @binding(0) var<storage, read> src: array<f32>;
@group(0) @binding(1) var<storage, read_write> result: array<f32>;
@group(0) @binding(2) var<storage, read> meta: array<u32>;

struct Params {
    size: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx >= params.size) {
        return;
    }
    let ndim = meta[0];
    var rem = idx;
    var si = 0u;
    for (var d = 0u; d < ndim; d = d + 1u) {
        let c = rem / meta[1u + d];
        rem = rem % meta[1u + d];
        si = si + c * meta[1u + ndim + d];
    }
    result[idx] = src[si];
}
`

// sliceShader copies a per-axis [begin, end) window; coordinates outside the
// source read as zero. Signed meta because begin may be negative:
// [ndim, dstStrides[ndim], srcStrides[ndim], srcShape[ndim], begin[ndim]].
const sliceShader = `
@group(0) @binding(0) var<storage, read> src: array<f32>;
@group(0) @binding(1) var<storage, read_write> result: array<f32>;
@group(0) @binding(2) var<storage, read> meta: array<i32>;

struct Params {
    size: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx >= params.size) {
        return;
    }
    let ndim = meta[0];
    var rem = i32(idx);
    var si = 0;
    var in_bounds = true;
    for (var d = 0; d < ndim; d = d + 1) {
        let c = rem / meta[1 + d];
        rem = rem % meta[1 + d];
        let sc = c + meta[1 + 3 * ndim + d];
        if (sc < 0 || sc >= meta[1 + 2 * ndim + d]) {
            in_bounds = false;
        }
        si = si + sc * meta[1 + ndim + d];
    }
    if (in_bounds) {
        result[idx] = src[u32(si)];
    } else {
        result[idx] = 0.0;
    }
}
`

// matmulShader computes C = A @ B with optional transposed reads.
// A is [M, K] (or [K, M] when trans_a), B is [K, N] (or [N, K] when trans_b).
const matmulShader = `
@group(0) @binding(0) var<storage, read> a: array<f32>;
@group(0) @binding(1) var<storage, read> b: array<f32>;
@group(0) @binding(2) var<storage, read_write> result: array<f32>;

struct Params {
    m: u32,
    k: u32,
    n: u32,
    trans_a: u32,
    trans_b: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(16, 16)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let row = global_id.y;
    let col = global_id.x;
    if (row >= params.m || col >= params.n) {
        return;
    }

    var sum: f32 = 0.0;
    for (var p: u32 = 0u; p < params.k; p = p + 1u) {
        var av: f32;
        if (params.trans_a != 0u) {
            av = a[p * params.m + row];
        } else {
            av = a[row * params.k + p];
        }
        var bv: f32;
        if (params.trans_b != 0u) {
            bv = b[col * params.k + p];
        } else {
            bv = b[p * params.n + col];
        }
        sum = sum + av * bv;
    }
    result[row * params.n + col] = sum;
}
`

// convParamsWGSL is the uniform block shared by the convolution kernels. It
// mirrors the packed ConvArgs field for field.
const convParamsWGSL = `
struct ConvParams {
    h: u32,
    w: u32,
    groups: u32,
    rcout: u32,
    cin: u32,
    oy: u32,
    ox: u32,
    iy: u32,
    ix: u32,
    ys: u32,
    xs: u32,
    bs: u32,
}
`

// convShader computes the grouped strided convolution forward pass, one
// thread per output element.
const convShader = `
@group(0) @binding(0) var<storage, read> x: array<f32>;
@group(0) @binding(1) var<storage, read> w: array<f32>;
@group(0) @binding(2) var<storage, read_write> result: array<f32>;
` + convParamsWGSL + `
@group(0) @binding(3) var<uniform> p: ConvParams;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    let cout = p.groups * p.rcout;
    let total = p.bs * cout * p.oy * p.ox;
    if (idx >= total) {
        return;
    }

    let ox = idx % p.ox;
    let oy = (idx / p.ox) % p.oy;
    let co = (idx / (p.ox * p.oy)) % cout;
    let bb = idx / (p.ox * p.oy * cout);
    let g = co / p.rcout;
    let cin_total = p.groups * p.cin;

    var sum: f32 = 0.0;
    for (var ci = 0u; ci < p.cin; ci = ci + 1u) {
        let xc = g * p.cin + ci;
        for (var i = 0u; i < p.h; i = i + 1u) {
            let iy = oy * p.ys + i;
            for (var j = 0u; j < p.w; j = j + 1u) {
                let ix = ox * p.xs + j;
                let xv = x[((bb * cin_total + xc) * p.iy + iy) * p.ix + ix];
                let wv = w[((co * p.cin + ci) * p.h + i) * p.w + j];
                sum = sum + xv * wv;
            }
        }
    }
    result[idx] = sum;
}
`

// convDXShader computes the input gradient, one thread per input element.
// Gather formulation: each input element finds the output positions it fed.
const convDXShader = `
@group(0) @binding(0) var<storage, read> w: array<f32>;
@group(0) @binding(1) var<storage, read> grad: array<f32>;
@group(0) @binding(2) var<storage, read_write> result: array<f32>;
` + convParamsWGSL + `
@group(0) @binding(3) var<uniform> p: ConvParams;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    let cin_total = p.groups * p.cin;
    let total = p.bs * cin_total * p.iy * p.ix;
    if (idx >= total) {
        return;
    }

    let ix = idx % p.ix;
    let iy = (idx / p.ix) % p.iy;
    let xc = (idx / (p.ix * p.iy)) % cin_total;
    let bb = idx / (p.ix * p.iy * cin_total);
    let g = xc / p.cin;
    let ci = xc % p.cin;
    let cout = p.groups * p.rcout;

    var sum: f32 = 0.0;
    for (var i = 0u; i <= iy; i = i + 1u) {
        if (i >= p.h) { break; }
        let y = iy - i;
        if (y % p.ys != 0u) { continue; }
        let oy = y / p.ys;
        if (oy >= p.oy) { continue; }
        for (var j = 0u; j <= ix; j = j + 1u) {
            if (j >= p.w) { break; }
            let xo = ix - j;
            if (xo % p.xs != 0u) { continue; }
            let ox = xo / p.xs;
            if (ox >= p.ox) { continue; }
            for (var rc = 0u; rc < p.rcout; rc = rc + 1u) {
                let co = g * p.rcout + rc;
                let gv = grad[((bb * cout + co) * p.oy + oy) * p.ox + ox];
                let wv = w[((co * p.cin + ci) * p.h + i) * p.w + j];
                sum = sum + gv * wv;
            }
        }
    }
    result[idx] = sum;
}
`

// convDWShader computes the weight gradient, one thread per weight element.
const convDWShader = `
@group(0) @binding(0) var<storage, read> x: array<f32>;
@group(0) @binding(1) var<storage, read> grad: array<f32>;
@group(0) @binding(2) var<storage, read_write> result: array<f32>;
` + convParamsWGSL + `
@group(0) @binding(3) var<uniform> p: ConvParams;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    let cout = p.groups * p.rcout;
    let total = cout * p.cin * p.h * p.w;
    if (idx >= total) {
        return;
    }

    let j = idx % p.w;
    let i = (idx / p.w) % p.h;
    let ci = (idx / (p.w * p.h)) % p.cin;
    let co = idx / (p.w * p.h * p.cin);
    let g = co / p.rcout;
    let xc = g * p.cin + ci;
    let cin_total = p.groups * p.cin;

    var sum: f32 = 0.0;
    for (var bb = 0u; bb < p.bs; bb = bb + 1u) {
        for (var oy = 0u; oy < p.oy; oy = oy + 1u) {
            let iy = oy * p.ys + i;
            for (var ox = 0u; ox < p.ox; ox = ox + 1u) {
                let ix = ox * p.xs + j;
                let gv = grad[((bb * cout + co) * p.oy + oy) * p.ox + ox];
                let xv = x[((bb * cin_total + xc) * p.iy + iy) * p.ix + ix];
                sum = sum + gv * xv;
            }
        }
    }
    result[idx] = sum;
}
`

func spliceExpr(template, expr string) string {
	return strings.ReplaceAll(template, "EXPR", expr)
}

func spliceReduce(init, fold string) string {
	s := strings.ReplaceAll(reduceShaderTemplate, "INIT", init)
	return strings.ReplaceAll(s, "FOLD", fold)
}
