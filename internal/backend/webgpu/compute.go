//go:build windows

package webgpu

import (
	"encoding/binary"
	"fmt"
	"unsafe"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/stencil-ml/stencil/internal/tensor"
)

const storageUsage = wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst

// createBuffer creates a GPU buffer and uploads data through MappedAtCreation.
func (b *Backend) createBuffer(data []byte, usage wgpu.BufferUsage) *wgpu.Buffer {
	size := uint64(len(data))

	buffer := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            usage,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})

	mappedPtr := buffer.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), size)
	copy(mappedSlice, data)
	buffer.Unmap()

	return buffer
}

// createMetaU32 uploads precomputed index arithmetic as a storage buffer.
func (b *Backend) createMetaU32(words []uint32) *wgpu.Buffer {
	data := make([]byte, len(words)*4)
	for i, w := range words {
		binary.LittleEndian.PutUint32(data[i*4:], w)
	}
	return b.createBuffer(data, wgpu.BufferUsageStorage)
}

// createMetaI32 is createMetaU32 for signed metadata (slice bounds).
func (b *Backend) createMetaI32(words []int32) *wgpu.Buffer {
	data := make([]byte, len(words)*4)
	for i, w := range words {
		//nolint:gosec // bit-level reinterpretation, two's complement on the GPU too
		binary.LittleEndian.PutUint32(data[i*4:], uint32(w))
	}
	return b.createBuffer(data, wgpu.BufferUsageStorage)
}

// createUniformBuffer creates a uniform buffer with 16-byte alignment.
func (b *Backend) createUniformBuffer(data []byte) *wgpu.Buffer {
	size := uint64(len(data))
	alignedSize := (size + 15) &^ 15

	buffer := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		Size:             alignedSize,
		MappedAtCreation: wgpu.True,
	})

	mappedPtr := buffer.GetMappedRange(0, alignedSize)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), alignedSize)
	copy(mappedSlice, data)
	buffer.Unmap()

	return buffer
}

// paramsU32 packs uniform parameters little-endian, padded to 16 bytes.
func paramsU32(vals ...uint32) []byte {
	size := (len(vals)*4 + 15) &^ 15
	data := make([]byte, size)
	for i, v := range vals {
		binary.LittleEndian.PutUint32(data[i*4:], v)
	}
	return data
}

// readBuffer reads a GPU buffer back to CPU memory through a staging buffer;
// storage buffers cannot be mapped directly.
func (b *Backend) readBuffer(src *wgpu.Buffer, size uint64) ([]byte, error) {
	staging := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		Size:  size,
	})
	defer staging.Release()

	encoder := b.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(src, 0, staging, 0, size)
	cmdBuffer := encoder.Finish(nil)
	b.queue.Submit(cmdBuffer)

	if err := staging.MapAsync(b.device, wgpu.MapModeRead, 0, size); err != nil {
		return nil, fmt.Errorf("failed to map staging buffer: %w", err)
	}

	mappedPtr := staging.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), size)
	result := make([]byte, size)
	copy(result, mappedSlice)
	staging.Unmap()

	return result, nil
}

// dispatch binds the buffers and runs one compute pass.
func (b *Backend) dispatch(pipeline *wgpu.ComputePipeline, entries []wgpu.BindGroupEntry, wx, wy, wz uint32) {
	layout := pipeline.GetBindGroupLayout(0)
	bindGroup := b.device.CreateBindGroupSimple(layout, entries)
	defer bindGroup.Release()

	encoder := b.device.CreateCommandEncoder(nil)
	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.DispatchWorkgroups(wx, wy, wz)
	pass.End()

	cmdBuffer := encoder.Finish(nil)
	b.queue.Submit(cmdBuffer)
}

// runToResult executes a cached kernel writing resultSize bytes, then reads
// the result back into a new tensor. The result buffer comes from the pool;
// extra entries are appended after it at the binding offsets the caller's
// shader declares.
func (b *Backend) runToResult(op string, pipeline *wgpu.ComputePipeline,
	inputs []*wgpu.Buffer, inputSizes []uint64,
	extras []wgpu.BindGroupEntry,
	outShape tensor.Shape, wx, wy, wz uint32) *tensor.RawTensor {

	result := b.newResult(op, outShape)
	//nolint:gosec // ByteSize is non-negative
	resultSize := uint64(result.ByteSize())

	resultBuf := b.pool.Acquire(resultSize, storageUsage)
	defer b.pool.Release(resultBuf, resultSize, storageUsage)

	entries := make([]wgpu.BindGroupEntry, 0, len(inputs)+1+len(extras))
	for i, buf := range inputs {
		//nolint:gosec // binding index bounded by kernel arity
		entries = append(entries, wgpu.BufferBindingEntry(uint32(i), buf, 0, inputSizes[i]))
	}
	//nolint:gosec // binding index bounded by kernel arity
	entries = append(entries, wgpu.BufferBindingEntry(uint32(len(inputs)), resultBuf, 0, resultSize))
	for _, e := range extras {
		e.Binding += uint32(len(inputs)) + 1
		entries = append(entries, e)
	}

	b.dispatch(pipeline, entries, wx, wy, wz)

	data, err := b.readBuffer(resultBuf, resultSize)
	if err != nil {
		panic(op + ": " + err.Error())
	}
	copy(result.Data(), data)
	return result
}

// uploadStorage creates read-only storage buffers for the operand tensors.
// The returned release function frees them all.
func (b *Backend) uploadStorage(ts ...*tensor.RawTensor) ([]*wgpu.Buffer, []uint64, func()) {
	bufs := make([]*wgpu.Buffer, len(ts))
	sizes := make([]uint64, len(ts))
	for i, t := range ts {
		bufs[i] = b.createBuffer(t.Data(), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
		//nolint:gosec // ByteSize is non-negative
		sizes[i] = uint64(t.ByteSize())
	}
	return bufs, sizes, func() {
		for _, buf := range bufs {
			buf.Release()
		}
	}
}

// newResult allocates a float32 output tensor, panicking on invalid shapes
// the way all kernel-level misuse is reported.
func (b *Backend) newResult(op string, shape tensor.Shape) *tensor.RawTensor {
	out, err := tensor.NewRaw(shape, tensor.Float32, tensor.WebGPU)
	if err != nil {
		panic(op + ": " + err.Error())
	}
	return out
}

// checkFloat32 panics unless every operand is float32, the only dtype the
// WGSL kernels handle.
func checkFloat32(op string, ts ...*tensor.RawTensor) {
	for _, t := range ts {
		if t.DType() != tensor.Float32 {
			panic(fmt.Sprintf("%s: webgpu supports float32 only, got %s", op, t.DType()))
		}
	}
}

// workgroups1D computes the 1D dispatch size for n elements.
func workgroups1D(n int) uint32 {
	//nolint:gosec // element counts are non-negative
	return uint32((n + workgroupSize - 1) / workgroupSize)
}
