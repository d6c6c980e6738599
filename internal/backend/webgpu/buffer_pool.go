//go:build windows

package webgpu

import (
	"sync"

	"github.com/go-webgpu/webgpu/wgpu"
)

// BufferSize represents buffer size categories for pooling.
type BufferSize int

const (
	// SmallBuffer for tensors < 4KB.
	SmallBuffer BufferSize = iota
	// MediumBuffer for tensors 4KB-1MB.
	MediumBuffer
	// LargeBuffer for tensors > 1MB.
	LargeBuffer
)

const (
	smallThreshold  = 4 * 1024    // 4KB
	mediumThreshold = 1024 * 1024 // 1MB
	defaultPoolCap  = 100         // Max buffers per category
)

// pooledBuffer wraps a GPU buffer with the metadata matching needs.
type pooledBuffer struct {
	buffer *wgpu.Buffer
	size   uint64
	usage  wgpu.BufferUsage
}

// PoolStats holds buffer pool counters.
type PoolStats struct {
	Hits      uint64
	Misses    uint64
	Allocated uint64
	Released  uint64
}

// BufferPool manages GPU buffer reuse to reduce allocation overhead.
// Buffers are categorized by size and matched on usage flags.
type BufferPool struct {
	device *wgpu.Device
	cap    int

	small  []*pooledBuffer
	medium []*pooledBuffer
	large  []*pooledBuffer

	mu    sync.Mutex
	stats PoolStats
}

// NewBufferPool creates a buffer pool for the given device. cap bounds the
// number of idle buffers kept per size category.
func NewBufferPool(device *wgpu.Device, cap int) *BufferPool {
	if cap <= 0 {
		cap = defaultPoolCap
	}
	return &BufferPool{
		device: device,
		cap:    cap,
		small:  make([]*pooledBuffer, 0, cap),
		medium: make([]*pooledBuffer, 0, cap),
		large:  make([]*pooledBuffer, 0, cap),
	}
}

func (p *BufferPool) categorize(size uint64) BufferSize {
	switch {
	case size < smallThreshold:
		return SmallBuffer
	case size < mediumThreshold:
		return MediumBuffer
	default:
		return LargeBuffer
	}
}

func (p *BufferPool) getPool(c BufferSize) *[]*pooledBuffer {
	switch c {
	case SmallBuffer:
		return &p.small
	case MediumBuffer:
		return &p.medium
	default:
		return &p.large
	}
}

// Acquire gets a buffer from the pool or creates a new one. The returned
// buffer matches or exceeds the requested size and carries at least the
// requested usage flags.
func (p *BufferPool) Acquire(size uint64, usage wgpu.BufferUsage) *wgpu.Buffer {
	p.mu.Lock()
	defer p.mu.Unlock()

	pool := p.getPool(p.categorize(size))
	for i, pb := range *pool {
		if pb.size >= size && pb.usage&usage == usage {
			buffer := pb.buffer
			*pool = append((*pool)[:i], (*pool)[i+1:]...)
			p.stats.Hits++
			return buffer
		}
	}

	p.stats.Misses++
	p.stats.Allocated++

	return p.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: usage,
		Size:  size,
	})
}

// Release returns a buffer to the pool for reuse. If the category is full,
// the buffer is released immediately.
func (p *BufferPool) Release(buffer *wgpu.Buffer, size uint64, usage wgpu.BufferUsage) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stats.Released++

	pool := p.getPool(p.categorize(size))
	if len(*pool) >= p.cap {
		buffer.Release()
		return
	}
	*pool = append(*pool, &pooledBuffer{buffer: buffer, size: size, usage: usage})
}

// Stats returns a snapshot of the pool counters.
func (p *BufferPool) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// Clear releases every pooled buffer.
func (p *BufferPool) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, pool := range []*[]*pooledBuffer{&p.small, &p.medium, &p.large} {
		for _, pb := range *pool {
			pb.buffer.Release()
		}
		*pool = (*pool)[:0]
	}
}
