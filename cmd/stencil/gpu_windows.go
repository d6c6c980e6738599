//go:build windows

package main

import "github.com/stencil-ml/stencil/backend/webgpu"

// probeGPU reports the adapter name when a WebGPU device can be initialized.
func probeGPU(poolCap int) (string, bool) {
	gpu, err := webgpu.NewWithPoolCap(poolCap)
	if err != nil {
		return "", false
	}
	defer gpu.Release()
	return gpu.AdapterName(), true
}
