//go:build !windows

package main

// probeGPU reports no adapter; the WebGPU device is built for windows only.
func probeGPU(int) (string, bool) {
	return "", false
}
