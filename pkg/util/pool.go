package util

import "runtime"

const (
	minPoolSize = 4
	maxPoolSize = 32
)

// GetOptimalPoolSize returns the worker and parser pool size used across the
// analyzers: twice the CPU count, clamped to [4, 32].
//
// Parser pools and worker pools MUST use the same value. A worker that
// cannot get a parser blocks until another worker releases one.
func GetOptimalPoolSize() int {
	size := runtime.NumCPU() * 2
	if size < minPoolSize {
		return minPoolSize
	}
	if size > maxPoolSize {
		return maxPoolSize
	}
	return size
}

// GetOptimalPoolSizeWithOverride returns override when positive, otherwise
// GetOptimalPoolSize().
func GetOptimalPoolSizeWithOverride(override int) int {
	if override > 0 {
		return override
	}
	return GetOptimalPoolSize()
}
