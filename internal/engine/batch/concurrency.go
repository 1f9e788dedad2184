// Package batch runs many independent extractions with bounded concurrency.
package batch

import "runtime"

// MaxConcurrency caps automatic sizing; the marketplace throttles aggressive clients.
const MaxConcurrency = 8

// DefaultConcurrency sizes the worker count from the CPU count.
func DefaultConcurrency() int {
	n := runtime.NumCPU()
	if n > MaxConcurrency {
		return MaxConcurrency
	}
	if n < 1 {
		return 1
	}
	return n
}
