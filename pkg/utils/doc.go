// Package utils provides utility functions for the surveylens library.
//
// This package contains helper functions for:
//   - Vector math over embeddings (vector.go)
//   - Concurrent execution helpers (concurrent.go)
//   - Panic recovery for goroutines (recovery.go)
package utils
