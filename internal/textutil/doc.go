// Package textutil provides small text helpers shared across the pipeline.
//
// The primary use cases are:
//   - Deriving human-readable display titles from file paths
//   - Generic conditional selection for terse rendering code
package textutil
