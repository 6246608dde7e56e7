//go:build ruleguard

// Package gorules defines the ruleguard checks run by golangci-lint.
package gorules
