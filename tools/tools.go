//go:build tools

// Package tools documents development tool dependencies.
// These tools are run with `go run` or installed via `go install` and are not tracked in go.mod
// since they are development tools, not runtime dependencies.
package tools

// Development tools:
//
// mockgen - gomock doubles for the ports in internal/core
//   Run: go generate ./internal/mocks ./internal/core
//   Version: go.uber.org/mock v0.6.0 (matches go.mod)
//
// golangci-lint - the nolint directives in this module target it
//   Install: go install github.com/golangci/golangci-lint/v2/cmd/golangci-lint@latest
