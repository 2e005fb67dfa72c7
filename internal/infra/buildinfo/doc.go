// Package buildinfo exposes build-time version information.
//
// Values are injected at build time via ldflags:
//
//	go build -ldflags "-X github.com/yndnr/storefront-go/internal/infra/buildinfo.Version=v1.0.0 \
//	  -X github.com/yndnr/storefront-go/internal/infra/buildinfo.Commit=abc123"
//
// When a value is not injected it falls back to what the Go toolchain
// embedded in the binary (module version, vcs revision and time).
package buildinfo
