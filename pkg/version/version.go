// Package version exposes the batchrun build version.
package version

// version is overridden at build time with
// -ldflags "-X github.com/rshade/batchrun/pkg/version.version=v1.2.3".
var version = "dev" //nolint:gochecknoglobals // Set by the linker

// GetVersion returns the build version.
func GetVersion() string {
	return version
}
