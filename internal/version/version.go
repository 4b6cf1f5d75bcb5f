// Package version exposes the version folio has been built with.
package version

import (
	"fmt"
)

// version is set at build time with -ldflags "-X .../internal/version.version=v1.2.3".
var version string

// GetVersionString returns the version header printed by `folio --version`.
func GetVersionString(binary string) string {
	return fmt.Sprintf("%s, version %v", binary, version)
}

// GetVersion returns the semver compatible version number.
func GetVersion() string {
	return version
}
