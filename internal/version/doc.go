// Package version exposes build metadata injected through -ldflags and a
// `version` subcommand shared by the shooter binaries.
package version
