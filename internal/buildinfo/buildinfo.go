// Package buildinfo holds the version and build metadata the version
// subcommand reports, set at link time via -ldflags.
package buildinfo

// Version and BuildTime are overridden at build time via:
//
//	go build -ldflags "-X github.com/labki-org/labki-schemas/internal/buildinfo.Version=1.2.3 -X github.com/labki-org/labki-schemas/internal/buildinfo.BuildTime=2026-01-01T00:00:00Z"
var (
	Version   = "0.1.0"
	BuildTime = "dev"
)

// AppName is the binary name, used as the root command name and in version
// output.
const AppName = "labki-ontology"
