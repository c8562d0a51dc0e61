// Package build holds build-time information.
package build

// Version, Commit and Date are overwritten by linker flags at release time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)
